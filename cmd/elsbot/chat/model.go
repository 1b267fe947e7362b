// Package chat provides the interactive TUI chat interface for ELSBOT.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"elsbot/cmd/elsbot/ui"
	"elsbot/internal/config"
	"elsbot/internal/knowledge"
	"elsbot/internal/logging"
	"elsbot/internal/session"
)

const (
	headerHeight = 2
	footerHeight = 1
	inputHeight  = 2
	errorHeight  = 1
)

// Model is the bubbletea model of the chat screen.
type Model struct {
	ctx     context.Context
	session *session.Session
	chat    config.ChatConfig

	styles    ui.Styles
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	cache     *ui.RenderCache

	// renderer is nil when markdown rendering is disabled.
	markdown bool
	renderer *glamour.TermRenderer

	width     int
	height    int
	ready     bool
	isLoading bool
	pending   string
	// pendingAt is the transcript length when pending was submitted.
	pendingAt int
	notice    string
	err       error

	watchPath string
}

// responseMsg carries the outcome of one Submit back into Update.
type responseMsg struct {
	turn session.Turn
	err  error
}

// KnowledgeChangedMsg reports that the catalog file was edited mid-session.
type KnowledgeChangedMsg struct {
	Path string
}

// Option configures a Model.
type Option func(*Model)

// WithMarkdown renders assistant replies through glamour.
func WithMarkdown() Option {
	return func(m *Model) { m.markdown = true }
}

// WithStyles overrides the detected styles.
func WithStyles(s ui.Styles) Option {
	return func(m *Model) { m.styles = s }
}

// WithKnowledgeWatch shows a notice when the catalog at path changes.
// It only takes effect through RunInteractiveChat.
func WithKnowledgeWatch(path string) Option {
	return func(m *Model) { m.watchPath = path }
}

// New creates the chat model for sess. ctx is passed to every turn.
func New(ctx context.Context, sess *session.Session, chat config.ChatConfig, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = chat.Placeholder
	ti.CharLimit = 0 // no limit; pasted questions are sent whole
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:       ctx,
		session:   sess,
		chat:      chat,
		styles:    ui.DefaultStyles(),
		textinput: ti,
		spinner:   sp,
		cache:     ui.NewRenderCache(200),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.spinner.Style = m.styles.Spinner
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			logging.UI("Chat closed after %d turns", m.session.Turns())
			return m, tea.Quit

		case tea.KeyEnter:
			if m.isLoading {
				return m, nil
			}
			return m.handleSubmit()

		case tea.KeyPgUp, tea.KeyPgDown:
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

		if m.isLoading {
			return m, nil
		}
		m.textinput, tiCmd = m.textinput.Update(msg)
		return m, tiCmd

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case responseMsg:
		m.isLoading = false
		m.pending = ""
		m.err = msg.err
		if msg.err != nil {
			logging.UIError("Turn failed: %v", msg.err)
		}
		m.refresh()
		return m, nil

	case KnowledgeChangedMsg:
		m.notice = knowledgeNotice
		return m, nil

	case spinner.TickMsg:
		if !m.isLoading {
			return m, nil
		}
		var spCmd tea.Cmd
		m.spinner, spCmd = m.spinner.Update(msg)
		m.refresh()
		return m, spCmd

	case tea.MouseMsg:
		m.viewport, vpCmd = m.viewport.Update(msg)
		return m, vpCmd
	}

	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	vpHeight := height - headerHeight - footerHeight - inputHeight - errorHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.textinput.Width = max(width-4, 1)

	if m.markdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(ui.BubbleWidth(width)-4),
		)
		if err != nil {
			logging.UIError("Markdown renderer unavailable: %v", err)
			r = nil
		}
		m.renderer = r
		m.cache.Clear()
	}
	m.refresh()
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	input := m.textinput.Value()
	if strings.TrimSpace(input) == "" {
		return m, nil
	}

	m.textinput.Reset()
	m.pending = input
	m.pendingAt = len(m.session.Transcript())
	m.isLoading = true
	m.err = nil
	m.refresh()

	return m, tea.Batch(m.spinner.Tick, m.submit(input))
}

// submit runs the turn off the UI goroutine.
func (m Model) submit(input string) tea.Cmd {
	ctx, sess := m.ctx, m.session
	return func() tea.Msg {
		turn, err := sess.Submit(ctx, input)
		return responseMsg{turn: turn, err: err}
	}
}

// RunInteractiveChat runs the TUI until the user quits or ctx is cancelled.
func RunInteractiveChat(ctx context.Context, sess *session.Session, chat config.ChatConfig, opts ...Option) error {
	model := New(ctx, sess, chat, append([]Option{WithMarkdown()}, opts...)...)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	if model.watchPath != "" {
		w, err := knowledge.NewWatcher(model.watchPath, func(path string) {
			p.Send(KnowledgeChangedMsg{Path: path})
		})
		if err == nil {
			err = w.Start(ctx)
		}
		if err != nil {
			logging.UIError("Knowledge watch disabled: %v", err)
		} else {
			defer w.Stop()
		}
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
