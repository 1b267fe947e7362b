package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"elsbot/cmd/elsbot/ui"
	"elsbot/internal/session"
)

const (
	userLabel  = "Anda"
	botLabel   = "ELSBOT"
	typingText = "ELSBOT sedang mengetik..."
	footerText = "Enter: kirim • PgUp/PgDn: gulir • Esc/Ctrl+C: keluar"

	knowledgeNotice = "Katalog diperbarui. Mulai ulang ELSBOT untuk memakai data terbaru."
)

func (m Model) renderHistory() string {
	msgs := m.session.Transcript()

	var sb strings.Builder
	for _, msg := range msgs {
		sb.WriteString(m.renderMessage(msg))
		sb.WriteString("\n")
	}

	if m.isLoading {
		// Until the turn goroutine appends the user message, draw it here.
		if len(msgs) <= m.pendingAt {
			sb.WriteString(m.renderMessage(session.Message{Role: session.RoleUser, Content: m.pending}))
			sb.WriteString("\n")
		}
		sb.WriteString(m.spinner.View() + " " + m.styles.Muted.Render(typingText))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m Model) renderMessage(msg session.Message) string {
	isUser := msg.Role == session.RoleUser
	key := ui.ComputeKey(msg.Content, m.width, isUser, msg.Failed)

	bubble := m.cache.GetOrCompute(key, func() string {
		if isUser {
			return m.styles.RenderUserBubble(msg.Content, m.width)
		}
		content := msg.Content
		if !msg.Failed {
			content = m.safeRenderMarkdown(content)
		}
		return m.styles.RenderBotBubble(content, m.width, msg.Failed)
	})

	label, pos := botLabel, lipgloss.Left
	if isUser {
		label, pos = userLabel, lipgloss.Right
	}
	if !msg.Time.IsZero() {
		label += " · " + msg.Time.Format("15:04")
	}
	return lipgloss.PlaceHorizontal(m.width, pos, m.styles.Timestamp.Render(label)) + "\n" + bubble
}

// safeRenderMarkdown renders markdown with panic recovery
func (m Model) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			// If glamour panics, return plain text
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return strings.TrimSpace(rendered)
		}
	}
	return content
}

func (m Model) View() string {
	if !m.ready {
		return "Memuat..."
	}

	header := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Width(m.width).Render(m.chat.Title),
		m.styles.Subtitle.Render(m.chat.Subtitle),
	)

	errLine := ""
	switch {
	case m.err != nil:
		errLine = m.styles.Error.Render("Error: " + m.err.Error())
	case m.notice != "":
		errLine = m.styles.Muted.Render(m.notice)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		m.viewport.View(),
		errLine,
		m.styles.Input.Width(m.width).Render(m.textinput.View()),
		m.styles.Footer.Render(footerText),
	)
}
