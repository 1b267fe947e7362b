// This file contains fixtures and helpers for testing the chat package.
package chat

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"elsbot/cmd/elsbot/ui"
	"elsbot/internal/config"
	"elsbot/internal/perception"
	"elsbot/internal/prompt"
	"elsbot/internal/session"
)

const testCatalog = "Laptop X — Rp 10.000.000"

// failingClient always returns an error.
type failingClient struct{}

func (failingClient) Complete(ctx context.Context, p string) (string, error) {
	return "", errors.New("service unavailable")
}

func (failingClient) CompleteWithSystem(ctx context.Context, s, u string) (string, error) {
	return "", errors.New("service unavailable")
}

func testChatConfig() config.ChatConfig {
	return config.DefaultConfig().Chat
}

func newTestSession(t *testing.T, client perception.LLMClient) *session.Session {
	t.Helper()
	h, err := perception.NewHandle(client, prompt.Compose(testCatalog))
	if err != nil {
		t.Fatalf("NewHandle: %v", err)
	}
	cfg := testChatConfig()
	return session.New(perception.NewReadyInitializer(h), session.Options{
		Greeting:   cfg.Greeting,
		ErrorReply: cfg.ErrorReply,
	})
}

// NewTestModel creates an offline model with markdown disabled.
func NewTestModel(t *testing.T) Model {
	t.Helper()
	return newModelWithClient(t, perception.NewEchoClient())
}

func newModelWithClient(t *testing.T, client perception.LLMClient) Model {
	t.Helper()
	return New(context.Background(), newTestSession(t, client), testChatConfig(),
		WithStyles(ui.NewStyles(ui.LightTheme())))
}

// sized returns m after a window size message.
func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

// typeAndSubmit sets the input and presses Enter.
func typeAndSubmit(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.textinput.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

// runTurn submits text and feeds the turn result back into Update.
func runTurn(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, cmd := typeAndSubmit(t, m, text)
	if cmd == nil {
		t.Fatal("expected a command after submit")
	}
	next, _ := m.Update(m.submit(text)())
	return next.(Model)
}
