package chat

import (
	"context"
	"strings"
	"testing"
)

func TestView_NotReady(t *testing.T) {
	if got := NewTestModel(t).View(); got != "Memuat..." {
		t.Errorf("View() = %q before sizing", got)
	}
}

func TestView_ShowsHeaderAndGreeting(t *testing.T) {
	m := sized(t, NewTestModel(t))
	cfg := testChatConfig()

	view := m.View()
	for _, want := range []string{cfg.Title, cfg.Subtitle, footerText} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if !strings.Contains(m.renderHistory(), "Saya ELSBOT") {
		t.Error("history should contain the greeting")
	}
}

func TestRenderHistory_Alignment(t *testing.T) {
	m := sized(t, NewTestModel(t))
	m = runTurn(t, m, "harga Laptop X")

	var userLine, botLine string
	for _, line := range strings.Split(m.renderHistory(), "\n") {
		switch {
		case strings.Contains(line, "harga Laptop X") && userLine == "":
			userLine = line
		case strings.Contains(line, "Saya ELSBOT") && botLine == "":
			botLine = line
		}
	}
	if userLine == "" || botLine == "" {
		t.Fatal("expected both bubbles in history")
	}
	if strings.Index(userLine, "harga") <= strings.Index(botLine, "Saya") {
		t.Error("user bubble should sit to the right of the assistant bubble")
	}
}

func TestRenderHistory_UsesCache(t *testing.T) {
	m := sized(t, NewTestModel(t))
	before := m.cache.Hits()

	_ = m.renderHistory()
	_ = m.renderHistory()
	if m.cache.Hits() <= before {
		t.Error("second render should hit the cache")
	}
}

func TestSafeRenderMarkdown_NoRenderer(t *testing.T) {
	m := NewTestModel(t)
	if got := m.safeRenderMarkdown("plain"); got != "plain" {
		t.Errorf("got %q", got)
	}
}

func TestView_KnowledgeChangedNotice(t *testing.T) {
	m := sized(t, NewTestModel(t))
	if strings.Contains(m.View(), knowledgeNotice) {
		t.Fatal("notice shown before any change")
	}

	next, cmd := m.Update(KnowledgeChangedMsg{Path: "store_data.txt"})
	if cmd != nil {
		t.Error("notice should not schedule a command")
	}
	if !strings.Contains(next.(Model).View(), knowledgeNotice) {
		t.Error("view should show the catalog notice")
	}
}

func TestRenderHistory_PendingUserShownOnce(t *testing.T) {
	m := sized(t, NewTestModel(t))
	const question = "cek garansi toko"

	m, _ = typeAndSubmit(t, m, question)
	if got := strings.Count(m.renderHistory(), question); got != 1 {
		t.Fatalf("before append: question drawn %d times, want 1", got)
	}

	// The turn finishes before its responseMsg reaches Update.
	if _, err := m.session.Submit(context.Background(), question); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !m.isLoading {
		t.Fatal("model should still be loading")
	}
	if got := strings.Count(m.renderHistory(), question); got != 1 {
		t.Errorf("after append: question drawn %d times, want 1", got)
	}
}
