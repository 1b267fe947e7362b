package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elsbot/internal/perception"
	"elsbot/internal/prompt"
)

// stubClient replays a queue of results and records every user prompt.
type stubClient struct {
	mu      sync.Mutex
	results []stubResult
	prompts []string
	history [][]perception.Turn

	entered chan struct{} // signalled when a call starts, if set
	release chan struct{} // a call blocks until closed, if set
}

type stubResult struct {
	reply string
	err   error
}

func (s *stubClient) Complete(ctx context.Context, text string) (string, error) {
	return s.CompleteWithSystem(ctx, "", text)
}

func (s *stubClient) CompleteWithSystem(_ context.Context, _, userPrompt string) (string, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, userPrompt)
	if len(s.results) == 0 {
		return "ok", nil
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r.reply, r.err
}

func (s *stubClient) CompleteWithHistory(ctx context.Context, systemPrompt string, history []perception.Turn, userPrompt string) (string, error) {
	s.mu.Lock()
	s.history = append(s.history, history)
	s.mu.Unlock()
	return s.CompleteWithSystem(ctx, systemPrompt, userPrompt)
}

func newTestSession(t *testing.T, client perception.LLMClient, opts Options) *Session {
	t.Helper()
	h, err := perception.NewHandle(client, "system")
	require.NoError(t, err)
	return New(perception.NewReadyInitializer(h), opts)
}

func TestNew_SeedsGreeting(t *testing.T) {
	s := newTestSession(t, &stubClient{}, Options{Greeting: "Halo!"})

	msgs := s.Transcript()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleAssistant, msgs[0].Role)
	assert.Equal(t, "Halo!", msgs[0].Content)
	assert.Equal(t, 0, s.Turns())
	assert.NotEmpty(t, s.ID())
}

func TestNew_DefaultOptions(t *testing.T) {
	s := newTestSession(t, &stubClient{}, Options{})
	assert.Equal(t, DefaultGreeting, s.Transcript()[0].Content)
	assert.NotEqual(t, s.ID(), newTestSession(t, &stubClient{}, Options{}).ID())
}

func TestSubmit_Alternation(t *testing.T) {
	client := &stubClient{results: []stubResult{{reply: "a1"}, {reply: "a2"}, {reply: "a3"}}}
	s := newTestSession(t, client, Options{Greeting: "greet"})

	for _, q := range []string{"q1", "  q2  ", "q3"} {
		_, err := s.Submit(context.Background(), q)
		require.NoError(t, err)
	}

	got := s.Transcript()
	require.Len(t, got, 1+2*3)
	want := []Message{
		{Role: RoleAssistant, Content: "greet"},
		{Role: RoleUser, Content: "q1"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "  q2  "},
		{Role: RoleAssistant, Content: "a2"},
		{Role: RoleUser, Content: "q3"},
		{Role: RoleAssistant, Content: "a3"},
	}
	if diff := cmp.Diff(want, got, ignoreTime); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Time.Before(got[i-1].Time), "message %d out of order", i)
	}
	assert.Equal(t, 3, s.Turns())
	assert.Equal(t, []string{"q1", "  q2  ", "q3"}, client.prompts)
}

func TestSubmit_EmptyInput(t *testing.T) {
	client := &stubClient{}
	s := newTestSession(t, client, Options{})

	_, err := s.Submit(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Len(t, s.Transcript(), 1)
	assert.Equal(t, 0, s.Turns())
	assert.Empty(t, client.prompts)
}

func TestSubmit_InputStoredVerbatim(t *testing.T) {
	client := &stubClient{}
	s := newTestSession(t, client, Options{})

	inputs := []string{"  Berapa harga?\n", "   ", "\n\t"}
	for _, in := range inputs {
		turn, err := s.Submit(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, in, turn.User.Content)
	}

	msgs := s.Transcript()
	require.Len(t, msgs, 1+2*len(inputs))
	for i, in := range inputs {
		assert.Equal(t, RoleUser, msgs[1+2*i].Role)
		assert.Equal(t, in, msgs[1+2*i].Content)
	}
	assert.Equal(t, inputs, client.prompts)
}

func TestSubmit_PriceQuestion(t *testing.T) {
	instruction := prompt.Compose("Laptop X — Rp 10.000.000")
	h, err := perception.NewHandle(perception.NewEchoClient(), instruction)
	require.NoError(t, err)
	s := New(perception.NewReadyInitializer(h), Options{})

	turn, err := s.Submit(context.Background(), "Berapa harga Laptop X?")
	require.NoError(t, err)

	msgs := s.Transcript()
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, "Berapa harga Laptop X?", msgs[1].Content)
	assert.Equal(t, RoleAssistant, msgs[2].Role)
	assert.Contains(t, msgs[2].Content, "Rp 10.000.000")
	assert.NotContains(t, msgs[2].Content, "*")
	assert.Equal(t, msgs[2], turn.Reply)
}

func TestSubmit_StripsEmphasis(t *testing.T) {
	client := &stubClient{results: []stubResult{{reply: "Harga **Laptop X** Rp 10.000.000"}}}
	s := newTestSession(t, client, Options{})

	turn, err := s.Submit(context.Background(), "harga?")
	require.NoError(t, err)
	assert.Equal(t, "Harga Laptop X Rp 10.000.000", turn.Reply.Content)
}

func TestSubmit_FailureContainment(t *testing.T) {
	boom := errors.New("connection reset")
	client := &stubClient{results: []stubResult{{err: boom}, {reply: "recovered"}}}
	s := newTestSession(t, client, Options{ErrorReply: "Maaf, gagal."})

	turn, err := s.Submit(context.Background(), "q1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, err, turn.Err)
	assert.True(t, turn.Reply.Failed)
	assert.Equal(t, "Maaf, gagal.", turn.Reply.Content)

	msgs := s.Transcript()
	require.Len(t, msgs, 3)
	assert.Equal(t, "q1", msgs[1].Content)
	assert.True(t, msgs[2].Failed)

	turn, err = s.Submit(context.Background(), "q2")
	require.NoError(t, err)
	assert.Equal(t, "recovered", turn.Reply.Content)
	assert.False(t, turn.Reply.Failed)
	assert.Len(t, s.Transcript(), 5)
	assert.Equal(t, 2, s.Turns())
}

func TestSubmit_InitFailureIsContained(t *testing.T) {
	builds := 0
	initializer := perception.NewInitializer(func(ctx context.Context) (*perception.Handle, error) {
		builds++
		if builds == 1 {
			return nil, errors.New("no network")
		}
		return perception.NewHandle(&stubClient{}, "system")
	})
	s := New(initializer, Options{})

	_, err := s.Submit(context.Background(), "q1")
	assert.ErrorIs(t, err, ErrBackend)
	assert.True(t, s.Transcript()[2].Failed)

	_, err = s.Submit(context.Background(), "q2")
	require.NoError(t, err)
	assert.Equal(t, 2, builds)
}

func TestSubmit_EmptyReplyIsFailure(t *testing.T) {
	client := &stubClient{results: []stubResult{{reply: "  "}}}
	s := newTestSession(t, client, Options{})

	_, err := s.Submit(context.Background(), "q1")
	assert.ErrorIs(t, err, perception.ErrEmptyReply)
	assert.True(t, s.Transcript()[2].Failed)
}

func TestSubmit_OneTurnAtATime(t *testing.T) {
	client := &stubClient{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := newTestSession(t, client, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "first")
		done <- err
	}()

	<-client.entered
	assert.True(t, s.Busy())
	_, err := s.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrTurnInProgress)

	close(client.release)
	require.NoError(t, <-done)
	assert.False(t, s.Busy())

	msgs := s.Transcript()
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[1].Content)
}

func TestSubmit_IncludeHistory(t *testing.T) {
	client := &stubClient{results: []stubResult{{reply: "a1"}, {err: errors.New("boom")}, {reply: "a3"}}}
	s := newTestSession(t, client, Options{IncludeHistory: true})

	_, _ = s.Submit(context.Background(), "q1")
	_, _ = s.Submit(context.Background(), "q2")
	_, err := s.Submit(context.Background(), "q3")
	require.NoError(t, err)

	// The first turn has no history and goes through the plain path.
	require.Len(t, client.history, 2)
	assert.Equal(t, []perception.Turn{{User: "q1", Assistant: "a1"}}, client.history[0])
	assert.Equal(t, []perception.Turn{{User: "q1", Assistant: "a1"}}, client.history[1])
}

func TestSubmit_StatelessByDefault(t *testing.T) {
	client := &stubClient{}
	s := newTestSession(t, client, Options{})

	for _, q := range []string{"q1", "q2"} {
		_, err := s.Submit(context.Background(), q)
		require.NoError(t, err)
	}
	assert.Empty(t, client.history)
	for _, p := range client.prompts {
		assert.False(t, strings.Contains(p, "q1") && strings.Contains(p, "q2"))
	}
}
