package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"elsbot/internal/logging"
	"elsbot/internal/perception"
)

const (
	DefaultGreeting   = "Halo! Saya ELSBOT. Ada yang bisa saya bantu hari ini?"
	DefaultErrorReply = "Maaf, terjadi kesalahan saat menghubungi layanan. Silakan coba lagi."
)

var (
	// ErrEmptyInput is returned for the empty string. Any other input,
	// whitespace included, is stored exactly as given.
	ErrEmptyInput = errors.New("empty input")

	// ErrTurnInProgress is returned when Submit is called while a turn is running.
	ErrTurnInProgress = errors.New("a turn is already in progress")

	// ErrBackend wraps every model failure reported by Submit.
	ErrBackend = errors.New("model backend failed")
)

// Options configures a Session.
type Options struct {
	Greeting   string
	ErrorReply string

	// IncludeHistory resends earlier successful exchanges with each turn.
	IncludeHistory bool
}

// Turn is the outcome of one Submit.
type Turn struct {
	User  Message
	Reply Message
	Err   error
}

// Session is the context of one interactive chat: its transcript, the
// lazily built model handle and the guard allowing one turn at a time.
type Session struct {
	id     string
	conv   *Conversation
	handle *perception.Initializer
	opts   Options

	busy  sync.Mutex
	turns atomic.Int64
}

// New creates a session whose transcript holds only the greeting.
func New(handle *perception.Initializer, opts Options) *Session {
	if opts.Greeting == "" {
		opts.Greeting = DefaultGreeting
	}
	if opts.ErrorReply == "" {
		opts.ErrorReply = DefaultErrorReply
	}

	s := &Session{
		id:     uuid.NewString(),
		conv:   Seed(opts.Greeting),
		handle: handle,
		opts:   opts,
	}
	logging.Session("Session %s started (include_history=%v)", s.id, opts.IncludeHistory)
	return s
}

// ID returns the session UUID.
func (s *Session) ID() string {
	return s.id
}

// Turns returns the number of completed turns, failed ones included.
func (s *Session) Turns() int {
	return int(s.turns.Load())
}

// Transcript returns a copy of the conversation for rendering.
func (s *Session) Transcript() []Message {
	return s.conv.Messages()
}

// Busy reports whether a turn is in flight.
func (s *Session) Busy() bool {
	if s.busy.TryLock() {
		s.busy.Unlock()
		return false
	}
	return true
}

// Submit runs one turn: it records the user input, asks the model and
// records exactly one assistant reply. A backend failure is recorded as a
// Failed reply and returned wrapped in ErrBackend together with the Turn.
func (s *Session) Submit(ctx context.Context, input string) (Turn, error) {
	if input == "" {
		return Turn{}, ErrEmptyInput
	}
	if !s.busy.TryLock() {
		return Turn{}, ErrTurnInProgress
	}
	defer s.busy.Unlock()

	log := logging.Get(logging.CategorySession).With("session", s.id)

	var history []perception.Turn
	if s.opts.IncludeHistory {
		history = s.conv.history()
	}

	user := s.conv.Append(RoleUser, input)
	log.Debug("Turn %d: user message appended (len=%d)", s.Turns()+1, len(input))

	reply, err := s.complete(ctx, history, input)
	n := s.turns.Add(1)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrBackend, err)
		failed := s.conv.appendFailed(s.opts.ErrorReply)
		log.Error("Turn %d failed: %v", n, err)
		return Turn{User: user, Reply: failed, Err: err}, err
	}

	msg := s.conv.Append(RoleAssistant, reply)
	log.Info("Turn %d completed (reply_len=%d)", n, len(reply))
	return Turn{User: user, Reply: msg}, nil
}

func (s *Session) complete(ctx context.Context, history []perception.Turn, text string) (string, error) {
	h, err := s.handle.Get(ctx)
	if err != nil {
		return "", err
	}
	return h.CompleteTurn(ctx, history, text)
}
