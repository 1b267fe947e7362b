package perception

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"elsbot/internal/logging"
)

// ErrNoClient is returned by NewHandle when no client is supplied.
var ErrNoClient = errors.New("perception: nil LLM client")

// Handle binds a client to the fixed system instruction of one session.
// It is safe for concurrent use as long as the client is.
type Handle struct {
	client      LLMClient
	instruction string
}

// NewHandle creates a handle that sends instruction with every call.
func NewHandle(client LLMClient, instruction string) (*Handle, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	return &Handle{client: client, instruction: instruction}, nil
}

// SystemInstruction returns the instruction fixed at creation.
func (h *Handle) SystemInstruction() string {
	return h.instruction
}

// Complete answers a single user input with no prior turns.
func (h *Handle) Complete(ctx context.Context, userText string) (string, error) {
	return h.CompleteTurn(ctx, nil, userText)
}

// CompleteTurn answers userText, replaying history when the client accepts it.
// The reply is trimmed and stripped of emphasis markup; a reply that ends up
// empty is reported as ErrEmptyReply.
func (h *Handle) CompleteTurn(ctx context.Context, history []Turn, userText string) (string, error) {
	var (
		reply string
		err   error
	)
	if hc, ok := h.client.(HistoryCompleter); ok && len(history) > 0 {
		reply, err = hc.CompleteWithHistory(ctx, h.instruction, history, userText)
	} else {
		reply, err = h.client.CompleteWithSystem(ctx, h.instruction, userText)
	}
	if err != nil {
		return "", err
	}

	reply = strings.TrimSpace(StripEmphasis(strings.TrimSpace(reply)))
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

// Initializer builds a Handle at most once per successful attempt.
// Concurrent callers share one in-flight build; a failed build is not
// cached, so the next Get retries.
type Initializer struct {
	build func(ctx context.Context) (*Handle, error)

	group  singleflight.Group
	mu     sync.RWMutex
	handle *Handle
}

// NewInitializer creates an initializer around build.
func NewInitializer(build func(ctx context.Context) (*Handle, error)) *Initializer {
	return &Initializer{build: build}
}

// NewReadyInitializer wraps an already built handle.
func NewReadyInitializer(h *Handle) *Initializer {
	return &Initializer{
		build:  func(context.Context) (*Handle, error) { return h, nil },
		handle: h,
	}
}

// Get returns the cached handle or builds it.
func (i *Initializer) Get(ctx context.Context) (*Handle, error) {
	i.mu.RLock()
	h := i.handle
	i.mu.RUnlock()
	if h != nil {
		return h, nil
	}

	v, err, shared := i.group.Do("handle", func() (interface{}, error) {
		i.mu.RLock()
		cached := i.handle
		i.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		timer := logging.StartTimer(logging.CategorySession, "model handle init")
		built, err := i.build(ctx)
		timer.Stop()
		if err != nil {
			logging.SessionError("Model handle init failed: %v", err)
			return nil, err
		}
		if built == nil {
			return nil, ErrNoClient
		}

		i.mu.Lock()
		i.handle = built
		i.mu.Unlock()
		logging.Session("Model handle ready")
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logging.SessionDebug("Model handle init shared with a concurrent caller")
	}
	return v.(*Handle), nil
}

// Ready reports whether a handle has been built.
func (i *Initializer) Ready() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.handle != nil
}
