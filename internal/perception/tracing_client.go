package perception

import (
	"context"
	"sync"
	"time"

	"elsbot/internal/logging"
)

// slowCallThreshold is the latency above which a call is logged as a warning.
const slowCallThreshold = 20 * time.Second

// TracingLLMClient wraps any LLMClient and logs every call under the api category.
type TracingLLMClient struct {
	underlying LLMClient

	sessionID string
	mu        sync.RWMutex
}

// NewTracingLLMClient creates a tracing wrapper around an existing LLM client.
func NewTracingLLMClient(underlying LLMClient) *TracingLLMClient {
	return &TracingLLMClient{underlying: underlying}
}

// SetSessionID attributes subsequent calls to a chat session.
func (tc *TracingLLMClient) SetSessionID(id string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.sessionID = id
}

// GetModel returns the wrapped client's model, if it reports one.
func (tc *TracingLLMClient) GetModel() string {
	if mg, ok := tc.underlying.(modelGetter); ok {
		return mg.GetModel()
	}
	return ""
}

// Complete implements LLMClient.Complete with tracing.
func (tc *TracingLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	return tc.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem implements LLMClient.CompleteWithSystem with tracing.
func (tc *TracingLLMClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return tc.trace(userPrompt, 0, func() (string, error) {
		return tc.underlying.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	})
}

// CompleteWithHistory forwards prior turns when the wrapped client accepts them
// and otherwise sends only the current input.
func (tc *TracingLLMClient) CompleteWithHistory(ctx context.Context, systemPrompt string, history []Turn, userPrompt string) (string, error) {
	hc, ok := tc.underlying.(HistoryCompleter)
	if !ok {
		return tc.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	}
	return tc.trace(userPrompt, len(history), func() (string, error) {
		return hc.CompleteWithHistory(ctx, systemPrompt, history, userPrompt)
	})
}

func (tc *TracingLLMClient) trace(userPrompt string, turns int, call func() (string, error)) (string, error) {
	if !logging.IsCategoryEnabled(logging.CategoryAPI) {
		return call()
	}

	tc.mu.RLock()
	sessionID := tc.sessionID
	tc.mu.RUnlock()

	log := logging.Get(logging.CategoryAPI).With("session", sessionID, "model", tc.GetModel())
	log.Info("LLM call started: prompt_len=%d history_turns=%d", len(userPrompt), turns)

	timer := logging.StartTimer(logging.CategoryAPI, "LLM request")
	response, err := call()
	duration := timer.StopWithThreshold(slowCallThreshold)

	if err != nil {
		log.Error("LLM call failed: duration=%v error=%s", duration, err.Error())
	} else {
		log.Info("LLM call completed: duration=%v response_len=%d", duration, len(response))
	}
	return response, err
}
