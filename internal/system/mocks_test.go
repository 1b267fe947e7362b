package system

import (
	"context"
	"sync"
)

// --- MockLLMClient ---

type MockLLMClient struct {
	CompleteFunc func(ctx context.Context, sys, user string) (string, error)

	mu      sync.Mutex
	systems []string
}

func (m *MockLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	return m.CompleteWithSystem(ctx, "", prompt)
}

func (m *MockLLMClient) CompleteWithSystem(ctx context.Context, sys, user string) (string, error) {
	m.mu.Lock()
	m.systems = append(m.systems, sys)
	m.mu.Unlock()
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, sys, user)
	}
	return "OK", nil
}

func (m *MockLLMClient) Systems() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.systems...)
}
