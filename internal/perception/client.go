// Package perception talks to the generative model backends that answer
// customer questions. Every backend is hidden behind LLMClient so the chat
// session never knows which provider produced a reply.
package perception

import (
	"context"
	"errors"
)

// Provider names a model backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderEcho   Provider = "echo" // offline, answers from the system prompt itself
)

// ErrEmptyReply is returned when a backend answers with no usable text.
var ErrEmptyReply = errors.New("model returned an empty reply")

// LLMClient is the interface every model backend implements.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Turn is one completed user/assistant exchange resent as conversation context.
type Turn struct {
	User      string
	Assistant string
}

// HistoryCompleter is implemented by backends that accept prior turns.
type HistoryCompleter interface {
	CompleteWithHistory(ctx context.Context, systemPrompt string, history []Turn, userPrompt string) (string, error)
}

type modelGetter interface {
	GetModel() string
}
