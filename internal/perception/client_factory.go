package perception

import (
	"context"
	"fmt"
	"strings"

	"elsbot/internal/config"
	"elsbot/internal/logging"
)

// NewClientFromConfig creates the LLM client selected by the llm config section.
// The result is wrapped in a TracingLLMClient.
func NewClientFromConfig(ctx context.Context, cfg config.LLMConfig) (*TracingLLMClient, error) {
	provider := Provider(strings.ToLower(strings.TrimSpace(cfg.Provider)))
	if provider == "" {
		provider = ProviderGemini
	}
	timeout := cfg.GetTimeout()

	var (
		client LLMClient
		err    error
	)
	switch provider {
	case ProviderGemini:
		client, err = NewGeminiClient(ctx, GeminiConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: timeout,
		})
	case ProviderOpenAI:
		client, err = NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: timeout,
		})
	case ProviderEcho:
		client = NewEchoClient()
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	if err != nil {
		return nil, err
	}

	logging.Boot("LLM client created: provider=%s timeout=%v", provider, timeout)
	return NewTracingLLMClient(client), nil
}
