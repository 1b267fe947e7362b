// Package system wires configuration, the knowledge document, the prompt and
// the model backend into a ready chat session.
package system

import (
	"context"
	"fmt"

	"elsbot/internal/config"
	"elsbot/internal/knowledge"
	"elsbot/internal/logging"
	"elsbot/internal/perception"
	"elsbot/internal/prompt"
	"elsbot/internal/session"
)

// App represents a fully booted chat instance.
type App struct {
	Config      *config.Config
	Session     *session.Session
	Instruction string
}

// Option customises Boot.
type Option func(*bootOptions)

type bootOptions struct {
	client perception.LLMClient
}

// WithClient makes the session use client instead of one built from config.
func WithClient(client perception.LLMClient) Option {
	return func(o *bootOptions) {
		o.client = client
	}
}

// Boot validates cfg, loads the knowledge document and composes the system
// instruction. Any of these failing is fatal and no session is created. The
// model client itself is built lazily on the first turn.
func Boot(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var bo bootOptions
	for _, opt := range opts {
		opt(&bo)
	}

	timer := logging.StartTimer(logging.CategoryBoot, "boot")
	defer timer.Stop()

	if err := cfg.Validate(); err != nil {
		logging.BootError("Invalid configuration: %v", err)
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	doc, err := knowledge.Load(cfg.Knowledge.Path)
	if err != nil {
		logging.BootError("Knowledge load failed: %v", err)
		return nil, err
	}
	instruction := prompt.Compose(doc)
	logging.Boot("System instruction composed (%d bytes)", len(instruction))

	var sess *session.Session
	handle := perception.NewInitializer(func(ctx context.Context) (*perception.Handle, error) {
		client := bo.client
		if client == nil {
			tc, err := perception.NewClientFromConfig(ctx, cfg.LLM)
			if err != nil {
				return nil, err
			}
			tc.SetSessionID(sess.ID())
			client = tc
		}
		return perception.NewHandle(client, instruction)
	})

	sess = session.New(handle, session.Options{
		Greeting:       cfg.Chat.Greeting,
		ErrorReply:     cfg.Chat.ErrorReply,
		IncludeHistory: cfg.LLM.IncludeHistory,
	})
	logging.Boot("Boot complete: provider=%s model=%s session=%s", cfg.LLM.Provider, cfg.LLM.Model, sess.ID())

	return &App{
		Config:      cfg,
		Session:     sess,
		Instruction: instruction,
	}, nil
}
