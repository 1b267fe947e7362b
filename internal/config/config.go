package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"elsbot/internal/logging"
)

// DefaultConfigPath is where the CLI looks for a config file when none is given.
const DefaultConfigPath = "elsbot.yaml"

// ErrMissingAPIKey is returned when an online provider has no API key configured.
var ErrMissingAPIKey = errors.New("LLM API key not configured")

// Config holds all ELSBOT configuration.
type Config struct {
	Name string `yaml:"name"`

	// Knowledge document grounding every reply
	Knowledge KnowledgeConfig `yaml:"knowledge"`

	// LLM backend
	LLM LLMConfig `yaml:"llm"`

	// Chat surface text
	Chat ChatConfig `yaml:"chat"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// KnowledgeConfig locates the store catalog.
type KnowledgeConfig struct {
	Path string `yaml:"path"`

	// Watch warns when the file changes during a session. It is never reloaded.
	Watch bool `yaml:"watch"`
}

// LLMConfig configures the model backend.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, openai, echo
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`

	// Resend prior turns on every call instead of only the current input.
	IncludeHistory bool `yaml:"include_history"`
}

// ChatConfig holds the user-facing strings of the chat surfaces.
type ChatConfig struct {
	Title       string `yaml:"title"`
	Subtitle    string `yaml:"subtitle"`
	Greeting    string `yaml:"greeting"`
	Placeholder string `yaml:"placeholder"`
	ErrorReply  string `yaml:"error_reply"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	File       string          `yaml:"file"`
	JSONFormat bool            `yaml:"json_format"`
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name: "ELSBOT",

		Knowledge: KnowledgeConfig{
			Path: "store_data.txt",
		},

		LLM: LLMConfig{
			Provider: "gemini",
			Model:    DefaultModel("gemini"),
			Timeout:  "60s",
		},

		Chat: ChatConfig{
			Title:       "ELS Chatbot",
			Subtitle:    "Halo! Ada yang bisa saya bantu?",
			Greeting:    "Halo! Saya ELSBOT. Ada yang bisa saya bantu hari ini?",
			Placeholder: "Ketik pesan Anda...",
			ErrorReply:  "Maaf, terjadi kesalahan saat menghubungi layanan. Silakan coba lagi.",
		},

		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(".elsbot", "logs", "elsbot.log"),
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// defaults
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// envOverrides lists every environment variable the config honours.
type envOverrides struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	Provider     string `env:"ELSBOT_PROVIDER"`
	Model        string `env:"ELSBOT_MODEL"`
	Knowledge    string `env:"ELSBOT_KNOWLEDGE"`
	Debug        string `env:"ELSBOT_DEBUG"`
}

// applyEnvOverrides applies environment variable overrides.
// The API key variable only applies to its own provider.
func (c *Config) applyEnvOverrides() error {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if ov.Provider != "" {
		c.switchProvider(ov.Provider)
	}
	c.applyAPIKey(ov)

	if ov.Model != "" {
		c.LLM.Model = ov.Model
	}
	if ov.Knowledge != "" {
		c.Knowledge.Path = ov.Knowledge
	}
	if ov.Debug != "" {
		debug, err := strconv.ParseBool(ov.Debug)
		if err != nil {
			return fmt.Errorf("invalid ELSBOT_DEBUG value %q: %w", ov.Debug, err)
		}
		c.Logging.DebugMode = debug
	}
	return nil
}

func (c *Config) applyAPIKey(ov envOverrides) {
	switch c.LLM.Provider {
	case "gemini", "":
		if ov.GeminiAPIKey != "" {
			c.LLM.APIKey = ov.GeminiAPIKey
			c.LLM.Provider = "gemini"
		}
	case "openai":
		if ov.OpenAIAPIKey != "" {
			c.LLM.APIKey = ov.OpenAIAPIKey
		}
	}
}

// SetProvider switches the LLM provider, e.g. from a command-line flag.
// The API key is re-resolved from that provider's environment variable.
func (c *Config) SetProvider(provider string) error {
	if strings.ToLower(strings.TrimSpace(provider)) == c.LLM.Provider {
		return nil
	}
	c.switchProvider(provider)
	c.LLM.APIKey = ""

	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	c.applyAPIKey(ov)
	return nil
}

// switchProvider sets the provider. A model left at the old provider's
// default follows the switch; an explicitly chosen model is kept.
func (c *Config) switchProvider(provider string) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if c.LLM.Model == "" || c.LLM.Model == DefaultModel(c.LLM.Provider) {
		c.LLM.Model = DefaultModel(provider)
	}
	c.LLM.Provider = provider
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "echo":
		return "echo"
	default:
		return "gemini-2.5-flash"
	}
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"gemini", "openai", "echo"}

// RequiresAPIKey reports whether the provider talks to a remote backend.
func RequiresAPIKey(provider string) bool {
	return provider == "gemini" || provider == "openai"
}

// Validate validates the configuration, reporting every problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(c.Knowledge.Path) == "" {
		result = multierror.Append(result, errors.New("knowledge path is empty"))
	}

	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		result = multierror.Append(result, fmt.Errorf("invalid LLM provider: %q (valid: %v)", c.LLM.Provider, ValidProviders))
	} else if RequiresAPIKey(c.LLM.Provider) && c.LLM.APIKey == "" {
		result = multierror.Append(result, fmt.Errorf("%w for provider %s (set GEMINI_API_KEY or OPENAI_API_KEY)", ErrMissingAPIKey, c.LLM.Provider))
	}

	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid llm.timeout %q: %w", c.LLM.Timeout, err))
		}
	}

	if strings.TrimSpace(c.Chat.Greeting) == "" {
		result = multierror.Append(result, errors.New("chat.greeting is empty"))
	}

	return result.ErrorOrNil()
}

// GetTimeout returns the client timeout, falling back to 60s when unset or invalid.
func (l LLMConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(l.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// LoggingOptions converts the logging section for logging.Initialize.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		DebugMode:  c.Logging.DebugMode,
		Level:      c.Logging.Level,
		File:       c.Logging.File,
		JSONFormat: c.Logging.JSONFormat,
		Categories: c.Logging.Categories,
	}
}
