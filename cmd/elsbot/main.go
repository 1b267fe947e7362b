package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"elsbot/cmd/elsbot/chat"
	"elsbot/cmd/elsbot/repl"
	"elsbot/internal/config"
	"elsbot/internal/knowledge"
	"elsbot/internal/logging"
	"elsbot/internal/system"
)

var (
	// Global flags
	cfgPath       string
	knowledgePath string
	modelName     string
	provider      string
	offline       bool
	plain         bool
	watch         bool
	verbose       bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "elsbot",
	Short: "ELSBOT - customer service chatbot for the ELS laptop store",
	Long: `ELSBOT answers customer questions about the store catalog.

Every reply is grounded in the knowledge file (store_data.txt by default),
which is embedded into the model's system instruction at startup.

Run without arguments to start the interactive chat interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The TUI owns the terminal; no console logger for it.
		if !cmd.HasParent() && useTUI() {
			logger = zap.NewNop()
			return nil
		}

		zcfg := zap.NewProductionConfig()
		zcfg.Encoding = "console"
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Sync()
	},
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigPath, "Config file path")
	rootCmd.PersistentFlags().StringVarP(&knowledgePath, "knowledge", "k", "", "Knowledge file (overrides knowledge.path)")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "", "Model name (overrides llm.model)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "LLM provider: gemini, openai or echo")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Answer from the catalog without calling a model")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.Flags().BoolVar(&plain, "plain", false, "Use the line-based chat instead of the TUI")
	rootCmd.Flags().BoolVar(&watch, "watch", false, "Warn when the knowledge file changes during the session")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	if knowledgePath != "" {
		cfg.Knowledge.Path = knowledgePath
	}
	if provider != "" {
		if err := cfg.SetProvider(provider); err != nil {
			return nil, err
		}
	}
	if offline {
		if err := cfg.SetProvider("echo"); err != nil {
			return nil, err
		}
	}
	if modelName != "" {
		cfg.LLM.Model = modelName
	}
	if watch {
		cfg.Knowledge.Watch = true
	}
	if verbose {
		cfg.Logging.DebugMode = true
		cfg.Logging.Level = "debug"
	}

	if err := logging.Initialize(cfg.LoggingOptions()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// bootApp loads config and boots a session.
func bootApp(ctx context.Context) (*system.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return system.Boot(ctx, cfg)
}

// runChat starts the TUI, or the line REPL with --plain or without a terminal.
func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	app, err := bootApp(ctx)
	if err != nil {
		return err
	}
	logger.Debug("Session booted", zap.String("session", app.Session.ID()))

	if !useTUI() {
		if app.Config.Knowledge.Watch {
			stop := watchKnowledge(ctx, app.Config.Knowledge.Path)
			defer stop()
		}
		return repl.Run(ctx, app.Session, cmd.InOrStdin(), cmd.OutOrStdout(), repl.Options{
			Title:    app.Config.Chat.Title,
			Subtitle: app.Config.Chat.Subtitle,
		})
	}
	var opts []chat.Option
	if app.Config.Knowledge.Watch {
		opts = append(opts, chat.WithKnowledgeWatch(app.Config.Knowledge.Path))
	}
	return chat.RunInteractiveChat(ctx, app.Session, app.Config.Chat, opts...)
}

// watchKnowledge logs a warning when the catalog changes under the REPL.
func watchKnowledge(ctx context.Context, path string) func() {
	w, err := knowledge.NewWatcher(path, func(p string) {
		logger.Warn("Knowledge file changed; restart to use the new catalog", zap.String("path", p))
	})
	if err == nil {
		err = w.Start(ctx)
	}
	if err != nil {
		logger.Warn("Knowledge watch disabled", zap.Error(err))
		return func() {}
	}
	return w.Stop
}

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func() bool {
	return isatty.IsTerminal(os.Stdin.Fd())
}

// useTUI reports whether the root command runs the TUI rather than the REPL.
func useTUI() bool {
	return !plain && stdinIsTerminal()
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
