package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// askCmd answers a single question and exits
var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Ask one question and print the reply",
	Long: `Boots a session, runs exactly one turn and prints the assistant reply.

Example:
  elsbot ask Berapa harga Laptop X?`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	app, err := bootApp(ctx)
	if err != nil {
		return err
	}

	question := joinArgs(args)
	logger.Info("Asking", zap.String("session", app.Session.ID()), zap.Int("question_len", len(question)))

	turn, err := app.Session.Submit(ctx, question)
	if turn.Reply.Content != "" {
		fmt.Fprintln(cmd.OutOrStdout(), turn.Reply.Content)
	}
	return err
}
