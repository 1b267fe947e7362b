package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"elsbot/internal/knowledge"
	"elsbot/internal/prompt"
)

var promptRulesOnly bool

// promptCmd prints the system instruction without contacting a model
var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the composed system instruction",
	Long: `Loads the knowledge file and prints the exact system instruction sent
with every model call. No API key is needed.`,
	Args: cobra.NoArgs,
	RunE: runPrompt,
}

func init() {
	promptCmd.Flags().BoolVar(&promptRulesOnly, "rules", false, "Print only the response policy")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if promptRulesOnly {
		for _, r := range prompt.Rules() {
			fmt.Fprintln(out, "- "+r)
		}
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	doc, err := knowledge.Load(cfg.Knowledge.Path)
	if err != nil {
		return err
	}

	instruction := prompt.Compose(doc)
	fmt.Fprint(out, instruction)
	if !strings.HasSuffix(instruction, "\n") {
		fmt.Fprintln(out)
	}
	return nil
}
