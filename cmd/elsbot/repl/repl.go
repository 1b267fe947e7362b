// Package repl is the line-oriented chat surface used with --plain and when
// stdin is not a terminal.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"elsbot/internal/logging"
	"elsbot/internal/session"
)

const (
	userLabel = "Anda: "
	botLabel  = "ELSBOT: "
	exitHint  = "Ketik pesan lalu tekan Enter. Ketik 'exit' atau 'quit' untuk keluar."
)

// Options holds the text shown around the conversation.
type Options struct {
	Title    string
	Subtitle string
}

// Run reads one line per turn from in and writes the conversation to out
// until in is exhausted, the user types exit or quit, or ctx is cancelled.
func Run(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer, opts Options) error {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	if opts.Title != "" {
		fmt.Fprintln(out, bold(opts.Title))
	}
	if opts.Subtitle != "" {
		fmt.Fprintln(out, faint(opts.Subtitle))
	}
	fmt.Fprintln(out, faint(exitHint))
	fmt.Fprintln(out)

	for _, msg := range sess.Transcript() {
		printMessage(out, msg, green, cyan, red)
	}

	// bufio.Reader has no line length limit, unlike bufio.Scanner.
	reader := bufio.NewReader(in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(out, green(userLabel))
		line, err := reader.ReadString('\n')
		eof := errors.Is(err, io.EOF)
		if err != nil && !eof {
			return err
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			if eof {
				fmt.Fprintln(out)
				return nil
			}
			continue
		case "exit", "quit":
			logging.UI("REPL closed by user after %d turns", sess.Turns())
			return nil
		}

		turn, err := sess.Submit(ctx, line)
		switch {
		case err == nil:
			printMessage(out, turn.Reply, green, cyan, red)
		case errors.Is(err, session.ErrBackend):
			logging.UIError("Turn failed: %v", err)
			printMessage(out, turn.Reply, green, cyan, red)
			fmt.Fprintln(out, faint("("+err.Error()+")"))
		default:
			fmt.Fprintln(out, red("Error: "+err.Error()))
		}
		fmt.Fprintln(out)

		if eof {
			return nil
		}
	}
}

func printMessage(out io.Writer, msg session.Message, green, cyan, red func(a ...interface{}) string) {
	switch {
	case msg.Role == session.RoleUser:
		fmt.Fprintln(out, green(userLabel)+msg.Content)
	case msg.Failed:
		fmt.Fprintln(out, red(botLabel+msg.Content))
	default:
		fmt.Fprintln(out, cyan(botLabel)+msg.Content)
	}
}
