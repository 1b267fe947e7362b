package perception

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"elsbot/internal/prompt"
)

const (
	echoFoundFormat = "Berikut info dari katalog kami: %s. Ada lagi yang bisa saya bantu?"
	echoNotFound    = "Maaf, informasi tersebut tidak ada di katalog kami. Ada lagi yang bisa saya bantu?"
)

// EchoClient answers offline by quoting the catalog line that best matches
// the question. It needs no network and no API key.
type EchoClient struct{}

// NewEchoClient creates an offline client.
func NewEchoClient() *EchoClient {
	return &EchoClient{}
}

// GetModel returns the pseudo model name.
func (c *EchoClient) GetModel() string {
	return "echo"
}

// Complete answers without a catalog, so it can only apologise.
func (c *EchoClient) Complete(ctx context.Context, text string) (string, error) {
	return c.CompleteWithSystem(ctx, "", text)
}

// CompleteWithSystem quotes the best-matching catalog line of systemPrompt.
func (c *EchoClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	line := bestMatch(prompt.Knowledge(systemPrompt), userPrompt)
	if line == "" {
		return echoNotFound, nil
	}
	return fmt.Sprintf(echoFoundFormat, strings.TrimRight(line, ".")), nil
}

// bestMatch returns the line sharing the most words with query.
// Ties keep the earliest line.
func bestMatch(document, query string) string {
	want := make(map[string]bool)
	for _, w := range words(query) {
		want[w] = true
	}
	if len(want) == 0 {
		return ""
	}

	best, bestScore := "", 0
	for _, line := range strings.Split(document, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		seen := make(map[string]bool)
		score := 0
		for _, w := range words(line) {
			if want[w] && !seen[w] {
				seen[w] = true
				score++
			}
		}
		if score > bestScore {
			best, bestScore = line, score
		}
	}
	return best
}

func words(s string) []string {
	var out []string
	for _, f := range strings.Fields(strings.ToLower(s)) {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
