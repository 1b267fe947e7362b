// Package ui provides the visual styling for the ELSBOT chat surfaces.
// Light mode is the default; a dark palette is used when the terminal reports
// a dark background or ELSBOT_DARK_MODE=1.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Light palette, used unless the terminal reports a dark background
	LightBackground = lipgloss.Color("#f5f6f8")
	LightForeground = lipgloss.Color("#1b2430")
	LightPrimary    = lipgloss.Color("#0d47a1") // Store blue
	LightAccent     = lipgloss.Color("#1e88e5")
	LightMuted      = lipgloss.Color("#8a94a3")
	LightBorder     = lipgloss.Color("#cfd6df")
	LightUser       = lipgloss.Color("#1e88e5")
	LightBot        = lipgloss.Color("#9aa5b1")

	// Dark palette
	DarkBackground = lipgloss.Color("#11161d")
	DarkForeground = lipgloss.Color("#eef1f4")
	DarkPrimary    = lipgloss.Color("#64b5f6")
	DarkAccent     = lipgloss.Color("#90caf9")
	DarkMuted      = lipgloss.Color("#6b7685")
	DarkBorder     = lipgloss.Color("#2b3542")
	DarkUser       = lipgloss.Color("#64b5f6")
	DarkBot        = lipgloss.Color("#4a5563")

	// Status colours shared by both palettes
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#43a047")
)

// BubbleWidthRatio is the share of the terminal width a bubble may use.
const BubbleWidthRatio = 0.7

// Theme is a colour palette.
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	User       lipgloss.Color
	Bot        lipgloss.Color
	IsDark     bool
}

// LightTheme is the default palette.
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
		User:       LightUser,
		Bot:        LightBot,
	}
}

// DarkTheme is the palette for dark terminals.
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		User:       DarkUser,
		Bot:        DarkBot,
		IsDark:     true,
	}
}

// DetectTheme picks the dark theme when COLORFGBG reports a dark background
// or ELSBOT_DARK_MODE=1, and the light theme otherwise.
func DetectTheme() Theme {
	// COLORFGBG looks like "15;0": the last field is the background.
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		if bg, err := strconv.Atoi(parts[1]); err == nil {
			// 0-6 and 8 (dark grey) are dark backgrounds
			if (bg >= 0 && bg <= 6) || bg == 8 {
				return DarkTheme()
			}
		}
	}

	if os.Getenv("ELSBOT_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds the lipgloss styles of the chat screen.
type Styles struct {
	Theme Theme

	// Layout
	Header   lipgloss.Style
	Subtitle lipgloss.Style
	Footer   lipgloss.Style
	Input    lipgloss.Style

	// Bubbles
	UserBubble   lipgloss.Style
	BotBubble    lipgloss.Style
	FailedBubble lipgloss.Style
	Timestamp    lipgloss.Style

	// Status
	Error   lipgloss.Style
	Spinner lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles derives every chat style from theme.
func NewStyles(theme Theme) Styles {
	bubble := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true).
			Padding(0, 2),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		Input: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(theme.Border).
			Padding(0, 1),

		UserBubble: bubble.
			BorderForeground(theme.User).
			Foreground(theme.Foreground),

		BotBubble: bubble.
			BorderForeground(theme.Bot).
			Foreground(theme.Foreground),

		FailedBubble: bubble.
			BorderForeground(Destructive).
			Foreground(Destructive),

		Timestamp: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Faint(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),
	}
}

// DefaultStyles returns styles with the detected theme
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// BubbleWidth returns the maximum outer width of a bubble for a terminal width.
func BubbleWidth(termWidth int) int {
	w := int(float64(termWidth) * BubbleWidthRatio)
	if w < 20 {
		w = 20
	}
	return w
}

// RenderUserBubble renders text right-aligned within width.
func (s Styles) RenderUserBubble(text string, width int) string {
	return place(s.UserBubble, text, width, lipgloss.Right)
}

// RenderBotBubble renders text left-aligned within width. Failed replies use
// the destructive style.
func (s Styles) RenderBotBubble(text string, width int, failed bool) string {
	style := s.BotBubble
	if failed {
		style = s.FailedBubble
	}
	return place(style, text, width, lipgloss.Left)
}

func place(style lipgloss.Style, text string, width int, pos lipgloss.Position) string {
	maxW := BubbleWidth(width)
	// Border and padding take four columns.
	content := lipgloss.NewStyle().Width(maxW - 4).Render(text)
	if lipgloss.Width(text) < maxW-4 && !strings.Contains(text, "\n") {
		content = text
	}
	return lipgloss.PlaceHorizontal(width, pos, style.Render(content))
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	return s.Muted.Render(strings.Repeat("─", width))
}
