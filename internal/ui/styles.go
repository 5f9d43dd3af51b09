// Package ui renders nflow's terminal output.
//
// Colors follow the Ayu palette and adapt to light and dark backgrounds.
// Every Render helper degrades to plain text when color is disabled.
package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

func ayu(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// Palette. https://terminalcolors.com/themes/ayu/
var (
	ColorPass   = ayu("#86b300", "#c2d94c")
	ColorWarn   = ayu("#f2ae49", "#ffb454")
	ColorFail   = ayu("#f07171", "#f07178")
	ColorMuted  = ayu("#828c99", "#6c7680")
	ColorAccent = ayu("#399ee6", "#59c2ff")
)

var (
	PassStyle     = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle     = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle     = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle   = lipgloss.NewStyle().Foreground(ColorAccent)
	CategoryStyle = AccentStyle.Bold(true)
)

// Line prefixes for progress output.
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconInfo = "ℹ"
	IconStep = "→"
)

// SeparatorLight divides sections of a summary.
var SeparatorLight = strings.Repeat("─", 42)

// keyWidth aligns the values of RenderKeyValue lines.
const keyWidth = 10

func RenderPass(s string) string   { return PassStyle.Render(s) }
func RenderWarn(s string) string   { return WarnStyle.Render(s) }
func RenderFail(s string) string   { return FailStyle.Render(s) }
func RenderMuted(s string) string  { return MutedStyle.Render(s) }
func RenderAccent(s string) string { return AccentStyle.Render(s) }

func RenderPassIcon() string { return RenderPass(IconPass) }
func RenderWarnIcon() string { return RenderWarn(IconWarn) }
func RenderStepIcon() string { return RenderAccent(IconStep) }
func RenderInfoIcon() string { return RenderAccent(IconInfo) }

// RenderCategory renders a section header, upper-cased.
func RenderCategory(s string) string {
	return CategoryStyle.Render(strings.ToUpper(s))
}

func RenderSeparator() string {
	return RenderMuted(SeparatorLight)
}

// RenderKeyValue renders "key: value" with the key muted and padded so
// consecutive lines line up.
func RenderKeyValue(key, value string) string {
	return RenderMuted(padRight(key+":", keyWidth)) + " " + value
}

// stateStyles maps lower-cased ticket statuses and check states to a color.
var stateStyles = map[string]lipgloss.Style{
	"backlog":     MutedStyle,
	"in progress": AccentStyle,
	"in review":   WarnStyle,
	"pending":     WarnStyle,
	"done":        PassStyle,
	"success":     PassStyle,
	"failure":     FailStyle,
	"error":       FailStyle,
}

// RenderState colors a ticket status or check state. Unknown values come
// back unstyled.
func RenderState(state string) string {
	if style, ok := stateStyles[strings.ToLower(state)]; ok {
		return style.Render(state)
	}
	return state
}

// Truncate shortens text to at most maxLen runes, ending in "...".
func Truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}

func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
