package format

import (
	"html"
	"strings"
)

// Escape makes text safe for Telegram's HTML parse mode.
func Escape(text string) string {
	return html.EscapeString(text)
}

// Bold wraps escaped text in <b>.
func Bold(text string) string {
	return "<b>" + Escape(text) + "</b>"
}

// Italic wraps escaped text in <i>.
func Italic(text string) string {
	return "<i>" + Escape(text) + "</i>"
}

// Truncate shortens text to at most n runes, appending an ellipsis when cut.
func Truncate(text string, n int) string {
	text = strings.TrimSpace(text)
	if n <= 0 {
		return ""
	}
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
