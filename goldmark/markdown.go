// Package goldmark renders markdown text to ANSI-styled terminal output
// using goldmark for parsing and lipgloss for styling.
//
// Besides CommonMark it understands GFM tables, which backend responses use
// for gauge readings and forecasts, and "log" fenced blocks, whose
// "[level] message" lines are colored by level.
package goldmark

import "github.com/fwojciec/floodchat"

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items are word-wrapped to width. Code blocks are
// rendered at full width without reflow; tables are cut at width.
func Render(source string, width int, theme floodchat.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := newRenderer(theme)
	return r.render([]byte(source), width)
}
