package bubbletea

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/floodchat"
	"github.com/fwojciec/floodchat/goldmark"
)

var _ MessageBlock = (*AssistantBlock)(nil)

// AssistantBlock renders an assistant message with markdown formatting,
// followed by its evaluation scores and recommendations once they arrive.
//
// The backend resends the whole text on every delta, so each Set replaces
// the content. Paragraphs before the last double newline are rendered once
// per width and cached while the tail keeps changing.
type AssistantBlock struct {
	msg    floodchat.ChatMessage
	theme  floodchat.Theme
	styles Styles

	finalizedRaw     string
	finalizedByWidth map[int]string
}

// NewAssistantBlock creates a block for an assistant message.
func NewAssistantBlock(msg floodchat.ChatMessage, theme floodchat.Theme, styles Styles) *AssistantBlock {
	b := &AssistantBlock{
		theme:            theme,
		styles:           styles,
		finalizedByWidth: make(map[int]string),
	}
	b.Set(msg)
	return b
}

// Set replaces the block's message with a newer snapshot.
func (b *AssistantBlock) Set(msg floodchat.ChatMessage) {
	b.msg = msg
	b.promoteFinalized()
}

// Message returns the snapshot the block currently shows.
func (b *AssistantBlock) Message() floodchat.ChatMessage { return b.msg }

func (b *AssistantBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *AssistantBlock) View(width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	switch {
	case b.msg.Status == floodchat.StatusErrored:
		return b.styles.Error.Render(wrap.Render(b.msg.Content))
	case b.msg.Content == "" && b.msg.Streaming():
		return b.styles.Muted.Render("…")
	}
	body := b.renderContent(width)
	if footer := b.footer(width); footer != "" {
		body = strings.TrimRight(body, "\n") + "\n" + footer
	}
	return body
}

func (b *AssistantBlock) renderContent(width int) string {
	finalizedRendered := b.renderFinalized(width)
	trailing := b.trailingRaw()
	if hasUnclosedFence(trailing) {
		// Close the fence only for rendering so partial streams display safely.
		trailing += "\n```"
	}
	if trailing == "" {
		return finalizedRendered
	}
	trailingRendered := goldmark.Render(trailing, width, b.theme)
	if strings.TrimSpace(trailingRendered) == "" {
		return finalizedRendered
	}
	if finalizedRendered == "" {
		return trailingRendered
	}
	return strings.TrimRight(finalizedRendered, "\n") + "\n\n" + strings.TrimLeft(trailingRendered, "\n")
}

func (b *AssistantBlock) footer(width int) string {
	sb := b.msg.Sideband
	if sb == nil {
		return ""
	}
	var lines []string
	if e := sb.Evaluation; e != nil {
		lines = append(lines, b.styles.Score.Render(fmt.Sprintf(
			"score %.2f · confidence %.2f · safety %.2f · helpfulness %.2f · accuracy %.2f",
			e.OverallScore, e.Confidence, e.SafetyScore, e.Helpfulness, e.Accuracy)))
		if e.Reasoning != "" {
			lines = append(lines, b.styles.Muted.Render(e.Reasoning))
		}
	}
	if len(sb.Recommendations) > 0 {
		lines = append(lines, b.styles.Accent.Render("Recommendations"))
		for _, r := range sb.Recommendations {
			lines = append(lines, "  • "+r)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

// promoteFinalized finds the last "\n\n" boundary that is not inside an
// unclosed fenced code block and caches everything before it.
func (b *AssistantBlock) promoteFinalized() {
	raw := b.msg.Content
	for end := len(raw); ; {
		idx := strings.LastIndex(raw[:end], "\n\n")
		if idx <= 0 {
			b.resetFinalized("")
			return
		}
		candidate := raw[:idx]
		if !hasUnclosedFence(candidate) {
			b.resetFinalized(candidate)
			return
		}
		end = idx
	}
}

func (b *AssistantBlock) resetFinalized(raw string) {
	if raw == b.finalizedRaw {
		return
	}
	b.finalizedRaw = raw
	clear(b.finalizedByWidth)
}

func (b *AssistantBlock) renderFinalized(width int) string {
	if width <= 0 || b.finalizedRaw == "" {
		return ""
	}
	if cached, ok := b.finalizedByWidth[width]; ok {
		return cached
	}
	rendered := goldmark.Render(b.finalizedRaw, width, b.theme)
	b.finalizedByWidth[width] = rendered
	return rendered
}

func (b *AssistantBlock) trailingRaw() string {
	if b.finalizedRaw == "" {
		return b.msg.Content
	}
	return strings.TrimPrefix(b.msg.Content, b.finalizedRaw+"\n\n")
}

// hasUnclosedFence reports an odd number of "```" in s. Triple backticks
// inside inline code spans are miscounted.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
