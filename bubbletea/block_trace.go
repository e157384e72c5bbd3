package bubbletea

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/floodchat"
	"github.com/mattn/go-runewidth"
)

var _ MessageBlock = (*AgentTraceBlock)(nil)

// AgentTraceBlock renders the log entries an agent produced, one per line.
// It starts collapsed to a one-line summary; ToggleMsg expands it.
type AgentTraceBlock struct {
	trace     floodchat.AgentTrace
	collapsed bool
	styles    Styles
}

// NewAgentTraceBlock creates a collapsed AgentTraceBlock.
func NewAgentTraceBlock(trace floodchat.AgentTrace, styles Styles) *AgentTraceBlock {
	return &AgentTraceBlock{trace: trace, collapsed: true, styles: styles}
}

// Collapsed reports whether only the summary line is shown.
func (b *AgentTraceBlock) Collapsed() bool { return b.collapsed }

func (b *AgentTraceBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

func (b *AgentTraceBlock) View(width int) string {
	indicator := "▶"
	if !b.collapsed {
		indicator = "▼"
	}
	summary := fmt.Sprintf("%s Agent trace: %s", indicator, b.trace.AgentType)
	if b.trace.Location != "" {
		summary += " · " + b.trace.Location
	}
	summary += fmt.Sprintf(" (%d entries)", len(b.trace.Logs))
	if b.trace.Status != "" {
		summary += " " + b.trace.Status
	}
	header := b.styles.Accent.Render(truncate(summary, width))
	if b.collapsed {
		return header
	}

	lines := make([]string, 0, len(b.trace.Logs)+1)
	lines = append(lines, header)
	for _, e := range b.trace.Logs {
		line := e.String()
		if !e.Time.IsZero() {
			line = e.Time.Format("15:04:05") + " " + line
		}
		style := b.styles.AgentLog
		switch strings.ToLower(e.Level) {
		case "error", "critical", "fatal":
			style = b.styles.Error
		case "warning", "warn":
			style = b.styles.Score
		}
		lines = append(lines, style.Render(truncate("  "+line, width)))
	}
	return strings.Join(lines, "\n")
}

// truncate cuts s to at most width display cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
