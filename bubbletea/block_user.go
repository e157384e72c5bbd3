package bubbletea

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/floodchat"
)

var _ MessageBlock = (*UserMessageBlock)(nil)

// UserMessageBlock renders a user prompt with a "> " prefix and the time it
// was sent.
type UserMessageBlock struct {
	msg    floodchat.ChatMessage
	styles Styles
}

// NewUserMessageBlock creates a UserMessageBlock.
func NewUserMessageBlock(msg floodchat.ChatMessage, styles Styles) *UserMessageBlock {
	return &UserMessageBlock{msg: msg, styles: styles}
}

func (b *UserMessageBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *UserMessageBlock) View(width int) string {
	content := b.styles.UserMsg.Render("> ") + b.msg.Content
	if !b.msg.Timestamp.IsZero() {
		content += " " + b.styles.Muted.Render(b.msg.Timestamp.Format("15:04"))
	}
	return lipgloss.NewStyle().Width(width).Render(content)
}
