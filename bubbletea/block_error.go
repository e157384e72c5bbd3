package bubbletea

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/floodchat"
)

var _ MessageBlock = (*ErrorBlock)(nil)

// ErrorBlock renders a send that was rejected before anything reached the
// transcript, such as an invalid request.
type ErrorBlock struct {
	err    error
	styles Styles
}

// NewErrorBlock creates an ErrorBlock.
func NewErrorBlock(err error, styles Styles) *ErrorBlock {
	return &ErrorBlock{err: err, styles: styles}
}

func (b *ErrorBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *ErrorBlock) View(width int) string {
	label := "Error: "
	if errors.Is(b.err, floodchat.ErrValidation) {
		label = "Invalid request: "
	}
	content := b.styles.Error.Render(label + b.err.Error())
	return lipgloss.NewStyle().Width(width).Render(content)
}
