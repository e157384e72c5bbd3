// Package bubbletea provides a Bubble Tea TUI for floodchat sessions.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/floodchat"
)

// SendFunc sends one prompt in the session and blocks until its response
// stream reaches a terminal state or ctx is cancelled. onUpdate receives a
// snapshot of every message the send creates or changes, in order.
type SendFunc func(ctx context.Context, session *floodchat.Session, prompt string, onUpdate func(floodchat.ChatMessage)) error

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. When ctx is cancelled the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// MessageUpdateMsg delivers a message snapshot to the Bubble Tea model.
type MessageUpdateMsg struct {
	Message floodchat.ChatMessage
}

// SendDoneMsg signals that a send has returned.
type SendDoneMsg struct {
	Err error
}
