package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/floodchat"
	"github.com/rivo/uniseg"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the floodchat TUI.
type Model struct {
	// Input is the prompt line. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable transcript. Exported for test access.
	Viewport viewport.Model
	// Spinner animates the status line while a response streams.
	Spinner spinner.Model

	send    SendFunc
	session *floodchat.Session
	theme   floodchat.Theme
	styles  Styles

	blocks     []MessageBlock
	blockFocus int // index of focused trace block (-1 = none)

	// byID maps a message id to the index of its block. traced holds the
	// assistant message ids that already have a trace block.
	byID   map[string]int
	traced map[string]bool

	running  bool
	cancel   context.CancelFunc
	updateCh chan floodchat.ChatMessage
	doneCh   chan error
	err      error
	ready    bool
}

// New creates a TUI Model that sends prompts with send into session.
// The session is only read by the model while no send is running.
func New(send SendFunc, session *floodchat.Session, theme floodchat.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about flood conditions..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		Input:      ti,
		Spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		send:       send,
		session:    session,
		theme:      theme,
		styles:     NewStyles(theme),
		blockFocus: -1,
		byID:       make(map[string]int),
		traced:     make(map[string]bool),
	}
}

// Running returns whether a send is in progress.
func (m Model) Running() bool { return m.running }

// Err returns the error of the last send, if any. Cancellation is not an
// error.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case MessageUpdateMsg:
		m = m.applyMessage(msg.Message)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		if m.updateCh != nil {
			return m, listenForUpdate(m.updateCh, m.doneCh)
		}
		return m, nil

	case SendDoneMsg:
		if m.cancel != nil {
			m.cancel()
		}
		m.running = false
		m.cancel = nil
		m.updateCh = nil
		m.doneCh = nil
		m = m.finish(msg.Err)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		return m, m.Input.Focus()
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := max(msg.Height-inputH-statusHeight-borderHeight, 1)

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m = m.renderSession()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitInput(text)

	case tea.KeyTab:
		if !m.running && m.blockFocus >= 0 {
			block, cmd := m.blocks[m.blockFocus].Update(ToggleMsg{})
			m.blocks[m.blockFocus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		if !m.running {
			m = m.cycleFocusPrev()
			m.Viewport.SetContent(m.renderContent())
		}
		return m, nil
	}

	// Character keys go only to the input; 'j' and 'k' would otherwise
	// scroll the viewport while typing.
	if !m.running {
		var cmd tea.Cmd
		var cmds []tea.Cmd

		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.err = nil

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.updateCh = make(chan floodchat.ChatMessage, 256)
	m.doneCh = make(chan error, 1)
	m.running = true

	m.Input.Blur()

	return m, tea.Batch(
		startSend(ctx, m.send, m.session, text, m.updateCh, m.doneCh),
		listenForUpdate(m.updateCh, m.doneCh),
		m.Spinner.Tick,
	)
}

// finish reconciles the blocks with the session once a send has returned.
// Updates dropped after cancellation are recovered here.
func (m Model) finish(err error) Model {
	m = m.renderSession()
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, floodchat.ErrStreamFailed):
		// The transcript already shows the failed message.
		m.err = err
	default:
		m.err = err
		m.blocks = append(m.blocks, NewErrorBlock(err, m.styles))
	}
	return m
}

// renderSession creates or refreshes blocks for every session message.
func (m Model) renderSession() Model {
	for _, msg := range m.session.Messages {
		m = m.applyMessage(msg)
	}
	return m
}

// applyMessage routes a message snapshot to its block, creating the block
// on first sight. A finished agent message also gets a trace block.
func (m Model) applyMessage(msg floodchat.ChatMessage) Model {
	if i, ok := m.byID[msg.ID]; ok {
		if b, ok := m.blocks[i].(*AssistantBlock); ok {
			b.Set(msg)
		}
	} else {
		var block MessageBlock
		switch msg.Role {
		case floodchat.RoleUser:
			block = NewUserMessageBlock(msg, m.styles)
		case floodchat.RoleAssistant:
			block = NewAssistantBlock(msg, m.theme, m.styles)
		default:
			return m
		}
		m.byID[msg.ID] = len(m.blocks)
		m.blocks = append(m.blocks, block)
	}

	if msg.Streaming() || msg.Sideband == nil || m.traced[msg.ID] {
		return m
	}
	if tr := msg.Sideband.AgentTrace; tr != nil && len(tr.Logs) > 0 {
		m.traced[msg.ID] = true
		m.blocks = append(m.blocks, NewAgentTraceBlock(*tr, m.styles))
		m = m.updateBlockFocus()
	}
	return m
}

func (m Model) renderContent() string {
	if len(m.blocks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

// updateBlockFocus focuses the last trace block.
func (m Model) updateBlockFocus() Model {
	m.blockFocus = -1
	for i := len(m.blocks) - 1; i >= 0; i-- {
		if _, ok := m.blocks[i].(*AgentTraceBlock); ok {
			m.blockFocus = i
			return m
		}
	}
	return m
}

// cycleFocusPrev moves blockFocus to the previous trace block, wrapping around.
func (m Model) cycleFocusPrev() Model {
	start := m.blockFocus - 1
	if start < 0 {
		start = len(m.blocks) - 1
	}
	for i := range len(m.blocks) {
		idx := (start - i + len(m.blocks)) % len(m.blocks)
		if _, ok := m.blocks[idx].(*AgentTraceBlock); ok {
			m.blockFocus = idx
			return m
		}
	}
	m.blockFocus = -1
	return m
}

func (m Model) statusLine() string {
	var left string
	style := m.styles.Muted
	switch {
	case m.err != nil:
		left = fmt.Sprintf("Error: %v", m.err)
		style = m.styles.Error
	case m.running:
		left = m.Spinner.View() + " Streaming... Ctrl+C to cancel"
	case m.blockFocus >= 0:
		left = "Enter to send, Tab to expand trace, Ctrl+C to quit"
	default:
		left = "Enter to send, Ctrl+C to quit"
	}

	right := m.session.Dialect.String()
	gap := m.Viewport.Width - uniseg.StringWidth(left) - uniseg.StringWidth(right)
	if gap < 1 {
		return style.Render(left)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		style.Render(left),
		strings.Repeat(" ", gap),
		m.styles.Muted.Render(right),
	)
}

// startSend runs the send in a goroutine and signals completion.
func startSend(ctx context.Context, send SendFunc, session *floodchat.Session, prompt string, updateCh chan<- floodchat.ChatMessage, doneCh chan<- error) tea.Cmd {
	return func() tea.Msg {
		err := send(ctx, session, prompt, func(msg floodchat.ChatMessage) {
			select {
			case updateCh <- msg:
			case <-ctx.Done():
			}
		})
		close(updateCh)
		doneCh <- err
		return nil
	}
}

// listenForUpdate waits for the next message snapshot. When the channel
// closes, it reads the send's error from doneCh and returns SendDoneMsg.
func listenForUpdate(ch <-chan floodchat.ChatMessage, doneCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return SendDoneMsg{Err: <-doneCh}
		}
		return MessageUpdateMsg{Message: msg}
	}
}
