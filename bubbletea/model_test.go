package bubbletea_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/fwojciec/floodchat"
	bt "github.com/fwojciec/floodchat/bubbletea"
	"github.com/fwojciec/floodchat/chat"
	"github.com/fwojciec/floodchat/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	session := floodchat.NewSession(floodchat.DialectPlain, time.Now())
	m := bt.New(nopSend, &session, floodchat.DefaultTheme())

	assert.False(t, m.Running())
	assert.NoError(t, m.Err())
	assert.Equal(t, "Initializing...", m.View())
}

func TestModel_Update(t *testing.T) {
	t.Parallel()

	t.Run("window size initializes viewport", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend)
		assert.Equal(t, 80, m.Viewport.Width)
		assert.Equal(t, 20, m.Viewport.Height) // 24 - 1 - 1 - 2
		assert.Contains(t, m.View(), "Enter to send")
	})

	t.Run("window size resize re-renders viewport content", func(t *testing.T) {
		t.Parallel()

		m := initModelWithSize(t, nopSend, 30, 20)
		longLine := "word1 word2 word3 word4 word5 word6 word7 word8"
		m = updateModel(t, m, assistantMsg("a1", longLine, floodchat.StatusStreaming))

		m = updateModel(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
		assert.Equal(t, 120, m.Viewport.Width)
		assert.Equal(t, 36, m.Viewport.Height)

		found := false
		for _, line := range strings.Split(m.Viewport.View(), "\n") {
			if strings.Contains(line, "word1") && strings.Contains(line, "word8") {
				found = true
				break
			}
		}
		assert.True(t, found, "expected word1 and word8 on the same line after resize")
	})

	t.Run("ctrl+c when idle quits", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		require.NotNil(t, cmd)
		_, isQuit := cmd().(tea.QuitMsg)
		assert.True(t, isQuit)
	})

	t.Run("enter with empty input does nothing", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend)
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.False(t, updated.(bt.Model).Running())
		assert.Nil(t, cmd)
	})

	t.Run("message updates replace block content", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend)
		m = updateModel(t, m, userMsg("u1", "How high is the bayou?"))
		m = updateModel(t, m, assistantMsg("a1", "", floodchat.StatusStreaming))
		m = updateModel(t, m, assistantMsg("a1", "The gauge", floodchat.StatusStreaming))
		m = updateModel(t, m, assistantMsg("a1", "The gauge reads 31 ft.", floodchat.StatusComplete))

		view := m.View()
		assert.Contains(t, view, "How high is the bayou?")
		assert.Contains(t, view, "The gauge reads 31 ft.")
		assert.Equal(t, 1, strings.Count(view, "The gauge"))
		assert.Equal(t, 2, bt.BlockCount(m))
	})

	t.Run("finished agent message adds focused trace block", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend)
		msg := assistantMsg("a1", "Risk is low.", floodchat.StatusComplete)
		msg.Message.Sideband = &floodchat.Sideband{AgentTrace: &floodchat.AgentTrace{
			AgentType: "risk_analyzer",
			Logs:      []floodchat.LogEntry{{Level: "INFO", Message: "fetching gauges"}},
		}}
		m = updateModel(t, m, msg)
		m = updateModel(t, m, msg)

		assert.Equal(t, 2, bt.BlockCount(m))
		assert.Equal(t, 1, bt.BlockFocus(m))
		assert.Contains(t, m.View(), "Agent trace: risk_analyzer")
		assert.Contains(t, m.View(), "Tab to expand trace")
		assert.NotContains(t, bt.RenderContent(m), "fetching gauges")

		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyTab})
		assert.Contains(t, bt.RenderContent(m), "[INFO] fetching gauges")
	})

	t.Run("streaming agent message has no trace block yet", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend)
		msg := assistantMsg("a1", "", floodchat.StatusStreaming)
		msg.Message.Sideband = &floodchat.Sideband{AgentTrace: &floodchat.AgentTrace{
			Logs: []floodchat.LogEntry{{Level: "INFO", Message: "x"}},
		}}
		m = updateModel(t, m, msg)

		assert.Equal(t, 1, bt.BlockCount(m))
		assert.Equal(t, -1, bt.BlockFocus(m))
	})

	t.Run("send done re-enables input", func(t *testing.T) {
		t.Parallel()

		m := bt.SetRunning(initModel(t, nopSend))
		require.True(t, m.Running())

		m = updateModel(t, m, bt.SendDoneMsg{})
		assert.False(t, m.Running())
		assert.NoError(t, m.Err())
	})

	t.Run("rejected send shows error block", func(t *testing.T) {
		t.Parallel()

		m := bt.SetRunning(initModel(t, nopSend))
		err := fmt.Errorf("chat: message is required: %w", floodchat.ErrValidation)
		m = updateModel(t, m, bt.SendDoneMsg{Err: err})

		assert.ErrorIs(t, m.Err(), floodchat.ErrValidation)
		assert.Contains(t, bt.RenderContent(m), "Invalid request")
		assert.Contains(t, m.View(), "Error: ")
	})

	t.Run("failed stream shows error in status only", func(t *testing.T) {
		t.Parallel()

		m := bt.SetRunning(initModel(t, nopSend))
		err := fmt.Errorf("%w: backend error: boom", floodchat.ErrStreamFailed)
		m = updateModel(t, m, bt.SendDoneMsg{Err: err})

		assert.ErrorIs(t, m.Err(), floodchat.ErrStreamFailed)
		assert.Equal(t, 0, bt.BlockCount(m))
		assert.Contains(t, m.View(), "backend error: boom")
	})

	t.Run("context canceled is not an error", func(t *testing.T) {
		t.Parallel()

		m := bt.SetRunning(initModel(t, nopSend))
		m = updateModel(t, m, bt.SendDoneMsg{Err: context.Canceled})

		assert.False(t, m.Running())
		assert.NoError(t, m.Err())
	})

	t.Run("long error wraps to viewport width", func(t *testing.T) {
		t.Parallel()

		m := bt.SetRunning(initModelWithSize(t, nopSend, 40, 20))
		m = updateModel(t, m, bt.SendDoneMsg{Err: fmt.Errorf("this is a very long error message that should wrap within the viewport width limit")})

		assert.Contains(t, bt.RenderContent(m), "width limit")
		for _, line := range strings.Split(bt.RenderContent(m), "\n") {
			assert.LessOrEqual(t, lipgloss.Width(line), 40, "line exceeds viewport width: %q", line)
		}
	})

	t.Run("enter while running is ignored", func(t *testing.T) {
		t.Parallel()

		m := bt.SetRunning(initModel(t, nopSend))
		m.Input.SetValue("second question")

		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		model := updated.(bt.Model)
		assert.True(t, model.Running())
		assert.Nil(t, cmd)
		assert.Equal(t, "second question", model.Input.Value())
	})

	t.Run("ctrl+c while running cancels", func(t *testing.T) {
		t.Parallel()

		var cancelled bool
		m := bt.SetRunningWithCancel(initModel(t, nopSend), func() { cancelled = true })

		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		assert.True(t, cancelled)
		assert.Nil(t, cmd)
		assert.True(t, updated.(bt.Model).Running())
	})

	t.Run("submit starts a send", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend)
		m.Input.SetValue("  flood status  ")
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		model := updated.(bt.Model)

		assert.True(t, model.Running())
		assert.Empty(t, model.Input.Value())
		require.NotNil(t, cmd)
		assert.Contains(t, model.View(), "Streaming...")
	})

	t.Run("viewport accepts scroll keys when idle", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend)
		for i := range 30 {
			m = updateModel(t, m, userMsg(fmt.Sprintf("u%d", i), fmt.Sprintf("line-%d", i)))
		}
		require.Contains(t, m.Viewport.View(), "line-29")

		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
		assert.NotContains(t, m.Viewport.View(), "line-29")
	})

	t.Run("viewport is constrained to its height", func(t *testing.T) {
		t.Parallel()

		m := initModel(t, nopSend)
		m.Viewport = viewport.New(80, 5)
		for i := range 50 {
			m = updateModel(t, m, userMsg(fmt.Sprintf("u%d", i), "line"))
		}
		assert.Less(t, len(strings.Split(m.View(), "\n")), 50)
	})
}

func TestModel_BlockFocusCycle(t *testing.T) {
	t.Parallel()

	m := initModel(t, nopSend)
	for i := range 2 {
		msg := assistantMsg(fmt.Sprintf("a%d", i), "done", floodchat.StatusComplete)
		msg.Message.Sideband = &floodchat.Sideband{AgentTrace: &floodchat.AgentTrace{
			Logs: []floodchat.LogEntry{{Level: "INFO", Message: "step"}},
		}}
		m = updateModel(t, m, msg)
	}
	// blocks: a0, trace0, a1, trace1
	require.Equal(t, 3, bt.BlockFocus(m))

	m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 1, bt.BlockFocus(m))

	m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 3, bt.BlockFocus(m))
}

func TestModel_SessionReconciledOnDone(t *testing.T) {
	t.Parallel()

	session := floodchat.NewSession(floodchat.DialectPlain, time.Now())
	id, err := session.Begin("status?", time.Now())
	require.NoError(t, err)

	m := bt.New(nopSend, &session, floodchat.DefaultTheme())
	m = updateModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	require.Contains(t, bt.RenderContent(m), "…")

	// The cancelled send's final update never reached the model.
	session.Abort(id)
	m = bt.SetRunning(m)
	m = updateModel(t, m, bt.SendDoneMsg{Err: context.Canceled})

	assert.Contains(t, bt.RenderContent(m), floodchat.CancelledText)
	assert.Equal(t, 2, bt.BlockCount(m))
}

func frame(payload string) string { return "data: " + payload + "\n\n" }

func controllerSend(fragments ...string) bt.SendFunc {
	ctrl := chat.New(&mock.Transport{
		OpenFn: func(context.Context, floodchat.Request) (io.ReadCloser, error) {
			return mock.NewFragmentBody(fragments...), nil
		},
	})
	return func(ctx context.Context, s *floodchat.Session, prompt string, onUpdate func(floodchat.ChatMessage)) error {
		_, err := ctrl.Send(ctx, s, floodchat.ChatRequest{Message: prompt}, onUpdate)
		return err
	}
}

func TestModel_Teatest(t *testing.T) {
	t.Parallel()

	t.Run("full send cycle through the controller", func(t *testing.T) {
		t.Parallel()

		send := controllerSend(
			frame(`{"provider":"openai","model":"gpt-4o"}`),
			frame(`{"chunk":"Buffalo Bayou"}`),
			frame(`{"chunk":"Buffalo Bayou is at 31 ft."}`),
			frame(`{"evaluation":{"overall_score":0.87,"confidence":0.9}}`),
			frame(`{"done":true,"provider_used":"openai"}`),
		)
		session := floodchat.NewSession(floodchat.DialectPlain, time.Now())
		m := bt.New(send, &session, floodchat.DefaultTheme())

		tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

		tm.Type("bayou level?")
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("Buffalo Bayou is at 31 ft.")) &&
				bytes.Contains(out, []byte("score 0.87")) &&
				bytes.Contains(out, []byte("Enter to send"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
		final, ok := fm.(bt.Model)
		require.True(t, ok)
		assert.False(t, final.Running())
		assert.NoError(t, final.Err())
		require.Len(t, session.Messages, 2)
		assert.Equal(t, "bayou level?", session.Messages[0].Content)
		assert.Equal(t, "Buffalo Bayou is at 31 ft.", session.Messages[1].Content)
		assert.Equal(t, floodchat.StatusComplete, session.Messages[1].Status)
	})

	t.Run("backend error shows apology", func(t *testing.T) {
		t.Parallel()

		send := controllerSend(
			frame(`{"chunk":"partial"}`),
			frame(`{"error":"provider unavailable"}`),
		)
		session := floodchat.NewSession(floodchat.DialectPlain, time.Now())
		m := bt.New(send, &session, floodchat.DefaultTheme())

		tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

		tm.Type("status")
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("Sorry, I encountered an error")) &&
				bytes.Contains(out, []byte("provider unavailable"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
		final := fm.(bt.Model)
		assert.ErrorIs(t, final.Err(), floodchat.ErrStreamFailed)
	})

	t.Run("existing session messages render on init", func(t *testing.T) {
		t.Parallel()

		session := floodchat.NewSession(floodchat.DialectAgent, time.Now())
		session.Messages = []floodchat.ChatMessage{
			{ID: "u1", Role: floodchat.RoleUser, Content: "check Houston", Status: floodchat.StatusComplete},
			{ID: "a1", Role: floodchat.RoleAssistant, Content: "No flooding expected.", Status: floodchat.StatusComplete},
		}
		m := bt.New(nopSend, &session, floodchat.DefaultTheme())

		tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("check Houston")) &&
				bytes.Contains(out, []byte("No flooding expected.")) &&
				bytes.Contains(out, []byte("agent"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
		tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
	})
}
