package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/floodchat"
	"github.com/fwojciec/floodchat/backend"
	bt "github.com/fwojciec/floodchat/bubbletea"
	"github.com/fwojciec/floodchat/chat"
	"github.com/spf13/cobra"
)

func newChatCmd(a *app) *cobra.Command {
	var prompt string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with an LLM provider through the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSession(cmd, floodchat.DialectPlain, prompt, func(p string) floodchat.Request {
				return a.cfg.chatRequest(p)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&prompt, "prompt", "p", "", "send one prompt, print the response and exit")
	flags.String("provider", "", "LLM provider (default auto)")
	flags.String("model", "", "model name")
	flags.Float64("temperature", 0, "sampling temperature, 0 to 2")
	flags.Int("max-tokens", 0, "response token limit (0 means backend default)")
	flags.Int("watershed", 0, "watershed id to ground the answer in")
	flags.Bool("use-agent", false, "let the backend route the question through an agent")
	_ = a.v.BindPFlag("chat.provider", flags.Lookup("provider"))
	_ = a.v.BindPFlag("chat.model", flags.Lookup("model"))
	_ = a.v.BindPFlag("chat.temperature", flags.Lookup("temperature"))
	_ = a.v.BindPFlag("chat.max_tokens", flags.Lookup("max-tokens"))
	_ = a.v.BindPFlag("chat.watershed_id", flags.Lookup("watershed"))
	_ = a.v.BindPFlag("chat.use_agent", flags.Lookup("use-agent"))
	return cmd
}

func newAgentCmd(a *app) *cobra.Command {
	var prompt, customPrompt string

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Run a flood agent and stream its activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSession(cmd, floodchat.DialectAgent, prompt, func(p string) floodchat.Request {
				return a.cfg.agentRequest(p, customPrompt)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&prompt, "prompt", "p", "", "send one prompt, print the response and exit")
	flags.StringVar(&customPrompt, "custom-prompt", "", "instructions passed to the agent verbatim")
	flags.String("type", "", "agent type (see floodchat agents)")
	flags.String("location", "", "location the agent analyzes")
	flags.Int("forecast-hours", 0, "forecast horizon in hours")
	flags.String("scenario", "", "scenario: routine_check, flash_flood_alert")
	_ = a.v.BindPFlag("agent.type", flags.Lookup("type"))
	_ = a.v.BindPFlag("agent.location", flags.Lookup("location"))
	_ = a.v.BindPFlag("agent.forecast_hours", flags.Lookup("forecast-hours"))
	_ = a.v.BindPFlag("agent.scenario", flags.Lookup("scenario"))
	return cmd
}

// runSession runs the TUI, or a single headless exchange when a prompt is
// given or stdout is not a terminal. Without -p, headless mode reads the
// prompt from stdin.
func (a *app) runSession(cmd *cobra.Command, d floodchat.Dialect, prompt string, build func(string) floodchat.Request) error {
	headless := prompt != "" || !a.interactive(cmd)

	var fallback io.Writer
	if headless {
		fallback = cmd.ErrOrStderr()
	}
	logger, closer, err := newLogger(a.cfg.Log, fallback)
	if err != nil {
		return err
	}
	defer closer.Close()

	client := backend.New(
		backend.WithBaseURL(a.cfg.BaseURL),
		backend.WithToken(a.cfg.Token),
	)
	ctrl := chat.New(client, chat.WithLogger(logger))
	session := floodchat.NewSession(d, time.Now())
	logger.Debug("session started", slog.String("session", session.ID), slog.String("dialect", d.String()))

	if !headless {
		send := func(ctx context.Context, s *floodchat.Session, p string, onUpdate func(floodchat.ChatMessage)) error {
			_, err := ctrl.Send(ctx, s, build(p), onUpdate)
			return err
		}
		if err := bt.Run(cmd.Context(), bt.New(send, &session, floodchat.DefaultTheme())); err != nil {
			return fmt.Errorf("TUI: %w", err)
		}
		return nil
	}

	if prompt == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read prompt: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}
	state, err := ctrl.Send(cmd.Context(), &session, build(prompt), nil)
	if msg, ok := lastAssistant(session); ok {
		if perr := printMessage(cmd.OutOrStdout(), msg); perr != nil {
			return perr
		}
	}
	logger.Debug("session finished", slog.String("state", state.String()))
	return err
}

func lastAssistant(s floodchat.Session) (floodchat.ChatMessage, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == floodchat.RoleAssistant {
			return s.Messages[i], true
		}
	}
	return floodchat.ChatMessage{}, false
}

// printMessage writes an assistant message as plain text followed by its
// evaluation and recommendations.
func printMessage(w io.Writer, msg floodchat.ChatMessage) error {
	var b strings.Builder
	b.WriteString(strings.TrimRight(msg.Content, "\n"))
	b.WriteString("\n")
	if sb := msg.Sideband; sb != nil {
		if e := sb.Evaluation; e != nil {
			fmt.Fprintf(&b, "\nscore %.2f  confidence %.2f  safety %.2f  helpfulness %.2f  accuracy %.2f\n",
				e.OverallScore, e.Confidence, e.SafetyScore, e.Helpfulness, e.Accuracy)
		}
		if len(sb.Recommendations) > 0 {
			b.WriteString("\nRecommendations:\n")
			for _, r := range sb.Recommendations {
				b.WriteString("- " + r + "\n")
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
