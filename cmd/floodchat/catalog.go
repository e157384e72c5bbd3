package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/floodchat"
	"github.com/fwojciec/floodchat/backend"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newAgentsCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List the agents the backend can run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.client().Agents(cmd.Context())
			if err != nil {
				return err
			}
			return writeAgents(cmd.OutOrStdout(), catalog, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, plain, json, or jsonl")
	return cmd
}

func newProvidersCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List the LLM providers the backend offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.client().Providers(cmd.Context())
			if err != nil {
				return err
			}
			return writeProviders(cmd.OutOrStdout(), catalog, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, plain, json, or jsonl")
	return cmd
}

func (a *app) client() *backend.Client {
	return backend.New(
		backend.WithBaseURL(a.cfg.BaseURL),
		backend.WithToken(a.cfg.Token),
	)
}

type agentRow struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Config      string `json:"config"`
}

type providerRow struct {
	Name              string   `json:"name"`
	Default           bool     `json:"default"`
	DefaultModel      string   `json:"default_model"`
	Models            []string `json:"models"`
	SupportsStreaming bool     `json:"supports_streaming"`
	SupportsAgents    bool     `json:"supports_agents"`
}

func agentRows(c floodchat.AgentCatalog) []agentRow {
	rows := make([]agentRow, 0, len(c.Configs))
	for _, name := range c.Names() {
		rows = append(rows, agentRow{
			Name:        name,
			Description: c.Descriptions[name],
			Config:      c.Configs[name],
		})
	}
	return rows
}

func providerRows(c floodchat.ProviderCatalog) []providerRow {
	rows := make([]providerRow, 0, len(c.Providers))
	for _, name := range c.Names() {
		p := c.Providers[name]
		rows = append(rows, providerRow{
			Name:              name,
			Default:           name == c.Default,
			DefaultModel:      p.DefaultModel,
			Models:            p.Models,
			SupportsStreaming: p.SupportsStreaming,
			SupportsAgents:    p.SupportsAgents,
		})
	}
	return rows
}

// writeAgents writes the agent catalog to w in the requested format.
func writeAgents(w io.Writer, c floodchat.AgentCatalog, format string) error {
	rows := agentRows(c)
	switch strings.ToLower(format) {
	case "", "table":
		if !c.Available {
			fmt.Fprintln(w, "agents are unavailable on this backend")
		}
		tw := newTable(w)
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, WidthMax: 60},
		})
		tw.AppendHeader(table.Row{"Agent", "Description", "Config"})
		for _, r := range rows {
			tw.AppendRow(table.Row{r.Name, r.Description, r.Config})
		}
		if len(rows) == 0 {
			tw.AppendRow(table.Row{"-", "(no agents)", "-"})
		}
		tw.Render()
		return nil
	case "plain":
		for _, r := range rows {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, escapeNewlines(r.Description), r.Config); err != nil {
				return err
			}
		}
		return nil
	case "json":
		return writeJSON(w, rows)
	case "jsonl":
		return writeJSONL(w, rows)
	default:
		return fmt.Errorf("unsupported format %q: %w", format, floodchat.ErrValidation)
	}
}

// writeProviders writes the provider catalog to w in the requested format.
// The default provider is marked with "*" in table and plain output.
func writeProviders(w io.Writer, c floodchat.ProviderCatalog, format string) error {
	rows := providerRows(c)
	switch strings.ToLower(format) {
	case "", "table":
		tw := newTable(w)
		tw.AppendHeader(table.Row{"Provider", "Default Model", "Models", "Streaming", "Agents"})
		for _, r := range rows {
			tw.AppendRow(table.Row{
				markDefault(r),
				r.DefaultModel,
				strings.Join(r.Models, "\n"),
				yesNo(r.SupportsStreaming),
				yesNo(r.SupportsAgents),
			})
		}
		if len(rows) == 0 {
			tw.AppendRow(table.Row{"(no providers)", "-", "-", "-", "-"})
		}
		tw.Render()
		return nil
	case "plain":
		for _, r := range rows {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", markDefault(r), r.DefaultModel, strings.Join(r.Models, ",")); err != nil {
				return err
			}
		}
		return nil
	case "json":
		return writeJSON(w, rows)
	case "jsonl":
		return writeJSONL(w, rows)
	default:
		return fmt.Errorf("unsupported format %q: %w", format, floodchat.ErrValidation)
	}
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.Style().Format.Header = text.FormatDefault
	return tw
}

func markDefault(r providerRow) string {
	if r.Default {
		return r.Name + " *"
	}
	return r.Name
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func escapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", "\\n")
}

func writeJSON[T any](w io.Writer, rows []T) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeJSONL[T any](w io.Writer, rows []T) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
