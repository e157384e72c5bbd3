package floodchat

import (
	"slices"
	"strings"
)

// Fixed texts shown in place of a streamed response.
const (
	ApologyText    = "Sorry, I encountered an error processing your request. Please try again."
	CancelledText  = "Response cancelled."
	NoResponseText = "No response received."
)

// Patch is a partial update to the assistant message a stream is feeding.
type Patch struct {
	Content  string
	Status   Status
	Sideband *Sideband // nil leaves the message's sideband untouched
}

// Draft is the fold state of one stream. It is a value: Apply returns a new
// Draft and never mutates the receiver, so a Draft can be copied freely.
type Draft struct {
	dialect Dialect

	text     string
	hasText  bool // a content delta or result has been seen
	resulted bool
	logs     []LogEntry

	agentType    string
	location     string
	resultStatus string
	provider     string
	model        string
	providerUsed string

	evaluation      *Evaluation
	recommendations []string
}

// NewDraft returns the initial fold state for req.
func NewDraft(req Request) Draft {
	d := Draft{dialect: req.Dialect()}
	if ar, ok := req.(AgentRequest); ok {
		ar = ar.WithDefaults()
		d.agentType = ar.AgentType
		d.location = ar.Location
	}
	return d
}

// Apply folds evt into the draft. The bool reports whether the visible
// content changed, meaning a new Patch should be applied.
func (d Draft) Apply(evt Event) (Draft, bool) {
	switch e := evt.(type) {
	case EventContentDelta:
		d.text = e.Text
		d.hasText = true
		return d, true
	case EventLog:
		d.logs = append(slices.Clip(d.logs), e.Entry)
		return d, d.dialect == DialectAgent && !d.hasText
	case EventResult:
		d.resultStatus = e.Status
		if len(e.Recommendations) > 0 {
			d.recommendations = slices.Clone(e.Recommendations)
		}
		d.text = d.compose(e.Output)
		d.hasText = true
		d.resulted = true
		return d, true
	case EventEvaluation:
		ev := e.Evaluation
		d.evaluation = &ev
		return d, false
	case EventProviderInfo:
		if e.Provider != "" {
			d.provider = e.Provider
		}
		if e.Model != "" {
			d.model = e.Model
		}
		if e.AgentType != "" {
			d.agentType = e.AgentType
		}
		if e.Location != "" {
			d.location = e.Location
		}
		return d, false
	case EventDone:
		if e.ProviderUsed != "" {
			d.providerUsed = e.ProviderUsed
		}
		return d, false
	default:
		return d, false
	}
}

// Patch projects the in-progress draft. For the agent dialect, until a
// result arrives the visible content is the log transcript.
func (d Draft) Patch() Patch {
	content := d.text
	if !d.hasText && d.dialect == DialectAgent {
		content = d.Transcript()
	}
	return Patch{Content: content, Status: StatusStreaming}
}

// Final projects the draft at normal stream completion: the message is
// complete and buffered sideband is attached. A stream that produced no
// content still yields a non-empty message.
func (d Draft) Final() Patch {
	var content string
	switch {
	case d.hasText:
		content = d.text
	case len(d.logs) > 0:
		content = d.compose("Processing completed without a final result.")
	default:
		content = NoResponseText
	}
	return Patch{Content: content, Status: StatusComplete, Sideband: d.sideband()}
}

// Transcript joins the buffered log entries as "[level] message" lines.
func (d Draft) Transcript() string {
	lines := make([]string, len(d.logs))
	for i, e := range d.logs {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}

// Logs returns the buffered log entries in arrival order.
func (d Draft) Logs() []LogEntry { return slices.Clone(d.logs) }

// Provider returns the provider that served the stream, preferring the one
// reported at completion over the one announced at the start.
func (d Draft) Provider() string {
	if d.providerUsed != "" {
		return d.providerUsed
	}
	return d.provider
}

// Model returns the model announced by the backend, if any.
func (d Draft) Model() string { return d.model }

func (d Draft) sideband() *Sideband {
	var sb Sideband
	if d.evaluation != nil {
		ev := *d.evaluation
		sb.Evaluation = &ev
	}
	if d.dialect == DialectAgent || len(d.logs) > 0 {
		sb.AgentTrace = &AgentTrace{
			AgentType: d.agentType,
			Location:  d.location,
			Status:    d.resultStatus,
			Logs:      d.Logs(),
		}
	}
	if len(d.recommendations) > 0 {
		sb.Recommendations = slices.Clone(d.recommendations)
	}
	if sb.Evaluation == nil && sb.AgentTrace == nil && sb.Recommendations == nil {
		return nil
	}
	return &sb
}

// compose builds the agent message body: identity header, body, and the
// log transcript as a fenced block.
func (d Draft) compose(body string) string {
	var b strings.Builder
	agent := d.agentType
	if agent == "" {
		agent = "agent"
	}
	b.WriteString("**" + agent + "**")
	if d.location != "" {
		b.WriteString(" · " + d.location)
	}
	b.WriteString("\n\n")
	b.WriteString(body)
	if len(d.logs) > 0 {
		b.WriteString("\n\n```log\n")
		b.WriteString(d.Transcript())
		b.WriteString("\n```")
	}
	return b.String()
}
