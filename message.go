package floodchat

import "time"

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Status is the lifecycle state of a ChatMessage.
type Status string

const (
	StatusComplete  Status = "complete"
	StatusStreaming Status = "streaming"
	StatusErrored   Status = "errored"
)

// ChatMessage is one turn in a conversation.
//
// ID, Role and Timestamp are fixed at creation. For assistant messages the
// Content is replaced wholesale by each content delta; the backend sends the
// full text so far, never an increment.
type ChatMessage struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
	Status    Status
	Sideband  *Sideband
}

// Streaming reports whether the message is still being fed by a stream.
func (m ChatMessage) Streaming() bool { return m.Status == StatusStreaming }

// Sideband is structured data attached to a message when its stream ends.
// None of it is part of the visible Content.
type Sideband struct {
	Evaluation      *Evaluation
	AgentTrace      *AgentTrace
	Recommendations []string
}

// Evaluation holds the quality scores a judge model assigned to a response.
type Evaluation struct {
	ID           string
	OverallScore float64
	Confidence   float64
	SafetyScore  float64
	Helpfulness  float64
	Accuracy     float64
	Reasoning    string
}

// AgentTrace records what an agent did while producing a response.
// Logs are in arrival order.
type AgentTrace struct {
	AgentType string
	Location  string
	Status    string
	Logs      []LogEntry
}

// LogEntry is one line of agent activity relayed by the backend.
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
	Logger  string
}

// String formats the entry as a transcript line: "[level] message".
func (e LogEntry) String() string {
	return "[" + e.Level + "] " + e.Message
}
