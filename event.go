package floodchat

// Event is a sealed interface representing one classified stream frame.
// The unexported marker method prevents external implementations.
//
// Only EventContentDelta, EventLog and EventResult carry data that is folded
// into message content. The rest are control signals or sideband.
type Event interface {
	event()
}

// EventContentDelta carries the cumulative response text so far.
type EventContentDelta struct {
	Text string
}

func (EventContentDelta) event() {}

// EventProviderInfo is stream metadata: the plain dialect's provider frame
// or the agent dialect's start frame. It never reaches message content.
type EventProviderInfo struct {
	Provider  string
	Model     string
	AgentType string
	Location  string
}

func (EventProviderInfo) event() {}

// EventLog carries one agent log entry.
type EventLog struct {
	Entry LogEntry
}

func (EventLog) event() {}

// EventResult carries the agent's final output.
type EventResult struct {
	Output          string
	Status          string
	Recommendations []string
}

func (EventResult) event() {}

// EventEvaluation carries quality scores for the response.
type EventEvaluation struct {
	Evaluation Evaluation
}

func (EventEvaluation) event() {}

// EventError is a backend-reported failure. It terminates the stream.
type EventError struct {
	Message string
}

func (EventError) event() {}

// EventKeepalive is sent by the backend while it has nothing else to say.
type EventKeepalive struct{}

func (EventKeepalive) event() {}

// EventDone terminates the stream normally.
type EventDone struct {
	ProviderUsed string
}

func (EventDone) event() {}

// EventUnrecognized is a well-formed payload that matches no known shape.
type EventUnrecognized struct {
	Payload string
}

func (EventUnrecognized) event() {}

// Interface compliance checks.
var (
	_ Event = EventContentDelta{}
	_ Event = EventProviderInfo{}
	_ Event = EventLog{}
	_ Event = EventResult{}
	_ Event = EventEvaluation{}
	_ Event = EventError{}
	_ Event = EventKeepalive{}
	_ Event = EventDone{}
	_ Event = EventUnrecognized{}
)
