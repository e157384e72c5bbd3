package floodchat

// Request is a sealed interface for the two request kinds a session can send.
// Each kind selects the dialect its response stream is spoken in.
type Request interface {
	Dialect() Dialect
	Prompt() string
	Validate() error
	request()
}

// ChatRequest asks the plain chat endpoint for a token stream.
// The backend uses its own defaults when fields are zero/nil.
type ChatRequest struct {
	Message     string
	Provider    string   // empty = "auto"
	Model       string   // provider-specific; empty = provider default
	Temperature *float64 // nil = provider default
	MaxTokens   int      // 0 = provider default
	WatershedID *int
	Context     map[string]any
	UseAgent    bool
}

func (ChatRequest) Dialect() Dialect { return DialectPlain }
func (r ChatRequest) Prompt() string { return r.Message }
func (ChatRequest) request()         {}

// Agent request defaults, matching the backend's.
const (
	DefaultAgentType     = "risk_analyzer"
	DefaultLocation      = "Texas Region"
	DefaultForecastHours = 24
	DefaultScenario      = "routine_check"
)

// AgentRequest asks an agent for a multi-phase stream.
// Zero fields fall back to the Default* constants.
type AgentRequest struct {
	Message       string
	AgentType     string
	Location      string
	ForecastHours int
	Scenario      string
	CustomPrompt  string
}

func (AgentRequest) Dialect() Dialect { return DialectAgent }
func (r AgentRequest) Prompt() string { return r.Message }
func (AgentRequest) request()         {}

// WithDefaults returns a copy of r with zero fields filled in.
func (r AgentRequest) WithDefaults() AgentRequest {
	if r.AgentType == "" {
		r.AgentType = DefaultAgentType
	}
	if r.Location == "" {
		r.Location = DefaultLocation
	}
	if r.ForecastHours == 0 {
		r.ForecastHours = DefaultForecastHours
	}
	if r.Scenario == "" {
		r.Scenario = DefaultScenario
	}
	return r
}

var (
	_ Request = ChatRequest{}
	_ Request = AgentRequest{}
)
