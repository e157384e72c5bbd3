package json

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/floodchat"
)

type chatRequestDTO struct {
	Message     string         `json:"message"`
	WatershedID *int           `json:"watershed_id,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
	Provider    string         `json:"provider"`
	Model       string         `json:"model,omitempty"`
	UseAgent    bool           `json:"use_agent"`
	Temperature *float64       `json:"temperature,omitempty"`
	MaxTokens   *int           `json:"max_tokens,omitempty"`
}

type agentRequestDTO struct {
	Message       string `json:"message"`
	AgentType     string `json:"agent_type"`
	Location      string `json:"location"`
	ForecastHours int    `json:"forecast_hours"`
	Scenario      string `json:"scenario"`
	CustomPrompt  string `json:"custom_prompt,omitempty"`
}

// MarshalRequest encodes req as the JSON body its endpoint expects.
// Zero fields are omitted or replaced with the backend's defaults.
func MarshalRequest(req floodchat.Request) ([]byte, error) {
	switch r := req.(type) {
	case floodchat.ChatRequest:
		dto := chatRequestDTO{
			Message:     r.Message,
			WatershedID: r.WatershedID,
			Context:     r.Context,
			Provider:    r.Provider,
			Model:       r.Model,
			UseAgent:    r.UseAgent,
			Temperature: r.Temperature,
		}
		if dto.Provider == "" {
			dto.Provider = "auto"
		}
		if r.MaxTokens > 0 {
			dto.MaxTokens = &r.MaxTokens
		}
		return json.Marshal(dto)
	case floodchat.AgentRequest:
		r = r.WithDefaults()
		return json.Marshal(agentRequestDTO{
			Message:       r.Message,
			AgentType:     r.AgentType,
			Location:      r.Location,
			ForecastHours: r.ForecastHours,
			Scenario:      r.Scenario,
			CustomPrompt:  r.CustomPrompt,
		})
	default:
		return nil, fmt.Errorf("unknown request type: %T", req)
	}
}
