package floodchat

import (
	"fmt"
	"slices"
	"strings"
)

// AgentTypes lists the agents the backend knows how to run.
var AgentTypes = []string{
	"data_collector",
	"risk_analyzer",
	"emergency_responder",
	"predictor",
	"h2ogpte_agent",
	"all",
}

// Scenarios lists the agent run scenarios the backend accepts.
var Scenarios = []string{"routine_check", "flash_flood_alert"}

// Validate checks constraints on ChatRequest.
func (r ChatRequest) Validate() error {
	if err := validateMessage(r.Message); err != nil {
		return err
	}
	if r.Temperature != nil {
		if *r.Temperature < 0 || *r.Temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *r.Temperature, ErrValidation)
		}
	}
	if r.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", r.MaxTokens, ErrValidation)
	}
	if r.WatershedID != nil && *r.WatershedID <= 0 {
		return fmt.Errorf("watershed_id must be positive, got %d: %w", *r.WatershedID, ErrValidation)
	}
	return nil
}

// Validate checks constraints on AgentRequest. Zero fields are valid
// because the defaults apply.
func (r AgentRequest) Validate() error {
	if err := validateMessage(r.Message); err != nil {
		return err
	}
	if r.AgentType != "" && !slices.Contains(AgentTypes, r.AgentType) {
		return fmt.Errorf("unknown agent type %q: %w", r.AgentType, ErrValidation)
	}
	if r.Scenario != "" && !slices.Contains(Scenarios, r.Scenario) {
		return fmt.Errorf("unknown scenario %q: %w", r.Scenario, ErrValidation)
	}
	if r.ForecastHours < 0 {
		return fmt.Errorf("forecast_hours must be non-negative, got %d: %w", r.ForecastHours, ErrValidation)
	}
	return nil
}

func validateMessage(msg string) error {
	if strings.TrimSpace(msg) == "" {
		return fmt.Errorf("message must not be empty: %w", ErrValidation)
	}
	return nil
}
