package json

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/floodchat"
)

type agentCatalogDTO struct {
	AvailableAgents map[string]string `json:"available_agents"`
	BasePath        string            `json:"base_path"`
	NATAvailable    bool              `json:"nat_available"`
	Description     map[string]string `json:"description"`
}

type providerDTO struct {
	Name              string   `json:"name"`
	DefaultModel      string   `json:"default_model"`
	AvailableModels   []string `json:"available_models"`
	SupportsStreaming bool     `json:"supports_streaming"`
	SupportsAgents    bool     `json:"supports_agents"`
}

type providerCatalogDTO struct {
	Providers      map[string]providerDTO `json:"providers"`
	CurrentDefault string                 `json:"current_default"`
	NVIDIAFeatures map[string]bool        `json:"nvidia_features"`
}

// UnmarshalAgentCatalog decodes the agent listing endpoint's response.
func UnmarshalAgentCatalog(data []byte) (floodchat.AgentCatalog, error) {
	var dto agentCatalogDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return floodchat.AgentCatalog{}, fmt.Errorf("unmarshal agent catalog: %w", err)
	}
	return floodchat.AgentCatalog{
		Configs:      dto.AvailableAgents,
		Descriptions: dto.Description,
		BasePath:     dto.BasePath,
		Available:    dto.NATAvailable,
	}, nil
}

// UnmarshalProviderCatalog decodes the provider listing endpoint's response.
func UnmarshalProviderCatalog(data []byte) (floodchat.ProviderCatalog, error) {
	var dto providerCatalogDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return floodchat.ProviderCatalog{}, fmt.Errorf("unmarshal provider catalog: %w", err)
	}
	providers := make(map[string]floodchat.ProviderInfo, len(dto.Providers))
	for key, p := range dto.Providers {
		providers[key] = floodchat.ProviderInfo{
			Name:              p.Name,
			DefaultModel:      p.DefaultModel,
			Models:            p.AvailableModels,
			SupportsStreaming: p.SupportsStreaming,
			SupportsAgents:    p.SupportsAgents,
		}
	}
	return floodchat.ProviderCatalog{
		Providers: providers,
		Default:   dto.CurrentDefault,
		Features:  dto.NVIDIAFeatures,
	}, nil
}

// ErrorDetail extracts a human-readable message from an error response body.
// It understands {"detail": ...} and {"error": ...}; anything else is
// returned verbatim.
func ErrorDetail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		switch {
		case present(body.Detail):
			return text(body.Detail)
		case present(body.Error):
			return text(body.Error)
		}
	}
	return string(data)
}
