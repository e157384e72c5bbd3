package floodchat

import (
	"maps"
	"slices"
)

// AgentCatalog describes the agents the backend can run.
type AgentCatalog struct {
	Configs      map[string]string // agent name -> config file
	Descriptions map[string]string
	BasePath     string
	Available    bool // whether the agent toolkit is installed on the backend
}

// Names returns the agent names in sorted order.
func (c AgentCatalog) Names() []string {
	return slices.Sorted(maps.Keys(c.Configs))
}

// ProviderInfo describes one LLM provider the backend can route to.
type ProviderInfo struct {
	Name              string
	DefaultModel      string
	Models            []string
	SupportsStreaming bool
	SupportsAgents    bool
}

// ProviderCatalog describes the providers the backend can route to.
type ProviderCatalog struct {
	Providers map[string]ProviderInfo
	Default   string
	Features  map[string]bool
}

// Names returns the provider names in sorted order.
func (c ProviderCatalog) Names() []string {
	return slices.Sorted(maps.Keys(c.Providers))
}
