// Package backend implements [floodchat.Transport] for the flood monitoring
// backend's HTTP API.
//
// Streaming endpoints answer with a text/event-stream body that the caller
// reads and closes. Catalog endpoints are plain JSON.
package backend

import "time"

const (
	defaultBaseURL        = "http://localhost:8000"
	defaultCatalogTimeout = 30 * time.Second

	chatStreamPath  = "/api/ai/chat/enhanced/stream"
	agentStreamPath = "/api/nat/chat/stream"
	agentsPath      = "/api/nat/agents"
	providersPath   = "/api/ai/providers"
)
