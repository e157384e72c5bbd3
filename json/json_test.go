package json_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fwojciec/floodchat"
	fcjson "github.com/fwojciec/floodchat/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePlain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    floodchat.Event
	}{
		{"chunk", `{"chunk":"The risk","done":false}`, floodchat.EventContentDelta{Text: "The risk"}},
		{"empty chunk", `{"chunk":"","done":false}`, floodchat.EventContentDelta{Text: ""}},
		{"provider", `{"provider":"nvidia","model":"llama-3.1"}`, floodchat.EventProviderInfo{Provider: "nvidia", Model: "llama-3.1"}},
		{"done", `{"done":true}`, floodchat.EventDone{}},
		{"done with provider used", `{"done":true,"provider_used":"openai"}`, floodchat.EventDone{ProviderUsed: "openai"}},
		{"keepalive", `{"keepalive":true}`, floodchat.EventKeepalive{}},
		{"error", `{"error":"model overloaded"}`, floodchat.EventError{Message: "model overloaded"}},
		{"error object", `{"error":{"code":503}}`, floodchat.EventError{Message: `{"code":503}`}},
		{"error wins over chunk", `{"chunk":"x","error":"boom"}`, floodchat.EventError{Message: "boom"}},
		{"null error ignored", `{"error":null,"chunk":"x"}`, floodchat.EventContentDelta{Text: "x"}},
		{"done false alone", `{"done":false}`, floodchat.EventUnrecognized{Payload: `{"done":false}`}},
		{"unknown", `{"status":"thinking"}`, floodchat.EventUnrecognized{Payload: `{"status":"thinking"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := fcjson.DecodePlain(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodePlain_Evaluation(t *testing.T) {
	t.Parallel()

	payload := `{"evaluation":{"id":"ev-1","overall_score":8.1,"confidence":0.9,"safety_score":9,"helpfulness":7.5,"accuracy":8,"reasoning":"grounded"}}`
	got, err := fcjson.DecodePlain(payload)
	require.NoError(t, err)

	ev, ok := got.(floodchat.EventEvaluation)
	require.True(t, ok, "got %T", got)
	assert.Equal(t, floodchat.Evaluation{
		ID:           "ev-1",
		OverallScore: 8.1,
		Confidence:   0.9,
		SafetyScore:  9,
		Helpfulness:  7.5,
		Accuracy:     8,
		Reasoning:    "grounded",
	}, ev.Evaluation)
}

func TestDecodeAgent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    floodchat.Event
	}{
		{"start nested", `{"type":"start","data":{}}`, floodchat.EventProviderInfo{}},
		{"start flat", `{"type":"start","agent_type":"predictor","location":"Harris County"}`,
			floodchat.EventProviderInfo{AgentType: "predictor", Location: "Harris County"}},
		{"log nested", `{"type":"log","data":{"level":"info","message":"fetching data"}}`,
			floodchat.EventLog{Entry: floodchat.LogEntry{Level: "info", Message: "fetching data"}}},
		{"log flat", `{"type":"log","log":{"level":"INFO","message":"fetching data","logger":"nat"}}`,
			floodchat.EventLog{Entry: floodchat.LogEntry{Level: "INFO", Message: "fetching data", Logger: "nat"}}},
		{"result nested", `{"type":"result","data":{"output":"Risk: moderate"}}`,
			floodchat.EventResult{Output: "Risk: moderate"}},
		{"result flat", `{"type":"result","output":"Risk: high","status":"completed","recommendations":["evacuate"]}`,
			floodchat.EventResult{Output: "Risk: high", Status: "completed", Recommendations: []string{"evacuate"}}},
		{"result object output", `{"type":"result","output":{"risk_level":"moderate"},"status":"success"}`,
			floodchat.EventResult{Output: `{"risk_level":"moderate"}`, Status: "success"}},
		{"result numeric output and object status", `{"type":"result","output":0.73,"status":{"code":1}}`,
			floodchat.EventResult{Output: "0.73", Status: `{"code":1}`}},
		{"result nested object output", `{"type":"result","data":{"output":["levee A","levee B"],"status":200}}`,
			floodchat.EventResult{Output: `["levee A","levee B"]`, Status: "200"}},
		{"error", `{"type":"error","error":"agent crashed"}`, floodchat.EventError{Message: "agent crashed"}},
		{"untyped error", `{"error":"bad request"}`, floodchat.EventError{Message: "bad request"}},
		{"keepalive", `{"type":"keepalive"}`, floodchat.EventKeepalive{}},
		{"done", `{"type":"done"}`, floodchat.EventDone{}},
		{"unknown type", `{"type":"progress","pct":50}`, floodchat.EventUnrecognized{Payload: `{"type":"progress","pct":50}`}},
		{"no type", `{"hello":1}`, floodchat.EventUnrecognized{Payload: `{"hello":1}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := fcjson.DecodeAgent(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeAgent_LogTimestamp(t *testing.T) {
	t.Parallel()

	got, err := fcjson.DecodeAgent(`{"type":"log","log":{"timestamp":1718000000.5,"level":"INFO","message":"m"}}`)
	require.NoError(t, err)
	l, ok := got.(floodchat.EventLog)
	require.True(t, ok)
	want := time.Unix(1718000000, 500_000_000).UTC()
	assert.WithinDuration(t, want, l.Entry.Time, time.Millisecond)
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dialect floodchat.Dialect
		payload string
	}{
		{"plain truncated", floodchat.DialectPlain, `{"chunk":"The`},
		{"plain not json", floodchat.DialectPlain, `hello`},
		{"plain empty", floodchat.DialectPlain, ``},
		{"plain array", floodchat.DialectPlain, `[1,2]`},
		{"plain wrong type", floodchat.DialectPlain, `{"chunk":42}`},
		{"agent truncated", floodchat.DialectAgent, `{"type":"log","data":{`},
		{"agent log without message", floodchat.DialectAgent, `{"type":"log","data":{"level":"info"}}`},
		{"agent result without output", floodchat.DialectAgent, `{"type":"result","data":{}}`},
		{"agent result with null output", floodchat.DialectAgent, `{"type":"result","output":null}`},
		{"agent string", floodchat.DialectAgent, `"done"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := fcjson.Decode(tt.dialect, tt.payload)
			assert.ErrorIs(t, err, floodchat.ErrMalformedFrame)
		})
	}
}

func TestDecode_DialectIsNotInferred(t *testing.T) {
	t.Parallel()

	got, err := fcjson.Decode(floodchat.DialectPlain, `{"type":"done"}`)
	require.NoError(t, err)
	assert.IsType(t, floodchat.EventUnrecognized{}, got)

	got, err = fcjson.Decode(floodchat.DialectAgent, `{"done":true}`)
	require.NoError(t, err)
	assert.IsType(t, floodchat.EventUnrecognized{}, got)
}

func decodeMap(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestMarshalRequest(t *testing.T) {
	t.Parallel()

	t.Run("chat defaults", func(t *testing.T) {
		t.Parallel()
		data, err := fcjson.MarshalRequest(floodchat.ChatRequest{Message: "hi"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"message":   "hi",
			"provider":  "auto",
			"use_agent": false,
		}, decodeMap(t, data))
	})

	t.Run("chat all fields", func(t *testing.T) {
		t.Parallel()
		temp := 0.2
		ws := 7
		data, err := fcjson.MarshalRequest(floodchat.ChatRequest{
			Message:     "hi",
			Provider:    "nvidia",
			Model:       "llama",
			Temperature: &temp,
			MaxTokens:   512,
			WatershedID: &ws,
			Context:     map[string]any{"basin": "trinity"},
			UseAgent:    true,
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"message":      "hi",
			"provider":     "nvidia",
			"model":        "llama",
			"temperature":  0.2,
			"max_tokens":   float64(512),
			"watershed_id": float64(7),
			"context":      map[string]any{"basin": "trinity"},
			"use_agent":    true,
		}, decodeMap(t, data))
	})

	t.Run("agent defaults", func(t *testing.T) {
		t.Parallel()
		data, err := fcjson.MarshalRequest(floodchat.AgentRequest{Message: "status?"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"message":        "status?",
			"agent_type":     "risk_analyzer",
			"location":       "Texas Region",
			"forecast_hours": float64(24),
			"scenario":       "routine_check",
		}, decodeMap(t, data))
	})

	t.Run("agent custom prompt", func(t *testing.T) {
		t.Parallel()
		data, err := fcjson.MarshalRequest(floodchat.AgentRequest{Message: "m", AgentType: "all", CustomPrompt: "be brief"})
		require.NoError(t, err)
		m := decodeMap(t, data)
		assert.Equal(t, "all", m["agent_type"])
		assert.Equal(t, "be brief", m["custom_prompt"])
	})
}

func TestUnmarshalAgentCatalog(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"available_agents": {"risk_analyzer": "risk.yml", "predictor": "pred.yml"},
		"base_path": "/opt/nat",
		"nat_available": true,
		"description": {"risk_analyzer": "Assesses flood risk"}
	}`)
	got, err := fcjson.UnmarshalAgentCatalog(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"predictor", "risk_analyzer"}, got.Names())
	assert.Equal(t, "/opt/nat", got.BasePath)
	assert.True(t, got.Available)
	assert.Equal(t, "Assesses flood risk", got.Descriptions["risk_analyzer"])

	_, err = fcjson.UnmarshalAgentCatalog([]byte(`nope`))
	assert.Error(t, err)
}

func TestUnmarshalProviderCatalog(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"providers": {
			"nvidia": {"name": "NVIDIA NIM", "default_model": "llama", "available_models": ["llama", "mixtral"], "supports_streaming": true, "supports_agents": true}
		},
		"current_default": "nvidia",
		"nvidia_features": {"agents_enabled": true, "rag_enabled": false}
	}`)
	got, err := fcjson.UnmarshalProviderCatalog(data)
	require.NoError(t, err)
	assert.Equal(t, "nvidia", got.Default)
	assert.Equal(t, floodchat.ProviderInfo{
		Name:              "NVIDIA NIM",
		DefaultModel:      "llama",
		Models:            []string{"llama", "mixtral"},
		SupportsStreaming: true,
		SupportsAgents:    true,
	}, got.Providers["nvidia"])
	assert.True(t, got.Features["agents_enabled"])
	assert.False(t, got.Features["rag_enabled"])
}

func TestErrorDetail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "AI agents are disabled", fcjson.ErrorDetail([]byte(`{"detail":"AI agents are disabled"}`)))
	assert.Equal(t, "quota", fcjson.ErrorDetail([]byte(`{"error":"quota"}`)))
	assert.Equal(t, `[{"loc":["body","message"]}]`, fcjson.ErrorDetail([]byte(`{"detail":[{"loc":["body","message"]}]}`)))
	assert.Equal(t, "Bad Gateway", fcjson.ErrorDetail([]byte("Bad Gateway")))
}
