// Package json is the wire codec for the flood backend: it classifies stream
// frames into events and encodes requests and catalog responses.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/fwojciec/floodchat"
)

// Decode classifies one frame payload in the given dialect. A payload that
// is not a JSON object returns an error wrapping floodchat.ErrMalformedFrame.
// The dialect is never inferred from the payload.
func Decode(d floodchat.Dialect, payload string) (floodchat.Event, error) {
	switch d {
	case floodchat.DialectPlain:
		return DecodePlain(payload)
	case floodchat.DialectAgent:
		return DecodeAgent(payload)
	default:
		return nil, fmt.Errorf("unknown dialect %s: %w", d, floodchat.ErrValidation)
	}
}

// plainFrame is the union of every plain dialect frame shape.
type plainFrame struct {
	Chunk        *string         `json:"chunk"`
	Done         *bool           `json:"done"`
	Provider     *string         `json:"provider"`
	Model        string          `json:"model"`
	ProviderUsed string          `json:"provider_used"`
	Evaluation   *evaluationDTO  `json:"evaluation"`
	Error        json.RawMessage `json:"error"`
	Keepalive    bool            `json:"keepalive"`
}

type evaluationDTO struct {
	ID           json.RawMessage `json:"id"`
	OverallScore float64         `json:"overall_score"`
	Confidence   float64         `json:"confidence"`
	SafetyScore  float64         `json:"safety_score"`
	Helpfulness  float64         `json:"helpfulness"`
	Accuracy     float64         `json:"accuracy"`
	Reasoning    string          `json:"reasoning"`
}

// DecodePlain classifies a plain dialect frame. Fields are checked in a
// fixed precedence: error, evaluation, chunk, done, provider, keepalive.
func DecodePlain(payload string) (floodchat.Event, error) {
	var f plainFrame
	if err := unmarshalObject(payload, &f); err != nil {
		return nil, err
	}
	switch {
	case present(f.Error):
		return floodchat.EventError{Message: text(f.Error)}, nil
	case f.Evaluation != nil:
		return floodchat.EventEvaluation{Evaluation: f.Evaluation.toDomain()}, nil
	case f.Chunk != nil:
		return floodchat.EventContentDelta{Text: *f.Chunk}, nil
	case f.Done != nil && *f.Done:
		return floodchat.EventDone{ProviderUsed: f.ProviderUsed}, nil
	case f.Provider != nil:
		return floodchat.EventProviderInfo{Provider: *f.Provider, Model: f.Model}, nil
	case f.Keepalive:
		return floodchat.EventKeepalive{}, nil
	default:
		return floodchat.EventUnrecognized{Payload: payload}, nil
	}
}

// agentFrame accepts both the nested shape ({"type":"log","data":{...}})
// and the flat shape the backend emits ({"type":"log","log":{...}}).
type agentFrame struct {
	Type   string          `json:"type"`
	Data   *agentData      `json:"data"`
	Log    *logDTO         `json:"log"`
	Error  json.RawMessage `json:"error"`
	Output json.RawMessage `json:"output"`
	Status json.RawMessage `json:"status"`

	AgentType       string   `json:"agent_type"`
	Location        string   `json:"location"`
	Recommendations []string `json:"recommendations"`
}

type agentData struct {
	logDTO
	Output          json.RawMessage `json:"output"`
	Status          json.RawMessage `json:"status"`
	AgentType       string          `json:"agent_type"`
	Location        string          `json:"location"`
	Recommendations []string        `json:"recommendations"`
}

type logDTO struct {
	Timestamp *float64 `json:"timestamp"`
	Level     string   `json:"level"`
	Message   *string  `json:"message"`
	Logger    string   `json:"logger"`
}

// DecodeAgent classifies an agent dialect frame by its type field.
// A log frame without a message or a result frame without output is
// malformed. A frame with no type but an error field is an error event.
// Result output and status that are not strings are kept as their JSON text.
func DecodeAgent(payload string) (floodchat.Event, error) {
	var f agentFrame
	if err := unmarshalObject(payload, &f); err != nil {
		return nil, err
	}
	data := f.Data
	if data == nil {
		data = &agentData{}
	}
	switch f.Type {
	case "start":
		return floodchat.EventProviderInfo{
			AgentType: first(data.AgentType, f.AgentType),
			Location:  first(data.Location, f.Location),
		}, nil
	case "log":
		l := f.Log
		if l == nil {
			l = &data.logDTO
		}
		if l.Message == nil {
			return nil, fmt.Errorf("log frame without message: %w", floodchat.ErrMalformedFrame)
		}
		return floodchat.EventLog{Entry: l.toDomain()}, nil
	case "result":
		out := f.Output
		if !present(out) {
			out = data.Output
		}
		if !present(out) {
			return nil, fmt.Errorf("result frame without output: %w", floodchat.ErrMalformedFrame)
		}
		recs := f.Recommendations
		if len(recs) == 0 {
			recs = data.Recommendations
		}
		return floodchat.EventResult{
			Output:          text(out),
			Status:          first(optionalText(data.Status), optionalText(f.Status)),
			Recommendations: recs,
		}, nil
	case "error":
		return floodchat.EventError{Message: text(f.Error)}, nil
	case "keepalive":
		return floodchat.EventKeepalive{}, nil
	case "done":
		return floodchat.EventDone{}, nil
	case "":
		if present(f.Error) {
			return floodchat.EventError{Message: text(f.Error)}, nil
		}
	}
	return floodchat.EventUnrecognized{Payload: payload}, nil
}

func unmarshalObject(payload string, v any) error {
	trimmed := bytes.TrimSpace([]byte(payload))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("payload is not an object: %w", floodchat.ErrMalformedFrame)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: %w", floodchat.ErrMalformedFrame, err)
	}
	return nil
}

// present reports whether a raw field was sent with a non-null value.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// text renders a raw field as a string. Strings are unquoted; anything else
// is returned as its JSON text.
func text(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func optionalText(raw json.RawMessage) string {
	if !present(raw) {
		return ""
	}
	return text(raw)
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (e evaluationDTO) toDomain() floodchat.Evaluation {
	var id string
	if present(e.ID) {
		id = text(e.ID)
	}
	return floodchat.Evaluation{
		ID:           id,
		OverallScore: e.OverallScore,
		Confidence:   e.Confidence,
		SafetyScore:  e.SafetyScore,
		Helpfulness:  e.Helpfulness,
		Accuracy:     e.Accuracy,
		Reasoning:    e.Reasoning,
	}
}

func (l logDTO) toDomain() floodchat.LogEntry {
	var ts time.Time
	if l.Timestamp != nil {
		sec, frac := math.Modf(*l.Timestamp)
		ts = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	var msg string
	if l.Message != nil {
		msg = *l.Message
	}
	return floodchat.LogEntry{
		Time:    ts,
		Level:   l.Level,
		Message: msg,
		Logger:  l.Logger,
	}
}
