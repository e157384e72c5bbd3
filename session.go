package floodchat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one conversation: an ordered list of messages in a single
// dialect.
//
// At most one message has StatusStreaming at any time. Only the methods
// below mutate Messages; readers may inspect it freely between calls.
type Session struct {
	ID        string
	Dialect   Dialect
	Messages  []ChatMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession returns an empty session speaking dialect d.
func NewSession(d Dialect, now time.Time) Session {
	return Session{
		ID:        uuid.NewString(),
		Dialect:   d,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Begin appends the user's prompt and an empty streaming assistant
// placeholder, in that order, and returns the placeholder's id. It fails
// with ErrStreamInFlight if a message is already streaming, leaving the
// session untouched.
func (s *Session) Begin(prompt string, now time.Time) (string, error) {
	if m, ok := s.Streaming(); ok {
		return "", fmt.Errorf("message %s: %w", m.ID, ErrStreamInFlight)
	}
	id := uuid.NewString()
	s.Messages = append(s.Messages,
		ChatMessage{
			ID:        uuid.NewString(),
			Role:      RoleUser,
			Content:   prompt,
			Timestamp: now,
			Status:    StatusComplete,
		},
		ChatMessage{
			ID:        id,
			Role:      RoleAssistant,
			Timestamp: now,
			Status:    StatusStreaming,
		},
	)
	s.UpdatedAt = now
	return id, nil
}

// Apply applies p to the streaming message with the given id. It reports
// false and does nothing if no such message is streaming.
func (s *Session) Apply(id string, p Patch) bool {
	m := s.streamingByID(id)
	if m == nil {
		return false
	}
	m.Content = p.Content
	m.Status = p.Status
	if p.Sideband != nil {
		m.Sideband = p.Sideband
	}
	return true
}

// Fail marks the streaming message as errored. Accumulated content and
// sideband are discarded in favor of ApologyText.
func (s *Session) Fail(id string) bool {
	m := s.streamingByID(id)
	if m == nil {
		return false
	}
	m.Content = ApologyText
	m.Status = StatusErrored
	m.Sideband = nil
	return true
}

// Abort completes a cancelled stream's message, keeping whatever content was
// already shown.
func (s *Session) Abort(id string) bool {
	m := s.streamingByID(id)
	if m == nil {
		return false
	}
	if m.Content == "" {
		m.Content = CancelledText
	}
	m.Status = StatusComplete
	return true
}

// Message returns the message with the given id.
func (s *Session) Message(id string) (ChatMessage, bool) {
	for _, m := range s.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return ChatMessage{}, false
}

// Streaming returns the message currently being streamed, if any.
func (s *Session) Streaming() (ChatMessage, bool) {
	for _, m := range s.Messages {
		if m.Streaming() {
			return m, true
		}
	}
	return ChatMessage{}, false
}

func (s *Session) streamingByID(id string) *ChatMessage {
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			if !s.Messages[i].Streaming() {
				return nil
			}
			return &s.Messages[i]
		}
	}
	return nil
}
