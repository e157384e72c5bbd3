package floodchat

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request failed validation.
	ErrValidation = errors.New("validation error")

	// ErrMalformedFrame indicates a frame payload could not be parsed.
	// Malformed frames are skipped; they never end a stream.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrStreamInFlight indicates a send was attempted while another stream
	// is still feeding a message in the same session.
	ErrStreamInFlight = errors.New("stream already in flight")

	// ErrStreamFailed indicates a stream ended in the failed state.
	// The underlying cause is wrapped alongside it.
	ErrStreamFailed = errors.New("stream failed")
)

// ProtocolError is an error event reported by the backend mid-stream.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return "backend error: " + e.Message
}
