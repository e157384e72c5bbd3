package floodchat

// StreamState indicates where a stream is in its lifecycle.
//
//	Idle -> Connecting -> Streaming -> {Completed | Failed | Cancelled}
//
// Connecting may go straight to Failed or Cancelled.
type StreamState int

const (
	StreamIdle       StreamState = iota // Before the send starts.
	StreamConnecting                    // Request issued, no response yet.
	StreamStreaming                     // Response accepted, reading frames.
	StreamCompleted                     // Done event or clean end of data.
	StreamFailed                        // Transport error or error event.
	StreamCancelled                     // Caller cancelled the context.
)

func (s StreamState) String() string {
	switch s {
	case StreamIdle:
		return "idle"
	case StreamConnecting:
		return "connecting"
	case StreamStreaming:
		return "streaming"
	case StreamCompleted:
		return "completed"
	case StreamFailed:
		return "failed"
	case StreamCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s StreamState) Terminal() bool {
	return s == StreamCompleted || s == StreamFailed || s == StreamCancelled
}
