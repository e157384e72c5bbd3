package floodchat

import "fmt"

// Dialect selects one of the two JSON event vocabularies carried over the
// same frame format. A session speaks exactly one dialect.
type Dialect int

const (
	// DialectPlain is the token stream: chunk, provider, evaluation, done.
	DialectPlain Dialect = iota
	// DialectAgent is the multi-phase agent stream: start, log, result, done.
	DialectAgent
)

func (d Dialect) String() string {
	switch d {
	case DialectPlain:
		return "plain"
	case DialectAgent:
		return "agent"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}
