package mock

import (
	"errors"
	"io"
	"sync"
)

// Interface compliance check.
var _ io.ReadCloser = (*Body)(nil)

// Body is a test double for a response body.
// ReadFn panics when nil to catch missing setup. CloseFn is nil-safe.
type Body struct {
	ReadFn  func(p []byte) (int, error)
	CloseFn func() error
}

// Read delegates to ReadFn.
func (b *Body) Read(p []byte) (int, error) {
	return b.ReadFn(p)
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (b *Body) Close() error {
	if b.CloseFn == nil {
		return nil
	}
	return b.CloseFn()
}

// ErrBodyClosed is returned by reads from a closed FragmentBody.
var ErrBodyClosed = errors.New("mock: read on closed body")

// FragmentBody serves a fixed list of fragments, one per Read call, the
// way a network connection delivers chunks. After the last fragment it
// returns Err, or io.EOF when Err is nil. When Block is set it blocks
// instead of ending until Close is called.
type FragmentBody struct {
	Fragments []string
	Err       error
	Block     bool

	mu      sync.Mutex
	pending string
	closed  bool
	closes  int
	once    sync.Once
	closeCh chan struct{}
}

// NewFragmentBody returns a FragmentBody serving fragments then io.EOF.
func NewFragmentBody(fragments ...string) *FragmentBody {
	return &FragmentBody{Fragments: fragments}
}

func (b *FragmentBody) init() {
	b.once.Do(func() { b.closeCh = make(chan struct{}) })
}

// Read returns the next fragment, or as much of it as fits in p.
func (b *FragmentBody) Read(p []byte) (int, error) {
	b.init()
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return 0, ErrBodyClosed
	}
	for b.pending == "" && len(b.Fragments) > 0 {
		b.pending, b.Fragments = b.Fragments[0], b.Fragments[1:]
	}
	if b.pending != "" {
		n := copy(p, b.pending)
		b.pending = b.pending[n:]
		b.mu.Unlock()
		return n, nil
	}
	b.mu.Unlock()

	if b.Block {
		<-b.closeCh
		return 0, ErrBodyClosed
	}
	if b.Err != nil {
		return 0, b.Err
	}
	return 0, io.EOF
}

// Close marks the body closed and releases a blocked Read.
func (b *FragmentBody) Close() error {
	b.init()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closes++
	if !b.closed {
		b.closed = true
		close(b.closeCh)
	}
	return nil
}

// Closed reports whether Close has been called.
func (b *FragmentBody) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Closes reports how many times Close has been called.
func (b *FragmentBody) Closes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closes
}
