// Package chat drives one request's response stream into a session.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fwojciec/floodchat"
	fcjson "github.com/fwojciec/floodchat/json"
	"github.com/fwojciec/floodchat/sse"
)

const defaultReadSize = 4096

// Controller consumes response streams from a transport and folds them into
// sessions.
type Controller struct {
	transport floodchat.Transport
	logger    *slog.Logger
	readSize  int
	now       func() time.Time
}

// Option configures a [Controller].
type Option func(*Controller)

// WithLogger sets the diagnostics logger. Frame-level problems and terminal
// error details are logged here and never shown in the transcript.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithReadSize sets the size of each read from the transport body.
func WithReadSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.readSize = n
		}
	}
}

// WithClock sets the time source for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a Controller that opens streams with t.
func New(t floodchat.Transport, opts ...Option) *Controller {
	c := &Controller{
		transport: t,
		logger:    slog.New(slog.DiscardHandler),
		readSize:  defaultReadSize,
		now:       time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Send appends req's prompt and an assistant placeholder to s, then consumes
// the response stream to completion, applying each update to the placeholder.
// onUpdate, if not nil, receives a snapshot of every message that changes,
// in order, on the calling goroutine.
//
// The returned state is terminal unless the request was rejected before
// anything was appended (StreamIdle). Failures wrap
// [floodchat.ErrStreamFailed]; cancellation returns the context's error.
// Send must not be called concurrently for the same session.
func (c *Controller) Send(ctx context.Context, s *floodchat.Session, req floodchat.Request, onUpdate func(floodchat.ChatMessage)) (floodchat.StreamState, error) {
	if err := req.Validate(); err != nil {
		return floodchat.StreamIdle, fmt.Errorf("chat: %w", err)
	}
	if req.Dialect() != s.Dialect {
		return floodchat.StreamIdle, fmt.Errorf("chat: %s request in %s session: %w", req.Dialect(), s.Dialect, floodchat.ErrValidation)
	}
	id, err := s.Begin(req.Prompt(), c.now())
	if err != nil {
		return floodchat.StreamIdle, fmt.Errorf("chat: %w", err)
	}

	r := &run{
		session:  s,
		id:       id,
		draft:    floodchat.NewDraft(req),
		decoder:  sse.NewDecoder(),
		readSize: c.readSize,
		onUpdate: onUpdate,
		log:      c.logger.With("session", s.ID, "message", id, "dialect", s.Dialect.String()),
	}
	r.emit(s.Messages[len(s.Messages)-2])
	r.emitTarget()

	r.transition(floodchat.StreamConnecting)
	body, err := c.transport.Open(ctx, req)
	if err != nil {
		return r.fail(ctx, err)
	}
	return r.stream(ctx, body)
}

// run is the ephemeral state of one stream: the target message, the draft
// and the decoder. It lives for a single Send call.
type run struct {
	session  *floodchat.Session
	id       string
	draft    floodchat.Draft
	decoder  *sse.Decoder
	readSize int
	onUpdate func(floodchat.ChatMessage)
	log      *slog.Logger
}

func (r *run) stream(ctx context.Context, body io.ReadCloser) (floodchat.StreamState, error) {
	r.transition(floodchat.StreamStreaming)

	closeBody := sync.OnceValue(body.Close)
	defer closeBody()
	// Closing the body unblocks a pending Read when the caller cancels.
	stop := context.AfterFunc(ctx, func() { closeBody() })
	defer stop()

	fragments := make(chan string)
	done := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		defer close(fragments)
		buf := make([]byte, r.readSize)
		for {
			n, err := body.Read(buf)
			if n > 0 {
				select {
				case fragments <- string(buf[:n]):
				case <-done:
					return nil
				}
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
		}
	})
	defer func() {
		close(done)
		closeBody()
		_ = g.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return r.cancel(ctx)
		case frag, ok := <-fragments:
			if !ok {
				if err := g.Wait(); err != nil {
					return r.fail(ctx, err)
				}
				if state, err := r.frames(ctx, r.decoder.Flush()); state.Terminal() {
					return state, err
				}
				return r.complete()
			}
			if state, err := r.frames(ctx, r.feed(frag)); state.Terminal() {
				return state, err
			}
		}
	}
}

func (r *run) feed(fragment string) []string {
	before := r.decoder.Overflows()
	payloads := r.decoder.Feed(fragment)
	if r.decoder.Overflows() > before {
		r.log.Warn("discarding oversized line", "limit", sse.DefaultMaxLine)
	}
	return payloads
}

// frames classifies and folds decoded payloads in order. It returns a
// terminal state once a terminal event is seen or the caller cancels, and
// StreamStreaming otherwise.
func (r *run) frames(ctx context.Context, payloads []string) (floodchat.StreamState, error) {
	for _, p := range payloads {
		if ctx.Err() != nil {
			return r.cancel(ctx)
		}
		evt, err := fcjson.Decode(r.session.Dialect, p)
		if err != nil {
			r.log.Warn("skipping malformed frame", "error", err)
			continue
		}
		switch e := evt.(type) {
		case floodchat.EventError:
			return r.fail(ctx, &floodchat.ProtocolError{Message: e.Message})
		case floodchat.EventDone:
			r.draft, _ = r.draft.Apply(e)
			return r.complete()
		case floodchat.EventUnrecognized:
			r.log.Debug("ignoring unrecognized frame", "payload", e.Payload)
		default:
			var changed bool
			r.draft, changed = r.draft.Apply(evt)
			if changed {
				r.session.Apply(r.id, r.draft.Patch())
				r.emitTarget()
			}
		}
	}
	return floodchat.StreamStreaming, nil
}

func (r *run) complete() (floodchat.StreamState, error) {
	r.session.Apply(r.id, r.draft.Final())
	r.emitTarget()
	r.transition(floodchat.StreamCompleted, "provider", r.draft.Provider(), "model", r.draft.Model())
	return floodchat.StreamCompleted, nil
}

// fail ends the stream with the apology text. An error caused by the caller
// cancelling is reported as cancellation instead.
func (r *run) fail(ctx context.Context, cause error) (floodchat.StreamState, error) {
	if ctx.Err() != nil {
		return r.cancel(ctx)
	}
	r.session.Fail(r.id)
	r.emitTarget()
	r.log.Error("stream failed", "state", floodchat.StreamFailed.String(), "error", cause)
	return floodchat.StreamFailed, fmt.Errorf("%w: %w", floodchat.ErrStreamFailed, cause)
}

func (r *run) cancel(ctx context.Context) (floodchat.StreamState, error) {
	r.session.Abort(r.id)
	r.emitTarget()
	r.transition(floodchat.StreamCancelled, "cause", context.Cause(ctx))
	return floodchat.StreamCancelled, ctx.Err()
}

func (r *run) transition(state floodchat.StreamState, args ...any) {
	r.log.Debug("stream "+state.String(), append([]any{"state", state.String()}, args...)...)
}

func (r *run) emitTarget() {
	if m, ok := r.session.Message(r.id); ok {
		r.emit(m)
	}
}

func (r *run) emit(m floodchat.ChatMessage) {
	if r.onUpdate != nil {
		r.onUpdate(m)
	}
}
