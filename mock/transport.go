// Package mock provides test doubles for floodchat interfaces using function
// fields.
package mock

import (
	"context"
	"io"

	"github.com/fwojciec/floodchat"
)

// Interface compliance check.
var _ floodchat.Transport = (*Transport)(nil)

// Transport is a test double for floodchat.Transport.
// Set OpenFn before calling Open.
type Transport struct {
	OpenFn func(ctx context.Context, req floodchat.Request) (io.ReadCloser, error)
}

// Open delegates to OpenFn.
func (t *Transport) Open(ctx context.Context, req floodchat.Request) (io.ReadCloser, error) {
	return t.OpenFn(ctx, req)
}
