package floodchat

import (
	"context"
	"io"
)

// Transport opens the response stream for a request.
//
// Open returns once the backend has accepted the request. A rejected request
// (non-2xx status, unreachable host, JSON error body) is an error and no body
// is returned. The caller must close the returned body.
type Transport interface {
	Open(ctx context.Context, req Request) (io.ReadCloser, error)
}
