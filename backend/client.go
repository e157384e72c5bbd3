package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/fwojciec/floodchat"
	fcjson "github.com/fwojciec/floodchat/json"
)

// Interface compliance check.
var _ floodchat.Transport = (*Client)(nil)

// Client talks to the flood backend over HTTP.
type Client struct {
	token          string
	baseURL        string
	httpClient     *http.Client
	catalogTimeout time.Duration
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client. Its timeout bounds the whole
// stream, so streaming callers usually want none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithCatalogTimeout bounds each non-streaming catalog call. Streams are
// bounded only by their context.
func WithCatalogTimeout(d time.Duration) Option {
	return func(c *Client) { c.catalogTimeout = d }
}

// New creates a new [Client].
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:        defaultBaseURL,
		httpClient:     http.DefaultClient,
		catalogTimeout: defaultCatalogTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// StatusError is returned when the backend rejects a request.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return "backend: HTTP " + strconv.Itoa(e.StatusCode)
	}
	return fmt.Sprintf("backend: HTTP %d: %s", e.StatusCode, e.Detail)
}

// Open posts req to the streaming endpoint for its dialect and returns the
// event stream body once the backend has accepted it.
func (c *Client) Open(ctx context.Context, req floodchat.Request) (io.ReadCloser, error) {
	path, err := streamPath(req.Dialect())
	if err != nil {
		return nil, err
	}
	body, err := fcjson.MarshalRequest(req)
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	// A JSON body on a streaming endpoint is an error reported before the
	// stream could start.
	if isJSON(resp.Header.Get("Content-Type")) {
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("backend: %w", err)
		}
		return nil, &floodchat.ProtocolError{Message: fcjson.ErrorDetail(data)}
	}

	return resp.Body, nil
}

// Agents lists the agents the backend can run.
func (c *Client) Agents(ctx context.Context) (floodchat.AgentCatalog, error) {
	data, err := c.get(ctx, agentsPath)
	if err != nil {
		return floodchat.AgentCatalog{}, err
	}
	cat, err := fcjson.UnmarshalAgentCatalog(data)
	if err != nil {
		return floodchat.AgentCatalog{}, fmt.Errorf("backend: %w", err)
	}
	return cat, nil
}

// Providers lists the LLM providers the backend can route chat to.
func (c *Client) Providers(ctx context.Context) (floodchat.ProviderCatalog, error) {
	data, err := c.get(ctx, providersPath)
	if err != nil {
		return floodchat.ProviderCatalog{}, err
	}
	cat, err := fcjson.UnmarshalProviderCatalog(data)
	if err != nil {
		return floodchat.ProviderCatalog{}, fmt.Errorf("backend: %w", err)
	}
	return cat, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.catalogTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.catalogTimeout)
		defer cancel()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseHTTPError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	return data, nil
}

func (c *Client) authorize(r *http.Request) {
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func streamPath(d floodchat.Dialect) (string, error) {
	switch d {
	case floodchat.DialectPlain:
		return chatStreamPath, nil
	case floodchat.DialectAgent:
		return agentStreamPath, nil
	default:
		return "", fmt.Errorf("backend: unknown dialect %s: %w", d, floodchat.ErrValidation)
	}
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return &StatusError{StatusCode: resp.StatusCode, Detail: fcjson.ErrorDetail(body)}
}
