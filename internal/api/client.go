package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/precog/precog-cli/internal/debug"
)

// Defaults used when a Config leaves fields empty.
const (
	DefaultHost = "api.precog.io"
	DefaultPort = 443
)

// Config holds the connection settings of one Client.
type Config struct {
	APIKey    string
	AccountID string
	// BasePath roots every ingest, delete and query path. Defaults to AccountID.
	BasePath string
	Host     string
	Port     int
	UseTLS   bool
}

func (c Config) withDefaults() Config {
	if c.BasePath == "" {
		c.BasePath = c.AccountID
	}
	if c.Host == "" {
		c.Host = DefaultHost
		if c.Port == 0 {
			c.Port = DefaultPort
		}
	}
	if c.Port == 443 {
		c.UseTLS = true
	}
	return c
}

// Client is the Precog API client. Each call builds one request, sends it
// over its own connection and classifies the response; nothing is retried or
// cached, and a Client is safe for concurrent use.
type Client struct {
	cfg       Config
	builder   RequestBuilder
	transport Transport
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithHTTPClient sends requests of the default transport through a copy of
// hc. A nil hc.Transport is replaced with one that opens a fresh connection
// per request. It has no effect once WithTransport installed another
// Transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		t, ok := c.transport.(*HTTPTransport)
		if !ok || hc == nil {
			return
		}
		clone := *hc
		if clone.Transport == nil {
			clone.Transport = freshConnTransport()
		}
		t.HTTP = &clone
	}
}

// WithTimeout bounds each request made by the default transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if t, ok := c.transport.(*HTTPTransport); ok && t.HTTP != nil && d > 0 {
			t.HTTP.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header of the default transport.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if t, ok := c.transport.(*HTTPTransport); ok {
			t.UserAgent = ua
		}
	}
}

// WithLogger sets the logger receiving query warnings and debug traces.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for cfg.
func New(cfg Config, opts ...Option) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		cfg:       cfg,
		builder:   NewRequestBuilder(cfg.APIKey, cfg.BasePath),
		transport: NewHTTPTransport(cfg.Host, cfg.Port, cfg.UseTLS),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Builder returns the request builder bound to this client's key and base path.
func (c *Client) Builder() RequestBuilder {
	return c.builder
}

// BaseURL returns scheme://host[:port] for this client.
func (c *Client) BaseURL() string {
	return BaseURL(c.cfg.Host, c.cfg.Port, c.cfg.UseTLS)
}

// Send executes a built request and returns the raw response. Transport
// failures come back as a *ServiceError; the status is not inspected.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		if debug.IsEnabled(ctx) {
			c.logger.Debug("request failed", "op", req.Op, "method", req.Method, "path", req.Path, "error", err)
		}
		return nil, &ServiceError{Method: req.Method, Path: req.Path, Err: err}
	}
	if debug.IsEnabled(ctx) {
		c.logger.Debug("request complete", "op", req.Op, "method", req.Method, "path", req.Path,
			"status", resp.StatusCode, "bytes", len(resp.Body), "duration", time.Since(start))
	}
	return resp, nil
}

// doJSON sends req and decodes the classified body into out.
func (c *Client) doJSON(ctx context.Context, req *Request, out any) (bool, error) {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return false, err
	}
	return classifyJSON(req, resp, out)
}

func (c *Client) warn(ctx context.Context, path string) func(Message) {
	return func(m Message) {
		c.logger.WarnContext(ctx, "query warning", "path", path, "warning", m.Text)
	}
}
