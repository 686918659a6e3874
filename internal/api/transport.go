package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single request made by HTTPTransport.
const DefaultTimeout = 30 * time.Second

// Response is the raw outcome of one HTTP exchange.
type Response struct {
	StatusCode int
	Reason     string
	Header     http.Header
	Body       []byte
}

// Transport performs exactly one HTTP request and returns the full response.
// Implementations must release any connection before returning.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f.
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPTransport sends requests with net/http over a fresh connection each
// time. Keep-alives are disabled so no connection outlives its request.
type HTTPTransport struct {
	BaseURL   string
	HTTP      *http.Client
	UserAgent string
}

// NewHTTPTransport returns a transport for host:port, using https when useTLS
// is set. A zero port selects 443 or 80.
func NewHTTPTransport(host string, port int, useTLS bool) *HTTPTransport {
	return &HTTPTransport{
		BaseURL: BaseURL(host, port, useTLS),
		HTTP: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: freshConnTransport(),
		},
	}
}

// freshConnTransport clones the default transport with keep-alives off and
// TLS 1.2 as the floor.
func freshConnTransport() *http.Transport {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	transport.DisableKeepAlives = true
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12
	return transport
}

// BaseURL renders scheme://host[:port].
func BaseURL(host string, port int, useTLS bool) string {
	scheme := "http"
	defaultPort := 80
	if useTLS {
		scheme = "https"
		defaultPort = 443
	}
	if port == 0 || port == defaultPort {
		return scheme + "://" + host
	}
	return scheme + "://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// Do implements Transport.
func (t *HTTPTransport) Do(ctx context.Context, r *Request) (*Response, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	target, err := url.Parse(t.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", t.BaseURL, err)
	}
	target.Path = strings.TrimSuffix(target.Path, "/") + r.Path
	target.RawPath = ""
	target.RawQuery = r.Query.Encode()

	req, err := http.NewRequestWithContext(ctx, r.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", MIMEJSON)
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}

	client := t.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// reasonPhrase extracts the reason from "404 Not Found".
func reasonPhrase(resp *http.Response) string {
	if _, reason, ok := strings.Cut(resp.Status, " "); ok {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}
