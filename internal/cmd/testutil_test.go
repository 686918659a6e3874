// Test utilities for the precog CLI commands.
//
// Commands run against an httptest server through the PRECOG_* environment
// variables, with the keychain replaced by an in-memory keyring:
//
//	handler := newRouteHandler().
//	    On("GET", "/analytics/v1/fs/"+testAccount, jsonResponse(200, `{"data":[1]}`))
//	setupTestEnvWithHandler(t, handler)
//
//	stdout, _, err := runCLI(t, "query", "count(//x)")
package cmd

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/require"

	"github.com/precog/precog-cli/internal/config"
	"github.com/precog/precog-cli/internal/iocontext"
)

const (
	testAccount = "0000000042"
	testAPIKey  = "TEST-KEY-0000-1111"
)

// captureStdout executes a function and captures its stdout output.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// runCLI executes the root command with in-memory streams.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, "", args...)
}

func runCLIWithInput(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	ctx := iocontext.WithIO(context.Background(), &iocontext.IO{
		Out:    &out,
		ErrOut: &errOut,
		In:     strings.NewReader(stdin),
	})
	err := Execute(ctx, args)
	return out.String(), errOut.String(), err
}

// clearPrecogEnv unsets every PRECOG_* variable for the duration of the test.
func clearPrecogEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "PRECOG_") {
			t.Setenv(key, "")
			_ = os.Unsetenv(key)
		}
	}
	t.Setenv("PRECOG_NO_UPDATE_CHECK", "1")
	t.Setenv("PRECOG_NO_CACHE", "1")
	t.Setenv("PRECOG_OUTPUT", "text")
}

// withMockKeyring swaps the keychain for an in-memory keyring.
func withMockKeyring(t *testing.T) keyring.Keyring {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	restore := config.SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	})
	t.Cleanup(restore)
	return ring
}

// testEnv exposes the mock server.
type testEnv struct {
	server *httptest.Server
	host   string
	port   string
}

// setupTestEnvWithHandler starts a mock server and points the CLI at it:
//   - PRECOG_HOST/PRECOG_PORT target the server over plain HTTP
//   - PRECOG_API_KEY and PRECOG_ACCOUNT_ID are set to test values
//   - the keychain is an empty in-memory keyring
//   - caching and the update check are disabled
func setupTestEnvWithHandler(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()
	clearPrecogEnv(t)
	withMockKeyring(t)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)

	t.Setenv(config.EnvHost, host)
	t.Setenv(config.EnvPort, port)
	t.Setenv(config.EnvTLS, "false")
	t.Setenv(config.EnvAPIKey, testAPIKey)
	t.Setenv(config.EnvAccountID, testAccount)

	return &testEnv{server: server, host: host, port: port}
}

// jsonResponse creates an http.HandlerFunc that returns a JSON response with the given status and body.
func jsonResponse(statusCode int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}
}

// capturedRequest is a request seen by a routeHandler.
type capturedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
}

// routeHandler routes requests by exact "METHOD PATH" and records them.
// Unmatched requests get 404.
type routeHandler struct {
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []capturedRequest
}

func newRouteHandler() *routeHandler {
	return &routeHandler{routes: make(map[string]http.HandlerFunc)}
}

// On registers a handler for the given HTTP method and path.
func (rh *routeHandler) On(method, path string, handler http.HandlerFunc) *routeHandler {
	rh.routes[method+" "+path] = handler
	return rh
}

func (rh *routeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rh.mu.Lock()
	rh.requests = append(rh.requests, capturedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	handler, ok := rh.routes[r.Method+" "+r.URL.Path]
	rh.mu.Unlock()
	if ok {
		handler(w, r)
		return
	}
	http.NotFound(w, r)
}

// Requests returns a copy of every request received so far.
func (rh *routeHandler) Requests() []capturedRequest {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	return append([]capturedRequest(nil), rh.requests...)
}
