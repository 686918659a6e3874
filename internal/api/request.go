package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strings"
)

// REST surface roots.
const (
	accountsRoot  = "/accounts/v1/accounts/"
	ingestRoot    = "/ingest/v1/fs"
	analyticsRoot = "/analytics/v1/fs"
)

// Operation identifies the kind of request being built.
type Operation int

const (
	OpSearchAccount Operation = iota + 1
	OpCreateAccount
	OpAccountDetails
	OpIngest
	OpDelete
	OpQuery
)

func (o Operation) String() string {
	switch o {
	case OpSearchAccount:
		return "search-account"
	case OpCreateAccount:
		return "create-account"
	case OpAccountDetails:
		return "account-details"
	case OpIngest:
		return "ingest"
	case OpDelete:
		return "delete"
	case OpQuery:
		return "query"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// IngestMode selects how the ingest service processes a payload.
type IngestMode string

const (
	ModeSync  IngestMode = "sync"
	ModeAsync IngestMode = "async"
	ModeBatch IngestMode = "batch"
)

// ParseIngestMode validates a mode string. Empty means batch.
func ParseIngestMode(s string) (IngestMode, error) {
	switch IngestMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeBatch:
		return ModeBatch, nil
	case ModeSync:
		return ModeSync, nil
	case ModeAsync:
		return ModeAsync, nil
	default:
		return "", newClientError(ErrInvalidInput, fmt.Sprintf("invalid ingest mode %q", s), "use sync, async or batch")
	}
}

// IngestOptions controls a single ingest request.
type IngestOptions struct {
	Mode    IngestMode
	Receipt bool
	// OwnerID ingests on behalf of another account.
	OwnerID string
}

// Request is a fully built HTTP request, ready for a Transport.
type Request struct {
	Op     Operation
	Method string
	Path   string
	Query  url.Values
	Body   []byte
	Header http.Header
}

// EscapedPath returns the path percent-encoded for the wire, so '#', '?',
// '%' and spaces stay inside the path.
func (r *Request) EscapedPath() string {
	return (&url.URL{Path: r.Path}).EscapedPath()
}

// RequestURI returns the escaped path and encoded query string.
func (r *Request) RequestURI() string {
	u := url.URL{Path: r.Path, RawQuery: r.Query.Encode()}
	return u.RequestURI()
}

// Redacted returns a copy with credentials masked, for previews and logs.
func (r *Request) Redacted() *Request {
	out := *r
	out.Query = maps.Clone(r.Query)
	if out.Query != nil && out.Query.Has("apiKey") {
		out.Query.Set("apiKey", "REDACTED")
	}
	out.Header = r.Header.Clone()
	if out.Header != nil && out.Header.Get("Authorization") != "" {
		out.Header.Set("Authorization", "REDACTED")
	}
	if r.Op == OpCreateAccount {
		out.Body = []byte(`{"email":"…","password":"REDACTED"}`)
	}
	return &out
}

// RequestBuilder turns operations into Requests. It holds no mutable state;
// every method allocates its own parameter maps.
type RequestBuilder struct {
	apiKey   string
	basePath string
}

// NewRequestBuilder returns a builder rooting filesystem paths at basePath.
func NewRequestBuilder(apiKey, basePath string) RequestBuilder {
	return RequestBuilder{apiKey: apiKey, basePath: basePath}
}

func (b RequestBuilder) params() url.Values {
	q := url.Values{}
	if b.apiKey != "" {
		q.Set("apiKey", b.apiKey)
	}
	return q
}

func (b RequestBuilder) requireKey(op Operation) error {
	if b.apiKey == "" {
		return newClientError(ErrInvalidInput, "missing API key", op.String()+" requires an API key")
	}
	return nil
}

// SearchAccount builds GET /accounts/v1/accounts/search?email=.
func (b RequestBuilder) SearchAccount(email string) (*Request, error) {
	if strings.TrimSpace(email) == "" {
		return nil, newClientError(ErrInvalidInput, "email is required")
	}
	q := b.params()
	q.Set("email", email)
	return &Request{
		Op:     OpSearchAccount,
		Method: http.MethodGet,
		Path:   JoinPath(accountsRoot, "search"),
		Query:  q,
		Header: http.Header{},
	}, nil
}

// CreateAccount builds POST /accounts/v1/accounts/ with a JSON body.
func (b RequestBuilder) CreateAccount(email, password string) (*Request, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, newClientError(ErrInvalidInput, "email and password are required")
	}
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal account body: %w", err)
	}
	h := http.Header{}
	h.Set("Content-Type", MIMEJSON)
	return &Request{
		Op:     OpCreateAccount,
		Method: http.MethodPost,
		Path:   accountsRoot,
		Query:  b.params(),
		Body:   body,
		Header: h,
	}, nil
}

// AccountDetails builds GET /accounts/v1/accounts/{id} with Basic auth.
func (b RequestBuilder) AccountDetails(email, password, accountID string) (*Request, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, newClientError(ErrInvalidInput, "account id is required")
	}
	h := http.Header{}
	h.Set("Authorization", BasicAuth(email, password))
	return &Request{
		Op:     OpAccountDetails,
		Method: http.MethodGet,
		Path:   JoinPath(accountsRoot, url.PathEscape(accountID)),
		Query:  b.params(),
		Header: h,
	}, nil
}

// Ingest builds POST /ingest/v1/fs/{basePath}/{path}.
func (b RequestBuilder) Ingest(path string, format Format, data []byte, opts IngestOptions) (*Request, error) {
	if len(data) == 0 {
		return nil, newClientError(ErrInvalidInput, "empty payload")
	}
	if format.IsZero() {
		return nil, newClientError(ErrInvalidInput, "unsupported format", "no format given")
	}
	if err := b.requireKey(OpIngest); err != nil {
		return nil, err
	}
	mode, err := ParseIngestMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}

	q := b.params()
	q.Set("mode", string(mode))
	if opts.Receipt {
		q.Set("receipt", "true")
	}
	if opts.OwnerID != "" {
		q.Set("ownerAccountId", opts.OwnerID)
	}
	format.addTo(q)

	h := http.Header{}
	h.Set("Content-Type", format.MIME())
	return &Request{
		Op:     OpIngest,
		Method: http.MethodPost,
		Path:   JoinPaths(ingestRoot, b.basePath, path),
		Query:  q,
		Body:   data,
		Header: h,
	}, nil
}

// Delete builds DELETE /ingest/v1/fs/{basePath}/{path}.
func (b RequestBuilder) Delete(path string) (*Request, error) {
	if err := b.requireKey(OpDelete); err != nil {
		return nil, err
	}
	return &Request{
		Op:     OpDelete,
		Method: http.MethodDelete,
		Path:   JoinPaths(ingestRoot, b.basePath, path),
		Query:  b.params(),
		Header: http.Header{},
	}, nil
}

// Query builds GET /analytics/v1/fs/{basePath}/{path}. The detailed envelope
// is always requested; summarising happens when the response is classified.
func (b RequestBuilder) Query(query, path string) (*Request, error) {
	if err := b.requireKey(OpQuery); err != nil {
		return nil, err
	}
	q := b.params()
	q.Set("q", query)
	q.Set("format", "detailed")
	return &Request{
		Op:     OpQuery,
		Method: http.MethodGet,
		Path:   JoinPaths(analyticsRoot, b.basePath, path),
		Query:  q,
		Header: http.Header{},
	}, nil
}

// BasicAuth returns an Authorization header value for email and password.
func BasicAuth(email, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(email+":"+password))
}
