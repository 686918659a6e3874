// Package dryrun previews API requests without sending them.
package dryrun

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/precog/precog-cli/internal/api"
)

type contextKey string

const dryRunKey contextKey = "dry_run_enabled"

// maxBodyPreview bounds how much of a payload is echoed back.
const maxBodyPreview = 512

// WithDryRun returns a context with dry-run mode enabled/disabled.
func WithDryRun(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, dryRunKey, enabled)
}

// IsEnabled returns true if dry-run mode is enabled.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(dryRunKey).(bool); ok {
		return v
	}
	return false
}

// Preview describes a request that would have been sent.
type Preview struct {
	Operation string              `json:"operation"`
	Method    string              `json:"method"`
	URL       string              `json:"url"`
	Params    map[string][]string `json:"params,omitempty"`
	Headers   map[string][]string `json:"headers,omitempty"`
	BodySize  int                 `json:"body_size"`
	Body      string              `json:"body,omitempty"`
	Warnings  []string            `json:"warnings,omitempty"`
}

// FromRequest builds a preview with credentials redacted. baseURL is
// prepended to the request path.
func FromRequest(baseURL string, req *api.Request) *Preview {
	r := req.Redacted()
	p := &Preview{
		Operation: r.Op.String(),
		Method:    r.Method,
		URL:       strings.TrimSuffix(baseURL, "/") + r.EscapedPath(),
		Params:    r.Query,
		Headers:   r.Header,
		BodySize:  len(req.Body),
	}
	if len(r.Body) > 0 {
		p.Body = previewBody(r.Body)
	}
	if r.Op == api.OpDelete {
		p.Warnings = append(p.Warnings, "deletes all data stored under "+r.Path)
	}
	return p
}

func previewBody(body []byte) string {
	if !utf8.Valid(body) {
		return fmt.Sprintf("<%d bytes of binary data>", len(body))
	}
	if len(body) <= maxBodyPreview {
		return string(body)
	}
	cut := maxBodyPreview
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut]) + fmt.Sprintf("... (%d more bytes)", len(body)-cut)
}

// Write outputs the preview to the writer
func (p *Preview) Write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "\n[DRY-RUN] Would %s: %s %s\n", p.Operation, p.Method, p.URL)
	_, _ = fmt.Fprintf(w, "───────────────────────────────────────\n")

	writeSorted(w, "Params", p.Params)
	writeSorted(w, "Headers", p.Headers)

	if p.BodySize > 0 {
		_, _ = fmt.Fprintf(w, "Body (%d bytes):\n  %s\n\n", p.BodySize, p.Body)
	}

	if len(p.Warnings) > 0 {
		_, _ = fmt.Fprintln(w, "Warnings:")
		for _, warning := range p.Warnings {
			_, _ = fmt.Fprintf(w, "  ! %s\n", warning)
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintf(w, "───────────────────────────────────────\n")
	_, _ = fmt.Fprintln(w, "No request sent (dry-run mode)")
}

func writeSorted(w io.Writer, title string, m map[string][]string) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	_, _ = fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "  %s: %s\n", k, strings.Join(m[k], ", "))
	}
	_, _ = fmt.Fprintln(w)
}
