package api

import (
	"maps"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
)

// MIME types understood by the ingest service.
const (
	MIMEJSON       = "application/json"
	MIMEJSONStream = "application/x-json-stream"
	MIMECSV        = "text/csv"
)

// Defaults for delimited formats.
const (
	DefaultDelimiter = ","
	DefaultQuote     = `"`
	DefaultEscape    = `"`
)

// Format describes how an ingest payload is encoded on the wire. Values are
// immutable: accessors return copies.
type Format struct {
	name   string
	mime   string
	params map[string]string
}

// Well-known formats.
var (
	FormatJSON       = Format{name: "json", mime: MIMEJSON}
	FormatJSONStream = Format{name: "jsonstream", mime: MIMEJSONStream}
	FormatCSV        = namedCSV("csv", DefaultDelimiter)
	FormatTSV        = namedCSV("tsv", "\t")
	FormatSSV        = namedCSV("ssv", ";")
)

// MakeCSVLike returns a delimited-text format. Empty arguments take the CSV
// defaults. The MIME type is text/csv whatever the delimiter; the ingest
// service reads the delimiter from the query parameters.
func MakeCSVLike(delim, quote, escape string) Format {
	if delim == "" {
		delim = DefaultDelimiter
	}
	if quote == "" {
		quote = DefaultQuote
	}
	if escape == "" {
		escape = DefaultEscape
	}
	return Format{
		name: "csv",
		mime: MIMECSV,
		params: map[string]string{
			"delim":  delim,
			"quote":  quote,
			"escape": escape,
		},
	}
}

func namedCSV(name, delim string) Format {
	f := MakeCSVLike(delim, "", "")
	f.name = name
	return f
}

// Name returns the registry name of the format.
func (f Format) Name() string { return f.name }

// MIME returns the Content-Type sent with the payload.
func (f Format) MIME() string { return f.mime }

// Param returns a single format parameter.
func (f Format) Param(key string) string { return f.params[key] }

// Params returns a copy of the format parameters.
func (f Format) Params() map[string]string {
	return maps.Clone(f.params)
}

// IsZero reports whether f is the zero Format.
func (f Format) IsZero() bool { return f.mime == "" }

func (f Format) addTo(q url.Values) {
	for k, v := range f.params {
		q.Set(k, v)
	}
}

var formatAliases = map[string]Format{
	"json":            FormatJSON,
	MIMEJSON:          FormatJSON,
	"jsonstream":      FormatJSONStream,
	"json-stream":     FormatJSONStream,
	"ndjson":          FormatJSONStream,
	"jsonl":           FormatJSONStream,
	MIMEJSONStream:    FormatJSONStream,
	"csv":             FormatCSV,
	MIMECSV:           FormatCSV,
	"tsv":             FormatTSV,
	"ssv":             FormatSSV,
	"semicolon":       FormatSSV,
	"tab-separated":   FormatTSV,
	"comma-separated": FormatCSV,
}

// Formats returns the well-known formats in registry order.
func Formats() []Format {
	return []Format{FormatJSON, FormatJSONStream, FormatCSV, FormatTSV, FormatSSV}
}

// FormatNames returns every accepted format name and alias, sorted.
func FormatNames() []string {
	names := make([]string, 0, len(formatAliases))
	for k := range formatAliases {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LookupFormat resolves a format name, alias or MIME type.
func LookupFormat(name string) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if f, ok := formatAliases[key]; ok {
		return f, nil
	}
	err := newClientError(ErrInvalidInput, "unsupported format "+strconv.Quote(name))
	if s := suggestFormat(key); s != "" {
		err.Details = []string{"did you mean " + strconv.Quote(s) + "?"}
	}
	return Format{}, err
}

func suggestFormat(key string) string {
	if key == "" {
		return ""
	}
	matches := fuzzy.Find(key, FormatNames())
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

// FormatForFile guesses a format from a file name extension, falling back to JSON.
func FormatForFile(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return FormatCSV
	case strings.HasSuffix(lower, ".tsv"), strings.HasSuffix(lower, ".tab"):
		return FormatTSV
	case strings.HasSuffix(lower, ".ssv"):
		return FormatSSV
	case strings.HasSuffix(lower, ".jsonl"), strings.HasSuffix(lower, ".ndjson"):
		return FormatJSONStream
	default:
		return FormatJSON
	}
}
