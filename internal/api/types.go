package api

import (
	"bytes"
	"encoding/json"
)

// Account is an account record as returned by the accounts service.
type Account struct {
	AccountID string       `json:"accountId"`
	Email     string       `json:"email,omitempty"`
	APIKey    string       `json:"apiKey,omitempty"`
	RootPath  string       `json:"rootPath,omitempty"`
	Created   string       `json:"accountCreationDate,omitempty"`
	Plan      *AccountPlan `json:"plan,omitempty"`
}

// AccountPlan is the billing plan attached to an account.
type AccountPlan struct {
	Type string `json:"type"`
}

// Receipt acknowledges an ingest call. A non-empty Errors list does not make
// the call fail; callers inspect it themselves.
type Receipt struct {
	Total    int       `json:"total,omitempty"`
	Ingested int       `json:"ingested"`
	Failed   int       `json:"failed,omitempty"`
	Skipped  int       `json:"skipped,omitempty"`
	Errors   []Message `json:"errors"`

	// Raw is the response body exactly as received.
	Raw json.RawMessage `json:"-"`
}

// QueryEnvelope is the detailed query response.
type QueryEnvelope struct {
	Data           []any     `json:"data"`
	Errors         []Message `json:"errors"`
	ServerErrors   []Message `json:"serverErrors"`
	Warnings       []Message `json:"warnings"`
	ServerWarnings []Message `json:"serverWarnings,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Message is a diagnostic reported by the platform. The service sends plain
// strings or structured objects; Text holds a readable form and the original
// JSON is kept so the value re-encodes unchanged.
type Message struct {
	Text string
	raw  json.RawMessage
}

// NewMessage returns a plain-string message.
func NewMessage(text string) Message {
	return Message{Text: text}
}

func (m Message) String() string { return m.Text }

// UnmarshalJSON implements json.Unmarshaler.
func (m *Message) UnmarshalJSON(b []byte) error {
	m.raw = append(json.RawMessage(nil), b...)

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		m.Text = s
		return nil
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &obj); err == nil && obj.Message != "" {
		m.Text = obj.Message
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return err
	}
	m.Text = buf.String()
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.raw) > 0 {
		return m.raw, nil
	}
	return json.Marshal(m.Text)
}

func messageTexts(ms []Message) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Text
	}
	return out
}
