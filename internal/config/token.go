package config

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// TokenFields are the parts of a hosted-add-on connection token.
type TokenFields struct {
	User      string `json:"user"`
	Password  string `json:"password"`
	Host      string `json:"host"`
	AccountID string `json:"account_id"`
	APIKey    string `json:"api_key"`
	RootPath  string `json:"root_path"`
}

const tokenFieldCount = 6

// EncodeToken joins the fields with ':' and encodes them as URL-safe base64.
// Fields may not contain ':' since the format has no escaping.
func EncodeToken(f TokenFields) (string, error) {
	parts := []string{f.User, f.Password, f.Host, f.AccountID, f.APIKey, f.RootPath}
	for i, p := range parts {
		if strings.Contains(p, ":") {
			return "", fmt.Errorf("token field %d contains ':'", i+1)
		}
	}
	return base64.URLEncoding.EncodeToString([]byte(strings.Join(parts, ":"))), nil
}

// DecodeToken reverses EncodeToken.
func DecodeToken(token string) (TokenFields, error) {
	token = strings.TrimSpace(token)
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		// Tokens pasted without padding are common.
		raw, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
		if err != nil {
			return TokenFields{}, fmt.Errorf("invalid token encoding: %w", err)
		}
	}
	parts := strings.Split(string(raw), ":")
	if len(parts) != tokenFieldCount {
		return TokenFields{}, fmt.Errorf("invalid token: expected %d fields, got %d", tokenFieldCount, len(parts))
	}
	return TokenFields{
		User:      parts[0],
		Password:  parts[1],
		Host:      parts[2],
		AccountID: parts[3],
		APIKey:    parts[4],
		RootPath:  parts[5],
	}, nil
}

// Profile converts the token into a stored profile. Tokens always target
// the default HTTPS port.
func (f TokenFields) Profile() Profile {
	return Profile{
		Host:      f.Host,
		Port:      443,
		UseTLS:    true,
		APIKey:    f.APIKey,
		AccountID: f.AccountID,
		BasePath:  f.RootPath,
		Email:     f.User,
	}
}

// String renders the fields without secrets.
func (f TokenFields) String() string {
	return "user=" + f.User + " host=" + f.Host + " account=" + f.AccountID +
		" root=" + strconv.Quote(f.RootPath)
}
