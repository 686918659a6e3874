package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// SearchAccount looks up accounts by email. No match is not an error: the
// result is then an empty slice.
func (c *Client) SearchAccount(ctx context.Context, email string) ([]Account, error) {
	req, err := c.builder.SearchAccount(email)
	if err != nil {
		return nil, err
	}
	resp, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return []Account{}, nil
	}

	var raw json.RawMessage
	if _, err := classifyJSON(req, resp, &raw); err != nil {
		return nil, err
	}
	accounts, err := decodeAccounts(raw)
	if err != nil {
		return nil, &ServiceError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Reason:     resp.Reason,
			Body:       string(resp.Body),
			Err:        err,
		}
	}
	return accounts, nil
}

// decodeAccounts accepts a list, a single object or null.
func decodeAccounts(raw json.RawMessage) ([]Account, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []Account{}, nil
	}
	if raw[0] == '[' {
		var list []Account
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, errInvalidBody(err)
		}
		return nonEmptyAccounts(list), nil
	}
	var one Account
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, errInvalidBody(err)
	}
	return nonEmptyAccounts([]Account{one}), nil
}

func nonEmptyAccounts(list []Account) []Account {
	out := make([]Account, 0, len(list))
	for _, a := range list {
		if a.AccountID != "" {
			out = append(out, a)
		}
	}
	return out
}

// CreateAccount creates an account, or returns the existing account id when
// the email is already registered.
func (c *Client) CreateAccount(ctx context.Context, email, password string) (*Account, error) {
	req, err := c.builder.CreateAccount(email, password)
	if err != nil {
		return nil, err
	}
	var result Account
	if _, err := c.doJSON(ctx, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AccountDetails fetches an account, including its master API key, using
// Basic authentication.
func (c *Client) AccountDetails(ctx context.Context, email, password, accountID string) (*Account, error) {
	req, err := c.builder.AccountDetails(email, password, accountID)
	if err != nil {
		return nil, err
	}
	var result Account
	if _, err := c.doJSON(ctx, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
