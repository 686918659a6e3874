package api

import (
	"context"
	"encoding/json"
)

// Query evaluates a Quirrel query rooted at path and returns its data. Errors
// reported in the envelope fail the call with a *ClientError; warnings are
// logged and otherwise ignored.
func (c *Client) Query(ctx context.Context, query, path string) ([]any, error) {
	env, err := c.QueryDetailed(ctx, query, path)
	if err != nil {
		return nil, err
	}
	return summarizeQuery(env, c.warn(ctx, path))
}

// QueryDetailed evaluates a query and returns the full envelope without
// escalating its errors.
func (c *Client) QueryDetailed(ctx context.Context, query, path string) (*QueryEnvelope, error) {
	req, err := c.builder.Query(query, path)
	if err != nil {
		return nil, err
	}
	resp, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	var env QueryEnvelope
	decoded, err := classifyJSON(req, resp, &env)
	if err != nil {
		return nil, err
	}
	if decoded {
		env.Raw = append(json.RawMessage(nil), resp.Body...)
	}
	return &env, nil
}
