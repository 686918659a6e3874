package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/precog/precog-cli/internal/api"
	"github.com/precog/precog-cli/internal/await"
	"github.com/precog/precog-cli/internal/config"
)

func TestHandleError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "client error",
			err:  &api.ClientError{Code: api.ErrQueryFailed, Message: "query reported errors", Details: []string{"undefined name foo"}},
			want: []string{"Error: query reported errors", "undefined name foo", "--detailed"},
		},
		{
			name: "unauthorized",
			err:  &api.ServiceError{Method: "GET", Path: "/analytics/v1/fs/x", StatusCode: 401, Reason: "Unauthorized"},
			want: []string{"API error (HTTP 401): Unauthorized", "precog auth login"},
		},
		{
			name: "not found with body",
			err:  &api.ServiceError{StatusCode: 404, Body: "no such path"},
			want: []string{"HTTP 404", "no such path", "--account-id"},
		},
		{
			name: "server",
			err:  &api.ServiceError{StatusCode: 502, Reason: "Bad Gateway"},
			want: []string{"HTTP 502", "try again later"},
		},
		{
			name: "invalid body",
			err:  &api.ServiceError{Method: "GET", Path: "/x", StatusCode: 200, Err: api.ErrInvalidBody},
			want: []string{"Invalid response from GET /x (HTTP 200)"},
		},
		{
			name: "connection refused",
			err:  &api.ServiceError{Method: "GET", Err: errors.New("dial tcp 127.0.0.1:1: connect: connection refused")},
			want: []string{"Connection refused.", "precog auth status"},
		},
		{
			name: "dns",
			err:  &api.ServiceError{Method: "GET", Err: errors.New("dial tcp: lookup nope: no such host")},
			want: []string{"DNS resolution failed."},
		},
		{
			name: "not configured",
			err:  config.ErrNotConfigured,
			want: []string{"precog auth login", "PRECOG_API_KEY"},
		},
		{
			name: "wait timeout",
			err:  &await.TimeoutError{Query: "count(//x)", Expected: []any{3.0}, Last: []any{1.0}, Attempts: 4},
			want: []string{"did not return", "--wait-timeout"},
		},
		{
			name: "generic",
			err:  errors.New("boom"),
			want: []string{"Error: boom"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := HandleError(tc.err)
			for _, w := range tc.want {
				assert.Contains(t, got, w)
			}
		})
	}
	assert.Empty(t, HandleError(nil))
}
