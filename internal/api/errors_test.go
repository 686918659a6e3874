package api

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientError_Error(t *testing.T) {
	assert.Equal(t, "empty payload", newClientError(ErrInvalidInput, "empty payload").Error())
	assert.Equal(t, "query reported errors: a; b",
		newClientError(ErrQueryFailed, "query reported errors", "a", "b").Error())
}

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ServiceError
		want string
	}{
		{
			name: "status with reason and body",
			err:  &ServiceError{Method: "GET", Path: "/analytics/v1/fs/1", StatusCode: 404, Reason: "Not Found", Body: "no such path"},
			want: "GET /analytics/v1/fs/1 returned non-success status 404 Not Found: no such path",
		},
		{
			name: "status only",
			err:  &ServiceError{Method: "DELETE", Path: "/ingest/v1/fs/1/x", StatusCode: 500},
			want: "DELETE /ingest/v1/fs/1/x returned non-success status 500",
		},
		{
			name: "transport failure",
			err:  &ServiceError{Method: "POST", Path: "/ingest/v1/fs/1/x", Err: errors.New("connection refused")},
			want: "POST /ingest/v1/fs/1/x failed: connection refused",
		},
		{
			name: "invalid body",
			err:  &ServiceError{Method: "GET", Path: "/q", StatusCode: 200, Err: errInvalidBody(errors.New("unexpected EOF"))},
			want: "GET /q returned an invalid response body (status 200): invalid response body: unexpected EOF",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestServiceError_TruncatesBody(t *testing.T) {
	err := &ServiceError{Method: "GET", Path: "/x", StatusCode: 500, Body: strings.Repeat("x", 2000)}
	assert.Less(t, len(err.Error()), 600)
	assert.True(t, strings.HasSuffix(err.Error(), "..."))
}

func TestServiceError_Unwrap(t *testing.T) {
	inner := errors.New("dial tcp: no such host")
	err := fmt.Errorf("search failed: %w", &ServiceError{Method: "GET", Path: "/accounts", Err: inner})
	assert.ErrorIs(t, err, inner)
	assert.True(t, IsTransportError(err))

	invalid := &ServiceError{StatusCode: 200, Err: errInvalidBody(errors.New("bad"))}
	assert.ErrorIs(t, invalid, ErrInvalidBody)
	assert.False(t, IsTransportError(invalid))
}

func TestErrorKindsAreDistinct(t *testing.T) {
	clientErr := fmt.Errorf("wrapped: %w", newClientError(ErrInvalidInput, "empty payload"))
	svcErr := fmt.Errorf("wrapped: %w", &ServiceError{StatusCode: 404})

	assert.True(t, IsClientError(clientErr))
	assert.False(t, IsServiceError(clientErr))
	assert.True(t, IsServiceError(svcErr))
	assert.False(t, IsClientError(svcErr))
	assert.False(t, IsClientError(errors.New("plain")))
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(&ServiceError{StatusCode: 404}))
	assert.False(t, IsNotFoundError(&ServiceError{StatusCode: 500}))
	assert.False(t, IsNotFoundError(newClientError(ErrNotFound, "missing")))
	assert.False(t, IsNotFoundError(nil))
}
