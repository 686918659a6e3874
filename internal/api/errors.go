package api

import (
	"errors"
	"fmt"
	"strings"
)

// ClientError reports a request that was rejected for logical reasons: caller
// misuse (empty payload, unknown format) or errors the platform returned
// inside an otherwise successful query response.
type ClientError struct {
	Code    ErrorCode
	Message string
	Details []string
}

func (e *ClientError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Details, "; "))
}

// ServiceError reports a failed HTTP exchange: a status other than 200/202,
// a body that is not valid JSON, or a transport failure (Err set).
type ServiceError struct {
	Method     string
	Path       string
	StatusCode int
	Reason     string
	Body       string
	Err        error
}

func (e *ServiceError) Error() string {
	target := strings.TrimSpace(e.Method + " " + e.Path)
	switch {
	case e.Err != nil && e.StatusCode == 0:
		return fmt.Sprintf("%s failed: %v", target, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s returned an invalid response body (status %d): %v", target, e.StatusCode, e.Err)
	default:
		msg := fmt.Sprintf("%s returned non-success status %d", target, e.StatusCode)
		if e.Reason != "" {
			msg += " " + e.Reason
		}
		if body := strings.TrimSpace(e.Body); body != "" {
			msg += ": " + truncate(body, maxErrorBody)
		}
		return msg
	}
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// ErrInvalidBody is wrapped by ServiceError when a success response carries
// malformed JSON.
var ErrInvalidBody = errors.New("invalid response body")

const maxErrorBody = 512

func newClientError(code ErrorCode, message string, details ...string) *ClientError {
	return &ClientError{Code: code, Message: message, Details: details}
}

// IsClientError reports whether err is or wraps a *ClientError.
func IsClientError(err error) bool {
	var e *ClientError
	return errors.As(err, &e)
}

// IsServiceError reports whether err is or wraps a *ServiceError.
func IsServiceError(err error) bool {
	var e *ServiceError
	return errors.As(err, &e)
}

// IsNotFoundError reports whether err is a ServiceError with status 404.
func IsNotFoundError(err error) bool {
	var e *ServiceError
	return errors.As(err, &e) && e.StatusCode == 404
}

// IsTransportError reports whether err is a ServiceError raised before any
// response was received.
func IsTransportError(err error) bool {
	var e *ServiceError
	return errors.As(err, &e) && e.StatusCode == 0 && e.Err != nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func errInvalidBody(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidBody, err)
}
