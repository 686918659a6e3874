package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is a machine-readable classification of a client or service error.
type ErrorCode string

const (
	// ErrBadRequest indicates the platform rejected the request (HTTP 400).
	ErrBadRequest ErrorCode = "bad_request"
	// ErrUnauthorized indicates a missing or invalid API key or credentials (HTTP 401).
	ErrUnauthorized ErrorCode = "unauthorized"
	// ErrForbidden indicates the key lacks permission for the path (HTTP 403).
	ErrForbidden ErrorCode = "forbidden"
	// ErrNotFound indicates the account or path does not exist (HTTP 404).
	ErrNotFound ErrorCode = "not_found"
	// ErrServerError indicates an internal platform error (HTTP 5xx).
	ErrServerError ErrorCode = "server_error"
	// ErrInvalidResponse indicates a success status with an unparseable body.
	ErrInvalidResponse ErrorCode = "invalid_response"
	// ErrNetwork indicates the request never produced a response.
	ErrNetwork ErrorCode = "network"
	// ErrQueryFailed indicates the query envelope reported errors.
	ErrQueryFailed ErrorCode = "query_failed"
	// ErrInvalidInput indicates caller misuse detected before sending.
	ErrInvalidInput ErrorCode = "invalid_input"
	// ErrUnknown indicates an unclassified error.
	ErrUnknown ErrorCode = "unknown"
)

// Suggestion returns a human-readable hint for resolving this error.
func (c ErrorCode) Suggestion() string {
	switch c {
	case ErrUnauthorized:
		return "Run 'precog auth login' or pass --api-key"
	case ErrForbidden:
		return "Check that the API key grants access to this path"
	case ErrNotFound:
		return "Verify the account id and path"
	case ErrBadRequest, ErrInvalidInput:
		return "Check the request parameters"
	case ErrServerError:
		return "The platform encountered an error; try again later"
	case ErrInvalidResponse:
		return "The platform returned an unexpected body; rerun with --debug"
	case ErrNetwork:
		return "Check --host, --port and --tls, and your network connection"
	case ErrQueryFailed:
		return "Fix the Quirrel query; rerun with --detailed to see the full envelope"
	default:
		return ""
	}
}

// ErrorCodeFromStatus maps an HTTP status code to an ErrorCode.
func ErrorCodeFromStatus(statusCode int) ErrorCode {
	switch statusCode {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	default:
		if statusCode >= 500 && statusCode < 600 {
			return ErrServerError
		}
		return ErrUnknown
	}
}

// StructuredError is the JSON shape used to report errors to scripts.
type StructuredError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion,omitempty"`
	Details    []string       `json:"details,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
}

func (e *StructuredError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// MarshalJSON implements custom JSON marshaling.
func (e *StructuredError) MarshalJSON() ([]byte, error) {
	type alias StructuredError
	return json.Marshal((*alias)(e))
}

// StructuredErrorFromError classifies any error into a StructuredError.
func StructuredErrorFromError(err error) *StructuredError {
	if err == nil {
		return nil
	}

	var se *StructuredError
	if errors.As(err, &se) {
		return se
	}

	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		code := clientErr.Code
		if code == "" {
			code = ErrInvalidInput
		}
		return &StructuredError{
			Code:       code,
			Message:    clientErr.Message,
			Suggestion: code.Suggestion(),
			Details:    clientErr.Details,
		}
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		code := ErrorCodeFromStatus(svcErr.StatusCode)
		switch {
		case svcErr.StatusCode == 0 && svcErr.Err != nil:
			code = ErrNetwork
		case errors.Is(svcErr.Err, ErrInvalidBody):
			code = ErrInvalidResponse
		}
		ctx := map[string]any{}
		if svcErr.StatusCode != 0 {
			ctx["status_code"] = svcErr.StatusCode
		}
		if svcErr.Path != "" {
			ctx["path"] = svcErr.Path
		}
		return &StructuredError{
			Code:       code,
			Message:    svcErr.Error(),
			Suggestion: code.Suggestion(),
			Context:    ctx,
		}
	}

	return &StructuredError{
		Code:    ErrUnknown,
		Message: err.Error(),
	}
}
