package api

import (
	"bytes"
	"encoding/json"
	"net/http"
)

func isSuccess(status int) bool {
	return status == http.StatusOK || status == http.StatusAccepted
}

// checkStatus fails with a ServiceError unless the status is 200 or 202.
func checkStatus(req *Request, resp *Response) error {
	if isSuccess(resp.StatusCode) {
		return nil
	}
	return &ServiceError{
		Method:     req.Method,
		Path:       req.Path,
		StatusCode: resp.StatusCode,
		Reason:     resp.Reason,
		Body:       string(resp.Body),
	}
}

// classifyJSON checks the status and decodes a non-empty body into out. It
// reports whether anything was decoded.
func classifyJSON(req *Request, resp *Response, out any) (bool, error) {
	if err := checkStatus(req, resp); err != nil {
		return false, err
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return false, &ServiceError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Reason:     resp.Reason,
			Body:       string(resp.Body),
			Err:        errInvalidBody(err),
		}
	}
	return true, nil
}

// classifyEmpty checks the status of a response whose body is ignored.
func classifyEmpty(req *Request, resp *Response) error {
	return checkStatus(req, resp)
}

// summarizeQuery applies the non-detailed policy: envelope errors first,
// then server errors, otherwise warnings go to warn and data is returned.
func summarizeQuery(env *QueryEnvelope, warn func(Message)) ([]any, error) {
	if len(env.Errors) > 0 {
		return nil, newClientError(ErrQueryFailed, "query reported errors", messageTexts(env.Errors)...)
	}
	if len(env.ServerErrors) > 0 {
		return nil, newClientError(ErrQueryFailed, "server reported errors", messageTexts(env.ServerErrors)...)
	}
	if warn != nil {
		for _, w := range env.Warnings {
			warn(w)
		}
	}
	if env.Data == nil {
		return []any{}, nil
	}
	return env.Data, nil
}
