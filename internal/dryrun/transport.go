package dryrun

import (
	"context"
	"io"
	"net/http"

	"github.com/precog/precog-cli/internal/api"
)

// Transport returns an api.Transport that writes a preview of every request
// to w and answers with an empty 202 Accepted, which the client treats as a
// successful call with no body.
func Transport(w io.Writer, baseURL string) api.Transport {
	return api.TransportFunc(func(_ context.Context, req *api.Request) (*api.Response, error) {
		FromRequest(baseURL, req).Write(w)
		return &api.Response{
			StatusCode: http.StatusAccepted,
			Reason:     http.StatusText(http.StatusAccepted),
			Header:     http.Header{},
		}, nil
	})
}
