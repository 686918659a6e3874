package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/precog/precog-cli/internal/api"
	"github.com/precog/precog-cli/internal/config"
	"github.com/precog/precog-cli/internal/dryrun"
	"github.com/precog/precog-cli/internal/iocontext"
	"github.com/precog/precog-cli/internal/validation"
)

type clientFactory struct {
	cmd       *cobra.Command
	timeout   time.Duration
	userAgent string
}

func newClientFactory(cmd *cobra.Command) *clientFactory {
	return &clientFactory{
		cmd:       cmd,
		timeout:   flags.Timeout,
		userAgent: fmt.Sprintf("precog-cli/%s", version),
	}
}

// overrides collects the connection flags that were set explicitly.
func (f *clientFactory) overrides() config.Overrides {
	o := config.Overrides{
		Profile:   flags.Profile,
		Host:      flags.Host,
		Port:      flags.Port,
		APIKey:    flags.APIKey,
		AccountID: flags.AccountID,
		BasePath:  flags.BasePath,
	}
	if f.cmd != nil && flagOrAliasChanged(f.cmd, "tls") {
		useTLS := flags.TLS
		o.TLS = &useTLS
	}
	return o
}

func (f *clientFactory) config() (api.Config, error) {
	cfg, err := config.Resolve(f.overrides())
	if err != nil {
		return api.Config{}, err
	}
	if cfg.Host != "" {
		if err := validation.ValidateHost(cfg.Host); err != nil {
			return api.Config{}, err
		}
	}
	if cfg.Port != 0 {
		if err := validation.ValidatePort(cfg.Port); err != nil {
			return api.Config{}, err
		}
	}
	return cfg, nil
}

func (f *clientFactory) client() (*api.Client, error) {
	cfg, err := f.config()
	if err != nil {
		return nil, err
	}
	return f.newClient(cfg), nil
}

func (f *clientFactory) newClient(cfg api.Config) *api.Client {
	opts := []api.Option{
		api.WithTimeout(f.timeout),
		api.WithUserAgent(f.userAgent),
		api.WithLogger(slog.Default()),
	}
	client := api.New(cfg, opts...)
	if f.cmd != nil && dryrun.IsEnabled(f.cmd.Context()) {
		client = api.New(cfg, append(opts, api.WithTransport(f.previewTransport(client.BaseURL())))...)
	}
	return client
}

// previewTransport prints each request instead of sending it. Structured
// output modes get the preview as a document; text mode gets the listing.
func (f *clientFactory) previewTransport(baseURL string) api.Transport {
	cmd := f.cmd
	if !isStructured(cmd) {
		return dryrun.Transport(iocontext.GetIO(cmd.Context()).Out, baseURL)
	}
	return api.TransportFunc(func(_ context.Context, req *api.Request) (*api.Response, error) {
		if err := printOutput(cmd, dryrun.FromRequest(baseURL, req)); err != nil {
			return nil, err
		}
		return &api.Response{StatusCode: http.StatusAccepted, Header: http.Header{}}, nil
	})
}
