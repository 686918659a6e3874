package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/precog/precog-cli/internal/api"
)

const (
	EnvHost      = "PRECOG_HOST"
	EnvPort      = "PRECOG_PORT"
	EnvTLS       = "PRECOG_TLS"
	EnvAPIKey    = "PRECOG_API_KEY"
	EnvAccountID = "PRECOG_ACCOUNT_ID"
	EnvBasePath  = "PRECOG_BASE_PATH"
	EnvProfile   = "PRECOG_PROFILE"
)

// Overrides carries values given explicitly on the command line. Zero values
// mean "not set"; TLS is a pointer so false can be forced.
type Overrides struct {
	Profile   string
	Host      string
	Port      int
	TLS       *bool
	APIKey    string
	AccountID string
	BasePath  string
}

// ProfileName returns the profile that should be used: the explicit name,
// then PRECOG_PROFILE, then the stored current profile.
func ProfileName(explicit string) (string, error) {
	if name := strings.TrimSpace(explicit); name != "" {
		return name, nil
	}
	if name := strings.TrimSpace(os.Getenv(EnvProfile)); name != "" {
		return name, nil
	}
	return CurrentProfile()
}

// LoadProfileOrEnv returns connection details from the environment when
// PRECOG_API_KEY is set, otherwise from the active keyring profile.
func LoadProfileOrEnv() (Profile, error) {
	if strings.TrimSpace(os.Getenv(EnvAPIKey)) != "" {
		var p Profile
		if err := applyEnv(&p); err != nil {
			return Profile{}, err
		}
		return p, nil
	}
	name, err := ProfileName("")
	if err != nil {
		return Profile{}, err
	}
	return LoadProfile(name)
}

// Resolve layers the stored profile, then environment variables, then
// explicit overrides into a client configuration. A missing profile is only
// an error when one was named explicitly.
func Resolve(o Overrides) (api.Config, error) {
	var p Profile

	name, err := ProfileName(o.Profile)
	if err == nil {
		p, err = LoadProfile(name)
	}
	switch {
	case err == nil:
	case errors.Is(err, ErrNotConfigured) && o.Profile != "":
		return api.Config{}, fmt.Errorf("profile %q not found", o.Profile)
	case o.Profile != "":
		return api.Config{}, err
	default:
		// No usable keyring profile; env and flags may still supply everything.
		p = Profile{}
	}

	return layer(p, o)
}

// ResolveEnv is Resolve without any stored profile: only environment
// variables and explicit overrides apply. Login uses it so stale
// credentials never leak into a new profile.
func ResolveEnv(o Overrides) (api.Config, error) {
	return layer(Profile{}, o)
}

func layer(p Profile, o Overrides) (api.Config, error) {
	if err := applyEnv(&p); err != nil {
		return api.Config{}, err
	}
	applyOverrides(&p, o)
	return p.ClientConfig(), nil
}

// ClientConfig converts the profile into an api.Config.
func (p Profile) ClientConfig() api.Config {
	return api.Config{
		APIKey:    p.APIKey,
		AccountID: p.AccountID,
		BasePath:  p.BasePath,
		Host:      p.Host,
		Port:      p.Port,
		UseTLS:    p.UseTLS,
	}
}

func applyEnv(p *Profile) error {
	if v := strings.TrimSpace(os.Getenv(EnvHost)); v != "" {
		p.Host = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("%s must be a port number, got %q", EnvPort, v)
		}
		p.Port = port
	}
	if v := strings.TrimSpace(os.Getenv(EnvTLS)); v != "" {
		useTLS, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s must be a boolean, got %q", EnvTLS, v)
		}
		p.UseTLS = useTLS
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		p.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAccountID)); v != "" {
		p.AccountID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBasePath)); v != "" {
		p.BasePath = v
	}
	return nil
}

func applyOverrides(p *Profile, o Overrides) {
	if o.Host != "" {
		p.Host = o.Host
	}
	if o.Port != 0 {
		p.Port = o.Port
	}
	if o.TLS != nil {
		p.UseTLS = *o.TLS
	}
	if o.APIKey != "" {
		p.APIKey = o.APIKey
	}
	if o.AccountID != "" {
		p.AccountID = o.AccountID
	}
	if o.BasePath != "" {
		p.BasePath = o.BasePath
	}
}
