package config

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLayering(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t, keyring.NewArrayKeyring(nil))
	require.NoError(t, SaveProfile("work", Profile{
		Host:      "beta.precog.com",
		Port:      443,
		UseTLS:    true,
		APIKey:    "profile-key",
		AccountID: "0000000001",
	}))

	cfg, err := Resolve(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "beta.precog.com", cfg.Host)
	assert.Equal(t, "profile-key", cfg.APIKey)

	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvPort, "8080")
	t.Setenv(EnvTLS, "false")
	cfg, err = Resolve(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.UseTLS)
	assert.Equal(t, "0000000001", cfg.AccountID)

	on := true
	cfg, err = Resolve(Overrides{APIKey: "flag-key", Host: "localhost", Port: 9000, TLS: &on, BasePath: "/sandbox"})
	require.NoError(t, err)
	assert.Equal(t, "flag-key", cfg.APIKey)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.UseTLS)
	assert.Equal(t, "/sandbox", cfg.BasePath)
}

func TestResolveWithoutProfile(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t, keyring.NewArrayKeyring(nil))
	t.Setenv(EnvAPIKey, "env-key")

	cfg, err := Resolve(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
}

func TestResolveKeyringUnavailable(t *testing.T) {
	clearEnv(t)
	withFailingKeyring(t, errors.New("no keyring"))

	cfg, err := Resolve(Overrides{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.APIKey)

	_, err = Resolve(Overrides{Profile: "work"})
	assert.Error(t, err)
}

func TestResolveNamedProfileMissing(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t, keyring.NewArrayKeyring(nil))
	_, err := Resolve(Overrides{Profile: "ghost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `profile "ghost" not found`)
}

func TestResolveProfileFromEnv(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t, keyring.NewArrayKeyring(nil))
	require.NoError(t, SaveProfile("a", Profile{APIKey: "a-key"}))
	require.NoError(t, SaveProfile("b", Profile{APIKey: "b-key"}))

	t.Setenv(EnvProfile, "a")
	cfg, err := Resolve(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "a-key", cfg.APIKey)
}

func TestResolveInvalidEnv(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t, keyring.NewArrayKeyring(nil))

	t.Setenv(EnvPort, "http")
	_, err := Resolve(Overrides{})
	assert.ErrorContains(t, err, EnvPort)

	t.Setenv(EnvPort, "")
	t.Setenv(EnvTLS, "maybe")
	_, err = Resolve(Overrides{})
	assert.ErrorContains(t, err, EnvTLS)
}

func TestLoadProfileOrEnv(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t, keyring.NewArrayKeyring(nil))

	_, err := LoadProfileOrEnv()
	assert.ErrorIs(t, err, ErrNotConfigured)

	require.NoError(t, SaveProfile("default", Profile{APIKey: "stored"}))
	p, err := LoadProfileOrEnv()
	require.NoError(t, err)
	assert.Equal(t, "stored", p.APIKey)

	t.Setenv(EnvAPIKey, "env")
	t.Setenv(EnvAccountID, "42")
	p, err = LoadProfileOrEnv()
	require.NoError(t, err)
	assert.Equal(t, Profile{APIKey: "env", AccountID: "42"}, p)
}

func TestProfileClientConfig(t *testing.T) {
	p := Profile{Host: "h", Port: 1, UseTLS: true, APIKey: "k", AccountID: "a", BasePath: "/b", Email: "e"}
	cfg := p.ClientConfig()
	assert.Equal(t, "h", cfg.Host)
	assert.Equal(t, 1, cfg.Port)
	assert.True(t, cfg.UseTLS)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, "a", cfg.AccountID)
	assert.Equal(t, "/b", cfg.BasePath)
}

func TestResolveEnvIgnoresStoredProfile(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t, keyring.NewArrayKeyring(nil))
	require.NoError(t, SaveProfile("default", Profile{Host: "beta.precog.com", APIKey: "stale"}))
	t.Setenv(EnvHost, "localhost")

	cfg, err := ResolveEnv(Overrides{Port: 8080})
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Empty(t, cfg.APIKey)
}
