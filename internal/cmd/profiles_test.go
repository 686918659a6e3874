package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/precog/precog-cli/internal/config"
)

func seedProfiles(t *testing.T) {
	t.Helper()
	clearPrecogEnv(t)
	withMockKeyring(t)
	require.NoError(t, config.SaveProfile("staging", config.Profile{
		Host: "staging.precog.com", Port: 443, UseTLS: true, APIKey: "STAGING-KEY-1234", AccountID: "0000000007",
	}))
	require.NoError(t, config.SaveProfile("default", config.Profile{
		APIKey: "DEFAULT-KEY-5678", AccountID: testAccount, Email: "alice@example.com",
	}))
}

func TestProfilesList(t *testing.T) {
	seedProfiles(t)

	stdout, _, err := runCLI(t, "profiles", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "PROFILE")
	assert.Contains(t, stdout, "staging.precog.com")
	assert.Contains(t, stdout, testAccount)
}

func TestProfilesListJSON(t *testing.T) {
	seedProfiles(t)

	stdout, _, err := runCLI(t, "profiles", "ls", "--json")
	require.NoError(t, err)

	var payload struct {
		Current  string   `json:"current"`
		Profiles []string `json:"profiles"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.Equal(t, "default", payload.Current)
	assert.ElementsMatch(t, []string{"default", "staging"}, payload.Profiles)
}

func TestProfilesListEmpty(t *testing.T) {
	clearPrecogEnv(t)
	withMockKeyring(t)

	stdout, _, err := runCLI(t, "profiles", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No profiles configured")
}

func TestProfilesUse(t *testing.T) {
	seedProfiles(t)

	stdout, _, err := runCLI(t, "profiles", "use", "staging")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Current profile: staging (staging.precog.com)")

	current, err := config.CurrentProfile()
	require.NoError(t, err)
	assert.Equal(t, "staging", current)
}

func TestProfilesUseSuggestsName(t *testing.T) {
	seedProfiles(t)

	_, _, err := runCLI(t, "profiles", "use", "stagin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `profile "stagin" not found`)
	assert.Contains(t, err.Error(), `Did you mean "staging"?`)
}

func TestProfilesShowMasksKey(t *testing.T) {
	seedProfiles(t)

	stdout, _, err := runCLI(t, "profiles", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Profile: default")
	assert.Contains(t, stdout, "Email: alice@example.com")
	assert.Contains(t, stdout, "API key: "+maskToken("DEFAULT-KEY-5678"))
	assert.NotContains(t, stdout, "DEFAULT-KEY-5678")
}

func TestProfilesShowNamed(t *testing.T) {
	seedProfiles(t)

	stdout, _, err := runCLI(t, "profiles", "show", "staging", "-o", "json")
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.Equal(t, "staging.precog.com", payload["host"])
	assert.Equal(t, true, payload["tls"])
}

func TestProfilesDelete(t *testing.T) {
	seedProfiles(t)

	stdout, _, err := runCLI(t, "profiles", "rm", "staging")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deleted profile: staging")

	names, err := config.ListProfiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, names)
}
