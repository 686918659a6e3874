package cmd

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/precog/precog-cli/internal/update"
)

func TestVersionText(t *testing.T) {
	clearPrecogEnv(t)

	stdout, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "precog-cli version "+version+"\n", stdout)
}

func TestVersionJSON(t *testing.T) {
	clearPrecogEnv(t)

	stdout, _, err := runCLI(t, "version", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"`+version+`"}`, stdout)
}

func TestVersionReportsUpdate(t *testing.T) {
	clearPrecogEnv(t)
	_ = os.Unsetenv(update.EnvDisable)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tag_name":"v1.3.0","html_url":"https://example.com/releases/v1.3.0"}`))
	}))
	t.Cleanup(server.Close)

	origURL, origVersion := update.ReleasesURL, version
	update.ReleasesURL = server.URL
	version = "1.2.0"
	t.Cleanup(func() {
		update.ReleasesURL = origURL
		version = origVersion
	})

	stdout, stderr, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "precog-cli version 1.2.0\n", stdout)
	assert.Contains(t, stderr, "Update available: 1.2.0 -> 1.3.0")
	assert.Contains(t, stderr, "https://example.com/releases/v1.3.0")
}
