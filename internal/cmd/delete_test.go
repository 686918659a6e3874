package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteRequiresForce(t *testing.T) {
	handler := newRouteHandler()
	setupTestEnvWithHandler(t, handler)

	_, _, err := runCLI(t, "delete", "/events")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force is required")
	assert.Empty(t, handler.Requests())
}

func TestDeleteWithForce(t *testing.T) {
	handler := newRouteHandler().
		On("DELETE", ingestPrefix+"/events", jsonResponse(200, ``))
	setupTestEnvWithHandler(t, handler)

	stdout, _, err := runCLI(t, "rm", "/events", "--yes")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deleted path: /events")

	reqs := handler.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, testAPIKey, reqs[0].Query.Get("apiKey"))
}

func TestDeleteQuiet(t *testing.T) {
	handler := newRouteHandler().
		On("DELETE", ingestPrefix+"/events", jsonResponse(200, ``))
	setupTestEnvWithHandler(t, handler)

	stdout, _, err := runCLI(t, "delete", "/events", "--force", "-q")
	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestDeleteNotFound(t *testing.T) {
	handler := newRouteHandler()
	setupTestEnvWithHandler(t, handler)

	_, _, err := runCLI(t, "delete", "/missing", "--force")
	require.Error(t, err)
	assert.Equal(t, exitNotFound, ExitCode(err))
}

func TestDeleteDryRun(t *testing.T) {
	handler := newRouteHandler()
	setupTestEnvWithHandler(t, handler)

	stdout, _, err := runCLI(t, "delete", "/events", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[DRY-RUN] Would delete: DELETE")
	assert.Contains(t, stdout, "deletes all data stored under")
	assert.Empty(t, handler.Requests())
}
