package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatsTable(t *testing.T) {
	clearPrecogEnv(t)

	stdout, _, err := runCLI(t, "formats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "application/x-json-stream")
	assert.Contains(t, stdout, "text/csv")
	assert.Contains(t, stdout, `delim=\t`)
}

func TestFormatsJSONListsAliases(t *testing.T) {
	clearPrecogEnv(t)

	stdout, _, err := runCLI(t, "formats", "--json")
	require.NoError(t, err)

	var infos []formatInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &infos))
	byName := map[string]formatInfo{}
	for _, info := range infos {
		byName[info.Name] = info
	}
	require.Contains(t, byName, "jsonstream")
	assert.Contains(t, byName["jsonstream"].Aliases, "ndjson")
	assert.Equal(t, ",", byName["csv"].Params["delim"])
}

func TestRenderParams(t *testing.T) {
	assert.Equal(t, "-", renderParams(nil))
	assert.Equal(t, `delim=\t escape=" quote="`, renderParams(map[string]string{"quote": `"`, "delim": "\t", "escape": `"`}))
}
