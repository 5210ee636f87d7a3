package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scoredSnapshot scores the chase fixture and returns the snapshot path.
func scoredSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "final.json")
	_, _, err := execute(t, "score", "testdata/short_chase.yaml", "--out", path)
	require.NoError(t, err)
	return path
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidate_ScoredSnapshot(t *testing.T) {
	path := scoredSnapshot(t)

	out, _, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ snapshot valid: Lions vs Tigers (completed, 17 logged commands)")
}

func TestValidate_JSON(t *testing.T) {
	path := scoredSnapshot(t)

	out, _, err := execute(t, "--format", "json", "validate", path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 17, resp.Data.Commands)
}

func TestValidate_RejectedSnapshot(t *testing.T) {
	path := writeFile(t, `{"match_status":"abandoned"}`)

	out, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [invalid_snapshot]")
}

func TestValidate_NotJSON(t *testing.T) {
	path := writeFile(t, "not json")

	out, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [parse_failed]")
}

func TestValidate_RequiresPath(t *testing.T) {
	_, _, err := execute(t, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}
