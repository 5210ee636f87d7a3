package cli

import (
	"os"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplay_MatchesSnapshot(t *testing.T) {
	path := scoredSnapshot(t)

	out, _, err := execute(t, "replay", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ replayed 17 commands: state matches snapshot (completed)")
}

func TestReplay_EditedSnapshot(t *testing.T) {
	path := scoredSnapshot(t)

	snap := readState(t, path)
	snap.BattingTeam.Score++
	snap.MatchID = "imported"
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, _, err := execute(t, "--format", "json", "replay", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeReplay, resp.Error.Code)
	assert.Equal(t, []any{"batting_team"}, resp.Error.Details)
}

func TestReplay_NoLog(t *testing.T) {
	path := writeFile(t, `{"match_status":"setup"}`)

	out, _, err := execute(t, "replay", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "snapshot has no command log")
}
