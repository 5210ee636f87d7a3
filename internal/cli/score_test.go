package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crease/match-engine/internal/model"
	"github.com/crease/match-engine/internal/scoring"
)

func TestScore_Text(t *testing.T) {
	out, _, err := execute(t, "score", "testdata/short_chase.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "Lions vs Tigers (T20)")
	assert.Contains(t, out, "at Lord's")
	assert.Contains(t, out, "Innings 1: Lions 15/2 (1.2 ov, RR 11.25)")
	assert.Contains(t, out, "Innings 2: Tigers 16/0 (0.3 ov, RR 32.00)")
	assert.Contains(t, out, "Tigers won by 2 wickets")
}

func TestScore_JSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "score", "testdata/short_chase.yaml")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Status  model.MatchStatus `json:"status"`
			Innings []struct {
				Team  string `json:"team"`
				Score int    `json:"score"`
			} `json:"innings"`
			Result *model.MatchResult `json:"result"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, model.StatusCompleted, resp.Data.Status)
	require.Len(t, resp.Data.Innings, 2)
	assert.Equal(t, "Lions", resp.Data.Innings[0].Team)
	assert.Equal(t, 15, resp.Data.Innings[0].Score)
	require.NotNil(t, resp.Data.Result)
	assert.Equal(t, "Tigers", resp.Data.Result.Winner)
	assert.Equal(t, model.MarginWickets, resp.Data.Result.MarginType)
}

func TestScore_ExpectedRejections(t *testing.T) {
	out, _, err := execute(t, "score", "testdata/rejections.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "status: in_progress")
	assert.Contains(t, out, "Innings 1: Lions 0/0 (1.0 ov, RR 0.00)")
}

func TestScore_ExpectationFailed(t *testing.T) {
	out, _, err := execute(t, "score", "testdata/wrong_expectation.yaml")
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [expectation_failed]")
	assert.Contains(t, out, "score: want 5, got 4")
}

func TestScore_StepFailed(t *testing.T) {
	out, _, err := execute(t, "score", "testdata/bad_step.yaml")
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [scenario_failed]: step 2")
}

func TestScore_UnknownAction(t *testing.T) {
	out, _, err := execute(t, "score", "testdata/unknown_action.yaml")
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [parse_failed]")
}

func TestScore_MissingFile(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "score", "testdata/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeRead, resp.Error.Code)
}

func TestScore_VerboseGoesToStderr(t *testing.T) {
	out, errOut, err := execute(t, "-v", "--format", "json", "score", "testdata/short_chase.yaml")
	require.NoError(t, err)

	assert.Contains(t, errOut, "second_innings")
	assert.NotContains(t, out, "second_innings")
}

func TestScore_WritesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.json")
	_, _, err := execute(t, "score", "testdata/short_chase.yaml", "--out", path)
	require.NoError(t, err)

	snap := readState(t, path)
	assert.Equal(t, model.StatusCompleted, snap.Status)
	assert.Len(t, snap.Log, 17)
	assert.Equal(t, model.CommandSetup, snap.Log[0].Kind)
}

func TestParseScenario_OneActionPerStep(t *testing.T) {
	_, err := ParseScenario([]byte(`
setup:
  team_a: {name: Lions, players: [Ash, Ben]}
  team_b: {name: Tigers, players: [Dev, Eli]}
  format: T20
  toss_winner: Lions
  toss_decision: bat
steps:
  - balls: "1"
    undo: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1: expected exactly one action, found 2")
}

func TestScenarioRun_ResolvesCreaseNames(t *testing.T) {
	sc, err := ParseScenario([]byte(`
setup:
  team_a: {name: Lions, players: [Ash, Ben, Cal, Dan]}
  team_b: {name: Tigers, players: [Dev, Eli]}
  format: T20
  toss_winner: Lions
  toss_decision: bat
steps:
  - openers: {striker: Ash, non_striker: Ben, bowler: Dev}
  - wicket: {dismissal: run_out, batter: Ben, new_batter: Cal, fielder: Eli, runs: 1}
  - batter: {outgoing: Ash, incoming: Dan, reason: retired_hurt}
  - wicket: {dismissal: bowled, batter: Zed, new_batter: Ash}
`))
	require.NoError(t, err)

	state, err := sc.Run(scoring.New())
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 4, stepErr.Step)
	assert.Contains(t, err.Error(), `"Zed" is not at the crease`)

	assert.Equal(t, 1, state.BattingTeam.Score)
	assert.Equal(t, 1, state.BattingTeam.Wickets)
	names := []string{}
	for _, b := range state.Batters {
		names = append(names, b.Name)
	}
	assert.ElementsMatch(t, []string{"Cal", "Dan"}, names)
}

func TestExpectationCheck(t *testing.T) {
	score, wickets := 20, 1
	e := &Expectation{
		Status:  model.StatusInProgress,
		Score:   &score,
		Wickets: &wickets,
		Overs:   "2.3",
		Result:  "Lions won by 5 runs",
	}

	s := model.NewMatchState()
	s.Status = model.StatusInProgress
	s.BattingTeam = model.Team{Name: "Lions", Score: 20, Wickets: 2, Overs: 2, Balls: 3}

	diffs := e.Check(s)
	assert.Equal(t, []string{
		"wickets: want 1, got 2",
		"result: want Lions won by 5 runs, got ",
	}, diffs)
}

func readState(t *testing.T, path string) *model.MatchState {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var s model.MatchState
	require.NoError(t, json.Unmarshal(data, &s))
	return &s
}
