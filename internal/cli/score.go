package cli

import (
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/crease/match-engine/internal/model"
	"github.com/crease/match-engine/internal/scorecard"
	"github.com/crease/match-engine/internal/scoring"
	"github.com/crease/match-engine/internal/stats"
)

// ScoreOptions holds flags for the score command.
type ScoreOptions struct {
	*RootOptions
	Out string
}

// NewScoreCommand creates the score command.
func NewScoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "score <scenario.yaml>",
		Short: "Score a scripted match and print the scorecard",
		Long: `Score a match scripted in YAML through the scoring engine and print
its scorecard.

Each step is one scorer action (openers, balls, wicket, bowler, batter,
second_innings, substitute, undo). A step with expect_error must be
rejected with that code. An expect block is checked against the final
state.

Exit codes:
  0 - Scenario scored and all expectations held
  1 - A step failed or an expectation did not hold
  2 - Scenario file unreadable or malformed

Examples:
  scorer score final.yaml
  scorer score final.yaml --out final.json
  scorer score final.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "", "write the final match snapshot as JSON to this file")

	return cmd
}

func runScore(opts *ScoreOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	data, err := os.ReadFile(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeRead, err.Error(), nil)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeParse, err.Error(), nil)
	}

	eng := scoring.New()
	eng.Subscribe(func(next *model.MatchState, c model.Command) {
		team := next.BattingTeam
		f.VerboseLog("%-18s %s %d/%d (%s ov)", c.Kind, team.Name, team.Score, team.Wickets,
			stats.OversNotation(team.LegalBalls()))
	})

	state, err := sc.Run(eng)
	if err != nil {
		var details any
		if code := scoring.CodeOf(err); code != "" {
			details = map[string]string{"code": string(code)}
		}
		return f.Fail(ExitFailure, ErrCodeScenario, err.Error(), details)
	}

	if opts.Out != "" {
		out, err := json.MarshalIndent(state, "", "  ")
		if err == nil {
			err = os.WriteFile(opts.Out, out, 0o644)
		}
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeWrite, err.Error(), nil)
		}
		f.VerboseLog("wrote snapshot to %s", opts.Out)
	}

	if sc.Expect != nil {
		if diffs := sc.Expect.Check(state); len(diffs) > 0 {
			return f.Fail(ExitFailure, ErrCodeExpectation, "expectations not met: "+strings.Join(diffs, "; "), diffs)
		}
	}

	card := scorecard.Build(state)
	return f.Success(card, card.WriteText)
}

