package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crease/match-engine/internal/delivery"
	"github.com/crease/match-engine/internal/model"
	"github.com/crease/match-engine/internal/scoring"
	"github.com/crease/match-engine/internal/stats"
)

// Scenario is a scripted match: a setup, the commands a scorer would enter
// in order, and optionally the state the match should end in.
//
//	setup:
//	  team_a: {name: Lions, players: [Ash, Ben, Cal]}
//	  ...
//	steps:
//	  - openers: {striker: Ash, non_striker: Ben, bowler: Dev}
//	  - balls: "4 1 WD 0"
//	  - wicket: {dismissal: caught, batter: Ben, new_batter: Cal, fielder: Fin}
//	  - bowler: Eli
//	expect:
//	  score: 15
type Scenario struct {
	Name   string          `yaml:"name"`
	Setup  model.SetupData `yaml:"setup"`
	Steps  []Step          `yaml:"steps"`
	Expect *Expectation    `yaml:"expect"`
}

// Step is one scorer action. Exactly one action field is set. Balls holds
// space separated outcome tokens and expands to one command per token.
type Step struct {
	Openers       *model.Openers      `yaml:"openers"`
	Balls         string              `yaml:"balls"`
	Wicket        *WicketStep         `yaml:"wicket"`
	Bowler        string              `yaml:"bowler"`
	Batter        *BatterStep         `yaml:"batter"`
	SecondInnings bool                `yaml:"second_innings"`
	Substitute    *model.Substitution `yaml:"substitute"`
	Undo          bool                `yaml:"undo"`

	// ExpectError makes the step pass only if one of its commands is
	// rejected with this code.
	ExpectError scoring.Code `yaml:"expect_error"`
}

// WicketStep names the dismissed batter instead of using a batter ID.
type WicketStep struct {
	Dismissal model.DismissalType `yaml:"dismissal"`
	Batter    string              `yaml:"batter"`
	NewBatter string              `yaml:"new_batter"`
	Fielder   string              `yaml:"fielder"`
	Runs      int                 `yaml:"runs"`
}

// BatterStep retires or substitutes a batter at the crease by name.
type BatterStep struct {
	Outgoing string              `yaml:"outgoing"`
	Incoming string              `yaml:"incoming"`
	Reason   model.DismissalType `yaml:"reason"`
}

// Expectation is checked against the state after the last step. Only the
// fields that are set are compared.
type Expectation struct {
	Status  model.MatchStatus `yaml:"status"`
	Team    string            `yaml:"batting_team"`
	Score   *int              `yaml:"score"`
	Wickets *int              `yaml:"wickets"`
	Overs   string            `yaml:"overs"`
	Target  *int              `yaml:"target"`
	Result  string            `yaml:"result"`
}

// StepError reports which step of a scenario failed. Step 0 is the setup.
type StepError struct {
	Step int
	Err  error
}

func (e *StepError) Error() string {
	if e.Step == 0 {
		return fmt.Sprintf("setup: %v", e.Err)
	}
	return fmt.Sprintf("step %d: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ParseScenario decodes a YAML scenario. Unknown keys are rejected so a
// misspelt action does not silently become a no-op step.
func ParseScenario(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	for i, step := range sc.Steps {
		if n := step.actions(); n != 1 {
			return nil, fmt.Errorf("step %d: expected exactly one action, found %d", i+1, n)
		}
	}
	return &sc, nil
}

// Run scores the scenario on eng, which must be fresh. It returns the
// state reached, which is the state before the failing step on error.
func (sc *Scenario) Run(eng *scoring.Engine) (*model.MatchState, error) {
	if _, err := eng.SetupMatch(sc.Setup); err != nil {
		return eng.State(), &StepError{Step: 0, Err: err}
	}
	for i, step := range sc.Steps {
		if err := step.run(eng); err != nil {
			return eng.State(), &StepError{Step: i + 1, Err: err}
		}
	}
	return eng.State(), nil
}

func (st Step) actions() int {
	n := 0
	for _, set := range []bool{
		st.Openers != nil,
		strings.TrimSpace(st.Balls) != "",
		st.Wicket != nil,
		st.Bowler != "",
		st.Batter != nil,
		st.SecondInnings,
		st.Substitute != nil,
		st.Undo,
	} {
		if set {
			n++
		}
	}
	return n
}

func (st Step) run(eng *scoring.Engine) error {
	cmds, err := st.commands(eng.State())
	if err != nil {
		return err
	}
	for _, cmd := range cmds {
		if _, err := eng.Dispatch(cmd); err != nil {
			if st.ExpectError != "" && scoring.CodeOf(err) == st.ExpectError {
				return nil
			}
			return err
		}
	}
	if st.ExpectError != "" {
		return fmt.Errorf("expected %s rejection, but the step was accepted", st.ExpectError)
	}
	return nil
}

// commands translates the step into engine commands against s, resolving
// batter names to the IDs of the batters currently at the crease.
func (st Step) commands(s *model.MatchState) ([]model.Command, error) {
	switch {
	case st.Openers != nil:
		return []model.Command{{Kind: model.CommandOpeners, Openers: st.Openers}}, nil

	case st.Balls != "":
		var cmds []model.Command
		for _, token := range strings.Fields(st.Balls) {
			o, err := delivery.Parse(token)
			if err != nil {
				return nil, err
			}
			cmds = append(cmds, model.Command{Kind: model.CommandBall, Outcome: &o})
		}
		return cmds, nil

	case st.Wicket != nil:
		id, err := creaseID(s, st.Wicket.Batter)
		if err != nil {
			return nil, err
		}
		return []model.Command{{Kind: model.CommandWicket, Wicket: &model.WicketInput{
			Dismissal: st.Wicket.Dismissal,
			BatterID:  id,
			NewBatter: st.Wicket.NewBatter,
			Fielder:   st.Wicket.Fielder,
			Runs:      st.Wicket.Runs,
		}}}, nil

	case st.Bowler != "":
		return []model.Command{{Kind: model.CommandChangeBowler, Bowler: st.Bowler}}, nil

	case st.Batter != nil:
		id, err := creaseID(s, st.Batter.Outgoing)
		if err != nil {
			return nil, err
		}
		return []model.Command{{Kind: model.CommandChangeBatter, Batter: &model.BatterChange{
			OutgoingID: id,
			Incoming:   st.Batter.Incoming,
			Reason:     st.Batter.Reason,
		}}}, nil

	case st.SecondInnings:
		return []model.Command{{Kind: model.CommandSecondInnings}}, nil

	case st.Substitute != nil:
		return []model.Command{{Kind: model.CommandImpact, Substitution: st.Substitute}}, nil

	case st.Undo:
		return []model.Command{{Kind: model.CommandUndo}}, nil
	}
	return nil, errors.New("step has no action")
}

func creaseID(s *model.MatchState, name string) (string, error) {
	name = delivery.NormalizeName(name)
	for _, b := range s.Batters {
		if b.Name == name {
			return b.ID, nil
		}
	}
	return "", fmt.Errorf("%q is not at the crease", name)
}

// Check compares s against the expectation and returns one line per
// mismatch.
func (e *Expectation) Check(s *model.MatchState) []string {
	var diffs []string
	mismatch := func(field string, want, got any) {
		diffs = append(diffs, fmt.Sprintf("%s: want %v, got %v", field, want, got))
	}

	team := s.BattingTeam
	if e.Status != "" && e.Status != s.Status {
		mismatch("status", e.Status, s.Status)
	}
	if e.Team != "" && e.Team != team.Name {
		mismatch("batting_team", e.Team, team.Name)
	}
	if e.Score != nil && *e.Score != team.Score {
		mismatch("score", *e.Score, team.Score)
	}
	if e.Wickets != nil && *e.Wickets != team.Wickets {
		mismatch("wickets", *e.Wickets, team.Wickets)
	}
	if overs := stats.OversNotation(team.LegalBalls()); e.Overs != "" && e.Overs != overs {
		mismatch("overs", e.Overs, overs)
	}
	if e.Target != nil && *e.Target != team.Target {
		mismatch("target", *e.Target, team.Target)
	}
	if e.Result != "" {
		got := ""
		if s.Result != nil {
			got = s.Result.Text
		}
		if e.Result != got {
			mismatch("result", e.Result, got)
		}
	}
	return diffs
}
