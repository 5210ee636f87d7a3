package model

import (
	"github.com/crease/match-engine/internal/delivery"
	"github.com/crease/match-engine/internal/rules"
)

// CommandKind names an engine command.
type CommandKind string

const (
	CommandSetup          CommandKind = "setup"
	CommandOpeners        CommandKind = "openers"
	CommandBall           CommandKind = "ball"
	CommandWicket         CommandKind = "wicket"
	CommandChangeBowler   CommandKind = "change_bowler"
	CommandChangeBatter   CommandKind = "change_batter"
	CommandSecondInnings  CommandKind = "second_innings"
	CommandImpact         CommandKind = "impact_substitute"
	CommandUndo           CommandKind = "undo"
	CommandLoad           CommandKind = "load"
	CommandSetPreferences CommandKind = "set_preferences"
)

// TeamSetup describes one side at setup.
type TeamSetup struct {
	Name      string   `json:"name" yaml:"name"`
	ShortName string   `json:"short_name" yaml:"short_name"`
	Players   []string `json:"players" yaml:"players"`
}

// SetupData is the input to a new match.
type SetupData struct {
	TeamA        TeamSetup       `json:"team_a" yaml:"team_a"`
	TeamB        TeamSetup       `json:"team_b" yaml:"team_b"`
	Format       delivery.Format `json:"format" yaml:"format"`
	TossWinner   string          `json:"toss_winner" yaml:"toss_winner"`
	TossDecision TossDecision    `json:"toss_decision" yaml:"toss_decision"`
	Venue        string          `json:"venue,omitempty" yaml:"venue"`
	Date         string          `json:"date,omitempty" yaml:"date"`
	Time         string          `json:"time,omitempty" yaml:"time"`
	BallColor    string          `json:"ball_color,omitempty" yaml:"ball_color"`
	Rules        *rules.Rules    `json:"rules,omitempty" yaml:"rules"`
}

// Openers names the opening pair and bowler of an innings.
type Openers struct {
	Striker    string `json:"striker" yaml:"striker"`
	NonStriker string `json:"non_striker" yaml:"non_striker"`
	Bowler     string `json:"bowler" yaml:"bowler"`
}

// WicketInput describes a dismissal.
type WicketInput struct {
	Dismissal DismissalType `json:"dismissal" yaml:"dismissal"`
	BatterID  string        `json:"batter_id" yaml:"batter_id"`
	NewBatter string        `json:"new_batter,omitempty" yaml:"new_batter"`
	Fielder   string        `json:"fielder,omitempty" yaml:"fielder"`
	Runs      int           `json:"runs,omitempty" yaml:"runs"` // completed before a run out
}

// BatterChange retires or substitutes an active batter between deliveries.
type BatterChange struct {
	OutgoingID string        `json:"outgoing_id" yaml:"outgoing_id"`
	Incoming   string        `json:"incoming" yaml:"incoming"`
	Reason     DismissalType `json:"reason,omitempty" yaml:"reason"`
}

// Substitution swaps a roster player for an impact player.
type Substitution struct {
	Team     string `json:"team" yaml:"team"`
	Outgoing string `json:"outgoing" yaml:"outgoing"`
	Incoming string `json:"incoming" yaml:"incoming"`
}

// Command is one engine instruction. Exactly the payload matching Kind is
// set. Commands appended to MatchState.Log are never modified afterwards,
// so snapshots may share their payload pointers.
type Command struct {
	Kind         CommandKind       `json:"kind"`
	Setup        *SetupData        `json:"setup,omitempty"`
	Openers      *Openers          `json:"openers,omitempty"`
	Outcome      *delivery.Outcome `json:"outcome,omitempty"`
	Wicket       *WicketInput      `json:"wicket,omitempty"`
	Bowler       string            `json:"bowler,omitempty"`
	Batter       *BatterChange     `json:"batter,omitempty"`
	Substitution *Substitution     `json:"substitution,omitempty"`
	Snapshot     *MatchState       `json:"snapshot,omitempty"`
	Preferences  *Preferences      `json:"preferences,omitempty"`
}

// ProducesBall reports whether the command records a delivery.
func (c Command) ProducesBall() bool {
	return c.Kind == CommandBall || c.Kind == CommandWicket
}
