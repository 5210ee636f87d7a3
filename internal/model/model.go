// Package model defines the match state shared across the scoring engine,
// the store and the HTTP layer.
//
// A MatchState is an immutable snapshot: the engine never mutates one in
// place, it clones and returns a new value. Everything here must stay
// JSON-compatible because snapshots are persisted and broadcast as-is.
package model

import (
	"github.com/shopspring/decimal"

	"github.com/crease/match-engine/internal/delivery"
	"github.com/crease/match-engine/internal/rules"
)

// MatchStatus is the lifecycle stage of a match.
//
//	setup -> not_started -> in_progress -> innings_break
//	      -> not_started -> in_progress -> completed
type MatchStatus string

const (
	StatusSetup        MatchStatus = "setup"
	StatusNotStarted   MatchStatus = "not_started"
	StatusInProgress   MatchStatus = "in_progress"
	StatusInningsBreak MatchStatus = "innings_break"
	StatusCompleted    MatchStatus = "completed"
)

// Valid reports whether s is a known status.
func (s MatchStatus) Valid() bool {
	switch s {
	case StatusSetup, StatusNotStarted, StatusInProgress, StatusInningsBreak, StatusCompleted:
		return true
	}
	return false
}

// TossDecision is what the toss winner elected to do.
type TossDecision string

const (
	TossBat  TossDecision = "bat"
	TossBowl TossDecision = "bowl"
)

// DismissalType is how a batter's innings ended.
type DismissalType string

const (
	DismissalBowled      DismissalType = "bowled"
	DismissalCaught      DismissalType = "caught"
	DismissalLBW         DismissalType = "lbw"
	DismissalRunOut      DismissalType = "run_out"
	DismissalStumped     DismissalType = "stumped"
	DismissalHitWicket   DismissalType = "hit_wicket"
	DismissalRetiredHurt DismissalType = "retired_hurt"
	DismissalSubstituted DismissalType = "substituted"
)

var wicketDismissals = map[DismissalType]bool{
	DismissalBowled:    true,
	DismissalCaught:    true,
	DismissalLBW:       true,
	DismissalRunOut:    true,
	DismissalStumped:   true,
	DismissalHitWicket: true,
}

// IsWicket reports whether t is a dismissal recorded through a wicket
// delivery (as opposed to a retirement or substitution).
func (t DismissalType) IsWicket() bool { return wicketDismissals[t] }

// CreditsBowler reports whether the bowler is credited with the wicket.
func (t DismissalType) CreditsBowler() bool {
	return t.IsWicket() && t != DismissalRunOut
}

// MatchDetails is fixed at setup.
type MatchDetails struct {
	Format       delivery.Format `json:"format"`
	TotalOvers   int             `json:"total_overs"`
	TossWinner   string          `json:"toss_winner"`
	TossDecision TossDecision    `json:"toss_decision"`
	Venue        string          `json:"venue,omitempty"`
	Date         string          `json:"date,omitempty"`
	Time         string          `json:"time,omitempty"`
	BallColor    string          `json:"ball_color,omitempty"`
}

// Extras breaks down the runs not scored off the bat.
type Extras struct {
	Wides   int `json:"wides"`
	NoBalls int `json:"no_balls"`
	LegByes int `json:"leg_byes"`
	Byes    int `json:"byes"`
}

// Total returns the sum of all extras.
func (e Extras) Total() int { return e.Wides + e.NoBalls + e.LegByes + e.Byes }

// Team is one side with its live innings counters.
type Team struct {
	Name       string   `json:"name"`
	ShortName  string   `json:"short_name"`
	Players    []string `json:"players"`
	Score      int      `json:"score"`
	Wickets    int      `json:"wickets"`
	Overs      int      `json:"overs"`
	Balls      int      `json:"balls"` // legal deliveries in the current over, 0-5
	Target     int      `json:"target,omitempty"`
	Extras     Extras   `json:"extras"`
	ImpactUsed bool     `json:"impact_used,omitempty"`
}

// LegalBalls returns the total legal deliveries faced this innings.
func (t Team) LegalBalls() int { return t.Overs*6 + t.Balls }

// HasPlayer reports whether name is on the roster. An empty roster
// accepts anyone.
func (t Team) HasPlayer(name string) bool {
	if len(t.Players) == 0 {
		return true
	}
	for _, p := range t.Players {
		if p == name {
			return true
		}
	}
	return false
}

// Dismissal records how and to whom a batter got out.
type Dismissal struct {
	Type    DismissalType `json:"type"`
	Bowler  string        `json:"bowler,omitempty"`
	Fielder string        `json:"fielder,omitempty"`
}

// Batter is one batting appearance in an innings.
type Batter struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Runs       int       `json:"runs"`
	Balls      int       `json:"balls"`
	Fours      int       `json:"fours"`
	Sixes      int       `json:"sixes"`
	IsOnStrike bool      `json:"is_on_strike"`
	IsOut      bool      `json:"is_out"`
	Dismissal  Dismissal `json:"dismissal,omitzero"`
}

// Bowler accumulates one bowler's figures for an innings.
type Bowler struct {
	Name    string          `json:"name"`
	Overs   int             `json:"overs"` // completed overs, balls / 6
	Balls   int             `json:"balls"` // legal deliveries
	Runs    int             `json:"runs"`
	Wickets int             `json:"wickets"`
	Maidens int             `json:"maidens"`
	Wides   int             `json:"wides"`
	NoBalls int             `json:"no_balls"`
	Economy decimal.Decimal `json:"economy"`
}

// Ball is a single recorded delivery.
type Ball struct {
	Outcome  delivery.Outcome `json:"outcome"`
	Runs     int              `json:"runs"`
	IsExtra  bool             `json:"is_extra"`
	IsWicket bool             `json:"is_wicket"`
	Over     int              `json:"over"` // completed overs before this ball
	Ball     int              `json:"ball"` // legal ball index within the over, 1-6 (0 for an extra before the first legal ball)
	Bowler   string           `json:"bowler"`
	Batter   string           `json:"batter"`
}

// Over summarises a finished sequence of balls by one bowler.
type Over struct {
	Number   int    `json:"number"` // 1-based
	Bowler   string `json:"bowler"`
	Balls    []Ball `json:"balls"`
	Runs     int    `json:"runs"`
	Wickets  int    `json:"wickets"`
	IsMaiden bool   `json:"is_maiden"`
}

// FallOfWicket is the score snapshot at a dismissal.
type FallOfWicket struct {
	WicketNumber int    `json:"wicket_number"`
	Score        int    `json:"score"`
	Overs        int    `json:"overs"`
	Balls        int    `json:"balls"`
	BatterName   string `json:"batter_name"`
}

// Partnership is the runs and balls added by a pair of batters.
type Partnership struct {
	Batter1 string `json:"batter1"`
	Batter2 string `json:"batter2"`
	Runs    int    `json:"runs"`
	Balls   int    `json:"balls"`
}

// MarginType qualifies MatchResult.Margin.
type MarginType string

const (
	MarginRuns    MarginType = "runs"
	MarginWickets MarginType = "wickets"
	MarginTie     MarginType = "tie"
)

// MatchResult is set only once the match is completed.
type MatchResult struct {
	Winner     string     `json:"winner,omitempty"`
	Margin     int        `json:"margin"`
	MarginType MarginType `json:"margin_type"`
	Text       string     `json:"text"`
}

// InningsData is a frozen copy of a finished innings.
type InningsData struct {
	BattingTeam   Team           `json:"batting_team"`
	BowlingTeam   Team           `json:"bowling_team"`
	Batters       []Batter       `json:"batters"`
	Bowlers       []Bowler       `json:"bowlers"`
	Overs         []Over         `json:"overs"`
	FallOfWickets []FallOfWicket `json:"fall_of_wickets"`
	Partnerships  []Partnership  `json:"partnerships"`
}

// Preferences are client feedback toggles kept next to the match for
// convenience. The engine never acts on them.
type Preferences struct {
	Sound     bool `json:"sound"`
	Vibration bool `json:"vibration"`
}

// MatchState is the complete state of one match.
type MatchState struct {
	MatchID            string         `json:"match_id,omitempty"`
	Details            MatchDetails   `json:"match_details"`
	Rules              rules.Rules    `json:"rules"`
	BattingTeam        Team           `json:"batting_team"`
	BowlingTeam        Team           `json:"bowling_team"`
	Batters            []Batter       `json:"batters"`
	AllBatters         []Batter       `json:"all_batters"`
	CurrentBowler      string         `json:"current_bowler,omitempty"`
	AllBowlers         []Bowler       `json:"all_bowlers"`
	Overs              []Over         `json:"overs"`
	CurrentOver        []Ball         `json:"current_over"`
	FallOfWickets      []FallOfWicket `json:"fall_of_wickets"`
	Partnerships       []Partnership  `json:"partnerships"`
	CurrentPartnership Partnership    `json:"current_partnership"`
	IsFirstInnings     bool           `json:"is_first_innings"`
	Status             MatchStatus    `json:"match_status"`
	Result             *MatchResult   `json:"match_result,omitempty"`
	FirstInnings       *InningsData   `json:"first_innings_data,omitempty"`
	Preferences        Preferences    `json:"preferences"`
	Log                []Command      `json:"log"`
}

// NewMatchState returns the empty pre-setup state.
func NewMatchState() *MatchState {
	return &MatchState{Status: StatusSetup, IsFirstInnings: true}
}

// Striker returns the on-strike active batter.
func (s *MatchState) Striker() (Batter, bool) {
	for _, b := range s.Batters {
		if b.IsOnStrike && !b.IsOut {
			return b, true
		}
	}
	return Batter{}, false
}

// Bowler returns the named bowler's figures.
func (s *MatchState) Bowler(name string) (Bowler, bool) {
	for _, b := range s.AllBowlers {
		if b.Name == name {
			return b, true
		}
	}
	return Bowler{}, false
}

// InningsNumber returns 1 or 2.
func (s *MatchState) InningsNumber() int {
	if s.IsFirstInnings {
		return 1
	}
	return 2
}
