package model

import "time"

// MatchRecord is a match as persisted by the store. List queries leave
// State nil.
type MatchRecord struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Status    MatchStatus `json:"status"`
	State     *MatchState `json:"state,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewMatchRecord wraps s for storage, deriving the listing fields.
func NewMatchRecord(s *MatchState, now time.Time) *MatchRecord {
	return &MatchRecord{
		ID:        s.MatchID,
		Title:     Title(s),
		Status:    s.Status,
		State:     s,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Title is the "Home vs Away" label of a match, in batting-first order.
func Title(s *MatchState) string {
	if s.FirstInnings != nil {
		return s.FirstInnings.BattingTeam.Name + " vs " + s.FirstInnings.BowlingTeam.Name
	}
	if s.BattingTeam.Name == "" {
		return ""
	}
	return s.BattingTeam.Name + " vs " + s.BowlingTeam.Name
}

// LedgerKind distinguishes delivery ledger rows.
type LedgerKind string

const (
	LedgerBall LedgerKind = "ball"
	LedgerUndo LedgerKind = "undo"
)

// DeliveryEntry is one immutable row of a match's ball-by-ball ledger.
// An undo is recorded as its own row rather than by deleting the ball.
type DeliveryEntry struct {
	ID         string     `json:"id"`
	MatchID    string     `json:"match_id"`
	Kind       LedgerKind `json:"kind"`
	Innings    int        `json:"innings"`
	Over       int        `json:"over"`
	Ball       int        `json:"ball"`
	Outcome    string     `json:"outcome,omitempty"`
	Runs       int        `json:"runs"`
	IsWicket   bool       `json:"is_wicket"`
	Bowler     string     `json:"bowler,omitempty"`
	Batter     string     `json:"batter,omitempty"`
	Score      int        `json:"score"`   // batting side total after the row
	Wickets    int        `json:"wickets"` // batting side wickets after the row
	RecordedAt time.Time  `json:"recorded_at"`
}
