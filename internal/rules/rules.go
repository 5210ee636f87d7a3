// Package rules holds the configurable rule set the scoring engine applies.
//
// Local cricket varies: some leagues allow an impact player to be swapped in
// early, some let a retired-hurt batter come back, street games play with
// six a side. Rather than hard-coding one variant the engine takes a Rules
// value, built from the match format and optionally overridden from YAML.
package rules

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crease/match-engine/internal/delivery"
)

var (
	// ErrConsecutiveOvers is returned when a bowler would bowl two overs
	// in a row.
	ErrConsecutiveOvers = errors.New("rules: bowler cannot bowl consecutive overs")

	// ErrBowlerQuotaExceeded is returned when a bowler has already bowled
	// the maximum overs allowed by the format.
	ErrBowlerQuotaExceeded = errors.New("rules: bowler has no overs left")

	// ErrImpactWindowClosed is returned when an impact substitution is
	// attempted after the cutoff over or when impact players are disabled.
	ErrImpactWindowClosed = errors.New("rules: impact substitution not allowed")
)

// DefaultAllOutWickets is the dismissal count that ends an innings with
// eleven players.
const DefaultAllOutWickets = 10

// Rules is the capability object consulted by the engine.
type Rules struct {
	// AllOutWickets ends the innings once this many batters are out. It is
	// capped by the batting roster size minus one.
	AllOutWickets int `yaml:"all_out_wickets" json:"all_out_wickets"`

	// NoConsecutiveOvers forbids the same bowler taking back-to-back overs.
	NoConsecutiveOvers bool `yaml:"no_consecutive_overs" json:"no_consecutive_overs"`

	// MaxOversPerBowler caps each bowler's overs in an innings. Zero means
	// unlimited.
	MaxOversPerBowler int `yaml:"max_overs_per_bowler" json:"max_overs_per_bowler"`

	// WicketBallCountsAsFaced credits the dismissed striker with the ball.
	WicketBallCountsAsFaced bool `yaml:"wicket_ball_counts_as_faced" json:"wicket_ball_counts_as_faced"`

	// AllowRetiredHurtReturn lets a retired-hurt batter resume the innings.
	AllowRetiredHurtReturn bool `yaml:"allow_retired_hurt_return" json:"allow_retired_hurt_return"`

	// ImpactPlayerCutoffOver is the last over (exclusive) before which an
	// impact substitution may be made. Zero disables impact players.
	ImpactPlayerCutoffOver int `yaml:"impact_player_cutoff_over" json:"impact_player_cutoff_over"`
}

// Canonical returns the full rule set for a format: engine-enforced bowler
// constraints, retired-hurt return, and impact players in T20.
func Canonical(f delivery.Format) Rules {
	r := Rules{
		AllOutWickets:           DefaultAllOutWickets,
		NoConsecutiveOvers:      true,
		MaxOversPerBowler:       f.BowlerQuota(),
		WicketBallCountsAsFaced: true,
		AllowRetiredHurtReturn:  true,
	}
	if f == delivery.FormatT20 {
		r.ImpactPlayerCutoffOver = 14
	}
	return r
}

// Reference returns the simpler rule set: no quota, no impact players, and
// the dismissed batter is not charged the wicket ball.
func Reference(f delivery.Format) Rules {
	return Rules{
		AllOutWickets:      DefaultAllOutWickets,
		NoConsecutiveOvers: true,
	}
}

// Load reads YAML overrides from path on top of Canonical(f). Keys missing
// from the file keep their canonical value.
func Load(path string, f delivery.Format) (Rules, error) {
	r := Canonical(f)
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if r.AllOutWickets < 1 {
		return r, fmt.Errorf("parse rules file %s: all_out_wickets must be positive", path)
	}
	return r, nil
}

// AllOut returns the dismissal count that ends an innings for a side with
// rosterSize players. An empty roster falls back to AllOutWickets.
func (r Rules) AllOut(rosterSize int) int {
	limit := r.AllOutWickets
	if limit < 1 {
		limit = DefaultAllOutWickets
	}
	if rosterSize >= 2 && rosterSize-1 < limit {
		return rosterSize - 1
	}
	return limit
}

// CheckBowler validates whether next may take the coming over.
//
// Parameters:
//   - next: bowler chosen for the over
//   - previous: bowler of the over just completed ("" at innings start)
//   - oversBowled: completed overs next already has this innings
//
// Returns nil if the change is allowed.
func (r Rules) CheckBowler(next, previous string, oversBowled int) error {
	// 1. Back-to-back overs.
	if r.NoConsecutiveOvers && previous != "" && next == previous {
		return ErrConsecutiveOvers
	}

	// 2. Format quota.
	if r.MaxOversPerBowler > 0 && oversBowled >= r.MaxOversPerBowler {
		return ErrBowlerQuotaExceeded
	}

	return nil
}

// CheckImpactSubstitution validates an impact substitution made when
// completedOvers overs of the innings have been bowled.
func (r Rules) CheckImpactSubstitution(completedOvers int) error {
	if r.ImpactPlayerCutoffOver <= 0 || completedOvers >= r.ImpactPlayerCutoffOver {
		return ErrImpactWindowClosed
	}
	return nil
}
