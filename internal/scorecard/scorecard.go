// Package scorecard turns a match snapshot into the figures a scoreboard
// shows: per-innings batting and bowling cards, rates, the chase equation
// and a plain-text rendering for terminals.
package scorecard

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/crease/match-engine/internal/model"
	"github.com/crease/match-engine/internal/stats"
)

// BatterLine is one row of a batting card.
type BatterLine struct {
	Name       string          `json:"name"`
	Status     string          `json:"status"`
	Runs       int             `json:"runs"`
	Balls      int             `json:"balls"`
	Fours      int             `json:"fours"`
	Sixes      int             `json:"sixes"`
	StrikeRate decimal.Decimal `json:"strike_rate"`
	OnStrike   bool            `json:"on_strike,omitempty"`
}

// BowlerLine is one row of a bowling card.
type BowlerLine struct {
	Name    string           `json:"name"`
	Overs   string           `json:"overs"`
	Maidens int              `json:"maidens"`
	Runs    int              `json:"runs"`
	Wickets int              `json:"wickets"`
	Wides   int              `json:"wides"`
	NoBalls int              `json:"no_balls"`
	Economy decimal.Decimal  `json:"economy"`
	// Average is runs conceded per wicket, absent until the first wicket.
	Average *decimal.Decimal `json:"average,omitempty"`
}

// Innings is the card for one side's innings.
type Innings struct {
	Number        int                 `json:"number"`
	Team          string              `json:"team"`
	Score         int                 `json:"score"`
	Wickets       int                 `json:"wickets"`
	Overs         string              `json:"overs"`
	RunRate       decimal.Decimal     `json:"run_rate"`
	Extras        model.Extras        `json:"extras"`
	ExtrasTotal   int                 `json:"extras_total"`
	Batters       []BatterLine        `json:"batters"`
	Bowlers       []BowlerLine        `json:"bowlers"`
	FallOfWickets []string            `json:"fall_of_wickets"`
	Partnerships  []model.Partnership `json:"partnerships"`
}

// Chase is the equation facing the side batting second.
type Chase struct {
	Target          int             `json:"target"`
	RunsNeeded      int             `json:"runs_needed"`
	BallsLeft       int             `json:"balls_left"`
	RequiredRunRate decimal.Decimal `json:"required_run_rate"`
}

// Card is the full scorecard of a match.
type Card struct {
	MatchID     string             `json:"match_id,omitempty"`
	Title       string             `json:"title"`
	Format      string             `json:"format"`
	Venue       string             `json:"venue,omitempty"`
	Status      model.MatchStatus  `json:"status"`
	Innings     []Innings          `json:"innings"`
	CurrentOver []string           `json:"current_over"`
	Bowler      string             `json:"current_bowler,omitempty"`
	Chase       *Chase             `json:"chase,omitempty"`
	Result      *model.MatchResult `json:"result,omitempty"`
}

// Build derives the scorecard of s. s is not modified.
func Build(s *model.MatchState) Card {
	c := Card{
		MatchID:     s.MatchID,
		Title:       model.Title(s),
		Format:      string(s.Details.Format),
		Venue:       s.Details.Venue,
		Status:      s.Status,
		Innings:     []Innings{},
		CurrentOver: []string{},
		Result:      s.Result,
	}
	if s.Status == model.StatusSetup {
		return c
	}

	if fi := s.FirstInnings; fi != nil {
		c.Innings = append(c.Innings, buildInnings(1, fi.BattingTeam, fi.Batters, fi.Bowlers, fi.FallOfWickets, fi.Partnerships))
	}

	partnerships := append([]model.Partnership(nil), s.Partnerships...)
	if s.CurrentPartnership.Batter1 != "" {
		partnerships = append(partnerships, s.CurrentPartnership)
	}
	cur := buildInnings(s.InningsNumber(), s.BattingTeam, s.AllBatters, s.AllBowlers, s.FallOfWickets, partnerships)
	for i := range cur.Batters {
		for _, b := range s.Batters {
			if b.Name == cur.Batters[i].Name && b.IsOnStrike && !b.IsOut {
				cur.Batters[i].OnStrike = true
			}
		}
	}
	c.Innings = append(c.Innings, cur)

	for _, b := range s.CurrentOver {
		c.CurrentOver = append(c.CurrentOver, b.Outcome.String())
	}
	c.Bowler = s.CurrentBowler

	if !s.IsFirstInnings && s.BattingTeam.Target > 0 && s.Status != model.StatusCompleted {
		needed := s.BattingTeam.Target - s.BattingTeam.Score
		left := s.Details.TotalOvers*stats.BallsPerOver - s.BattingTeam.LegalBalls()
		if left < 0 {
			left = 0
		}
		c.Chase = &Chase{
			Target:          s.BattingTeam.Target,
			RunsNeeded:      needed,
			BallsLeft:       left,
			RequiredRunRate: stats.RequiredRunRate(needed, left),
		}
	}
	return c
}

func buildInnings(n int, team model.Team, batters []model.Batter, bowlers []model.Bowler,
	fow []model.FallOfWicket, partnerships []model.Partnership) Innings {
	in := Innings{
		Number:        n,
		Team:          team.Name,
		Score:         team.Score,
		Wickets:       team.Wickets,
		Overs:         stats.OversNotation(team.LegalBalls()),
		RunRate:       stats.RunRate(team.Score, team.LegalBalls()),
		Extras:        team.Extras,
		ExtrasTotal:   team.Extras.Total(),
		Batters:       make([]BatterLine, 0, len(batters)),
		Bowlers:       make([]BowlerLine, 0, len(bowlers)),
		FallOfWickets: make([]string, 0, len(fow)),
		Partnerships:  partnerships,
	}
	if in.Partnerships == nil {
		in.Partnerships = []model.Partnership{}
	}

	for _, b := range batters {
		in.Batters = append(in.Batters, BatterLine{
			Name:       b.Name,
			Status:     DismissalText(b),
			Runs:       b.Runs,
			Balls:      b.Balls,
			Fours:      b.Fours,
			Sixes:      b.Sixes,
			StrikeRate: stats.StrikeRate(b.Runs, b.Balls),
		})
	}
	for _, b := range bowlers {
		line := BowlerLine{
			Name:    b.Name,
			Overs:   stats.OversNotation(b.Balls),
			Maidens: b.Maidens,
			Runs:    b.Runs,
			Wickets: b.Wickets,
			Wides:   b.Wides,
			NoBalls: b.NoBalls,
			Economy: stats.Economy(b.Runs, b.Balls),
		}
		if avg, ok := stats.Average(b.Runs, b.Wickets); ok {
			line.Average = &avg
		}
		in.Bowlers = append(in.Bowlers, line)
	}
	for _, f := range fow {
		in.FallOfWickets = append(in.FallOfWickets, fmt.Sprintf("%d-%d (%s, %s ov)",
			f.WicketNumber, f.Score, f.BatterName, stats.OversNotation(f.Overs*stats.BallsPerOver+f.Balls)))
	}
	return in
}

// DismissalText is the scorebook description of how b's innings stands.
func DismissalText(b model.Batter) string {
	if !b.IsOut {
		return "not out"
	}
	d := b.Dismissal
	switch d.Type {
	case model.DismissalBowled:
		return "b " + d.Bowler
	case model.DismissalCaught:
		if d.Fielder == "" {
			return "c ? b " + d.Bowler
		}
		if d.Fielder == d.Bowler {
			return "c & b " + d.Bowler
		}
		return "c " + d.Fielder + " b " + d.Bowler
	case model.DismissalLBW:
		return "lbw b " + d.Bowler
	case model.DismissalStumped:
		return "st " + d.Fielder + " b " + d.Bowler
	case model.DismissalHitWicket:
		return "hit wicket b " + d.Bowler
	case model.DismissalRunOut:
		if d.Fielder == "" {
			return "run out"
		}
		return "run out (" + d.Fielder + ")"
	case model.DismissalRetiredHurt:
		return "retired hurt"
	case model.DismissalSubstituted:
		return "substituted"
	}
	return string(d.Type)
}

// WriteText renders c as aligned plain-text tables.
func (c Card) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "%s (%s)\n", c.Title, c.Format)
	if c.Venue != "" {
		fmt.Fprintf(tw, "at %s\n", c.Venue)
	}
	fmt.Fprintf(tw, "status: %s\n", c.Status)

	for _, in := range c.Innings {
		fmt.Fprintf(tw, "\nInnings %d: %s %d/%d (%s ov, RR %s)\n",
			in.Number, in.Team, in.Score, in.Wickets, in.Overs, in.RunRate.StringFixed(2))

		fmt.Fprintln(tw, "Batter\t\tR\tB\t4s\t6s\tSR")
		for _, b := range in.Batters {
			name := b.Name
			if b.OnStrike {
				name += "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
				name, b.Status, b.Runs, b.Balls, b.Fours, b.Sixes, b.StrikeRate.StringFixed(2))
		}
		e := in.Extras
		fmt.Fprintf(tw, "Extras\t(wd %d, nb %d, lb %d, b %d)\t%d\n", e.Wides, e.NoBalls, e.LegByes, e.Byes, in.ExtrasTotal)

		if len(in.FallOfWickets) > 0 {
			fmt.Fprintf(tw, "FoW: %s\n", strings.Join(in.FallOfWickets, ", "))
		}

		fmt.Fprintln(tw, "\nBowler\tO\tM\tR\tW\tEcon\tAvg")
		for _, b := range in.Bowlers {
			avg := "-"
			if b.Average != nil {
				avg = b.Average.StringFixed(2)
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
				b.Name, b.Overs, b.Maidens, b.Runs, b.Wickets, b.Economy.StringFixed(2), avg)
		}
	}

	if len(c.CurrentOver) > 0 {
		fmt.Fprintf(tw, "\nThis over (%s): %s\n", c.Bowler, strings.Join(c.CurrentOver, " "))
	}
	if c.Chase != nil {
		fmt.Fprintf(tw, "\nNeed %d from %d balls (RRR %s)\n",
			c.Chase.RunsNeeded, c.Chase.BallsLeft, c.Chase.RequiredRunRate.StringFixed(2))
	}
	if c.Result != nil {
		fmt.Fprintf(tw, "\n%s\n", c.Result.Text)
	}
	return tw.Flush()
}
