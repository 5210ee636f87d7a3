package scoring

import (
	"fmt"

	"github.com/crease/match-engine/internal/delivery"
	"github.com/crease/match-engine/internal/model"
	"github.com/crease/match-engine/internal/stats"
)

// effect is everything one delivery changes, resolved up front so the
// ball and wicket paths share a single update routine.
type effect struct {
	outcome    delivery.Outcome
	teamRuns   int
	batterRuns int
	bowlerRuns int
	legal      bool
	rotates    bool
	wicket     bool
	faced      bool
}

func effectOf(o delivery.Outcome) effect {
	return effect{
		outcome:    o,
		teamRuns:   o.TeamRuns(),
		batterRuns: o.BatterRuns(),
		bowlerRuns: o.BowlerRuns(),
		legal:      o.IsLegal(),
		rotates:    o.RotatesStrike(),
		faced:      o.IsLegal(),
	}
}

// wicketEffect is a legal dismissal ball on which runs were completed
// before the wicket fell (only possible for a run out).
func wicketEffect(runs int) effect {
	return effect{
		outcome:    delivery.Wicket(),
		teamRuns:   runs,
		batterRuns: runs,
		bowlerRuns: runs,
		legal:      true,
		rotates:    runs%2 == 1,
		wicket:     true,
		faced:      true,
	}
}

func recordBall(s *model.MatchState, o delivery.Outcome) (*model.MatchState, error) {
	if err := o.Validate(); err != nil {
		return nil, rejectRule(err)
	}
	if err := requireLive(s); err != nil {
		return nil, err
	}

	if o.IsWicket() {
		striker, ok := s.Striker()
		if !ok {
			return nil, reject(CodeInvalidPhase, ErrInvalidPhase, "no batter on strike")
		}
		return recordWicket(s, model.WicketInput{
			Dismissal: model.DismissalBowled,
			BatterID:  striker.ID,
			NewBatter: nextInLineup(s),
		})
	}

	next := s.Clone()
	applyDelivery(next, effectOf(o))
	checkInningsEnd(next)
	syncActive(next)
	return next, nil
}

// requireLive rejects deliveries outside an innings in progress or while
// a completed over is waiting for the next bowler.
func requireLive(s *model.MatchState) error {
	if s.Status != model.StatusInProgress {
		return reject(CodeInvalidPhase, ErrInvalidPhase, "match is %s", s.Status)
	}
	if overComplete(s) {
		return reject(CodeOverComplete, ErrOverComplete, "over %d is complete", s.BattingTeam.Overs)
	}
	return nil
}

// overComplete reports whether the sixth legal ball of the over has been
// bowled and no bowler change has happened since.
func overComplete(s *model.MatchState) bool {
	if s.BattingTeam.Balls != 0 {
		return false
	}
	for _, b := range s.CurrentOver {
		if b.Outcome.IsLegal() {
			return true
		}
	}
	return false
}

// applyDelivery updates score, over counters, batter, bowler and
// partnership for one ball, then rotates strike. It returns whether the
// ball completed an over.
func applyDelivery(s *model.MatchState, e effect) bool {
	team := &s.BattingTeam
	strikerIdx := strikerIndex(s)

	ball := model.Ball{
		Outcome:  e.outcome,
		Runs:     e.teamRuns,
		IsExtra:  e.outcome.IsExtra(),
		IsWicket: e.wicket,
		Over:     team.Overs,
		Ball:     team.Balls,
		Bowler:   s.CurrentBowler,
	}
	if e.legal {
		ball.Ball = team.Balls + 1
	}
	if strikerIdx >= 0 {
		ball.Batter = s.AllBatters[strikerIdx].Name
	}

	// Team.
	team.Score += e.teamRuns
	switch e.outcome.Kind {
	case delivery.KindWide:
		team.Extras.Wides += e.teamRuns
	case delivery.KindNoBall:
		team.Extras.NoBalls += e.teamRuns
	case delivery.KindLegBye:
		team.Extras.LegByes += e.teamRuns
	case delivery.KindBye:
		team.Extras.Byes += e.teamRuns
	}

	overDone := false
	if e.legal {
		team.Balls++
		if team.Balls == stats.BallsPerOver {
			team.Overs++
			team.Balls = 0
			overDone = true
		}
	}

	// Striker.
	if strikerIdx >= 0 {
		b := &s.AllBatters[strikerIdx]
		b.Runs += e.batterRuns
		if e.faced && (!e.wicket || s.Rules.WicketBallCountsAsFaced) {
			b.Balls++
		}
		if e.outcome.Kind == delivery.KindRuns {
			switch e.outcome.Runs {
			case 4:
				b.Fours++
			case 6:
				b.Sixes++
			}
		}
	}

	// Bowler.
	if i := bowlerIndex(s, s.CurrentBowler); i >= 0 {
		bw := &s.AllBowlers[i]
		if e.legal {
			bw.Balls++
			bw.Overs = bw.Balls / stats.BallsPerOver
		}
		bw.Runs += e.bowlerRuns
		switch e.outcome.Kind {
		case delivery.KindWide:
			bw.Wides++
		case delivery.KindNoBall:
			bw.NoBalls++
		}
		bw.Economy = stats.Economy(bw.Runs, bw.Balls)
	}

	// Partnership.
	s.CurrentPartnership.Runs += e.teamRuns
	if e.legal {
		s.CurrentPartnership.Balls++
	}

	s.CurrentOver = append(s.CurrentOver, ball)

	if e.rotates {
		swapStrike(s)
	}
	if overDone {
		swapStrike(s)
	}
	return overDone
}

// checkInningsEnd moves the match to innings_break or completed when the
// overs run out, the side is all out or the chase is won. A side left
// with one batter and nobody to send in is all out as well.
func checkInningsEnd(s *model.MatchState) {
	team := s.BattingTeam
	allOut := s.Rules.AllOut(len(team.Players))
	chased := !s.IsFirstInnings && team.Target > 0 && team.Score >= team.Target
	stranded := notOut(s) < 2 && nextInLineup(s) == ""

	if team.Overs < s.Details.TotalOvers && team.Wickets < allOut && !stranded && !chased {
		return
	}

	if s.IsFirstInnings {
		s.Status = model.StatusInningsBreak
		return
	}

	closeOver(s)
	s.Status = model.StatusCompleted
	result := matchResult(s, chased, allOut)
	s.Result = &result
}

func notOut(s *model.MatchState) int {
	n := 0
	for _, b := range s.AllBatters {
		if !b.IsOut {
			n++
		}
	}
	return n
}

func matchResult(s *model.MatchState, chased bool, allOut int) model.MatchResult {
	bat, bowl := s.BattingTeam, s.BowlingTeam

	if chased {
		margin := allOut - bat.Wickets
		return model.MatchResult{
			Winner:     bat.Name,
			Margin:     margin,
			MarginType: model.MarginWickets,
			Text:       fmt.Sprintf("%s won by %d %s", bat.Name, margin, plural(margin, "wicket")),
		}
	}

	margin := bat.Target - bat.Score - 1
	if margin == 0 {
		return model.MatchResult{
			MarginType: model.MarginTie,
			Text:       "Match tied",
		}
	}
	return model.MatchResult{
		Winner:     bowl.Name,
		Margin:     margin,
		MarginType: model.MarginRuns,
		Text:       fmt.Sprintf("%s won by %d %s", bowl.Name, margin, plural(margin, "run")),
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
