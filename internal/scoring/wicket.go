package scoring

import (
	"github.com/crease/match-engine/internal/delivery"
	"github.com/crease/match-engine/internal/model"
)

func recordWicket(s *model.MatchState, w model.WicketInput) (*model.MatchState, error) {
	if err := requireLive(s); err != nil {
		return nil, err
	}
	if w.Dismissal == "" {
		w.Dismissal = model.DismissalBowled
	}
	if !w.Dismissal.IsWicket() {
		return nil, reject(CodeInvalidDismissal, ErrInvalidDismissal, "%q is not a wicket", w.Dismissal)
	}
	if w.Runs < 0 || w.Runs > delivery.MaxRuns {
		return nil, reject(CodeInvalidOutcome, delivery.ErrInvalidOutcome, "completed runs %d out of range", w.Runs)
	}

	idx := batterIndex(s, w.BatterID)
	if idx < 0 || s.AllBatters[idx].IsOut {
		return s, nil
	}
	dismissed := s.AllBatters[idx]
	if !dismissed.IsOnStrike && w.Dismissal != model.DismissalRunOut {
		return nil, reject(CodeInvalidDismissal, ErrInvalidDismissal, "non-striker can only be run out")
	}
	if w.Runs > 0 && w.Dismissal != model.DismissalRunOut {
		return nil, reject(CodeInvalidDismissal, ErrInvalidDismissal, "runs can only be completed before a run out")
	}

	next := s.Clone()
	applyDelivery(next, wicketEffect(w.Runs))

	out := &next.AllBatters[idx]
	vacated := out.IsOnStrike
	out.IsOut = true
	out.IsOnStrike = false
	out.Dismissal = model.Dismissal{
		Type:    w.Dismissal,
		Fielder: delivery.NormalizeName(w.Fielder),
	}
	if w.Dismissal.CreditsBowler() {
		out.Dismissal.Bowler = next.CurrentBowler
		if i := bowlerIndex(next, next.CurrentBowler); i >= 0 {
			next.AllBowlers[i].Wickets++
		}
	}

	team := &next.BattingTeam
	team.Wickets++
	next.FallOfWickets = append(next.FallOfWickets, model.FallOfWicket{
		WicketNumber: team.Wickets,
		Score:        team.Score,
		Overs:        team.Overs,
		Balls:        team.Balls,
		BatterName:   dismissed.Name,
	})

	next.Partnerships = append(next.Partnerships, next.CurrentPartnership)
	next.CurrentPartnership = model.Partnership{Batter1: survivor(next)}

	checkInningsEnd(next)
	if next.Status == model.StatusInProgress {
		name := delivery.NormalizeName(w.NewBatter)
		revive, err := admissible(next, name)
		if err != nil {
			return nil, err
		}
		bringIn(next, name, revive, vacated)
		next.CurrentPartnership.Batter2 = name
	}

	syncActive(next)
	return next, nil
}

// survivor returns the batter left at the crease, if any.
func survivor(s *model.MatchState) string {
	for _, b := range s.AllBatters {
		if !b.IsOut {
			return b.Name
		}
	}
	return ""
}

func changeBatter(s *model.MatchState, c model.BatterChange) (*model.MatchState, error) {
	if s.Status != model.StatusInProgress {
		return nil, reject(CodeInvalidPhase, ErrInvalidPhase, "match is %s", s.Status)
	}
	if c.Reason == "" {
		c.Reason = model.DismissalRetiredHurt
	}
	if c.Reason != model.DismissalRetiredHurt && c.Reason != model.DismissalSubstituted {
		return nil, reject(CodeInvalidDismissal, ErrInvalidDismissal, "%q is not a retirement", c.Reason)
	}

	idx := batterIndex(s, c.OutgoingID)
	if idx < 0 || s.AllBatters[idx].IsOut {
		return s, nil
	}
	outgoing := s.AllBatters[idx].Name

	name := delivery.NormalizeName(c.Incoming)
	revive, err := admissible(s, name)
	if err != nil {
		return nil, err
	}

	next := s.Clone()
	out := &next.AllBatters[idx]
	onStrike := out.IsOnStrike
	out.IsOut = true
	out.IsOnStrike = false
	out.Dismissal = model.Dismissal{Type: c.Reason}
	bringIn(next, name, revive, onStrike)

	p := &next.CurrentPartnership
	switch outgoing {
	case p.Batter1:
		p.Batter1 = name
	case p.Batter2:
		p.Batter2 = name
	}

	syncActive(next)
	return next, nil
}
