package scoring

import (
	"github.com/crease/match-engine/internal/delivery"
	"github.com/crease/match-engine/internal/model"
	"github.com/crease/match-engine/internal/stats"
)

func changeBowler(s *model.MatchState, name string) (*model.MatchState, error) {
	if s.Status != model.StatusInProgress {
		return nil, reject(CodeInvalidPhase, ErrInvalidPhase, "match is %s", s.Status)
	}
	name = delivery.NormalizeName(name)
	if name == "" {
		return nil, reject(CodeUnknownPlayer, ErrUnknownPlayer, "bowler name is empty")
	}
	if !s.BowlingTeam.HasPlayer(name) {
		return nil, reject(CodeUnknownPlayer, ErrUnknownPlayer, "%q is not in %s", name, s.BowlingTeam.Name)
	}

	figures, _ := s.Bowler(name)
	bowled := figures.Balls / stats.BallsPerOver

	if overComplete(s) {
		if err := s.Rules.CheckBowler(name, s.CurrentBowler, bowled); err != nil {
			return nil, rejectRule(err)
		}
	} else {
		if name == s.CurrentBowler {
			return nil, reject(CodeSameBowler, ErrSameBowler, "%q is already bowling", name)
		}
		if err := s.Rules.CheckBowler(name, previousOverBowler(s), bowled); err != nil {
			return nil, rejectRule(err)
		}
	}

	next := s.Clone()
	closeOver(next)
	ensureBowler(next, name)
	next.CurrentBowler = name
	return next, nil
}

// previousOverBowler returns who bowled the last completed over when no
// ball of the next one has been bowled yet. Mid-over it returns "", so a
// replacement bowler is held only to the quota.
func previousOverBowler(s *model.MatchState) string {
	if len(s.CurrentOver) > 0 || s.BattingTeam.Balls != 0 || len(s.Overs) == 0 {
		return ""
	}
	return s.Overs[len(s.Overs)-1].Bowler
}

// closeOver moves the balls of the current over into the over history,
// crediting a maiden to the bowler of a full six-ball over that conceded
// nothing chargeable.
func closeOver(s *model.MatchState) {
	if len(s.CurrentOver) == 0 {
		return
	}

	over := model.Over{
		Number: s.CurrentOver[0].Over + 1,
		Bowler: s.CurrentOver[0].Bowler,
		Balls:  s.CurrentOver,
	}
	legal, charged := 0, 0
	for _, b := range s.CurrentOver {
		over.Runs += b.Runs
		if b.IsWicket {
			over.Wickets++
			charged += b.Runs
		} else {
			charged += b.Outcome.BowlerRuns()
		}
		if b.Outcome.IsLegal() {
			legal++
		}
	}
	over.IsMaiden = legal == stats.BallsPerOver && charged == 0
	if over.IsMaiden {
		if i := bowlerIndex(s, over.Bowler); i >= 0 {
			s.AllBowlers[i].Maidens++
		}
	}

	s.Overs = append(s.Overs, over)
	s.CurrentOver = []model.Ball{}
}
