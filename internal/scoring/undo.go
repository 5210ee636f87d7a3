package scoring

import (
	"slices"

	"github.com/crease/match-engine/internal/model"
)

// undoLastBall rebuilds the match from its log without the most recent
// delivery. Only a ball in the over still being bowled, or the ball that
// finished the match, can be undone.
func undoLastBall(s *model.MatchState) (*model.MatchState, error) {
	if len(s.CurrentOver) == 0 && s.Status != model.StatusCompleted {
		return nil, reject(CodeNothingToUndo, ErrNothingToUndo, "current over is empty")
	}

	last := -1
	for i := len(s.Log) - 1; i >= 0; i-- {
		if s.Log[i].ProducesBall() {
			last = i
			break
		}
	}
	if last < 0 {
		return nil, reject(CodeNothingToUndo, ErrNothingToUndo, "no recorded delivery in the match log")
	}

	log := slices.Delete(slices.Clone(s.Log), last, last+1)
	next, err := Replay(log)
	if err != nil {
		return nil, err
	}
	next.MatchID = s.MatchID
	next.Preferences = s.Preferences
	return next, nil
}

// Replay rebuilds a match by applying log in order to an empty state.
// Commands that the rebuilt state rejects are skipped, which is how
// commands that depended on an undone delivery fall away.
func Replay(log []model.Command) (*model.MatchState, error) {
	if len(log) == 0 || log[0].Kind != model.CommandSetup {
		return nil, reject(CodeInvalidSnapshot, ErrInvalidSnapshot, "log does not start with setup")
	}

	s := model.NewMatchState()
	for _, cmd := range log {
		next, err := Apply(s, cmd)
		if err != nil {
			if IsRejection(err) {
				continue
			}
			return nil, err
		}
		s = next
	}
	return s, nil
}
