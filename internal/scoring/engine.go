// Package scoring is the ball-by-ball cricket scoring engine.
//
// Every operation is a pure function from a MatchState snapshot and a
// command to a new snapshot: the input is never modified, and on error
// no new state is produced. Engine wraps the functions with a current
// state, a mutex and change listeners for callers that want a single
// live match.
package scoring

import (
	"sync"

	"github.com/crease/match-engine/internal/delivery"
	"github.com/crease/match-engine/internal/model"
)

// logged reports whether successful commands of kind k are kept in the
// match log for replay.
func logged(k model.CommandKind) bool {
	switch k {
	case model.CommandUndo, model.CommandLoad, model.CommandSetPreferences:
		return false
	}
	return true
}

// Apply executes cmd against s and returns the resulting state. A nil s
// is treated as a fresh, not yet set up match. When the command changes
// nothing (for example it names a batter who is not at the crease) s
// itself is returned.
func Apply(s *model.MatchState, cmd model.Command) (*model.MatchState, error) {
	if s == nil {
		s = model.NewMatchState()
	}

	var (
		next *model.MatchState
		err  error
	)
	switch cmd.Kind {
	case model.CommandSetup:
		if cmd.Setup == nil {
			return nil, reject(CodeInvalidSetup, ErrInvalidSetup, "setup payload missing")
		}
		next, err = setupMatch(s, *cmd.Setup)
	case model.CommandOpeners:
		if cmd.Openers == nil {
			return nil, reject(CodeUnknownPlayer, ErrUnknownPlayer, "openers payload missing")
		}
		next, err = selectOpeners(s, *cmd.Openers)
	case model.CommandBall:
		if cmd.Outcome == nil {
			return nil, reject(CodeInvalidOutcome, delivery.ErrInvalidOutcome, "outcome missing")
		}
		next, err = recordBall(s, *cmd.Outcome)
	case model.CommandWicket:
		if cmd.Wicket == nil {
			return nil, reject(CodeInvalidDismissal, ErrInvalidDismissal, "wicket payload missing")
		}
		next, err = recordWicket(s, *cmd.Wicket)
	case model.CommandChangeBowler:
		next, err = changeBowler(s, cmd.Bowler)
	case model.CommandChangeBatter:
		if cmd.Batter == nil {
			return nil, reject(CodeNewBatterRequired, ErrNewBatterRequired, "batter payload missing")
		}
		next, err = changeBatter(s, *cmd.Batter)
	case model.CommandSecondInnings:
		next, err = startSecondInnings(s)
	case model.CommandImpact:
		if cmd.Substitution == nil {
			return nil, reject(CodeUnknownPlayer, ErrUnknownPlayer, "substitution payload missing")
		}
		next, err = impactSubstitute(s, *cmd.Substitution)
	case model.CommandUndo:
		next, err = undoLastBall(s)
	case model.CommandLoad:
		next, err = loadMatch(cmd.Snapshot)
	case model.CommandSetPreferences:
		if cmd.Preferences == nil {
			return s, nil
		}
		next = setPreferences(s, *cmd.Preferences)
	default:
		return nil, reject(CodeUnknownCommand, ErrUnknownCommand, "%q", cmd.Kind)
	}
	if err != nil {
		return nil, err
	}
	if next == s {
		return s, nil
	}
	if logged(cmd.Kind) {
		next.Log = append(next.Log, cmd)
	}
	return next, nil
}

// SetupMatch starts a new match, discarding everything in s except the
// match ID and preferences.
func SetupMatch(s *model.MatchState, data model.SetupData) (*model.MatchState, error) {
	return Apply(s, model.Command{Kind: model.CommandSetup, Setup: &data})
}

// SelectOpeningPlayers puts the opening pair at the crease and starts the
// innings.
func SelectOpeningPlayers(s *model.MatchState, striker, nonStriker, bowler string) (*model.MatchState, error) {
	return Apply(s, model.Command{Kind: model.CommandOpeners, Openers: &model.Openers{
		Striker:    striker,
		NonStriker: nonStriker,
		Bowler:     bowler,
	}})
}

// RecordBall scores one delivery. A wicket outcome dismisses the striker
// bowled and sends in the next unused player on the roster.
func RecordBall(s *model.MatchState, o delivery.Outcome) (*model.MatchState, error) {
	return Apply(s, model.Command{Kind: model.CommandBall, Outcome: &o})
}

// RecordWicket scores a dismissal delivery.
func RecordWicket(s *model.MatchState, w model.WicketInput) (*model.MatchState, error) {
	return Apply(s, model.Command{Kind: model.CommandWicket, Wicket: &w})
}

// ChangeBowler sets the bowler for the next delivery, closing the current
// over.
func ChangeBowler(s *model.MatchState, name string) (*model.MatchState, error) {
	return Apply(s, model.Command{Kind: model.CommandChangeBowler, Bowler: name})
}

// ChangeBatter retires or substitutes a batter at the crease.
func ChangeBatter(s *model.MatchState, c model.BatterChange) (*model.MatchState, error) {
	return Apply(s, model.Command{Kind: model.CommandChangeBatter, Batter: &c})
}

// StartSecondInnings freezes the first innings and swaps the sides.
func StartSecondInnings(s *model.MatchState) (*model.MatchState, error) {
	return Apply(s, model.Command{Kind: model.CommandSecondInnings})
}

// ImpactSubstitute replaces a roster player with an impact player.
func ImpactSubstitute(s *model.MatchState, sub model.Substitution) (*model.MatchState, error) {
	return Apply(s, model.Command{Kind: model.CommandImpact, Substitution: &sub})
}

// UndoLastBall removes the most recent delivery of the current over.
func UndoLastBall(s *model.MatchState) (*model.MatchState, error) {
	return Apply(s, model.Command{Kind: model.CommandUndo})
}

// LoadMatch validates a persisted snapshot and returns an independent
// copy of it.
func LoadMatch(snapshot *model.MatchState) (*model.MatchState, error) {
	return Apply(nil, model.Command{Kind: model.CommandLoad, Snapshot: snapshot})
}

// SetPreferences replaces the client feedback toggles.
func SetPreferences(s *model.MatchState, p model.Preferences) (*model.MatchState, error) {
	return Apply(s, model.Command{Kind: model.CommandSetPreferences, Preferences: &p})
}

// Listener is notified after every state change. It runs with the
// engine lock held and must not call back into the engine.
type Listener func(next *model.MatchState, cmd model.Command)

type subscription struct {
	id int
	fn Listener
}

// Engine holds the live state of one match.
type Engine struct {
	mu        sync.Mutex
	state     *model.MatchState
	listeners []subscription
	nextID    int
}

// New returns an engine with an empty, not yet set up match.
func New() *Engine {
	return &Engine{state: model.NewMatchState()}
}

// NewFrom returns an engine resumed from s. s must already be valid, see
// LoadMatch.
func NewFrom(s *model.MatchState) *Engine {
	return &Engine{state: s}
}

// State returns the current snapshot. Callers must treat it as read-only.
func (e *Engine) State() *model.MatchState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Subscribe registers fn for state changes and returns a function that
// removes it.
func (e *Engine) Subscribe(fn Listener) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.listeners = append(e.listeners, subscription{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, sub := range e.listeners {
			if sub.id == id {
				e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

// Dispatch applies cmd to the current state. On success the new state is
// stored and listeners are notified in subscription order.
func (e *Engine) Dispatch(cmd model.Command) (*model.MatchState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := Apply(e.state, cmd)
	if err != nil {
		return nil, err
	}
	if next == e.state {
		return next, nil
	}
	e.state = next
	for _, sub := range e.listeners {
		sub.fn(next, cmd)
	}
	return next, nil
}

// SetupMatch starts a new match on the engine.
func (e *Engine) SetupMatch(data model.SetupData) (*model.MatchState, error) {
	return e.Dispatch(model.Command{Kind: model.CommandSetup, Setup: &data})
}

// SelectOpeningPlayers starts the current innings.
func (e *Engine) SelectOpeningPlayers(striker, nonStriker, bowler string) (*model.MatchState, error) {
	return e.Dispatch(model.Command{Kind: model.CommandOpeners, Openers: &model.Openers{
		Striker:    striker,
		NonStriker: nonStriker,
		Bowler:     bowler,
	}})
}

// RecordBall scores one delivery.
func (e *Engine) RecordBall(o delivery.Outcome) (*model.MatchState, error) {
	return e.Dispatch(model.Command{Kind: model.CommandBall, Outcome: &o})
}

// RecordWicket scores a dismissal.
func (e *Engine) RecordWicket(w model.WicketInput) (*model.MatchState, error) {
	return e.Dispatch(model.Command{Kind: model.CommandWicket, Wicket: &w})
}

// ChangeBowler sets the next bowler.
func (e *Engine) ChangeBowler(name string) (*model.MatchState, error) {
	return e.Dispatch(model.Command{Kind: model.CommandChangeBowler, Bowler: name})
}

// ChangeBatter retires or substitutes a batter.
func (e *Engine) ChangeBatter(c model.BatterChange) (*model.MatchState, error) {
	return e.Dispatch(model.Command{Kind: model.CommandChangeBatter, Batter: &c})
}

// StartSecondInnings begins the chase.
func (e *Engine) StartSecondInnings() (*model.MatchState, error) {
	return e.Dispatch(model.Command{Kind: model.CommandSecondInnings})
}

// ImpactSubstitute swaps in an impact player.
func (e *Engine) ImpactSubstitute(sub model.Substitution) (*model.MatchState, error) {
	return e.Dispatch(model.Command{Kind: model.CommandImpact, Substitution: &sub})
}

// UndoLastBall removes the latest delivery of the current over.
func (e *Engine) UndoLastBall() (*model.MatchState, error) {
	return e.Dispatch(model.Command{Kind: model.CommandUndo})
}

// LoadMatch replaces the engine state with a validated snapshot.
func (e *Engine) LoadMatch(snapshot *model.MatchState) (*model.MatchState, error) {
	return e.Dispatch(model.Command{Kind: model.CommandLoad, Snapshot: snapshot})
}

// SetPreferences replaces the feedback toggles.
func (e *Engine) SetPreferences(p model.Preferences) (*model.MatchState, error) {
	return e.Dispatch(model.Command{Kind: model.CommandSetPreferences, Preferences: &p})
}
