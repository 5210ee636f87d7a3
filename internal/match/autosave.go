package match

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/crease/match-engine/internal/metrics"
	"github.com/crease/match-engine/internal/model"
	"github.com/crease/match-engine/internal/store"
)

// saveTimeout bounds one background snapshot write.
const saveTimeout = 5 * time.Second

// Autosaver persists match snapshots in the background. Bursts of changes
// to one match collapse into a single write of the latest state once the
// match has been quiet for the configured delay.
type Autosaver struct {
	store store.Store
	delay time.Duration
	now   func() time.Time

	mu      sync.Mutex
	pending map[string]*pendingSave
}

type pendingSave struct {
	state    *model.MatchState
	debounce func(func())
	writing  sync.Mutex // orders writes of one match
}

// NewAutosaver creates an autosaver writing to st.
func NewAutosaver(st store.Store, delay time.Duration) *Autosaver {
	return &Autosaver{
		store:   st,
		delay:   delay,
		now:     func() time.Time { return time.Now().UTC() },
		pending: make(map[string]*pendingSave),
	}
}

// Notify is a scoring.Listener that schedules a save of next.
func (a *Autosaver) Notify(next *model.MatchState, _ model.Command) {
	a.Schedule(next)
}

// Schedule records s as the latest state of its match and (re)arms the
// match's debounce timer.
func (a *Autosaver) Schedule(s *model.MatchState) {
	if s.MatchID == "" {
		return
	}
	a.mu.Lock()
	p, ok := a.pending[s.MatchID]
	if !ok {
		p = &pendingSave{debounce: debounce.New(a.delay)}
		a.pending[s.MatchID] = p
	}
	p.state = s
	a.mu.Unlock()

	id := s.MatchID
	p.debounce(func() { a.flushOne(context.Background(), id) })
}

// Flush writes every pending snapshot now. It returns the last error seen.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	ids := make([]string, 0, len(a.pending))
	for id := range a.pending {
		ids = append(ids, id)
	}
	a.mu.Unlock()

	var last error
	for _, id := range ids {
		if err := a.flushOne(ctx, id); err != nil {
			last = err
		}
	}
	return last
}

// Forget drops any pending save for id and waits for a write already in
// flight, so nothing is written for id once it returns.
func (a *Autosaver) Forget(id string) {
	a.mu.Lock()
	p, ok := a.pending[id]
	delete(a.pending, id)
	if ok {
		p.state = nil
	}
	a.mu.Unlock()

	if ok {
		p.writing.Lock()
		p.writing.Unlock()
	}
}

func (a *Autosaver) flushOne(ctx context.Context, id string) error {
	a.mu.Lock()
	p, ok := a.pending[id]
	a.mu.Unlock()
	if !ok {
		return nil
	}

	p.writing.Lock()
	defer p.writing.Unlock()

	a.mu.Lock()
	state := p.state
	p.state = nil
	a.mu.Unlock()
	if state == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	if err := a.store.SaveMatch(ctx, model.NewMatchRecord(state, a.now())); err != nil {
		metrics.PersistenceFailures.WithLabelValues("snapshot").Inc()
		slog.Error("autosave failed", "match", id, "err", err)
		return err
	}
	slog.Debug("match saved", "match", id, "status", state.Status)
	return nil
}
