package scoring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crease/match-engine/internal/delivery"
	"github.com/crease/match-engine/internal/model"
)

func TestEngineNotifiesListeners(t *testing.T) {
	e := New()

	var kinds []model.CommandKind
	unsubscribe := e.Subscribe(func(next *model.MatchState, cmd model.Command) {
		kinds = append(kinds, cmd.Kind)
	})

	_, err := e.SetupMatch(setupData())
	require.NoError(t, err)
	_, err = e.SelectOpeningPlayers("A1", "A2", "B1")
	require.NoError(t, err)
	_, err = e.RecordBall(delivery.Runs(4))
	require.NoError(t, err)

	// Rejections and no-ops do not notify.
	_, err = e.ChangeBowler("B1")
	require.Error(t, err)
	_, err = e.ChangeBatter(model.BatterChange{OutgoingID: "missing", Incoming: "A3"})
	require.NoError(t, err)

	unsubscribe()
	_, err = e.RecordBall(delivery.Runs(1))
	require.NoError(t, err)

	assert.Equal(t, []model.CommandKind{model.CommandSetup, model.CommandOpeners, model.CommandBall}, kinds)
	assert.Equal(t, 5, e.State().BattingTeam.Score)
}

func TestEngineListenerOrder(t *testing.T) {
	e := New()

	var order []int
	for i := 1; i <= 3; i++ {
		e.Subscribe(func(*model.MatchState, model.Command) { order = append(order, i) })
	}
	_, err := e.SetupMatch(setupData())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestEngineRejectionKeepsState(t *testing.T) {
	e := New()
	_, err := e.SetupMatch(setupData())
	require.NoError(t, err)
	before := e.State()

	_, err = e.RecordBall(delivery.Runs(1))
	assert.ErrorIs(t, err, ErrInvalidPhase)
	assert.Same(t, before, e.State())
}

func TestEngineFullFlow(t *testing.T) {
	e := New()
	_, err := e.SetupMatch(setupData())
	require.NoError(t, err)
	_, err = e.ImpactSubstitute(model.Substitution{Team: "Lions", Outgoing: "A11", Incoming: "A12"})
	require.NoError(t, err)
	_, err = e.SelectOpeningPlayers("A1", "A2", "B1")
	require.NoError(t, err)

	_, err = e.RecordBall(delivery.Runs(2))
	require.NoError(t, err)
	striker, _ := e.State().Striker()
	_, err = e.RecordWicket(model.WicketInput{Dismissal: model.DismissalStumped, BatterID: striker.ID, NewBatter: "A12", Fielder: "B7"})
	require.NoError(t, err)
	_, err = e.UndoLastBall()
	require.NoError(t, err)
	assert.Zero(t, e.State().BattingTeam.Wickets)
	assert.Equal(t, 2, e.State().BattingTeam.Score)

	s, err := e.SetPreferences(model.Preferences{Sound: true, Vibration: true})
	require.NoError(t, err)
	assert.True(t, s.Preferences.Sound)

	restored := New()
	_, err = restored.LoadMatch(e.State())
	require.NoError(t, err)
	assert.Equal(t, 2, restored.State().BattingTeam.Score)
	assert.True(t, restored.State().BattingTeam.ImpactUsed)
}

func TestEngineConcurrentDispatch(t *testing.T) {
	e := NewFrom(newMatch(t))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.RecordBall(delivery.Runs(1))
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, e.State().BattingTeam.Score)
	assert.Equal(t, 4, e.State().BattingTeam.Balls)
}
