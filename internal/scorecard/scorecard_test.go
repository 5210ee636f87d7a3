package scorecard_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/crease/match-engine/internal/delivery"
	"github.com/crease/match-engine/internal/model"
	"github.com/crease/match-engine/internal/scorecard"
	"github.com/crease/match-engine/internal/scoring"
)

func mustState(t *testing.T, s *model.MatchState, err error) *model.MatchState {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

// shortMatch: Lions 5/1 after 0.2 overs, A1 caught off B1.
func shortMatch(t *testing.T) *model.MatchState {
	t.Helper()
	s := mustState(t, scoring.SetupMatch(nil, model.SetupData{
		TeamA:        model.TeamSetup{Name: "Lions", Players: []string{"A1", "A2", "A3", "A4"}},
		TeamB:        model.TeamSetup{Name: "Tigers", Players: []string{"B1", "B2", "B3", "B4"}},
		Format:       delivery.FormatT20,
		TossWinner:   "Tigers",
		TossDecision: model.TossBowl,
		Venue:        "Wankhede",
	}))
	s = mustState(t, scoring.SelectOpeningPlayers(s, "A1", "A2", "B1"))
	s = mustState(t, scoring.RecordBall(s, delivery.Runs(4)))
	striker, _ := s.Striker()
	s = mustState(t, scoring.RecordWicket(s, model.WicketInput{
		Dismissal: model.DismissalCaught,
		BatterID:  striker.ID,
		NewBatter: "A3",
		Fielder:   "B2",
	}))
	return mustState(t, scoring.RecordBall(s, delivery.Wide()))
}

func TestBuild(t *testing.T) {
	card := scorecard.Build(shortMatch(t))

	if card.Title != "Lions vs Tigers" {
		t.Errorf("expected title 'Lions vs Tigers', got %q", card.Title)
	}
	if len(card.Innings) != 1 {
		t.Fatalf("expected 1 innings, got %d", len(card.Innings))
	}
	in := card.Innings[0]
	if in.Score != 5 || in.Wickets != 1 || in.Overs != "0.2" {
		t.Errorf("expected 5/1 in 0.2, got %d/%d in %s", in.Score, in.Wickets, in.Overs)
	}
	if in.RunRate.StringFixed(2) != "15.00" {
		t.Errorf("expected run rate 15.00, got %s", in.RunRate)
	}
	if in.ExtrasTotal != 1 || in.Extras.Wides != 1 {
		t.Errorf("expected one wide, got %+v", in.Extras)
	}

	if len(in.Batters) != 3 {
		t.Fatalf("expected 3 batters, got %d", len(in.Batters))
	}
	a1 := in.Batters[0]
	if a1.Status != "c B2 b B1" {
		t.Errorf("expected 'c B2 b B1', got %q", a1.Status)
	}
	if a1.StrikeRate.StringFixed(2) != "200.00" {
		t.Errorf("expected strike rate 200.00, got %s", a1.StrikeRate)
	}
	for _, b := range in.Batters {
		if b.Name == "A3" && !b.OnStrike {
			t.Error("new batter should be on strike")
		}
		if b.Name == "A2" && b.Status != "not out" {
			t.Errorf("A2 should be not out, got %q", b.Status)
		}
	}

	if len(in.Bowlers) != 1 {
		t.Fatalf("expected 1 bowler, got %d", len(in.Bowlers))
	}
	b1 := in.Bowlers[0]
	if b1.Overs != "0.2" || b1.Runs != 5 || b1.Wickets != 1 {
		t.Errorf("unexpected bowling figures %+v", b1)
	}
	if b1.Economy.StringFixed(2) != "15.00" {
		t.Errorf("expected economy 15.00, got %s", b1.Economy)
	}
	if b1.Average == nil || b1.Average.StringFixed(2) != "5.00" {
		t.Errorf("expected bowling average 5.00, got %v", b1.Average)
	}

	if len(in.FallOfWickets) != 1 || in.FallOfWickets[0] != "1-4 (A1, 0.2 ov)" {
		t.Errorf("unexpected fall of wickets %v", in.FallOfWickets)
	}
	if got := strings.Join(card.CurrentOver, " "); got != "4 W WD" {
		t.Errorf("expected current over '4 W WD', got %q", got)
	}
	if card.Chase != nil {
		t.Error("first innings should have no chase")
	}
}

func TestBuild_Chase(t *testing.T) {
	s := shortMatch(t)
	// Lose the remaining wickets: A3 then A4 out leaves A2 alone, all out at 3.
	for _, next := range []string{"A4", ""} {
		striker, _ := s.Striker()
		s = mustState(t, scoring.RecordWicket(s, model.WicketInput{
			Dismissal: model.DismissalBowled,
			BatterID:  striker.ID,
			NewBatter: next,
		}))
	}
	if s.Status != model.StatusInningsBreak {
		t.Fatalf("expected innings break, got %s", s.Status)
	}
	s = mustState(t, scoring.StartSecondInnings(s))
	s = mustState(t, scoring.SelectOpeningPlayers(s, "B1", "B2", "A1"))
	s = mustState(t, scoring.RecordBall(s, delivery.Runs(2)))

	card := scorecard.Build(s)
	if len(card.Innings) != 2 {
		t.Fatalf("expected 2 innings, got %d", len(card.Innings))
	}
	if card.Innings[0].Team != "Lions" || card.Innings[1].Team != "Tigers" {
		t.Errorf("unexpected innings order %s, %s", card.Innings[0].Team, card.Innings[1].Team)
	}
	if card.Chase == nil {
		t.Fatal("expected chase equation")
	}
	if card.Chase.Target != 6 || card.Chase.RunsNeeded != 4 || card.Chase.BallsLeft != 119 {
		t.Errorf("unexpected chase %+v", card.Chase)
	}
	// 4 runs from 119 balls: 4 * 6 / 119 = 0.2016...
	if card.Chase.RequiredRunRate.StringFixed(2) != "0.20" {
		t.Errorf("expected RRR 0.20, got %s", card.Chase.RequiredRunRate)
	}
}

func TestDismissalText(t *testing.T) {
	tests := []struct {
		d    model.Dismissal
		want string
	}{
		{model.Dismissal{Type: model.DismissalBowled, Bowler: "X"}, "b X"},
		{model.Dismissal{Type: model.DismissalCaught, Bowler: "X", Fielder: "X"}, "c & b X"},
		{model.Dismissal{Type: model.DismissalLBW, Bowler: "X"}, "lbw b X"},
		{model.Dismissal{Type: model.DismissalStumped, Bowler: "X", Fielder: "K"}, "st K b X"},
		{model.Dismissal{Type: model.DismissalHitWicket, Bowler: "X"}, "hit wicket b X"},
		{model.Dismissal{Type: model.DismissalRunOut, Fielder: "F"}, "run out (F)"},
		{model.Dismissal{Type: model.DismissalRunOut}, "run out"},
		{model.Dismissal{Type: model.DismissalRetiredHurt}, "retired hurt"},
	}
	for _, tt := range tests {
		got := scorecard.DismissalText(model.Batter{IsOut: true, Dismissal: tt.d})
		if got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.d.Type, tt.want, got)
		}
	}
	if got := scorecard.DismissalText(model.Batter{}); got != "not out" {
		t.Errorf("expected 'not out', got %q", got)
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := scorecard.Build(shortMatch(t)).WriteText(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Lions vs Tigers (T20)",
		"at Wankhede",
		"Innings 1: Lions 5/1 (0.2 ov, RR 15.00)",
		"A3*",
		"c B2 b B1",
		"FoW: 1-4 (A1, 0.2 ov)",
		"This over (B1): 4 W WD",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBuild_BeforeSetup(t *testing.T) {
	card := scorecard.Build(model.NewMatchState())
	if card.Status != model.StatusSetup || len(card.Innings) != 0 {
		t.Errorf("expected empty setup card, got %+v", card)
	}
}
