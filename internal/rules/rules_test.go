package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/crease/match-engine/internal/delivery"
)

func TestCheckBowler_FirstOver(t *testing.T) {
	r := Canonical(delivery.FormatT20)

	if err := r.CheckBowler("Bumrah", "", 0); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestCheckBowler_ConsecutiveOvers(t *testing.T) {
	r := Canonical(delivery.FormatT20)

	err := r.CheckBowler("Bumrah", "Bumrah", 1)
	if err != ErrConsecutiveOvers {
		t.Errorf("expected ErrConsecutiveOvers, got %v", err)
	}
}

func TestCheckBowler_ConsecutiveAllowedWhenDisabled(t *testing.T) {
	r := Canonical(delivery.FormatTest)
	r.NoConsecutiveOvers = false

	if err := r.CheckBowler("Anderson", "Anderson", 12); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestCheckBowler_QuotaExceeded(t *testing.T) {
	r := Canonical(delivery.FormatT20)

	// Four overs is the T20 quota.
	err := r.CheckBowler("Bumrah", "Shami", 4)
	if err != ErrBowlerQuotaExceeded {
		t.Errorf("expected ErrBowlerQuotaExceeded, got %v", err)
	}
}

func TestCheckBowler_QuotaNotExceeded(t *testing.T) {
	r := Canonical(delivery.FormatODI)

	if err := r.CheckBowler("Bumrah", "Shami", 9); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestCheckBowler_TestHasNoQuota(t *testing.T) {
	r := Canonical(delivery.FormatTest)

	if err := r.CheckBowler("Lyon", "Cummins", 40); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestAllOut(t *testing.T) {
	r := Canonical(delivery.FormatT20)

	tests := []struct {
		roster int
		want   int
	}{
		{11, 10},
		{12, 10}, // impact player squads still lose at ten
		{6, 5},
		{2, 1},
		{0, 10},
	}
	for _, tt := range tests {
		if got := r.AllOut(tt.roster); got != tt.want {
			t.Errorf("AllOut(%d) = %d, want %d", tt.roster, got, tt.want)
		}
	}
}

func TestReference(t *testing.T) {
	r := Reference(delivery.FormatT20)
	if r.MaxOversPerBowler != 0 {
		t.Errorf("reference rules should not enforce a quota, got %d", r.MaxOversPerBowler)
	}
	if r.WicketBallCountsAsFaced {
		t.Error("reference rules should not charge the wicket ball")
	}
	if err := r.CheckImpactSubstitution(0); err != ErrImpactWindowClosed {
		t.Errorf("expected ErrImpactWindowClosed, got %v", err)
	}
}

func TestCheckImpactSubstitution(t *testing.T) {
	r := Canonical(delivery.FormatT20)

	if err := r.CheckImpactSubstitution(13); err != nil {
		t.Errorf("expected substitution before cutoff to pass, got %v", err)
	}
	if err := r.CheckImpactSubstitution(14); err != ErrImpactWindowClosed {
		t.Errorf("expected ErrImpactWindowClosed at cutoff, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "all_out_wickets: 5\nmax_overs_per_bowler: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	r, err := Load(path, delivery.FormatT20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.AllOutWickets != 5 {
		t.Errorf("expected all_out_wickets=5, got %d", r.AllOutWickets)
	}
	if r.MaxOversPerBowler != 2 {
		t.Errorf("expected max_overs_per_bowler=2, got %d", r.MaxOversPerBowler)
	}
	// Untouched keys keep canonical values.
	if !r.NoConsecutiveOvers {
		t.Error("expected no_consecutive_overs to stay true")
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("all_out_wickets: 0\n"), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	if _, err := Load(path, delivery.FormatODI); err == nil {
		t.Error("expected error for zero all_out_wickets")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), delivery.FormatODI); err == nil {
		t.Error("expected error for missing file")
	}
}
