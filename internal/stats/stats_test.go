package stats

import (
	"testing"

	"github.com/shopspring/decimal"
)

// d is a test helper for creating decimals from strings.
func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// --- Overs ---

func TestOversNotation(t *testing.T) {
	tests := []struct {
		balls int
		want  string
	}{
		{0, "0.0"},
		{1, "0.1"},
		{5, "0.5"},
		{6, "1.0"},
		{15, "2.3"},
		{120, "20.0"},
		{-3, "0.0"},
	}
	for _, tt := range tests {
		if got := OversNotation(tt.balls); got != tt.want {
			t.Errorf("OversNotation(%d) = %s, want %s", tt.balls, got, tt.want)
		}
	}
}

func TestOversDecimal(t *testing.T) {
	if got := OversDecimal(15); !got.Equal(d("2.5")) {
		t.Errorf("expected 2.5 overs for 15 balls, got %s", got)
	}
	if got := OversDecimal(0); !got.IsZero() {
		t.Errorf("expected 0 overs, got %s", got)
	}
}

// --- Economy ---

func TestEconomy(t *testing.T) {
	tests := []struct {
		runs, balls int
		want        string
	}{
		{0, 6, "0"},
		{24, 24, "6"},
		{30, 24, "7.5"},
		{10, 7, "8.57"},
		{5, 0, "0"},
	}
	for _, tt := range tests {
		got := Economy(tt.runs, tt.balls)
		if !got.Equal(d(tt.want)) {
			t.Errorf("Economy(%d, %d) = %s, want %s", tt.runs, tt.balls, got, tt.want)
		}
	}
}

func TestEconomy_MatchesRunsPerOverDecimal(t *testing.T) {
	// economy * overs-as-decimal should give back the runs within rounding.
	runs, balls := 37, 23
	eco := Economy(runs, balls)
	back := eco.Mul(OversDecimal(balls))
	if back.Sub(decimal.NewFromInt(int64(runs))).Abs().GreaterThan(d("0.05")) {
		t.Errorf("economy %s over %s overs gives %s, want ~%d", eco, OversDecimal(balls), back, runs)
	}
}

// --- Batting ---

func TestStrikeRate(t *testing.T) {
	tests := []struct {
		runs, balls int
		want        string
	}{
		{50, 25, "200"},
		{1, 3, "33.33"},
		{0, 4, "0"},
		{10, 0, "0"},
	}
	for _, tt := range tests {
		got := StrikeRate(tt.runs, tt.balls)
		if !got.Equal(d(tt.want)) {
			t.Errorf("StrikeRate(%d, %d) = %s, want %s", tt.runs, tt.balls, got, tt.want)
		}
	}
}

func TestAverage(t *testing.T) {
	if _, ok := Average(45, 0); ok {
		t.Error("expected no average without a dismissal")
	}
	avg, ok := Average(100, 3)
	if !ok || !avg.Equal(d("33.33")) {
		t.Errorf("Average(100, 3) = %s, %v", avg, ok)
	}
}

// --- Team rates ---

func TestRunRate(t *testing.T) {
	if got := RunRate(150, 120); !got.Equal(d("7.5")) {
		t.Errorf("RunRate(150, 120) = %s, want 7.5", got)
	}
}

func TestRequiredRunRate(t *testing.T) {
	tests := []struct {
		needed, ballsLeft int
		want              string
	}{
		{60, 60, "6"},
		{10, 4, "15"},
		{0, 30, "0"},
		{-5, 30, "0"},
		{12, 0, "0"},
	}
	for _, tt := range tests {
		got := RequiredRunRate(tt.needed, tt.ballsLeft)
		if !got.Equal(d(tt.want)) {
			t.Errorf("RequiredRunRate(%d, %d) = %s, want %s", tt.needed, tt.ballsLeft, got, tt.want)
		}
	}
}
