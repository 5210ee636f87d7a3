package delivery

import (
	"errors"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		token string
		want  Outcome
	}{
		{"0", Runs(0)},
		{"1", Runs(1)},
		{"4", Runs(4)},
		{"6", Runs(6)},
		{"W", Wicket()},
		{"wd", Wide()},
		{"NB", NoBall()},
		{"LB", LegBye(0)},
		{"LB2", LegBye(2)},
		{"B", Bye(0)},
		{" B4 ", Bye(4)},
	}
	for _, tt := range tests {
		got, err := Parse(tt.token)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tt.token, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.token, got, tt.want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"",
		"7",
		"9",
		"12",
		"W1",
		"WD2",
		"NB1",
		"LB7",
		"X",
		"RUN",
	}
	for _, token := range tests {
		_, err := Parse(token)
		if !errors.Is(err, ErrInvalidOutcome) {
			t.Errorf("expected ErrInvalidOutcome for %q, got %v", token, err)
		}
	}
}

func TestOutcome_StringRoundTrip(t *testing.T) {
	for _, o := range []Outcome{Runs(0), Runs(3), Wide(), NoBall(), LegBye(0), LegBye(1), Bye(4), Wicket()} {
		text, err := o.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%+v): %v", o, err)
		}
		var back Outcome
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", text, err)
		}
		if back != o {
			t.Errorf("round trip %+v -> %s -> %+v", o, text, back)
		}
	}
}

func TestOutcome_MarshalRejectsMalformed(t *testing.T) {
	if _, err := (Outcome{Kind: KindWide, Runs: 3}).MarshalText(); err == nil {
		t.Error("expected error for wide with run count")
	}
	if _, err := Runs(8).MarshalText(); err == nil {
		t.Error("expected error for 8 runs")
	}
}

func TestOutcome_Classification(t *testing.T) {
	tests := []struct {
		o                        Outcome
		legal, extra, rotates    bool
		team, batter, bowlerRuns int
	}{
		{Runs(0), true, false, false, 0, 0, 0},
		{Runs(1), true, false, true, 1, 1, 1},
		{Runs(2), true, false, false, 2, 2, 2},
		{Runs(3), true, false, true, 3, 3, 3},
		{Runs(4), true, false, false, 4, 4, 4},
		{Runs(6), true, false, false, 6, 6, 6},
		{Wide(), false, true, false, 1, 0, 1},
		{NoBall(), false, true, false, 1, 0, 1},
		{LegBye(0), true, true, false, 0, 0, 0},
		{LegBye(1), true, true, true, 1, 0, 0},
		{Bye(4), true, true, false, 4, 0, 0},
		{Wicket(), true, false, false, 0, 0, 0},
	}
	for _, tt := range tests {
		if got := tt.o.IsLegal(); got != tt.legal {
			t.Errorf("%s IsLegal = %v, want %v", tt.o, got, tt.legal)
		}
		if got := tt.o.IsExtra(); got != tt.extra {
			t.Errorf("%s IsExtra = %v, want %v", tt.o, got, tt.extra)
		}
		if got := tt.o.RotatesStrike(); got != tt.rotates {
			t.Errorf("%s RotatesStrike = %v, want %v", tt.o, got, tt.rotates)
		}
		if got := tt.o.TeamRuns(); got != tt.team {
			t.Errorf("%s TeamRuns = %d, want %d", tt.o, got, tt.team)
		}
		if got := tt.o.BatterRuns(); got != tt.batter {
			t.Errorf("%s BatterRuns = %d, want %d", tt.o, got, tt.batter)
		}
		if got := tt.o.BowlerRuns(); got != tt.bowlerRuns {
			t.Errorf("%s BowlerRuns = %d, want %d", tt.o, got, tt.bowlerRuns)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in    string
		want  Format
		overs int
		quota int
	}{
		{"T20", FormatT20, 20, 4},
		{"odi", FormatODI, 50, 10},
		{"Test", FormatTest, 90, 0},
	}
	for _, tt := range tests {
		f, err := ParseFormat(tt.in)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", tt.in, err)
		}
		if f != tt.want {
			t.Errorf("ParseFormat(%q) = %s, want %s", tt.in, f, tt.want)
		}
		if f.TotalOvers() != tt.overs {
			t.Errorf("%s TotalOvers = %d, want %d", f, f.TotalOvers(), tt.overs)
		}
		if f.BowlerQuota() != tt.quota {
			t.Errorf("%s BowlerQuota = %d, want %d", f, f.BowlerQuota(), tt.quota)
		}
	}

	if _, err := ParseFormat("T10"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestNormalizeName(t *testing.T) {
	// e followed by a combining acute accent.
	decomposed := "Andre\u0301  Russell "
	if got := NormalizeName(decomposed); got != "Andr\u00e9 Russell" {
		t.Errorf("NormalizeName = %q", got)
	}
}
