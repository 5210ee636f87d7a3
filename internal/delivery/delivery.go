// Package delivery handles ball outcome tokens, match format codes and
// roster name normalisation.
package delivery

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind is the tag of an Outcome.
type Kind string

// Supported outcome kinds.
const (
	KindRuns   Kind = "runs"
	KindWide   Kind = "wide"
	KindNoBall Kind = "no_ball"
	KindLegBye Kind = "leg_bye"
	KindBye    Kind = "bye"
	KindWicket Kind = "wicket"
)

// MaxRuns is the largest run value a single delivery token may carry.
const MaxRuns = 6

// outcomeRegex matches: {prefix}{runs}
// Examples: 0, 4, W, WD, NB, LB, LB2, B4
var outcomeRegex = regexp.MustCompile(`^(WD|NB|LB|B|W)?([0-9])?$`)

var (
	ErrInvalidOutcome = errors.New("delivery: invalid outcome")
	ErrInvalidFormat  = errors.New("delivery: unsupported match format")
)

// Outcome is the result of a single delivery. Kind decides which of the
// run accessors apply; Runs is only meaningful for KindRuns, KindLegBye
// and KindBye.
type Outcome struct {
	Kind Kind
	Runs int
}

// Runs returns a plain run outcome off the bat.
func Runs(n int) Outcome { return Outcome{Kind: KindRuns, Runs: n} }

// Wide returns a wide.
func Wide() Outcome { return Outcome{Kind: KindWide} }

// NoBall returns a no-ball.
func NoBall() Outcome { return Outcome{Kind: KindNoBall} }

// LegBye returns leg byes with n runs taken.
func LegBye(n int) Outcome { return Outcome{Kind: KindLegBye, Runs: n} }

// Bye returns byes with n runs taken.
func Bye(n int) Outcome { return Outcome{Kind: KindBye, Runs: n} }

// Wicket returns a dismissal.
func Wicket() Outcome { return Outcome{Kind: KindWicket} }

// Parse parses and validates an outcome token.
// Format: 0-6 | W | WD | NB | LB[0-6] | B[0-6]
func Parse(token string) (Outcome, error) {
	token = strings.ToUpper(strings.TrimSpace(token))
	matches := outcomeRegex.FindStringSubmatch(token)
	if matches == nil || token == "" {
		return Outcome{}, fmt.Errorf("%w: %q (expected 0-6, W, WD, NB, LB[n] or B[n])",
			ErrInvalidOutcome, token)
	}

	prefix := matches[1]
	digits := matches[2]

	runs := 0
	if digits != "" {
		runs, _ = strconv.Atoi(digits)
		if runs > MaxRuns {
			return Outcome{}, fmt.Errorf("%w: %d runs off one ball", ErrInvalidOutcome, runs)
		}
	}

	switch prefix {
	case "":
		return Runs(runs), nil
	case "LB":
		return LegBye(runs), nil
	case "B":
		return Bye(runs), nil
	}

	if digits != "" {
		return Outcome{}, fmt.Errorf("%w: %s takes no run count", ErrInvalidOutcome, prefix)
	}
	switch prefix {
	case "W":
		return Wicket(), nil
	case "WD":
		return Wide(), nil
	default:
		return NoBall(), nil
	}
}

// Validate reports whether o is a well-formed outcome.
func (o Outcome) Validate() error {
	switch o.Kind {
	case KindRuns, KindLegBye, KindBye:
		if o.Runs < 0 || o.Runs > MaxRuns {
			return fmt.Errorf("%w: %d runs off one ball", ErrInvalidOutcome, o.Runs)
		}
		return nil
	case KindWide, KindNoBall, KindWicket:
		if o.Runs != 0 {
			return fmt.Errorf("%w: %s takes no run count", ErrInvalidOutcome, o.Kind)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown kind %q", ErrInvalidOutcome, o.Kind)
}

// IsLegal reports whether the delivery counts toward the six-ball over.
func (o Outcome) IsLegal() bool {
	return o.Kind != KindWide && o.Kind != KindNoBall
}

// IsExtra reports whether the delivery is a wide, no-ball, leg bye or bye.
func (o Outcome) IsExtra() bool {
	switch o.Kind {
	case KindWide, KindNoBall, KindLegBye, KindBye:
		return true
	}
	return false
}

// IsWicket reports whether the delivery is a dismissal.
func (o Outcome) IsWicket() bool { return o.Kind == KindWicket }

// TeamRuns is what the delivery adds to the batting side's total.
// Wides and no-balls carry a single penalty run.
func (o Outcome) TeamRuns() int {
	switch o.Kind {
	case KindRuns, KindLegBye, KindBye:
		return o.Runs
	case KindWide, KindNoBall:
		return 1
	}
	return 0
}

// BatterRuns is what the striker is credited with.
func (o Outcome) BatterRuns() int {
	if o.Kind == KindRuns {
		return o.Runs
	}
	return 0
}

// BowlerRuns is what the bowler is charged with. Byes and leg byes are
// not charged.
func (o Outcome) BowlerRuns() int {
	switch o.Kind {
	case KindRuns:
		return o.Runs
	case KindWide, KindNoBall:
		return 1
	}
	return 0
}

// RotatesStrike reports whether the batters cross on this delivery.
func (o Outcome) RotatesStrike() bool {
	switch o.Kind {
	case KindRuns, KindLegBye, KindBye:
		return o.Runs%2 == 1
	}
	return false
}

// String returns the canonical token for o.
func (o Outcome) String() string {
	switch o.Kind {
	case KindRuns:
		return strconv.Itoa(o.Runs)
	case KindWide:
		return "WD"
	case KindNoBall:
		return "NB"
	case KindWicket:
		return "W"
	case KindLegBye, KindBye:
		prefix := "LB"
		if o.Kind == KindBye {
			prefix = "B"
		}
		if o.Runs == 0 {
			return prefix
		}
		return prefix + strconv.Itoa(o.Runs)
	}
	return string(o.Kind)
}

// MarshalText encodes o as its canonical token.
func (o Outcome) MarshalText() ([]byte, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return []byte(o.String()), nil
}

// UnmarshalText decodes a canonical token.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Format is the match format chosen at setup.
type Format string

// Supported match formats.
const (
	FormatT20  Format = "T20"
	FormatODI  Format = "ODI"
	FormatTest Format = "Test"
)

var validFormats = map[string]Format{
	"T20":  FormatT20,
	"ODI":  FormatODI,
	"TEST": FormatTest,
}

// ParseFormat parses a format code, ignoring case.
func ParseFormat(s string) (Format, error) {
	f, ok := validFormats[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return f, nil
}

// TotalOvers returns the per-innings over allocation for f.
func (f Format) TotalOvers() int {
	switch f {
	case FormatT20:
		return 20
	case FormatODI:
		return 50
	case FormatTest:
		return 90
	}
	return 0
}

// BowlerQuota returns the maximum overs one bowler may bowl in an innings.
// Zero means unlimited.
func (f Format) BowlerQuota() int {
	switch f {
	case FormatT20:
		return 4
	case FormatODI:
		return 10
	}
	return 0
}

// NormalizeName collapses whitespace and applies Unicode NFC so that the
// same player typed on two devices compares equal.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}
