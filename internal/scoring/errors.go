package scoring

import (
	"errors"
	"fmt"

	"github.com/crease/match-engine/internal/delivery"
	"github.com/crease/match-engine/internal/rules"
)

var (
	ErrInvalidSetup        = errors.New("scoring: invalid match setup")
	ErrInvalidPhase        = errors.New("scoring: command not allowed in current match status")
	ErrUnknownPlayer       = errors.New("scoring: player not on roster")
	ErrSameBatter          = errors.New("scoring: striker and non-striker must differ")
	ErrBatterAlreadyBatted = errors.New("scoring: batter has already batted this innings")
	ErrNewBatterRequired   = errors.New("scoring: new batter required")
	ErrInvalidDismissal    = errors.New("scoring: dismissal not allowed")
	ErrOverComplete        = errors.New("scoring: over complete, change bowler first")
	ErrSameBowler          = errors.New("scoring: bowler is already bowling")
	ErrNothingToUndo       = errors.New("scoring: no ball in the current over to undo")
	ErrInvalidSnapshot     = errors.New("scoring: invalid match snapshot")
	ErrUnknownCommand      = errors.New("scoring: unknown command")
)

// Code is a stable rejection identifier for API clients.
type Code string

const (
	CodeInvalidSetup        Code = "invalid_setup"
	CodeInvalidPhase        Code = "invalid_phase"
	CodeInvalidOutcome      Code = "invalid_outcome"
	CodeInvalidDismissal    Code = "invalid_dismissal"
	CodeUnknownPlayer       Code = "unknown_player"
	CodeSameBatter          Code = "same_batter"
	CodeBatterAlreadyBatted Code = "batter_already_batted"
	CodeNewBatterRequired   Code = "new_batter_required"
	CodeOverComplete        Code = "over_complete"
	CodeSameBowler          Code = "same_bowler"
	CodeConsecutiveOvers    Code = "consecutive_overs"
	CodeBowlerQuota         Code = "bowler_quota_exceeded"
	CodeImpactWindowClosed  Code = "impact_window_closed"
	CodeNothingToUndo       Code = "nothing_to_undo"
	CodeInvalidSnapshot     Code = "invalid_snapshot"
	CodeUnknownCommand      Code = "unknown_command"
)

// CommandError is a typed rejection. The state passed to the command is
// left untouched whenever one is returned.
type CommandError struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

// Unwrap exposes the sentinel for errors.Is.
func (e *CommandError) Unwrap() error { return e.Err }

// CodeOf returns the rejection code carried by err, or "" if err is not a
// CommandError.
func CodeOf(err error) Code {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsRejection reports whether err is a domain rejection rather than an
// infrastructure failure.
func IsRejection(err error) bool {
	return CodeOf(err) != ""
}

func reject(code Code, err error, format string, args ...any) error {
	return &CommandError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// rejectRule maps a rules or delivery sentinel onto its rejection code.
func rejectRule(err error) error {
	switch {
	case errors.Is(err, rules.ErrConsecutiveOvers):
		return &CommandError{Code: CodeConsecutiveOvers, Err: err}
	case errors.Is(err, rules.ErrBowlerQuotaExceeded):
		return &CommandError{Code: CodeBowlerQuota, Err: err}
	case errors.Is(err, rules.ErrImpactWindowClosed):
		return &CommandError{Code: CodeImpactWindowClosed, Err: err}
	case errors.Is(err, delivery.ErrInvalidOutcome):
		return &CommandError{Code: CodeInvalidOutcome, Err: err}
	case errors.Is(err, delivery.ErrInvalidFormat):
		return &CommandError{Code: CodeInvalidSetup, Err: err}
	}
	return err
}
