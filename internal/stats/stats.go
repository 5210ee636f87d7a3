// Package stats computes the derived cricket figures shown on a scorecard:
// economy, strike rate, run rate and required run rate.
//
// Rates use shopspring/decimal, never float64, so that a figure computed
// on the server and one recomputed by a client from the same counters
// agree to the last digit. Every rate is rounded half-up to RateScale
// places and a zero denominator yields zero rather than an error.
package stats

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BallsPerOver is the number of legal deliveries in an over.
const BallsPerOver = 6

var (
	// RateScale is the number of decimal places for published rates.
	RateScale int32 = 2

	ballsPerOver = decimal.NewFromInt(BallsPerOver)
	hundred      = decimal.NewFromInt(100)
)

// OversDecimal converts a legal ball count into overs as a true decimal
// (15 balls = 2.5 overs), the denominator used for economy and run rate.
func OversDecimal(balls int) decimal.Decimal {
	return decimal.NewFromInt(int64(balls)).Div(ballsPerOver)
}

// OversNotation formats a legal ball count the way scorers write it:
// completed overs, a dot, then balls into the current over (15 balls = "2.3").
func OversNotation(balls int) string {
	if balls < 0 {
		balls = 0
	}
	return fmt.Sprintf("%d.%d", balls/BallsPerOver, balls%BallsPerOver)
}

// perOver computes runs per six legal balls.
func perOver(runs, balls int) decimal.Decimal {
	if balls <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(runs)).
		Mul(ballsPerOver).
		Div(decimal.NewFromInt(int64(balls))).
		Round(RateScale)
}

// Economy is a bowler's runs conceded per over bowled:
//
//	economy = runs / (balls / 6)
func Economy(runsConceded, legalBalls int) decimal.Decimal {
	return perOver(runsConceded, legalBalls)
}

// RunRate is a side's runs per over.
func RunRate(runs, legalBalls int) decimal.Decimal {
	return perOver(runs, legalBalls)
}

// RequiredRunRate is the rate a chasing side needs over the balls left.
// Returns zero once the target is reached or no balls remain.
func RequiredRunRate(runsNeeded, ballsLeft int) decimal.Decimal {
	if runsNeeded <= 0 {
		return decimal.Zero
	}
	return perOver(runsNeeded, ballsLeft)
}

// StrikeRate is a batter's runs per hundred balls faced.
func StrikeRate(runs, ballsFaced int) decimal.Decimal {
	if ballsFaced <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(runs)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(ballsFaced))).
		Round(RateScale)
}

// Average is runs per dismissal: a batting average, or runs conceded per
// wicket for a bowler. With no dismissals there is no average and the
// second return value is false.
func Average(runs, dismissals int) (decimal.Decimal, bool) {
	if dismissals <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(int64(runs)).
		Div(decimal.NewFromInt(int64(dismissals))).
		Round(RateScale), true
}
