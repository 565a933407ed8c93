package vesting

import (
	"time"

	"github.com/songzhibin97/tokenflux/internal/models"
)

// Anchor maps the simulated timeline onto the calendar: ScheduleIndex is the
// simulated month that corresponds to "now", and Month is the calendar month
// it is anchored to (always the first of the present month).
type Anchor struct {
	ScheduleIndex int
	Month         time.Time
}

// CalibrateBySupply finds the schedule index whose cumulative value brackets
// the observed circulating supply. Returns false when the supply is at or
// below the curve's first value (too early to calibrate). Fractional
// positions round to the nearest month, with ties at 0.5 rounding toward the
// later month.
func CalibrateBySupply(total []float64, supply float64) (int, bool) {
	n := len(total)
	if n == 0 || supply <= total[0] {
		return 0, false
	}
	if supply >= total[n-1] {
		return n - 1, true
	}

	for i := 0; i < n-1; i++ {
		if total[i] <= supply && supply <= total[i+1] {
			span := total[i+1] - total[i]
			if span <= 0 {
				return i, true
			}
			frac := (supply - total[i]) / span
			if frac >= 0.5 {
				return i + 1, true
			}
			return i, true
		}
	}

	return 0, false
}

// CalibrateByDate derives the current schedule index from a generation date:
// an explicit genesis date when known, else the all-time-high date as a
// proxy. Dates in the future are rejected. The elapsed time is counted in
// whole months between first-of-month normalized dates and clamped to the
// horizon.
func CalibrateByDate(genesis, athDate, now time.Time, horizon int) (int, bool) {
	gen := genesis
	if gen.IsZero() {
		gen = athDate
	}
	if gen.IsZero() || gen.After(now) {
		return 0, false
	}

	elapsed := monthsBetween(gen, now)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > horizon-1 {
		elapsed = horizon - 1
	}
	return elapsed, true
}

// Calibrate chooses the anchor for one project using the three-tier strategy:
// supply calibration, date calibration, and finally treating the project as
// freshly generated at index 0.
func Calibrate(total []float64, market models.TokenMarketData, now time.Time, horizon int) Anchor {
	anchor := Anchor{Month: firstOfMonth(now)}

	if market.CirculatingSupply > 0 {
		if idx, ok := CalibrateBySupply(total, market.CirculatingSupply); ok {
			anchor.ScheduleIndex = idx
			return anchor
		}
	}

	if idx, ok := CalibrateByDate(market.GenesisDate, market.ATHDate, now, horizon); ok {
		anchor.ScheduleIndex = idx
		return anchor
	}

	anchor.ScheduleIndex = 0
	return anchor
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func monthsBetween(from, to time.Time) int {
	a := firstOfMonth(from)
	b := firstOfMonth(to)
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
