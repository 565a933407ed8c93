package vesting

import "github.com/songzhibin97/tokenflux/internal/models"

// cliffJumpTolerance filters floating-point noise when detecting discrete
// unlock steps.
const cliffJumpTolerance = 1e-6

// Aggregate 一个项目所有分配的聚合结果
type Aggregate struct {
	Allocations []models.AllocationSchedule
	Total       []float64                   // Total[m] = sum of all allocation curves at month m
	Inflation   []float64                   // month-over-month rate, Inflation[0] = 0
	CliffEvents []models.CliffEvent         // discrete unlock steps, unsliced timeline
}

// AggregateSchedules combines all allocations of one project into an
// aggregate cumulative-supply curve, a monthly inflation-rate series and the
// list of discrete cliff events. Linear accrual never emits cliff events;
// only a jump of at least cliffJumpTolerance at the allocation's cliff month
// does.
func AggregateSchedules(allocations []models.AllocationInput, horizon int, totalSupply float64) Aggregate {
	agg := Aggregate{
		Allocations: make([]models.AllocationSchedule, 0, len(allocations)),
		Total:       make([]float64, horizon),
		Inflation:   make([]float64, horizon),
	}

	for _, a := range allocations {
		sched := BuildSchedule(a, horizon, totalSupply)
		agg.Allocations = append(agg.Allocations, sched)

		for m := 0; m < horizon; m++ {
			agg.Total[m] += sched.Cumulative[m]
		}

		if ev, ok := cliffEventFor(a, sched); ok {
			agg.CliffEvents = append(agg.CliffEvents, ev)
		}
	}

	for m := 1; m < horizon; m++ {
		prev := agg.Total[m-1]
		if prev <= 0 {
			continue
		}
		agg.Inflation[m] = (agg.Total[m] - prev) / prev
	}

	return agg
}

// cliffEventFor detects a discrete jump at the allocation's cliff month. The
// TGE release at month 0 is not a cliff event, so the baseline before a
// zero-month cliff is the TGE amount rather than zero.
func cliffEventFor(a models.AllocationInput, sched models.AllocationSchedule) (models.CliffEvent, bool) {
	if a.Vesting == models.VestingImmediate {
		return models.CliffEvent{}, false
	}

	c := a.CliffMonths
	if c < 0 {
		c = 0
	}
	if c >= len(sched.Cumulative) {
		return models.CliffEvent{}, false
	}

	before := sched.Tokens * a.TGEPercent / 100
	if c > 0 {
		before = sched.Cumulative[c-1]
	}

	jump := sched.Cumulative[c] - before
	if jump < cliffJumpTolerance {
		return models.CliffEvent{}, false
	}

	return models.CliffEvent{
		MonthIndex: c,
		Category:   a.Category,
		Amount:     jump,
	}, true
}
