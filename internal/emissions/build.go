package emissions

import (
	"time"

	"github.com/songzhibin97/tokenflux/internal/models"
	"github.com/songzhibin97/tokenflux/internal/vesting"
)

// BuildResult runs the full simulation pipeline for one project: per-allocation
// curves, aggregation, calibration against the market snapshot, and the display
// window slice. It is deterministic given now and never fails for in-range
// inputs.
func BuildResult(md *models.TokenMarketData, research *models.AllocationResearch, now time.Time) *models.ProjectEmissions {
	totalSupply := md.TotalSupply
	if totalSupply <= 0 {
		totalSupply = md.MaxSupply
	}

	agg := vesting.AggregateSchedules(research.Allocations, vesting.HorizonMonths, totalSupply)
	anchor := vesting.Calibrate(agg.Total, *md, now, vesting.HorizonMonths)
	start, end := vesting.Window(anchor.ScheduleIndex, vesting.WindowMonths, vesting.HorizonMonths)
	months := vesting.MonthLabels(anchor.Month, anchor.ScheduleIndex, start, end)

	allocations := make([]models.AllocationSchedule, 0, len(agg.Allocations))
	for _, sched := range agg.Allocations {
		sliced := sched
		sliced.Cumulative = append([]float64(nil), sched.Cumulative[start:end]...)
		allocations = append(allocations, sliced)
	}

	var cliffs []models.CliffEvent
	for _, ev := range agg.CliffEvents {
		if ev.MonthIndex < start || ev.MonthIndex >= end {
			continue
		}
		ev.Month = months[ev.MonthIndex-start]
		cliffs = append(cliffs, ev)
	}

	currentIdx := anchor.ScheduleIndex - start
	if currentIdx < 0 {
		currentIdx = 0
	}
	if currentIdx > end-start-1 {
		currentIdx = end - start - 1
	}

	return &models.ProjectEmissions{
		TokenID:           md.ID,
		Symbol:            md.Symbol,
		Name:              md.Name,
		Price:             md.Price,
		MarketCap:         md.MarketCap,
		CirculatingSupply: md.CirculatingSupply,
		TotalSupply:       totalSupply,
		MaxSupply:         md.MaxSupply,
		Image:             md.Image,

		Months:      months,
		Allocations: allocations,
		TotalSeries: append([]float64(nil), agg.Total[start:end]...),
		Inflation:   append([]float64(nil), agg.Inflation[start:end]...),
		CliffEvents: cliffs,

		ScheduleIndex: anchor.ScheduleIndex,
		WindowStart:   start,
		CurrentIndex:  currentIdx,

		Confidence: research.Confidence,
		Notes:      research.Notes,
	}
}
