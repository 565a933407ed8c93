package emissions

import (
	"math"

	"github.com/songzhibin97/tokenflux/internal/models"
)

// ComparisonRows computes per-project comparison ratios: circulating vs
// locked percentage, and the remaining post-TGE unlock value split between
// cliff-sourced and linear-sourced supply at the current price.
func ComparisonRows(results []*models.ProjectEmissions) []models.ComparisonRow {
	rows := make([]models.ComparisonRow, 0, len(results))

	for _, r := range results {
		if r == nil {
			continue
		}

		circ := 0.0
		if r.TotalSupply > 0 {
			circ = r.CirculatingSupply / r.TotalSupply * 100
		}
		if circ < 0 {
			circ = 0
		}
		if circ > 100 {
			circ = 100
		}

		row := models.ComparisonRow{
			TokenID:        r.TokenID,
			Symbol:         r.Symbol,
			Price:          r.Price,
			CirculatingPct: circ,
			LockedPct:      100 - circ,
		}

		for _, a := range r.Allocations {
			if a.Vesting == models.VestingImmediate {
				continue
			}
			remainder := a.Tokens * (1 - a.TGEPercent/100)
			if remainder <= 0 {
				continue
			}
			if a.Vesting == models.VestingCliff {
				row.CliffValue += remainder * r.Price
			} else {
				row.LinearValue += remainder * r.Price
			}
		}

		rows = append(rows, row)
	}

	return rows
}

// AggregateMarketEmissions aligns all projects' calendar months to the
// longest available month series and sums each project's month-over-month
// incremental unlock (deltas floored at 0) times its price, split into
// cliff-sourced and linear-sourced totals.
func AggregateMarketEmissions(results []*models.ProjectEmissions) []models.MarketEmissionsRow {
	var longest *models.ProjectEmissions
	for _, r := range results {
		if r == nil {
			continue
		}
		if longest == nil || len(r.Months) > len(longest.Months) {
			longest = r
		}
	}
	if longest == nil {
		return nil
	}

	index := make(map[string]int, len(longest.Months))
	rows := make([]models.MarketEmissionsRow, len(longest.Months))
	for i, month := range longest.Months {
		index[month] = i
		rows[i].Month = month
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		for _, a := range r.Allocations {
			for m := 1; m < len(a.Cumulative) && m < len(r.Months); m++ {
				delta := a.Cumulative[m] - a.Cumulative[m-1]
				if delta <= 0 {
					continue
				}
				pos, ok := index[r.Months[m]]
				if !ok {
					continue
				}
				value := delta * r.Price
				if a.Vesting == models.VestingCliff {
					rows[pos].CliffValue += value
				} else {
					rows[pos].LinearValue += value
				}
				rows[pos].TotalValue += value
			}
		}
	}

	return rows
}

// InflationPeriods averages the monthly inflation rate over display months
// 1-12, 13-24 and 25-36 per project and annualizes each average via compound
// conversion, plus a current annualized figure from the latest available
// month.
func InflationPeriods(results []*models.ProjectEmissions) []models.InflationPeriodMetrics {
	metrics := make([]models.InflationPeriodMetrics, 0, len(results))

	for _, r := range results {
		if r == nil {
			continue
		}

		m := models.InflationPeriodMetrics{
			TokenID: r.TokenID,
			Symbol:  r.Symbol,
			Year1:   annualize(avgRange(r.Inflation, 1, 12)),
			Year2:   annualize(avgRange(r.Inflation, 13, 24)),
			Year3:   annualize(avgRange(r.Inflation, 25, 36)),
		}

		if len(r.Inflation) > 0 {
			cur := r.CurrentIndex
			if cur < 0 {
				cur = 0
			}
			if cur > len(r.Inflation)-1 {
				cur = len(r.Inflation) - 1
			}
			m.Current = annualize(r.Inflation[cur])
		}

		metrics = append(metrics, m)
	}

	return metrics
}

// avgRange averages series[from..to] inclusive, clipped to the series bounds.
func avgRange(series []float64, from, to int) float64 {
	if from < 0 {
		from = 0
	}
	if to > len(series)-1 {
		to = len(series) - 1
	}
	if from > to {
		return 0
	}

	sum := 0.0
	for i := from; i <= to; i++ {
		sum += series[i]
	}
	return sum / float64(to-from+1)
}

// annualize converts an average monthly rate to an annual rate via compound
// interest.
func annualize(monthly float64) float64 {
	return math.Pow(1+monthly, 12) - 1
}
