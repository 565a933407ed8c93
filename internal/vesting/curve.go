package vesting

import "github.com/songzhibin97/tokenflux/internal/models"

const (
	// HorizonMonths 模拟时间轴长度（月）
	HorizonMonths = 120

	// WindowMonths 展示窗口宽度（月）
	WindowMonths = 60
)

// Evaluate returns the cumulative unlocked token amount for one allocation at
// the given simulation month. It is pure and total over its domain: negative
// months evaluate to the TGE-only baseline of zero, out-of-range parameters
// never produce an error, and the result is non-decreasing in month and
// bounded by the allocation's total token amount.
func Evaluate(a models.AllocationInput, month int, totalSupply float64) float64 {
	tokens := a.TotalTokens(totalSupply)
	if tokens <= 0 {
		return 0
	}
	if month < 0 {
		return 0
	}

	tge := tokens * a.TGEPercent / 100
	if tge > tokens {
		tge = tokens
	}
	remaining := tokens - tge

	switch a.Vesting {
	case models.VestingImmediate:
		return tokens

	case models.VestingCliff:
		if month >= a.CliffMonths {
			return tokens
		}
		return tge

	default:
		// linear, and custom which has no per-month override mechanism and
		// falls back to linear semantics.
		if month < a.CliffMonths {
			return tge
		}
		if a.VestingMonths <= 0 {
			// Zero-length vesting window: the remainder unlocks as a single
			// step at the cliff month.
			return tokens
		}
		frac := float64(month-a.CliffMonths) / float64(a.VestingMonths)
		if frac >= 1 {
			return tokens
		}
		return tge + remaining*frac
	}
}

// BuildSchedule materializes the cumulative curve for one allocation over the
// simulation horizon. Internally inconsistent parameters (cliff + vesting
// beyond the horizon) are not rejected: the curve saturates at 100% by the
// last horizon month instead.
func BuildSchedule(a models.AllocationInput, horizon int, totalSupply float64) models.AllocationSchedule {
	tokens := a.TotalTokens(totalSupply)
	vt := a.Vesting
	if _, known := models.ParseVestingType(string(vt)); !known {
		vt = models.VestingLinear
	}

	cumulative := make([]float64, horizon)
	for m := 0; m < horizon; m++ {
		cumulative[m] = Evaluate(a, m, totalSupply)
	}
	if horizon > 0 && tokens > 0 {
		cumulative[horizon-1] = tokens
	}

	return models.AllocationSchedule{
		Category:      a.Category,
		Group:         a.Group,
		Vesting:       vt,
		CliffMonths:   a.CliffMonths,
		VestingMonths: a.VestingMonths,
		TGEPercent:    a.TGEPercent,
		Tokens:        tokens,
		Cumulative:    cumulative,
	}
}
