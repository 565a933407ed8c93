package vesting

import (
	"testing"

	"github.com/songzhibin97/tokenflux/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTotalSupply = 1_000_000.0

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		allocation models.AllocationInput
		month      int
		want       float64
	}{
		{
			name: "immediate unlocks everything at month 0",
			allocation: models.AllocationInput{
				Category:   "Public Sale",
				Percentage: 10,
				Vesting:    models.VestingImmediate,
			},
			month: 0,
			want:  100_000,
		},
		{
			name: "cliff holds tge amount before cliff month",
			allocation: models.AllocationInput{
				Category:    "Team",
				Percentage:  20,
				Vesting:     models.VestingCliff,
				CliffMonths: 12,
				TGEPercent:  10,
			},
			month: 11,
			want:  20_000, // 10% TGE of 200k
		},
		{
			name: "cliff releases everything at cliff month",
			allocation: models.AllocationInput{
				Category:    "Team",
				Percentage:  20,
				Vesting:     models.VestingCliff,
				CliffMonths: 12,
				TGEPercent:  10,
			},
			month: 12,
			want:  200_000,
		},
		{
			name: "linear holds tge amount before cliff",
			allocation: models.AllocationInput{
				Category:      "Investors",
				Percentage:    30,
				Vesting:       models.VestingLinear,
				CliffMonths:   6,
				VestingMonths: 24,
				TGEPercent:    5,
			},
			month: 5,
			want:  15_000,
		},
		{
			name: "linear fully vested at cliff plus vesting",
			allocation: models.AllocationInput{
				Category:      "Investors",
				Percentage:    30,
				Vesting:       models.VestingLinear,
				CliffMonths:   6,
				VestingMonths: 24,
			},
			month: 30,
			want:  300_000,
		},
		{
			name: "linear with zero vesting steps at cliff",
			allocation: models.AllocationInput{
				Category:      "Treasury",
				Percentage:    10,
				Vesting:       models.VestingLinear,
				CliffMonths:   3,
				VestingMonths: 0,
			},
			month: 3,
			want:  100_000,
		},
		{
			name: "custom falls back to linear semantics",
			allocation: models.AllocationInput{
				Category:      "Community",
				Percentage:    10,
				Vesting:       models.VestingCustom,
				CliffMonths:   0,
				VestingMonths: 10,
			},
			month: 5,
			want:  50_000,
		},
		{
			name: "negative month is zero",
			allocation: models.AllocationInput{
				Category:   "Public Sale",
				Percentage: 10,
				Vesting:    models.VestingImmediate,
			},
			month: -1,
			want:  0,
		},
		{
			name: "zero percentage produces zero curve",
			allocation: models.AllocationInput{
				Category:    "Untracked",
				Percentage:  0,
				Vesting:     models.VestingCliff,
				CliffMonths: 6,
			},
			month: 12,
			want:  0,
		},
		{
			name: "explicit token amount wins over percentage",
			allocation: models.AllocationInput{
				Category:   "Advisors",
				Percentage: 5,
				Tokens:     42_000,
				Vesting:    models.VestingImmediate,
			},
			month: 0,
			want:  42_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.allocation, tt.month, testTotalSupply)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestEvaluate_MonotonicAndBounded(t *testing.T) {
	allocations := []models.AllocationInput{
		{Category: "Public", Percentage: 10, Vesting: models.VestingImmediate},
		{Category: "Team", Percentage: 20, Vesting: models.VestingCliff, CliffMonths: 12, TGEPercent: 5},
		{Category: "Investors", Percentage: 30, Vesting: models.VestingLinear, CliffMonths: 6, VestingMonths: 36, TGEPercent: 10},
		{Category: "Community", Percentage: 15, Vesting: models.VestingCustom, VestingMonths: 48},
	}

	for _, a := range allocations {
		t.Run(a.Category, func(t *testing.T) {
			tokens := a.TotalTokens(testTotalSupply)
			prev := 0.0
			for m := 0; m < HorizonMonths; m++ {
				got := Evaluate(a, m, testTotalSupply)
				assert.GreaterOrEqual(t, got, prev, "month %d", m)
				assert.LessOrEqual(t, got, tokens+1e-6, "month %d", m)
				prev = got
			}
		})
	}
}

func TestEvaluate_LinearMidpoint(t *testing.T) {
	// TGE 0%，cliff C，vesting V：在 C+V/2 处应解锁约50%
	a := models.AllocationInput{
		Category:      "Investors",
		Percentage:    40,
		Vesting:       models.VestingLinear,
		CliffMonths:   6,
		VestingMonths: 12,
	}

	tokens := a.TotalTokens(testTotalSupply)
	mid := Evaluate(a, 6+6, testTotalSupply)
	assert.InDelta(t, tokens/2, mid, 1e-6)
}

func TestBuildSchedule_SaturatesAtHorizon(t *testing.T) {
	// cliff + vesting 超过时间轴：曲线在最后一个月饱和到100%
	a := models.AllocationInput{
		Category:      "Treasury",
		Percentage:    25,
		Vesting:       models.VestingLinear,
		CliffMonths:   100,
		VestingMonths: 60,
	}

	sched := BuildSchedule(a, HorizonMonths, testTotalSupply)
	require.Len(t, sched.Cumulative, HorizonMonths)

	tokens := a.TotalTokens(testTotalSupply)
	assert.Less(t, sched.Cumulative[HorizonMonths-2], tokens)
	assert.InDelta(t, tokens, sched.Cumulative[HorizonMonths-1], 1e-6)
}

func TestBuildSchedule_NormalizesUnknownVestingType(t *testing.T) {
	a := models.AllocationInput{
		Category:      "Airdrop",
		Percentage:    5,
		Vesting:       models.VestingType("weird"),
		VestingMonths: 12,
	}

	sched := BuildSchedule(a, HorizonMonths, testTotalSupply)
	assert.Equal(t, models.VestingLinear, sched.Vesting)
}
