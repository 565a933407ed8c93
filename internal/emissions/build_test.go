package emissions

import (
	"testing"
	"time"

	"github.com/songzhibin97/tokenflux/internal/models"
	"github.com/songzhibin97/tokenflux/internal/vesting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)

func testMarketData() *models.TokenMarketData {
	return &models.TokenMarketData{
		ID:                "testcoin",
		Symbol:            "TEST",
		Name:              "Test Coin",
		Price:             2.5,
		MarketCap:         1_250_000,
		CirculatingSupply: 500_000,
		TotalSupply:       1_000_000,
		MaxSupply:         1_000_000,
		Image:             "https://img.example/test.png",
		GenesisDate:       time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testResearch() *models.AllocationResearch {
	return &models.AllocationResearch{
		Allocations: []models.AllocationInput{
			{Category: "Public Sale", Group: models.GroupPublic, Percentage: 10, Vesting: models.VestingImmediate},
			{Category: "Team", Group: models.GroupTeam, Percentage: 20, Vesting: models.VestingCliff, CliffMonths: 48},
			{Category: "Investors", Group: models.GroupInvestors, Percentage: 30, Vesting: models.VestingLinear, CliffMonths: 6, VestingMonths: 48},
		},
		Confidence: "high",
		Notes:      "sourced from docs",
	}
}

func TestBuildResult(t *testing.T) {
	result := BuildResult(testMarketData(), testResearch(), testNow)
	require.NotNil(t, result)

	assert.Equal(t, "testcoin", result.TokenID)
	assert.Equal(t, "TEST", result.Symbol)
	assert.Equal(t, "high", result.Confidence)

	// 所有时间序列按同一窗口切片
	width := len(result.Months)
	assert.Equal(t, vesting.WindowMonths, width)
	assert.Len(t, result.TotalSeries, width)
	assert.Len(t, result.Inflation, width)
	for _, a := range result.Allocations {
		assert.Len(t, a.Cumulative, width)
	}

	// 窗口内的总供应曲线仍是各分配之和
	for m := 0; m < width; m++ {
		sum := 0.0
		for _, a := range result.Allocations {
			sum += a.Cumulative[m]
		}
		assert.InDelta(t, sum, result.TotalSeries[m], 1e-6, "month %d", m)
	}

	// 当前位置落在窗口内
	assert.GreaterOrEqual(t, result.CurrentIndex, 0)
	assert.Less(t, result.CurrentIndex, width)
	assert.Equal(t, result.ScheduleIndex-result.WindowStart, result.CurrentIndex)
}

func TestBuildResult_CliffEventLabels(t *testing.T) {
	result := BuildResult(testMarketData(), testResearch(), testNow)

	require.NotEmpty(t, result.CliffEvents)
	for _, ev := range result.CliffEvents {
		assert.GreaterOrEqual(t, ev.MonthIndex, result.WindowStart)
		assert.Less(t, ev.MonthIndex, result.WindowStart+len(result.Months))
		assert.Equal(t, result.Months[ev.MonthIndex-result.WindowStart], ev.Month)
	}
}

func TestBuildResult_OutOfWindowCliffDropped(t *testing.T) {
	md := testMarketData()
	// 校准到时间轴末端：窗口为 [60,120)，月份48的cliff被裁掉
	md.CirculatingSupply = 1_000_000
	md.GenesisDate = time.Time{}

	research := testResearch()
	result := BuildResult(md, research, testNow)

	assert.Equal(t, vesting.HorizonMonths-1, result.ScheduleIndex)
	assert.Equal(t, 60, result.WindowStart)
	assert.Empty(t, result.CliffEvents)
}

func TestBuildResult_TotalSupplyFallsBackToMax(t *testing.T) {
	md := testMarketData()
	md.TotalSupply = 0
	md.MaxSupply = 2_000_000

	result := BuildResult(md, testResearch(), testNow)
	assert.Equal(t, 2_000_000.0, result.TotalSupply)
}
