package models

import "time"

// VestingType 解锁规则类型
type VestingType string

const (
	VestingImmediate VestingType = "immediate"
	VestingCliff     VestingType = "cliff"
	VestingLinear    VestingType = "linear"
	VestingCustom    VestingType = "custom"
)

// ParseVestingType normalizes a loosely shaped vesting-type string. Unknown
// values default to linear so untyped research payloads never reach the
// simulation core.
func ParseVestingType(s string) (VestingType, bool) {
	switch VestingType(s) {
	case VestingImmediate, VestingCliff, VestingLinear, VestingCustom:
		return VestingType(s), true
	default:
		return VestingLinear, false
	}
}

// AllocationGroup 标准分组标签
type AllocationGroup string

const (
	GroupTeam      AllocationGroup = "team"
	GroupInvestors AllocationGroup = "investors"
	GroupPublic    AllocationGroup = "public"
	GroupTreasury  AllocationGroup = "treasury"
	GroupCommunity AllocationGroup = "community"
)

// AllocationInput 代币分配输入
type AllocationInput struct {
	Category      string          `json:"category"`       // 分配名称，如 "Seed Round"
	Group         AllocationGroup `json:"group"`          // 标准分组标签
	Percentage    float64         `json:"percentage"`     // 占总供应量百分比 [0,100]
	Tokens        float64         `json:"tokens"`         // 绝对数量，缺省时按百分比推导
	Vesting       VestingType     `json:"vesting"`        // 解锁规则
	CliffMonths   int             `json:"cliff_months"`   // 锁定期（月）
	VestingMonths int             `json:"vesting_months"` // 线性释放期（月）
	TGEPercent    float64         `json:"tge_percent"`    // TGE即时释放百分比
}

// TotalTokens returns the absolute token amount for the allocation, deriving
// it from the percentage when no explicit amount was supplied.
func (a AllocationInput) TotalTokens(totalSupply float64) float64 {
	if a.Tokens > 0 {
		return a.Tokens
	}
	return a.Percentage / 100 * totalSupply
}

// AllocationResearch AI研究结果：一个项目的分配明细
type AllocationResearch struct {
	Allocations []AllocationInput `json:"allocations"`
	Confidence  string            `json:"confidence"` // high / medium / low
	Notes       string            `json:"notes"`
}

// TokenMarketData 代币市场快照
type TokenMarketData struct {
	ID                string    `json:"id"` // 外部行情源的代币ID
	Symbol            string    `json:"symbol"`
	Name              string    `json:"name"`
	Price             float64   `json:"price"`
	MarketCap         float64   `json:"market_cap"`
	CirculatingSupply float64   `json:"circulating_supply"`
	TotalSupply       float64   `json:"total_supply"`
	MaxSupply         float64   `json:"max_supply"`
	Image             string    `json:"image"`
	ATHDate           time.Time `json:"ath_date"`     // 历史最高价日期，用作生成日期的代理
	GenesisDate       time.Time `json:"genesis_date"` // 已知的代币生成日期，可为零值
}

// AllocationSchedule is the simulated cumulative-supply curve for one
// allocation. Cumulative[m] is the total tokens unlocked by month m and is
// monotonically non-decreasing by construction.
type AllocationSchedule struct {
	Category      string          `json:"category"`
	Group         AllocationGroup `json:"group"`
	Vesting       VestingType     `json:"vesting"`
	CliffMonths   int             `json:"cliff_months"`
	VestingMonths int             `json:"vesting_months"`
	TGEPercent    float64         `json:"tge_percent"`
	Tokens        float64         `json:"tokens"`
	Cumulative    []float64       `json:"cumulative"`
}

// CliffEvent 离散解锁事件
type CliffEvent struct {
	MonthIndex int     `json:"month_index"` // 模拟时间轴上的月份下标
	Month      string  `json:"month"`       // 日历月标签，切片时填充
	Category   string  `json:"category"`    // 来源分配
	Amount     float64 `json:"amount"`
}

// ProjectEmissions is the cached, API-facing artifact for one project: market
// metadata plus the display-window slice of the simulated emission schedule.
type ProjectEmissions struct {
	TokenID           string  `json:"token_id"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	MarketCap         float64 `json:"market_cap"`
	CirculatingSupply float64 `json:"circulating_supply"`
	TotalSupply       float64 `json:"total_supply"`
	MaxSupply         float64 `json:"max_supply"`
	Image             string  `json:"image"`

	Months      []string             `json:"months"`      // 展示窗口的日历月标签
	Allocations []AllocationSchedule `json:"allocations"` // 切片后的每个分配曲线
	TotalSeries []float64            `json:"total_series"`
	Inflation   []float64            `json:"inflation"`
	CliffEvents []CliffEvent         `json:"cliff_events"`

	ScheduleIndex int `json:"schedule_index"` // 校准得到的"当前"月份下标（未切片时间轴）
	WindowStart   int `json:"window_start"`   // 展示窗口在未切片时间轴上的起点
	CurrentIndex  int `json:"current_index"`  // "当前"在切片数组中的位置

	Confidence string `json:"confidence"`
	Notes      string `json:"notes"`
}

// CacheEntry wraps a cached result with its write timestamp. The in-process
// entry is a read-through accelerator for the durable entry, never
// authoritative on its own.
type CacheEntry struct {
	Result   *ProjectEmissions `json:"result"`
	CachedAt time.Time         `json:"cached_at"`
}

// ComparisonRow 跨项目对比行，按需计算，不持久化
type ComparisonRow struct {
	TokenID        string  `json:"token_id"`
	Symbol         string  `json:"symbol"`
	Price          float64 `json:"price"`
	CirculatingPct float64 `json:"circulating_pct"`
	LockedPct      float64 `json:"locked_pct"`
	CliffValue     float64 `json:"cliff_value"`  // cliff型剩余解锁价值
	LinearValue    float64 `json:"linear_value"` // linear型剩余解锁价值
}

// MarketEmissionsRow 组合层面的单月解锁价值
type MarketEmissionsRow struct {
	Month       string  `json:"month"`
	CliffValue  float64 `json:"cliff_value"`
	LinearValue float64 `json:"linear_value"`
	TotalValue  float64 `json:"total_value"`
}

// InflationPeriodMetrics 年化通胀指标
type InflationPeriodMetrics struct {
	TokenID string  `json:"token_id"`
	Symbol  string  `json:"symbol"`
	Year1   float64 `json:"year1"`   // 第1-12个月平均月通胀的年化
	Year2   float64 `json:"year2"`   // 第13-24个月
	Year3   float64 `json:"year3"`   // 第25-36个月
	Current float64 `json:"current"` // 最近一个月的年化
}
