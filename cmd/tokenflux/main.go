package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	binanceCollector "github.com/songzhibin97/tokenflux/internal/data/collector/binance"
	"github.com/songzhibin97/tokenflux/internal/data/collector/coingecko"

	collectorData "github.com/songzhibin97/tokenflux/internal/data/collector"

	"github.com/songzhibin97/tokenflux/internal/data/storage"
	"github.com/songzhibin97/tokenflux/internal/research/deepseek"
	"github.com/songzhibin97/tokenflux/internal/research/openai"

	"github.com/songzhibin97/tokenflux/internal/configs"
	"github.com/songzhibin97/tokenflux/internal/emissions"
	"github.com/songzhibin97/tokenflux/internal/models"
	"github.com/songzhibin97/tokenflux/internal/research"
)

var (
	flagconf   string
	flagReseed string

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
)

func init() {
	flag.StringVar(&flagconf, "conf", "../configs", "config path, eg: -conf config.json")
	flag.StringVar(&flagReseed, "reseed", "", "token id to invalidate and rebuild before seeding")
}

func main() {
	flag.Parse()

	// 加载配置
	config := &configs.Config{}
	configFile, err := os.ReadFile(flagconf)
	if err != nil {
		log.Error("Error reading config file", "err", err)
		return
	}

	if err := json.Unmarshal(configFile, config); err != nil {
		log.Error("Error parsing config file", "err", err)
		return
	}

	log.Debug("Loaded config", "tokens", config.Tokens)

	if config.Proxy != "" {
		_ = os.Setenv("HTTP_PROXY", config.Proxy)
		_ = os.Setenv("HTTPS_PROXY", config.Proxy)
		log.Debug("set proxy ok", "proxy", config.Proxy)
	}

	// 初始化各个组件
	collector := collectorData.NewMultiSourceCollector([]collectorData.MarketSource{
		coingecko.NewCoinGeckoDataSource(config.MarketConfig.CoinGeckoAPIKey),
		binanceCollector.NewBinancePriceSource(config.MarketConfig.BinanceAPIKey, config.MarketConfig.BinanceSecretKey),
	}, log)

	log.Debug("init collector")

	store, err := storage.NewPostgresStore(config.Database.ConnStr)
	if err != nil {
		log.Error("Error creating storage", "err", err)
		return
	}

	log.Debug("init store")

	var researcher research.Researcher
	switch config.AIConfig.Provider {
	case "openai":
		researcher = openai.NewOpenAIResearcher(config.AIConfig.APIKey, config.AIConfig.ModelType)
	default:
		researcher = deepseek.NewDeepSeekResearcher(config.AIConfig.APIKey, config.AIConfig.ModelType)
	}

	log.Debug("init researcher", "provider", config.AIConfig.Provider)

	service := emissions.NewService(store, collector, researcher, log)

	log.Debug("init service")

	ctx := context.Background()
	if err := run(ctx, service, config.Tokens); err != nil {
		log.Error("System error", "err", err)
	}
}

// run seeds the portfolio and prints the cross-project views.
func run(ctx context.Context, service *emissions.Service, tokens []string) error {
	if flagReseed != "" {
		if _, err := service.InvalidateAndRebuild(ctx, flagReseed); err != nil {
			log.Error("Error reseeding token", "id", flagReseed, "err", err)
		} else {
			log.Info("reseeded token", "id", flagReseed)
		}
	}

	results := service.GetBatchProjectEmissions(ctx, tokens, func(id string, result *models.ProjectEmissions) {
		log.Info("resolved project", "id", id, "symbol", result.Symbol, "confidence", result.Confidence)
	})

	if len(results) == 0 {
		return fmt.Errorf("no projects resolved")
	}
	if len(results) < len(tokens) {
		log.Warn("some projects failed to resolve", "requested", len(tokens), "resolved", len(results))
	}

	resolved := make([]*models.ProjectEmissions, 0, len(results))
	for _, id := range tokens {
		if r, ok := results[id]; ok {
			resolved = append(resolved, r)
		}
	}

	// 组合对比
	fmt.Println("== Portfolio comparison ==")
	for _, row := range emissions.ComparisonRows(resolved) {
		fmt.Printf("%-8s price=%.4f circulating=%.1f%% locked=%.1f%% cliffValue=%.0f linearValue=%.0f\n",
			row.Symbol, row.Price, row.CirculatingPct, row.LockedPct, row.CliffValue, row.LinearValue)
	}

	// 年化通胀
	fmt.Println("== Inflation periods (annualized) ==")
	for _, m := range emissions.InflationPeriods(resolved) {
		fmt.Printf("%-8s y1=%.2f%% y2=%.2f%% y3=%.2f%% current=%.2f%%\n",
			m.Symbol, m.Year1*100, m.Year2*100, m.Year3*100, m.Current*100)
	}

	// 即将到来的解锁事件
	fmt.Println("== Upcoming cliff unlocks ==")
	for _, r := range resolved {
		for _, ev := range r.CliffEvents {
			if ev.MonthIndex < r.ScheduleIndex {
				continue
			}
			fmt.Printf("%-8s %s %s unlocks %.0f tokens\n", r.Symbol, ev.Month, ev.Category, ev.Amount)
		}
	}

	// 组合层面的单月解锁价值
	fmt.Println("== Aggregate market emissions ==")
	for _, row := range emissions.AggregateMarketEmissions(resolved) {
		if row.TotalValue == 0 {
			continue
		}
		fmt.Printf("%s cliff=%.0f linear=%.0f total=%.0f\n", row.Month, row.CliffValue, row.LinearValue, row.TotalValue)
	}

	return nil
}
