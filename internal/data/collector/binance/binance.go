package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2"

	"github.com/songzhibin97/tokenflux/internal/models"
)

// BinancePriceSource is a price-only fallback source. It resolves ids as
// base-asset symbols against the USDT pair and carries no supply or date
// fields, so results from it calibrate via the date or zero-default tiers.
type BinancePriceSource struct {
	client *binance.Client
}

func NewBinancePriceSource(apiKey, secretKey string) *BinancePriceSource {
	return &BinancePriceSource{
		client: binance.NewClient(apiKey, secretKey),
	}
}

func (b *BinancePriceSource) Name() string {
	return "binance"
}

// FetchToken implements MarketSource interface
func (b *BinancePriceSource) FetchToken(ctx context.Context, id string) (*models.TokenMarketData, error) {
	symbol := pairFor(id)

	prices, err := b.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price: %w", err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("symbol not found: %s", symbol)
	}

	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}

	return &models.TokenMarketData{
		ID:     id,
		Symbol: strings.ToUpper(id),
		Price:  price,
	}, nil
}

// FetchTokens implements MarketSource interface
func (b *BinancePriceSource) FetchTokens(ctx context.Context, ids []string) (map[string]*models.TokenMarketData, error) {
	symbols := make([]string, 0, len(ids))
	byPair := make(map[string]string, len(ids))
	for _, id := range ids {
		pair := pairFor(id)
		symbols = append(symbols, pair)
		byPair[pair] = id
	}

	prices, err := b.client.NewListPricesService().Symbols(symbols).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}

	results := make(map[string]*models.TokenMarketData, len(prices))
	for _, p := range prices {
		id, ok := byPair[p.Symbol]
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			continue
		}
		results[id] = &models.TokenMarketData{
			ID:     id,
			Symbol: strings.ToUpper(id),
			Price:  price,
		}
	}

	return results, nil
}

func pairFor(id string) string {
	return strings.ToUpper(id) + "USDT"
}
