package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/songzhibin97/tokenflux/internal/utils/request"

	"github.com/songzhibin97/tokenflux/internal/models"
)

type CoinGeckoDataSource struct {
	baseURL    string
	apiKey     string
	httpClient *resty.Client
}

func NewCoinGeckoDataSource(apiKey string) *CoinGeckoDataSource {
	return &CoinGeckoDataSource{
		baseURL:    "https://api.coingecko.com",
		apiKey:     apiKey,
		httpClient: request.Request,
	}
}

func (c *CoinGeckoDataSource) Name() string {
	return "coingecko"
}

// FetchToken retrieves the full market snapshot for one token, including the
// genesis date which the batch endpoint does not expose.
func (c *CoinGeckoDataSource) FetchToken(ctx context.Context, id string) (*models.TokenMarketData, error) {
	url := fmt.Sprintf("%s/api/v3/coins/%s?localization=false&tickers=false&community_data=false&developer_data=false", c.baseURL, id)

	resp, err := c.request(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	var result struct {
		ID          string `json:"id"`
		Symbol      string `json:"symbol"`
		Name        string `json:"name"`
		GenesisDate string `json:"genesis_date"`
		Image       struct {
			Large string `json:"large"`
		} `json:"image"`
		MarketData struct {
			CurrentPrice      map[string]float64 `json:"current_price"`
			MarketCap         map[string]float64 `json:"market_cap"`
			CirculatingSupply float64            `json:"circulating_supply"`
			TotalSupply       float64            `json:"total_supply"`
			MaxSupply         float64            `json:"max_supply"`
			ATHDate           map[string]string  `json:"ath_date"`
		} `json:"market_data"`
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &models.TokenMarketData{
		ID:                result.ID,
		Symbol:            strings.ToUpper(result.Symbol),
		Name:              result.Name,
		Price:             result.MarketData.CurrentPrice["usd"],
		MarketCap:         result.MarketData.MarketCap["usd"],
		CirculatingSupply: result.MarketData.CirculatingSupply,
		TotalSupply:       result.MarketData.TotalSupply,
		MaxSupply:         result.MarketData.MaxSupply,
		Image:             result.Image.Large,
		ATHDate:           parseTime(time.RFC3339, result.MarketData.ATHDate["usd"]),
		GenesisDate:       parseTime("2006-01-02", result.GenesisDate),
	}, nil
}

// FetchTokens retrieves market snapshots for many tokens in one consolidated
// markets request. Genesis dates are not available here; calibration falls
// back to the ATH date for batch-only reads.
func (c *CoinGeckoDataSource) FetchTokens(ctx context.Context, ids []string) (map[string]*models.TokenMarketData, error) {
	if len(ids) == 0 {
		return map[string]*models.TokenMarketData{}, nil
	}

	url := fmt.Sprintf("%s/api/v3/coins/markets?vs_currency=usd&per_page=250&ids=%s", c.baseURL, strings.Join(ids, ","))

	resp, err := c.request(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	var rows []struct {
		ID                string  `json:"id"`
		Symbol            string  `json:"symbol"`
		Name              string  `json:"name"`
		Image             string  `json:"image"`
		CurrentPrice      float64 `json:"current_price"`
		MarketCap         float64 `json:"market_cap"`
		CirculatingSupply float64 `json:"circulating_supply"`
		TotalSupply       float64 `json:"total_supply"`
		MaxSupply         float64 `json:"max_supply"`
		ATHDate           string  `json:"ath_date"`
	}

	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make(map[string]*models.TokenMarketData, len(rows))
	for _, row := range rows {
		results[row.ID] = &models.TokenMarketData{
			ID:                row.ID,
			Symbol:            strings.ToUpper(row.Symbol),
			Name:              row.Name,
			Price:             row.CurrentPrice,
			MarketCap:         row.MarketCap,
			CirculatingSupply: row.CirculatingSupply,
			TotalSupply:       row.TotalSupply,
			MaxSupply:         row.MaxSupply,
			Image:             row.Image,
			ATHDate:           parseTime(time.RFC3339, row.ATHDate),
		}
	}

	return results, nil
}

func (c *CoinGeckoDataSource) request(ctx context.Context) *resty.Request {
	req := c.httpClient.R().SetContext(ctx)
	if c.apiKey != "" {
		req.SetHeader("x-cg-demo-api-key", c.apiKey)
	}
	return req
}

func parseTime(layout, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
