package collector

import (
	"context"
	"fmt"

	"github.com/songzhibin97/tokenflux/internal/models"
)

// MultiSourceCollector implements MarketDataCollector by trying multiple
// market sources in order until one answers.
type MultiSourceCollector struct {
	sources []MarketSource
	logger  Logger
}

type Logger interface {
	Error(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

type MarketSource interface {
	Name() string
	FetchToken(ctx context.Context, id string) (*models.TokenMarketData, error)
	FetchTokens(ctx context.Context, ids []string) (map[string]*models.TokenMarketData, error)
}

func NewMultiSourceCollector(sources []MarketSource, logger Logger) *MultiSourceCollector {
	return &MultiSourceCollector{
		sources: sources,
		logger:  logger,
	}
}

// FetchToken implements MarketDataCollector interface
func (c *MultiSourceCollector) FetchToken(ctx context.Context, id string) (*models.TokenMarketData, error) {
	for _, source := range c.sources {
		result, err := source.FetchToken(ctx, id)
		if err == nil && result != nil {
			c.logger.Info("fetched market data", "source", source.Name(), "id", id)
			return result, nil
		}
		c.logger.Error("failed to fetch market data", "source", source.Name(), "id", id, "error", err)
	}

	return nil, fmt.Errorf("failed to fetch market data for %s from all sources", id)
}

// FetchTokens implements MarketDataCollector interface. Sources are tried in
// order; ids a source could not resolve are retried against the next one, and
// ids no source resolves are absent from the result.
func (c *MultiSourceCollector) FetchTokens(ctx context.Context, ids []string) (map[string]*models.TokenMarketData, error) {
	results := make(map[string]*models.TokenMarketData, len(ids))
	missing := ids

	for _, source := range c.sources {
		if len(missing) == 0 {
			break
		}

		batch, err := source.FetchTokens(ctx, missing)
		if err != nil {
			c.logger.Error("failed to fetch market data batch", "source", source.Name(), "error", err)
			continue
		}

		var still []string
		for _, id := range missing {
			if md, ok := batch[id]; ok && md != nil {
				results[id] = md
			} else {
				still = append(still, id)
			}
		}
		missing = still

		c.logger.Info("fetched market data batch", "source", source.Name(), "resolved", len(batch), "missing", len(missing))
	}

	if len(results) == 0 && len(ids) > 0 {
		return nil, fmt.Errorf("failed to fetch market data from all sources")
	}

	return results, nil
}
