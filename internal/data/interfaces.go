package data

import (
	"context"
	"errors"
	"time"

	"github.com/songzhibin97/tokenflux/internal/models"
)

// ErrNotFound is returned by stores when no durable entry exists for a key.
var ErrNotFound = errors.New("not found")

// MarketDataCollector 负责获取实时行情数据
type MarketDataCollector interface {
	// FetchToken retrieves the full market snapshot for one token
	FetchToken(ctx context.Context, id string) (*models.TokenMarketData, error)

	// FetchTokens retrieves market snapshots for many tokens in one
	// consolidated request; missing ids are simply absent from the map
	FetchTokens(ctx context.Context, ids []string) (map[string]*models.TokenMarketData, error)
}

// EmissionsStore 处理排放结果与研究结果的持久化缓存
type EmissionsStore interface {
	// SaveEmissions writes the full project result as an opaque blob
	SaveEmissions(ctx context.Context, result *models.ProjectEmissions) error

	// GetEmissions retrieves a cached result and its last-updated timestamp
	GetEmissions(ctx context.Context, tokenID string) (*models.ProjectEmissions, time.Time, error)

	// DeleteEmissions removes the durable entry for a token
	DeleteEmissions(ctx context.Context, tokenID string) error

	// SaveResearch caches allocation research independently of emissions
	SaveResearch(ctx context.Context, tokenID string, research *models.AllocationResearch) error

	// GetResearch retrieves cached allocation research
	GetResearch(ctx context.Context, tokenID string) (*models.AllocationResearch, error)
}
