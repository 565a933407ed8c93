package emissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/songzhibin97/tokenflux/internal/data"
	"github.com/songzhibin97/tokenflux/internal/models"
	"github.com/songzhibin97/tokenflux/internal/research"
)

const (
	// defaultTTL bounds the in-process tier; the durable tier has no expiry.
	defaultTTL = 5 * time.Minute

	batchWorkers = 8
)

type Logger interface {
	Error(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

// Service is the cache & refresh layer: an in-process TTL tier over the
// durable store, with live market-field overlay on every read. One instance
// is constructed per process and shared by all callers. Concurrent cold
// misses for the same key may both run the build path; writes are
// last-writer-wins and converge to the same-shaped result.
type Service struct {
	store      data.EmissionsStore
	collector  data.MarketDataCollector
	researcher research.Researcher
	logger     Logger

	memory *xsync.Map[string, models.CacheEntry]
	pool   pond.Pool
	ttl    time.Duration
	now    func() time.Time
}

func NewService(store data.EmissionsStore, collector data.MarketDataCollector, researcher research.Researcher, logger Logger) *Service {
	return &Service{
		store:      store,
		collector:  collector,
		researcher: researcher,
		logger:     logger,
		memory:     xsync.NewMap[string, models.CacheEntry](),
		pool:       pond.NewPool(batchWorkers),
		ttl:        defaultTTL,
		now:        time.Now,
	}
}

// GetProjectEmissions resolves one project: fresh in-process hit, durable hit,
// or a full build from upstream sources. Cached hits are returned with the
// latest live market snapshot overlaid; the vesting arrays are never touched.
func (s *Service) GetProjectEmissions(ctx context.Context, tokenID string) (*models.ProjectEmissions, error) {
	if entry, ok := s.memory.Load(tokenID); ok && s.fresh(entry) {
		return s.withOverlay(ctx, entry.Result), nil
	}

	cached, _, err := s.store.GetEmissions(ctx, tokenID)
	if err == nil {
		s.memory.Store(tokenID, models.CacheEntry{Result: cached, CachedAt: s.now()})
		return s.withOverlay(ctx, cached), nil
	}
	if !errors.Is(err, data.ErrNotFound) {
		// Durable tier unreachable is a cache miss, not fatal.
		s.logger.Error("durable cache read failed", "id", tokenID, "error", err)
	}

	return s.build(ctx, tokenID, nil)
}

// GetBatchProjectEmissions resolves many projects with partial-success
// semantics: warm and durable hits are served with one consolidated market
// request, full misses are built concurrently and independently, and a key
// whose build fails is simply absent from the result. onProgress, when set,
// fires once per resolved key in completion order.
func (s *Service) GetBatchProjectEmissions(ctx context.Context, tokenIDs []string, onProgress func(string, *models.ProjectEmissions)) map[string]*models.ProjectEmissions {
	out := xsync.NewMap[string, *models.ProjectEmissions]()

	market, err := s.collector.FetchTokens(ctx, tokenIDs)
	if err != nil {
		s.logger.Error("consolidated market fetch failed", "error", err)
		market = map[string]*models.TokenMarketData{}
	}

	resolve := func(id string, result *models.ProjectEmissions) {
		out.Store(id, result)
		if onProgress != nil {
			onProgress(id, result)
		}
	}

	var misses []string
	for _, id := range tokenIDs {
		if entry, ok := s.memory.Load(id); ok && s.fresh(entry) {
			resolve(id, overlayMarket(entry.Result, market[id]))
			continue
		}

		cached, _, err := s.store.GetEmissions(ctx, id)
		if err == nil {
			s.memory.Store(id, models.CacheEntry{Result: cached, CachedAt: s.now()})
			resolve(id, overlayMarket(cached, market[id]))
			continue
		}
		if !errors.Is(err, data.ErrNotFound) {
			s.logger.Error("durable cache read failed", "id", id, "error", err)
		}

		misses = append(misses, id)
	}

	group := s.pool.NewGroupContext(ctx)
	for _, id := range misses {
		id := id
		group.Submit(func() {
			result, err := s.build(ctx, id, market[id])
			if err != nil {
				s.logger.Error("failed to build project emissions", "id", id, "error", err)
				return
			}
			resolve(id, result)
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		s.logger.Error("batch build encountered error", "error", err)
	}

	results := make(map[string]*models.ProjectEmissions, out.Size())
	out.Range(func(id string, result *models.ProjectEmissions) bool {
		results[id] = result
		return true
	})
	return results
}

// InvalidateAndRebuild clears the durable entry and rebuilds from scratch
// ("clear & reseed"). The research cache is independent and survives.
func (s *Service) InvalidateAndRebuild(ctx context.Context, tokenID string) (*models.ProjectEmissions, error) {
	if err := s.store.DeleteEmissions(ctx, tokenID); err != nil {
		s.logger.Error("failed to delete durable entry", "id", tokenID, "error", err)
	}
	s.memory.Delete(tokenID)

	return s.build(ctx, tokenID, nil)
}

// build is the full-miss path: market fetch, research (cached or freshly
// generated), simulation, write-through to both tiers.
func (s *Service) build(ctx context.Context, tokenID string, md *models.TokenMarketData) (*models.ProjectEmissions, error) {
	if md == nil {
		var err error
		md, err = s.collector.FetchToken(ctx, tokenID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch market data for %s: %w", tokenID, err)
		}
	}

	res, err := s.research(ctx, tokenID, md)
	if err != nil {
		return nil, err
	}

	result := BuildResult(md, res, s.now())

	if err := s.store.SaveEmissions(ctx, result); err != nil {
		s.logger.Error("failed to persist emissions", "id", tokenID, "error", err)
	}
	s.memory.Store(tokenID, models.CacheEntry{Result: result, CachedAt: s.now()})

	s.logger.Info("built project emissions", "id", tokenID, "allocations", len(result.Allocations), "scheduleIndex", result.ScheduleIndex)
	return result, nil
}

func (s *Service) research(ctx context.Context, tokenID string, md *models.TokenMarketData) (*models.AllocationResearch, error) {
	cached, err := s.store.GetResearch(ctx, tokenID)
	if err == nil && len(cached.Allocations) > 0 {
		return cached, nil
	}
	if err != nil && !errors.Is(err, data.ErrNotFound) {
		s.logger.Error("research cache read failed", "id", tokenID, "error", err)
	}

	totalSupply := md.TotalSupply
	if totalSupply <= 0 {
		totalSupply = md.MaxSupply
	}

	res, err := s.researcher.ResearchAllocations(ctx, md.Name, md.Symbol, totalSupply)
	if err != nil {
		return nil, fmt.Errorf("failed to research allocations for %s: %w", tokenID, err)
	}
	if res == nil || len(res.Allocations) == 0 {
		return nil, fmt.Errorf("empty allocation research for %s", tokenID)
	}

	if err := s.store.SaveResearch(ctx, tokenID, res); err != nil {
		s.logger.Error("failed to persist research", "id", tokenID, "error", err)
	}

	return res, nil
}

func (s *Service) fresh(entry models.CacheEntry) bool {
	return entry.Result != nil && s.now().Sub(entry.CachedAt) < s.ttl
}

// withOverlay fetches the latest market snapshot for a cached result. When
// the fetch fails the cached result is served as-is.
func (s *Service) withOverlay(ctx context.Context, result *models.ProjectEmissions) *models.ProjectEmissions {
	md, err := s.collector.FetchToken(ctx, result.TokenID)
	if err != nil {
		s.logger.Error("market overlay fetch failed", "id", result.TokenID, "error", err)
		return result
	}
	return overlayMarket(result, md)
}

// overlayMarket copies the cached result and refreshes only the
// market-derived fields. The vesting arrays are shared with the cached value
// and never modified.
func overlayMarket(result *models.ProjectEmissions, md *models.TokenMarketData) *models.ProjectEmissions {
	if md == nil {
		return result
	}

	refreshed := *result
	refreshed.Price = md.Price
	refreshed.MarketCap = md.MarketCap
	if md.CirculatingSupply > 0 {
		refreshed.CirculatingSupply = md.CirculatingSupply
	}
	if md.Image != "" {
		refreshed.Image = md.Image
	}
	return &refreshed
}
