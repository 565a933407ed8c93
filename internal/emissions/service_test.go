package emissions

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/songzhibin97/tokenflux/internal/data"
	"github.com/songzhibin97/tokenflux/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu        sync.Mutex
	emissions map[string]*models.ProjectEmissions
	research  map[string]*models.AllocationResearch
	getErr    error
	deletes   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		emissions: make(map[string]*models.ProjectEmissions),
		research:  make(map[string]*models.AllocationResearch),
	}
}

func (s *fakeStore) SaveEmissions(_ context.Context, result *models.ProjectEmissions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emissions[result.TokenID] = result
	return nil
}

func (s *fakeStore) GetEmissions(_ context.Context, tokenID string) (*models.ProjectEmissions, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, time.Time{}, s.getErr
	}
	if result, ok := s.emissions[tokenID]; ok {
		return result, time.Now(), nil
	}
	return nil, time.Time{}, data.ErrNotFound
}

func (s *fakeStore) DeleteEmissions(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	delete(s.emissions, tokenID)
	return nil
}

func (s *fakeStore) SaveResearch(_ context.Context, tokenID string, research *models.AllocationResearch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.research[tokenID] = research
	return nil
}

func (s *fakeStore) GetResearch(_ context.Context, tokenID string) (*models.AllocationResearch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if research, ok := s.research[tokenID]; ok {
		return research, nil
	}
	return nil, data.ErrNotFound
}

type fakeCollector struct {
	mu     sync.Mutex
	tokens map[string]*models.TokenMarketData
	single int
	batch  int
}

func (c *fakeCollector) FetchToken(_ context.Context, id string) (*models.TokenMarketData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.single++
	if md, ok := c.tokens[id]; ok {
		copied := *md
		return &copied, nil
	}
	return nil, fmt.Errorf("unknown token: %s", id)
}

func (c *fakeCollector) FetchTokens(_ context.Context, ids []string) (map[string]*models.TokenMarketData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batch++
	out := make(map[string]*models.TokenMarketData)
	for _, id := range ids {
		if md, ok := c.tokens[id]; ok {
			copied := *md
			out[id] = &copied
		}
	}
	return out, nil
}

type fakeResearcher struct {
	mu       sync.Mutex
	research map[string]*models.AllocationResearch
	calls    int32
}

func (r *fakeResearcher) ResearchAllocations(_ context.Context, name, _ string, _ float64) (*models.AllocationResearch, error) {
	atomic.AddInt32(&r.calls, 1)
	r.mu.Lock()
	defer r.mu.Unlock()
	if research, ok := r.research[name]; ok {
		return research, nil
	}
	return nil, fmt.Errorf("no research available for %s", name)
}

type nopLogger struct{}

func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}

func newTestService(store *fakeStore, collector *fakeCollector, researcher *fakeResearcher) *Service {
	s := NewService(store, collector, researcher, nopLogger{})
	s.now = func() time.Time { return testNow }
	return s
}

func testFixtures(ids ...string) (*fakeStore, *fakeCollector, *fakeResearcher) {
	store := newFakeStore()
	collector := &fakeCollector{tokens: make(map[string]*models.TokenMarketData)}
	researcher := &fakeResearcher{research: make(map[string]*models.AllocationResearch)}

	for _, id := range ids {
		md := testMarketData()
		md.ID = id
		md.Name = id
		collector.tokens[id] = md
		researcher.research[id] = testResearch()
	}

	return store, collector, researcher
}

func TestService_GetProjectEmissions_ColdMiss(t *testing.T) {
	store, collector, researcher := testFixtures("testcoin")
	service := newTestService(store, collector, researcher)

	ctx := context.Background()
	result, err := service.GetProjectEmissions(ctx, "testcoin")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "testcoin", result.TokenID)
	assert.NotEmpty(t, result.TotalSeries)
	assert.EqualValues(t, 1, atomic.LoadInt32(&researcher.calls))

	// 双层缓存都被写入
	store.mu.Lock()
	_, durable := store.emissions["testcoin"]
	store.mu.Unlock()
	assert.True(t, durable)
	_, warm := service.memory.Load("testcoin")
	assert.True(t, warm)
}

func TestService_GetProjectEmissions_Idempotent(t *testing.T) {
	store, collector, researcher := testFixtures("testcoin")
	service := newTestService(store, collector, researcher)

	ctx := context.Background()
	first, err := service.GetProjectEmissions(ctx, "testcoin")
	require.NoError(t, err)

	// 两次调用之间行情变化：覆盖字段更新，解锁数组完全一致
	collector.mu.Lock()
	collector.tokens["testcoin"].Price = 9.99
	collector.mu.Unlock()

	second, err := service.GetProjectEmissions(ctx, "testcoin")
	require.NoError(t, err)

	assert.Equal(t, first.TotalSeries, second.TotalSeries)
	assert.Equal(t, first.Inflation, second.Inflation)
	assert.Equal(t, first.Allocations, second.Allocations)
	assert.Equal(t, first.Months, second.Months)
	assert.Equal(t, 9.99, second.Price)

	// 研究和构建只发生一次
	assert.EqualValues(t, 1, atomic.LoadInt32(&researcher.calls))
}

func TestService_GetProjectEmissions_DurableHit(t *testing.T) {
	store, collector, researcher := testFixtures("testcoin")
	service := newTestService(store, collector, researcher)

	cached := BuildResult(collector.tokens["testcoin"], testResearch(), testNow)
	store.emissions["testcoin"] = cached

	ctx := context.Background()
	result, err := service.GetProjectEmissions(ctx, "testcoin")
	require.NoError(t, err)

	assert.Equal(t, cached.TotalSeries, result.TotalSeries)
	// 持久层命中无需AI研究
	assert.Zero(t, atomic.LoadInt32(&researcher.calls))
	// 内存层被回填
	_, warm := service.memory.Load("testcoin")
	assert.True(t, warm)
}

func TestService_GetProjectEmissions_TTLExpiry(t *testing.T) {
	store, collector, researcher := testFixtures("testcoin")
	service := newTestService(store, collector, researcher)

	ctx := context.Background()
	_, err := service.GetProjectEmissions(ctx, "testcoin")
	require.NoError(t, err)

	// 时钟推进超过TTL：内存项过期，回落到持久层而不是重建
	service.now = func() time.Time { return testNow.Add(defaultTTL + time.Minute) }

	_, err = service.GetProjectEmissions(ctx, "testcoin")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&researcher.calls))
}

func TestService_GetProjectEmissions_StoreFailureIsMiss(t *testing.T) {
	store, collector, researcher := testFixtures("testcoin")
	store.getErr = fmt.Errorf("connection refused")
	service := newTestService(store, collector, researcher)

	ctx := context.Background()
	result, err := service.GetProjectEmissions(ctx, "testcoin")
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestService_GetProjectEmissions_UpstreamUnavailable(t *testing.T) {
	store, collector, researcher := testFixtures("testcoin")
	delete(collector.tokens, "testcoin")
	service := newTestService(store, collector, researcher)

	ctx := context.Background()
	result, err := service.GetProjectEmissions(ctx, "testcoin")
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestService_InvalidateAndRebuild(t *testing.T) {
	store, collector, researcher := testFixtures("testcoin")
	service := newTestService(store, collector, researcher)

	ctx := context.Background()
	_, err := service.GetProjectEmissions(ctx, "testcoin")
	require.NoError(t, err)

	rebuilt, err := service.InvalidateAndRebuild(ctx, "testcoin")
	require.NoError(t, err)
	require.NotNil(t, rebuilt)

	assert.Equal(t, 1, store.deletes)
	// 研究缓存独立于排放缓存：重建时复用
	assert.EqualValues(t, 1, atomic.LoadInt32(&researcher.calls))
}

func TestService_Batch_PartialFailure(t *testing.T) {
	store, collector, researcher := testFixtures("alpha", "beta", "gamma")
	// beta 的研究源为空：该键从结果中缺失，不影响其他键
	delete(researcher.research, "beta")
	service := newTestService(store, collector, researcher)

	var mu sync.Mutex
	var progressed []string

	ctx := context.Background()
	results := service.GetBatchProjectEmissions(ctx, []string{"alpha", "beta", "gamma"}, func(id string, _ *models.ProjectEmissions) {
		mu.Lock()
		progressed = append(progressed, id)
		mu.Unlock()
	})

	require.Len(t, results, 2)
	assert.Contains(t, results, "alpha")
	assert.Contains(t, results, "gamma")
	assert.NotContains(t, results, "beta")

	mu.Lock()
	assert.ElementsMatch(t, []string{"alpha", "gamma"}, progressed)
	mu.Unlock()

	// 批量请求只发出一次合并的行情调用
	assert.Equal(t, 1, collector.batch)
	assert.Zero(t, collector.single)
}

func TestService_Batch_ServesWarmAndDurableHits(t *testing.T) {
	store, collector, researcher := testFixtures("alpha", "beta")
	service := newTestService(store, collector, researcher)

	ctx := context.Background()
	// alpha 预热到内存层，beta 只在持久层
	_, err := service.GetProjectEmissions(ctx, "alpha")
	require.NoError(t, err)
	store.emissions["beta"] = BuildResult(collector.tokens["beta"], testResearch(), testNow)

	results := service.GetBatchProjectEmissions(ctx, []string{"alpha", "beta"}, nil)
	require.Len(t, results, 2)

	// 两个键都无需重新研究
	assert.EqualValues(t, 1, atomic.LoadInt32(&researcher.calls))
}

func TestService_ConcurrentColdMiss_Converges(t *testing.T) {
	store, collector, researcher := testFixtures("testcoin")
	service := newTestService(store, collector, researcher)

	ctx := context.Background()
	var wg sync.WaitGroup
	results := make([]*models.ProjectEmissions, 2)
	errs := make([]error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = service.GetProjectEmissions(ctx, "testcoin")
		}(i)
	}
	wg.Wait()

	// 并发冷未命中可能触发两次构建；结果必须幂等收敛
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, results[0].TotalSeries, results[1].TotalSeries)
	assert.Equal(t, results[0].Allocations, results[1].Allocations)
}
