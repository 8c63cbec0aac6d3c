package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbchen/factwatch/internal/common"
	"github.com/tbchen/factwatch/internal/interfaces"
	"github.com/tbchen/factwatch/internal/models"
	"github.com/tbchen/factwatch/internal/services/artifacts"
	"github.com/tbchen/factwatch/internal/services/cache"
	"github.com/tbchen/factwatch/internal/services/credentials"
	"github.com/tbchen/factwatch/internal/services/ratelimit"
)

const consensusBody = `台積電 (2330-TW) 最新 FactSet 調查
2025 EPS 平均值 46.00 最高 50.00 最低 42.00 中位數 46.00
共 30 位分析師, 目標價 850 元
鉅亨網新聞中心 2025-06-20 14:00`

// apiCall is one recorded request against the fake search endpoint.
type apiCall struct {
	key   string
	query string
}

// fakeAPI is an httptest-backed Custom Search endpoint with scriptable
// quota failures.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	failure func(call int, key string) bool // true: respond 429
}

func (f *fakeAPI) handler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	query := r.URL.Query().Get("q")
	key := r.URL.Query().Get("key")
	f.calls = append(f.calls, apiCall{key: key, query: query})
	call := len(f.calls)
	f.mu.Unlock()

	if f.failure != nil && f.failure(call, key) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"errors":[{"reason":"quotaExceeded"}]}}`))
		return
	}

	response := models.RawSearchResponse{
		Items: []models.RawSearchItem{
			{
				Title:       "台積電(2330-TW) FactSet 目標價",
				Snippet:     "FactSet 分析師 EPS",
				Link:        "https://news.cnyes.com/news/id/" + r.URL.Query().Get("cx") + "?q=" + query,
				DisplayLink: "news.cnyes.com",
			},
		},
	}
	response.SearchInformation.TotalResults = "1"
	json.NewEncoder(w).Encode(response)
}

func (f *fakeAPI) recorded() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

// stubFetcher serves a canned body, suffixed with the URL so every hit
// fingerprints distinctly.
type stubFetcher struct {
	body  string
	title string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (*interfaces.FetchResult, error) {
	return &interfaces.FetchResult{
		Body:       s.body + "\n來源: " + url,
		FinalURL:   url,
		Title:      s.title,
		StatusCode: http.StatusOK,
	}, nil
}

type driverFixture struct {
	service interfaces.SearchService
	pool    *credentials.Pool
	store   interfaces.ArtifactStore
	cache   interfaces.CacheService
	config  *common.SearchConfig
}

func newDriverFixture(t *testing.T, api *fakeAPI, catalog *Catalog, keys []string, fetcher interfaces.FetchService) *driverFixture {
	t.Helper()
	logger := common.GetLogger()

	server := httptest.NewServer(http.HandlerFunc(api.handler))
	t.Cleanup(server.Close)

	config := &common.SearchConfig{
		RatePerSecond:   1000,
		DailyQuota:      100000,
		MinQuality:      3,
		DesiredCount:    100,
		TopHitsPerQuery: 1,
		RequestTimeout:  common.Duration(5 * time.Second),
		BackoffInitial:  common.Duration(time.Millisecond),
		BackoffMax:      common.Duration(4 * time.Millisecond),
	}

	pool, err := credentials.NewPool(keys, []string{"cse-1"}, logger)
	require.NoError(t, err)

	cacheSvc, err := cache.NewService(t.TempDir(), time.Hour, logger)
	require.NoError(t, err)

	store, err := artifacts.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	watchlist := models.NewWatchlist([]models.WatchlistEntry{{Code: "2330", Name: "台積電"}})

	client := NewClient(WithBaseURL(server.URL), WithLogger(logger))
	limiter := ratelimit.NewLimiter(config.RatePerSecond, config.DailyQuota, logger)

	service := NewService(config, catalog, client, pool, limiter, cacheSvc, fetcher, store, watchlist, true, logger)
	return &driverFixture{service: service, pool: pool, store: store, cache: cacheSvc, config: config}
}

func consensusFetcher() *stubFetcher {
	return &stubFetcher{body: consensusBody, title: "台積電(2330-TW) FactSet 目標價"}
}

// plainFetcher returns its body verbatim.
type plainFetcher struct {
	body  string
	title string
}

func (p *plainFetcher) Fetch(_ context.Context, url string) (*interfaces.FetchResult, error) {
	return &interfaces.FetchResult{Body: p.body, FinalURL: url, Title: p.title, StatusCode: http.StatusOK}, nil
}

func fiveTemplateCatalog() *Catalog {
	return &Catalog{templates: []Template{
		{TierFactsetDirect, `{symbol} {name} FactSet EPS 預估 一`},
		{TierFactsetDirect, `{symbol} {name} FactSet EPS 預估 二`},
		{TierEPSForecast, `{symbol} {name} EPS 預估 三`},
		{TierEPSForecast, `{symbol} {name} EPS 預估 四`},
		{TierFactsetSecondary, `{symbol} {name} FactSet 五`},
	}}
}

func TestCollect_CredentialRotation(t *testing.T) {
	// The first credential hits its quota on its third call.
	keyOneCalls := 0
	var mu sync.Mutex
	api := &fakeAPI{failure: func(_ int, key string) bool {
		mu.Lock()
		defer mu.Unlock()
		if key == "key-1" {
			keyOneCalls++
			return keyOneCalls == 3
		}
		return false
	}}

	fixture := newDriverFixture(t, api, fiveTemplateCatalog(), []string{"key-1", "key-2"}, consensusFetcher())

	stats, err := fixture.service.Collect(context.Background(), models.WatchlistEntry{Code: "2330", Name: "台積電"})
	require.NoError(t, err)

	calls := api.recorded()
	require.Len(t, calls, 6) // 5 queries + 1 retry after rotation

	keys := make([]string, len(calls))
	for i, call := range calls {
		keys[i] = call.key
	}
	assert.Equal(t, []string{"key-1", "key-1", "key-1", "key-2", "key-2", "key-2"}, keys)

	// The retry reissues the query that tripped the quota.
	assert.Equal(t, calls[2].query, calls[3].query)

	status := fixture.pool.Status()
	require.Len(t, status, 2)
	assert.True(t, status[0].Exhausted)
	assert.False(t, status[1].Exhausted)

	assert.Equal(t, 5, stats.QueriesIssued)
	assert.Equal(t, 5, stats.Accepted)
	assert.Zero(t, stats.ValidationFail)
}

func TestCollect_AllKeysExhausted(t *testing.T) {
	api := &fakeAPI{failure: func(int, string) bool { return true }}
	fixture := newDriverFixture(t, api, fiveTemplateCatalog(), []string{"key-1", "key-2"}, consensusFetcher())

	stats, err := fixture.service.Collect(context.Background(), models.WatchlistEntry{Code: "2330", Name: "台積電"})
	require.ErrorIs(t, err, credentials.ErrAllKeysExhausted)
	assert.Zero(t, stats.QueriesIssued)
	assert.Zero(t, fixture.pool.Remaining())
}

func TestCollect_CacheHit(t *testing.T) {
	api := &fakeAPI{}
	catalog := &Catalog{templates: []Template{{TierFactsetDirect, `{symbol} {name} FactSet EPS 預估`}}}
	fixture := newDriverFixture(t, api, catalog, []string{"key-1"}, consensusFetcher())

	cached := &models.RawSearchResponse{
		Items: []models.RawSearchItem{{
			Title:       "台積電(2330-TW) FactSet 目標價",
			Link:        "https://news.cnyes.com/news/id/cached",
			DisplayLink: "news.cnyes.com",
		}},
	}
	require.NoError(t, fixture.cache.Set("2330 台積電 FactSet EPS 預估", cached))

	stats, err := fixture.service.Collect(context.Background(), models.WatchlistEntry{Code: "2330", Name: "台積電"})
	require.NoError(t, err)

	assert.Empty(t, api.recorded(), "cached query must not reach the API")
	assert.Equal(t, 1, stats.QueriesIssued)
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, 1, stats.Accepted)
}

func TestCollect_ValidationRejectionPersistedAtZero(t *testing.T) {
	api := &fakeAPI{}
	catalog := &Catalog{templates: []Template{{TierFactsetDirect, `{symbol} {name} FactSet EPS 預估`}}}

	// The code appears only as a price target of another company.
	fetcher := &plainFetcher{
		body:  "本周個股觀察: 1234 某某 表現亮眼, 目標價升至 2330元, 投資人持續關注後市。",
		title: "外資報告: 本周個股目標價整理",
	}
	fixture := newDriverFixture(t, api, catalog, []string{"key-1"}, fetcher)

	stats, err := fixture.service.Collect(context.Background(), models.WatchlistEntry{Code: "2330", Name: "台積電"})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.ValidationFail)
	assert.Zero(t, stats.Accepted)

	stored, err := fixture.store.Scan()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].ContentValidation.IsValid)
	assert.Zero(t, stored[0].QualityScore)
}

func TestCollect_StopsAtDesiredCount(t *testing.T) {
	api := &fakeAPI{}
	fixture := newDriverFixture(t, api, fiveTemplateCatalog(), []string{"key-1"}, consensusFetcher())
	fixture.config.DesiredCount = 2

	stats, err := fixture.service.Collect(context.Background(), models.WatchlistEntry{Code: "2330", Name: "台積電"})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Accepted)
	assert.Equal(t, 2, stats.QueriesIssued)
}

func TestCollect_CancelledContext(t *testing.T) {
	api := &fakeAPI{}
	fixture := newDriverFixture(t, api, fiveTemplateCatalog(), []string{"key-1"}, consensusFetcher())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fixture.service.Collect(ctx, models.WatchlistEntry{Code: "2330", Name: "台積電"})
	assert.ErrorIs(t, err, context.Canceled)
}
