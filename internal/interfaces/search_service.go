package interfaces

import (
	"context"

	"github.com/tbchen/factwatch/internal/models"
)

// CollectStats summarizes one company's pass through the search driver.
type CollectStats struct {
	QueriesIssued  int `json:"queries_issued"`
	CacheHits      int `json:"cache_hits"`
	HitsProcessed  int `json:"hits_processed"`
	Fetched        int `json:"fetched"`
	ValidationFail int `json:"validation_fail"`
	BelowThreshold int `json:"below_threshold"`
	Accepted       int `json:"accepted"`
	Duplicates     int `json:"duplicates"`
}

// SearchService drives the search catalog for one company: query, rank,
// fetch, validate, extract, score and persist accepted artifacts.
type SearchService interface {
	// Collect runs the template catalog for (code, name) until
	// desiredCount artifacts scored at or above minQuality have been
	// stored, the catalog is exhausted, or the credential pool is
	// exhausted. Returns credentials.ErrAllKeysExhausted in the last
	// case so callers can persist progress and stop.
	Collect(ctx context.Context, entry models.WatchlistEntry) (*CollectStats, error)
}
