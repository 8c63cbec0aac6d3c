package interfaces

import "github.com/tbchen/factwatch/internal/models"

// CacheService memoizes raw search responses on disk with a TTL.
type CacheService interface {
	// Get returns the cached response for a query, or nil on miss or expiry.
	Get(query string) *models.RawSearchResponse

	// Set stores a response for a query.
	Set(query string, data *models.RawSearchResponse) error

	// Sweep removes expired entries; returns the number removed.
	Sweep() (int, error)

	// Clear removes all entries.
	Clear() error
}
