// Package cache memoizes raw search responses on disk, one JSON file per
// query, keyed by an md5 of the query text. Entries expire after a
// configured max-age and are deleted lazily on access or via Sweep.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/tbchen/factwatch/internal/models"
)

// Service is the disk-backed search cache.
type Service struct {
	dir    string
	maxAge time.Duration
	logger arbor.ILogger
}

// NewService creates a search cache rooted at dir.
func NewService(dir string, maxAge time.Duration, logger arbor.ILogger) (*Service, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &Service{
		dir:    dir,
		maxAge: maxAge,
		logger: logger,
	}, nil
}

// Get returns the cached response for a query, or nil on miss. Expired
// entries are deleted on access.
func (s *Service) Get(query string) *models.RawSearchResponse {
	path := s.pathFor(query)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var cached models.CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupt entry, drop it.
		os.Remove(path)
		return nil
	}

	if time.Since(cached.CachedAt) >= s.maxAge {
		os.Remove(path)
		return nil
	}

	s.logger.Debug().Str("query", query).Msg("Search cache hit")
	return &cached.Data
}

// Set stores a response for a query. The write is atomic: a temp file in
// the same directory is renamed over the target.
func (s *Service) Set(query string, data *models.RawSearchResponse) error {
	cached := models.CachedResponse{
		Query:    query,
		CachedAt: time.Now(),
		Data:     *data,
	}

	payload, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	path := s.pathFor(query)
	tmp, err := os.CreateTemp(s.dir, "cache-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to finalize cache entry: %w", err)
	}

	return nil
}

// Sweep removes expired entries and returns the number removed. Run once
// at startup.
func (s *Service) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var cached models.CachedResponse
		if err := json.Unmarshal(data, &cached); err != nil || time.Since(cached.CachedAt) >= s.maxAge {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Swept expired search cache entries")
	}
	return removed, nil
}

// Clear removes all cache entries.
func (s *Service) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove cache entry %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func (s *Service) pathFor(query string) string {
	sum := md5.Sum([]byte(query))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".json")
}
