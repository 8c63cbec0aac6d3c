// Package watchlist loads and validates the CSV watchlist of in-scope
// companies. The file carries two columns (代號,名稱); a header row is
// auto-detected and skipped.
package watchlist

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/tbchen/factwatch/internal/models"
)

// LoadResult is the outcome of loading one watchlist file.
type LoadResult struct {
	Watchlist *models.Watchlist
	Stats     models.WatchlistStats
}

// Loader reads watchlist CSV files.
type Loader struct {
	logger arbor.ILogger
}

// NewLoader creates a watchlist loader.
func NewLoader(logger arbor.ILogger) *Loader {
	return &Loader{logger: logger}
}

// Load reads, decodes and validates the watchlist at path. Duplicate codes
// keep the first occurrence; invalid rows are counted, logged at debug
// level and dropped. An empty result is a configuration error.
func (l *Loader) Load(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist %s: %w", path, err)
	}

	text, encoding, err := decodeFile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode watchlist %s: %w", path, err)
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1 // Tolerate ragged rows; validated per row
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse watchlist %s: %w", path, err)
	}

	stats := models.WatchlistStats{
		Distribution: make(map[string]int),
		Encoding:     encoding,
	}
	seen := make(map[string]bool)
	var entries []models.WatchlistEntry

	for i, record := range records {
		if len(record) < 2 {
			if i == 0 {
				continue // Tolerate a malformed first line
			}
			stats.TotalRows++
			stats.Invalid++
			continue
		}

		entry := models.WatchlistEntry{
			Code: strings.TrimSpace(record[0]),
			Name: strings.TrimSpace(record[1]),
		}

		// Header detection: only the first row may carry column names.
		if i == 0 && isHeaderRow(entry) {
			continue
		}
		stats.TotalRows++

		if err := entry.Validate(); err != nil {
			stats.Invalid++
			l.logger.Debug().Str("stage", "ingest").Int("row", i+1).Err(err).Msg("Dropping invalid watchlist row")
			continue
		}

		if seen[entry.Code] {
			stats.Duplicates++
			continue
		}
		seen[entry.Code] = true

		stats.Valid++
		stats.Distribution[rangeBucket(entry.Code)]++
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("watchlist %s contains no valid entries", path)
	}

	l.logger.Info().
		Str("stage", "ingest").
		Str("path", path).
		Str("encoding", encoding).
		Int("total", stats.TotalRows).
		Int("valid", stats.Valid).
		Int("invalid", stats.Invalid).
		Int("duplicates", stats.Duplicates).
		Msg("Watchlist loaded")
	for bucket, count := range stats.Distribution {
		l.logger.Debug().Str("range", bucket).Int("count", count).Msg("Watchlist code distribution")
	}

	return &LoadResult{
		Watchlist: models.NewWatchlist(entries),
		Stats:     stats,
	}, nil
}

// isHeaderRow reports whether a first row looks like column names rather
// than data.
func isHeaderRow(entry models.WatchlistEntry) bool {
	if entry.Validate() == nil {
		return false
	}
	code := strings.ToLower(entry.Code)
	return code == "代號" || code == "code" || code == "股票代號" || code == "symbol"
}

// rangeBucket maps a code to its per-thousand range, e.g. "2000-2999".
func rangeBucket(code string) string {
	thousand := code[0] - '0'
	return fmt.Sprintf("%d000-%d999", thousand, thousand)
}
