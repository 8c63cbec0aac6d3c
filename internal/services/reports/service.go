// Package reports aggregates the artifact directory into four CSV tables:
// portfolio summary, detailed per-artifact report, search-pattern
// effectiveness and watchlist coverage. Every artifact is re-extracted and
// re-scored on each run, so reports always reflect the current scoring
// rules rather than the score frozen in the artifact header.
package reports

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/tbchen/factwatch/internal/common"
	"github.com/tbchen/factwatch/internal/interfaces"
	"github.com/tbchen/factwatch/internal/models"
	"github.com/tbchen/factwatch/internal/services/extract"
	"github.com/tbchen/factwatch/internal/services/rating"
	"github.com/tbchen/factwatch/internal/services/search"
)

// Report filenames within the reports directory.
const (
	PortfolioFilename = "portfolio_summary.csv"
	DetailedFilename  = "detailed_report.csv"
	PatternFilename   = "pattern_summary.csv"
	CoverageFilename  = "watchlist_summary.csv"
)

// scoredArtifact pairs an artifact with its re-extracted fields and fresh
// quality analysis.
type scoredArtifact struct {
	artifact *models.Artifact
	fields   *models.ExtractedFields
	analysis rating.QualityAnalysis
}

// Service builds the aggregated reports.
type Service struct {
	config  *common.Config
	store   interfaces.ArtifactStore
	catalog *search.Catalog
	logger  arbor.ILogger

	// now is the run clock; every row of one run carries the same
	// updated-at value.
	now func() time.Time
}

// NewService creates the report builder.
func NewService(config *common.Config, store interfaces.ArtifactStore, catalog *search.Catalog, logger arbor.ILogger) *Service {
	return &Service{
		config:  config,
		store:   store,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

// Generate scans the artifact directory and writes the four reports.
// Output is deterministic for a fixed artifact set and run clock.
func (s *Service) Generate(ctx context.Context, watchlist *models.Watchlist) (*interfaces.ReportFiles, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	artifacts, err := s.store.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan artifacts: %w", err)
	}

	scored := make([]scoredArtifact, 0, len(artifacts))
	for _, artifact := range artifacts {
		fields := extract.Extract(artifact.Body)
		analysis := rating.Score(rating.Input{
			Fields:              fields,
			ValidationPassed:    artifact.ContentValidation.IsValid,
			InWatchlist:         watchlist.Contains(artifact.StockCode),
			WatchlistValidation: s.config.Watchlist.Validate,
		})
		scored = append(scored, scoredArtifact{artifact: artifact, fields: fields, analysis: analysis})
	}

	updatedAt := s.now().Format("2006/01/02")

	files := &interfaces.ReportFiles{
		PortfolioSummary: filepath.Join(s.config.Reports.Dir, PortfolioFilename),
		DetailedReport:   filepath.Join(s.config.Reports.Dir, DetailedFilename),
		PatternSummary:   filepath.Join(s.config.Reports.Dir, PatternFilename),
		WatchlistSummary: filepath.Join(s.config.Reports.Dir, CoverageFilename),
	}

	if err := writePortfolioCSV(files.PortfolioSummary, s.buildPortfolioRows(scored, watchlist, updatedAt)); err != nil {
		return nil, err
	}
	if err := writeDetailedCSV(files.DetailedReport, s.buildDetailedRows(scored, watchlist, updatedAt)); err != nil {
		return nil, err
	}
	if err := writePatternCSV(files.PatternSummary, s.buildPatternRows(scored, updatedAt)); err != nil {
		return nil, err
	}
	if err := writeCoverageCSV(files.WatchlistSummary, s.buildCoverageRows(scored, watchlist, updatedAt)); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("artifacts", len(scored)).
		Int("companies", watchlist.Len()).
		Str("dir", s.config.Reports.Dir).
		Msg("Reports generated")
	return files, nil
}

// artifactURL builds the public link for one artifact from the configured
// base URL prefix. Without a prefix the bare filename is emitted.
func (s *Service) artifactURL(filename string) string {
	base := s.config.Reports.ArtifactBaseURL
	if base == "" {
		return filename
	}
	if base[len(base)-1] != '/' {
		base += "/"
	}
	return base + filename
}
