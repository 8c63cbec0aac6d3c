package interfaces

import (
	"context"

	"github.com/tbchen/factwatch/internal/models"
)

// ReportFiles names the four CSV outputs of one aggregation run.
type ReportFiles struct {
	PortfolioSummary string `json:"portfolio_summary"`
	DetailedReport   string `json:"detailed_report"`
	PatternSummary   string `json:"pattern_summary"`
	WatchlistSummary string `json:"watchlist_summary"`
}

// ReportService reads the artifact set and emits the aggregated reports.
type ReportService interface {
	// Generate parses and scores every artifact, then writes the four
	// reports. Output is deterministic: identical artifact sets produce
	// byte-identical files apart from the updated-at timestamp column,
	// which is pinned per run.
	Generate(ctx context.Context, watchlist *models.Watchlist) (*ReportFiles, error)
}
