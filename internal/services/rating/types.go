// Package rating provides pure calculation functions for artifact quality
// scoring. All functions are stateless and perform no I/O.
package rating

import "github.com/tbchen/factwatch/internal/models"

// Status labels an artifact by how usable its extracted data is.
type Status string

const (
	StatusComplete     Status = "complete"
	StatusGood         Status = "good"
	StatusPartial      Status = "partial"
	StatusInsufficient Status = "insufficient"
)

// Input carries everything the scorer reads. Watchlist membership is only
// enforced when WatchlistValidation is on.
type Input struct {
	Fields              *models.ExtractedFields
	ValidationPassed    bool
	InWatchlist         bool
	WatchlistValidation bool
}

// ComponentScores holds the four component scores, each in [0, 10].
type ComponentScores struct {
	EPS     float64 `json:"eps"`
	Revenue float64 `json:"revenue"`
	Analyst float64 `json:"analyst"`
	Target  float64 `json:"target"`
}

// QualityAnalysis is the output of Score.
type QualityAnalysis struct {
	Score      float64         `json:"score"`
	Status     Status          `json:"status"`
	Components ComponentScores `json:"components"`
	Overridden bool            `json:"overridden"`
	Reasoning  string          `json:"reasoning"`
}
