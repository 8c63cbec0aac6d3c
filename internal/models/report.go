package models

// CoverageStatus is the processing status of one watchlist entry.
type CoverageStatus string

const (
	CoverageProcessed        CoverageStatus = "processed"
	CoverageNotFound         CoverageStatus = "not_found"
	CoverageValidationFailed CoverageStatus = "validation_failed"
	CoverageLowQuality       CoverageStatus = "low_quality"
	CoverageMultipleFiles    CoverageStatus = "multiple_files"
)

// PortfolioRow is one row of the portfolio summary report (one per code).
type PortfolioRow struct {
	Code         string
	Name         string
	OldestMDDate string
	LatestMDDate string
	FileCount    int
	AnalystCount int
	TargetPrice  *float64
	EPSAvg       map[int]*float64 // Keyed by forecast year
	QualityScore float64
	Status       string
	UpdatedAt    string
}

// DetailedRow is one row of the detailed report (one per artifact).
type DetailedRow struct {
	Code         string
	Name         string
	MDDate       string
	AnalystCount int
	TargetPrice  *float64
	EPS          map[int]*ValueRange // Keyed by forecast year
	QualityScore float64
	Status       string
	Validation   string
	Filename     string
	ArtifactURL  string
	UpdatedAt    string
}

// PatternRow is one row of the search-pattern effectiveness report.
type PatternRow struct {
	Pattern      string
	UsageCount   int
	AvgScore     float64
	MaxScore     float64
	MinScore     float64
	CompanyCount int
	Status       string
	Category     string
	Rating       string
	UpdatedAt    string
}

// CoverageRow is one row of the watchlist coverage report.
type CoverageRow struct {
	Code         string
	Name         string
	Status       CoverageStatus
	FileCount    int
	BestScore    float64
	OldestMDDate string
	LatestMDDate string
	AnalystCount int
	TargetPrice  *float64
	Keywords     string
	Note         string
	UpdatedAt    string
}
