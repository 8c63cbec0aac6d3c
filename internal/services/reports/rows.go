package reports

import (
	"sort"
	"strings"

	"github.com/tbchen/factwatch/internal/models"
	"github.com/tbchen/factwatch/internal/services/rating"
	"github.com/tbchen/factwatch/internal/services/search"
)

// Effectiveness rating thresholds on a pattern's average score.
const (
	ratingExcellent = 8.0
	ratingGood      = 6.0
	ratingFair      = 3.0
)

// groupByCode buckets scored artifacts per stock code with a deterministic
// in-group order (filename ascending).
func groupByCode(scored []scoredArtifact) map[string][]scoredArtifact {
	groups := make(map[string][]scoredArtifact)
	for _, sa := range scored {
		groups[sa.artifact.StockCode] = append(groups[sa.artifact.StockCode], sa)
	}
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].artifact.Filename < group[j].artifact.Filename
		})
	}
	return groups
}

// sortedCodes returns the group keys in ascending order.
func sortedCodes(groups map[string][]scoredArtifact) []string {
	codes := make([]string, 0, len(groups))
	for code := range groups {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// bestOf picks the highest-scoring artifact of a group; ties resolve to
// the filename-ascending first.
func bestOf(group []scoredArtifact) scoredArtifact {
	best := group[0]
	for _, sa := range group[1:] {
		if sa.analysis.Score > best.analysis.Score {
			best = sa
		}
	}
	return best
}

// mdDateSpan returns the earliest and latest non-empty md_date of a group.
// YYYY/MM/DD compares correctly as a string.
func mdDateSpan(group []scoredArtifact) (oldest, latest string) {
	for _, sa := range group {
		date := sa.artifact.MDDate
		if date == "" {
			continue
		}
		if oldest == "" || date < oldest {
			oldest = date
		}
		if date > latest {
			latest = date
		}
	}
	return oldest, latest
}

func anyValid(group []scoredArtifact) bool {
	for _, sa := range group {
		if sa.artifact.ContentValidation.IsValid {
			return true
		}
	}
	return false
}

// buildPortfolioRows emits one row per code present in the artifact set,
// dropping codes outside the watchlist and codes with only invalidated
// artifacts.
func (s *Service) buildPortfolioRows(scored []scoredArtifact, watchlist *models.Watchlist, updatedAt string) []models.PortfolioRow {
	groups := groupByCode(scored)

	rows := make([]models.PortfolioRow, 0, len(groups))
	for _, code := range sortedCodes(groups) {
		entry, ok := watchlist.Lookup(code)
		if !ok {
			continue
		}
		group := groups[code]
		if !anyValid(group) {
			continue
		}

		best := bestOf(group)
		oldest, latest := mdDateSpan(group)

		epsAvg := make(map[int]*float64, len(models.ForecastYears))
		for _, year := range models.ForecastYears {
			if r := best.fields.EPS[year]; r != nil {
				epsAvg[year] = r.Avg
			}
		}

		rows = append(rows, models.PortfolioRow{
			Code:         code,
			Name:         entry.Name,
			OldestMDDate: oldest,
			LatestMDDate: latest,
			FileCount:    len(group),
			AnalystCount: best.fields.AnalystCount,
			TargetPrice:  best.fields.TargetPrice,
			EPSAvg:       epsAvg,
			QualityScore: best.analysis.Score,
			Status:       string(best.analysis.Status),
			UpdatedAt:    updatedAt,
		})
	}
	return rows
}

// buildDetailedRows emits one row per artifact, invalidated ones included.
func (s *Service) buildDetailedRows(scored []scoredArtifact, watchlist *models.Watchlist, updatedAt string) []models.DetailedRow {
	groups := groupByCode(scored)

	var rows []models.DetailedRow
	for _, code := range sortedCodes(groups) {
		name := ""
		if entry, ok := watchlist.Lookup(code); ok {
			name = entry.Name
		}

		for _, sa := range groups[code] {
			if name == "" {
				name = sa.artifact.Company
			}

			validation := "invalid"
			if sa.artifact.ContentValidation.IsValid {
				validation = "valid"
			}

			eps := make(map[int]*models.ValueRange, len(models.ForecastYears))
			for _, year := range models.ForecastYears {
				if r := sa.fields.EPS[year]; r != nil {
					eps[year] = r
				}
			}

			rows = append(rows, models.DetailedRow{
				Code:         code,
				Name:         name,
				MDDate:       sa.artifact.MDDate,
				AnalystCount: sa.fields.AnalystCount,
				TargetPrice:  sa.fields.TargetPrice,
				EPS:          eps,
				QualityScore: sa.analysis.Score,
				Status:       string(sa.analysis.Status),
				Validation:   validation,
				Filename:     sa.artifact.Filename,
				ArtifactURL:  s.artifactURL(sa.artifact.Filename),
				UpdatedAt:    updatedAt,
			})
		}
	}
	return rows
}

// buildPatternRows aggregates artifacts by normalized search pattern.
func (s *Service) buildPatternRows(scored []scoredArtifact, updatedAt string) []models.PatternRow {
	type patternAgg struct {
		count     int
		sum       float64
		max       float64
		min       float64
		companies map[string]struct{}
	}

	aggs := make(map[string]*patternAgg)
	for _, sa := range scored {
		query := sa.artifact.SearchQuery
		if query == "" {
			continue
		}
		pattern := search.Normalize(query, sa.artifact.StockCode, sa.artifact.Company)
		if search.IsNoisePattern(pattern) {
			continue
		}

		agg := aggs[pattern]
		if agg == nil {
			agg = &patternAgg{min: sa.analysis.Score, max: sa.analysis.Score, companies: make(map[string]struct{})}
			aggs[pattern] = agg
		}
		agg.count++
		agg.sum += sa.analysis.Score
		if sa.analysis.Score > agg.max {
			agg.max = sa.analysis.Score
		}
		if sa.analysis.Score < agg.min {
			agg.min = sa.analysis.Score
		}
		agg.companies[sa.artifact.StockCode] = struct{}{}
	}

	categories := s.patternCategories()

	rows := make([]models.PatternRow, 0, len(aggs))
	for pattern, agg := range aggs {
		avg := agg.sum / float64(agg.count)

		category := categories[pattern]
		if category == "" {
			category = "custom"
		}

		rows = append(rows, models.PatternRow{
			Pattern:      pattern,
			UsageCount:   agg.count,
			AvgScore:     avg,
			MaxScore:     agg.max,
			MinScore:     agg.min,
			CompanyCount: len(agg.companies),
			Status:       string(rating.StatusFor(avg)),
			Category:     category,
			Rating:       effectivenessRating(avg),
			UpdatedAt:    updatedAt,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AvgScore != rows[j].AvgScore {
			return rows[i].AvgScore > rows[j].AvgScore
		}
		return rows[i].Pattern < rows[j].Pattern
	})
	return rows
}

// patternCategories maps each catalog template, in normalized form, to its
// tier name.
func (s *Service) patternCategories() map[string]string {
	categories := make(map[string]string, s.catalog.Len())
	for _, template := range s.catalog.All() {
		categories[search.Normalize(template.Text, "", "")] = template.Tier
	}
	return categories
}

func effectivenessRating(avg float64) string {
	switch {
	case avg >= ratingExcellent:
		return "excellent"
	case avg >= ratingGood:
		return "good"
	case avg >= ratingFair:
		return "fair"
	default:
		return "poor"
	}
}

// buildCoverageRows emits one row per watchlist entry in code order.
func (s *Service) buildCoverageRows(scored []scoredArtifact, watchlist *models.Watchlist, updatedAt string) []models.CoverageRow {
	groups := groupByCode(scored)

	entries := make([]models.WatchlistEntry, len(watchlist.Entries))
	copy(entries, watchlist.Entries)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Code < entries[j].Code })

	rows := make([]models.CoverageRow, 0, len(entries))
	for _, entry := range entries {
		group := groups[entry.Code]

		row := models.CoverageRow{
			Code:      entry.Code,
			Name:      entry.Name,
			Status:    models.CoverageNotFound,
			UpdatedAt: updatedAt,
		}

		if len(group) > 0 {
			best := bestOf(group)
			row.FileCount = len(group)
			row.BestScore = best.analysis.Score
			row.OldestMDDate, row.LatestMDDate = mdDateSpan(group)
			row.AnalystCount = best.fields.AnalystCount
			row.TargetPrice = best.fields.TargetPrice
			row.Keywords = coverageKeywords(group)
			row.Status = coverageStatus(group, best, s.config.Search.MinQuality)
		}

		rows = append(rows, row)
	}
	return rows
}

// coverageStatus classifies one company's artifact set.
func coverageStatus(group []scoredArtifact, best scoredArtifact, minQuality int) models.CoverageStatus {
	switch {
	case !anyValid(group):
		return models.CoverageValidationFailed
	case best.analysis.Score < float64(minQuality):
		return models.CoverageLowQuality
	case len(group) > 1:
		return models.CoverageMultipleFiles
	default:
		return models.CoverageProcessed
	}
}

// coverageKeywords lists up to three distinct normalized search patterns
// that produced this company's artifacts.
func coverageKeywords(group []scoredArtifact) string {
	seen := make(map[string]struct{})
	var patterns []string
	for _, sa := range group {
		if sa.artifact.SearchQuery == "" {
			continue
		}
		pattern := search.Normalize(sa.artifact.SearchQuery, sa.artifact.StockCode, sa.artifact.Company)
		if _, ok := seen[pattern]; ok {
			continue
		}
		seen[pattern] = struct{}{}
		patterns = append(patterns, pattern)
		if len(patterns) == 3 {
			break
		}
	}
	return strings.Join(patterns, "; ")
}
