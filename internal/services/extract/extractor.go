// Package extract pulls financial consensus fields out of semi-structured
// article text with prioritized regex tables. No semantic HTML parsing:
// the content corpus is too heterogeneous for anything but patterns.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tbchen/factwatch/internal/models"
)

// Value bounds. Consensus EPS and revenue figures outside (0, 1000) and
// target prices outside (0, 10000) are discarded as extraction noise.
const (
	maxConsensusValue = 1000
	maxTargetPrice    = 10000
	maxAnalystCount   = 1000

	// segmentWindow is how far past a year marker the labeled
	// statistics are searched, in runes.
	segmentWindow = 150
)

// Extract runs all field extractors over a body and returns the pure view.
// The company code and name are the caller's to fill in; extraction only
// reads the document.
func Extract(body string) *models.ExtractedFields {
	body = StripHeaderBlock(body)
	fields := models.NewExtractedFields()

	fields.MDDate = ExtractDate(body)
	extractTables(body, fields)
	extractSegments(body, epsSegmentPattern, fields.EPSFor)
	extractSegments(body, revenueSegmentPattern, fields.RevenueFor)
	fields.TargetPrice = extractTargetPrice(body)
	fields.AnalystCount = extractAnalystCount(body)

	pruneEmptyRanges(fields)
	return fields
}

// StripHeaderBlock removes a leading framed artifact header (--- ... ---)
// so stored artifacts can be re-extracted without reading their own
// ingest metadata.
func StripHeaderBlock(body string) string {
	if !strings.HasPrefix(body, "---\n") {
		return body
	}
	rest := body[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		return body
	}
	return rest[end+len("\n---\n"):]
}

// extractTables reads consensus tables with a year header row. Whether a
// table holds EPS or revenue is decided from the text immediately before
// its header.
func extractTables(body string, fields *models.ExtractedFields) {
	for _, loc := range tableHeaderPattern.FindAllStringIndex(body, -1) {
		contextStart := loc[0] - 200
		if contextStart < 0 {
			contextStart = 0
		}
		context := body[contextStart:loc[0]]

		rangeFor := fields.EPSFor
		if strings.Contains(context, "營收") && !strings.Contains(context, "EPS") {
			rangeFor = fields.RevenueFor
		}

		// Rows belong to the table until the first blank line.
		section := body[loc[1]:]
		if blank := strings.Index(section, "\n\n"); blank >= 0 {
			section = section[:blank]
		}

		for _, row := range tableRowPattern.FindAllStringSubmatch(section, -1) {
			stat := rowFields[row[1]]
			for i, year := range models.ForecastYears {
				if value, ok := parseConsensusValue(row[2+i]); ok {
					setStat(rangeFor(year), stat, value)
				}
			}
		}
	}
}

// extractSegments reads year-scoped sentence forms: a year marker opens a
// window in which labeled statistics are searched.
func extractSegments(body string, segment *regexp.Regexp, rangeFor func(int) *models.ValueRange) {
	for _, loc := range segment.FindAllStringSubmatchIndex(body, -1) {
		year, err := strconv.Atoi(body[loc[2]:loc[3]])
		if err != nil || !isForecastYear(year) {
			continue
		}

		window := body[loc[1]:]
		if len(window) > segmentWindow*3 {
			window = window[:segmentWindow*3]
		}
		// Do not read past the next year marker.
		if next := segment.FindStringIndex(window); next != nil {
			window = window[:next[0]]
		}

		valueRange := rangeFor(year)
		for stat, pattern := range statPatterns {
			if match := pattern.FindStringSubmatch(window); match != nil {
				if value, ok := parseConsensusValue(match[1]); ok {
					setStat(valueRange, stat, value)
				}
			}
		}
	}
}

func extractTargetPrice(body string) *float64 {
	for _, pattern := range targetPricePatterns {
		if match := pattern.FindStringSubmatch(body); match != nil {
			if value, err := strconv.ParseFloat(match[1], 64); err == nil && value > 0 && value < maxTargetPrice {
				return &value
			}
		}
	}
	return nil
}

func extractAnalystCount(body string) int {
	for _, pattern := range analystCountPatterns {
		if match := pattern.FindStringSubmatch(body); match != nil {
			if n, err := strconv.Atoi(match[1]); err == nil && n > 0 && n < maxAnalystCount {
				return n
			}
		}
	}
	return 0
}

// parseConsensusValue applies the (0, 1000) bound shared by EPS and
// revenue figures.
func parseConsensusValue(s string) (float64, bool) {
	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value <= 0 || value >= maxConsensusValue {
		return 0, false
	}
	return value, true
}

// setStat fills a statistic only when it is still unset: earlier patterns
// have higher priority.
func setStat(r *models.ValueRange, stat string, value float64) {
	switch stat {
	case "high":
		if r.High == nil {
			r.High = &value
		}
	case "low":
		if r.Low == nil {
			r.Low = &value
		}
	case "avg":
		if r.Avg == nil {
			r.Avg = &value
		}
	case "median":
		if r.Median == nil {
			r.Median = &value
		}
	}
}

func isForecastYear(year int) bool {
	for _, y := range models.ForecastYears {
		if y == year {
			return true
		}
	}
	return false
}

// pruneEmptyRanges drops year entries where nothing was found, keeping the
// maps sparse for the scorer and reports.
func pruneEmptyRanges(fields *models.ExtractedFields) {
	for year, r := range fields.EPS {
		if r.Empty() {
			delete(fields.EPS, year)
		}
	}
	for year, r := range fields.Revenue {
		if r.Empty() {
			delete(fields.Revenue, year)
		}
	}
}
