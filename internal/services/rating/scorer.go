package rating

import (
	"fmt"

	"github.com/tbchen/factwatch/internal/models"
)

// Component weights. Publication date carries no weight: a stale article
// with complete consensus data outranks a fresh one without.
const (
	WeightEPS     = 0.35
	WeightRevenue = 0.25
	WeightAnalyst = 0.30
	WeightTarget  = 0.10
)

// Status thresholds on the final score.
const (
	ThresholdComplete = 9.0
	ThresholdGood     = 8.0
	ThresholdPartial  = 3.0
)

// yoyRatioLimit flags implausible consensus jumps between adjacent
// forecast years.
const yoyRatioLimit = 10.0

// Score computes the quality analysis for one artifact.
//
// Formula: score = EPS*0.35 + Revenue*0.25 + Analyst*0.30 + Target*0.10,
// each component in [0, 10], result clipped to [0, 10]. The weights
// renormalize over the components the article actually carries: a source
// that never publishes a revenue table is scored on what it reports, not
// penalized for the missing section. A component that is present but
// inconsistent still drags the score down at full weight.
//
// Zero-gates (inside components):
// - Any year with complete EPS fields violating high >= median && avg >= low
//   zeroes the EPS component.
// - Any year with complete revenue fields violating high >= avg && median >= low
//   zeroes the revenue component.
//
// Hard overrides (after the weighted sum):
// - Content validation failed: score = 0.
// - Code not in the watchlist, when watchlist validation is on: score = 0.
func Score(in Input) QualityAnalysis {
	fields := in.Fields
	if fields == nil {
		fields = models.NewExtractedFields()
	}

	components := ComponentScores{
		EPS:     epsComponent(fields.EPS),
		Revenue: revenueComponent(fields.Revenue),
		Analyst: AnalystTier(fields.AnalystCount),
		Target:  targetComponent(fields),
	}

	var score, weight float64
	if hasYearData(fields.EPS) {
		score += components.EPS * WeightEPS
		weight += WeightEPS
	}
	if hasYearData(fields.Revenue) {
		score += components.Revenue * WeightRevenue
		weight += WeightRevenue
	}
	if fields.AnalystCount > 0 {
		score += components.Analyst * WeightAnalyst
		weight += WeightAnalyst
	}
	// The target component also carries the YoY consistency penalty, so an
	// implausible EPS series keeps its drag even without a target price.
	if fields.TargetPrice != nil || yoyOutliers(fields.EPS) > 0 {
		score += components.Target * WeightTarget
		weight += WeightTarget
	}
	if weight > 0 {
		score /= weight
	}
	score = clamp(score, 0, 10)

	reasoning := fmt.Sprintf("eps=%.1f revenue=%.1f analyst=%.1f target=%.1f",
		components.EPS, components.Revenue, components.Analyst, components.Target)

	overridden := false
	if !in.ValidationPassed {
		score = 0
		overridden = true
		reasoning = "content validation failed"
	} else if in.WatchlistValidation && !in.InWatchlist {
		score = 0
		overridden = true
		reasoning = "stock code not in watchlist"
	}

	return QualityAnalysis{
		Score:      score,
		Status:     StatusFor(score),
		Components: components,
		Overridden: overridden,
		Reasoning:  reasoning,
	}
}

// epsComponent scores EPS coverage across the forecast years.
// A complete year violating low <= avg <= high or median <= high zeroes
// the component outright.
func epsComponent(years map[int]*models.ValueRange) float64 {
	for _, r := range years {
		if r.Complete() && !(*r.High >= *r.Median && *r.Avg >= *r.Low) {
			return 0
		}
	}
	return coverageTier(years)
}

// revenueComponent mirrors epsComponent with the revenue consistency gate.
func revenueComponent(years map[int]*models.ValueRange) float64 {
	for _, r := range years {
		if r.Complete() && !(*r.High >= *r.Avg && *r.Median >= *r.Low) {
			return 0
		}
	}
	return coverageTier(years)
}

// coverageTier scores the consistency of the forecast years the article
// carries: when every present year has all four fields the data is as good
// as this source gets, regardless of how many years it forecasts. Partial
// rows dilute the tier.
func coverageTier(years map[int]*models.ValueRange) float64 {
	complete := 0
	partial := 0
	for _, r := range years {
		switch {
		case r.Complete():
			complete++
		case !r.Empty():
			partial++
		}
	}
	switch {
	case complete > 0 && partial == 0:
		return 10
	case complete >= 2:
		return 9
	case complete == 1:
		return 7
	case partial > 0:
		return 2
	default:
		return 0
	}
}

// hasYearData reports whether any forecast year carries at least one value.
func hasYearData(years map[int]*models.ValueRange) bool {
	for _, r := range years {
		if !r.Empty() {
			return true
		}
	}
	return false
}

// AnalystTier maps an analyst count to a coverage score.
func AnalystTier(count int) float64 {
	switch {
	case count >= 30:
		return 10
	case count >= 20:
		return 9
	case count >= 15:
		return 8
	case count >= 10:
		return 6.5
	case count >= 5:
		return 4
	case count >= 1:
		return 2
	default:
		return 0
	}
}

// targetComponent awards a present target price and penalizes implausible
// year-over-year swings in average EPS, flooring at 0.
func targetComponent(fields *models.ExtractedFields) float64 {
	score := 0.0
	if fields.TargetPrice != nil {
		score = 6
	}
	score -= 2 * float64(yoyOutliers(fields.EPS))
	if score < 0 {
		score = 0
	}
	return score
}

// yoyOutliers counts forecast years whose average EPS moved more than
// yoyRatioLimit relative to the prior year.
func yoyOutliers(eps map[int]*models.ValueRange) int {
	outliers := 0
	for i := 1; i < len(models.ForecastYears); i++ {
		prev := eps[models.ForecastYears[i-1]]
		cur := eps[models.ForecastYears[i]]
		if prev == nil || cur == nil || prev.Avg == nil || cur.Avg == nil {
			continue
		}
		a, b := *prev.Avg, *cur.Avg
		if a == 0 || b == 0 {
			continue
		}
		ratio := b / a
		if ratio > yoyRatioLimit || ratio < 1/yoyRatioLimit {
			outliers++
		}
	}
	return outliers
}

// StatusFor maps a final score to its status label.
func StatusFor(score float64) Status {
	switch {
	case score >= ThresholdComplete:
		return StatusComplete
	case score >= ThresholdGood:
		return StatusGood
	case score >= ThresholdPartial:
		return StatusPartial
	default:
		return StatusInsufficient
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
