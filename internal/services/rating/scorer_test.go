package rating

import (
	"math"
	"testing"

	"github.com/tbchen/factwatch/internal/models"
	"github.com/tbchen/factwatch/internal/services/extract"
)

func fptr(v float64) *float64 { return &v }

func completeRange(high, low, avg, median float64) *models.ValueRange {
	return &models.ValueRange{High: fptr(high), Low: fptr(low), Avg: fptr(avg), Median: fptr(median)}
}

func fullFields() *models.ExtractedFields {
	fields := models.NewExtractedFields()
	for _, year := range models.ForecastYears {
		fields.EPS[year] = completeRange(50, 42, 46, 46)
		fields.Revenue[year] = completeRange(980, 850, 900, 910)
	}
	fields.TargetPrice = fptr(850)
	fields.AnalystCount = 30
	return fields
}

func TestScore_FullFields(t *testing.T) {
	analysis := Score(Input{Fields: fullFields(), ValidationPassed: true, InWatchlist: true, WatchlistValidation: true})

	// 10*0.35 + 10*0.25 + 10*0.30 + 6*0.10
	if math.Abs(analysis.Score-9.6) > 1e-9 {
		t.Errorf("Score = %v, want 9.6", analysis.Score)
	}
	if analysis.Status != StatusComplete {
		t.Errorf("Status = %v, want complete", analysis.Status)
	}
	if analysis.Overridden {
		t.Error("Overridden = true, want false")
	}
}

// A typical cnyes consensus article reports one EPS year, analyst count and
// a target price but no revenue table. The missing section must not keep
// an otherwise clean article out of the complete tier.
func TestScore_ConsensusArticleWithoutRevenue(t *testing.T) {
	body := `台積電 (2330-TW) 最新 FactSet 調查:
2025 EPS 平均值 46.00 最高 50.00 最低 42.00 中位數 46.00
共 30 位分析師, 目標價 850 元
鉅亨網新聞中心 2025-06-20 14:00`

	fields := extract.Extract(body)
	analysis := Score(Input{Fields: fields, ValidationPassed: true, InWatchlist: true, WatchlistValidation: true})

	// (10*0.35 + 10*0.30 + 6*0.10) / 0.75
	if analysis.Score < 9.0 {
		t.Errorf("Score = %v, want >= 9.0", analysis.Score)
	}
	if analysis.Status != StatusComplete {
		t.Errorf("Status = %v, want complete", analysis.Status)
	}
}

func TestScore_AbsentComponentsRenormalize(t *testing.T) {
	fields := models.NewExtractedFields()
	fields.EPS[2025] = completeRange(50, 42, 46, 46)
	fields.AnalystCount = 30
	fields.TargetPrice = fptr(850)

	analysis := Score(Input{Fields: fields, ValidationPassed: true, InWatchlist: true, WatchlistValidation: true})
	want := (10*WeightEPS + 10*WeightAnalyst + 6*WeightTarget) / (WeightEPS + WeightAnalyst + WeightTarget)
	if math.Abs(analysis.Score-want) > 1e-9 {
		t.Errorf("Score = %v, want %v", analysis.Score, want)
	}

	// A gated component is present, not absent: it keeps its full weight.
	fields.EPS[2025] = completeRange(45, 42, 46, 50)
	gated := Score(Input{Fields: fields, ValidationPassed: true, InWatchlist: true, WatchlistValidation: true})
	want = (0*WeightEPS + 10*WeightAnalyst + 6*WeightTarget) / (WeightEPS + WeightAnalyst + WeightTarget)
	if math.Abs(gated.Score-want) > 1e-9 {
		t.Errorf("gated Score = %v, want %v", gated.Score, want)
	}
}

func TestScore_HardOverrides(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		want  float64
	}{
		{
			name:  "validation failed zeroes everything",
			input: Input{Fields: fullFields(), ValidationPassed: false, InWatchlist: true, WatchlistValidation: true},
			want:  0,
		},
		{
			name:  "outside watchlist zeroes when validation on",
			input: Input{Fields: fullFields(), ValidationPassed: true, InWatchlist: false, WatchlistValidation: true},
			want:  0,
		},
		{
			name:  "outside watchlist ignored when validation off",
			input: Input{Fields: fullFields(), ValidationPassed: true, InWatchlist: false, WatchlistValidation: false},
			want:  9.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := Score(tt.input)
			if math.Abs(analysis.Score-tt.want) > 1e-9 {
				t.Errorf("Score = %v, want %v", analysis.Score, tt.want)
			}
			if tt.want == 0 {
				if !analysis.Overridden {
					t.Error("Overridden = false, want true")
				}
				if analysis.Status != StatusInsufficient {
					t.Errorf("Status = %v, want insufficient", analysis.Status)
				}
			}
		})
	}
}

func TestEPSComponent_ZeroGate(t *testing.T) {
	tests := []struct {
		name  string
		years map[int]*models.ValueRange
		want  float64
	}{
		{
			name:  "consistent single year",
			years: map[int]*models.ValueRange{2025: completeRange(50, 42, 46, 46)},
			want:  10,
		},
		{
			name:  "high below median gates to zero",
			years: map[int]*models.ValueRange{2025: completeRange(45, 42, 46, 50)},
			want:  0,
		},
		{
			name:  "avg below low gates to zero",
			years: map[int]*models.ValueRange{2025: completeRange(50, 45, 43, 46)},
			want:  0,
		},
		{
			name: "one bad year gates despite two good ones",
			years: map[int]*models.ValueRange{
				2025: completeRange(50, 42, 46, 46),
				2026: completeRange(58, 48, 53, 53),
				2027: completeRange(55, 60, 62, 66),
			},
			want: 0,
		},
		{
			name:  "incomplete year cannot gate",
			years: map[int]*models.ValueRange{2025: {High: fptr(40), Median: fptr(50)}},
			want:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := epsComponent(tt.years); got != tt.want {
				t.Errorf("epsComponent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRevenueComponent_ZeroGate(t *testing.T) {
	// Revenue gate is high >= avg && median >= low; median may exceed high.
	ok := map[int]*models.ValueRange{2025: completeRange(980, 850, 900, 990)}
	if got := revenueComponent(ok); got != 10 {
		t.Errorf("revenueComponent = %v, want 10", got)
	}

	bad := map[int]*models.ValueRange{2025: completeRange(980, 920, 900, 910)}
	if got := revenueComponent(bad); got != 0 {
		t.Errorf("revenueComponent = %v, want 0", got)
	}
}

func TestCoverageTier(t *testing.T) {
	tests := []struct {
		name     string
		complete int
		partial  int
		want     float64
	}{
		{"three complete years", 3, 0, 10},
		{"two complete years no partial", 2, 0, 10},
		{"one complete year alone", 1, 0, 10},
		{"two complete one partial", 2, 1, 9},
		{"one complete one partial", 1, 1, 7},
		{"partial only", 0, 2, 2},
		{"nothing", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			years := map[int]*models.ValueRange{}
			for i := 0; i < tt.complete; i++ {
				years[models.ForecastYears[i]] = completeRange(50, 42, 46, 46)
			}
			for i := 0; i < tt.partial; i++ {
				years[models.ForecastYears[len(models.ForecastYears)-1-i]] = &models.ValueRange{Avg: fptr(46)}
			}
			if got := coverageTier(years); got != tt.want {
				t.Errorf("coverageTier = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnalystTier(t *testing.T) {
	tests := []struct {
		count int
		want  float64
	}{
		{35, 10},
		{30, 10},
		{29, 9},
		{20, 9},
		{19, 8},
		{15, 8},
		{14, 6.5},
		{10, 6.5},
		{9, 4},
		{5, 4},
		{4, 2},
		{1, 2},
		{0, 0},
	}

	for _, tt := range tests {
		if got := AnalystTier(tt.count); got != tt.want {
			t.Errorf("AnalystTier(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}

func TestTargetComponent(t *testing.T) {
	withTarget := models.NewExtractedFields()
	withTarget.TargetPrice = fptr(850)
	if got := targetComponent(withTarget); got != 6 {
		t.Errorf("targetComponent = %v, want 6", got)
	}

	if got := targetComponent(models.NewExtractedFields()); got != 0 {
		t.Errorf("targetComponent = %v, want 0", got)
	}

	// An 11x jump between 2025 and 2026 costs 2 points.
	jump := models.NewExtractedFields()
	jump.TargetPrice = fptr(850)
	jump.EPS[2025] = &models.ValueRange{Avg: fptr(4)}
	jump.EPS[2026] = &models.ValueRange{Avg: fptr(44)}
	if got := targetComponent(jump); got != 4 {
		t.Errorf("targetComponent = %v, want 4", got)
	}

	// Two offending transitions with no target price floor at 0.
	jump.TargetPrice = nil
	jump.EPS[2027] = &models.ValueRange{Avg: fptr(2)}
	if got := targetComponent(jump); got != 0 {
		t.Errorf("targetComponent = %v, want 0", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Status
	}{
		{10, StatusComplete},
		{9.0, StatusComplete},
		{8.9, StatusGood},
		{8.0, StatusGood},
		{7.9, StatusPartial},
		{3.0, StatusPartial},
		{2.9, StatusInsufficient},
		{0, StatusInsufficient},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.score); got != tt.want {
			t.Errorf("StatusFor(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestScore_NilFields(t *testing.T) {
	analysis := Score(Input{Fields: nil, ValidationPassed: true, InWatchlist: true})
	if analysis.Score != 0 {
		t.Errorf("Score = %v, want 0", analysis.Score)
	}
	if analysis.Status != StatusInsufficient {
		t.Errorf("Status = %v, want insufficient", analysis.Status)
	}
}
