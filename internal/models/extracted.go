package models

// ForecastYears are the consensus years tracked by the extractor and the
// reports. Forward-compatible: add years, never remove.
var ForecastYears = []int{2025, 2026, 2027}

// ValueRange holds one year's consensus spread for EPS or revenue.
// Nil fields were not found in the document.
type ValueRange struct {
	High   *float64 `json:"high,omitempty"`
	Low    *float64 `json:"low,omitempty"`
	Avg    *float64 `json:"avg,omitempty"`
	Median *float64 `json:"median,omitempty"`
}

// Complete reports whether all four fields are present.
func (r *ValueRange) Complete() bool {
	return r != nil && r.High != nil && r.Low != nil && r.Avg != nil && r.Median != nil
}

// Empty reports whether no field is present.
func (r *ValueRange) Empty() bool {
	return r == nil || (r.High == nil && r.Low == nil && r.Avg == nil && r.Median == nil)
}

// ExtractedFields is the pure view of one artifact after field extraction.
type ExtractedFields struct {
	CompanyCode             string              `json:"company_code"`
	CompanyName             string              `json:"company_name"`
	MDDate                  string              `json:"md_date"` // YYYY/MM/DD or empty
	AnalystCount            int                 `json:"analyst_count"`
	TargetPrice             *float64            `json:"target_price,omitempty"`
	EPS                     map[int]*ValueRange `json:"eps"`     // Keyed by forecast year
	Revenue                 map[int]*ValueRange `json:"revenue"` // Keyed by forecast year
	ContentValidationPassed bool                `json:"content_validation_passed"`
}

// NewExtractedFields creates an empty extraction result with year maps allocated.
func NewExtractedFields() *ExtractedFields {
	return &ExtractedFields{
		EPS:     make(map[int]*ValueRange),
		Revenue: make(map[int]*ValueRange),
	}
}

// EPSFor returns the EPS range for a year, allocating it on first use.
func (f *ExtractedFields) EPSFor(year int) *ValueRange {
	if f.EPS[year] == nil {
		f.EPS[year] = &ValueRange{}
	}
	return f.EPS[year]
}

// RevenueFor returns the revenue range for a year, allocating it on first use.
func (f *ExtractedFields) RevenueFor(year int) *ValueRange {
	if f.Revenue[year] == nil {
		f.Revenue[year] = &ValueRange{}
	}
	return f.Revenue[year]
}
