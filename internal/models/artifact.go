package models

// ContentValidation records the outcome of content validation for a document.
type ContentValidation struct {
	IsValid    bool    `json:"is_valid"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
	Layer      int     `json:"layer,omitempty"` // Validation layer that decided (1..4), 0 when unknown
}

// Artifact is the durable unit: one ingested document with its header
// metadata and the original body text. The filename is derived from the
// content fingerprint, so identical (body, url, title, md_date) tuples map
// to the same file.
type Artifact struct {
	URL               string            `json:"url"`
	Title             string            `json:"title"`
	QualityScore      float64           `json:"quality_score"`
	StockCode         string            `json:"stock_code"`
	Company           string            `json:"company"`
	MDDate            string            `json:"md_date"`        // Publication date YYYY/MM/DD, or empty
	ExtractedDate     string            `json:"extracted_date"` // Ingest timestamp, ISO-8601
	SearchQuery       string            `json:"search_query"`
	ContentValidation ContentValidation `json:"content_validation"`
	Body              string            `json:"-"`

	// Filename is set by the store on write and scan; empty for
	// artifacts that have not touched disk yet.
	Filename string `json:"-"`
}
