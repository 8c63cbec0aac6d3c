package models

import "time"

// RawSearchResponse mirrors the Google Custom Search response shape limited
// to the fields requested via the fields parameter.
type RawSearchResponse struct {
	Items             []RawSearchItem `json:"items"`
	SearchInformation struct {
		TotalResults string  `json:"totalResults"`
		SearchTime   float64 `json:"searchTime"`
	} `json:"searchInformation"`
}

// RawSearchItem is one hit as returned by the search API.
type RawSearchItem struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Link        string `json:"link"`
	DisplayLink string `json:"displayLink"`
}

// SearchResult is one ranked hit produced by the search driver.
type SearchResult struct {
	Title               string `json:"title"`
	URL                 string `json:"url"`
	Snippet             string `json:"snippet"`
	Domain              string `json:"domain"`
	RelevanceScore      int    `json:"relevance_score"`
	HasFactsetContent   bool   `json:"has_factset_content"`
	HasFinancialContent bool   `json:"has_financial_content"`
}

// CachedResponse is the on-disk memoization record for one query.
type CachedResponse struct {
	Query    string            `json:"query"`
	CachedAt time.Time         `json:"cached_at"`
	Data     RawSearchResponse `json:"data"`
}
