package interfaces

import "context"

// FetchResult is the outcome of fetching one candidate URL.
type FetchResult struct {
	Body       string // Raw response body, possibly markdown-converted when enabled
	FinalURL   string // URL after redirects
	Title      string // <title> text when the body is HTML, else empty
	StatusCode int
}

// FetchService retrieves candidate article bodies over HTTP.
type FetchService interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}
