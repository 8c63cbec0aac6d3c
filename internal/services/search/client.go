package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/tbchen/factwatch/internal/httpclient"
	"github.com/tbchen/factwatch/internal/models"
)

const (
	// DefaultBaseURL is the Google Custom Search endpoint.
	DefaultBaseURL = "https://www.googleapis.com/customsearch/v1"

	// DefaultTimeout is the default HTTP timeout for search calls.
	DefaultTimeout = 30 * time.Second

	// responseFields limits the response to the fields the driver reads.
	responseFields = "items(title,snippet,link,displayLink),searchInformation(totalResults,searchTime)"
)

// APIError represents a non-quota error response from the search API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("search API error: %s (status: %d)", e.Message, e.StatusCode)
}

// QuotaError represents a quota-exhaustion signal: HTTP 429 or an error
// payload carrying a quota marker. It drives credential rotation.
type QuotaError struct {
	StatusCode int
	Message    string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("search quota exhausted (status: %d): %s", e.StatusCode, e.Message)
}

// Client is a Google Custom Search API client. Credentials are passed per
// call so the driver can rotate them without rebuilding the client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom endpoint (used by tests).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a search API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: httpclient.NewDefaultHTTPClient(DefaultTimeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search executes one query with the given credential pair.
func (c *Client) Search(ctx context.Context, query, apiKey, cseID string) (*models.RawSearchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("cx", cseID)
	params.Set("key", apiKey)
	params.Set("num", "10")
	params.Set("dateRestrict", "y1")
	params.Set("lr", "lang_zh-TW|lang_en")
	params.Set("safe", "off")
	params.Set("fields", responseFields)

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	if c.logger != nil {
		// Redact the key in logs.
		c.logger.Debug().
			Str("query", query).
			Str("url", fmt.Sprintf("%s?q=%s&key=***REDACTED***", c.baseURL, url.QueryEscape(query))).
			Msg("Search API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if isQuotaSignal(resp.StatusCode, string(body)) {
			return nil, &QuotaError{StatusCode: resp.StatusCode, Message: string(body)}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var result models.RawSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return &result, nil
}

// isQuotaSignal recognizes quota exhaustion: HTTP 429 or a payload
// carrying a quota marker.
func isQuotaSignal(statusCode int, body string) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	lower := strings.ToLower(body)
	return strings.Contains(lower, "quotaexceeded") || strings.Contains(lower, "quota")
}
