// Package fetcher retrieves candidate article bodies over plain HTTP with
// a polite User-Agent. Bodies are returned raw; the optional HTML-to-
// markdown conversion is off in the default pipeline so downstream
// extractors see the original text.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/tbchen/factwatch/internal/common"
	"github.com/tbchen/factwatch/internal/httpclient"
	"github.com/tbchen/factwatch/internal/interfaces"
)

// Service implements interfaces.FetchService.
type Service struct {
	config    *common.FetcherConfig
	client    *http.Client
	converter *md.Converter
	logger    arbor.ILogger
}

// NewService creates a content fetcher.
func NewService(config *common.FetcherConfig, logger arbor.ILogger) interfaces.FetchService {
	return &Service{
		config:    config,
		client:    httpclient.NewPoliteHTTPClient(config.Timeout.Std(), config.UserAgent),
		converter: md.NewConverter("", true, nil),
		logger:    logger,
	}
}

// Fetch GETs one URL, following redirects, and returns body, final URL and
// the HTML title when present.
func (s *Service) Fetch(ctx context.Context, url string) (*interfaces.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s returned status %d", url, resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, int64(s.config.MaxBodySize))
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}

	body := string(data)
	result := &interfaces.FetchResult{
		Body:       body,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}

	if looksLikeHTML(resp.Header.Get("Content-Type"), body) {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
			result.Title = strings.TrimSpace(doc.Find("title").First().Text())
		}

		if s.config.ConvertHTML {
			if markdown, err := s.converter.ConvertString(body); err == nil && strings.TrimSpace(markdown) != "" {
				result.Body = markdown
			} else if err != nil {
				s.logger.Debug().Str("url", url).Err(err).Msg("HTML conversion failed, keeping raw body")
			}
		}
	}

	return result, nil
}

func looksLikeHTML(contentType, body string) bool {
	if strings.Contains(contentType, "text/html") {
		return true
	}
	head := strings.ToLower(body[:min(len(body), 512)])
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}
