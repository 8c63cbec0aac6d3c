// Package search drives the ingest pipeline for one company: it walks the
// query template catalog, calls the search API through the credential pool,
// rate limiter and response cache, then fetches, validates, extracts and
// scores each ranked hit, persisting accepted documents as artifacts.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/tbchen/factwatch/internal/common"
	"github.com/tbchen/factwatch/internal/interfaces"
	"github.com/tbchen/factwatch/internal/models"
	"github.com/tbchen/factwatch/internal/services/credentials"
	"github.com/tbchen/factwatch/internal/services/extract"
	"github.com/tbchen/factwatch/internal/services/ratelimit"
	"github.com/tbchen/factwatch/internal/services/rating"
	"github.com/tbchen/factwatch/internal/services/validation"
)

// Service implements interfaces.SearchService.
type Service struct {
	config    *common.SearchConfig
	catalog   *Catalog
	client    *Client
	pool      *credentials.Pool
	limiter   *ratelimit.Limiter
	cache     interfaces.CacheService
	fetcher   interfaces.FetchService
	validator *validation.Validator
	store     interfaces.ArtifactStore
	watchlist *models.Watchlist
	logger    arbor.ILogger

	watchlistValidation bool
}

// NewService wires the search driver. The watchlist is used for the
// scorer's membership override; watchlistValidation false disables it for
// backtests.
func NewService(
	config *common.SearchConfig,
	catalog *Catalog,
	client *Client,
	pool *credentials.Pool,
	limiter *ratelimit.Limiter,
	cache interfaces.CacheService,
	fetcher interfaces.FetchService,
	store interfaces.ArtifactStore,
	watchlist *models.Watchlist,
	watchlistValidation bool,
	logger arbor.ILogger,
) interfaces.SearchService {
	return &Service{
		config:              config,
		catalog:             catalog,
		client:              client,
		pool:                pool,
		limiter:             limiter,
		cache:               cache,
		fetcher:             fetcher,
		validator:           validation.NewValidator(logger),
		store:               store,
		watchlist:           watchlist,
		watchlistValidation: watchlistValidation,
		logger:              logger,
	}
}

// Collect runs the catalog for one company. Queries are issued in catalog
// order; hits are processed in descending relevance. The method returns
// credentials.ErrAllKeysExhausted when the pool runs dry so the caller can
// persist progress and abort the run.
func (s *Service) Collect(ctx context.Context, entry models.WatchlistEntry) (*interfaces.CollectStats, error) {
	stats := &interfaces.CollectStats{}

	s.logger.Info().
		Str("stage", "ingest").
		Str("code", entry.Code).
		Str("company", entry.Name).
		Msg("Collecting analyst consensus")

	for _, template := range s.catalog.All() {
		if stats.Accepted >= s.config.DesiredCount {
			break
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		query := template.Build(entry.Code, entry.Name)
		response, fromCache, err := s.executeQuery(ctx, query)
		if err != nil {
			if errors.Is(err, credentials.ErrAllKeysExhausted) || errors.Is(err, context.Canceled) {
				return stats, err
			}
			s.logger.Warn().
				Str("stage", "ingest").
				Str("query", query).
				Err(err).
				Msg("Query failed, continuing with next template")
			continue
		}
		stats.QueriesIssued++
		if fromCache {
			stats.CacheHits++
		}

		if err := s.processResponse(ctx, entry, query, response, stats); err != nil {
			return stats, err
		}
	}

	s.logger.Info().
		Str("stage", "ingest").
		Str("code", entry.Code).
		Int("queries", stats.QueriesIssued).
		Int("accepted", stats.Accepted).
		Int("rejected", stats.ValidationFail).
		Int("below_threshold", stats.BelowThreshold).
		Msg("Collection finished for company")

	return stats, nil
}

// executeQuery resolves one query through the cache or the API. Quota
// signals rotate the credential pool and retry the same query with the new
// credential up to min(3, remaining) times; other errors back off once with
// the configured multiplier before a final attempt.
func (s *Service) executeQuery(ctx context.Context, query string) (*models.RawSearchResponse, bool, error) {
	if cached := s.cache.Get(query); cached != nil {
		return cached, true, nil
	}

	backoff := s.config.BackoffInitial.Std()

	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, false, err
		}

		cred := s.pool.Current()
		s.pool.RecordCall()

		response, err := s.client.Search(ctx, query, cred.APIKey, cred.CSEID)
		if err == nil {
			if cacheErr := s.cache.Set(query, response); cacheErr != nil {
				s.logger.Warn().Err(cacheErr).Msg("Failed to cache search response")
			}
			return response, false, nil
		}

		s.pool.RecordError()

		var quotaErr *QuotaError
		if errors.As(err, &quotaErr) {
			if rotateErr := s.pool.Rotate(quotaErr.Error()); rotateErr != nil {
				return nil, false, rotateErr
			}
			retryBudget := s.pool.Remaining()
			if retryBudget > 3 {
				retryBudget = 3
			}
			if attempt >= retryBudget {
				return nil, false, fmt.Errorf("query retries exhausted after quota rotation: %w", err)
			}
			continue
		}

		// Transient error: back off once, retry once, then give up.
		if attempt >= 1 {
			return nil, false, err
		}
		s.logger.Warn().
			Str("query", query).
			Dur("backoff", backoff).
			Err(err).
			Msg("Transient search error, backing off")
		if sleepErr := sleepContext(ctx, backoff); sleepErr != nil {
			return nil, false, sleepErr
		}
		backoff *= 2
		if max := s.config.BackoffMax.Std(); backoff > max {
			backoff = max
		}
	}
}

// processResponse ranks the hits and runs fetch -> validate -> extract ->
// score -> store for the top ones.
func (s *Service) processResponse(ctx context.Context, entry models.WatchlistEntry, query string, response *models.RawSearchResponse, stats *interfaces.CollectStats) error {
	results := RankResults(response.Items, time.Now())
	if len(results) > s.config.TopHitsPerQuery {
		results = results[:s.config.TopHitsPerQuery]
	}

	for _, hit := range results {
		if stats.Accepted >= s.config.DesiredCount {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.HitsProcessed++

		fetched, err := s.fetcher.Fetch(ctx, hit.URL)
		if err != nil {
			s.logger.Debug().
				Str("stage", "ingest").
				Str("url", hit.URL).
				Err(err).
				Msg("Fetch failed, skipping hit")
			continue
		}
		stats.Fetched++

		title := fetched.Title
		if title == "" {
			title = hit.Title
		}

		result := s.validator.Validate(fetched.Body, title, entry.Code, entry.Name)

		fields := extract.Extract(fetched.Body)
		fields.CompanyCode = entry.Code
		fields.CompanyName = entry.Name
		fields.ContentValidationPassed = result.IsValid

		analysis := rating.Score(rating.Input{
			Fields:              fields,
			ValidationPassed:    result.IsValid,
			InWatchlist:         s.watchlist.Contains(entry.Code),
			WatchlistValidation: s.watchlistValidation,
		})

		artifact := &models.Artifact{
			URL:               fetched.FinalURL,
			Title:             title,
			QualityScore:      analysis.Score,
			StockCode:         entry.Code,
			Company:           entry.Name,
			MDDate:            fields.MDDate,
			ExtractedDate:     time.Now().Format(time.RFC3339),
			SearchQuery:       query,
			ContentValidation: result,
			Body:              fetched.Body,
		}

		switch {
		case !result.IsValid:
			// Rejections are persisted with score zero for the record
			// but never count toward the desired total.
			stats.ValidationFail++
			if err := s.writeArtifact(artifact, stats); err != nil {
				continue
			}
		case analysis.Score >= float64(s.config.MinQuality):
			if err := s.writeArtifact(artifact, stats); err != nil {
				continue
			}
			stats.Accepted++
			s.logger.Info().
				Str("stage", "score").
				Str("code", entry.Code).
				Float64("score", analysis.Score).
				Str("status", string(analysis.Status)).
				Str("url", artifact.URL).
				Msg("Artifact accepted")
		default:
			stats.BelowThreshold++
			s.logger.Debug().
				Str("stage", "score").
				Str("code", entry.Code).
				Float64("score", analysis.Score).
				Str("url", artifact.URL).
				Msg("Artifact below quality threshold, skipped")
		}
	}

	return nil
}

// writeArtifact persists one artifact, counting duplicates. Write errors
// are logged and the hit is skipped.
func (s *Service) writeArtifact(artifact *models.Artifact, stats *interfaces.CollectStats) error {
	exists, err := s.store.Exists(artifact)
	if err == nil && exists {
		stats.Duplicates++
	}

	if _, err := s.store.Write(artifact); err != nil {
		s.logger.Warn().
			Str("stage", "ingest").
			Str("url", artifact.URL).
			Err(err).
			Msg("Artifact write failed, skipping")
		return err
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
