package collection

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/tbchen/factwatch/internal/common"
	"github.com/tbchen/factwatch/internal/interfaces"
	"github.com/tbchen/factwatch/internal/models"
	"github.com/tbchen/factwatch/internal/services/credentials"
)

// RunSummary aggregates one coordinated run.
type RunSummary struct {
	RunID          string `json:"run_id"`
	Companies      int    `json:"companies"`
	Skipped        int    `json:"skipped"` // Already completed in a resumed run
	QueriesIssued  int    `json:"queries_issued"`
	CacheHits      int    `json:"cache_hits"`
	Accepted       int    `json:"accepted"`
	ValidationFail int    `json:"validation_fail"`
	BelowThreshold int    `json:"below_threshold"`
	Duplicates     int    `json:"duplicates"`
	Interrupted    bool   `json:"interrupted"`
}

// Coordinator walks the watchlist in file order and drives the search
// service per company. It is the sole mutator of the progress file.
type Coordinator struct {
	config   *common.Config
	searcher interfaces.SearchService
	pool     *credentials.Pool
	logger   arbor.ILogger
}

// NewCoordinator wires the run coordinator.
func NewCoordinator(config *common.Config, searcher interfaces.SearchService, pool *credentials.Pool, logger arbor.ILogger) *Coordinator {
	return &Coordinator{
		config:   config,
		searcher: searcher,
		pool:     pool,
		logger:   logger,
	}
}

// Run processes every watchlist entry. With resume, codes already recorded
// in the progress file are skipped. Progress is flushed after each company
// and on interruption, so at most the in-flight company repeats.
//
// Cancellation and credential exhaustion return the causing error with the
// partial summary; the progress file is left in place. A fully completed
// run removes it.
func (c *Coordinator) Run(ctx context.Context, watchlist *models.Watchlist, resume bool) (*RunSummary, error) {
	progressPath := c.config.Search.ProgressPath

	progress, err := c.prepareProgress(progressPath, resume)
	if err != nil {
		return nil, err
	}

	summary := &RunSummary{RunID: progress.RunID}

	c.logger.Info().
		Str("stage", "ingest").
		Str("run_id", progress.RunID).
		Int("companies", watchlist.Len()).
		Bool("resume", resume).
		Msg("Collection run starting")

	for _, entry := range watchlist.Entries {
		if progress.IsCompleted(entry.Code) {
			summary.Skipped++
			continue
		}

		stats, err := c.searcher.Collect(ctx, entry)
		if stats != nil {
			summary.QueriesIssued += stats.QueriesIssued
			summary.CacheHits += stats.CacheHits
			summary.Accepted += stats.Accepted
			summary.ValidationFail += stats.ValidationFail
			summary.BelowThreshold += stats.BelowThreshold
			summary.Duplicates += stats.Duplicates
		}
		if err != nil {
			summary.Interrupted = true
			if saveErr := progress.Save(progressPath, c.pool.Status()); saveErr != nil {
				c.logger.Error().Err(saveErr).Msg("Failed to flush progress on abort")
			}
			if errors.Is(err, credentials.ErrAllKeysExhausted) {
				c.logger.Warn().
					Str("stage", "ingest").
					Str("code", entry.Code).
					Msg("Credential pool exhausted, run aborted with progress saved")
			}
			return summary, err
		}

		summary.Companies++
		progress.MarkCompleted(entry.Code)
		if err := progress.Save(progressPath, c.pool.Status()); err != nil {
			return summary, fmt.Errorf("failed to save progress: %w", err)
		}
	}

	if err := RemoveProgress(progressPath); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to remove finished progress file")
	}

	c.logger.Info().
		Str("stage", "ingest").
		Str("run_id", summary.RunID).
		Int("companies", summary.Companies).
		Int("skipped", summary.Skipped).
		Int("accepted", summary.Accepted).
		Msg("Collection run finished")
	return summary, nil
}

// prepareProgress loads resumable state or starts fresh. A resume request
// without a progress file degrades to a fresh run.
func (c *Coordinator) prepareProgress(path string, resume bool) (*Progress, error) {
	if resume {
		progress, err := LoadProgress(path)
		if err != nil {
			return nil, err
		}
		if progress != nil {
			c.logger.Info().
				Str("run_id", progress.RunID).
				Int("completed", len(progress.Completed)).
				Msg("Resuming previous run")
			return progress, nil
		}
		c.logger.Info().Msg("No progress file found, starting fresh run")
	}
	return NewProgress(uuid.NewString()), nil
}
