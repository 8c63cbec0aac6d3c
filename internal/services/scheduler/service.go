// Package scheduler runs the collect-then-report cycle on a cron
// schedule. One cycle at a time: a tick that fires while the previous
// cycle is still running is skipped.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// DefaultCron runs the cycle every morning at 06:30 local time, before
// the Taiwan market opens.
const DefaultCron = "30 6 * * *"

// Cycle is one scheduled unit of work.
type Cycle func(ctx context.Context) error

// Status is a snapshot of the scheduler state.
type Status struct {
	Running   bool       `json:"running"`
	Schedule  string     `json:"schedule"`
	InCycle   bool       `json:"in_cycle"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Service owns the cron loop.
type Service struct {
	cycle  Cycle
	cron   *cron.Cron
	logger arbor.ILogger

	mu        sync.Mutex
	schedule  string
	entryID   cron.EntryID
	running   bool
	inCycle   bool
	lastRun   *time.Time
	lastError string
}

// NewService creates a scheduler around one cycle function.
func NewService(cycle Cycle, logger arbor.ILogger) *Service {
	return &Service{
		cycle:  cycle,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start registers the cycle under the cron expression and starts the loop.
func (s *Service) Start(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if cronExpr == "" {
		cronExpr = DefaultCron
	}

	entryID, err := s.cron.AddFunc(cronExpr, s.tick)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	s.entryID = entryID
	s.schedule = cronExpr
	s.running = true
	s.cron.Start()

	s.logger.Info().Str("cron", cronExpr).Msg("Scheduler started")
	return nil
}

// Stop halts the cron loop and waits for an in-flight cycle to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// RunNow triggers one cycle outside the schedule. It reports whether the
// cycle ran; a cycle already in flight declines the trigger.
func (s *Service) RunNow() bool {
	s.mu.Lock()
	if s.inCycle {
		s.mu.Unlock()
		return false
	}
	s.inCycle = true
	s.mu.Unlock()

	s.execute()
	return true
}

// Status reports the current scheduler state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Running:   s.running,
		Schedule:  s.schedule,
		InCycle:   s.inCycle,
		LastRun:   s.lastRun,
		LastError: s.lastError,
	}
	if s.running {
		next := s.cron.Entry(s.entryID).Next
		if !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

func (s *Service) tick() {
	s.mu.Lock()
	if s.inCycle {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous cycle still running, tick skipped")
		return
	}
	s.inCycle = true
	s.mu.Unlock()

	s.execute()
}

func (s *Service) execute() {
	started := time.Now()
	s.logger.Info().Msg("Scheduled cycle starting")

	err := s.cycle(context.Background())

	s.mu.Lock()
	s.inCycle = false
	s.lastRun = &started
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled cycle failed")
		return
	}
	s.logger.Info().Dur("elapsed", time.Since(started)).Msg("Scheduled cycle finished")
}
