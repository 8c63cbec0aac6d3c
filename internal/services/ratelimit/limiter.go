// Package ratelimit paces outbound search calls. The per-second limit is
// enforced with a token bucket; the daily counter is informational only and
// resets at local midnight. Quota enforcement belongs to the credential pool.
package ratelimit

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

// Limiter enforces a minimum interval between outbound search calls.
type Limiter struct {
	limiter    *rate.Limiter
	dailyQuota int
	dailyCalls int
	dayStart   time.Time
	logger     arbor.ILogger
}

// NewLimiter creates a limiter allowing callsPerSecond sustained calls with
// burst 1 and a soft daily counter of callsPerDay.
func NewLimiter(callsPerSecond float64, callsPerDay int, logger arbor.ILogger) *Limiter {
	if callsPerSecond <= 0 {
		callsPerSecond = 1.0
	}
	return &Limiter{
		limiter:    rate.NewLimiter(rate.Limit(callsPerSecond), 1),
		dailyQuota: callsPerDay,
		dayStart:   startOfDay(time.Now()),
		logger:     logger,
	}
}

// Wait blocks until the next call is allowed or the context is cancelled,
// then counts the call against the daily counter.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}

	now := time.Now()
	if day := startOfDay(now); day.After(l.dayStart) {
		l.dayStart = day
		l.dailyCalls = 0
	}

	l.dailyCalls++
	if l.dailyQuota > 0 && l.dailyCalls == l.dailyQuota+1 {
		l.logger.Warn().
			Int("calls_today", l.dailyCalls).
			Int("daily_quota", l.dailyQuota).
			Msg("Soft daily search quota passed")
	}

	return nil
}

// CallsToday returns the informational daily counter.
func (l *Limiter) CallsToday() int {
	if startOfDay(time.Now()).After(l.dayStart) {
		return 0
	}
	return l.dailyCalls
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
