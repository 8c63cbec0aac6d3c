// Package credentials manages the ordered pool of Google Custom Search
// credentials. Rotation is explicit and one-way: a credential marked
// exhausted stays exhausted until process restart.
package credentials

import (
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/tbchen/factwatch/internal/models"
)

// ErrAllKeysExhausted signals that every credential in the pool has hit its
// quota. The run must persist progress and stop with a non-zero status.
var ErrAllKeysExhausted = errors.New("all search credentials exhausted")

// ErrNoCredentials signals an empty pool, which is a configuration error.
var ErrNoCredentials = errors.New("no search credentials configured")

// Pool holds the ordered credential list and the current pointer. The
// search driver is the sole mutator; no locking is needed in the
// single-threaded pipeline.
type Pool struct {
	credentials []*models.Credential
	current     int
	logger      arbor.ILogger
}

// NewPool builds a pool from ordered API keys and engine IDs. Engine IDs
// are reused cyclically when fewer IDs than keys are configured.
func NewPool(apiKeys, cseIDs []string, logger arbor.ILogger) (*Pool, error) {
	if len(apiKeys) == 0 {
		return nil, ErrNoCredentials
	}
	if len(cseIDs) == 0 {
		return nil, fmt.Errorf("%w: missing search engine IDs", ErrNoCredentials)
	}

	creds := make([]*models.Credential, len(apiKeys))
	for i, key := range apiKeys {
		creds[i] = &models.Credential{
			ID:     i + 1,
			APIKey: key,
			CSEID:  cseIDs[i%len(cseIDs)],
		}
	}

	logger.Info().Int("credentials", len(creds)).Msg("Credential pool initialized")

	return &Pool{
		credentials: creds,
		logger:      logger,
	}, nil
}

// Current returns the active credential.
func (p *Pool) Current() *models.Credential {
	return p.credentials[p.current]
}

// Rotate marks the current credential exhausted and advances to the next
// non-exhausted one by index order. Returns ErrAllKeysExhausted when no
// usable credential remains.
func (p *Pool) Rotate(reason string) error {
	cred := p.credentials[p.current]
	now := time.Now()
	cred.Exhausted = true
	cred.ExhaustedAt = &now

	p.logger.Warn().
		Int("credential", cred.ID).
		Str("reason", reason).
		Int("calls_made", cred.CallsMade).
		Msg("Credential exhausted, rotating")

	for i := range p.credentials {
		idx := (p.current + 1 + i) % len(p.credentials)
		if !p.credentials[idx].Exhausted {
			p.current = idx
			p.logger.Info().Int("credential", p.credentials[idx].ID).Msg("Switched to credential")
			return nil
		}
	}

	return ErrAllKeysExhausted
}

// RecordCall notes one outbound call on the current credential.
func (p *Pool) RecordCall() {
	cred := p.credentials[p.current]
	cred.CallsMade++
	now := time.Now()
	cred.LastUsed = &now
}

// RecordError notes one failed call on the current credential.
func (p *Pool) RecordError() {
	p.credentials[p.current].TotalErrors++
}

// Remaining returns the number of non-exhausted credentials.
func (p *Pool) Remaining() int {
	n := 0
	for _, c := range p.credentials {
		if !c.Exhausted {
			n++
		}
	}
	return n
}

// Status returns the externally visible state of every credential in order.
func (p *Pool) Status() []models.CredentialStatus {
	statuses := make([]models.CredentialStatus, len(p.credentials))
	for i, c := range p.credentials {
		statuses[i] = models.CredentialStatus{
			ID:          c.ID,
			CallsMade:   c.CallsMade,
			TotalErrors: c.TotalErrors,
			Exhausted:   c.Exhausted,
			ExhaustedAt: c.ExhaustedAt,
			LastUsed:    c.LastUsed,
		}
	}
	return statuses
}
