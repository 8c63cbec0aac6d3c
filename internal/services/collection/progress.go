// Package collection coordinates one ingest run over the whole watchlist:
// companies in file order, progress flushed to disk after each one so an
// interrupted run can resume without repeating completed codes.
package collection

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tbchen/factwatch/internal/models"
)

// Progress is the resumable state of a run. Completed codes are recorded
// in completion order; the credential snapshot is informational.
type Progress struct {
	RunID       string                    `json:"run_id"`
	StartedAt   time.Time                 `json:"started_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
	Completed   []string                  `json:"completed"`
	Credentials []models.CredentialStatus `json:"credentials,omitempty"`

	completed map[string]struct{}
}

// NewProgress starts empty progress for a fresh run.
func NewProgress(runID string) *Progress {
	return &Progress{
		RunID:     runID,
		StartedAt: time.Now(),
		completed: make(map[string]struct{}),
	}
}

// LoadProgress reads a progress file. A missing file yields nil so the
// caller can decide between resuming and starting fresh.
func LoadProgress(path string) (*Progress, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress file %s: %w", path, err)
	}

	var progress Progress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("failed to parse progress file %s: %w", path, err)
	}

	progress.completed = make(map[string]struct{}, len(progress.Completed))
	for _, code := range progress.Completed {
		progress.completed[code] = struct{}{}
	}
	return &progress, nil
}

// IsCompleted reports whether a code finished in this or a resumed run.
func (p *Progress) IsCompleted(code string) bool {
	_, ok := p.completed[code]
	return ok
}

// MarkCompleted records one finished code.
func (p *Progress) MarkCompleted(code string) {
	if p.IsCompleted(code) {
		return
	}
	p.Completed = append(p.Completed, code)
	p.completed[code] = struct{}{}
}

// Save writes the progress file atomically.
func (p *Progress) Save(path string, credentials []models.CredentialStatus) error {
	p.UpdatedAt = time.Now()
	p.Credentials = credentials

	payload, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create progress directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "progress-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create progress temp file: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write progress: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close progress temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to finalize progress file: %w", err)
	}
	return nil
}

// RemoveProgress deletes the progress file after a fully completed run.
func RemoveProgress(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove progress file %s: %w", path, err)
	}
	return nil
}
