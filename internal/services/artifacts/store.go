package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/tbchen/factwatch/internal/interfaces"
	"github.com/tbchen/factwatch/internal/models"
)

// filenamePattern matches the artifact naming contract:
// {4-digit code}_{company}_factset_{8-hex fingerprint}.md
var filenamePattern = regexp.MustCompile(`^\d{4}_.+_factset_[0-9a-f]{8}\.md$`)

// Store is the file-backed artifact store. It never deletes; quarantine
// and retention are external tools working on the same directory.
type Store struct {
	dir    string
	logger arbor.ILogger
}

// NewStore creates an artifact store rooted at dir.
func NewStore(dir string, logger arbor.ILogger) (interfaces.ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Write persists the artifact under its fingerprint-derived filename.
// The write is atomic, so an identical fingerprint is overwritten
// last-writer-wins and never observed half-written.
func (s *Store) Write(artifact *models.Artifact) (string, error) {
	filename := Filename(artifact)
	artifact.Filename = filename

	content := serializeHeader(artifact)

	tmp, err := os.CreateTemp(s.dir, "artifact-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create artifact temp file: %w", err)
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write artifact %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close artifact temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, filename)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to finalize artifact %s: %w", filename, err)
	}

	s.logger.Debug().
		Str("filename", filename).
		Str("stock_code", artifact.StockCode).
		Float64("quality_score", artifact.QualityScore).
		Msg("Artifact written")
	return filename, nil
}

// Read loads one artifact by filename.
func (s *Store) Read(filename string) (*models.Artifact, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", filename, err)
	}

	artifact := parseHeader(string(data))
	artifact.Filename = filename
	return artifact, nil
}

// Scan enumerates artifact files newest-first. Files that disappear
// between listing and reading are skipped as never existed.
func (s *Store) Scan() ([]*models.Artifact, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact directory: %w", err)
	}

	type candidate struct {
		name    string
		modTime time.Time
	}
	candidates := make([]candidate, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !filenamePattern.MatchString(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: entry.Name(), modTime: info.ModTime()})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].modTime.Equal(candidates[j].modTime) {
			return candidates[i].modTime.After(candidates[j].modTime)
		}
		return candidates[i].name < candidates[j].name
	})

	artifacts := make([]*models.Artifact, 0, len(candidates))
	for _, c := range candidates {
		artifact, err := s.Read(c.name)
		if err != nil {
			continue
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}

// Exists reports whether an artifact with this fingerprint is already on
// disk.
func (s *Store) Exists(artifact *models.Artifact) (bool, error) {
	_, err := os.Stat(filepath.Join(s.dir, Filename(artifact)))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat artifact: %w", err)
}
