package interfaces

import (
	"github.com/tbchen/factwatch/internal/models"
)

// ArtifactStore persists and enumerates fingerprint-keyed artifact files.
// The store never deletes; retention and quarantine are external concerns.
type ArtifactStore interface {
	// Write persists the artifact, returning the filename. Writing the
	// same fingerprint twice is idempotent.
	Write(artifact *models.Artifact) (string, error)

	// Read loads one artifact file by filename (not path).
	Read(filename string) (*models.Artifact, error)

	// Scan enumerates artifact files in modification-time-descending
	// order. Files that disappear mid-scan are treated as never existed.
	Scan() ([]*models.Artifact, error)

	// Exists reports whether an artifact with this fingerprint is on disk.
	Exists(artifact *models.Artifact) (bool, error)
}
