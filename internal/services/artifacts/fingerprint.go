// Package artifacts persists ingested documents as fingerprint-keyed
// markdown files with a framed metadata header. The filename is the
// artifact's identity: identical (body, url, title, md_date) tuples map to
// the same file, so re-ingestion is idempotent and no database is needed.
package artifacts

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tbchen/factwatch/internal/models"
)

// fingerprintLen is the hex prefix length. Widen if a collision is ever
// observed in practice; never shorten.
const fingerprintLen = 8

// Fingerprint computes the artifact identity: the first 8 hex digits of
// md5(body || url || title || md_date).
func Fingerprint(artifact *models.Artifact) string {
	sum := md5.Sum([]byte(artifact.Body + artifact.URL + artifact.Title + artifact.MDDate))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

// Filename derives the artifact filename: {code}_{company}_factset_{hash8}.md.
func Filename(artifact *models.Artifact) string {
	return fmt.Sprintf("%s_%s_factset_%s.md",
		artifact.StockCode, sanitizeCompany(artifact.Company), Fingerprint(artifact))
}

// sanitizeCompany strips characters that are path-hostile or would break
// the filename pattern. CJK company names pass through unchanged.
func sanitizeCompany(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, name)
	if cleaned == "" {
		return "unknown"
	}
	return cleaned
}
