package models

import "time"

// Credential is one (api_key, cse_id) pair in the rotation pool.
// Exhaustion is permanent within a run; pools are rebuilt on restart.
type Credential struct {
	ID          int        `json:"id"`
	APIKey      string     `json:"-"` // Never serialized
	CSEID       string     `json:"-"`
	CallsMade   int        `json:"calls_made"`
	TotalErrors int        `json:"total_errors"`
	Exhausted   bool       `json:"exhausted"`
	ExhaustedAt *time.Time `json:"exhausted_at,omitempty"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
}

// CredentialStatus is the externally visible state of one credential.
type CredentialStatus struct {
	ID          int        `json:"id"`
	CallsMade   int        `json:"calls_made"`
	TotalErrors int        `json:"total_errors"`
	Exhausted   bool       `json:"exhausted"`
	ExhaustedAt *time.Time `json:"exhausted_at,omitempty"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
}
