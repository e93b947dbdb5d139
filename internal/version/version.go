// Package version persists dataset versions, their raw payloads, and their
// computed profiles in PostgreSQL, and keeps an event trail of what happened
// to each version. Profiling itself never touches this package; the service
// layer hands it finished profiles to store.
package version

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Status tracks a version through its ingest lifecycle.
type Status string

const (
	// StatusPending means the upload is stored but not yet profiled.
	StatusPending Status = "pending"
	// StatusProfiling means a profiling run currently owns the version.
	StatusProfiling Status = "profiling"
	// StatusReady means the profile is stored and the version can be diffed.
	StatusReady Status = "ready"
	// StatusFailed means parsing or profiling gave up on the payload.
	StatusFailed Status = "failed"
)

// Version is one immutable snapshot of a dataset.
type Version struct {
	ID       string `json:"id"`
	Dataset  string `json:"dataset"`
	Status   Status `json:"status"`
	// ParentID links to the version this one was uploaded against, empty
	// for the first version of a dataset.
	ParentID  string    `json:"parentId,omitempty"`
	FileRef   string    `json:"fileRef"`
	RowCount  int       `json:"rowCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// Event actions recorded in the version history.
const (
	ActionUpload        = "upload"
	ActionProfileStored = "profile_stored"
	ActionProfileFailed = "profile_failed"
	ActionDiff          = "diff"
)

// Event is one entry in a dataset's version history.
type Event struct {
	ID        string         `json:"id"`
	Dataset   string         `json:"dataset"`
	VersionID string         `json:"versionId,omitempty"`
	Action    string         `json:"action"`
	Severity  string         `json:"severity"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// eventSeverity returns the severity recorded for an action.
func eventSeverity(action string) string {
	switch action {
	case ActionProfileFailed:
		return "high"
	case ActionUpload, ActionProfileStored:
		return "medium"
	default:
		return "low"
	}
}

// toPgText converts a string to pgtype.Text, invalid for blank input so the
// column stores NULL instead of an empty string.
func toPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toPgUUID converts a string to pgtype.UUID, invalid for empty or malformed
// input.
func toPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// pgUUIDToString converts a pgtype.UUID to its string form, empty when NULL.
func pgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
