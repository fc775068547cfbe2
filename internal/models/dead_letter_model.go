package models

import (
	"database/sql"
	"time"
)

// DeadLetterEntry is a permanently failed activity held for manual triage.
// The pipeline only ever appends; resolution fields are operator bookkeeping.
type DeadLetterEntry struct {
	ID              int64          `db:"id" json:"id"`
	ActivityID      int64          `db:"activity_id" json:"activity_id"`
	ErrorMessage    string         `db:"error_message" json:"error_message"`
	ErrorType       string         `db:"error_type" json:"error_type"`
	Attempts        int            `db:"attempts" json:"attempts"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	ResolvedAt      sql.NullTime   `db:"resolved_at" json:"resolved_at"`
	ResolutionNotes sql.NullString `db:"resolution_notes" json:"resolution_notes"`
}

const (
	ErrorTypeAuth      = "auth"
	ErrorTypeNotFound  = "not_found"
	ErrorTypeRateLimit = "rate_limit"
	ErrorTypeTimeout   = "timeout"
	ErrorTypeNetwork   = "network"
	ErrorTypeUnknown   = "unknown"
)
