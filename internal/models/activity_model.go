package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// PodActivity is one scheduled unit of engagement work. Rows are created by
// the scheduler, mutated only by the executor, and never deleted.
type PodActivity struct {
	ID                int64          `db:"id" json:"id"`
	PodID             int64          `db:"pod_id" json:"pod_id"`
	MemberID          int64          `db:"member_id" json:"member_id"`
	PostID            int64          `db:"post_id" json:"post_id"`
	ActivityType      string         `db:"activity_type" json:"activity_type"`
	TargetURN         string         `db:"target_urn" json:"target_urn"`
	IdempotencyKey    string         `db:"idempotency_key" json:"idempotency_key"`
	ScheduledFor      time.Time      `db:"scheduled_for" json:"scheduled_for"`
	Status            string         `db:"status" json:"status"`
	SkipReason        sql.NullString `db:"skip_reason" json:"skip_reason"`
	ExecutionAttempts int            `db:"execution_attempts" json:"execution_attempts"`
	LastError         sql.NullString `db:"last_error" json:"last_error"`
	ExecutionResult   []byte         `db:"execution_result" json:"execution_result"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	ActivityStatusPending     = "pending"
	ActivityStatusCompleted   = "completed"
	ActivityStatusFailed      = "failed"
	ActivityStatusSkipped     = "skipped"
	ActivityStatusUnscheduled = "unscheduled" // rows committed but enqueue failed
)

const (
	ActivityTypeRepost    = "repost"
	ActivityTypeDMTrigger = "dm_trigger"
)

const (
	SkipReasonAmplifyDisabled  = "amplify_disabled"
	SkipReasonNoProfile        = "no_automation_profile"
	SkipReasonProfileUnhealthy = "profile_unhealthy"
)

// IsTerminalActivityStatus reports whether an activity may never be executed
// again. Unscheduled rows are not terminal: the reconciliation sweep returns
// them to pending.
func IsTerminalActivityStatus(status string) bool {
	switch status {
	case ActivityStatusCompleted, ActivityStatusFailed, ActivityStatusSkipped:
		return true
	}
	return false
}

// ExecutionResult is the structured outcome persisted on every finished
// execution, success or failure.
type ExecutionResult struct {
	Success     bool            `json:"success"`
	Timestamp   time.Time       `json:"timestamp"`
	Error       *string         `json:"error"`
	ErrorType   *string         `json:"error_type"`
	APIResponse json.RawMessage `json:"api_response,omitempty"`
}
