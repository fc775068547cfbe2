package transfer

import "github.com/revoshq/podengine/internal/models"

type EligibleMember struct {
	Member *models.PodMember `json:"member"`
}

type SkippedMember struct {
	Member *models.PodMember `json:"member"`
	Reason string            `json:"reason"`
}

// ScheduleResult summarizes one post's fan-out.
type ScheduleResult struct {
	PostID      int64 `json:"post_id"`
	PodID       int64 `json:"pod_id"`
	Scheduled   int   `json:"scheduled"`
	Skipped     int   `json:"skipped"`
	Unscheduled int   `json:"unscheduled"`
}

type AccountError struct {
	AccountID int64  `json:"account_id"`
	Error     string `json:"error"`
}

// PollSummary is the outcome of one correlator cycle. Per-account failures
// are collected here instead of failing the cycle.
type PollSummary struct {
	Accounts  int            `json:"accounts"`
	Fetched   int            `json:"fetched"`
	Matched   int            `json:"matched"`
	Unmatched int            `json:"unmatched"`
	NoEmail   int            `json:"no_email"`
	Errors    []AccountError `json:"errors,omitempty"`
}
