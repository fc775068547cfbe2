package models

import (
	"database/sql"
	"time"
)

type Campaign struct {
	ID            int64     `db:"id" json:"id"`
	AccountID     int64     `db:"account_id" json:"account_id"`
	Name          string    `db:"name" json:"name"`
	TriggerPhrase string    `db:"trigger_phrase" json:"trigger_phrase"`
	DMTemplate    string    `db:"dm_template" json:"dm_template"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type Lead struct {
	ID          int64          `db:"id" json:"id"`
	CampaignID  int64          `db:"campaign_id" json:"campaign_id"`
	ProviderURN string         `db:"provider_urn" json:"provider_urn"`
	Name        string         `db:"name" json:"name"`
	Email       sql.NullString `db:"email" json:"email"`
	Status      string         `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	LeadStatusNew               = "new"
	LeadStatusDMSent            = "dm_sent"
	LeadStatusConnectionPending = "connection_pending"
	LeadStatusEmailCaptured     = "email_captured"
)

// PendingConnection correlates an outbound connection trigger with the
// inbound invitation it is expected to produce.
type PendingConnection struct {
	ID            int64          `db:"id" json:"id"`
	CampaignID    int64          `db:"campaign_id" json:"campaign_id"`
	LeadID        int64          `db:"lead_id" json:"lead_id"`
	SenderURN     string         `db:"sender_urn" json:"sender_urn"`
	Status        string         `db:"status" json:"status"`
	CapturedNote  sql.NullString `db:"captured_note" json:"captured_note"`
	CapturedEmail sql.NullString `db:"captured_email" json:"captured_email"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	MatchedAt     sql.NullTime   `db:"matched_at" json:"matched_at"`
}

const (
	ConnectionStatusPending = "pending"
	ConnectionStatusMatched = "matched"
)
