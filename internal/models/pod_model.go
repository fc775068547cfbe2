package models

import (
	"database/sql"
	"time"
)

type Pod struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type PodMember struct {
	ID                  int64          `db:"id" json:"id"`
	PodID               int64          `db:"pod_id" json:"pod_id"`
	AccountID           int64          `db:"account_id" json:"account_id"`
	AmplifyEnabled      bool           `db:"amplify_enabled" json:"amplify_enabled"`
	AutomationProfileID sql.NullString `db:"automation_profile_id" json:"automation_profile_id"`
	ProfileHealth       string         `db:"profile_health" json:"profile_health"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
}

const (
	ProfileHealthActive  = "active"
	ProfileHealthExpired = "expired"
	ProfileHealthRevoked = "revoked"
)
