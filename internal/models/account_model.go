package models

import "time"

type Account struct {
	ID          int64     `db:"id" json:"id"`
	ProviderURN string    `db:"provider_urn" json:"provider_urn"`
	Name        string    `db:"name" json:"name"`
	AccessToken string    `db:"access_token" json:"-"` // AES-GCM encrypted at rest
	Status      string    `db:"status" json:"status"`
	ConnectedAt time.Time `db:"connected_at" json:"connected_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

const (
	AccountStatusActive       = "active"
	AccountStatusDisconnected = "disconnected"
)
