package models

import "time"

type Post struct {
	ID          int64     `db:"id" json:"id"`
	AccountID   int64     `db:"account_id" json:"account_id"`
	ExternalURN string    `db:"external_urn" json:"external_urn"`
	URL         string    `db:"url" json:"url"`
	Status      string    `db:"status" json:"status"`
	PublishedAt time.Time `db:"published_at" json:"published_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

const (
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)
