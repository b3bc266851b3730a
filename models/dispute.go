package models

import "time"

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
)

// Dispute is an append-only complaint against a match. Several may
// exist per match; only the most recent open one is actionable.
type Dispute struct {
	ID         int           `json:"id" db:"id"`
	MatchID    int           `json:"match_id" db:"match_id"`
	RaisedBy   int64         `json:"raised_by" db:"raised_by"`
	Reason     string        `json:"reason" db:"reason"`
	Status     DisputeStatus `json:"status" db:"status"`
	Resolution *string       `json:"resolution,omitempty" db:"resolution"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}
