package models

import "time"

// EventKind classifies authentication log rows.
type EventKind string

// Authentication event kinds.
const (
	EventKindLogin   EventKind = "login"
	EventKindLogout  EventKind = "logout"
	EventKindFailed  EventKind = "failed"
	EventKindTimeout EventKind = "timeout"
)

// AuthEvent is an append-only authentication log row. AccountID and
// DisplayName are nil for failed scans where the card was not found.
type AuthEvent struct {
	ID          int64     `db:"id" json:"id"`
	CardID      string    `db:"eid" json:"card_id"`
	AccountID   *int64    `db:"user_id" json:"account_id,omitempty"`
	DisplayName *string   `db:"user_name" json:"display_name,omitempty"`
	Kind        EventKind `db:"event_type" json:"kind"`
	Success     bool      `db:"success" json:"success"`
	Message     string    `db:"message" json:"message"`
	OccurredAt  time.Time `db:"created_at" json:"occurred_at"`
}
