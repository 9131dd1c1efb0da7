package models

import "time"

// LedgerKind classifies ledger rows.
type LedgerKind string

// Ledger transaction kinds.
const (
	LedgerKindCharge          LedgerKind = "charge"
	LedgerKindAdminAdjustment LedgerKind = "admin_adjustment"
)

// LedgerTransaction is an append-only audit row. Amount is signed in minor
// currency units; a charge is negative. For every account the sum of
// amounts equals the balance delta since account creation.
type LedgerTransaction struct {
	ID          int64      `db:"id" json:"id"`
	AccountID   int64      `db:"account_id" json:"account_id"`
	DisplayName string     `db:"display_name" json:"display_name"`
	Kind        LedgerKind `db:"kind" json:"kind"`
	AmountCents int64      `db:"amount_cents" json:"amount_cents"`
	Description string     `db:"description" json:"description"`
	SessionID   *int64     `db:"session_id" json:"session_id,omitempty"`
	OccurredAt  time.Time  `db:"created_at" json:"occurred_at"`
}
