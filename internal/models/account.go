package models

import "time"

// Account is a prepaid user record keyed by RFID card id.
// Balance is stored in minor currency units and is mutated only through
// debit/credit operations, never a free-form write.
type Account struct {
	ID            int64     `db:"id" json:"id"`
	CardID        string    `db:"eid" json:"card_id"`
	DisplayName   string    `db:"name" json:"display_name"`
	ContactNumber string    `db:"contact_number" json:"contact_number"`
	BalanceCents  int64     `db:"current_balance" json:"balance_cents"`
	Active        bool      `db:"state" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
