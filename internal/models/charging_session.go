package models

import "time"

// SessionStatus is the lifecycle state of a charging session.
type SessionStatus string

// Session statuses. A session leaves InProgress exactly once.
const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAborted    SessionStatus = "aborted"
)

// ChargingSession is created at the moment of debit and updated by the
// session monitor until it reaches a terminal status.
type ChargingSession struct {
	ID                     int64         `db:"id" json:"id"`
	AccountID              int64         `db:"account_id" json:"account_id"`
	DisplayName            string        `db:"display_name" json:"display_name"`
	PaidAmountCents        int64         `db:"paid_amount_cents" json:"paid_amount_cents"`
	StartBatteryPercent    float64       `db:"start_battery" json:"start_battery_percent"`
	TargetBatteryPercent   float64       `db:"target_battery" json:"target_battery_percent"`
	EnergyDeliveredKWh     float64       `db:"energy_kwh" json:"energy_delivered_kwh"`
	StartTime              time.Time     `db:"start_time" json:"start_time"`
	EndTime                *time.Time    `db:"end_time" json:"end_time,omitempty"`
	Status                 SessionStatus `db:"status" json:"status"`
	RemainingBalanceCents  int64         `db:"remaining_balance_cents" json:"remaining_balance_cents_at_start"`
	CreatedAt              time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time     `db:"updated_at" json:"updated_at"`
}
