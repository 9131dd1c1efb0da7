package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
)

const sessionColumns = `id, account_id, display_name, paid_amount_cents, start_battery, target_battery,
	energy_kwh, start_time, end_time, status, remaining_balance_cents, created_at, updated_at`

// SessionRepository reads charging sessions. Writes go through ChargeStore.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func scanSession(row interface{ Scan(...interface{}) error }) (*models.ChargingSession, error) {
	var s models.ChargingSession
	err := row.Scan(
		&s.ID,
		&s.AccountID,
		&s.DisplayName,
		&s.PaidAmountCents,
		&s.StartBatteryPercent,
		&s.TargetBatteryPercent,
		&s.EnergyDeliveredKWh,
		&s.StartTime,
		&s.EndTime,
		&s.Status,
		&s.RemainingBalanceCents,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetByID fetches a session.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.ChargingSession, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM charging_sessions
		WHERE id = $1
		LIMIT 1
	`
	return scanSession(r.db.QueryRowContext(ctx, query, id))
}

// ActiveSession returns the single in-progress session of the station, or
// ErrSessionNotFound when the station is idle.
func (r *SessionRepository) ActiveSession(ctx context.Context) (*models.ChargingSession, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM charging_sessions
		WHERE status = 'in_progress'
		ORDER BY start_time DESC
		LIMIT 1
	`
	return scanSession(r.db.QueryRowContext(ctx, query))
}

// ListByAccount returns the latest sessions for an account.
func (r *SessionRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]models.ChargingSession, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT ` + sessionColumns + `
		FROM charging_sessions
		WHERE account_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.ChargingSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
