package repository

import (
	"context"
	"database/sql"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
)

// AuthLogRepository persists the append-only authentication log.
// Rows are never updated or deleted.
type AuthLogRepository struct {
	db *sql.DB
}

// NewAuthLogRepository returns repository.
func NewAuthLogRepository(db *sql.DB) *AuthLogRepository {
	return &AuthLogRepository{db: db}
}

// Insert appends an authentication event.
func (r *AuthLogRepository) Insert(ctx context.Context, event *models.AuthEvent) error {
	const query = `
		INSERT INTO authentication_logs (eid, user_id, user_name, event_type, success, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		event.CardID,
		event.AccountID,
		event.DisplayName,
		event.Kind,
		event.Success,
		event.Message,
	).Scan(&event.ID, &event.OccurredAt)
}

// RecentLoginEvents returns the newest login events, most recent first.
// The scan controller polls this to detect a fresh successful login.
func (r *AuthLogRepository) RecentLoginEvents(ctx context.Context, limit int) ([]models.AuthEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT id, eid, user_id, user_name, event_type, success, message, created_at
		FROM authentication_logs
		WHERE event_type = 'login'
		ORDER BY created_at DESC
		LIMIT $1
	`
	return r.queryEvents(ctx, query, limit)
}

// ListRecent returns the newest events of any kind for audit views.
func (r *AuthLogRepository) ListRecent(ctx context.Context, limit int) ([]models.AuthEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, eid, user_id, user_name, event_type, success, message, created_at
		FROM authentication_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	return r.queryEvents(ctx, query, limit)
}

func (r *AuthLogRepository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]models.AuthEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.AuthEvent
	for rows.Next() {
		var e models.AuthEvent
		if err := rows.Scan(
			&e.ID,
			&e.CardID,
			&e.AccountID,
			&e.DisplayName,
			&e.Kind,
			&e.Success,
			&e.Message,
			&e.OccurredAt,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
