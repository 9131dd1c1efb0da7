package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
)

const accountColumns = `id, eid, name, contact_number, current_balance, state, created_at, updated_at`

// AccountRepository is the user registry backed by the users table.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository returns repository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func scanAccount(row interface{ Scan(...interface{}) error }) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID,
		&a.CardID,
		&a.DisplayName,
		&a.ContactNumber,
		&a.BalanceCents,
		&a.Active,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindByCard fetches an account by RFID card id.
func (r *AccountRepository) FindByCard(ctx context.Context, cardID string) (*models.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM users
		WHERE eid = $1
		LIMIT 1
	`
	return scanAccount(r.db.QueryRowContext(ctx, query, strings.TrimSpace(cardID)))
}

// FindByID fetches an account by primary key.
func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM users
		WHERE id = $1
		LIMIT 1
	`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// List returns all accounts ordered by name.
func (r *AccountRepository) List(ctx context.Context) ([]models.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM users
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(
			&a.ID,
			&a.CardID,
			&a.DisplayName,
			&a.ContactNumber,
			&a.BalanceCents,
			&a.Active,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Create inserts a new account. Balance may start non-zero for pre-funded
// cards; the opening balance is the baseline the ledger sums against.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	account.CardID = strings.TrimSpace(account.CardID)
	const query = `
		INSERT INTO users (eid, name, contact_number, current_balance, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		account.CardID,
		account.DisplayName,
		account.ContactNumber,
		account.BalanceCents,
		account.Active,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

// Update changes profile fields. Balance is excluded on purpose; it moves
// only through the charge store.
func (r *AccountRepository) Update(ctx context.Context, account *models.Account) error {
	const query = `
		UPDATE users
		SET eid = $2,
		    name = $3,
		    contact_number = $4,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		account.ID,
		strings.TrimSpace(account.CardID),
		account.DisplayName,
		account.ContactNumber,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// SetActive toggles the account state flag.
func (r *AccountRepository) SetActive(ctx context.Context, id int64, active bool) error {
	const query = `
		UPDATE users
		SET state = $2,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
