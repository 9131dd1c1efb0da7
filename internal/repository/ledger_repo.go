package repository

import (
	"context"
	"database/sql"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
)

// LedgerRepository reads the append-only ledger. Rows are written only by
// ChargeStore, in the same transaction as the balance change they record.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository returns repository.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const ledgerColumns = `id, account_id, display_name, kind, amount_cents, description, session_id, created_at`

// ListByAccount returns the newest ledger rows for an account.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]models.LedgerTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT ` + ledgerColumns + `
		FROM ledger_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.queryLedger(ctx, query, accountID, limit)
}

// ListRecent returns the newest ledger rows across all accounts.
func (r *LedgerRepository) ListRecent(ctx context.Context, limit int) ([]models.LedgerTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT ` + ledgerColumns + `
		FROM ledger_transactions
		ORDER BY created_at DESC
		LIMIT $1
	`
	return r.queryLedger(ctx, query, limit)
}

func (r *LedgerRepository) queryLedger(ctx context.Context, query string, args ...interface{}) ([]models.LedgerTransaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.LedgerTransaction
	for rows.Next() {
		var tx models.LedgerTransaction
		if err := rows.Scan(
			&tx.ID,
			&tx.AccountID,
			&tx.DisplayName,
			&tx.Kind,
			&tx.AmountCents,
			&tx.Description,
			&tx.SessionID,
			&tx.OccurredAt,
		); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}
