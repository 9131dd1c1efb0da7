package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
)

// ChargeStore applies the balance-affecting operations. The debit, the
// session row, and the ledger row for a paid session are written in one
// database transaction: a charge either fully happens or not at all.
type ChargeStore struct {
	db *sql.DB
}

// NewChargeStore returns store.
func NewChargeStore(db *sql.DB) *ChargeStore {
	return &ChargeStore{db: db}
}

// StartPaidSessionParams carries the confirmed charge request.
type StartPaidSessionParams struct {
	AccountID            int64
	AmountCents          int64
	StartBatteryPercent  float64
	TargetBatteryPercent float64
}

// StartPaidSession atomically debits the account, creates an in-progress
// charging session, and appends the matching ledger row. The account row
// is locked first so concurrent attempts against the same account cannot
// both succeed on a stale balance.
func (s *ChargeStore) StartPaidSession(ctx context.Context, params StartPaidSessionParams) (*models.ChargingSession, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var (
		displayName string
		balance     int64
		active      bool
	)
	const lockQuery = `
		SELECT name, current_balance, state
		FROM users
		WHERE id = $1
		FOR UPDATE
	`
	if err := tx.QueryRowContext(ctx, lockQuery, params.AccountID).Scan(&displayName, &balance, &active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if !active {
		return nil, ErrAccountInactive
	}

	var hasActive bool
	const activeQuery = `
		SELECT EXISTS (
			SELECT 1 FROM charging_sessions
			WHERE account_id = $1 AND status = 'in_progress'
		)
	`
	if err := tx.QueryRowContext(ctx, activeQuery, params.AccountID).Scan(&hasActive); err != nil {
		return nil, err
	}
	if hasActive {
		return nil, ErrSessionAlreadyActive
	}

	if params.AmountCents <= 0 || params.AmountCents > balance {
		return nil, ErrInsufficientFunds
	}
	newBalance := balance - params.AmountCents

	const debitQuery = `
		UPDATE users
		SET current_balance = $2,
		    updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, debitQuery, params.AccountID, newBalance); err != nil {
		return nil, err
	}

	session := &models.ChargingSession{
		AccountID:             params.AccountID,
		DisplayName:           displayName,
		PaidAmountCents:       params.AmountCents,
		StartBatteryPercent:   params.StartBatteryPercent,
		TargetBatteryPercent:  params.TargetBatteryPercent,
		Status:                models.SessionInProgress,
		RemainingBalanceCents: newBalance,
	}
	const sessionQuery = `
		INSERT INTO charging_sessions
			(account_id, display_name, paid_amount_cents, start_battery, target_battery,
			 energy_kwh, start_time, status, remaining_balance_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, NOW(), $6, $7, NOW(), NOW())
		RETURNING id, start_time, created_at, updated_at
	`
	if err := tx.QueryRowContext(ctx, sessionQuery,
		session.AccountID,
		session.DisplayName,
		session.PaidAmountCents,
		session.StartBatteryPercent,
		session.TargetBatteryPercent,
		session.Status,
		session.RemainingBalanceCents,
	).Scan(&session.ID, &session.StartTime, &session.CreatedAt, &session.UpdatedAt); err != nil {
		return nil, err
	}

	const ledgerQuery = `
		INSERT INTO ledger_transactions (account_id, display_name, kind, amount_cents, description, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	description := fmt.Sprintf("prepaid charge to %.1f%%", session.TargetBatteryPercent)
	if _, err := tx.ExecContext(ctx, ledgerQuery,
		session.AccountID,
		session.DisplayName,
		models.LedgerKindCharge,
		-params.AmountCents,
		description,
		session.ID,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return session, nil
}

// AdjustBalance credits or debits an account by an explicit admin action
// and appends the matching admin_adjustment ledger row in one transaction.
// The balance is never allowed to go negative.
func (s *ChargeStore) AdjustBalance(ctx context.Context, accountID, amountCents int64, description string, sessionID *int64) (*models.Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const updateQuery = `
		UPDATE users
		SET current_balance = current_balance + $2,
		    updated_at = NOW()
		WHERE id = $1 AND current_balance + $2 >= 0
		RETURNING ` + accountColumns + `
	`
	account, err := scanAccount(tx.QueryRowContext(ctx, updateQuery, accountID, amountCents))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// The row may exist but fail the non-negative guard.
			var exists bool
			if checkErr := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, accountID).Scan(&exists); checkErr == nil && exists {
				return nil, ErrInsufficientFunds
			}
		}
		return nil, err
	}

	const ledgerQuery = `
		INSERT INTO ledger_transactions (account_id, display_name, kind, amount_cents, description, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	if _, err := tx.ExecContext(ctx, ledgerQuery,
		account.ID,
		account.DisplayName,
		models.LedgerKindAdminAdjustment,
		amountCents,
		description,
		sessionID,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return account, nil
}

// RecordEnergy updates the energy counter of an in-progress session.
func (s *ChargeStore) RecordEnergy(ctx context.Context, sessionID int64, energyKWh float64) error {
	const query = `
		UPDATE charging_sessions
		SET energy_kwh = $2,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	_, err := s.db.ExecContext(ctx, query, sessionID, energyKWh)
	return err
}

// FinishSession moves a session out of in_progress. The status guard in
// the WHERE clause makes the terminal transition happen exactly once; a
// second caller gets ErrSessionNotActive.
func (s *ChargeStore) FinishSession(ctx context.Context, sessionID int64, status models.SessionStatus, endTime time.Time) error {
	if status != models.SessionCompleted && status != models.SessionAborted {
		return fmt.Errorf("charge store: %q is not a terminal status", status)
	}
	const query = `
		UPDATE charging_sessions
		SET status = $2,
		    end_time = $3,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	result, err := s.db.ExecContext(ctx, query, sessionID, status, endTime)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotActive
	}
	return nil
}
