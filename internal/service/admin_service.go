package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/repository"
)

// AdminService groups the operator-facing operations: account management,
// explicit balance adjustments, session reconciliation, and audit reads.
type AdminService struct {
	accounts *repository.AccountRepository
	sessions *repository.SessionRepository
	ledger   *repository.LedgerRepository
	authLogs *repository.AuthLogRepository
	store    *repository.ChargeStore
	charges  *ChargeService
	logger   *zap.Logger
}

// NewAdminService builds service.
func NewAdminService(
	accounts *repository.AccountRepository,
	sessions *repository.SessionRepository,
	ledger *repository.LedgerRepository,
	authLogs *repository.AuthLogRepository,
	store *repository.ChargeStore,
	charges *ChargeService,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		accounts: accounts,
		sessions: sessions,
		ledger:   ledger,
		authLogs: authLogs,
		store:    store,
		charges:  charges,
		logger:   logger,
	}
}

// ListAccounts returns all accounts.
func (s *AdminService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.accounts.List(ctx)
}

// CreateAccount registers a new card. The opening balance is the baseline
// the ledger sums against, so no ledger row is written here.
func (s *AdminService) CreateAccount(ctx context.Context, account *models.Account) error {
	if strings.TrimSpace(account.CardID) == "" {
		return errors.New("admin: card id required")
	}
	if strings.TrimSpace(account.DisplayName) == "" {
		return errors.New("admin: display name required")
	}
	if account.BalanceCents < 0 {
		return errors.New("admin: opening balance must not be negative")
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return err
	}
	s.logger.Info("account created",
		zap.Int64("account_id", account.ID),
		zap.String("card_id", account.CardID),
	)
	return nil
}

// UpdateAccount changes profile fields; the balance is untouched.
func (s *AdminService) UpdateAccount(ctx context.Context, account *models.Account) error {
	return s.accounts.Update(ctx, account)
}

// DeleteAccount removes an account.
func (s *AdminService) DeleteAccount(ctx context.Context, id int64) error {
	return s.accounts.Delete(ctx, id)
}

// SetAccountActive toggles the state flag.
func (s *AdminService) SetAccountActive(ctx context.Context, id int64, active bool) error {
	return s.accounts.SetActive(ctx, id, active)
}

// AdjustBalance credits or debits an account through the ledger. This is
// the reconciliation path for hardware failures after a debit: abort the
// session, then credit the amount back with a description.
func (s *AdminService) AdjustBalance(ctx context.Context, accountID, amountCents int64, description string, sessionID *int64) (*models.Account, error) {
	if amountCents == 0 {
		return nil, errors.New("admin: adjustment amount must not be zero")
	}
	if strings.TrimSpace(description) == "" {
		return nil, errors.New("admin: adjustment description required")
	}
	account, err := s.store.AdjustBalance(ctx, accountID, amountCents, description, sessionID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("balance adjusted",
		zap.Int64("account_id", accountID),
		zap.Int64("amount_cents", amountCents),
		zap.String("description", description),
	)
	return account, nil
}

// AbortSession marks a session aborted and stops the hardware. It never
// refunds automatically; use AdjustBalance for the compensating credit.
func (s *AdminService) AbortSession(ctx context.Context, sessionID int64) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.charges.AbortCharge(ctx, session)
}

// SessionsForAccount returns session history.
func (s *AdminService) SessionsForAccount(ctx context.Context, accountID int64, limit int) ([]models.ChargingSession, error) {
	return s.sessions.ListByAccount(ctx, accountID, limit)
}

// RecentLedger returns the newest ledger rows, optionally per account.
func (s *AdminService) RecentLedger(ctx context.Context, accountID int64, limit int) ([]models.LedgerTransaction, error) {
	if accountID > 0 {
		return s.ledger.ListByAccount(ctx, accountID, limit)
	}
	return s.ledger.ListRecent(ctx, limit)
}

// RecentAuthEvents returns the newest authentication log rows.
func (s *AdminService) RecentAuthEvents(ctx context.Context, limit int) ([]models.AuthEvent, error) {
	return s.authLogs.ListRecent(ctx, limit)
}
