package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/repository"
)

// ErrIdentityMismatch means the confirmation-time registry re-check did
// not match the detected identity.
var ErrIdentityMismatch = errors.New("detected identity does not match registry")

// Registry is the account lookup used at confirmation time.
type Registry interface {
	FindByCard(ctx context.Context, cardID string) (*models.Account, error)
	FindByID(ctx context.Context, id int64) (*models.Account, error)
}

// ConfirmationGate requires explicit human confirmation before a detected
// scan becomes an authenticated session. The scan protocol is
// asynchronous, so card identity is re-checked synchronously here at the
// moment of commitment.
type ConfirmationGate struct {
	registry Registry
	logger   *zap.Logger
}

// NewConfirmationGate builds gate.
func NewConfirmationGate(registry Registry, logger *zap.Logger) *ConfirmationGate {
	return &ConfirmationGate{registry: registry, logger: logger}
}

// Confirm re-fetches the account by card id and verifies it is the one
// the detected event referenced. A missing account or a stale detection
// fails with ErrIdentityMismatch.
func (g *ConfirmationGate) Confirm(ctx context.Context, detected DetectedIdentity) (*models.Account, error) {
	account, err := g.registry.FindByCard(ctx, detected.CardID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			g.logger.Warn("confirm failed, account missing",
				zap.String("card_id", detected.CardID),
			)
			return nil, ErrIdentityMismatch
		}
		return nil, fmt.Errorf("confirm: registry lookup: %w", err)
	}

	if account.ID != detected.AccountID {
		g.logger.Warn("confirm failed, identity mismatch",
			zap.Int64("detected_account_id", detected.AccountID),
			zap.Int64("registry_account_id", account.ID),
		)
		return nil, ErrIdentityMismatch
	}
	if !account.Active {
		return nil, repository.ErrAccountInactive
	}

	g.logger.Info("identity confirmed",
		zap.Int64("account_id", account.ID),
		zap.String("name", account.DisplayName),
	)
	return account, nil
}
