package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/redisstore"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/repository"
)

// ErrHardwareStartFailed means the debit committed but the hardware
// refused to start. The session stays in progress and must be reconciled
// by an operator; the money movement is not rolled back automatically.
var ErrHardwareStartFailed = errors.New("hardware failed to start charging")

// ChargeStore is the transactional boundary where money moves.
type ChargeStore interface {
	StartPaidSession(ctx context.Context, params repository.StartPaidSessionParams) (*models.ChargingSession, error)
	FinishSession(ctx context.Context, sessionID int64, status models.SessionStatus, endTime time.Time) error
}

// Charger is the energy-delivery side of the hardware adapter.
type Charger interface {
	StartCharging(ctx context.Context, targetPercent float64) error
	StopCharging(ctx context.Context) error
	ReadTelemetry(ctx context.Context) (models.Telemetry, error)
}

// ActiveCache is the optional redis projection of the running session.
type ActiveCache interface {
	Save(ctx context.Context, charge redisstore.ActiveCharge) error
	Delete(ctx context.Context, accountID int64) error
}

// ChargeEvent is pushed to the kiosk UI and operator console.
type ChargeEvent struct {
	Type    string                  `json:"type"`
	Session *models.ChargingSession `json:"session,omitempty"`
	Message string                  `json:"message,omitempty"`
}

// ChargeService owns the paid-session lifecycle: the atomic debit via the
// store, the hardware start, and the terminal transitions.
type ChargeService struct {
	store               ChargeStore
	hw                  Charger
	cache               ActiveCache
	fullChargeCostCents int64
	logger              *zap.Logger
	notify              func(ChargeEvent)
}

// NewChargeService builds service. cache may be nil.
func NewChargeService(store ChargeStore, hw Charger, cache ActiveCache, fullChargeCostCents int64, logger *zap.Logger) *ChargeService {
	return &ChargeService{
		store:               store,
		hw:                  hw,
		cache:               cache,
		fullChargeCostCents: fullChargeCostCents,
		logger:              logger,
	}
}

// SetNotifier registers the UI/operator event callback.
func (s *ChargeService) SetNotifier(notify func(ChargeEvent)) {
	s.notify = notify
}

// StartCharge debits the account and starts delivering energy toward the
// target derived from the paid amount. The debit, session row, and ledger
// row commit as one unit before the hardware is touched. On hardware
// failure the committed session is returned together with
// ErrHardwareStartFailed so the caller can raise the operator alert.
func (s *ChargeService) StartCharge(ctx context.Context, account *models.Account, amountCents int64) (*models.ChargingSession, error) {
	if amountCents <= 0 || amountCents > account.BalanceCents {
		return nil, repository.ErrInsufficientFunds
	}

	telemetry, err := s.hw.ReadTelemetry(ctx)
	if err != nil {
		return nil, fmt.Errorf("charge: read telemetry: %w", err)
	}

	target := TargetBatteryPercent(amountCents, telemetry.BatteryPercent, s.fullChargeCostCents)

	session, err := s.store.StartPaidSession(ctx, repository.StartPaidSessionParams{
		AccountID:            account.ID,
		AmountCents:          amountCents,
		StartBatteryPercent:  telemetry.BatteryPercent,
		TargetBatteryPercent: target,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("paid session started",
		zap.Int64("session_id", session.ID),
		zap.Int64("account_id", account.ID),
		zap.Int64("amount_cents", amountCents),
		zap.Float64("start_battery", session.StartBatteryPercent),
		zap.Float64("target_battery", session.TargetBatteryPercent),
	)
	s.cacheSave(ctx, session)

	if err := s.hw.StartCharging(ctx, target); err != nil {
		// Known gap: money moved, energy did not. Surface loudly and
		// leave the session in progress for operator reconciliation.
		s.logger.Error("hardware start failed after debit",
			zap.Int64("session_id", session.ID),
			zap.Int64("account_id", account.ID),
			zap.Error(err),
		)
		s.emit(ChargeEvent{
			Type:    "operator_alert",
			Session: session,
			Message: "charging hardware failed to start after payment; session requires manual reconciliation",
		})
		return session, fmt.Errorf("%w: %v", ErrHardwareStartFailed, err)
	}

	s.emit(ChargeEvent{Type: "charge_started", Session: session})
	return session, nil
}

// StopCharge is the user-initiated stop: halt the hardware and complete
// the session. The paid amount is not refunded.
func (s *ChargeService) StopCharge(ctx context.Context, session *models.ChargingSession) error {
	if err := s.hw.StopCharging(ctx); err != nil {
		return fmt.Errorf("charge: stop hardware: %w", err)
	}
	if err := s.store.FinishSession(ctx, session.ID, models.SessionCompleted, time.Now().UTC()); err != nil {
		return err
	}
	s.cacheDelete(ctx, session.AccountID)
	s.logger.Info("session completed by user", zap.Int64("session_id", session.ID))
	s.emit(ChargeEvent{Type: "charge_stopped", Session: session})
	return nil
}

// AbortCharge is the operator action: stop the hardware best-effort and
// mark the session aborted. It does not by itself reverse the ledger;
// a refund is a separate, explicit balance adjustment.
func (s *ChargeService) AbortCharge(ctx context.Context, session *models.ChargingSession) error {
	if err := s.hw.StopCharging(ctx); err != nil {
		s.logger.Warn("hardware stop failed during abort", zap.Int64("session_id", session.ID), zap.Error(err))
	}
	if err := s.store.FinishSession(ctx, session.ID, models.SessionAborted, time.Now().UTC()); err != nil {
		return err
	}
	s.cacheDelete(ctx, session.AccountID)
	s.logger.Info("session aborted", zap.Int64("session_id", session.ID))
	s.emit(ChargeEvent{Type: "charge_aborted", Session: session})
	return nil
}

func (s *ChargeService) cacheSave(ctx context.Context, session *models.ChargingSession) {
	if s.cache == nil {
		return
	}
	err := s.cache.Save(ctx, redisstore.ActiveCharge{
		SessionID:            session.ID,
		AccountID:            session.AccountID,
		DisplayName:          session.DisplayName,
		TargetBatteryPercent: session.TargetBatteryPercent,
		StartedAt:            session.StartTime,
	})
	if err != nil {
		s.logger.Warn("failed to cache active charge", zap.Error(err))
	}
}

func (s *ChargeService) cacheDelete(ctx context.Context, accountID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, accountID); err != nil {
		s.logger.Warn("failed to drop active charge cache", zap.Error(err))
	}
}

func (s *ChargeService) emit(event ChargeEvent) {
	if s.notify != nil {
		s.notify(event)
	}
}
