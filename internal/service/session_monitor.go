package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/repository"
)

// SessionReader looks up the running session.
type SessionReader interface {
	ActiveSession(ctx context.Context) (*models.ChargingSession, error)
}

// EnergyRecorder persists progress for the running session.
type EnergyRecorder interface {
	RecordEnergy(ctx context.Context, sessionID int64, energyKWh float64) error
}

// SessionMonitor polls hardware telemetry while a session is in progress,
// accumulates delivered energy, and completes the session when the target
// battery level is reached. The conditional terminal update in the store
// keeps the transition exactly-once even if a user stop races it.
type SessionMonitor struct {
	sessions SessionReader
	recorder EnergyRecorder
	charges  *ChargeService
	hw       Charger
	interval time.Duration
	logger   *zap.Logger

	trackedSession int64
	energyKWh      float64
	lastTick       time.Time
}

// NewSessionMonitor builds monitor.
func NewSessionMonitor(sessions SessionReader, recorder EnergyRecorder, charges *ChargeService, hw Charger, interval time.Duration, logger *zap.Logger) *SessionMonitor {
	if interval <= 0 {
		interval = time.Second
	}
	return &SessionMonitor{
		sessions: sessions,
		recorder: recorder,
		charges:  charges,
		hw:       hw,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until the context is cancelled. Transient errors are logged
// and retried on the next tick.
func (m *SessionMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("session monitor started", zap.Duration("interval", m.interval))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *SessionMonitor) tick(ctx context.Context) {
	session, err := m.sessions.ActiveSession(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			m.reset()
			return
		}
		m.logger.Warn("active session lookup failed", zap.Error(err))
		return
	}

	if session.ID != m.trackedSession {
		m.trackedSession = session.ID
		m.energyKWh = session.EnergyDeliveredKWh
		m.lastTick = time.Now()
	}

	telemetry, err := m.hw.ReadTelemetry(ctx)
	if err != nil {
		m.logger.Warn("telemetry read failed", zap.Int64("session_id", session.ID), zap.Error(err))
		return
	}

	now := time.Now()
	if !m.lastTick.IsZero() {
		// Power is in watts; integrate over the elapsed interval.
		m.energyKWh += telemetry.Power * now.Sub(m.lastTick).Hours() / 1000
	}
	m.lastTick = now

	if err := m.recorder.RecordEnergy(ctx, session.ID, m.energyKWh); err != nil {
		m.logger.Warn("failed to record energy", zap.Int64("session_id", session.ID), zap.Error(err))
	}

	if telemetry.BatteryPercent >= session.TargetBatteryPercent {
		m.complete(ctx, session)
	}
}

func (m *SessionMonitor) complete(ctx context.Context, session *models.ChargingSession) {
	if err := m.charges.StopCharge(ctx, session); err != nil {
		if errors.Is(err, repository.ErrSessionNotActive) {
			// Someone else finished it first; nothing to do.
			m.reset()
			return
		}
		m.logger.Warn("failed to complete session", zap.Int64("session_id", session.ID), zap.Error(err))
		return
	}
	m.logger.Info("session reached target",
		zap.Int64("session_id", session.ID),
		zap.Float64("target_battery", session.TargetBatteryPercent),
		zap.Float64("energy_kwh", m.energyKWh),
	)
	m.reset()
}

func (m *SessionMonitor) reset() {
	m.trackedSession = 0
	m.energyKWh = 0
	m.lastTick = time.Time{}
}
