package hardware

import (
	"context"
	"sync"
	"time"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
)

const (
	simVoltage          = 230.0
	simChargingCurrent  = 16.0
	simPercentPerSecond = 0.5
)

// Simulator is an in-process Adapter used off-station for development and
// tests. Battery level ramps toward the target while charging and the
// presented card can be swapped at runtime.
type Simulator struct {
	mu             sync.Mutex
	batteryPercent float64
	targetPercent  float64
	charging       bool
	ratePerSecond  float64
	presentCard    string
	lastAdvance    time.Time
	now            func() time.Time
}

// NewSimulator returns a simulator starting at the given battery level.
func NewSimulator(batteryPercent float64) *Simulator {
	return &Simulator{
		batteryPercent: batteryPercent,
		ratePerSecond:  simPercentPerSecond,
		now:            time.Now,
	}
}

// SetChargeRate overrides the simulated percent-per-second ramp.
func (s *Simulator) SetChargeRate(percentPerSecond float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if percentPerSecond > 0 {
		s.ratePerSecond = percentPerSecond
	}
}

// PresentCard places a card on the simulated reader.
func (s *Simulator) PresentCard(cardID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presentCard = cardID
}

// RemoveCard clears the simulated reader.
func (s *Simulator) RemoveCard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presentCard = ""
}

// StartCharging begins ramping battery toward targetPercent.
func (s *Simulator) StartCharging(_ context.Context, targetPercent float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
	s.targetPercent = targetPercent
	s.charging = true
	return nil
}

// StopCharging halts the ramp.
func (s *Simulator) StopCharging(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
	s.charging = false
	return nil
}

// ReadTelemetry reports the current simulated state.
func (s *Simulator) ReadTelemetry(_ context.Context) (models.Telemetry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()

	tel := models.Telemetry{
		BatteryPercent: s.batteryPercent,
		Voltage:        simVoltage,
	}
	if s.charging {
		tel.Current = simChargingCurrent
		tel.Power = simVoltage * simChargingCurrent
	}
	return tel, nil
}

// ScanPresence reports the card currently on the simulated reader.
func (s *Simulator) ScanPresence(_ context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.presentCard == "" {
		return "", false, nil
	}
	return s.presentCard, true, nil
}

// advanceLocked moves the battery forward based on elapsed wall time.
// Caller must hold the mutex.
func (s *Simulator) advanceLocked() {
	now := s.now()
	if s.lastAdvance.IsZero() {
		s.lastAdvance = now
		return
	}
	elapsed := now.Sub(s.lastAdvance).Seconds()
	s.lastAdvance = now

	if !s.charging || elapsed <= 0 {
		return
	}
	s.batteryPercent += elapsed * s.ratePerSecond
	if s.batteryPercent >= s.targetPercent {
		s.batteryPercent = s.targetPercent
		s.charging = false
	}
	if s.batteryPercent > 100 {
		s.batteryPercent = 100
	}
}
