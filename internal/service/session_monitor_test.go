package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
)

func TestSessionMonitorCompletesAtTarget(t *testing.T) {
	store := newFakeChargeStore(10000)
	hw := &fakeCharger{battery: 20, power: 3680}
	svc := NewChargeService(store, hw, nil, 10000, zap.NewNop())

	session, err := svc.StartCharge(context.Background(), testAccount(10000), 5000)
	if err != nil {
		t.Fatalf("start charge: %v", err)
	}

	monitor := NewSessionMonitor(store, store, svc, hw, 10*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Run(ctx)

	// Below target: the session must stay in progress and accrue energy.
	time.Sleep(60 * time.Millisecond)
	if got := store.sessionStatus(session.ID); got != models.SessionInProgress {
		t.Fatalf("session finished below target: %s", got)
	}

	hw.setBattery(session.TargetBatteryPercent)
	waitFor(t, time.Second, func() bool {
		return store.sessionStatus(session.ID) == models.SessionCompleted
	})

	store.mu.Lock()
	energy := store.energy[session.ID]
	store.mu.Unlock()
	if energy <= 0 {
		t.Fatalf("expected accrued energy, got %v", energy)
	}
}

func TestSessionMonitorIdleWithoutActiveSession(t *testing.T) {
	store := newFakeChargeStore(10000)
	hw := &fakeCharger{battery: 20}
	svc := NewChargeService(store, hw, nil, 10000, zap.NewNop())

	monitor := NewSessionMonitor(store, store, svc, hw, 10*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	if hw.stopCalls != 0 {
		t.Fatalf("monitor must not touch hardware while idle")
	}
}

func TestSessionMonitorToleratesRacingStop(t *testing.T) {
	store := newFakeChargeStore(10000)
	hw := &fakeCharger{battery: 20}
	svc := NewChargeService(store, hw, nil, 10000, zap.NewNop())

	session, err := svc.StartCharge(context.Background(), testAccount(10000), 5000)
	if err != nil {
		t.Fatalf("start charge: %v", err)
	}

	// The user stops first; the monitor's completion attempt must not
	// error out or double-finish.
	if err := svc.StopCharge(context.Background(), session); err != nil {
		t.Fatalf("stop charge: %v", err)
	}
	hw.setBattery(100)

	monitor := NewSessionMonitor(store, store, svc, hw, 10*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	if got := store.sessionStatus(session.ID); got != models.SessionCompleted {
		t.Fatalf("terminal status changed after the fact: %s", got)
	}
}
