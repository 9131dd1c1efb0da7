package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/redisstore"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/repository"
)

// fakeChargeStore mirrors the transactional store's contract against an
// in-memory balance and session table.
type fakeChargeStore struct {
	mu           sync.Mutex
	balanceCents int64
	displayName  string
	active       bool
	nextID       int64
	sessions     map[int64]*models.ChargingSession
	ledger       []int64
	energy       map[int64]float64
	startErr     error
	startCalls   int
}

func newFakeChargeStore(balanceCents int64) *fakeChargeStore {
	return &fakeChargeStore{
		balanceCents: balanceCents,
		displayName:  "Test User",
		active:       true,
		nextID:       1,
		sessions:     make(map[int64]*models.ChargingSession),
		energy:       make(map[int64]float64),
	}
}

func (f *fakeChargeStore) StartPaidSession(_ context.Context, params repository.StartPaidSessionParams) (*models.ChargingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	if f.startErr != nil {
		return nil, f.startErr
	}
	if !f.active {
		return nil, repository.ErrAccountInactive
	}
	for _, s := range f.sessions {
		if s.Status == models.SessionInProgress {
			return nil, repository.ErrSessionAlreadyActive
		}
	}
	if params.AmountCents <= 0 || params.AmountCents > f.balanceCents {
		return nil, repository.ErrInsufficientFunds
	}
	f.balanceCents -= params.AmountCents
	f.ledger = append(f.ledger, -params.AmountCents)

	session := &models.ChargingSession{
		ID:                    f.nextID,
		AccountID:             params.AccountID,
		DisplayName:           f.displayName,
		PaidAmountCents:       params.AmountCents,
		StartBatteryPercent:   params.StartBatteryPercent,
		TargetBatteryPercent:  params.TargetBatteryPercent,
		StartTime:             time.Now(),
		Status:                models.SessionInProgress,
		RemainingBalanceCents: f.balanceCents,
	}
	f.nextID++
	f.sessions[session.ID] = session
	copied := *session
	return &copied, nil
}

func (f *fakeChargeStore) FinishSession(_ context.Context, sessionID int64, status models.SessionStatus, endTime time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok || session.Status != models.SessionInProgress {
		return repository.ErrSessionNotActive
	}
	session.Status = status
	session.EndTime = &endTime
	return nil
}

func (f *fakeChargeStore) RecordEnergy(_ context.Context, sessionID int64, energyKWh float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.energy[sessionID] = energyKWh
	return nil
}

func (f *fakeChargeStore) ActiveSession(context.Context) (*models.ChargingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.Status == models.SessionInProgress {
			copied := *s
			return &copied, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (f *fakeChargeStore) sessionStatus(sessionID int64) models.SessionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		return s.Status
	}
	return ""
}

func (f *fakeChargeStore) balance() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balanceCents
}

type fakeCharger struct {
	mu          sync.Mutex
	battery     float64
	power       float64
	startErr    error
	startCalls  int
	stopCalls   int
	startTarget float64
}

func (f *fakeCharger) StartCharging(_ context.Context, targetPercent float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	f.startTarget = targetPercent
	return f.startErr
}

func (f *fakeCharger) StopCharging(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	return nil
}

func (f *fakeCharger) ReadTelemetry(context.Context) (models.Telemetry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.Telemetry{BatteryPercent: f.battery, Power: f.power}, nil
}

func (f *fakeCharger) setBattery(percent float64) {
	f.mu.Lock()
	f.battery = percent
	f.mu.Unlock()
}

type fakeActiveCache struct {
	mu      sync.Mutex
	saves   int
	deletes int
}

func (f *fakeActiveCache) Save(context.Context, redisstore.ActiveCharge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	return nil
}

func (f *fakeActiveCache) Delete(context.Context, int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	return nil
}

func testAccount(balanceCents int64) *models.Account {
	return &models.Account{
		ID:           42,
		CardID:       "card-42",
		DisplayName:  "Test User",
		BalanceCents: balanceCents,
		Active:       true,
	}
}

func TestStartChargeDebitsAndStartsHardware(t *testing.T) {
	store := newFakeChargeStore(10000)
	hw := &fakeCharger{battery: 20}
	cache := &fakeActiveCache{}
	svc := NewChargeService(store, hw, cache, 10000, zap.NewNop())

	var events []ChargeEvent
	svc.SetNotifier(func(e ChargeEvent) { events = append(events, e) })

	session, err := svc.StartCharge(context.Background(), testAccount(10000), 5000)
	if err != nil {
		t.Fatalf("start charge: %v", err)
	}
	if session.TargetBatteryPercent != 70 {
		t.Fatalf("expected target 70, got %v", session.TargetBatteryPercent)
	}
	if session.PaidAmountCents != 5000 || session.RemainingBalanceCents != 5000 {
		t.Fatalf("unexpected money fields: %+v", session)
	}
	if store.balance() != 5000 {
		t.Fatalf("expected balance 5000, got %d", store.balance())
	}
	if len(store.ledger) != 1 || store.ledger[0] != -5000 {
		t.Fatalf("expected one -5000 ledger row, got %v", store.ledger)
	}
	if hw.startCalls != 1 || hw.startTarget != 70 {
		t.Fatalf("hardware start calls=%d target=%v", hw.startCalls, hw.startTarget)
	}
	if cache.saves != 1 {
		t.Fatalf("expected one cache save, got %d", cache.saves)
	}
	if len(events) != 1 || events[0].Type != "charge_started" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestStartChargeRejectsInsufficientFundsBeforeAnySideEffect(t *testing.T) {
	store := newFakeChargeStore(1000)
	hw := &fakeCharger{battery: 20}
	svc := NewChargeService(store, hw, nil, 10000, zap.NewNop())

	for _, amount := range []int64{0, -100, 2000} {
		if _, err := svc.StartCharge(context.Background(), testAccount(1000), amount); !errors.Is(err, repository.ErrInsufficientFunds) {
			t.Fatalf("amount %d: expected ErrInsufficientFunds, got %v", amount, err)
		}
	}
	if store.startCalls != 0 {
		t.Fatalf("store must not be touched on precheck failure, got %d calls", store.startCalls)
	}
	if hw.startCalls != 0 {
		t.Fatalf("hardware must not start on precheck failure")
	}
}

func TestStartChargeRejectsSecondActiveSession(t *testing.T) {
	store := newFakeChargeStore(10000)
	hw := &fakeCharger{battery: 20}
	svc := NewChargeService(store, hw, nil, 10000, zap.NewNop())

	if _, err := svc.StartCharge(context.Background(), testAccount(10000), 2000); err != nil {
		t.Fatalf("first charge: %v", err)
	}
	if _, err := svc.StartCharge(context.Background(), testAccount(8000), 2000); !errors.Is(err, repository.ErrSessionAlreadyActive) {
		t.Fatalf("expected ErrSessionAlreadyActive, got %v", err)
	}
}

func TestStartChargeHardwareFailureKeepsDebit(t *testing.T) {
	store := newFakeChargeStore(10000)
	hw := &fakeCharger{battery: 20, startErr: errors.New("relay stuck")}
	svc := NewChargeService(store, hw, nil, 10000, zap.NewNop())

	var events []ChargeEvent
	svc.SetNotifier(func(e ChargeEvent) { events = append(events, e) })

	session, err := svc.StartCharge(context.Background(), testAccount(10000), 5000)
	if !errors.Is(err, ErrHardwareStartFailed) {
		t.Fatalf("expected ErrHardwareStartFailed, got %v", err)
	}
	if session == nil {
		t.Fatalf("committed session must be returned for reconciliation")
	}
	// The debit stands: no automatic rollback.
	if store.balance() != 5000 {
		t.Fatalf("debit must not be rolled back, balance %d", store.balance())
	}
	if store.sessionStatus(session.ID) != models.SessionInProgress {
		t.Fatalf("session must stay in progress for the operator")
	}
	if len(events) != 1 || events[0].Type != "operator_alert" {
		t.Fatalf("expected operator alert, got %+v", events)
	}
}

func TestStopChargeCompletesSessionOnce(t *testing.T) {
	store := newFakeChargeStore(10000)
	hw := &fakeCharger{battery: 20}
	cache := &fakeActiveCache{}
	svc := NewChargeService(store, hw, cache, 10000, zap.NewNop())

	session, err := svc.StartCharge(context.Background(), testAccount(10000), 5000)
	if err != nil {
		t.Fatalf("start charge: %v", err)
	}

	if err := svc.StopCharge(context.Background(), session); err != nil {
		t.Fatalf("stop charge: %v", err)
	}
	if got := store.sessionStatus(session.ID); got != models.SessionCompleted {
		t.Fatalf("expected completed, got %s", got)
	}
	if hw.stopCalls != 1 {
		t.Fatalf("expected one hardware stop, got %d", hw.stopCalls)
	}
	if cache.deletes != 1 {
		t.Fatalf("expected one cache delete, got %d", cache.deletes)
	}
	// The money already moved; a stop never refunds.
	if store.balance() != 5000 {
		t.Fatalf("stop must not refund, balance %d", store.balance())
	}

	if err := svc.StopCharge(context.Background(), session); !errors.Is(err, repository.ErrSessionNotActive) {
		t.Fatalf("second stop must fail with ErrSessionNotActive, got %v", err)
	}
}

func TestAbortChargeMarksSessionAbortedWithoutRefund(t *testing.T) {
	store := newFakeChargeStore(10000)
	hw := &fakeCharger{battery: 20}
	svc := NewChargeService(store, hw, nil, 10000, zap.NewNop())

	session, err := svc.StartCharge(context.Background(), testAccount(10000), 5000)
	if err != nil {
		t.Fatalf("start charge: %v", err)
	}

	if err := svc.AbortCharge(context.Background(), session); err != nil {
		t.Fatalf("abort charge: %v", err)
	}
	if got := store.sessionStatus(session.ID); got != models.SessionAborted {
		t.Fatalf("expected aborted, got %s", got)
	}
	if store.balance() != 5000 {
		t.Fatalf("abort must not refund automatically, balance %d", store.balance())
	}
}
