package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
)

type fakeEventLog struct {
	mu      sync.Mutex
	events  []models.AuthEvent
	nextID  int64
	pollErr error
}

func newFakeEventLog() *fakeEventLog {
	return &fakeEventLog{nextID: 1}
}

func (f *fakeEventLog) addLogin(name string, cardID string, occurredAt time.Time) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	accountID := id + 100
	f.events = append(f.events, models.AuthEvent{
		ID:          id,
		CardID:      cardID,
		AccountID:   &accountID,
		DisplayName: &name,
		Kind:        models.EventKindLogin,
		Success:     true,
		OccurredAt:  occurredAt,
	})
	return id
}

func (f *fakeEventLog) setPollErr(err error) {
	f.mu.Lock()
	f.pollErr = err
	f.mu.Unlock()
}

func (f *fakeEventLog) RecentLoginEvents(_ context.Context, limit int) ([]models.AuthEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	var out []models.AuthEvent
	for i := len(f.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.events[i])
	}
	return out, nil
}

func (f *fakeEventLog) Insert(_ context.Context, event *models.AuthEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event.ID = f.nextID
	f.nextID++
	event.OccurredAt = time.Now()
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEventLog) countKind(kind models.EventKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, e := range f.events {
		if e.Kind == kind {
			count++
		}
	}
	return count
}

type fakePresence struct {
	mu      sync.Mutex
	cardID  string
	present bool
}

func (f *fakePresence) set(cardID string, present bool) {
	f.mu.Lock()
	f.cardID = cardID
	f.present = present
	f.mu.Unlock()
}

func (f *fakePresence) ScanPresence(context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cardID, f.present, nil
}

func newTestController(log *fakeEventLog, window time.Duration) *ScanController {
	return NewScanController(log, log, &fakePresence{}, ScanControllerConfig{
		Window:       window,
		PollInterval: 10 * time.Millisecond,
		LogPollLimit: 10,
	}, zap.NewNop())
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestScanControllerDetectsFreshLogin(t *testing.T) {
	log := newFakeEventLog()
	log.addLogin("Old User", "card-old", time.Now().Add(-time.Minute))

	ctrl := newTestController(log, time.Second)
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start scan: %v", err)
	}

	freshID := log.addLogin("Alice", "card-1", time.Now())

	waitFor(t, 500*time.Millisecond, func() bool {
		return ctrl.Status().State == ScanStateDetected
	})

	detected, ok := ctrl.Detected()
	if !ok {
		t.Fatalf("expected detected identity")
	}
	if detected.EventID != freshID {
		t.Fatalf("expected event %d, got %d", freshID, detected.EventID)
	}
	if detected.DisplayName != "Alice" || detected.CardID != "card-1" {
		t.Fatalf("unexpected payload: %+v", detected)
	}
}

func TestScanControllerNeverReportsEventBeforeWindow(t *testing.T) {
	log := newFakeEventLog()
	ctrl := newTestController(log, 100*time.Millisecond)
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start scan: %v", err)
	}

	// New id, but it happened before the window opened.
	log.addLogin("Stale", "card-stale", time.Now().Add(-time.Minute))

	waitFor(t, 500*time.Millisecond, func() bool {
		return ctrl.Status().State == ScanStateExpired
	})
	if _, ok := ctrl.Detected(); ok {
		t.Fatalf("stale event must not be detected")
	}
}

func TestScanControllerExpiresAndLogsTimeout(t *testing.T) {
	log := newFakeEventLog()
	ctrl := newTestController(log, 80*time.Millisecond)
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start scan: %v", err)
	}

	waitFor(t, 500*time.Millisecond, func() bool {
		return ctrl.Status().State == ScanStateExpired
	})
	waitFor(t, 500*time.Millisecond, func() bool {
		return log.countKind(models.EventKindTimeout) == 1
	})
}

func TestScanControllerBaselineResetsPerScan(t *testing.T) {
	log := newFakeEventLog()
	ctrl := newTestController(log, 120*time.Millisecond)

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start first scan: %v", err)
	}
	firstID := log.addLogin("Bob", "card-2", time.Now())

	waitFor(t, 500*time.Millisecond, func() bool {
		return ctrl.Status().State == ScanStateDetected
	})
	detected, _ := ctrl.Detected()
	if detected.EventID != firstID {
		t.Fatalf("expected event %d, got %d", firstID, detected.EventID)
	}
	ctrl.Acknowledge()

	// The same event is still in the log tail; a second scan must not
	// report it again.
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start second scan: %v", err)
	}
	waitFor(t, 500*time.Millisecond, func() bool {
		return ctrl.Status().State == ScanStateExpired
	})
	if _, ok := ctrl.Detected(); ok {
		t.Fatalf("event must not be detected twice across scans")
	}
}

func TestScanControllerPicksEarliestQualifyingEvent(t *testing.T) {
	log := newFakeEventLog()
	ctrl := newTestController(log, time.Second)
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start scan: %v", err)
	}

	now := time.Now()
	earlierID := log.addLogin("First", "card-a", now.Add(10*time.Millisecond))
	log.addLogin("Second", "card-b", now.Add(20*time.Millisecond))

	waitFor(t, 500*time.Millisecond, func() bool {
		return ctrl.Status().State == ScanStateDetected
	})
	detected, _ := ctrl.Detected()
	if detected.EventID != earlierID {
		t.Fatalf("expected earliest event %d, got %d", earlierID, detected.EventID)
	}
}

func TestScanControllerStopCancelsSynchronously(t *testing.T) {
	log := newFakeEventLog()
	ctrl := newTestController(log, time.Second)
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start scan: %v", err)
	}

	ctrl.Stop()
	if state := ctrl.Status().State; state != ScanStateCancelled {
		t.Fatalf("expected cancelled, got %s", state)
	}

	// A login arriving after the stop must not resurrect the window.
	log.addLogin("Late", "card-late", time.Now())
	time.Sleep(50 * time.Millisecond)
	if state := ctrl.Status().State; state != ScanStateCancelled {
		t.Fatalf("late event corrupted a cancelled scan: %s", state)
	}
	if log.countKind(models.EventKindTimeout) != 0 {
		t.Fatalf("cancel must not write log rows")
	}
}

func TestScanControllerSwallowsPollErrors(t *testing.T) {
	log := newFakeEventLog()
	ctrl := newTestController(log, time.Second)
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start scan: %v", err)
	}

	log.setPollErr(errors.New("log unreachable"))
	time.Sleep(50 * time.Millisecond)
	if state := ctrl.Status().State; state != ScanStateScanning {
		t.Fatalf("poll errors must not end the scan, got %s", state)
	}

	log.setPollErr(nil)
	log.addLogin("Carol", "card-3", time.Now())
	waitFor(t, 500*time.Millisecond, func() bool {
		return ctrl.Status().State == ScanStateDetected
	})
}

func TestScanControllerTracksCardPresence(t *testing.T) {
	log := newFakeEventLog()
	presence := &fakePresence{}
	ctrl := NewScanController(log, log, presence, ScanControllerConfig{
		Window:       time.Second,
		PollInterval: 10 * time.Millisecond,
		LogPollLimit: 10,
	}, zap.NewNop())

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start scan: %v", err)
	}
	presence.set("card-x", true)
	waitFor(t, 500*time.Millisecond, func() bool {
		return ctrl.Status().CardPresent
	})
	ctrl.Stop()
}

func TestScanControllerRejectsConcurrentStart(t *testing.T) {
	log := newFakeEventLog()
	ctrl := newTestController(log, time.Second)
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start scan: %v", err)
	}
	if err := ctrl.Start(context.Background()); !errors.Is(err, ErrScanInProgress) {
		t.Fatalf("expected ErrScanInProgress, got %v", err)
	}
	ctrl.Stop()
}
