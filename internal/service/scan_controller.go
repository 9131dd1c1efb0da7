package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
)

// ScanState is the lifecycle state of the scan controller.
type ScanState string

// Scan states. Detected, Expired, and Cancelled are terminal for one
// window; Acknowledge returns the controller to Idle.
const (
	ScanStateIdle      ScanState = "idle"
	ScanStateScanning  ScanState = "scanning"
	ScanStateDetected  ScanState = "detected"
	ScanStateExpired   ScanState = "expired"
	ScanStateCancelled ScanState = "cancelled"
)

// ErrScanInProgress is returned when a scan is started while another
// window is still open.
var ErrScanInProgress = errors.New("scan already in progress")

// EventLog is the polled view of the authentication log.
type EventLog interface {
	RecentLoginEvents(ctx context.Context, limit int) ([]models.AuthEvent, error)
}

// EventSink appends authentication events. Used only for the timeout
// audit row written when a window expires.
type EventSink interface {
	Insert(ctx context.Context, event *models.AuthEvent) error
}

// PresenceScanner drives the "scanning active" UI signal. Its result
// never gates detection.
type PresenceScanner interface {
	ScanPresence(ctx context.Context) (cardID string, present bool, err error)
}

// DetectedIdentity is the payload surfaced to the confirmation gate.
type DetectedIdentity struct {
	EventID     int64     `json:"event_id"`
	AccountID   int64     `json:"account_id"`
	CardID      string    `json:"card_id"`
	DisplayName string    `json:"display_name"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ScanSnapshot is a presentational read of the controller.
type ScanSnapshot struct {
	State            ScanState         `json:"state"`
	RemainingSeconds int               `json:"remaining_seconds"`
	CardPresent      bool              `json:"card_present"`
	Detected         *DetectedIdentity `json:"detected,omitempty"`
}

// ScanControllerConfig bounds one scan attempt.
type ScanControllerConfig struct {
	Window       time.Duration
	PollInterval time.Duration
	LogPollLimit int
}

// ScanController runs a single bounded authentication attempt: it
// snapshots the log tail when the window opens and reports the first
// fresh successful login, or nothing when the window elapses.
type ScanController struct {
	events EventLog
	sink   EventSink
	hw     PresenceScanner
	logger *zap.Logger

	window       time.Duration
	pollInterval time.Duration
	logPollLimit int

	notify func(ScanSnapshot)

	mu       sync.Mutex
	state    ScanState
	current  *scanWindow
	detected *DetectedIdentity
}

// scanWindow is the per-scan state. Every scan owns its own baseline and
// resolved flag; nothing here outlives the window.
type scanWindow struct {
	start       time.Time
	deadline    time.Time
	known       map[int64]struct{}
	resolved    bool
	cancel      context.CancelFunc
	cardPresent bool
}

// NewScanController builds controller.
func NewScanController(events EventLog, sink EventSink, hw PresenceScanner, cfg ScanControllerConfig, logger *zap.Logger) *ScanController {
	if cfg.Window <= 0 {
		cfg.Window = 7 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.LogPollLimit <= 0 {
		cfg.LogPollLimit = 10
	}
	return &ScanController{
		events:       events,
		sink:         sink,
		hw:           hw,
		logger:       logger,
		window:       cfg.Window,
		pollInterval: cfg.PollInterval,
		logPollLimit: cfg.LogPollLimit,
		state:        ScanStateIdle,
	}
}

// SetNotifier registers a callback invoked on every state change and poll
// tick. Must be set before the first Start.
func (c *ScanController) SetNotifier(notify func(ScanSnapshot)) {
	c.notify = notify
}

// Start opens a new scan window. The known-ids baseline is taken from the
// current log tail so that a login which happened before this window can
// never be reported as new.
func (c *ScanController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state == ScanStateScanning {
		c.mu.Unlock()
		return ErrScanInProgress
	}
	c.state = ScanStateScanning
	c.detected = nil
	c.mu.Unlock()

	known := make(map[int64]struct{})
	tail, err := c.events.RecentLoginEvents(ctx, c.logPollLimit)
	if err != nil {
		c.mu.Lock()
		c.state = ScanStateIdle
		c.mu.Unlock()
		return err
	}
	for _, event := range tail {
		known[event.ID] = struct{}{}
	}

	windowCtx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	w := &scanWindow{
		start:    now,
		deadline: now.Add(c.window),
		known:    known,
		cancel:   cancel,
	}

	c.mu.Lock()
	c.current = w
	c.mu.Unlock()

	c.logger.Info("scan window opened",
		zap.Time("deadline", w.deadline),
		zap.Int("baseline_events", len(known)),
	)
	c.publish()

	go c.run(windowCtx, w)
	return nil
}

// Stop cancels the open window. Cleanup is synchronous: once Stop
// returns, no pending poll can transition this scan.
func (c *ScanController) Stop() {
	c.mu.Lock()
	w := c.current
	if w == nil || w.resolved || c.state != ScanStateScanning {
		c.mu.Unlock()
		return
	}
	w.resolved = true
	c.state = ScanStateCancelled
	c.mu.Unlock()

	w.cancel()
	c.logger.Info("scan cancelled")
	c.publish()
}

// Acknowledge consumes the terminal state and returns to Idle. The
// confirmation flow calls this after confirm or cancel.
func (c *ScanController) Acknowledge() {
	c.mu.Lock()
	if c.state == ScanStateScanning {
		c.mu.Unlock()
		return
	}
	c.state = ScanStateIdle
	c.detected = nil
	c.current = nil
	c.mu.Unlock()
	c.publish()
}

// Detected returns the pending identity, if any.
func (c *ScanController) Detected() (DetectedIdentity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ScanStateDetected || c.detected == nil {
		return DetectedIdentity{}, false
	}
	return *c.detected, true
}

// Status returns a presentational snapshot. The countdown is derived from
// the deadline and drives no transition.
func (c *ScanController) Status() ScanSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *ScanController) snapshotLocked() ScanSnapshot {
	snap := ScanSnapshot{State: c.state, Detected: c.detected}
	if c.state == ScanStateScanning && c.current != nil {
		remaining := int(time.Until(c.current.deadline).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		snap.RemainingSeconds = remaining
		snap.CardPresent = c.current.cardPresent
	}
	return snap
}

func (c *ScanController) publish() {
	if c.notify == nil {
		return
	}
	c.notify(c.Status())
}

// run is the single poll loop for one window. Deadline and poll ticks are
// serviced by the same goroutine, so they can never interleave; the
// resolved flag protects against a Stop racing the loop.
func (c *ScanController) run(ctx context.Context, w *scanWindow) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	deadline := time.NewTimer(time.Until(w.deadline))
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			c.expire(w)
			return
		case <-ticker.C:
			c.pollPresence(ctx, w)
			if detected := c.pollLog(ctx, w); detected != nil {
				c.detect(w, detected)
				return
			}
			c.publish()
		}
	}
}

// pollPresence updates the UI signal only.
func (c *ScanController) pollPresence(ctx context.Context, w *scanWindow) {
	_, present, err := c.hw.ScanPresence(ctx)
	if err != nil {
		// Transient hardware errors never affect the window.
		c.logger.Debug("presence poll failed", zap.Error(err))
		return
	}
	c.mu.Lock()
	w.cardPresent = present
	c.mu.Unlock()
}

// pollLog re-reads the log tail and returns the qualifying entry with the
// earliest occurred-at, or nil. Errors are swallowed; the next tick
// retries.
func (c *ScanController) pollLog(ctx context.Context, w *scanWindow) *DetectedIdentity {
	events, err := c.events.RecentLoginEvents(ctx, c.logPollLimit)
	if err != nil {
		c.logger.Debug("log poll failed", zap.Error(err))
		return nil
	}

	var best *models.AuthEvent
	for i := range events {
		e := &events[i]
		if e.Kind != models.EventKindLogin || !e.Success {
			continue
		}
		if e.AccountID == nil || e.DisplayName == nil || *e.DisplayName == "" {
			continue
		}
		if _, seen := w.known[e.ID]; seen {
			continue
		}
		if e.OccurredAt.Before(w.start) {
			continue
		}
		if best == nil || e.OccurredAt.Before(best.OccurredAt) {
			best = e
		}
	}
	if best == nil {
		return nil
	}

	w.known[best.ID] = struct{}{}
	return &DetectedIdentity{
		EventID:     best.ID,
		AccountID:   *best.AccountID,
		CardID:      best.CardID,
		DisplayName: *best.DisplayName,
		OccurredAt:  best.OccurredAt,
	}
}

func (c *ScanController) detect(w *scanWindow, identity *DetectedIdentity) {
	if !c.resolve(w, ScanStateDetected, identity) {
		return
	}
	c.logger.Info("card detected",
		zap.String("name", identity.DisplayName),
		zap.Int64("event_id", identity.EventID),
	)
	c.publish()
}

func (c *ScanController) expire(w *scanWindow) {
	if !c.resolve(w, ScanStateExpired, nil) {
		return
	}
	c.logger.Info("scan window expired")
	c.publish()

	if c.sink != nil {
		// The window context is already cancelled at this point.
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		event := &models.AuthEvent{
			Kind:    models.EventKindTimeout,
			Success: false,
			Message: "scan window expired without a successful login",
		}
		if err := c.sink.Insert(ctx, event); err != nil {
			c.logger.Warn("failed to log timeout event", zap.Error(err))
		}
	}
}

// resolve applies a terminal transition at most once per window.
func (c *ScanController) resolve(w *scanWindow, state ScanState, identity *DetectedIdentity) bool {
	c.mu.Lock()
	if w.resolved || c.current != w {
		c.mu.Unlock()
		return false
	}
	w.resolved = true
	c.state = state
	c.detected = identity
	c.mu.Unlock()

	w.cancel()
	return true
}
