package rfid

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/repository"
)

// Registry resolves a card to an account.
type Registry interface {
	FindByCard(ctx context.Context, cardID string) (*models.Account, error)
}

// EventSink appends authentication events.
type EventSink interface {
	Insert(ctx context.Context, event *models.AuthEvent) error
}

// PresenceScanner reads the card currently on the reader.
type PresenceScanner interface {
	ScanPresence(ctx context.Context) (cardID string, present bool, err error)
}

// Reader is the authentication producer: it polls the physical RFID
// reader, resolves the card against the registry, and appends login or
// failed rows to the authentication log. The scan controller consumes
// those rows; the reader itself holds no session state.
type Reader struct {
	hw       PresenceScanner
	registry Registry
	events   EventSink
	logger   *zap.Logger

	pollInterval time.Duration
	cooldown     time.Duration

	lastCardID string
	lastSeenAt time.Time
}

// NewReader builds the reader loop.
func NewReader(hw PresenceScanner, registry Registry, events EventSink, pollInterval, cooldown time.Duration, logger *zap.Logger) *Reader {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if cooldown <= 0 {
		cooldown = 2 * time.Second
	}
	return &Reader{
		hw:           hw,
		registry:     registry,
		events:       events,
		logger:       logger,
		pollInterval: pollInterval,
		cooldown:     cooldown,
	}
}

// Run polls until the context is cancelled. Poll errors are logged and the
// next tick retries; the loop never stops on transient failures.
func (r *Reader) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	r.logger.Info("rfid reader started", zap.Duration("poll_interval", r.pollInterval))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Reader) tick(ctx context.Context) {
	cardID, present, err := r.hw.ScanPresence(ctx)
	if err != nil {
		r.logger.Warn("presence scan failed", zap.Error(err))
		return
	}
	if !present {
		return
	}

	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return
	}

	// Same card held on the reader produces one event per cooldown, not
	// one per tick.
	now := time.Now()
	if cardID == r.lastCardID && now.Sub(r.lastSeenAt) < r.cooldown {
		return
	}
	r.lastCardID = cardID
	r.lastSeenAt = now

	r.handleCard(ctx, cardID)
}

func (r *Reader) handleCard(ctx context.Context, cardID string) {
	account, err := r.registry.FindByCard(ctx, cardID)
	switch {
	case err == nil:
		name := account.DisplayName
		event := &models.AuthEvent{
			CardID:      cardID,
			AccountID:   &account.ID,
			DisplayName: &name,
			Kind:        models.EventKindLogin,
			Success:     true,
			Message:     fmt.Sprintf("user %s scanned successfully", name),
		}
		if err := r.events.Insert(ctx, event); err != nil {
			r.logger.Error("failed to log login event", zap.String("card_id", cardID), zap.Error(err))
			return
		}
		r.logger.Info("card scanned", zap.String("card_id", cardID), zap.String("name", name))
	case errors.Is(err, repository.ErrAccountNotFound):
		event := &models.AuthEvent{
			CardID:  cardID,
			Kind:    models.EventKindFailed,
			Success: false,
			Message: fmt.Sprintf("no user found with card %s", cardID),
		}
		if err := r.events.Insert(ctx, event); err != nil {
			r.logger.Error("failed to log failed scan", zap.String("card_id", cardID), zap.Error(err))
			return
		}
		r.logger.Info("unknown card scanned", zap.String("card_id", cardID))
	default:
		r.logger.Warn("registry lookup failed", zap.String("card_id", cardID), zap.Error(err))
	}
}
