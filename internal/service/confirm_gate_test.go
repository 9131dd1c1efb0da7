package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/DeadpoolYD/ev-charging-kiosk/internal/models"
	"github.com/DeadpoolYD/ev-charging-kiosk/internal/repository"
)

type fakeRegistry struct {
	byCard map[string]*models.Account
	err    error
}

func (f *fakeRegistry) FindByCard(_ context.Context, cardID string) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	account, ok := f.byCard[cardID]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (f *fakeRegistry) FindByID(_ context.Context, id int64) (*models.Account, error) {
	for _, account := range f.byCard {
		if account.ID == id {
			copied := *account
			return &copied, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func detectedFor(account *models.Account) DetectedIdentity {
	return DetectedIdentity{
		EventID:     1,
		AccountID:   account.ID,
		CardID:      account.CardID,
		DisplayName: account.DisplayName,
		OccurredAt:  time.Now(),
	}
}

func TestConfirmReturnsMatchingAccount(t *testing.T) {
	account := &models.Account{ID: 7, CardID: "card-7", DisplayName: "Dana", BalanceCents: 5000, Active: true}
	gate := NewConfirmationGate(&fakeRegistry{byCard: map[string]*models.Account{"card-7": account}}, zap.NewNop())

	got, err := gate.Confirm(context.Background(), detectedFor(account))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.ID != 7 || got.BalanceCents != 5000 {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestConfirmRejectsIdentityMismatch(t *testing.T) {
	account := &models.Account{ID: 7, CardID: "card-7", DisplayName: "Dana", Active: true}
	gate := NewConfirmationGate(&fakeRegistry{byCard: map[string]*models.Account{"card-7": account}}, zap.NewNop())

	detected := detectedFor(account)
	detected.AccountID = 99 // card was reassigned after detection

	if _, err := gate.Confirm(context.Background(), detected); !errors.Is(err, ErrIdentityMismatch) {
		t.Fatalf("expected ErrIdentityMismatch, got %v", err)
	}
}

func TestConfirmRejectsMissingAccount(t *testing.T) {
	gate := NewConfirmationGate(&fakeRegistry{byCard: map[string]*models.Account{}}, zap.NewNop())

	detected := DetectedIdentity{EventID: 1, AccountID: 7, CardID: "card-gone", DisplayName: "Ghost"}
	if _, err := gate.Confirm(context.Background(), detected); !errors.Is(err, ErrIdentityMismatch) {
		t.Fatalf("expected ErrIdentityMismatch for deleted account, got %v", err)
	}
}

func TestConfirmRejectsInactiveAccount(t *testing.T) {
	account := &models.Account{ID: 7, CardID: "card-7", DisplayName: "Dana", Active: false}
	gate := NewConfirmationGate(&fakeRegistry{byCard: map[string]*models.Account{"card-7": account}}, zap.NewNop())

	if _, err := gate.Confirm(context.Background(), detectedFor(account)); !errors.Is(err, repository.ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestConfirmWrapsTransientErrors(t *testing.T) {
	lookupErr := errors.New("db down")
	gate := NewConfirmationGate(&fakeRegistry{err: lookupErr}, zap.NewNop())

	_, err := gate.Confirm(context.Background(), DetectedIdentity{AccountID: 7, CardID: "card-7"})
	if !errors.Is(err, lookupErr) {
		t.Fatalf("expected wrapped lookup error, got %v", err)
	}
	if errors.Is(err, ErrIdentityMismatch) {
		t.Fatalf("transient errors must not be reported as mismatch")
	}
}
