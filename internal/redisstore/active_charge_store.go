package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const currentChargeKey = "kiosk:charge:current"

// ActiveCharge is the cached projection of the in-progress session. It is
// a read-your-write convenience for the kiosk UI; Postgres remains the
// source of truth.
type ActiveCharge struct {
	SessionID            int64     `json:"session_id"`
	AccountID            int64     `json:"account_id"`
	DisplayName          string    `json:"display_name"`
	TargetBatteryPercent float64   `json:"target_battery_percent"`
	StartedAt            time.Time `json:"started_at"`
}

// Store caches the active charge in redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func accountKey(accountID int64) string {
	return fmt.Sprintf("kiosk:charge:account:%d", accountID)
}

// Save caches the charge under both the station-wide and per-account keys.
func (s *Store) Save(ctx context.Context, charge ActiveCharge) error {
	data, err := json.Marshal(charge)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, currentChargeKey, data, s.ttl).Err(); err != nil {
		return err
	}
	return s.client.Set(ctx, accountKey(charge.AccountID), data, s.ttl).Err()
}

// Current returns the cached station-wide charge.
func (s *Store) Current(ctx context.Context) (*ActiveCharge, error) {
	return s.get(ctx, currentChargeKey)
}

// ForAccount returns the cached charge for one account.
func (s *Store) ForAccount(ctx context.Context, accountID int64) (*ActiveCharge, error) {
	return s.get(ctx, accountKey(accountID))
}

func (s *Store) get(ctx context.Context, key string) (*ActiveCharge, error) {
	result, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	var charge ActiveCharge
	if err := json.Unmarshal([]byte(result), &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}

// Delete drops both keys once the session reaches a terminal status.
func (s *Store) Delete(ctx context.Context, accountID int64) error {
	return s.client.Del(ctx, currentChargeKey, accountKey(accountID)).Err()
}
