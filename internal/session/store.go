package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix     = "tx:"
	beneficiaryKeyPrefix = "beneficiary:"
)

// Store persists transfer sessions and pending beneficiaries keyed by user
// identifier. Absent entries are returned as nil without error; expiry is
// enforced by the backing cache through TTLs.
type Store interface {
	GetSession(ctx context.Context, userID string) (*TransferSession, error)
	SaveSession(ctx context.Context, userID string, s *TransferSession) error
	DeleteSession(ctx context.Context, userID string) error

	GetPendingBeneficiary(ctx context.Context, userID string) (*PendingBeneficiary, error)
	SavePendingBeneficiary(ctx context.Context, userID string, b *PendingBeneficiary) error
	DeletePendingBeneficiary(ctx context.Context, userID string) error
}

// RedisStore is the Redis-backed store used in production.
type RedisStore struct {
	client         *redis.Client
	sessionTTL     time.Duration
	beneficiaryTTL time.Duration
}

// NewRedisStore builds a store with the given TTLs.
func NewRedisStore(client *redis.Client, sessionTTL, beneficiaryTTL time.Duration) *RedisStore {
	if sessionTTL <= 0 {
		sessionTTL = 5 * time.Minute
	}
	if beneficiaryTTL <= 0 {
		beneficiaryTTL = 10 * time.Minute
	}
	return &RedisStore{client: client, sessionTTL: sessionTTL, beneficiaryTTL: beneficiaryTTL}
}

func (s *RedisStore) GetSession(ctx context.Context, userID string) (*TransferSession, error) {
	var session TransferSession
	ok, err := s.getJSON(ctx, sessionKeyPrefix+userID, &session)
	if err != nil || !ok {
		return nil, err
	}
	return &session, nil
}

func (s *RedisStore) SaveSession(ctx context.Context, userID string, session *TransferSession) error {
	return s.setJSON(ctx, sessionKeyPrefix+userID, session, s.sessionTTL)
}

func (s *RedisStore) DeleteSession(ctx context.Context, userID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+userID).Err()
}

func (s *RedisStore) GetPendingBeneficiary(ctx context.Context, userID string) (*PendingBeneficiary, error) {
	var pending PendingBeneficiary
	ok, err := s.getJSON(ctx, beneficiaryKeyPrefix+userID, &pending)
	if err != nil || !ok {
		return nil, err
	}
	return &pending, nil
}

func (s *RedisStore) SavePendingBeneficiary(ctx context.Context, userID string, b *PendingBeneficiary) error {
	return s.setJSON(ctx, beneficiaryKeyPrefix+userID, b, s.beneficiaryTTL)
}

func (s *RedisStore) DeletePendingBeneficiary(ctx context.Context, userID string) error {
	return s.client.Del(ctx, beneficiaryKeyPrefix+userID).Err()
}

func (s *RedisStore) getJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (s *RedisStore) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
