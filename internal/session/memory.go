package session

import (
	"context"
	"encoding/json"
	"sync"
)

// memoryStore is an in-memory Store for tests and dev mode. Values round-trip
// through JSON so callers see the same copy semantics as the Redis store.
// TTLs are not enforced.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore builds an in-memory session store.
func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[string][]byte)}
}

func (s *memoryStore) GetSession(_ context.Context, userID string) (*TransferSession, error) {
	var session TransferSession
	if !s.get(sessionKeyPrefix+userID, &session) {
		return nil, nil
	}
	return &session, nil
}

func (s *memoryStore) SaveSession(_ context.Context, userID string, session *TransferSession) error {
	return s.set(sessionKeyPrefix+userID, session)
}

func (s *memoryStore) DeleteSession(_ context.Context, userID string) error {
	s.delete(sessionKeyPrefix + userID)
	return nil
}

func (s *memoryStore) GetPendingBeneficiary(_ context.Context, userID string) (*PendingBeneficiary, error) {
	var pending PendingBeneficiary
	if !s.get(beneficiaryKeyPrefix+userID, &pending) {
		return nil, nil
	}
	return &pending, nil
}

func (s *memoryStore) SavePendingBeneficiary(_ context.Context, userID string, b *PendingBeneficiary) error {
	return s.set(beneficiaryKeyPrefix+userID, b)
}

func (s *memoryStore) DeletePendingBeneficiary(_ context.Context, userID string) error {
	s.delete(beneficiaryKeyPrefix + userID)
	return nil
}

func (s *memoryStore) get(key string, out any) bool {
	s.mu.RLock()
	raw, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (s *memoryStore) set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}
