package user

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory Repository for testing and dev mode.
// Tests can seed users directly through Put.
type MemoryRepository struct {
	mu            sync.RWMutex
	users         map[string]User // keyed by phone
	beneficiaries map[string][]Beneficiary
}

// NewMemoryRepository builds an in-memory user store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:         make(map[string]User),
		beneficiaries: make(map[string][]Beneficiary),
	}
}

// Put inserts or replaces a user record.
func (r *MemoryRepository) Put(u User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.Phone] = u
}

func (r *MemoryRepository) FindByPhone(_ context.Context, phone string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[phone]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepository) UpdateBalance(_ context.Context, id string, balance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for phone, u := range r.users {
		if u.ID == id {
			u.Balance = balance
			r.users[phone] = u
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepository) SaveBeneficiary(_ context.Context, userID string, b Beneficiary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.beneficiaries[userID] {
		if existing.AccountNumber == b.AccountNumber && existing.BankCode == b.BankCode {
			return nil
		}
	}
	r.beneficiaries[userID] = append(r.beneficiaries[userID], b)
	return nil
}

func (r *MemoryRepository) ListBeneficiaries(_ context.Context, userID string) ([]Beneficiary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Beneficiary, len(r.beneficiaries[userID]))
	copy(out, r.beneficiaries[userID])
	return out, nil
}
