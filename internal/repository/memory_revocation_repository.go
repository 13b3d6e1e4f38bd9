package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryRevocationRepository keeps revoked token keys in process memory
type MemoryRevocationRepository struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationRepository creates an empty store
func NewMemoryRevocationRepository() *MemoryRevocationRepository {
	return &MemoryRevocationRepository{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (r *MemoryRevocationRepository) Revoke(ctx context.Context, key string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()
	if until.After(r.now()) {
		r.revoked[key] = until
	}
	return nil
}

func (r *MemoryRevocationRepository) IsRevoked(ctx context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	until, ok := r.revoked[key]
	if !ok {
		return false, nil
	}
	if !until.After(r.now()) {
		delete(r.revoked, key)
		return false, nil
	}
	return true, nil
}

func (r *MemoryRevocationRepository) pruneLocked() {
	now := r.now()
	for k, until := range r.revoked {
		if !until.After(now) {
			delete(r.revoked, k)
		}
	}
}
