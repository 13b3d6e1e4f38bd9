package repository

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/prohmpiriya/devops-api/internal/domain"
)

type cachedUser struct {
	user    domain.User
	expires time.Time
}

// CachedUserRepository caches username lookups in front of a slower store.
// Concurrent misses for the same username share one backend call.
// Only hits are cached so that newly created users are seen immediately.
type CachedUserRepository struct {
	next  UserRepository
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedUser
}

// NewCachedUserRepository wraps next with a TTL cache
func NewCachedUserRepository(next UserRepository, ttl time.Duration) *CachedUserRepository {
	return &CachedUserRepository{
		next:  next,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cachedUser),
	}
}

func (r *CachedUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	entry, ok := r.cache[username]
	r.mu.RUnlock()
	if ok && r.now().Before(entry.expires) {
		u := entry.user
		return &u, nil
	}

	v, err, _ := r.group.Do(username, func() (interface{}, error) {
		return r.next.FindByUsername(ctx, username)
	})
	if err != nil {
		return nil, err
	}

	user, _ := v.(*domain.User)
	if user == nil {
		return nil, nil
	}

	r.mu.Lock()
	r.cache[username] = cachedUser{user: *user, expires: r.now().Add(r.ttl)}
	r.mu.Unlock()

	u := *user
	return &u, nil
}

// List is not cached
func (r *CachedUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	return r.next.List(ctx)
}
