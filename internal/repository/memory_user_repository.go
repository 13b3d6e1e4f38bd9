package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/prohmpiriya/devops-api/internal/domain"
)

// MemoryUserRepository is a read-only in-memory credential store
type MemoryUserRepository struct {
	byName  map[string]*domain.User
	ordered []*domain.User
}

// NewMemoryUserRepository builds a store from users. Usernames must be unique.
func NewMemoryUserRepository(users []*domain.User) (*MemoryUserRepository, error) {
	r := &MemoryUserRepository{byName: make(map[string]*domain.User, len(users))}

	for _, u := range users {
		if _, exists := r.byName[u.Username]; exists {
			return nil, fmt.Errorf("duplicate username %q", u.Username)
		}
		cp := *u
		r.byName[u.Username] = &cp
		r.ordered = append(r.ordered, &cp)
	}

	sort.Slice(r.ordered, func(i, j int) bool { return r.ordered[i].ID < r.ordered[j].ID })
	return r, nil
}

func (r *MemoryUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, ok := r.byName[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.ordered))
	for _, u := range r.ordered {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}
