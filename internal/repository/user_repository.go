package repository

import (
	"context"
	"time"

	"github.com/prohmpiriya/devops-api/internal/domain"
)

// UserRepository is the credential store.
// FindByUsername returns nil, nil when the user does not exist.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// List returns all users ordered by ID
	List(ctx context.Context) ([]*domain.User, error)
}

// RevocationRepository records tokens that were logged out before expiry
type RevocationRepository interface {
	// Revoke marks key as revoked until the given time
	Revoke(ctx context.Context, key string, until time.Time) error
	IsRevoked(ctx context.Context, key string) (bool, error)
}
