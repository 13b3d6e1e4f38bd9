package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/prohmpiriya/devops-api/internal/domain"
)

// PasswordVerifier compares a stored secret with a submitted password
type PasswordVerifier interface {
	Verify(secret, password string) error
}

// PlaintextVerifier compares secrets as stored plaintext
type PlaintextVerifier struct{}

func (PlaintextVerifier) Verify(secret, password string) error {
	if subtle.ConstantTimeCompare([]byte(secret), []byte(password)) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// BcryptVerifier treats stored secrets as bcrypt hashes
type BcryptVerifier struct{}

func (BcryptVerifier) Verify(secret, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(secret), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return fmt.Errorf("%w: %v", ErrPasswordMismatch, err)
}

// HashPassword hashes password with bcrypt
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// HashUsers returns copies of users with plaintext secrets replaced by bcrypt hashes
func HashUsers(users []*domain.User, cost int) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(users))
	for _, u := range users {
		hash, err := HashPassword(u.Secret, cost)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", u.Username, err)
		}
		cp := *u
		cp.Secret = hash
		out = append(out, &cp)
	}
	return out, nil
}
