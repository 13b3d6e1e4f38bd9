package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prohmpiriya/devops-api/internal/domain"
)

// Validator checks bearer tokens: present, well-formed, not expired.
// It does not confirm that the user still exists.
type Validator struct {
	codec TokenCodec
	now   Clock
}

// NewValidator creates a Validator. A nil clock means time.Now.
func NewValidator(codec TokenCodec, now Clock) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{codec: codec, now: now}
}

// ExtractBearer returns the second space-separated part of an
// Authorization header. The scheme word itself is not checked.
func ExtractBearer(header string) (string, error) {
	parts := strings.Split(header, " ")
	if len(parts) < 2 || parts[1] == "" {
		return "", ErrMissingToken
	}
	return parts[1], nil
}

// Validate decodes token and returns the caller identity.
// A token is accepted while its expiry is not earlier than now.
func (v *Validator) Validate(token string) (*domain.Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	decoded, err := v.codec.Decode(token)
	if err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if decoded.ExpiresAt < v.now().UnixMilli() {
		return nil, ErrExpired
	}

	return domain.NewIdentity(decoded), nil
}
