package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/prohmpiriya/devops-api/internal/domain"
)

// TokenCodec turns a user into an opaque bearer token and back.
// Decode reports structural problems only; expiry is the validator's job.
type TokenCodec interface {
	Encode(user *domain.User, ttl time.Duration) (string, error)
	Decode(token string) (*domain.SessionToken, error)
}

// Clock returns the current time
type Clock func() time.Time

// TokenKey identifies a token for revocation.
// Tokens with an ID use it directly, others are keyed by their SHA-256.
func TokenKey(tokenID, raw string) string {
	if tokenID != "" {
		return tokenID
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
