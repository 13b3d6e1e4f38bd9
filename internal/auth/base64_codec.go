package auth

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prohmpiriya/devops-api/internal/domain"
)

// Base64Codec produces unsigned base64(JSON) tokens.
//
// Anyone can forge one of these. It exists for wire compatibility with
// existing clients; set AUTH_TOKEN_CODEC=jwt for signed tokens.
type Base64Codec struct {
	now Clock
}

// NewBase64Codec creates a Base64Codec. A nil clock means time.Now.
func NewBase64Codec(now Clock) *Base64Codec {
	if now == nil {
		now = time.Now
	}
	return &Base64Codec{now: now}
}

type base64Payload struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	Exp      int64       `json:"exp"`
}

func (c *Base64Codec) Encode(user *domain.User, ttl time.Duration) (string, error) {
	if user == nil {
		return "", fmt.Errorf("encode token: nil user")
	}

	data, err := json.Marshal(base64Payload{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		Exp:      c.now().Add(ttl).UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode accepts padded or unpadded standard base64 of a JSON object.
// A missing exp decodes as 0, which the validator reports as expired.
func (c *Base64Codec) Decode(token string) (*domain.SessionToken, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(token)
		if err != nil {
			return nil, fmt.Errorf("%w: not base64", ErrMalformed)
		}
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("%w: payload is not an object", ErrMalformed)
	}

	var p base64Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return &domain.SessionToken{
		UserID:    p.ID,
		Username:  p.Username,
		Role:      p.Role,
		ExpiresAt: p.Exp,
	}, nil
}
