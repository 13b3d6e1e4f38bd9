package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/prohmpiriya/devops-api/internal/domain"
)

// JWTCodec issues HS256-signed tokens
type JWTCodec struct {
	secret []byte
	issuer string
	now    Clock
}

type jwtClaims struct {
	UserID   int64       `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	ExpMs    int64       `json:"exp_ms"`
	jwt.RegisteredClaims
}

// NewJWTCodec creates a JWTCodec. A nil clock means time.Now.
func NewJWTCodec(secret, issuer string, now Clock) (*JWTCodec, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &JWTCodec{secret: []byte(secret), issuer: issuer, now: now}, nil
}

func (c *JWTCodec) Encode(user *domain.User, ttl time.Duration) (string, error) {
	if user == nil {
		return "", fmt.Errorf("encode token: nil user")
	}

	now := c.now()
	exp := now.Add(ttl)

	claims := jwtClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		ExpMs:    exp.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    c.issuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and issuer. Time-based claims are left to
// the validator so that expiry is judged against a single clock.
func (c *JWTCodec) Decode(token string) (*domain.SessionToken, error) {
	claims := &jwtClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if c.issuer != "" && claims.Issuer != c.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrMalformed, claims.Issuer)
	}

	expMs := claims.ExpMs
	if expMs == 0 && claims.ExpiresAt != nil {
		expMs = claims.ExpiresAt.Time.UnixMilli()
	}

	return &domain.SessionToken{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		ExpiresAt: expMs,
		TokenID:   claims.ID,
	}, nil
}
