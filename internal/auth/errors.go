package auth

import "errors"

var (
	ErrMissingToken     = errors.New("access token required")
	ErrMalformed        = errors.New("invalid token")
	ErrExpired          = errors.New("token expired")
	ErrRevoked          = errors.New("token revoked")
	ErrForbidden        = errors.New("insufficient role")
	ErrPasswordMismatch = errors.New("password mismatch")
)
