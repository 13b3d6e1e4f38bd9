package domain

import "time"

// SessionToken is the decoded content of a bearer token.
// ExpiresAt is in epoch milliseconds.
type SessionToken struct {
	UserID    int64  `json:"id"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	ExpiresAt int64  `json:"exp"`
	TokenID   string `json:"-"`
}

// Identity is the authenticated caller attached to a single request
type Identity struct {
	UserID    int64
	Username  string
	Role      Role
	ExpiresAt int64
	TokenID   string
}

// ExpiresTime returns ExpiresAt as a time.Time
func (i *Identity) ExpiresTime() time.Time {
	return time.UnixMilli(i.ExpiresAt)
}

// NewIdentity builds an Identity from a decoded token
func NewIdentity(t *SessionToken) *Identity {
	return &Identity{
		UserID:    t.UserID,
		Username:  t.Username,
		Role:      t.Role,
		ExpiresAt: t.ExpiresAt,
		TokenID:   t.TokenID,
	}
}
