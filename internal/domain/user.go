package domain

// Role represents user role
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a credential record.
// Secret holds either the plaintext password or a bcrypt hash depending on
// the configured verifier.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Secret   string `json:"-"` // Never serialize secrets
	Role     Role   `json:"role"`
}

// DefaultUsers returns the built-in seed accounts
func DefaultUsers() []*User {
	return []*User{
		{ID: 1, Username: "admin", Secret: "admin123", Role: RoleAdmin},
		{ID: 2, Username: "user", Secret: "user123", Role: RoleUser},
	}
}
