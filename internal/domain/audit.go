package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuthEventType represents the type of audit event
type AuthEventType string

const (
	AuthEventLoginSucceeded AuthEventType = "auth.login.succeeded"
	AuthEventLoginFailed    AuthEventType = "auth.login.failed"
	AuthEventLogout         AuthEventType = "auth.logout"
)

// AuthEvent is published for every login attempt and logout
type AuthEvent struct {
	EventID    string        `json:"event_id"`
	Type       AuthEventType `json:"type"`
	UserID     int64         `json:"user_id,omitempty"`
	Username   string        `json:"username"`
	IP         string        `json:"ip,omitempty"`
	UserAgent  string        `json:"user_agent,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewAuthEvent creates an event with a fresh ID
func NewAuthEvent(eventType AuthEventType, username string, userID int64) *AuthEvent {
	return &AuthEvent{
		EventID:    uuid.New().String(),
		Type:       eventType,
		UserID:     userID,
		Username:   username,
		OccurredAt: time.Now().UTC(),
	}
}

// Key returns the partition key
func (e *AuthEvent) Key() string {
	return e.Username
}
