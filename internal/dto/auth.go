package dto

import "github.com/prohmpiriya/devops-api/internal/domain"

// LoginRequest represents login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Valid reports whether both fields are non-empty. Values are not trimmed.
func (r *LoginRequest) Valid() bool {
	return r.Username != "" && r.Password != ""
}

// LoginMeta carries request details used for auditing
type LoginMeta struct {
	IP        string
	UserAgent string
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// NewUserResponse strips the secret from a user
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Role: u.Role}
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

// ProfileUser is the decoded token content returned by the profile endpoint
type ProfileUser struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	Exp      int64       `json:"exp"`
}

// ProfileResponse represents profile data
type ProfileResponse struct {
	Message string      `json:"message"`
	User    ProfileUser `json:"user"`
}

// AdminResponse lists every user for administrators
type AdminResponse struct {
	Message string         `json:"message"`
	Users   []UserResponse `json:"users"`
}

// MessageResponse is a bare acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}
