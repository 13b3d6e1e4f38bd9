package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/prohmpiriya/devops-api/internal/auth"
	"github.com/prohmpiriya/devops-api/internal/domain"
	"github.com/prohmpiriya/devops-api/internal/dto"
	"github.com/prohmpiriya/devops-api/internal/repository"
	"github.com/prohmpiriya/devops-api/pkg/logger"
	"github.com/prohmpiriya/devops-api/pkg/telemetry"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthServiceConfig holds configuration for AuthService
type AuthServiceConfig struct {
	TokenTTL       time.Duration
	PublishTimeout time.Duration // upper bound for one audit publish
}

// DefaultPublishTimeout bounds the audit publish inside login and logout
const DefaultPublishTimeout = 2 * time.Second

// AuthService defines the interface for authentication operations
type AuthService interface {
	// Login checks credentials and issues a token
	Login(ctx context.Context, req *dto.LoginRequest, meta dto.LoginMeta) (*dto.LoginResponse, error)
	// ValidateToken returns the identity behind a bearer token
	ValidateToken(ctx context.Context, token string) (*domain.Identity, error)
	// Profile echoes the decoded token content
	Profile(identity *domain.Identity) *dto.ProfileResponse
	// ListUsers returns every user without secrets
	ListUsers(ctx context.Context) (*dto.AdminResponse, error)
	// Logout revokes the token when a revocation store is configured
	Logout(ctx context.Context, token string, identity *domain.Identity) error
}

// AuthServiceDeps groups the collaborators of AuthService
type AuthServiceDeps struct {
	Users     repository.UserRepository
	Revoked   repository.RevocationRepository // nil disables revocation
	Codec     auth.TokenCodec
	Validator *auth.Validator
	Verifier  auth.PasswordVerifier
	Publisher EventPublisher
	Logger    *logger.Logger
}

type authService struct {
	deps   AuthServiceDeps
	config *AuthServiceConfig
}

// NewAuthService creates a new AuthService
func NewAuthService(deps AuthServiceDeps, config *AuthServiceConfig) AuthService {
	if config == nil {
		config = &AuthServiceConfig{}
	}
	if config.TokenTTL == 0 {
		config.TokenTTL = time.Hour
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = DefaultPublishTimeout
	}
	if deps.Verifier == nil {
		deps.Verifier = auth.PlaintextVerifier{}
	}
	if deps.Publisher == nil {
		deps.Publisher = NewNoOpEventPublisher()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Get()
	}
	if deps.Validator == nil {
		deps.Validator = auth.NewValidator(deps.Codec, nil)
	}

	return &authService{deps: deps, config: config}
}

// Login authenticates a user
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, meta dto.LoginMeta) (*dto.LoginResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.login")
	defer span.End()

	if req == nil || !req.Valid() {
		span.SetStatus(codes.Error, "missing credentials")
		return nil, ErrMissingCredentials
	}

	span.SetAttributes(attribute.String("username", req.Username))

	user, err := s.deps.Users.FindByUsername(ctx, req.Username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("find user: %w", err)
	}

	if user == nil || s.deps.Verifier.Verify(user.Secret, req.Password) != nil {
		span.SetStatus(codes.Error, "invalid credentials")
		s.publish(ctx, domain.AuthEventLoginFailed, req.Username, 0, meta)
		return nil, ErrInvalidCredentials
	}

	token, err := s.deps.Codec.Encode(user, s.config.TokenTTL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.publish(ctx, domain.AuthEventLoginSucceeded, user.Username, user.ID, meta)

	span.SetAttributes(attribute.Int64("user_id", user.ID), attribute.String("role", string(user.Role)))
	span.SetStatus(codes.Ok, "")

	return &dto.LoginResponse{
		Message: "Login successful",
		Token:   token,
		User:    dto.NewUserResponse(user),
	}, nil
}

// ValidateToken validates a bearer token and checks revocation
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.Identity, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.validate_token")
	defer span.End()

	identity, err := s.deps.Validator.Validate(token)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if s.deps.Revoked != nil {
		revoked, err := s.deps.Revoked.IsRevoked(ctx, auth.TokenKey(identity.TokenID, token))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			span.SetStatus(codes.Error, "token revoked")
			return nil, auth.ErrRevoked
		}
	}

	span.SetAttributes(attribute.Int64("user_id", identity.UserID))
	span.SetStatus(codes.Ok, "")
	return identity, nil
}

// Profile returns the token content as profile data
func (s *authService) Profile(identity *domain.Identity) *dto.ProfileResponse {
	return &dto.ProfileResponse{
		Message: "Profile data",
		User: dto.ProfileUser{
			ID:       identity.UserID,
			Username: identity.Username,
			Role:     identity.Role,
			Exp:      identity.ExpiresAt,
		},
	}
}

// ListUsers returns every user for the admin dashboard
func (s *authService) ListUsers(ctx context.Context) (*dto.AdminResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.list_users")
	defer span.End()

	users, err := s.deps.Users.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.NewUserResponse(u))
	}

	span.SetAttributes(attribute.Int("user_count", len(out)))
	span.SetStatus(codes.Ok, "")
	return &dto.AdminResponse{Message: "Admin dashboard data", Users: out}, nil
}

// Logout revokes the presented token until its natural expiry
func (s *authService) Logout(ctx context.Context, token string, identity *domain.Identity) error {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.logout")
	defer span.End()

	if s.deps.Revoked != nil {
		key := auth.TokenKey(identity.TokenID, token)
		if err := s.deps.Revoked.Revoke(ctx, key, identity.ExpiresTime()); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("revoke token: %w", err)
		}
	}

	s.publish(ctx, domain.AuthEventLogout, identity.Username, identity.UserID, dto.LoginMeta{})
	span.SetStatus(codes.Ok, "")
	return nil
}

// publish never fails the calling operation
func (s *authService) publish(ctx context.Context, eventType domain.AuthEventType, username string, userID int64, meta dto.LoginMeta) {
	event := domain.NewAuthEvent(eventType, username, userID)
	event.IP = meta.IP
	event.UserAgent = meta.UserAgent

	// detached from client cancellation but capped so a slow broker cannot stall the response
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.PublishTimeout)
	defer cancel()

	if err := s.deps.Publisher.Publish(ctx, event); err != nil {
		s.deps.Logger.Warn("failed to publish audit event",
			zap.String("event_type", string(eventType)),
			zap.String("username", username),
			zap.Error(err),
		)
	}
}
