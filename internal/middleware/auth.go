package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prohmpiriya/devops-api/internal/auth"
	"github.com/prohmpiriya/devops-api/internal/domain"
	"github.com/prohmpiriya/devops-api/pkg/logger"
	"github.com/prohmpiriya/devops-api/pkg/response"
)

const (
	IdentityKey = "identity"
	TokenKey    = "token"
)

// TokenValidator resolves a bearer token to an identity
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*domain.Identity, error)
}

// Authenticate rejects requests without a valid bearer token and stores
// the caller identity and raw token in the gin context
func Authenticate(validator TokenValidator, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearer(c.GetHeader("Authorization"))
		if err == nil {
			var identity *domain.Identity
			identity, err = validator.ValidateToken(c.Request.Context(), token)
			if err == nil {
				c.Set(IdentityKey, identity)
				c.Set(TokenKey, token)
				c.Next()
				return
			}
		}

		switch {
		case errors.Is(err, auth.ErrMissingToken):
			response.Abort(c, http.StatusUnauthorized, response.CodeMissingToken, "Access token required")
		case errors.Is(err, auth.ErrExpired):
			response.Abort(c, http.StatusUnauthorized, response.CodeTokenExpired, "Token expired")
		case errors.Is(err, auth.ErrRevoked):
			response.Abort(c, http.StatusUnauthorized, response.CodeTokenRevoked, "Token revoked")
		case errors.Is(err, auth.ErrMalformed):
			response.Abort(c, http.StatusUnauthorized, response.CodeMalformedToken, "Invalid token")
		default:
			log.Error("token validation failed", zap.String("request_id", GetRequestID(c)), zap.Error(err))
			response.Abort(c, http.StatusInternalServerError, response.CodeInternal, "Internal Server Error")
		}
	}
}

// RequireRole allows only identities holding exactly role
func RequireRole(role domain.Role) gin.HandlerFunc {
	message := "Access denied"
	if role == domain.RoleAdmin {
		message = "Admin access required"
	}

	return func(c *gin.Context) {
		if err := auth.Authorize(GetIdentity(c), role); err != nil {
			response.Forbidden(c, message)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetIdentity returns the authenticated identity, or nil
func GetIdentity(c *gin.Context) *domain.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if identity, ok := v.(*domain.Identity); ok {
			return identity
		}
	}
	return nil
}

// GetToken returns the raw bearer token of an authenticated request
func GetToken(c *gin.Context) string {
	return c.GetString(TokenKey)
}
