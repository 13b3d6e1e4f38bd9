package auth

import "github.com/prohmpiriya/devops-api/internal/domain"

// Authorize requires an exact role match. Roles are not hierarchical.
func Authorize(identity *domain.Identity, required domain.Role) error {
	if identity == nil || identity.Role != required {
		return ErrForbidden
	}
	return nil
}
