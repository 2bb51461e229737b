package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contacts-service/internal/domain"
	apperrors "github.com/spec-kit/contacts-service/pkg/util"
)

// RequireRole checks the identity's role against the required one.
func RequireRole(user *domain.User, role domain.UserRole) (*domain.User, error) {
	if user == nil || user.Role != role {
		return nil, apperrors.NewForbidden("insufficient access rights")
	}
	return user, nil
}

// RequireAdmin gates admin-only routes. Must run after AuthMiddleware.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return apperrors.NewUnauthenticated("could not validate credentials")
		}
		if _, err := RequireRole(user, domain.RoleAdmin); err != nil {
			return err
		}
		return c.Next()
	}
}
