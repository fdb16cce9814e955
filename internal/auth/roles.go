package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/resolveiq/internal/domain"
	apperrors "github.com/spec-kit/resolveiq/pkg/util/errorutil"
)

// RequireSubject admits only the listed kinds of caller. The system principal
// is always admitted.
func RequireSubject(allowed ...domain.SubjectType) fiber.Handler {
	allowedSet := make(map[domain.SubjectType]struct{}, len(allowed))
	for _, s := range allowed {
		allowedSet[s] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.SubjectType == domain.SubjectTypeSystem {
			return c.Next()
		}
		if _, exists := allowedSet[principal.SubjectType]; !exists {
			return apperrors.NewForbidden("caller type not allowed")
		}
		return c.Next()
	}
}
