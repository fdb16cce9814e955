package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/resolveiq/internal/domain"
	"github.com/spec-kit/resolveiq/internal/events"
	apperrors "github.com/spec-kit/resolveiq/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SubjectID   string
	SubjectType domain.SubjectType
	Role        *domain.StaffRole
}

// Actor converts the principal into an event actor.
func (p *Principal) Actor() events.Actor {
	if p == nil || p.SubjectType == domain.SubjectTypeSystem {
		return events.SystemActor
	}
	id := p.SubjectID
	return events.Actor{Type: p.SubjectType, SubjectID: &id}
}

var anonymousSystem = &Principal{SubjectType: domain.SubjectTypeSystem}

// AuthMiddleware validates bearer tokens. Claims are trusted as issued; no
// lookup happens here.
type AuthMiddleware struct {
	tokens   *TokenVerifier
	disabled bool
}

// NewAuthMiddleware constructs middleware. When disabled every request runs as
// the system principal.
func NewAuthMiddleware(tokens *TokenVerifier, disabled bool) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, disabled: disabled}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	if m.disabled {
		c.Locals(principalKey, anonymousSystem)
		return c.Next()
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	switch claims.Subject {
	case domain.SubjectTypeUser, domain.SubjectTypeStaff, domain.SubjectTypeSystem:
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, &Principal{
		SubjectID:   claims.SubjectID,
		SubjectType: claims.Subject,
		Role:        claims.Role,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
