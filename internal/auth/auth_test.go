package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/resolveiq/internal/domain"
	apperrors "github.com/spec-kit/resolveiq/pkg/util/errorutil"
)

const testSecret = "test-secret"

func sign(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func staffClaims(expires time.Time) Claims {
	role := domain.StaffRoleAgent
	return Claims{
		SubjectID: "staff-1",
		Subject:   domain.SubjectTypeStaff,
		Role:      &role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "identity",
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
}

func newApp(m *AuthMiddleware, extra ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		var de *apperrors.DomainError
		if errors.As(err, &de) {
			return c.SendStatus(de.HTTPStatus)
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}})
	handlers := append([]fiber.Handler{m.Handle}, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(string(p.SubjectType) + ":" + p.SubjectID)
	})
	app.Get("/", handlers...)
	return app
}

func TestParseToken(t *testing.T) {
	v := NewTokenVerifier(testSecret, "identity")
	future := time.Now().Add(time.Hour)

	claims, err := v.ParseToken(sign(t, testSecret, staffClaims(future)))
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.SubjectID != "staff-1" || *claims.Role != domain.StaffRoleAgent {
		t.Errorf("claims = %+v", claims)
	}

	expired := sign(t, testSecret, staffClaims(time.Now().Add(-time.Minute)))
	wrongKey := sign(t, "other", staffClaims(future))
	otherIssuer := staffClaims(future)
	otherIssuer.Issuer = "elsewhere"
	noExpiry := staffClaims(future)
	noExpiry.ExpiresAt = nil

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong key":    wrongKey,
		"other issuer": sign(t, testSecret, otherIssuer),
		"no expiry":    sign(t, testSecret, noExpiry),
		"garbage":      "not.a.jwt",
	} {
		if _, err := v.ParseToken(token); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	if _, err := NewTokenVerifier(testSecret, "").ParseToken(sign(t, testSecret, otherIssuer)); err != nil {
		t.Errorf("empty issuer should accept any issuer: %v", err)
	}
}

func TestAuthMiddleware(t *testing.T) {
	v := NewTokenVerifier(testSecret, "")
	good := sign(t, testSecret, staffClaims(time.Now().Add(time.Hour)))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"bad token", "Bearer nope", fiber.StatusUnauthorized},
		{"ok", "Bearer " + good, fiber.StatusOK},
		{"lowercase scheme", "bearer " + good, fiber.StatusOK},
	}
	app := newApp(NewAuthMiddleware(v, false))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}

func TestAuthDisabledRunsAsSystem(t *testing.T) {
	app := newApp(NewAuthMiddleware(nil, true), RequireSubject(domain.SubjectTypeStaff))
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestRequireSubject(t *testing.T) {
	v := NewTokenVerifier(testSecret, "")
	userClaims := staffClaims(time.Now().Add(time.Hour))
	userClaims.Subject = domain.SubjectTypeUser
	userClaims.Role = nil

	app := newApp(NewAuthMiddleware(v, false), RequireSubject(domain.SubjectTypeStaff))
	for _, tc := range []struct {
		claims Claims
		status int
	}{
		{staffClaims(time.Now().Add(time.Hour)), fiber.StatusOK},
		{userClaims, fiber.StatusForbidden},
	} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+sign(t, testSecret, tc.claims))
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.claims.Subject, resp.StatusCode, tc.status)
		}
	}
}

func TestPrincipalActor(t *testing.T) {
	p := &Principal{SubjectID: "u1", SubjectType: domain.SubjectTypeUser}
	a := p.Actor()
	if a.Type != domain.SubjectTypeUser || a.SubjectID == nil || *a.SubjectID != "u1" {
		t.Errorf("actor = %+v", a)
	}
	var nilPrincipal *Principal
	if nilPrincipal.Actor().Type != domain.SubjectTypeSystem {
		t.Errorf("nil principal should act as system")
	}
}
