package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"marketplace/internal/domain"
	applog "marketplace/internal/log"
	"marketplace/internal/services"
)

// bearer extracts the token from "Authorization: Bearer <t>" (or "Token <t>").
func bearer(c *fiber.Ctx) string {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	for _, p := range []string{"Bearer ", "Token "} {
		if len(h) > len(p) && strings.EqualFold(h[:len(p)], p) {
			return strings.TrimSpace(h[len(p):])
		}
	}
	return ""
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// RequireUser rejects requests without a valid token of an active account.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := bearer(c)
		if tok == "" {
			applog.Security(c, "auth.missing", nil)
			return abort(c, fiber.StatusUnauthorized, CodeUnauthenticated, "authentication required")
		}
		u, err := auth.Authenticate(c.UserContext(), tok)
		if err != nil {
			if errors.Is(err, services.ErrBadCredentials) || errors.Is(err, services.ErrInactive) {
				applog.Security(c, "auth.reject", map[string]any{"reason": err.Error()})
			}
			return fail(c, err)
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// OptionalUser attaches the caller when a valid token is sent and lets
// anonymous requests through.
func OptionalUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tok := bearer(c); tok != "" {
			if u, err := auth.Authenticate(c.UserContext(), tok); err == nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	}
}

// RequireRole must run after RequireUser.
func RequireRole(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			return abort(c, fiber.StatusUnauthorized, CodeUnauthenticated, "authentication required")
		}
		if u.Role != role {
			applog.Security(c, "access.denied.role", map[string]any{"need": string(role), "have": string(u.Role)})
			return abort(c, fiber.StatusForbidden, CodeForbidden, "only "+string(role)+" accounts may do this")
		}
		return c.Next()
	}
}
