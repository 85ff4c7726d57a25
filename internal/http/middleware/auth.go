package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docvault/internal/auth"
	"docvault/internal/logging"
)

// PrincipalLocalKey is the Fiber locals key holding the authenticated auth.Principal.
const PrincipalLocalKey = "principal"

// Auth verifies the bearer token and stores the principal in locals.
func Auth(verifier auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		ctx := c.UserContext()
		principal, err := verifier.Verify(ctx, strings.TrimSpace(token))
		if err != nil {
			logging.From(ctx).Debug("auth_rejected", zap.Error(err))
			if errors.Is(err, auth.ErrTokenExpired) {
				return fiber.NewError(fiber.StatusUnauthorized, "token expired")
			}
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(PrincipalLocalKey, principal)
		c.SetUserContext(logging.With(ctx, logging.From(ctx).With(zap.Int64("user_id", principal.UserID))))
		return c.Next()
	}
}

// RequireRoles rejects principals holding none of the allowed roles.
func RequireRoles(allowed auth.RoleSet) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		if !auth.HasAnyRole(p, allowed) {
			return fiber.NewError(fiber.StatusForbidden, auth.ErrForbidden.Error())
		}
		return c.Next()
	}
}

// PrincipalFrom returns the principal stored by Auth.
func PrincipalFrom(c *fiber.Ctx) (auth.Principal, bool) {
	p, ok := c.Locals(PrincipalLocalKey).(auth.Principal)
	return p, ok
}
