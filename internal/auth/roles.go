package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ivd-portal/inscription-service/internal/domain"
	apperrors "github.com/ivd-portal/inscription-service/pkg/util/errorutil"
)

var errNoPrincipal = apperrors.NewUnauthorized("authentication required")

// RequireRole rejects callers whose account role is not listed.
// The 403 body names the accepted roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	names := make([]string, 0, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
		names = append(names, string(role))
	}
	denied := apperrors.ErrForbiddenRole.WithDetails(map[string]any{"required_roles": names})

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return errNoPrincipal
		}
		if _, exists := allowedSet[principal.Role()]; !exists {
			return denied
		}
		return c.Next()
	}
}

// RequireAnyRole admits any authenticated account with a known role.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return errNoPrincipal
		}
		if !principal.Role().Valid() {
			return apperrors.ErrForbiddenRole
		}
		return c.Next()
	}
}
