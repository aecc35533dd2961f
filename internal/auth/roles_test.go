package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivd-portal/inscription-service/internal/auth"
	"github.com/ivd-portal/inscription-service/internal/domain"
	apperrors "github.com/ivd-portal/inscription-service/pkg/util/errorutil"
)

func newRoleApp(guard fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		domainErr := apperrors.ToDomainError(err)
		return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"code": domainErr.Code, "details": domainErr.Details})
	}})
	app.Use(func(c *fiber.Ctx) error {
		if role := c.Get("X-Test-Role"); role != "" {
			auth.WithPrincipal(c, &auth.Principal{Account: &domain.Account{ID: "acc-1", Role: domain.Role(role)}})
		}
		return c.Next()
	})
	app.Get("/", guard, func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })
	return app
}

func callAs(t *testing.T, app *fiber.App, role string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := map[string]any{}
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func TestRequireRole(t *testing.T) {
	app := newRoleApp(auth.RequireRole(domain.RoleAdmin, domain.RoleClub))

	status, _ := callAs(t, app, "ADMIN")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = callAs(t, app, "CLUB")
	assert.Equal(t, http.StatusNoContent, status)

	status, body := callAs(t, app, "ATHLETE")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])
	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{"ADMIN", "CLUB"}, details["required_roles"])

	status, body = callAs(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestRequireAnyRole(t *testing.T) {
	app := newRoleApp(auth.RequireAnyRole())

	status, _ := callAs(t, app, "ATHLETE")
	assert.Equal(t, http.StatusNoContent, status)

	status, body := callAs(t, app, "JUDGE")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])

	status, _ = callAs(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}
