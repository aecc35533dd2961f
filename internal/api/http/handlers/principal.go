package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ivd-portal/inscription-service/internal/api/dto"
	"github.com/ivd-portal/inscription-service/internal/auth"
	"github.com/ivd-portal/inscription-service/internal/service"
	apperrors "github.com/ivd-portal/inscription-service/pkg/util/errorutil"
)

func actorFrom(c *fiber.Ctx) (service.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return service.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return service.ActorFromAccount(principal.Account), nil
}

func parseBody[T any](c *fiber.Ctx) (T, error) {
	var req T
	if err := c.BodyParser(&req); err != nil {
		return req, apperrors.NewValidationError("invalid payload", nil)
	}
	return req, nil
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	if v := c.Query(key); v != "" {
		return &v
	}
	return nil
}

func pagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func queryDate(c *fiber.Ctx, key string) (*time.Time, error) {
	return dto.ParseDate(c.Query(key))
}
