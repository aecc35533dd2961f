package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ivd-portal/inscription-service/internal/api/dto"
	"github.com/ivd-portal/inscription-service/internal/service"
)

// AthletesHandler exposes the athlete directory.
type AthletesHandler struct {
	athletes *service.AthleteService
}

// NewAthletesHandler constructs handler.
func NewAthletesHandler(athletes *service.AthleteService) *AthletesHandler {
	return &AthletesHandler{athletes: athletes}
}

// Create POST /api/athletes.
func (h *AthletesHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	req, err := parseBody[dto.CreateAthleteRequest](c)
	if err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	athlete, err := h.athletes.CreateAthlete(c.UserContext(), actor, req.ToInput())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAthleteResponse(athlete)})
}

// Get GET /api/athletes/:id.
func (h *AthletesHandler) Get(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	athlete, err := h.athletes.GetAthlete(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAthleteResponse(athlete)})
}

// ListByClub GET /api/clubs/:id/athletes.
func (h *AthletesHandler) ListByClub(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	list, err := h.athletes.ListClubAthletes(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AthleteResponse, 0, len(list))
	for i := range list {
		items = append(items, dto.NewAthleteResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
