package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ivd-portal/inscription-service/internal/api/dto"
	"github.com/ivd-portal/inscription-service/internal/service"
)

// InscriptionsHandler exposes the inscription ledger.
type InscriptionsHandler struct {
	inscriptions *service.InscriptionService
}

// NewInscriptionsHandler constructs handler.
func NewInscriptionsHandler(inscriptions *service.InscriptionService) *InscriptionsHandler {
	return &InscriptionsHandler{inscriptions: inscriptions}
}

// Register POST /api/inscriptions.
func (h *InscriptionsHandler) Register(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	req, err := parseBody[dto.RegisterInscriptionRequest](c)
	if err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	asOf, err := dto.ParseDate(req.AsOf)
	if err != nil {
		return err
	}

	inscription, err := h.inscriptions.RegisterInscription(c.UserContext(), service.RegisterInput{
		AthleteID:      req.AthleteID,
		ConvocatoriaID: req.ConvocatoriaID,
		AsOf:           asOf,
		RequestedBy:    actor,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewInscriptionResponse(inscription)})
}

// List GET /api/inscriptions.
func (h *InscriptionsHandler) List(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	filter := service.InscriptionFilter{
		EventID:        optionalQuery(c, "event_id"),
		ConvocatoriaID: optionalQuery(c, "convocatoria_id"),
		ClubID:         optionalQuery(c, "club_id"),
		AthleteID:      optionalQuery(c, "athlete_id"),
		FlaggedOnly:    c.QueryBool("flagged", false),
		Limit:          limit,
		Offset:         offset,
	}

	list, err := h.inscriptions.ListInscriptionsFor(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.InscriptionResponse, 0, len(list))
	for i := range list {
		items = append(items, dto.NewInscriptionResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/inscriptions/:id.
func (h *InscriptionsHandler) Get(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	inscription, err := h.inscriptions.GetInscriptionFor(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInscriptionResponse(inscription)})
}

// Validate POST /api/inscriptions/:id/validate.
func (h *InscriptionsHandler) Validate(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	inscription, err := h.inscriptions.ValidateInscription(c.UserContext(), c.Params("id"), actor.AccountID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInscriptionResponse(inscription)})
}
