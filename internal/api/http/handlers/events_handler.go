package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ivd-portal/inscription-service/internal/api/dto"
	"github.com/ivd-portal/inscription-service/internal/domain"
	"github.com/ivd-portal/inscription-service/internal/service"
	apperrors "github.com/ivd-portal/inscription-service/pkg/util/errorutil"
)

// EventsHandler manages events, convocatorias and the category catalog.
type EventsHandler struct {
	admin        *service.EventAdminService
	reconciler   *service.ReconcilerService
	inscriptions *service.InscriptionService
	clock        service.Clock
}

// NewEventsHandler constructs handler.
func NewEventsHandler(admin *service.EventAdminService, reconciler *service.ReconcilerService, inscriptions *service.InscriptionService, clock service.Clock) *EventsHandler {
	return &EventsHandler{admin: admin, reconciler: reconciler, inscriptions: inscriptions, clock: clock}
}

// Categories GET /api/categories.
func (h *EventsHandler) Categories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.NewCategoryResponses(h.admin.Categories())})
}

// CreateEvent POST /api/events.
func (h *EventsHandler) CreateEvent(c *fiber.Ctx) error {
	req, err := parseBody[dto.CreateEventRequest](c)
	if err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	event, err := h.admin.CreateEvent(c.UserContext(), req.ToInput())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewEventResponse(event)})
}

// ListEvents GET /api/events?status=activo,pendiente.
func (h *EventsHandler) ListEvents(c *fiber.Ctx) error {
	var statuses []domain.EventStatus
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, domain.EventStatus(s))
			}
		}
	}
	limit, offset := pagination(c)
	list, err := h.admin.ListEvents(c.UserContext(), statuses, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.EventResponse, 0, len(list))
	for i := range list {
		items = append(items, dto.NewEventResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetEvent GET /api/events/:id.
func (h *EventsHandler) GetEvent(c *fiber.Ctx) error {
	event, err := h.admin.GetEvent(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEventResponse(event)})
}

// UpdateEvent PATCH /api/events/:id.
func (h *EventsHandler) UpdateEvent(c *fiber.Ctx) error {
	req, err := parseBody[dto.UpdateEventRequest](c)
	if err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	event, outcomes, err := h.admin.UpdateEvent(c.UserContext(), c.Params("id"), req.ToPatch())
	if err != nil {
		return err
	}
	reconciled := make([]dto.ReconcileResponse, 0, len(outcomes))
	for _, conv := range event.Convocatorias {
		if results, ok := outcomes[conv.ID]; ok {
			reconciled = append(reconciled, dto.NewReconcileResponse(conv.ID, h.clock.Today(), results))
		}
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"event":      dto.NewEventResponse(event),
		"reconciled": reconciled,
	}})
}

// GetConvocatoria GET /api/convocatorias/:id.
func (h *EventsHandler) GetConvocatoria(c *fiber.Ctx) error {
	conv, err := h.admin.GetConvocatoria(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewConvocatoriaResponse(conv)})
}

// UpdateConvocatoria PATCH /api/convocatorias/:id.
func (h *EventsHandler) UpdateConvocatoria(c *fiber.Ctx) error {
	req, err := parseBody[dto.UpdateConvocatoriaRequest](c)
	if err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	conv, outcomes, err := h.admin.UpdateConvocatoria(c.UserContext(), c.Params("id"), req.ToPatch())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"convocatoria": dto.NewConvocatoriaResponse(conv),
		"reconciled":   dto.NewReconcileResponse(conv.ID, h.clock.Today(), outcomes),
	}})
}

// Eligibility GET /api/convocatorias/:id/eligibility?athlete_id=&as_of=.
func (h *EventsHandler) Eligibility(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	athleteID := c.Query("athlete_id")
	if athleteID == "" {
		return apperrors.NewValidationError("validation failed", map[string]any{"athlete_id": "cannot be blank"})
	}
	asOf, err := queryDate(c, "as_of")
	if err != nil {
		return err
	}
	convID := c.Params("id")
	result, date, err := h.inscriptions.EvaluateFor(c.UserContext(), actor, athleteID, convID, asOf)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEligibilityResponse(athleteID, convID, date, result)})
}

// Reconcile POST /api/convocatorias/:id/reconcile?as_of=.
func (h *EventsHandler) Reconcile(c *fiber.Ctx) error {
	asOf, err := queryDate(c, "as_of")
	if err != nil {
		return err
	}
	date := h.clock.Today()
	if asOf != nil {
		date = *asOf
	}
	convID := c.Params("id")
	outcomes, err := h.reconciler.Reconcile(c.UserContext(), convID, date)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewReconcileResponse(convID, date, outcomes)})
}
