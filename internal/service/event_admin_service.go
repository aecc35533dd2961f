package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivd-portal/inscription-service/internal/domain"
	"github.com/ivd-portal/inscription-service/internal/eligibility"
	"github.com/ivd-portal/inscription-service/internal/events"
	"github.com/ivd-portal/inscription-service/internal/repository"
	apperrors "github.com/ivd-portal/inscription-service/pkg/util/errorutil"
)

// EventAdminService manages events and convocatorias and triggers
// reconciliation whenever eligibility rules change.
type EventAdminService struct {
	events     repository.EventRepository
	catalog    *eligibility.Catalog
	reconciler *ReconcilerService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	clock      Clock
}

// EventAdminDependencies bundles collaborators for event administration.
type EventAdminDependencies struct {
	EventRepo  repository.EventRepository
	Catalog    *eligibility.Catalog
	Reconciler *ReconcilerService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// ConvocatoriaInput defines one convocatoria of a new event. Omitted bounds
// default to the category's range.
type ConvocatoriaInput struct {
	Discipline   string
	Category     string
	AgeMin       *int
	AgeMax       *int
	GenderFilter domain.GenderFilter
}

// EventInput describes event creation.
type EventInput struct {
	Title         string
	Location      string
	Date          time.Time
	ClosingDate   time.Time
	Status        domain.EventStatus
	Convocatorias []ConvocatoriaInput
}

// EventPatch lists editable event fields; nil means unchanged.
type EventPatch struct {
	Title       *string
	Location    *string
	Date        *time.Time
	ClosingDate *time.Time
	Status      *domain.EventStatus
}

// ConvocatoriaPatch lists editable convocatoria fields; nil means unchanged.
type ConvocatoriaPatch struct {
	Discipline   *string
	AgeMin       *int
	AgeMax       *int
	GenderFilter *domain.GenderFilter
}

// NewEventAdminService constructs the service.
func NewEventAdminService(deps EventAdminDependencies) *EventAdminService {
	catalog := deps.Catalog
	if catalog == nil {
		catalog = eligibility.DefaultCatalog()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventAdminService{
		events:     deps.EventRepo,
		catalog:    catalog,
		reconciler: deps.Reconciler,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		clock:      deps.Clock,
	}
}

// Categories returns the category catalog.
func (s *EventAdminService) Categories() []domain.Category {
	return s.catalog.Categories()
}

// CreateEvent validates and stores an event with its convocatorias.
func (s *EventAdminService) CreateEvent(ctx context.Context, input EventInput) (*domain.Event, error) {
	status := input.Status
	if status == "" {
		status = domain.EventStatusPending
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid event status", map[string]any{"status": status})
	}
	if err := validateDates(input.Date, input.ClosingDate); err != nil {
		return nil, err
	}
	if len(input.Convocatorias) == 0 {
		return nil, apperrors.NewValidationError("event needs at least one convocatoria", nil)
	}

	event := &domain.Event{
		Title:       strings.TrimSpace(input.Title),
		Location:    strings.TrimSpace(input.Location),
		Date:        domain.DateOf(input.Date),
		ClosingDate: domain.DateOf(input.ClosingDate),
		Status:      status,
	}
	for i, in := range input.Convocatorias {
		conv, err := s.buildConvocatoria(in)
		if err != nil {
			if de := apperrors.ToDomainError(err); de.Details != nil {
				details := make(map[string]any, len(de.Details)+1)
				for k, v := range de.Details {
					details[k] = v
				}
				details["index"] = i
				return nil, de.WithDetails(details)
			}
			return nil, err
		}
		event.Convocatorias = append(event.Convocatorias, conv)
	}

	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	s.logger.Info("event created",
		zap.String("event_id", event.ID),
		zap.Int("convocatorias", len(event.Convocatorias)))
	return event, nil
}

// UpdateEvent applies patch. Changing the closing date or status reconciles
// every convocatoria of the event.
func (s *EventAdminService) UpdateEvent(ctx context.Context, eventID string, patch EventPatch) (*domain.Event, map[string][]ReconcileOutcome, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, nil, notFoundOr(err, "event", eventID)
	}
	before := *event

	if patch.Title != nil {
		event.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Location != nil {
		event.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.Date != nil {
		event.Date = domain.DateOf(*patch.Date)
	}
	if patch.ClosingDate != nil {
		event.ClosingDate = domain.DateOf(*patch.ClosingDate)
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, nil, apperrors.NewValidationError("invalid event status", map[string]any{"status": *patch.Status})
		}
		event.Status = *patch.Status
	}
	if err := validateDates(event.Date, event.ClosingDate); err != nil {
		return nil, nil, err
	}

	if err := s.events.UpdateEvent(ctx, event); err != nil {
		return nil, nil, notFoundOr(err, "event", eventID)
	}
	for i := range event.Convocatorias {
		event.Convocatorias[i].EventStatus = event.Status
		event.Convocatorias[i].ClosingDate = event.ClosingDate
	}

	rulesChanged := before.Status != event.Status || !before.ClosingDate.Equal(event.ClosingDate)
	if !rulesChanged || s.reconciler == nil {
		return event, nil, nil
	}
	s.logger.Info("event rules changed; reconciling",
		zap.String("event_id", event.ID),
		zap.String("status", string(event.Status)),
		zap.Time("closing_date", event.ClosingDate))
	outcomes, err := s.reconciler.ReconcileEvent(ctx, event.ID, s.clock.Today())
	if err != nil {
		return nil, nil, err
	}
	return event, outcomes, nil
}

// UpdateConvocatoria applies patch. Bounds are validated against the plausible
// range; any rule change reconciles the convocatoria.
func (s *EventAdminService) UpdateConvocatoria(ctx context.Context, convocatoriaID string, patch ConvocatoriaPatch) (*domain.Convocatoria, []ReconcileOutcome, error) {
	current, err := s.events.GetConvocatoria(ctx, convocatoriaID)
	if err != nil {
		return nil, nil, notFoundOr(err, "convocatoria", convocatoriaID)
	}
	updated := *current

	if patch.Discipline != nil {
		updated.Discipline = strings.TrimSpace(*patch.Discipline)
	}
	if patch.AgeMin != nil {
		updated.AgeMin = *patch.AgeMin
	}
	if patch.AgeMax != nil {
		updated.AgeMax = *patch.AgeMax
	}
	if patch.GenderFilter != nil {
		if !patch.GenderFilter.Valid() {
			return nil, nil, apperrors.NewValidationError("invalid gender filter", map[string]any{"gender_filter": *patch.GenderFilter})
		}
		updated.GenderFilter = *patch.GenderFilter
	}
	if err := s.catalog.ValidateBounds(updated.AgeMin, updated.AgeMax); err != nil {
		return nil, nil, err
	}

	if err := s.events.UpdateConvocatoria(ctx, &updated); err != nil {
		return nil, nil, notFoundOr(err, "convocatoria", convocatoriaID)
	}
	if !updated.RulesDiffer(*current) {
		return &updated, nil, nil
	}

	publishEvent(ctx, s.dispatcher, s.logger, s.clock, events.Event{
		Type:           events.EventConvocatoriaUpdated,
		ConvocatoriaID: updated.ID,
		Payload: events.ConvocatoriaUpdatedPayload{
			EventID:      updated.EventID,
			AgeMin:       updated.AgeMin,
			AgeMax:       updated.AgeMax,
			GenderFilter: updated.GenderFilter,
			EventStatus:  updated.EventStatus,
		},
	})
	if s.reconciler == nil {
		return &updated, nil, nil
	}
	outcomes, err := s.reconciler.Reconcile(ctx, updated.ID, s.clock.Today())
	if err != nil {
		return nil, nil, err
	}
	return &updated, outcomes, nil
}

// GetEvent fetches an event with its convocatorias.
func (s *EventAdminService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "event", id)
	}
	return event, nil
}

// ListEvents lists events, most recent first.
func (s *EventAdminService) ListEvents(ctx context.Context, statuses []domain.EventStatus, limit, offset int) ([]domain.Event, error) {
	for _, status := range statuses {
		if !status.Valid() {
			return nil, apperrors.NewValidationError("invalid event status", map[string]any{"status": status})
		}
	}
	list, err := s.events.ListEvents(ctx, repository.EventFilter{Statuses: statuses, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Event{}
	}
	return list, nil
}

// GetConvocatoria fetches one convocatoria with its event's rules.
func (s *EventAdminService) GetConvocatoria(ctx context.Context, id string) (*domain.Convocatoria, error) {
	conv, err := s.events.GetConvocatoria(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "convocatoria", id)
	}
	return conv, nil
}

func (s *EventAdminService) buildConvocatoria(in ConvocatoriaInput) (domain.Convocatoria, error) {
	category, err := s.catalog.Lookup(in.Category)
	if err != nil {
		return domain.Convocatoria{}, err
	}
	gender := in.GenderFilter
	if gender == "" {
		gender = domain.GenderFilterMixed
	}
	if !gender.Valid() {
		return domain.Convocatoria{}, apperrors.NewValidationError("invalid gender filter", map[string]any{"gender_filter": gender})
	}
	discipline := strings.TrimSpace(in.Discipline)
	if discipline == "" {
		return domain.Convocatoria{}, apperrors.NewValidationError("discipline is required", map[string]any{})
	}

	conv := domain.Convocatoria{
		Discipline:   discipline,
		Category:     category.Name,
		AgeMin:       category.MinAge,
		AgeMax:       category.MaxAge,
		GenderFilter: gender,
	}
	if in.AgeMin != nil {
		conv.AgeMin = *in.AgeMin
	}
	if in.AgeMax != nil {
		conv.AgeMax = *in.AgeMax
	}
	if err := s.catalog.ValidateBounds(conv.AgeMin, conv.AgeMax); err != nil {
		return domain.Convocatoria{}, err
	}
	return conv, nil
}

func validateDates(date, closing time.Time) error {
	if date.IsZero() || closing.IsZero() {
		return apperrors.NewValidationError("event date and closing date are required", nil)
	}
	if domain.DateOf(closing).After(domain.DateOf(date)) {
		return apperrors.NewValidationError("closing date must not be after the event date", map[string]any{
			"date":         domain.DateOf(date).Format(domain.DateLayout),
			"closing_date": domain.DateOf(closing).Format(domain.DateLayout),
		})
	}
	return nil
}
