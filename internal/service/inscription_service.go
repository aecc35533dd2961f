package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ivd-portal/inscription-service/internal/domain"
	"github.com/ivd-portal/inscription-service/internal/eligibility"
	"github.com/ivd-portal/inscription-service/internal/events"
	"github.com/ivd-portal/inscription-service/internal/observability"
	"github.com/ivd-portal/inscription-service/internal/repository"
	apperrors "github.com/ivd-portal/inscription-service/pkg/util/errorutil"
)

// InscriptionService is the inscription ledger: the single place that admits,
// validates and lists registrations.
type InscriptionService struct {
	athletes     repository.AthleteRepository
	events       repository.EventRepository
	inscriptions repository.InscriptionRepository
	evaluator    *eligibility.Evaluator
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
	clock        Clock
}

// InscriptionDependencies bundles collaborators for the inscription service.
type InscriptionDependencies struct {
	AthleteRepo     repository.AthleteRepository
	EventRepo       repository.EventRepository
	InscriptionRepo repository.InscriptionRepository
	Evaluator       *eligibility.Evaluator
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
	Clock           Clock
}

// RegisterInput describes a registration request. AsOf is honoured for
// admins only; everyone else is judged at the current calendar date.
type RegisterInput struct {
	AthleteID      string
	ConvocatoriaID string
	AsOf           *time.Time
	RequestedBy    Actor
}

// InscriptionFilter narrows ListInscriptions.
type InscriptionFilter struct {
	EventID        *string
	ConvocatoriaID *string
	ClubID         *string
	AthleteID      *string
	FlaggedOnly    bool
	Limit          int
	Offset         int
}

// NewInscriptionService constructs the service.
func NewInscriptionService(deps InscriptionDependencies) *InscriptionService {
	evaluator := deps.Evaluator
	if evaluator == nil {
		evaluator = eligibility.NewEvaluator()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InscriptionService{
		athletes:     deps.AthleteRepo,
		events:       deps.EventRepo,
		inscriptions: deps.InscriptionRepo,
		evaluator:    evaluator,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       logger,
		clock:        deps.Clock,
	}
}

// RegisterInscription admits an athlete into a convocatoria or reports why not.
// A rejected call leaves no record behind.
func (s *InscriptionService) RegisterInscription(ctx context.Context, input RegisterInput) (*domain.Inscription, error) {
	athlete, conv, err := s.load(ctx, input.AthleteID, input.ConvocatoriaID)
	if err != nil {
		return nil, err
	}
	if !input.RequestedBy.CanActFor(athlete) {
		return nil, input.RequestedBy.forbiddenFor(athlete.ID)
	}

	exists, err := s.inscriptions.Exists(ctx, athlete.ID, conv.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		s.metrics.RecordRegistration(apperrors.CodeDuplicateInscription)
		return nil, duplicateInscription(athlete.ID, conv.ID)
	}

	asOf := s.asOf(input.RequestedBy, input.AsOf)
	if result := s.evaluator.Evaluate(*athlete, *conv, asOf); !result.IsEligible() {
		s.metrics.RecordRegistration(string(result))
		return nil, eligibility.ResultError(result, *athlete, *conv, asOf)
	}

	ins := &domain.Inscription{
		AthleteID:      athlete.ID,
		ConvocatoriaID: conv.ID,
		EventID:        conv.EventID,
		RegisteredAt:   s.clock.Now().UTC(),
		RegisteredBy:   input.RequestedBy.AccountID,
	}
	if err := s.inscriptions.Create(ctx, ins); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.RecordRegistration(apperrors.CodeDuplicateInscription)
			return nil, duplicateInscription(athlete.ID, conv.ID)
		}
		return nil, err
	}

	s.metrics.RecordRegistration("REGISTERED")
	s.logger.Info("inscription registered",
		zap.String("inscription_id", ins.ID),
		zap.String("athlete_id", ins.AthleteID),
		zap.String("convocatoria_id", ins.ConvocatoriaID),
		zap.String("registered_by", ins.RegisteredBy))

	payload := events.InscriptionRegisteredPayload{AthleteID: athlete.ID, EventID: conv.EventID}
	if clubID, ok := athlete.Affiliation.ClubID(); ok {
		payload.ClubID = &clubID
	}
	publishEvent(ctx, s.dispatcher, s.logger, s.clock, events.Event{
		Type:           events.EventInscriptionRegistered,
		InscriptionID:  ins.ID,
		ConvocatoriaID: conv.ID,
		ActorID:        input.RequestedBy.AccountID,
		Payload:        payload,
	})
	return ins, nil
}

// ValidateInscription marks an inscription validated. Repeated calls succeed
// and keep the first call's validatedAt and validatedBy.
func (s *InscriptionService) ValidateInscription(ctx context.Context, inscriptionID, validatorID string) (*domain.Inscription, error) {
	ins, changed, err := s.inscriptions.MarkValidated(ctx, inscriptionID, validatorID, s.clock.Now().UTC())
	if err != nil {
		return nil, notFoundOr(err, "inscription", inscriptionID)
	}
	if !changed {
		return ins, nil
	}

	s.metrics.RecordValidation()
	s.logger.Info("inscription validated",
		zap.String("inscription_id", ins.ID),
		zap.String("validated_by", validatorID))
	publishEvent(ctx, s.dispatcher, s.logger, s.clock, events.Event{
		Type:           events.EventInscriptionValidated,
		InscriptionID:  ins.ID,
		ConvocatoriaID: ins.ConvocatoriaID,
		ActorID:        validatorID,
		Payload: events.InscriptionValidatedPayload{
			ValidatedBy: validatorID,
			ValidatedAt: *ins.ValidatedAt,
		},
	})
	return ins, nil
}

// EvaluateEligibility reports whether the athlete could register as of asOf,
// without writing anything.
func (s *InscriptionService) EvaluateEligibility(ctx context.Context, athleteID, convocatoriaID string, asOf time.Time) (domain.EligibilityResult, error) {
	athlete, conv, err := s.load(ctx, athleteID, convocatoriaID)
	if err != nil {
		return "", err
	}
	return s.evaluator.Evaluate(*athlete, *conv, asOf), nil
}

// EvaluateFor is EvaluateEligibility scoped to what actor may see. A nil asOf,
// or one supplied by a non-admin, means today.
func (s *InscriptionService) EvaluateFor(ctx context.Context, actor Actor, athleteID, convocatoriaID string, asOf *time.Time) (domain.EligibilityResult, time.Time, error) {
	athlete, err := s.athletes.GetByID(ctx, athleteID)
	if err != nil {
		return "", time.Time{}, notFoundOr(err, "athlete", athleteID)
	}
	if !actor.CanActFor(athlete) {
		return "", time.Time{}, actor.forbiddenFor(athleteID)
	}
	date := s.asOf(actor, asOf)
	result, err := s.EvaluateEligibility(ctx, athleteID, convocatoriaID, date)
	return result, date, err
}

// ListInscriptions returns matching inscriptions ordered by registration time, then ID.
func (s *InscriptionService) ListInscriptions(ctx context.Context, filter InscriptionFilter) ([]domain.Inscription, error) {
	list, err := s.inscriptions.List(ctx, repository.InscriptionFilter{
		EventID:        filter.EventID,
		ConvocatoriaID: filter.ConvocatoriaID,
		ClubID:         filter.ClubID,
		AthleteID:      filter.AthleteID,
		FlaggedOnly:    filter.FlaggedOnly,
		Limit:          filter.Limit,
		Offset:         filter.Offset,
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Inscription{}
	}
	return list, nil
}

// ListInscriptionsFor narrows filter to what actor may see: clubs see their
// affiliated athletes and athletes see themselves.
func (s *InscriptionService) ListInscriptionsFor(ctx context.Context, actor Actor, filter InscriptionFilter) ([]domain.Inscription, error) {
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleClub:
		if actor.ClubID == nil {
			return nil, apperrors.NewForbidden("club account without club")
		}
		filter.ClubID = actor.ClubID
	case domain.RoleAthlete:
		if actor.AthleteID == nil {
			return nil, apperrors.NewForbidden("athlete account without athlete")
		}
		filter.AthleteID = actor.AthleteID
	default:
		return nil, apperrors.NewForbidden("unknown role")
	}
	return s.ListInscriptions(ctx, filter)
}

// GetInscription fetches one inscription.
func (s *InscriptionService) GetInscription(ctx context.Context, id string) (*domain.Inscription, error) {
	ins, err := s.inscriptions.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "inscription", id)
	}
	return ins, nil
}

// GetInscriptionFor fetches one inscription the actor may see. Inscriptions of
// other clubs' athletes are reported as not found.
func (s *InscriptionService) GetInscriptionFor(ctx context.Context, actor Actor, id string) (*domain.Inscription, error) {
	ins, err := s.GetInscription(ctx, id)
	if err != nil || actor.IsAdmin() {
		return ins, err
	}
	athlete, err := s.athletes.GetByID(ctx, ins.AthleteID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if athlete == nil || !actor.CanActFor(athlete) {
		return nil, apperrors.NewNotFound("inscription", map[string]any{"id": id})
	}
	return ins, nil
}

func (s *InscriptionService) load(ctx context.Context, athleteID, convocatoriaID string) (*domain.Athlete, *domain.Convocatoria, error) {
	conv, err := s.events.GetConvocatoria(ctx, convocatoriaID)
	if err != nil {
		return nil, nil, notFoundOr(err, "convocatoria", convocatoriaID)
	}
	athlete, err := s.athletes.GetByID(ctx, athleteID)
	if err != nil {
		return nil, nil, notFoundOr(err, "athlete", athleteID)
	}
	return athlete, conv, nil
}

func (s *InscriptionService) asOf(actor Actor, requested *time.Time) time.Time {
	if requested != nil && actor.IsAdmin() {
		return domain.DateOf(*requested)
	}
	return s.clock.Today()
}
