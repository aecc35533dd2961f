package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivd-portal/inscription-service/internal/domain"
	"github.com/ivd-portal/inscription-service/internal/eligibility"
	"github.com/ivd-portal/inscription-service/internal/events"
	"github.com/ivd-portal/inscription-service/internal/observability"
	"github.com/ivd-portal/inscription-service/internal/repository"
)

const defaultReconcileConcurrency = 8

// ReconcileOutcome is the fresh verdict for one inscription.
type ReconcileOutcome struct {
	InscriptionID string                   `json:"inscription_id"`
	Result        domain.EligibilityResult `json:"result"`
	Flagged       bool                     `json:"flagged_for_review"`
	Changed       bool                     `json:"changed"`
}

// ReconcilerService re-checks existing inscriptions after rule edits. It only
// sets or clears review flags; it never deletes and never touches validation.
type ReconcilerService struct {
	athletes     repository.AthleteRepository
	events       repository.EventRepository
	inscriptions repository.InscriptionRepository
	evaluator    *eligibility.Evaluator
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
	clock        Clock
	concurrency  int
}

// ReconcilerDependencies bundles collaborators for the reconciler.
type ReconcilerDependencies struct {
	AthleteRepo     repository.AthleteRepository
	EventRepo       repository.EventRepository
	InscriptionRepo repository.InscriptionRepository
	Evaluator       *eligibility.Evaluator
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
	Clock           Clock
	Concurrency     int
}

// NewReconcilerService constructs the service.
func NewReconcilerService(deps ReconcilerDependencies) *ReconcilerService {
	evaluator := deps.Evaluator
	if evaluator == nil {
		evaluator = eligibility.NewEvaluator()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = defaultReconcileConcurrency
	}
	return &ReconcilerService{
		athletes:     deps.AthleteRepo,
		events:       deps.EventRepo,
		inscriptions: deps.InscriptionRepo,
		evaluator:    evaluator,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       logger,
		clock:        deps.Clock,
		concurrency:  concurrency,
	}
}

// Reconcile re-evaluates every inscription of a convocatoria as of asOf and
// persists the flag changes in one batch. Rules and ledger are read under the
// convocatoria's review lock, so the last reconcile to finish reflects the
// latest committed rules. Outcomes follow ledger order.
func (s *ReconcilerService) Reconcile(ctx context.Context, convocatoriaID string, asOf time.Time) ([]ReconcileOutcome, error) {
	var (
		outcomes []ReconcileOutcome
		changes  []domain.ReviewFlag
		ledger   []domain.Inscription
		flagged  map[domain.EligibilityResult]int
		cleared  int
	)
	err := s.inscriptions.ReviewConvocatoria(ctx, convocatoriaID, func(ctx context.Context, current []domain.Inscription) ([]domain.ReviewFlag, error) {
		conv, err := s.events.GetConvocatoria(ctx, convocatoriaID)
		if err != nil {
			return nil, err
		}
		athletes, err := s.loadAthletes(ctx, current)
		if err != nil {
			return nil, err
		}

		ledger = current
		outcomes = make([]ReconcileOutcome, 0, len(current))
		changes = nil
		flagged = map[domain.EligibilityResult]int{}
		cleared = 0
		now := s.clock.Now().UTC()

		for _, ins := range current {
			result := s.evaluator.Evaluate(*athletes[ins.AthleteID], *conv, asOf)
			flag := !result.IsEligible()
			changed := flag != ins.FlaggedForReview ||
				(flag && (ins.ReviewReason == nil || *ins.ReviewReason != result))

			outcomes = append(outcomes, ReconcileOutcome{
				InscriptionID: ins.ID,
				Result:        result,
				Flagged:       flag,
				Changed:       changed,
			})
			if !changed {
				continue
			}

			change := domain.ReviewFlag{InscriptionID: ins.ID, Flagged: flag, At: now}
			if flag {
				reason := result
				change.Reason = &reason
				flagged[result]++
			} else {
				cleared++
			}
			changes = append(changes, change)
		}
		return changes, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundOr(err, "convocatoria", convocatoriaID)
		}
		return nil, fmt.Errorf("reconcile convocatoria %s: %w", convocatoriaID, err)
	}

	s.metrics.RecordReconcile(len(ledger), flagged, cleared)
	s.logger.Info("convocatoria reconciled",
		zap.String("convocatoria_id", convocatoriaID),
		zap.Time("as_of", domain.DateOf(asOf)),
		zap.Int("evaluated", len(ledger)),
		zap.Int("changed", len(changes)))

	s.publishChanges(ctx, convocatoriaID, ledger, changes)
	return outcomes, nil
}

// ReconcileEvent reconciles every convocatoria of an event, keyed by convocatoria ID.
func (s *ReconcilerService) ReconcileEvent(ctx context.Context, eventID string, asOf time.Time) (map[string][]ReconcileOutcome, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, notFoundOr(err, "event", eventID)
	}
	result := make(map[string][]ReconcileOutcome, len(event.Convocatorias))
	for _, conv := range event.Convocatorias {
		outcomes, err := s.Reconcile(ctx, conv.ID, asOf)
		if err != nil {
			return nil, err
		}
		result[conv.ID] = outcomes
	}
	return result, nil
}

func (s *ReconcilerService) loadAthletes(ctx context.Context, ledger []domain.Inscription) (map[string]*domain.Athlete, error) {
	seen := make(map[string]struct{}, len(ledger))
	ids := make([]string, 0, len(ledger))
	for _, ins := range ledger {
		if _, ok := seen[ins.AthleteID]; ok {
			continue
		}
		seen[ins.AthleteID] = struct{}{}
		ids = append(ids, ins.AthleteID)
	}

	var (
		mu       sync.Mutex
		athletes = make(map[string]*domain.Athlete, len(ids))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			athlete, err := s.athletes.GetByID(gctx, id)
			if err != nil {
				return notFoundOr(err, "athlete", id)
			}
			mu.Lock()
			athletes[id] = athlete
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return athletes, nil
}

func (s *ReconcilerService) publishChanges(ctx context.Context, convocatoriaID string, ledger []domain.Inscription, changes []domain.ReviewFlag) {
	athleteOf := make(map[string]string, len(ledger))
	for _, ins := range ledger {
		athleteOf[ins.ID] = ins.AthleteID
	}
	for _, change := range changes {
		eventType := events.EventInscriptionUnflagged
		if change.Flagged {
			eventType = events.EventInscriptionFlagged
		}
		publishEvent(ctx, s.dispatcher, s.logger, s.clock, events.Event{
			Type:           eventType,
			InscriptionID:  change.InscriptionID,
			ConvocatoriaID: convocatoriaID,
			Timestamp:      change.At,
			Payload: events.InscriptionReviewPayload{
				AthleteID: athleteOf[change.InscriptionID],
				Reason:    change.Reason,
			},
		})
	}
}
