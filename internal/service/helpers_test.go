package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ivd-portal/inscription-service/internal/domain"
	"github.com/ivd-portal/inscription-service/internal/events"
	"github.com/ivd-portal/inscription-service/internal/repository"
	"github.com/ivd-portal/inscription-service/internal/service"
)

type fixture struct {
	store        *repository.MemoryStore
	clock        service.Clock
	now          *time.Time
	recorder     *eventRecorder
	inscriptions *service.InscriptionService
	reconciler   *service.ReconcilerService
	admin        *service.EventAdminService
	athletes     *service.AthleteService
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) handle(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) ofType(eventType events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newFixture(t *testing.T, today string) *fixture {
	t.Helper()
	now := mustDate(t, today).Add(12 * time.Hour)
	f := &fixture{
		store:    repository.NewMemoryStore(),
		now:      &now,
		recorder: &eventRecorder{},
	}
	f.clock = service.NewClock(time.UTC, func() time.Time { return *f.now })

	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.SubscribeAll(f.recorder.handle)

	f.inscriptions = service.NewInscriptionService(service.InscriptionDependencies{
		AthleteRepo:     f.store.Athletes(),
		EventRepo:       f.store.Events(),
		InscriptionRepo: f.store.Inscriptions(),
		Dispatcher:      dispatcher,
		Clock:           f.clock,
	})
	f.reconciler = service.NewReconcilerService(service.ReconcilerDependencies{
		AthleteRepo:     f.store.Athletes(),
		EventRepo:       f.store.Events(),
		InscriptionRepo: f.store.Inscriptions(),
		Dispatcher:      dispatcher,
		Clock:           f.clock,
		Concurrency:     2,
	})
	f.admin = service.NewEventAdminService(service.EventAdminDependencies{
		EventRepo:  f.store.Events(),
		Reconciler: f.reconciler,
		Dispatcher: dispatcher,
		Clock:      f.clock,
	})
	f.athletes = service.NewAthleteService(f.store.Athletes())
	return f
}

func (f *fixture) advanceTo(t *testing.T, day string) {
	t.Helper()
	next := mustDate(t, day).Add(12 * time.Hour)
	*f.now = next
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func adminActor() service.Actor {
	return service.Actor{AccountID: "admin-1", Role: domain.RoleAdmin}
}

func clubActor(clubID string) service.Actor {
	return service.Actor{AccountID: "club-account-" + clubID, Role: domain.RoleClub, ClubID: &clubID}
}

func athleteActor(athleteID string) service.Actor {
	return service.Actor{AccountID: "athlete-account-" + athleteID, Role: domain.RoleAthlete, AthleteID: &athleteID}
}

// createSub18Event stores an active event with a mixed Sub-18 convocatoria
// closing on closing.
func (f *fixture) createSub18Event(t *testing.T, closing string) (*domain.Event, string) {
	t.Helper()
	event, err := f.admin.CreateEvent(context.Background(), service.EventInput{
		Title:       "Campeonato Estatal Juvenil",
		Location:    "Xalapa",
		Date:        mustDate(t, "2024-12-31"),
		ClosingDate: mustDate(t, closing),
		Status:      domain.EventStatusActive,
		Convocatorias: []service.ConvocatoriaInput{
			{Discipline: "Atletismo", Category: "Sub-18"},
		},
	})
	require.NoError(t, err)
	return event, event.Convocatorias[0].ID
}

func (f *fixture) createAthlete(t *testing.T, birth string, gender domain.Gender, clubID *string) *domain.Athlete {
	t.Helper()
	athlete, err := f.athletes.CreateAthlete(context.Background(), adminActor(), service.AthleteInput{
		FirstName: "Ana",
		LastName:  "Pérez",
		BirthDate: mustDate(t, birth),
		Gender:    gender,
		ClubID:    clubID,
	})
	require.NoError(t, err)
	return athlete
}
