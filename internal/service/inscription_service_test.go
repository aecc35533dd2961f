package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivd-portal/inscription-service/internal/domain"
	"github.com/ivd-portal/inscription-service/internal/events"
	"github.com/ivd-portal/inscription-service/internal/service"
	apperrors "github.com/ivd-portal/inscription-service/pkg/util/errorutil"
)

func TestRegisterInscription(t *testing.T) {
	ctx := context.Background()

	t.Run("eligible athlete is registered unvalidated", func(t *testing.T) {
		f := newFixture(t, "2024-06-20")
		_, convID := f.createSub18Event(t, "2024-07-01")
		athlete := f.createAthlete(t, "2008-06-15", domain.GenderFemale, strPtr("club-1"))

		ins, err := f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
			AthleteID:      athlete.ID,
			ConvocatoriaID: convID,
			RequestedBy:    clubActor("club-1"),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, ins.ID)
		assert.False(t, ins.Validated)
		assert.Nil(t, ins.ValidatedAt)
		assert.Equal(t, "club-account-club-1", ins.RegisteredBy)

		registered := f.recorder.ofType(events.EventInscriptionRegistered)
		require.Len(t, registered, 1)
		payload := registered[0].Payload.(events.InscriptionRegisteredPayload)
		require.NotNil(t, payload.ClubID)
		assert.Equal(t, "club-1", *payload.ClubID)
	})

	t.Run("second registration of the same pair is a duplicate", func(t *testing.T) {
		f := newFixture(t, "2024-06-20")
		_, convID := f.createSub18Event(t, "2024-07-01")
		athlete := f.createAthlete(t, "2008-06-15", domain.GenderMale, nil)
		input := service.RegisterInput{AthleteID: athlete.ID, ConvocatoriaID: convID, RequestedBy: adminActor()}

		_, err := f.inscriptions.RegisterInscription(ctx, input)
		require.NoError(t, err)
		_, err = f.inscriptions.RegisterInscription(ctx, input)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrDuplicateInscription))

		list, err := f.inscriptions.ListInscriptions(ctx, service.InscriptionFilter{ConvocatoriaID: &convID})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("after the closing date the convocatoria is closed", func(t *testing.T) {
		f := newFixture(t, "2024-06-20")
		_, convID := f.createSub18Event(t, "2024-07-01")
		athlete := f.createAthlete(t, "2008-01-10", domain.GenderMale, nil)

		f.advanceTo(t, "2024-07-02")
		_, err := f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
			AthleteID: athlete.ID, ConvocatoriaID: convID, RequestedBy: adminActor(),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrConvocatoriaClosed))

		list, err := f.inscriptions.ListInscriptions(ctx, service.InscriptionFilter{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("closing day itself is open", func(t *testing.T) {
		f := newFixture(t, "2024-07-01")
		_, convID := f.createSub18Event(t, "2024-07-01")
		athlete := f.createAthlete(t, "2008-01-10", domain.GenderMale, nil)

		_, err := f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
			AthleteID: athlete.ID, ConvocatoriaID: convID, RequestedBy: adminActor(),
		})
		assert.NoError(t, err)
	})

	t.Run("ineligible athlete gets the precise reason", func(t *testing.T) {
		f := newFixture(t, "2024-06-14")
		_, convID := f.createSub18Event(t, "2024-07-01")
		athlete := f.createAthlete(t, "2008-06-15", domain.GenderMale, nil)

		_, err := f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
			AthleteID: athlete.ID, ConvocatoriaID: convID, RequestedBy: adminActor(),
		})
		require.Error(t, err)
		var domainErr *apperrors.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, apperrors.CodeTooYoung, domainErr.Code)
		assert.Equal(t, string(domain.TooYoung), domainErr.Details["result"])
		assert.Equal(t, 15, domainErr.Details["age"])
	})

	t.Run("as_of override is honoured for admins only", func(t *testing.T) {
		f := newFixture(t, "2024-06-14")
		_, convID := f.createSub18Event(t, "2024-07-01")
		athlete := f.createAthlete(t, "2008-06-15", domain.GenderMale, strPtr("club-1"))
		asOf := mustDate(t, "2024-06-15")

		_, err := f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
			AthleteID: athlete.ID, ConvocatoriaID: convID, AsOf: &asOf, RequestedBy: clubActor("club-1"),
		})
		assert.True(t, errors.Is(err, apperrors.ErrTooYoung))

		_, err = f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
			AthleteID: athlete.ID, ConvocatoriaID: convID, AsOf: &asOf, RequestedBy: adminActor(),
		})
		assert.NoError(t, err)
	})

	t.Run("clubs and athletes act only for their own", func(t *testing.T) {
		f := newFixture(t, "2024-06-20")
		_, convID := f.createSub18Event(t, "2024-07-01")
		athlete := f.createAthlete(t, "2008-01-10", domain.GenderMale, strPtr("club-1"))

		_, err := f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
			AthleteID: athlete.ID, ConvocatoriaID: convID, RequestedBy: clubActor("club-2"),
		})
		var domainErr *apperrors.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, apperrors.CodeForbidden, domainErr.Code)

		_, err = f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
			AthleteID: athlete.ID, ConvocatoriaID: convID, RequestedBy: athleteActor("someone-else"),
		})
		require.Error(t, err)

		_, err = f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
			AthleteID: athlete.ID, ConvocatoriaID: convID, RequestedBy: athleteActor(athlete.ID),
		})
		assert.NoError(t, err)
	})

	t.Run("unknown athlete or convocatoria is not found", func(t *testing.T) {
		f := newFixture(t, "2024-06-20")
		_, convID := f.createSub18Event(t, "2024-07-01")
		athlete := f.createAthlete(t, "2008-01-10", domain.GenderMale, nil)

		_, err := f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
			AthleteID: "missing", ConvocatoriaID: convID, RequestedBy: adminActor(),
		})
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))

		_, err = f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
			AthleteID: athlete.ID, ConvocatoriaID: "missing", RequestedBy: adminActor(),
		})
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})
}

func TestRegisterInscription_ConcurrentDoubleSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-06-20")
	_, convID := f.createSub18Event(t, "2024-07-01")
	athlete := f.createAthlete(t, "2008-01-10", domain.GenderFemale, nil)

	const callers = 20
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		ids   []string
		dupes int
		start = make(chan struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ins, err := f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
				AthleteID: athlete.ID, ConvocatoriaID: convID, RequestedBy: adminActor(),
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, apperrors.ErrDuplicateInscription) {
					dupes++
				}
				return
			}
			ids = append(ids, ins.ID)
		}()
	}
	close(start)
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, callers-1, dupes)
}

func TestValidateInscription(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-06-20")
	_, convID := f.createSub18Event(t, "2024-07-01")
	athlete := f.createAthlete(t, "2008-01-10", domain.GenderFemale, nil)
	ins, err := f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
		AthleteID: athlete.ID, ConvocatoriaID: convID, RequestedBy: adminActor(),
	})
	require.NoError(t, err)

	first, err := f.inscriptions.ValidateInscription(ctx, ins.ID, "admin-1")
	require.NoError(t, err)
	require.True(t, first.Validated)
	firstAt := *first.ValidatedAt

	*f.now = f.now.Add(time.Hour)
	second, err := f.inscriptions.ValidateInscription(ctx, ins.ID, "admin-2")
	require.NoError(t, err)
	assert.True(t, second.Validated)
	assert.Equal(t, firstAt, *second.ValidatedAt)
	assert.Equal(t, "admin-1", *second.ValidatedBy)
	assert.Len(t, f.recorder.ofType(events.EventInscriptionValidated), 1)

	_, err = f.inscriptions.ValidateInscription(ctx, "missing", "admin-1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestEvaluateEligibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-01-01")
	_, convID := f.createSub18Event(t, "2024-07-01")
	athlete := f.createAthlete(t, "2008-06-15", domain.GenderFemale, nil)

	result, err := f.inscriptions.EvaluateEligibility(ctx, athlete.ID, convID, mustDate(t, "2024-06-14"))
	require.NoError(t, err)
	assert.Equal(t, domain.TooYoung, result)

	result, err = f.inscriptions.EvaluateEligibility(ctx, athlete.ID, convID, mustDate(t, "2024-06-15"))
	require.NoError(t, err)
	assert.Equal(t, domain.Eligible, result)

	list, err := f.inscriptions.ListInscriptions(ctx, service.InscriptionFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	t.Run("non-admin override falls back to today", func(t *testing.T) {
		asOf := mustDate(t, "2024-06-15")
		result, date, err := f.inscriptions.EvaluateFor(ctx, athleteActor(athlete.ID), athlete.ID, convID, &asOf)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-01", date.Format(domain.DateLayout))
		assert.Equal(t, domain.TooYoung, result)
	})
}

func TestListInscriptionsFor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-06-20")
	event, convID := f.createSub18Event(t, "2024-07-01")

	clubAthlete := f.createAthlete(t, "2008-01-10", domain.GenderFemale, strPtr("club-1"))
	otherAthlete := f.createAthlete(t, "2008-02-10", domain.GenderMale, strPtr("club-2"))
	independent := f.createAthlete(t, "2008-03-10", domain.GenderMale, nil)

	var registered []*domain.Inscription
	for _, a := range []*domain.Athlete{clubAthlete, otherAthlete, independent} {
		ins, err := f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
			AthleteID: a.ID, ConvocatoriaID: convID, RequestedBy: adminActor(),
		})
		require.NoError(t, err)
		registered = append(registered, ins)
		*f.now = f.now.Add(time.Minute)
	}

	all, err := f.inscriptions.ListInscriptionsFor(ctx, adminActor(), service.InscriptionFilter{EventID: &event.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, registered[0].ID, all[0].ID)
	assert.Equal(t, registered[2].ID, all[2].ID)

	club, err := f.inscriptions.ListInscriptionsFor(ctx, clubActor("club-1"), service.InscriptionFilter{})
	require.NoError(t, err)
	require.Len(t, club, 1)
	assert.Equal(t, clubAthlete.ID, club[0].AthleteID)

	own, err := f.inscriptions.ListInscriptionsFor(ctx, athleteActor(independent.ID), service.InscriptionFilter{ClubID: strPtr("club-1")})
	require.NoError(t, err)
	assert.Empty(t, own)

	_, err = f.inscriptions.GetInscriptionFor(ctx, clubActor("club-2"), registered[0].ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	got, err := f.inscriptions.GetInscriptionFor(ctx, clubActor("club-1"), registered[0].ID)
	require.NoError(t, err)
	assert.Equal(t, registered[0].ID, got.ID)
}
