package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivd-portal/inscription-service/internal/domain"
	"github.com/ivd-portal/inscription-service/internal/events"
	"github.com/ivd-portal/inscription-service/internal/service"
	apperrors "github.com/ivd-portal/inscription-service/pkg/util/errorutil"
)

func TestReconcile_TightenedBoundsFlagWithoutDeleting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-06-20")
	_, convID := f.createSub18Event(t, "2024-07-01")
	athlete := f.createAthlete(t, "2008-06-15", domain.GenderFemale, nil)

	ins, err := f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
		AthleteID: athlete.ID, ConvocatoriaID: convID, RequestedBy: adminActor(),
	})
	require.NoError(t, err)
	_, err = f.inscriptions.ValidateInscription(ctx, ins.ID, "admin-1")
	require.NoError(t, err)

	conv, outcomes, err := f.admin.UpdateConvocatoria(ctx, convID, service.ConvocatoriaPatch{
		AgeMin: intPtr(18),
		AgeMax: intPtr(19),
	})
	require.NoError(t, err)
	assert.Equal(t, 18, conv.AgeMin)
	require.Len(t, outcomes, 1)
	assert.Equal(t, service.ReconcileOutcome{
		InscriptionID: ins.ID,
		Result:        domain.TooYoung,
		Flagged:       true,
		Changed:       true,
	}, outcomes[0])

	stored, err := f.inscriptions.GetInscription(ctx, ins.ID)
	require.NoError(t, err)
	assert.True(t, stored.FlaggedForReview)
	assert.Equal(t, domain.TooYoung, *stored.ReviewReason)
	assert.True(t, stored.Validated)

	flagged := f.recorder.ofType(events.EventInscriptionFlagged)
	require.Len(t, flagged, 1)
	assert.Equal(t, ins.ID, flagged[0].InscriptionID)

	t.Run("rerun without changes is a no-op", func(t *testing.T) {
		outcomes, err := f.reconciler.Reconcile(ctx, convID, f.clock.Today())
		require.NoError(t, err)
		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Flagged)
		assert.False(t, outcomes[0].Changed)
		assert.Len(t, f.recorder.ofType(events.EventInscriptionFlagged), 1)
	})

	t.Run("restoring the bounds clears the flag", func(t *testing.T) {
		_, outcomes, err := f.admin.UpdateConvocatoria(ctx, convID, service.ConvocatoriaPatch{
			AgeMin: intPtr(16),
			AgeMax: intPtr(17),
		})
		require.NoError(t, err)
		require.Len(t, outcomes, 1)
		assert.Equal(t, domain.Eligible, outcomes[0].Result)
		assert.True(t, outcomes[0].Changed)

		stored, err := f.inscriptions.GetInscription(ctx, ins.ID)
		require.NoError(t, err)
		assert.False(t, stored.FlaggedForReview)
		assert.Nil(t, stored.ReviewReason)
		assert.NotNil(t, stored.ReviewedAt)
		assert.True(t, stored.Validated)
		assert.Len(t, f.recorder.ofType(events.EventInscriptionUnflagged), 1)
	})
}

func TestReconcile_GenderFilterChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-06-20")
	_, convID := f.createSub18Event(t, "2024-07-01")
	male := f.createAthlete(t, "2008-01-10", domain.GenderMale, nil)
	female := f.createAthlete(t, "2008-01-10", domain.GenderFemale, nil)
	for _, a := range []*domain.Athlete{male, female} {
		_, err := f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
			AthleteID: a.ID, ConvocatoriaID: convID, RequestedBy: adminActor(),
		})
		require.NoError(t, err)
	}

	filter := domain.GenderFilterFemale
	_, outcomes, err := f.admin.UpdateConvocatoria(ctx, convID, service.ConvocatoriaPatch{GenderFilter: &filter})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	flagged, err := f.inscriptions.ListInscriptions(ctx, service.InscriptionFilter{FlaggedOnly: true})
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, male.ID, flagged[0].AthleteID)
	assert.Equal(t, domain.GenderMismatch, *flagged[0].ReviewReason)
}

func TestReconcile_EventChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-06-20")
	event, convID := f.createSub18Event(t, "2024-07-01")
	athlete := f.createAthlete(t, "2008-01-10", domain.GenderMale, nil)
	ins, err := f.inscriptions.RegisterInscription(ctx, service.RegisterInput{
		AthleteID: athlete.ID, ConvocatoriaID: convID, RequestedBy: adminActor(),
	})
	require.NoError(t, err)

	storedFlag := func(t *testing.T) (bool, *domain.EligibilityResult) {
		t.Helper()
		stored, err := f.inscriptions.GetInscription(ctx, ins.ID)
		require.NoError(t, err)
		return stored.FlaggedForReview, stored.ReviewReason
	}

	t.Run("reconciling after the closing date flags as closed", func(t *testing.T) {
		f.advanceTo(t, "2024-07-10")
		outcomes, err := f.reconciler.Reconcile(ctx, convID, f.clock.Today())
		require.NoError(t, err)
		require.Len(t, outcomes, 1)
		assert.Equal(t, domain.ConvocatoriaClosed, outcomes[0].Result)
		assert.True(t, outcomes[0].Changed)

		flagged, reason := storedFlag(t)
		assert.True(t, flagged)
		require.NotNil(t, reason)
		assert.Equal(t, domain.ConvocatoriaClosed, *reason)
	})

	t.Run("extending the closing date clears the flag", func(t *testing.T) {
		closing := mustDate(t, "2024-07-31")
		_, outcomes, err := f.admin.UpdateEvent(ctx, event.ID, service.EventPatch{ClosingDate: &closing})
		require.NoError(t, err)
		require.Contains(t, outcomes, convID)
		assert.Equal(t, domain.Eligible, outcomes[convID][0].Result)

		flagged, _ := storedFlag(t)
		assert.False(t, flagged)
	})

	t.Run("finishing the event flags it", func(t *testing.T) {
		status := domain.EventStatusFinished
		_, outcomes, err := f.admin.UpdateEvent(ctx, event.ID, service.EventPatch{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, domain.ConvocatoriaClosed, outcomes[convID][0].Result)

		flagged, _ := storedFlag(t)
		assert.True(t, flagged)
	})

	t.Run("cancelling the event keeps it flagged without deleting", func(t *testing.T) {
		status := domain.EventStatusCancelled
		_, outcomes, err := f.admin.UpdateEvent(ctx, event.ID, service.EventPatch{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, domain.ConvocatoriaClosed, outcomes[convID][0].Result)
		assert.False(t, outcomes[convID][0].Changed)

		list, err := f.inscriptions.ListInscriptions(ctx, service.InscriptionFilter{ConvocatoriaID: &convID})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.True(t, list[0].FlaggedForReview)
	})

	t.Run("title edits do not reconcile", func(t *testing.T) {
		_, outcomes, err := f.admin.UpdateEvent(ctx, event.ID, service.EventPatch{Title: strPtr("Campeonato Estatal 2024")})
		require.NoError(t, err)
		assert.Nil(t, outcomes)
	})
}

func TestReconcile_UnknownConvocatoria(t *testing.T) {
	f := newFixture(t, "2024-06-20")
	_, err := f.reconciler.Reconcile(context.Background(), "missing", f.clock.Today())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
