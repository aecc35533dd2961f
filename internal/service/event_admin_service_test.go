package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivd-portal/inscription-service/internal/domain"
	"github.com/ivd-portal/inscription-service/internal/service"
	apperrors "github.com/ivd-portal/inscription-service/pkg/util/errorutil"
)

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-06-20")

	base := func() service.EventInput {
		return service.EventInput{
			Title:       "Copa Veracruz",
			Date:        mustDate(t, "2024-09-01"),
			ClosingDate: mustDate(t, "2024-08-15"),
			Convocatorias: []service.ConvocatoriaInput{
				{Discipline: "Natación", Category: "Libre", GenderFilter: domain.GenderFilterFemale},
				{Discipline: "Natación", Category: "sub-16", AgeMin: intPtr(13), AgeMax: intPtr(15)},
			},
		}
	}

	t.Run("defaults come from the catalog", func(t *testing.T) {
		event, err := f.admin.CreateEvent(ctx, base())
		require.NoError(t, err)
		assert.Equal(t, domain.EventStatusPending, event.Status)
		require.Len(t, event.Convocatorias, 2)

		libre := event.Convocatorias[0]
		assert.Equal(t, 18, libre.AgeMin)
		assert.Equal(t, 100, libre.AgeMax)
		assert.Equal(t, 0, libre.Position)

		sub16 := event.Convocatorias[1]
		assert.Equal(t, "Sub-16", sub16.Category)
		assert.Equal(t, 13, sub16.AgeMin)
		assert.Equal(t, domain.GenderFilterMixed, sub16.GenderFilter)

		stored, err := f.admin.GetConvocatoria(ctx, sub16.ID)
		require.NoError(t, err)
		assert.Equal(t, event.ID, stored.EventID)
	})

	t.Run("invalid bounds are rejected at definition time", func(t *testing.T) {
		input := base()
		input.Convocatorias[1].AgeMin = intPtr(18)
		input.Convocatorias[1].AgeMax = intPtr(15)
		_, err := f.admin.CreateEvent(ctx, input)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidCategoryBounds))

		var domainErr *apperrors.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, 1, domainErr.Details["index"])
	})

	t.Run("unknown category", func(t *testing.T) {
		input := base()
		input.Convocatorias[0].Category = "Sub-99"
		_, err := f.admin.CreateEvent(ctx, input)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("closing date after event date", func(t *testing.T) {
		input := base()
		input.ClosingDate = mustDate(t, "2024-09-02")
		_, err := f.admin.CreateEvent(ctx, input)
		var domainErr *apperrors.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
	})
}

func TestUpdateConvocatoria_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-06-20")
	_, convID := f.createSub18Event(t, "2024-07-01")

	_, _, err := f.admin.UpdateConvocatoria(ctx, convID, service.ConvocatoriaPatch{AgeMin: intPtr(11)})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCategoryBounds))

	_, _, err = f.admin.UpdateConvocatoria(ctx, convID, service.ConvocatoriaPatch{AgeMax: intPtr(101)})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidCategoryBounds))

	stored, err := f.admin.GetConvocatoria(ctx, convID)
	require.NoError(t, err)
	assert.Equal(t, 16, stored.AgeMin)
	assert.Equal(t, 17, stored.AgeMax)

	conv, outcomes, err := f.admin.UpdateConvocatoria(ctx, convID, service.ConvocatoriaPatch{Discipline: strPtr("Marcha")})
	require.NoError(t, err)
	assert.Equal(t, "Marcha", conv.Discipline)
	assert.Nil(t, outcomes)

	_, _, err = f.admin.UpdateConvocatoria(ctx, "missing", service.ConvocatoriaPatch{})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestListEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-06-20")
	f.createSub18Event(t, "2024-07-01")

	active, err := f.admin.ListEvents(ctx, []domain.EventStatus{domain.EventStatusActive}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	finished, err := f.admin.ListEvents(ctx, []domain.EventStatus{domain.EventStatusFinished}, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, finished)

	_, err = f.admin.ListEvents(ctx, []domain.EventStatus{"archivado"}, 0, 0)
	assert.Error(t, err)

	assert.Len(t, f.admin.Categories(), 7)
}
