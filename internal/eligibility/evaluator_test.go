package eligibility_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivd-portal/inscription-service/internal/domain"
	"github.com/ivd-portal/inscription-service/internal/eligibility"
	apperrors "github.com/ivd-portal/inscription-service/pkg/util/errorutil"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func sub18(t *testing.T) domain.Convocatoria {
	return domain.Convocatoria{
		ID:           "conv-1",
		EventID:      "event-1",
		Discipline:   "atletismo",
		Category:     "Sub-18",
		AgeMin:       16,
		AgeMax:       17,
		GenderFilter: domain.GenderFilterMixed,
		EventStatus:  domain.EventStatusActive,
		ClosingDate:  date(t, "2024-12-31"),
	}
}

func TestAgeAt(t *testing.T) {
	tests := []struct {
		birth string
		asOf  string
		want  int
	}{
		{"2008-06-15", "2024-06-14", 15},
		{"2008-06-15", "2024-06-15", 16},
		{"2008-06-15", "2024-12-31", 16},
		{"2008-02-29", "2025-02-28", 16},
		{"2008-02-29", "2025-03-01", 17},
		{"2008-02-29", "2024-02-29", 16},
	}
	for _, tt := range tests {
		t.Run(tt.birth+"@"+tt.asOf, func(t *testing.T) {
			assert.Equal(t, tt.want, eligibility.AgeAt(date(t, tt.birth), date(t, tt.asOf)))
		})
	}
}

func TestEvaluator_Sub18Scenario(t *testing.T) {
	ev := eligibility.NewEvaluator()
	athlete := domain.Athlete{ID: "a-1", BirthDate: date(t, "2008-06-15"), Gender: domain.GenderFemale}
	conv := sub18(t)

	assert.Equal(t, domain.TooYoung, ev.Evaluate(athlete, conv, date(t, "2024-06-14")))
	assert.Equal(t, domain.Eligible, ev.Evaluate(athlete, conv, date(t, "2024-06-15")))
}

func TestEvaluator_AgeBoundaries(t *testing.T) {
	ev := eligibility.NewEvaluator()
	conv := sub18(t)
	asOf := date(t, "2024-06-01")

	atAge := func(age int) domain.Athlete {
		return domain.Athlete{BirthDate: asOf.AddDate(-age, 0, 0), Gender: domain.GenderMale}
	}

	assert.Equal(t, domain.TooYoung, ev.Evaluate(atAge(conv.AgeMin-1), conv, asOf))
	assert.Equal(t, domain.Eligible, ev.Evaluate(atAge(conv.AgeMin), conv, asOf))
	assert.Equal(t, domain.Eligible, ev.Evaluate(atAge(conv.AgeMax), conv, asOf))
	assert.Equal(t, domain.TooOld, ev.Evaluate(atAge(conv.AgeMax+1), conv, asOf))
}

func TestEvaluator_Gender(t *testing.T) {
	ev := eligibility.NewEvaluator()
	asOf := date(t, "2024-06-15")
	male := domain.Athlete{BirthDate: date(t, "2008-01-01"), Gender: domain.GenderMale}
	female := domain.Athlete{BirthDate: date(t, "2008-01-01"), Gender: domain.GenderFemale}

	mixed := sub18(t)
	assert.Equal(t, domain.Eligible, ev.Evaluate(male, mixed, asOf))
	assert.Equal(t, domain.Eligible, ev.Evaluate(female, mixed, asOf))

	femaleOnly := sub18(t)
	femaleOnly.GenderFilter = domain.GenderFilterFemale
	assert.Equal(t, domain.GenderMismatch, ev.Evaluate(male, femaleOnly, asOf))
	assert.Equal(t, domain.Eligible, ev.Evaluate(female, femaleOnly, asOf))
}

func TestEvaluator_Closed(t *testing.T) {
	ev := eligibility.NewEvaluator()
	athlete := domain.Athlete{BirthDate: date(t, "2008-01-01"), Gender: domain.GenderMale}

	t.Run("closing day is inclusive", func(t *testing.T) {
		conv := sub18(t)
		closing := conv.ClosingDate.Add(23 * time.Hour)
		assert.Equal(t, domain.Eligible, ev.Evaluate(athlete, conv, closing))
	})

	t.Run("day after closing", func(t *testing.T) {
		conv := sub18(t)
		assert.Equal(t, domain.ConvocatoriaClosed, ev.Evaluate(athlete, conv, date(t, "2025-01-01")))
	})

	for _, status := range []domain.EventStatus{domain.EventStatusCancelled, domain.EventStatusFinished} {
		t.Run(string(status), func(t *testing.T) {
			conv := sub18(t)
			conv.EventStatus = status
			assert.Equal(t, domain.ConvocatoriaClosed, ev.Evaluate(athlete, conv, date(t, "2024-06-15")))
		})
	}

	t.Run("pending events accept inscriptions", func(t *testing.T) {
		conv := sub18(t)
		conv.EventStatus = domain.EventStatusPending
		assert.Equal(t, domain.Eligible, ev.Evaluate(athlete, conv, date(t, "2024-06-15")))
	})
}

func TestEvaluator_FirstFailingCheckWins(t *testing.T) {
	ev := eligibility.NewEvaluator()
	conv := sub18(t)
	conv.GenderFilter = domain.GenderFilterFemale
	conv.EventStatus = domain.EventStatusCancelled

	tooYoungMale := domain.Athlete{BirthDate: date(t, "2012-01-01"), Gender: domain.GenderMale}
	assert.Equal(t, domain.TooYoung, ev.Evaluate(tooYoungMale, conv, date(t, "2024-06-15")))

	rightAgeMale := domain.Athlete{BirthDate: date(t, "2008-01-01"), Gender: domain.GenderMale}
	assert.Equal(t, domain.GenderMismatch, ev.Evaluate(rightAgeMale, conv, date(t, "2024-06-15")))
}

func TestResultError(t *testing.T) {
	conv := sub18(t)
	athlete := domain.Athlete{ID: "a-1", BirthDate: date(t, "2010-01-01"), Gender: domain.GenderMale}
	asOf := date(t, "2024-06-15")

	assert.NoError(t, eligibility.ResultError(domain.Eligible, athlete, conv, asOf))

	err := eligibility.ResultError(domain.TooYoung, athlete, conv, asOf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTooYoung))
	assert.False(t, errors.Is(err, apperrors.ErrTooOld))

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, 14, domainErr.Details["age"])
	assert.Equal(t, "TOO_YOUNG", domainErr.Details["result"])

	assert.True(t, errors.Is(eligibility.ResultError(domain.TooOld, athlete, conv, asOf), apperrors.ErrTooOld))
	assert.True(t, errors.Is(eligibility.ResultError(domain.GenderMismatch, athlete, conv, asOf), apperrors.ErrGenderMismatch))
	assert.True(t, errors.Is(eligibility.ResultError(domain.ConvocatoriaClosed, athlete, conv, asOf), apperrors.ErrConvocatoriaClosed))
}

func TestEvaluator_ExistingInscriptionAfterEdits(t *testing.T) {
	ev := eligibility.NewEvaluator()
	athlete := domain.Athlete{BirthDate: date(t, "2008-06-15"), Gender: domain.GenderMale}

	t.Run("tightened bounds", func(t *testing.T) {
		conv := sub18(t)
		conv.AgeMin, conv.AgeMax = 18, 19
		assert.Equal(t, domain.TooYoung, ev.Evaluate(athlete, conv, date(t, "2024-08-01")))
	})

	t.Run("judged after the closing date", func(t *testing.T) {
		conv := sub18(t)
		conv.ClosingDate = date(t, "2024-07-15")
		assert.Equal(t, domain.ConvocatoriaClosed, ev.Evaluate(athlete, conv, date(t, "2024-09-01")))
	})

	t.Run("finished and cancelled events", func(t *testing.T) {
		asOf := date(t, "2024-07-01")
		for _, status := range []domain.EventStatus{domain.EventStatusFinished, domain.EventStatusCancelled} {
			conv := sub18(t)
			conv.ClosingDate = date(t, "2024-07-15")
			conv.EventStatus = status
			assert.Equal(t, domain.ConvocatoriaClosed, ev.Evaluate(athlete, conv, asOf), status)
		}
	})
}
