package eligibility

import (
	"time"

	"github.com/ivd-portal/inscription-service/internal/domain"
	apperrors "github.com/ivd-portal/inscription-service/pkg/util/errorutil"
)

// Evaluator decides whether an athlete may enter a convocatoria.
// It is a pure function of its inputs.
type Evaluator struct{}

// NewEvaluator returns an Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// AgeAt returns whole years elapsed between birth and asOf.
func AgeAt(birth, asOf time.Time) int {
	age := asOf.Year() - birth.Year()
	if asOf.Month() < birth.Month() || (asOf.Month() == birth.Month() && asOf.Day() < birth.Day()) {
		age--
	}
	return age
}

// Evaluate checks age bounds, gender filter and open status, in that order,
// and reports the first failing check.
func (e *Evaluator) Evaluate(athlete domain.Athlete, conv domain.Convocatoria, asOf time.Time) domain.EligibilityResult {
	asOf = domain.DateOf(asOf)
	if result := checkAthlete(athlete, conv, asOf); result != domain.Eligible {
		return result
	}
	if conv.EventStatus.Closed() || asOf.After(domain.DateOf(conv.ClosingDate)) {
		return domain.ConvocatoriaClosed
	}
	return domain.Eligible
}

func checkAthlete(athlete domain.Athlete, conv domain.Convocatoria, asOf time.Time) domain.EligibilityResult {
	age := AgeAt(domain.DateOf(athlete.BirthDate), asOf)
	switch {
	case age < conv.AgeMin:
		return domain.TooYoung
	case age > conv.AgeMax:
		return domain.TooOld
	case !conv.GenderFilter.Admits(athlete.Gender):
		return domain.GenderMismatch
	}
	return domain.Eligible
}

// ResultError converts a non-eligible result into the matching domain error,
// with details describing why. It returns nil for Eligible.
func ResultError(result domain.EligibilityResult, athlete domain.Athlete, conv domain.Convocatoria, asOf time.Time) error {
	details := map[string]any{
		"result":          string(result),
		"athlete_id":      athlete.ID,
		"convocatoria_id": conv.ID,
	}
	switch result {
	case domain.Eligible:
		return nil
	case domain.TooYoung, domain.TooOld:
		details["age"] = AgeAt(domain.DateOf(athlete.BirthDate), domain.DateOf(asOf))
		details["age_min"] = conv.AgeMin
		details["age_max"] = conv.AgeMax
		if result == domain.TooYoung {
			return apperrors.ErrTooYoung.WithDetails(details)
		}
		return apperrors.ErrTooOld.WithDetails(details)
	case domain.GenderMismatch:
		details["gender"] = string(athlete.Gender)
		details["gender_filter"] = string(conv.GenderFilter)
		return apperrors.ErrGenderMismatch.WithDetails(details)
	default:
		details["event_status"] = string(conv.EventStatus)
		details["closing_date"] = domain.DateOf(conv.ClosingDate).Format(domain.DateLayout)
		return apperrors.ErrConvocatoriaClosed.WithDetails(details)
	}
}
