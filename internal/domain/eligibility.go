package domain

// EligibilityResult is the outcome of evaluating an athlete against a convocatoria.
type EligibilityResult string

const (
	Eligible           EligibilityResult = "ELIGIBLE"
	TooYoung           EligibilityResult = "TOO_YOUNG"
	TooOld             EligibilityResult = "TOO_OLD"
	GenderMismatch     EligibilityResult = "GENDER_MISMATCH"
	ConvocatoriaClosed EligibilityResult = "CONVOCATORIA_CLOSED"
)

// IsEligible reports whether the result admits the athlete.
func (r EligibilityResult) IsEligible() bool {
	return r == Eligible
}
