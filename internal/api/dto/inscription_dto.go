package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ivd-portal/inscription-service/internal/domain"
	"github.com/ivd-portal/inscription-service/internal/service"
)

// RegisterInscriptionRequest payload. AsOf is honoured for admins only.
type RegisterInscriptionRequest struct {
	AthleteID      string `json:"athlete_id"`
	ConvocatoriaID string `json:"convocatoria_id"`
	AsOf           string `json:"as_of"`
}

// Validate implements validation.Validatable.
func (r RegisterInscriptionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AthleteID, validation.Required),
		validation.Field(&r.ConvocatoriaID, validation.Required),
		validation.Field(&r.AsOf, dateRule),
	)
}

// InscriptionResponse represents an inscription.
type InscriptionResponse struct {
	ID               string                    `json:"id"`
	AthleteID        string                    `json:"athlete_id"`
	ConvocatoriaID   string                    `json:"convocatoria_id"`
	EventID          string                    `json:"event_id"`
	RegisteredAt     time.Time                 `json:"registered_at"`
	RegisteredBy     string                    `json:"registered_by"`
	Validated        bool                      `json:"validated"`
	ValidatedAt      *time.Time                `json:"validated_at"`
	ValidatedBy      *string                   `json:"validated_by"`
	FlaggedForReview bool                      `json:"flagged_for_review"`
	ReviewReason     *domain.EligibilityResult `json:"review_reason"`
	ReviewedAt       *time.Time                `json:"reviewed_at"`
}

// EligibilityResponse reports an eligibility verdict.
type EligibilityResponse struct {
	AthleteID      string                   `json:"athlete_id"`
	ConvocatoriaID string                   `json:"convocatoria_id"`
	AsOf           string                   `json:"as_of"`
	Result         domain.EligibilityResult `json:"result"`
	Eligible       bool                     `json:"eligible"`
}

// ReconcileResponse reports a reconciliation run.
type ReconcileResponse struct {
	ConvocatoriaID string                     `json:"convocatoria_id"`
	AsOf           string                     `json:"as_of"`
	Outcomes       []service.ReconcileOutcome `json:"outcomes"`
}

// NewInscriptionResponse maps an inscription.
func NewInscriptionResponse(i *domain.Inscription) InscriptionResponse {
	return InscriptionResponse{
		ID:               i.ID,
		AthleteID:        i.AthleteID,
		ConvocatoriaID:   i.ConvocatoriaID,
		EventID:          i.EventID,
		RegisteredAt:     i.RegisteredAt,
		RegisteredBy:     i.RegisteredBy,
		Validated:        i.Validated,
		ValidatedAt:      i.ValidatedAt,
		ValidatedBy:      i.ValidatedBy,
		FlaggedForReview: i.FlaggedForReview,
		ReviewReason:     i.ReviewReason,
		ReviewedAt:       i.ReviewedAt,
	}
}

// NewEligibilityResponse maps a verdict.
func NewEligibilityResponse(athleteID, convocatoriaID string, asOf time.Time, result domain.EligibilityResult) EligibilityResponse {
	return EligibilityResponse{
		AthleteID:      athleteID,
		ConvocatoriaID: convocatoriaID,
		AsOf:           formatDate(asOf),
		Result:         result,
		Eligible:       result.IsEligible(),
	}
}

// NewReconcileResponse maps a reconciliation run.
func NewReconcileResponse(convocatoriaID string, asOf time.Time, outcomes []service.ReconcileOutcome) ReconcileResponse {
	if outcomes == nil {
		outcomes = []service.ReconcileOutcome{}
	}
	return ReconcileResponse{ConvocatoriaID: convocatoriaID, AsOf: formatDate(asOf), Outcomes: outcomes}
}
