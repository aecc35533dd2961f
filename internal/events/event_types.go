package events

import (
	"time"

	"github.com/ivd-portal/inscription-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventInscriptionRegistered EventType = "inscription_registered"
	EventInscriptionValidated  EventType = "inscription_validated"
	EventInscriptionFlagged    EventType = "inscription_flagged"
	EventInscriptionUnflagged  EventType = "inscription_unflagged"
	EventConvocatoriaUpdated   EventType = "convocatoria_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	InscriptionID  string    `json:"inscription_id,omitempty"`
	ConvocatoriaID string    `json:"convocatoria_id"`
	ActorID        string    `json:"actor_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Payload        any       `json:"payload"`
}

// InscriptionRegisteredPayload payload.
type InscriptionRegisteredPayload struct {
	AthleteID string  `json:"athlete_id"`
	EventID   string  `json:"event_id"`
	ClubID    *string `json:"club_id,omitempty"`
}

// InscriptionValidatedPayload payload.
type InscriptionValidatedPayload struct {
	ValidatedBy string    `json:"validated_by"`
	ValidatedAt time.Time `json:"validated_at"`
}

// InscriptionReviewPayload is carried by flagged and unflagged events.
type InscriptionReviewPayload struct {
	AthleteID string                    `json:"athlete_id"`
	Reason    *domain.EligibilityResult `json:"reason,omitempty"`
}

// ConvocatoriaUpdatedPayload payload.
type ConvocatoriaUpdatedPayload struct {
	EventID      string              `json:"event_id"`
	AgeMin       int                 `json:"age_min"`
	AgeMax       int                 `json:"age_max"`
	GenderFilter domain.GenderFilter `json:"gender_filter"`
	EventStatus  domain.EventStatus  `json:"event_status"`
}
