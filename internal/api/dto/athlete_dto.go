package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ivd-portal/inscription-service/internal/domain"
	"github.com/ivd-portal/inscription-service/internal/service"
)

// CreateAthleteRequest payload. ClubID is ignored for club accounts, which
// always register into their own club.
type CreateAthleteRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	BirthDate string  `json:"birth_date"`
	Gender    string  `json:"gender"`
	ClubID    *string `json:"club_id"`
}

// Validate implements validation.Validatable.
func (r CreateAthleteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.LastName, validation.Length(0, 100)),
		validation.Field(&r.BirthDate, validation.Required, dateRule),
		validation.Field(&r.Gender, validation.Required, validation.In(validGenders...)),
	)
}

// ToInput converts a validated request into service input.
func (r CreateAthleteRequest) ToInput() service.AthleteInput {
	return service.AthleteInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		BirthDate: mustParseDate(r.BirthDate),
		Gender:    domain.Gender(r.Gender),
		ClubID:    r.ClubID,
	}
}

// AthleteResponse represents an athlete.
type AthleteResponse struct {
	ID          string        `json:"id"`
	FirstName   string        `json:"first_name"`
	LastName    string        `json:"last_name"`
	BirthDate   string        `json:"birth_date"`
	Gender      domain.Gender `json:"gender"`
	ClubID      *string       `json:"club_id"`
	Independent bool          `json:"independent"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewAthleteResponse maps an athlete.
func NewAthleteResponse(a *domain.Athlete) AthleteResponse {
	resp := AthleteResponse{
		ID:          a.ID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		BirthDate:   formatDate(a.BirthDate),
		Gender:      a.Gender,
		Independent: a.Affiliation.IsIndependent(),
		CreatedAt:   a.CreatedAt,
	}
	if clubID, ok := a.Affiliation.ClubID(); ok {
		resp.ClubID = &clubID
	}
	return resp
}
