package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/ivd-portal/inscription-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements validation.Validatable.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

// AccountResponse represents the logged-in account.
type AccountResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	ClubID    *string     `json:"club_id,omitempty"`
	AthleteID *string     `json:"athlete_id,omitempty"`
}

// AuthResponse carries an access token.
type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   AccountResponse `json:"account"`
}

// NewAuthResponse maps a login result.
func NewAuthResponse(account *domain.Account, token string, expiresAt time.Time) AuthResponse {
	return AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Account: AccountResponse{
			ID:        account.ID,
			Email:     account.Email,
			Role:      account.Role,
			ClubID:    account.ClubID,
			AthleteID: account.AthleteID,
		},
	}
}
