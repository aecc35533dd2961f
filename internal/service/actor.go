package service

import (
	"net/http"

	"github.com/ivd-portal/inscription-service/internal/domain"
	apperrors "github.com/ivd-portal/inscription-service/pkg/util/errorutil"
)

// Actor is the authenticated caller as services see it.
type Actor struct {
	AccountID string
	Role      domain.Role
	ClubID    *string
	AthleteID *string
}

// ActorFromAccount builds an Actor for account.
func ActorFromAccount(account *domain.Account) Actor {
	return Actor{
		AccountID: account.ID,
		Role:      account.Role,
		ClubID:    account.ClubID,
		AthleteID: account.AthleteID,
	}
}

// SystemActor acts with admin rights on behalf of internal triggers.
func SystemActor() Actor {
	return Actor{AccountID: "system", Role: domain.RoleAdmin}
}

// IsAdmin reports whether the actor has unrestricted access.
func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

// CanActFor reports whether the actor may register or read on behalf of athlete.
func (a Actor) CanActFor(athlete *domain.Athlete) bool {
	switch a.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleClub:
		return a.ClubID != nil && athlete.Affiliation.BelongsTo(*a.ClubID)
	case domain.RoleAthlete:
		return a.AthleteID != nil && *a.AthleteID == athlete.ID
	}
	return false
}

func (a Actor) forbiddenFor(athleteID string) error {
	return apperrors.NewDomainError(apperrors.CodeForbidden, "not allowed to act for this athlete", http.StatusForbidden, map[string]any{
		"athlete_id": athleteID,
	})
}
