package service

import (
	"context"
	"strings"
	"time"

	"github.com/ivd-portal/inscription-service/internal/domain"
	"github.com/ivd-portal/inscription-service/internal/repository"
	apperrors "github.com/ivd-portal/inscription-service/pkg/util/errorutil"
)

// AthleteService fronts the athlete directory for admins and clubs.
type AthleteService struct {
	athletes repository.AthleteRepository
}

// AthleteInput describes a new athlete. A nil ClubID registers an independent athlete.
type AthleteInput struct {
	FirstName string
	LastName  string
	BirthDate time.Time
	Gender    domain.Gender
	ClubID    *string
}

// NewAthleteService constructs the service.
func NewAthleteService(athletes repository.AthleteRepository) *AthleteService {
	return &AthleteService{athletes: athletes}
}

// CreateAthlete adds an athlete. Clubs may only add athletes to their own club.
func (s *AthleteService) CreateAthlete(ctx context.Context, actor Actor, input AthleteInput) (*domain.Athlete, error) {
	if !input.Gender.Valid() {
		return nil, apperrors.NewValidationError("invalid gender", map[string]any{"gender": input.Gender})
	}
	if input.BirthDate.IsZero() {
		return nil, apperrors.NewValidationError("birth_date is required", nil)
	}

	affiliation := domain.Independent()
	switch actor.Role {
	case domain.RoleAdmin:
		if input.ClubID != nil && strings.TrimSpace(*input.ClubID) != "" {
			affiliation = domain.ClubAffiliation(strings.TrimSpace(*input.ClubID))
		}
	case domain.RoleClub:
		if actor.ClubID == nil {
			return nil, apperrors.NewForbidden("club account without club")
		}
		if input.ClubID != nil && *input.ClubID != *actor.ClubID {
			return nil, apperrors.NewForbidden("clubs may only register their own athletes")
		}
		affiliation = domain.ClubAffiliation(*actor.ClubID)
	default:
		return nil, apperrors.NewForbidden("admin or club role required")
	}

	athlete := &domain.Athlete{
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		BirthDate:   domain.DateOf(input.BirthDate),
		Gender:      input.Gender,
		Affiliation: affiliation,
	}
	if err := s.athletes.Create(ctx, athlete); err != nil {
		return nil, err
	}
	return athlete, nil
}

// GetAthlete fetches an athlete the actor may see.
func (s *AthleteService) GetAthlete(ctx context.Context, actor Actor, id string) (*domain.Athlete, error) {
	athlete, err := s.athletes.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "athlete", id)
	}
	if !actor.CanActFor(athlete) {
		return nil, apperrors.NewNotFound("athlete", map[string]any{"id": id})
	}
	return athlete, nil
}

// ListClubAthletes lists a club's athletes. Clubs only see their own.
func (s *AthleteService) ListClubAthletes(ctx context.Context, actor Actor, clubID string) ([]domain.Athlete, error) {
	if actor.Role == domain.RoleClub {
		if actor.ClubID == nil || *actor.ClubID != clubID {
			return nil, apperrors.NewForbidden("clubs may only list their own athletes")
		}
	} else if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin or club role required")
	}
	list, err := s.athletes.ListByClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Athlete{}
	}
	return list, nil
}
