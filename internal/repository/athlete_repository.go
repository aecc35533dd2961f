package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivd-portal/inscription-service/internal/domain"
)

// AthleteRepository is the athlete directory the inscription core reads from.
type AthleteRepository interface {
	Create(ctx context.Context, athlete *domain.Athlete) error
	GetByID(ctx context.Context, id string) (*domain.Athlete, error)
	ListByClub(ctx context.Context, clubID string) ([]domain.Athlete, error)
}

type athleteRepository struct {
	pool *pgxpool.Pool
}

// NewAthleteRepository returns a Postgres-backed implementation.
func NewAthleteRepository(pool *pgxpool.Pool) AthleteRepository {
	return &athleteRepository{pool: pool}
}

func (r *athleteRepository) Create(ctx context.Context, athlete *domain.Athlete) error {
	const query = `
        INSERT INTO athletes (first_name, last_name, birth_date, gender, club_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	var clubID *string
	if id, ok := athlete.Affiliation.ClubID(); ok {
		clubID = &id
	}
	err := r.pool.QueryRow(ctx, query,
		athlete.FirstName,
		athlete.LastName,
		domain.DateOf(athlete.BirthDate),
		athlete.Gender,
		clubID,
	).Scan(&athlete.ID, &athlete.CreatedAt, &athlete.UpdatedAt)
	return translate(err)
}

func (r *athleteRepository) GetByID(ctx context.Context, id string) (*domain.Athlete, error) {
	const query = `
        SELECT id, first_name, last_name, birth_date, gender, club_id, created_at, updated_at
        FROM athletes WHERE id=$1`

	athlete, err := scanAthlete(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return athlete, nil
}

func (r *athleteRepository) ListByClub(ctx context.Context, clubID string) ([]domain.Athlete, error) {
	const query = `
        SELECT id, first_name, last_name, birth_date, gender, club_id, created_at, updated_at
        FROM athletes WHERE club_id=$1 ORDER BY last_name, first_name`

	rows, err := r.pool.Query(ctx, query, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Athlete
	for rows.Next() {
		athlete, err := scanAthlete(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *athlete)
	}
	return result, rows.Err()
}

func scanAthlete(row pgx.Row) (*domain.Athlete, error) {
	var (
		athlete domain.Athlete
		clubID  *string
	)
	if err := row.Scan(
		&athlete.ID,
		&athlete.FirstName,
		&athlete.LastName,
		&athlete.BirthDate,
		&athlete.Gender,
		&clubID,
		&athlete.CreatedAt,
		&athlete.UpdatedAt,
	); err != nil {
		return nil, err
	}
	athlete.BirthDate = domain.DateOf(athlete.BirthDate)
	if clubID != nil {
		athlete.Affiliation = domain.ClubAffiliation(*clubID)
	}
	return &athlete, nil
}
