package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivd-portal/inscription-service/internal/domain"
)

// EventFilter narrows event listings.
type EventFilter struct {
	Statuses []domain.EventStatus
	Limit    int
	Offset   int
}

// EventRepository is the event catalog: events and their convocatorias.
// GetConvocatoria must return the whole rule set from a single read.
type EventRepository interface {
	CreateEvent(ctx context.Context, event *domain.Event) error
	UpdateEvent(ctx context.Context, event *domain.Event) error
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]domain.Event, error)
	GetConvocatoria(ctx context.Context, id string) (*domain.Convocatoria, error)
	UpdateConvocatoria(ctx context.Context, conv *domain.Convocatoria) error
}

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository returns a Postgres-backed implementation.
func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

const convocatoriaColumns = `
        c.id, c.event_id, c.position, c.discipline, c.category, c.age_min, c.age_max,
        c.gender_filter, e.status, e.closing_date, c.updated_at`

func (r *eventRepository) CreateEvent(ctx context.Context, event *domain.Event) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const eventQuery = `
            INSERT INTO events (title, location, event_date, closing_date, status)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, eventQuery,
			event.Title,
			event.Location,
			domain.DateOf(event.Date),
			domain.DateOf(event.ClosingDate),
			event.Status,
		).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt); err != nil {
			return translate(err)
		}

		const convQuery = `
            INSERT INTO convocatorias (event_id, position, discipline, category, age_min, age_max, gender_filter)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING id, updated_at`
		for i := range event.Convocatorias {
			conv := &event.Convocatorias[i]
			conv.EventID = event.ID
			conv.Position = i
			conv.EventStatus = event.Status
			conv.ClosingDate = domain.DateOf(event.ClosingDate)
			if err := tx.QueryRow(ctx, convQuery,
				conv.EventID,
				conv.Position,
				conv.Discipline,
				conv.Category,
				conv.AgeMin,
				conv.AgeMax,
				conv.GenderFilter,
			).Scan(&conv.ID, &conv.UpdatedAt); err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

func (r *eventRepository) UpdateEvent(ctx context.Context, event *domain.Event) error {
	const query = `
        UPDATE events SET title=$1, location=$2, event_date=$3, closing_date=$4, status=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		event.Title,
		event.Location,
		domain.DateOf(event.Date),
		domain.DateOf(event.ClosingDate),
		event.Status,
		event.ID,
	).Scan(&event.UpdatedAt)
	return translate(err)
}

func (r *eventRepository) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	const query = `
        SELECT id, title, location, event_date, closing_date, status, created_at, updated_at
        FROM events WHERE id=$1`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	convs, err := r.convocatoriasFor(ctx, []string{event.ID})
	if err != nil {
		return nil, err
	}
	event.Convocatorias = convs[event.ID]
	return event, nil
}

func (r *eventRepository) ListEvents(ctx context.Context, filter EventFilter) ([]domain.Event, error) {
	base := `SELECT id, title, location, event_date, closing_date, status, created_at, updated_at FROM events`
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY event_date DESC, id`, base, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		events []domain.Event
		ids    []string
	)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
		ids = append(ids, event.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return events, nil
	}

	convs, err := r.convocatoriasFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Convocatorias = convs[events[i].ID]
	}
	return events, nil
}

func (r *eventRepository) GetConvocatoria(ctx context.Context, id string) (*domain.Convocatoria, error) {
	query := `SELECT` + convocatoriaColumns + `
        FROM convocatorias c JOIN events e ON e.id = c.event_id
        WHERE c.id=$1`

	conv, err := scanConvocatoria(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return conv, nil
}

func (r *eventRepository) UpdateConvocatoria(ctx context.Context, conv *domain.Convocatoria) error {
	const query = `
        UPDATE convocatorias SET discipline=$1, category=$2, age_min=$3, age_max=$4, gender_filter=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		conv.Discipline,
		conv.Category,
		conv.AgeMin,
		conv.AgeMax,
		conv.GenderFilter,
		conv.ID,
	).Scan(&conv.UpdatedAt)
	return translate(err)
}

func (r *eventRepository) convocatoriasFor(ctx context.Context, eventIDs []string) (map[string][]domain.Convocatoria, error) {
	query := `SELECT` + convocatoriaColumns + `
        FROM convocatorias c JOIN events e ON e.id = c.event_id
        WHERE c.event_id = ANY($1)
        ORDER BY c.event_id, c.position`

	rows, err := r.pool.Query(ctx, query, eventIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.Convocatoria, len(eventIDs))
	for rows.Next() {
		conv, err := scanConvocatoria(rows)
		if err != nil {
			return nil, err
		}
		result[conv.EventID] = append(result[conv.EventID], *conv)
	}
	return result, rows.Err()
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var event domain.Event
	if err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Location,
		&event.Date,
		&event.ClosingDate,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return nil, err
	}
	event.Date = domain.DateOf(event.Date)
	event.ClosingDate = domain.DateOf(event.ClosingDate)
	return &event, nil
}

func scanConvocatoria(row pgx.Row) (*domain.Convocatoria, error) {
	var conv domain.Convocatoria
	if err := row.Scan(
		&conv.ID,
		&conv.EventID,
		&conv.Position,
		&conv.Discipline,
		&conv.Category,
		&conv.AgeMin,
		&conv.AgeMax,
		&conv.GenderFilter,
		&conv.EventStatus,
		&conv.ClosingDate,
		&conv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	conv.ClosingDate = domain.DateOf(conv.ClosingDate)
	return &conv, nil
}
