package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivd-portal/inscription-service/internal/domain"
)

// InscriptionFilter narrows inscription listings. ClubID resolves through the
// athlete's current affiliation. Limit <= 0 means no limit.
type InscriptionFilter struct {
	EventID        *string
	ConvocatoriaID *string
	ClubID         *string
	AthleteID      *string
	FlaggedOnly    bool
	Limit          int
	Offset         int
}

// ReviewFunc computes review flag changes from a convocatoria's current ledger.
type ReviewFunc func(ctx context.Context, ledger []domain.Inscription) ([]domain.ReviewFlag, error)

// InscriptionRepository is the durable ledger of inscriptions.
//
// Create must enforce (athlete, convocatoria) uniqueness atomically and return
// ErrDuplicate to the loser of a race. List returns records ordered by
// registration time, then ID. ReviewConvocatoria holds an exclusive lock on
// the convocatoria while review reads the ledger and until its flags are
// written, so concurrent reviews of one convocatoria apply in turn.
type InscriptionRepository interface {
	Create(ctx context.Context, ins *domain.Inscription) error
	GetByID(ctx context.Context, id string) (*domain.Inscription, error)
	Exists(ctx context.Context, athleteID, convocatoriaID string) (bool, error)
	MarkValidated(ctx context.Context, id, validatorID string, at time.Time) (*domain.Inscription, bool, error)
	List(ctx context.Context, filter InscriptionFilter) ([]domain.Inscription, error)
	ApplyReviewFlags(ctx context.Context, flags []domain.ReviewFlag) error
	ReviewConvocatoria(ctx context.Context, convocatoriaID string, review ReviewFunc) error
}

type inscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewInscriptionRepository instantiates repository.
func NewInscriptionRepository(pool *pgxpool.Pool) InscriptionRepository {
	return &inscriptionRepository{pool: pool}
}

const inscriptionColumns = `
        id, athlete_id, convocatoria_id, event_id, registered_at, registered_by,
        validated, validated_at, validated_by, flagged_for_review, review_reason, reviewed_at`

func (r *inscriptionRepository) Create(ctx context.Context, ins *domain.Inscription) error {
	const query = `
        INSERT INTO inscriptions (athlete_id, convocatoria_id, event_id, registered_at, registered_by)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		ins.AthleteID,
		ins.ConvocatoriaID,
		ins.EventID,
		ins.RegisteredAt,
		ins.RegisteredBy,
	).Scan(&ins.ID)
	return translate(err)
}

func (r *inscriptionRepository) GetByID(ctx context.Context, id string) (*domain.Inscription, error) {
	query := `SELECT` + inscriptionColumns + ` FROM inscriptions WHERE id=$1`
	ins, err := scanInscription(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return ins, nil
}

func (r *inscriptionRepository) Exists(ctx context.Context, athleteID, convocatoriaID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM inscriptions WHERE athlete_id=$1 AND convocatoria_id=$2)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, athleteID, convocatoriaID).Scan(&exists)
	return exists, err
}

// MarkValidated sets the validated bit once. Later calls return the stored
// record unchanged and changed=false.
func (r *inscriptionRepository) MarkValidated(ctx context.Context, id, validatorID string, at time.Time) (*domain.Inscription, bool, error) {
	var (
		result  *domain.Inscription
		changed bool
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanInscription(tx.QueryRow(ctx, `SELECT`+inscriptionColumns+` FROM inscriptions WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			return translate(err)
		}
		if current.Validated {
			result = current
			return nil
		}

		updated, err := scanInscription(tx.QueryRow(ctx, `
            UPDATE inscriptions SET validated=TRUE, validated_at=$2, validated_by=$3
            WHERE id=$1
            RETURNING`+inscriptionColumns, id, at, validatorID))
		if err != nil {
			return translate(err)
		}
		result = updated
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, changed, nil
}

func (r *inscriptionRepository) List(ctx context.Context, filter InscriptionFilter) ([]domain.Inscription, error) {
	base := `SELECT` + inscriptionColumns + ` FROM inscriptions`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.EventID != nil {
		args = append(args, *filter.EventID)
		clauses = append(clauses, fmt.Sprintf("event_id=$%d", len(args)))
	}
	if filter.ConvocatoriaID != nil {
		args = append(args, *filter.ConvocatoriaID)
		clauses = append(clauses, fmt.Sprintf("convocatoria_id=$%d", len(args)))
	}
	if filter.AthleteID != nil {
		args = append(args, *filter.AthleteID)
		clauses = append(clauses, fmt.Sprintf("athlete_id=$%d", len(args)))
	}
	if filter.ClubID != nil {
		args = append(args, *filter.ClubID)
		clauses = append(clauses, fmt.Sprintf("athlete_id IN (SELECT id FROM athletes WHERE club_id=$%d)", len(args)))
	}
	if filter.FlaggedOnly {
		clauses = append(clauses, "flagged_for_review")
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY registered_at ASC, id ASC`, base, strings.Join(clauses, " AND "))
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
	return scanInscriptions(rows)
}

// ApplyReviewFlags writes all flag changes in one transaction.
func (r *inscriptionRepository) ApplyReviewFlags(ctx context.Context, flags []domain.ReviewFlag) error {
	if len(flags) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return applyReviewFlags(ctx, tx, flags)
	})
}

// ReviewConvocatoria locks the convocatoria row and its inscriptions, hands
// the ledger to review and writes the returned flags in the same transaction.
// FOR NO KEY UPDATE leaves concurrent inscription inserts unblocked.
func (r *inscriptionRepository) ReviewConvocatoria(ctx context.Context, convocatoriaID string, review ReviewFunc) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx, `SELECT id FROM convocatorias WHERE id=$1 FOR NO KEY UPDATE`, convocatoriaID).Scan(&locked); err != nil {
			return translate(err)
		}

		rows, err := tx.Query(ctx, `SELECT`+inscriptionColumns+`
            FROM inscriptions WHERE convocatoria_id=$1
            ORDER BY registered_at ASC, id ASC
            FOR UPDATE`, convocatoriaID)
		if err != nil {
			return err
		}
		ledger, err := scanInscriptions(rows)
		rows.Close()
		if err != nil {
			return err
		}

		flags, err := review(ctx, ledger)
		if err != nil {
			return err
		}
		return applyReviewFlags(ctx, tx, flags)
	})
}

func applyReviewFlags(ctx context.Context, tx pgx.Tx, flags []domain.ReviewFlag) error {
	if len(flags) == 0 {
		return nil
	}
	const query = `
        UPDATE inscriptions SET flagged_for_review=$2, review_reason=$3, reviewed_at=$4
        WHERE id=$1`
	batch := &pgx.Batch{}
	for _, flag := range flags {
		var reason *string
		if flag.Reason != nil {
			s := string(*flag.Reason)
			reason = &s
		}
		batch.Queue(query, flag.InscriptionID, flag.Flagged, reason, flag.At)
	}
	results := tx.SendBatch(ctx, batch)
	for _, flag := range flags {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return err
		}
		if tag.RowsAffected() == 0 {
			_ = results.Close()
			return fmt.Errorf("inscription %s: %w", flag.InscriptionID, ErrNotFound)
		}
	}
	return results.Close()
}

func scanInscription(row pgx.Row) (*domain.Inscription, error) {
	var (
		ins    domain.Inscription
		reason *string
	)
	if err := row.Scan(
		&ins.ID,
		&ins.AthleteID,
		&ins.ConvocatoriaID,
		&ins.EventID,
		&ins.RegisteredAt,
		&ins.RegisteredBy,
		&ins.Validated,
		&ins.ValidatedAt,
		&ins.ValidatedBy,
		&ins.FlaggedForReview,
		&reason,
		&ins.ReviewedAt,
	); err != nil {
		return nil, err
	}
	if reason != nil {
		result := domain.EligibilityResult(*reason)
		ins.ReviewReason = &result
	}
	return &ins, nil
}

func scanInscriptions(rows pgx.Rows) ([]domain.Inscription, error) {
	var result []domain.Inscription
	for rows.Next() {
		ins, err := scanInscription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ins)
	}
	return result, rows.Err()
}
