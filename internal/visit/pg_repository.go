package visit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const visitCols = `id, seq, nom, prenom, patient_ref, motif, checked_in_at`

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	var patientRef *string
	var motif string

	err := row.Scan(
		&v.ID,
		&v.Seq,
		&v.Name.Nom,
		&v.Name.Prenom,
		&patientRef,
		&motif,
		&v.CheckedInAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVisitNotFound
		}
		return nil, err
	}

	if patientRef != nil {
		v.PatientRef = *patientRef
	}
	v.Motif = Motif(motif)
	return &v, nil
}

func collectVisits(rows pgx.Rows) ([]Visit, error) {
	defer rows.Close()

	var result []Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *PgRepository) InsertVisit(ctx context.Context, v *Visit) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO visits (id, nom, prenom, patient_ref, motif, checked_in_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq
	`, v.ID, v.Name.Nom, v.Name.Prenom, nullableString(v.PatientRef), string(v.Motif), v.CheckedInAt).Scan(&v.Seq)
}

func (r *PgRepository) UpdateMotif(ctx context.Context, id uuid.UUID, motif Motif) (*Visit, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE visits
		SET motif = $2
		WHERE id = $1
		RETURNING `+visitCols, id, string(motif))
	return scanVisit(row)
}

func (r *PgRepository) DeleteEarliestByName(ctx context.Context, name PatientName) (*Visit, error) {
	// SKIP LOCKED lets two concurrent removals for the same name each take
	// a different row instead of the second one finding nothing.
	row := r.pool.QueryRow(ctx, `
		DELETE FROM visits
		WHERE id = (
			SELECT id FROM visits
			WHERE nom = $1 AND prenom = $2
			ORDER BY checked_in_at ASC, seq ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+visitCols, name.Nom, name.Prenom)
	return scanVisit(row)
}

func (r *PgRepository) DeleteVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM visits
		WHERE id = $1
		RETURNING `+visitCols, id)
	return scanVisit(row)
}

func (r *PgRepository) ListVisitsBetween(ctx context.Context, from, to time.Time) ([]Visit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+visitCols+`
		FROM visits
		WHERE checked_in_at >= $1 AND checked_in_at < $2
		ORDER BY checked_in_at ASC, seq ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}

func (r *PgRepository) ListVisits(ctx context.Context) ([]Visit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+visitCols+`
		FROM visits
		ORDER BY checked_in_at ASC, seq ASC
	`)
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}
