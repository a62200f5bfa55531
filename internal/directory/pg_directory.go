package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-operations/internal/clinic"
)

// PgDirectory reads the patients table. When several patients share a
// name, the oldest record wins.
type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

func (d *PgDirectory) LookupPatientID(ctx context.Context, nom, prenom string) (string, error) {
	var id uuid.UUID
	err := d.pool.QueryRow(ctx, `
		SELECT id
		FROM patients
		WHERE nom = $1 AND prenom = $2
		ORDER BY created_at ASC
		LIMIT 1
	`, nom, prenom).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrPatientNotFound
		}
		return "", clinic.StorageError("lookup patient", err)
	}
	return id.String(), nil
}
