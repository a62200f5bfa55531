package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-operations/internal/clinic"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var day time.Time
	var slot string

	err := row.Scan(
		&a.ID,
		&day,
		&slot,
		&a.Note,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Day = clinic.DateOf(day)
	a.Slot = Slot(slot)
	return &a, nil
}

// Interface methods

func (r *PgRepository) InsertAppointment(ctx context.Context, a *Appointment) error {
	// The unique index on (day, slot) makes this the atomic check-and-insert.
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, day, slot, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, a.ID, a.Day.Time(), string(a.Slot), a.Note, a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSlotAlreadyBooked
		}
		return err
	}
	return nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, day, slot, note, created_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsByDay(ctx context.Context, day clinic.Date) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, day, slot, note, created_at
		FROM appointments
		WHERE day = $1
		ORDER BY slot ASC
	`, day.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM appointments
		WHERE id = $1
		RETURNING id, day, slot, note, created_at
	`, id)
	return scanAppointment(row)
}
