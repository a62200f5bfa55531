package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-operations/internal/clinic"
)

var (
	ErrAppointmentNotFound = fmt.Errorf("appointment %w", clinic.ErrNotFound)
	ErrSlotAlreadyBooked   = fmt.Errorf("%w: slot already booked", clinic.ErrSlotConflict)
)

// Repository contains all storage interactions needed by the ledger.
type Repository interface {
	// InsertAppointment stores a as a single atomic insert-if-absent on
	// (day, slot). It returns ErrSlotAlreadyBooked when the pair is taken.
	InsertAppointment(ctx context.Context, a *Appointment) error

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointmentsByDay(ctx context.Context, day clinic.Date) ([]Appointment, error)

	// DeleteAppointment removes and returns the appointment, or
	// ErrAppointmentNotFound.
	DeleteAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
}
