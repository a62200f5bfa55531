package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-operations/internal/clinic"
)

var ErrVisitNotFound = fmt.Errorf("visit %w", clinic.ErrNotFound)

// Repository contains all storage interactions needed by the queue. Every
// method is a single atomic statement against storage.
type Repository interface {
	// InsertVisit stores v and fills in its insertion sequence number.
	InsertVisit(ctx context.Context, v *Visit) error

	UpdateMotif(ctx context.Context, id uuid.UUID, motif Motif) (*Visit, error)

	// DeleteEarliestByName removes the matching visit with the lowest
	// (checked_in_at, seq) and returns it.
	DeleteEarliestByName(ctx context.Context, name PatientName) (*Visit, error)
	DeleteVisit(ctx context.Context, id uuid.UUID) (*Visit, error)

	// ListVisitsBetween returns visits with from <= checked_in_at < to in
	// arrival order.
	ListVisitsBetween(ctx context.Context, from, to time.Time) ([]Visit, error)
	ListVisits(ctx context.Context) ([]Visit, error)
}
