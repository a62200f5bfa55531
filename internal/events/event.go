package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	AppointmentBooked    = "APPOINTMENT_BOOKED"
	AppointmentCancelled = "APPOINTMENT_CANCELLED"
	VisitCheckedIn       = "VISIT_CHECKED_IN"
	VisitMotifUpdated    = "VISIT_MOTIF_UPDATED"
	VisitRemoved         = "VISIT_REMOVED"
)

const (
	EntityAppointment = "appointment"
	EntityVisit       = "visit"
)

// Event is an audit record of a successful mutation.
type Event struct {
	Type       string         `json:"type"`
	EntityType string         `json:"entity_type"`
	EntityID   uuid.UUID      `json:"entity_id"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Sink receives events after the mutation they describe has been stored.
// Failures are reported to the caller but never undo the mutation.
type Sink interface {
	Record(ctx context.Context, ev Event) error
}

type discard struct{}

func (discard) Record(context.Context, Event) error { return nil }

// Discard drops every event.
var Discard Sink = discard{}

type fanout []Sink

// Fanout delivers each event to every sink and joins their errors.
func Fanout(sinks ...Sink) Sink {
	var out fanout
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return Discard
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (f fanout) Record(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range f {
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
