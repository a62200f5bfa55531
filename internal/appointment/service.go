package appointment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-operations/internal/clinic"
	"github.com/hackgods/clinic-operations/internal/events"
	redisclient "github.com/hackgods/clinic-operations/internal/redis"
)

// Service is the slot ledger. It keeps no state between calls; every
// operation is one unit of work against the repository.
type Service struct {
	repo     Repository
	locker   redisclient.Locker
	calendar *clinic.Calendar
	events   events.Sink
	logger   zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, calendar *clinic.Calendar, sink events.Sink, logger zerolog.Logger) *Service {
	if locker == nil {
		locker = redisclient.NopLocker()
	}
	if calendar == nil {
		calendar = clinic.NewCalendar(nil, nil)
	}
	if sink == nil {
		sink = events.Discard
	}
	return &Service{
		repo:     repo,
		locker:   locker,
		calendar: calendar,
		events:   sink,
		logger:   logger.With().Str("component", "slot_ledger").Logger(),
	}
}

// ListAvailability returns every canonical slot of day with its booking.
func (s *Service) ListAvailability(ctx context.Context, day clinic.Date) ([]SlotAvailability, error) {
	booked, err := s.ListByDay(ctx, day)
	if err != nil {
		return nil, err
	}

	bySlot := make(map[Slot]Appointment, len(booked))
	for _, a := range booked {
		bySlot[a.Slot] = a
	}

	slots := Slots()
	out := make([]SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		entry := SlotAvailability{Slot: slot, Status: SlotFree}
		if a, ok := bySlot[slot]; ok {
			id := a.ID
			entry.Status = SlotBooked
			entry.AppointmentID = &id
			entry.Note = a.Note
		}
		out = append(out, entry)
	}
	return out, nil
}

// ListByDay returns the appointments booked on day, ordered by slot.
func (s *Service) ListByDay(ctx context.Context, day clinic.Date) ([]Appointment, error) {
	if day.IsZero() {
		return nil, clinic.Invalid("day", "is required")
	}
	appts, err := s.repo.ListAppointmentsByDay(ctx, day)
	if err != nil {
		return nil, clinic.StorageError("list appointments", err)
	}
	return appts, nil
}

// Book reserves (day, slot). Uniqueness is enforced by the repository's
// atomic insert; the slot lock only narrows contention in front of it.
func (s *Service) Book(ctx context.Context, day clinic.Date, rawSlot, note string) (*Appointment, error) {
	if day.IsZero() {
		return nil, clinic.Invalid("day", "is required")
	}
	slot, err := ParseSlot(rawSlot)
	if err != nil {
		return nil, err
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, clinic.Invalid("note", "is required")
	}

	appt := &Appointment{
		ID:        uuid.New(),
		Day:       day,
		Slot:      slot,
		Note:      note,
		CreatedAt: s.calendar.Now(),
	}

	ran := false
	err = s.locker.WithLock(ctx, lockKey(day, slot), func(lockCtx context.Context) error {
		ran = true
		return s.repo.InsertAppointment(lockCtx, appt)
	})
	if err != nil && !ran {
		// The holder's insert can still fail, so a lost lock is not a
		// conflict by itself. The unique (day, slot) constraint decides.
		evt := s.logger.Warn()
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			evt = s.logger.Debug()
		}
		evt.Err(err).Str("day", day.String()).Str("slot", string(slot)).
			Msg("slot lock not held, relying on storage constraint")
		err = s.repo.InsertAppointment(ctx, appt)
	}

	if err != nil {
		if errors.Is(err, clinic.ErrSlotConflict) {
			return nil, err
		}
		return nil, clinic.StorageError("book appointment", err)
	}

	s.logEvent(ctx, events.AppointmentBooked, appt)
	return appt, nil
}

// Cancel deletes the appointment and returns it. Cancelling an id that is
// already gone reports ErrAppointmentNotFound.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.DeleteAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, clinic.StorageError("cancel appointment", err)
	}

	s.logEvent(ctx, events.AppointmentCancelled, appt)
	return appt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, clinic.StorageError("get appointment", err)
	}
	return appt, nil
}

func (s *Service) logEvent(ctx context.Context, eventType string, appt *Appointment) {
	ev := events.Event{
		Type:       eventType,
		EntityType: events.EntityAppointment,
		EntityID:   appt.ID,
		Payload: map[string]any{
			"day":  appt.Day.String(),
			"slot": string(appt.Slot),
		},
		OccurredAt: s.calendar.Now(),
	}
	if err := s.events.Record(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Str("appointment_id", appt.ID.String()).
			Msg("failed to record event")
	}
}

func lockKey(day clinic.Date, slot Slot) string {
	return "slot:" + day.String() + ":" + string(slot)
}
