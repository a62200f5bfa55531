package visit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-operations/internal/clinic"
	"github.com/hackgods/clinic-operations/internal/events"
)

// Service is the daily visit queue. A visit is CheckedIn from creation
// until it is removed; motif updates do not change that state.
type Service struct {
	repo     Repository
	calendar *clinic.Calendar
	events   events.Sink
	logger   zerolog.Logger
}

func NewService(repo Repository, calendar *clinic.Calendar, sink events.Sink, logger zerolog.Logger) *Service {
	if calendar == nil {
		calendar = clinic.NewCalendar(nil, nil)
	}
	if sink == nil {
		sink = events.Discard
	}
	return &Service{
		repo:     repo,
		calendar: calendar,
		events:   sink,
		logger:   logger.With().Str("component", "visit_queue").Logger(),
	}
}

// CheckIn appends a new visit stamped with the current time. Several
// visits for the same name on the same day are allowed.
func (s *Service) CheckIn(ctx context.Context, in CheckIn) (*Visit, error) {
	if err := in.Name.Validate(); err != nil {
		return nil, err
	}
	motif, err := ParseMotif(in.Motif)
	if err != nil {
		return nil, err
	}

	v := &Visit{
		ID:         uuid.New(),
		Name:       in.Name,
		PatientRef: strings.TrimSpace(in.PatientRef),
		Motif:      motif,
		// postgres keeps microseconds; truncate so both stores agree
		CheckedInAt: s.calendar.Now().Truncate(time.Microsecond),
	}

	if err := s.repo.InsertVisit(ctx, v); err != nil {
		return nil, clinic.StorageError("check in visit", err)
	}

	s.logEvent(ctx, events.VisitCheckedIn, v)
	return v, nil
}

func (s *Service) UpdateMotif(ctx context.Context, id uuid.UUID, rawMotif string) (*Visit, error) {
	motif, err := ParseMotif(rawMotif)
	if err != nil {
		return nil, err
	}

	v, err := s.repo.UpdateMotif(ctx, id, motif)
	if err != nil {
		if errors.Is(err, ErrVisitNotFound) {
			return nil, err
		}
		return nil, clinic.StorageError("update motif", err)
	}

	s.logEvent(ctx, events.VisitMotifUpdated, v)
	return v, nil
}

// Remove deletes one visit matching name exactly. When several match, the
// one waiting longest (earliest check-in) is removed.
func (s *Service) Remove(ctx context.Context, name PatientName) (*Visit, error) {
	if err := name.Validate(); err != nil {
		return nil, err
	}

	v, err := s.repo.DeleteEarliestByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrVisitNotFound) {
			return nil, err
		}
		return nil, clinic.StorageError("remove visit", err)
	}

	s.logEvent(ctx, events.VisitRemoved, v)
	return v, nil
}

func (s *Service) RemoveByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := s.repo.DeleteVisit(ctx, id)
	if err != nil {
		if errors.Is(err, ErrVisitNotFound) {
			return nil, err
		}
		return nil, clinic.StorageError("remove visit", err)
	}

	s.logEvent(ctx, events.VisitRemoved, v)
	return v, nil
}

// ListToday returns the visits checked in during the current clinic day in
// arrival order.
func (s *Service) ListToday(ctx context.Context) ([]Visit, error) {
	from, to := s.calendar.Bounds(s.calendar.Today())
	visits, err := s.repo.ListVisitsBetween(ctx, from, to)
	if err != nil {
		return nil, clinic.StorageError("list today's visits", err)
	}
	return visits, nil
}

// ListAll returns every stored visit in arrival order.
func (s *Service) ListAll(ctx context.Context) ([]Visit, error) {
	visits, err := s.repo.ListVisits(ctx)
	if err != nil {
		return nil, clinic.StorageError("list visits", err)
	}
	return visits, nil
}

func (s *Service) logEvent(ctx context.Context, eventType string, v *Visit) {
	ev := events.Event{
		Type:       eventType,
		EntityType: events.EntityVisit,
		EntityID:   v.ID,
		Payload: map[string]any{
			"nom":    v.Name.Nom,
			"prenom": v.Name.Prenom,
			"motif":  string(v.Motif),
		},
		OccurredAt: s.calendar.Now(),
	}
	if err := s.events.Record(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Str("visit_id", v.ID.String()).
			Msg("failed to record event")
	}
}
