package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-operations/internal/clinic"
	"github.com/hackgods/clinic-operations/internal/events"
	redisclient "github.com/hackgods/clinic-operations/internal/redis"
)

// -- Test doubles --

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *recordingSink) Record(_ context.Context, ev events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, ev := range s.events {
		out = append(out, ev.Type)
	}
	return out
}

type contendedLocker struct{}

func (contendedLocker) WithLock(context.Context, string, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

func newMiniredisLocker(t *testing.T) (redisclient.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisclient.NewRedisLocker(client, 5*time.Second), mr
}

type unreachableLocker struct{}

func (unreachableLocker) WithLock(context.Context, string, func(context.Context) error) error {
	return errors.New("acquire lock: dial tcp 127.0.0.1:6379: connection refused")
}

type failingRepo struct{ err error }

func (r failingRepo) InsertAppointment(context.Context, *Appointment) error { return r.err }
func (r failingRepo) GetAppointmentByID(context.Context, uuid.UUID) (*Appointment, error) {
	return nil, r.err
}
func (r failingRepo) ListAppointmentsByDay(context.Context, clinic.Date) ([]Appointment, error) {
	return nil, r.err
}
func (r failingRepo) DeleteAppointment(context.Context, uuid.UUID) (*Appointment, error) {
	return nil, r.err
}

var may1 = clinic.NewDate(2024, time.May, 1)

func newTestService(t *testing.T) (*Service, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	now := time.Date(2024, time.April, 30, 8, 0, 0, 0, time.UTC)
	cal := clinic.NewCalendar(time.UTC, func() time.Time { return now })
	return NewService(NewMemoryRepository(), redisclient.NopLocker(), cal, sink, zerolog.Nop()), sink
}

func TestService_ListAvailability_AllFreeByDefault(t *testing.T) {
	svc, _ := newTestService(t)

	grid, err := svc.ListAvailability(context.Background(), may1)
	require.NoError(t, err)
	require.Len(t, grid, 10)

	for i, entry := range grid {
		assert.Equal(t, Slots()[i], entry.Slot)
		assert.Equal(t, SlotFree, entry.Status)
		assert.Nil(t, entry.AppointmentID)
	}
}

func TestService_ListAvailability_ShowsBooking(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, may1, "10:00", "checkup")
	require.NoError(t, err)

	grid, err := svc.ListAvailability(ctx, may1)
	require.NoError(t, err)
	require.Len(t, grid, 10)

	booked := 0
	for _, entry := range grid {
		if entry.Slot == "10:00" {
			assert.Equal(t, SlotBooked, entry.Status)
			require.NotNil(t, entry.AppointmentID)
			assert.Equal(t, appt.ID, *entry.AppointmentID)
			assert.Equal(t, "checkup", entry.Note)
		}
		if entry.Status == SlotBooked {
			booked++
		}
	}
	assert.Equal(t, 1, booked)

	// other days are unaffected
	other, err := svc.ListAvailability(ctx, may1.AddDays(1))
	require.NoError(t, err)
	for _, entry := range other {
		assert.Equal(t, SlotFree, entry.Status)
	}
}

func TestService_Book(t *testing.T) {
	svc, sink := newTestService(t)

	appt, err := svc.Book(context.Background(), may1, "9:00", "  first visit ")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, appt.ID)
	assert.Equal(t, Slot("09:00"), appt.Slot)
	assert.Equal(t, "first visit", appt.Note)
	assert.Equal(t, []string{events.AppointmentBooked}, sink.types())
}

func TestService_Book_Validation(t *testing.T) {
	svc, sink := newTestService(t)
	ctx := context.Background()

	_, err := svc.Book(ctx, may1, "10:00", "   ")
	assert.True(t, errors.Is(err, clinic.ErrValidation))

	_, err = svc.Book(ctx, may1, "19:00", "late")
	assert.True(t, errors.Is(err, clinic.ErrValidation))

	_, err = svc.Book(ctx, clinic.Date{}, "10:00", "no day")
	assert.True(t, errors.Is(err, clinic.ErrValidation))

	assert.Empty(t, sink.types())
}

func TestService_Book_Conflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Book(ctx, may1, "10:00", "checkup")
	require.NoError(t, err)

	_, err = svc.Book(ctx, may1, "10:00", "other")
	assert.True(t, errors.Is(err, clinic.ErrSlotConflict))

	// the un-padded form names the same slot
	_, err = svc.Book(ctx, may1, "9:00", "a")
	require.NoError(t, err)
	_, err = svc.Book(ctx, may1, "09:00", "b")
	assert.True(t, errors.Is(err, clinic.ErrSlotConflict))
}

func TestService_Book_ConcurrentSameSlot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const callers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)

	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Book(ctx, may1, "14:00", "race")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, clinic.ErrSlotConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, conflicts)
	assert.Empty(t, others)
}

func TestService_Book_LostLockDefersToStorage(t *testing.T) {
	cal := clinic.NewCalendar(time.UTC, nil)
	svc := NewService(NewMemoryRepository(), contendedLocker{}, cal, nil, zerolog.Nop())
	ctx := context.Background()

	// the lock holder never inserted, so the slot is still free
	appt, err := svc.Book(ctx, may1, "10:00", "checkup")
	require.NoError(t, err)
	assert.Equal(t, Slot("10:00"), appt.Slot)

	_, err = svc.Book(ctx, may1, "10:00", "again")
	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)
}

func TestService_Book_HolderStorageFailureLeavesSlotBookable(t *testing.T) {
	locker, _ := newMiniredisLocker(t)
	repo := NewMemoryRepository()
	cal := clinic.NewCalendar(time.UTC, nil)
	svc := NewService(repo, locker, cal, nil, zerolog.Nop())
	ctx := context.Background()

	var loserAppt *Appointment
	var loserErr error
	err := locker.WithLock(ctx, lockKey(may1, "10:00"), func(context.Context) error {
		// a second caller arrives while the holder is mid-insert
		loserAppt, loserErr = svc.Book(ctx, may1, "10:00", "second caller")
		return errors.New("holder insert failed")
	})
	require.Error(t, err)

	require.NoError(t, loserErr)
	require.NotNil(t, loserAppt)

	appts, err := svc.ListByDay(ctx, may1)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, loserAppt.ID, appts[0].ID)
}

func TestService_Book_ConcurrentWithRedisLock(t *testing.T) {
	locker, mr := newMiniredisLocker(t)
	cal := clinic.NewCalendar(time.UTC, nil)
	svc := NewService(NewMemoryRepository(), locker, cal, nil, zerolog.Nop())

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Book(context.Background(), may1, "14:00", "race")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, clinic.ErrSlotConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, conflicts)
	assert.Empty(t, others)
	assert.Empty(t, mr.Keys())
}

func TestService_Book_FallsBackWhenLockUnavailable(t *testing.T) {
	cal := clinic.NewCalendar(time.UTC, nil)
	svc := NewService(NewMemoryRepository(), unreachableLocker{}, cal, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Book(ctx, may1, "10:00", "checkup")
	require.NoError(t, err)

	_, err = svc.Book(ctx, may1, "10:00", "again")
	assert.True(t, errors.Is(err, clinic.ErrSlotConflict))
}

func TestService_Cancel_Twice(t *testing.T) {
	svc, sink := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, may1, "10:00", "checkup")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt.ID, cancelled.ID)

	_, err = svc.Cancel(ctx, appt.ID)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.True(t, errors.Is(err, clinic.ErrNotFound))

	assert.Equal(t, []string{events.AppointmentBooked, events.AppointmentCancelled}, sink.types())
}

func TestService_CancelFreesSlot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, may1, "10:00", "checkup")
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, appt.ID)
	require.NoError(t, err)

	grid, err := svc.ListAvailability(ctx, may1)
	require.NoError(t, err)
	for _, entry := range grid {
		assert.Equal(t, SlotFree, entry.Status, entry.Slot)
	}

	rebooked, err := svc.Book(ctx, may1, "10:00", "rebooked")
	require.NoError(t, err)
	assert.NotEqual(t, appt.ID, rebooked.ID)
}

func TestService_Get(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, may1, "11:00", "checkup")
	require.NoError(t, err)

	got, err := svc.Get(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt.Note, got.Note)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestService_StorageErrors(t *testing.T) {
	cause := errors.New("connection reset by peer")
	cal := clinic.NewCalendar(time.UTC, nil)
	svc := NewService(failingRepo{err: cause}, nil, cal, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.ListAvailability(ctx, may1)
	assert.True(t, errors.Is(err, clinic.ErrStorage))
	assert.True(t, errors.Is(err, cause))

	_, err = svc.Book(ctx, may1, "10:00", "x")
	assert.True(t, errors.Is(err, clinic.ErrStorage))

	_, err = svc.Cancel(ctx, uuid.New())
	assert.True(t, errors.Is(err, clinic.ErrStorage))
}
