package appointment

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-operations/internal/clinic"
)

type slotKey struct {
	day  string
	slot Slot
}

// MemoryRepository keeps appointments in process. Check and insert happen
// under one lock, matching the unique index of the Postgres schema.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]Appointment
	bySlot map[slotKey]uuid.UUID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[uuid.UUID]Appointment),
		bySlot: make(map[slotKey]uuid.UUID),
	}
}

func (r *MemoryRepository) InsertAppointment(_ context.Context, a *Appointment) error {
	key := slotKey{day: a.Day.String(), slot: a.Slot}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.bySlot[key]; taken {
		return ErrSlotAlreadyBooked
	}
	r.byID[a.ID] = *a
	r.bySlot[key] = a.ID
	return nil
}

func (r *MemoryRepository) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) ListAppointmentsByDay(_ context.Context, day clinic.Date) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Appointment
	for _, a := range r.byID {
		if a.Day.Equal(day) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slot < result[j].Slot })
	return result, nil
}

func (r *MemoryRepository) DeleteAppointment(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	delete(r.byID, id)
	delete(r.bySlot, slotKey{day: a.Day.String(), slot: a.Slot})
	return &a, nil
}
