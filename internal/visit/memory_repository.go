package visit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps visits in process, in insertion order.
type MemoryRepository struct {
	mu     sync.RWMutex
	seq    int64
	visits []Visit
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) InsertVisit(_ context.Context, v *Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	v.Seq = r.seq
	r.visits = append(r.visits, *v)
	return nil
}

func (r *MemoryRepository) UpdateMotif(_ context.Context, id uuid.UUID, motif Motif) (*Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.visits {
		if r.visits[i].ID == id {
			r.visits[i].Motif = motif
			v := r.visits[i]
			return &v, nil
		}
	}
	return nil, ErrVisitNotFound
}

func (r *MemoryRepository) DeleteEarliestByName(_ context.Context, name PatientName) (*Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, v := range r.visits {
		if v.Name != name {
			continue
		}
		if idx < 0 || before(v, r.visits[idx]) {
			idx = i
		}
	}
	if idx < 0 {
		return nil, ErrVisitNotFound
	}
	return r.removeAt(idx), nil
}

func (r *MemoryRepository) DeleteVisit(_ context.Context, id uuid.UUID) (*Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, v := range r.visits {
		if v.ID == id {
			return r.removeAt(i), nil
		}
	}
	return nil, ErrVisitNotFound
}

func (r *MemoryRepository) ListVisitsBetween(_ context.Context, from, to time.Time) ([]Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Visit
	for _, v := range r.visits {
		if !v.CheckedInAt.Before(from) && v.CheckedInAt.Before(to) {
			out = append(out, v)
		}
	}
	sortVisits(out)
	return out, nil
}

func (r *MemoryRepository) ListVisits(_ context.Context) ([]Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Visit, len(r.visits))
	copy(out, r.visits)
	sortVisits(out)
	return out, nil
}

// removeAt must be called with mu held.
func (r *MemoryRepository) removeAt(i int) *Visit {
	v := r.visits[i]
	r.visits = append(r.visits[:i], r.visits[i+1:]...)
	return &v
}

func before(a, b Visit) bool {
	if !a.CheckedInAt.Equal(b.CheckedInAt) {
		return a.CheckedInAt.Before(b.CheckedInAt)
	}
	return a.Seq < b.Seq
}

func sortVisits(vs []Visit) {
	sort.SliceStable(vs, func(i, j int) bool { return before(vs[i], vs[j]) })
}
