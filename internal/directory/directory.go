package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/hackgods/clinic-operations/internal/clinic"
)

var ErrPatientNotFound = fmt.Errorf("patient %w", clinic.ErrNotFound)

// Directory resolves a patient's name to the id of their record in the
// patient directory. The queue core never calls it; the request layer uses
// it to enrich responses.
type Directory interface {
	LookupPatientID(ctx context.Context, nom, prenom string) (string, error)
}

type nameKey struct {
	nom    string
	prenom string
}

// MemoryDirectory is a fixed in-process directory.
type MemoryDirectory struct {
	mu  sync.RWMutex
	ids map[nameKey]string
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{ids: make(map[nameKey]string)}
}

func (d *MemoryDirectory) Add(nom, prenom, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids[nameKey{nom: nom, prenom: prenom}] = id
}

func (d *MemoryDirectory) LookupPatientID(_ context.Context, nom, prenom string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.ids[nameKey{nom: nom, prenom: prenom}]
	if !ok {
		return "", ErrPatientNotFound
	}
	return id, nil
}
