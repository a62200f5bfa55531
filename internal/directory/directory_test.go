package directory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-operations/internal/clinic"
)

type countingDirectory struct {
	next  Directory
	calls int32
}

func (d *countingDirectory) LookupPatientID(ctx context.Context, nom, prenom string) (string, error) {
	atomic.AddInt32(&d.calls, 1)
	return d.next.LookupPatientID(ctx, nom, prenom)
}

func TestMemoryDirectory(t *testing.T) {
	dir := NewMemoryDirectory()
	dir.Add("Dupont", "Jean", "p-1")

	id, err := dir.LookupPatientID(context.Background(), "Dupont", "Jean")
	require.NoError(t, err)
	assert.Equal(t, "p-1", id)

	_, err = dir.LookupPatientID(context.Background(), "dupont", "jean")
	assert.ErrorIs(t, err, ErrPatientNotFound)
	assert.True(t, errors.Is(err, clinic.ErrNotFound))
}

func TestCachedDirectory_HitsSkipBackend(t *testing.T) {
	mem := NewMemoryDirectory()
	mem.Add("Dupont", "Jean", "p-1")
	backend := &countingDirectory{next: mem}

	cached, err := NewCachedDirectory(backend, 8)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		id, err := cached.LookupPatientID(context.Background(), "Dupont", "Jean")
		require.NoError(t, err)
		assert.Equal(t, "p-1", id)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&backend.calls))
	assert.Equal(t, 1, cached.Len())
}

func TestCachedDirectory_MissesAreNotCached(t *testing.T) {
	mem := NewMemoryDirectory()
	backend := &countingDirectory{next: mem}

	cached, err := NewCachedDirectory(backend, 8)
	require.NoError(t, err)

	_, err = cached.LookupPatientID(context.Background(), "Martin", "Claire")
	assert.ErrorIs(t, err, ErrPatientNotFound)

	mem.Add("Martin", "Claire", "p-2")
	id, err := cached.LookupPatientID(context.Background(), "Martin", "Claire")
	require.NoError(t, err)
	assert.Equal(t, "p-2", id)
	assert.Equal(t, int32(2), atomic.LoadInt32(&backend.calls))
}

func TestCachedDirectory_RejectsInvalidSize(t *testing.T) {
	_, err := NewCachedDirectory(NewMemoryDirectory(), 0)
	assert.Error(t, err)
}
