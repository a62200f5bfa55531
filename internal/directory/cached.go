package directory

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedDirectory is a read-through LRU cache in front of another
// directory. Misses are not cached so newly registered patients show up on
// the next lookup.
type CachedDirectory struct {
	next  Directory
	cache *lru.Cache[nameKey, string]
}

func NewCachedDirectory(next Directory, size int) (*CachedDirectory, error) {
	cache, err := lru.New[nameKey, string](size)
	if err != nil {
		return nil, fmt.Errorf("create directory cache: %w", err)
	}
	return &CachedDirectory{next: next, cache: cache}, nil
}

func (d *CachedDirectory) LookupPatientID(ctx context.Context, nom, prenom string) (string, error) {
	key := nameKey{nom: nom, prenom: prenom}
	if id, ok := d.cache.Get(key); ok {
		return id, nil
	}

	id, err := d.next.LookupPatientID(ctx, nom, prenom)
	if err != nil {
		return "", err
	}
	d.cache.Add(key, id)
	return id, nil
}

func (d *CachedDirectory) Len() int { return d.cache.Len() }
