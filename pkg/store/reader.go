package store

import "github.com/gts-labs/gts/pkg/entity"

// Reader feeds entities into a store and serves lookups on cache
// misses.
type Reader interface {
	// Entities returns everything the source currently holds.
	Entities() ([]*entity.Entity, error)
	// ReadByID fetches a single entity on a cache miss.
	ReadByID(id string) (*entity.Entity, bool)
}

// MemoryReader is a Reader over a fixed entity slice, mainly for tests
// and programmatic setups.
type MemoryReader struct {
	entities []*entity.Entity
}

// NewMemoryReader wraps a fixed set of entities.
func NewMemoryReader(entities ...*entity.Entity) *MemoryReader {
	return &MemoryReader{entities: entities}
}

func (r *MemoryReader) Entities() ([]*entity.Entity, error) {
	return r.entities, nil
}

func (r *MemoryReader) ReadByID(id string) (*entity.Entity, bool) {
	for _, e := range r.entities {
		if e.ID != nil && e.ID.String() == id {
			return e, true
		}
	}
	return nil, false
}
