// Package store is the in-memory GTS registry: entities keyed by
// identifier with schema validation, casting, querying and reference
// graph traversal on top.
package store

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/gts-labs/gts/pkg/cast"
	"github.com/gts-labs/gts/pkg/entity"
	"github.com/gts-labs/gts/pkg/gts"
)

// Store holds entities by identifier. A Reader populates it up front
// and serves cache misses on Get. All methods are safe for concurrent
// use.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]*entity.Entity
	reader Reader
	logger *slog.Logger
}

// Options configures New.
type Options struct {
	Reader Reader
	Logger *slog.Logger
}

// New builds a store and populates it from the reader, skipping
// entities without an identifier.
func New(opts Options) (*Store, error) {
	s := &Store{
		byID:   map[string]*entity.Entity{},
		reader: opts.Reader,
		logger: opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if s.reader != nil {
		entities, err := s.reader.Entities()
		if err != nil {
			return nil, fmt.Errorf("populate store: %w", err)
		}
		for _, e := range entities {
			if e.ID != nil {
				s.byID[e.ID.String()] = e
			}
		}
	}

	s.logger.Info("populated store", "entities", len(s.byID))
	return s, nil
}

// Register inserts an entity. The entity must carry an identifier.
func (s *Store) Register(e *entity.Entity) error {
	if e.ID == nil {
		return fmt.Errorf("entity must have a valid GTS identifier")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[e.ID.String()] = e
	return nil
}

// RegisterSchema wraps raw schema content in an entity and inserts it
// under the given type identifier.
func (s *Store) RegisterSchema(typeID string, schema map[string]any) error {
	if !strings.HasSuffix(typeID, "~") {
		return fmt.Errorf("schema type ID must end with '~'")
	}
	id, err := gts.ParseID(typeID)
	if err != nil {
		return err
	}
	e := entity.New(entity.Params{Content: schema, ID: id, IsSchema: true})
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[id.String()] = e
	return nil
}

// Get looks an entity up, falling back to the reader and caching the
// result on a miss.
func (s *Store) Get(id string) (*entity.Entity, bool) {
	s.mu.RLock()
	e, ok := s.byID[id]
	s.mu.RUnlock()
	if ok {
		return e, true
	}

	if s.reader != nil {
		if e, ok := s.reader.ReadByID(id); ok {
			s.mu.Lock()
			s.byID[id] = e
			s.mu.Unlock()
			return e, true
		}
	}
	return nil, false
}

// Has reports whether an entity is available, consulting the reader on
// a miss.
func (s *Store) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// SchemaContent returns the schema object registered under a type
// identifier.
func (s *Store) SchemaContent(typeID string) (map[string]any, error) {
	e, ok := s.Get(typeID)
	if !ok {
		return nil, &SchemaNotFoundError{typeID}
	}
	content, ok := e.Content.(map[string]any)
	if !ok {
		return nil, &SchemaNotFoundError{typeID}
	}
	return content, nil
}

// ResolveSchema satisfies the cast engine's schema resolver over the
// registered schema entities.
func (s *Store) ResolveSchema(id string) (map[string]any, bool) {
	e, ok := s.Get(id)
	if !ok || !e.IsSchema {
		return nil, false
	}
	content, ok := e.Content.(map[string]any)
	return content, ok
}

// Items returns all entities sorted by identifier.
func (s *Store) Items() []*entity.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Entity, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// IDs returns all registered identifiers, sorted.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.byID))
	for id := range s.byID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of cached entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Cast migrates an instance to a target schema. The source must be an
// instance; its schema is resolved through its declared schema
// identifier.
func (s *Store) Cast(fromID, toSchemaID string) (*cast.Result, error) {
	from, ok := s.Get(fromID)
	if !ok {
		return nil, &EntityNotFoundError{fromID}
	}
	if from.IsSchema {
		return nil, &CastFromSchemaNotAllowedError{fromID}
	}

	to, ok := s.Get(toSchemaID)
	if !ok {
		return nil, &ObjectNotFoundError{toSchemaID}
	}

	fromSchemaID := from.SchemaID
	if fromSchemaID == "" {
		return nil, &SchemaForInstanceNotFoundError{fromID}
	}
	fromSchema, ok := s.Get(fromSchemaID)
	if !ok {
		return nil, &ObjectNotFoundError{fromSchemaID}
	}

	return from.Cast(to, fromSchema, s)
}

// IsMinorCompatible diffs two schema versions without touching
// instance data.
func (s *Store) IsMinorCompatible(oldSchemaID, newSchemaID string) *cast.Result {
	oldEntity, okOld := s.Get(oldSchemaID)
	newEntity, okNew := s.Get(newSchemaID)
	if !okOld || !okNew {
		res := cast.Compare(oldSchemaID, newSchemaID, map[string]any{}, map[string]any{})
		res.Direction = cast.DirectionUnknown
		res.IsFullyCompatible = false
		res.IsBackwardCompatible = false
		res.IsForwardCompatible = false
		res.IncompatibilityReasons = []string{"Schema not found"}
		res.BackwardErrors = []string{"Schema not found"}
		res.ForwardErrors = []string{"Schema not found"}
		return res
	}

	oldSchema, _ := oldEntity.Content.(map[string]any)
	newSchema, _ := newEntity.Content.(map[string]any)
	if oldSchema == nil {
		oldSchema = map[string]any{}
	}
	if newSchema == nil {
		newSchema = map[string]any{}
	}
	return cast.Compare(oldSchemaID, newSchemaID, oldSchema, newSchema)
}
