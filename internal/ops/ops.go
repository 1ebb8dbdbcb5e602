// Package ops is the operations facade shared by the CLI and the
// HTTP server. Every method returns a result value that serializes
// directly to the wire format; failures are reported in-band rather
// than as errors wherever the operation has a natural error field.
package ops

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gts-labs/gts/internal/loader"
	"github.com/gts-labs/gts/pkg/cast"
	"github.com/gts-labs/gts/pkg/entity"
	"github.com/gts-labs/gts/pkg/gts"
	"github.com/gts-labs/gts/pkg/pathres"
	"github.com/gts-labs/gts/pkg/store"
)

// Ops bundles the store with the entity configuration behind the
// operation set. The store pointer is swapped atomically on Reload so
// watch-triggered reloads are safe against concurrent readers.
type Ops struct {
	store  atomic.Pointer[store.Store]
	config *entity.Config
	logger *slog.Logger
}

// Options configures New. Paths are scanned for entities at startup;
// an empty list yields an empty registry.
type Options struct {
	Paths  []string
	Config *entity.Config
	Logger *slog.Logger
}

// New builds the facade and populates the store from the configured
// paths.
func New(opts Options) (*Ops, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = entity.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var reader store.Reader
	if len(opts.Paths) > 0 {
		reader = loader.NewFileReader(opts.Paths, cfg, logger)
	}
	s, err := store.New(store.Options{Reader: reader, Logger: logger})
	if err != nil {
		return nil, err
	}
	o := &Ops{config: cfg, logger: logger}
	o.store.Store(s)
	return o, nil
}

// Store exposes the current store snapshot.
func (o *Ops) Store() *store.Store { return o.store.Load() }

// Reload repopulates the store from the given paths, replacing all
// cached entities. In-flight readers keep the snapshot they loaded.
func (o *Ops) Reload(paths []string) error {
	s, err := store.New(store.Options{
		Reader: loader.NewFileReader(paths, o.config, o.logger),
		Logger: o.logger,
	})
	if err != nil {
		return err
	}
	o.store.Store(s)
	return nil
}

// ValidateID checks identifier syntax.
func (o *Ops) ValidateID(id string) *IDValidationResult {
	if _, err := gts.ParseID(id); err != nil {
		return &IDValidationResult{ID: id, Valid: false, Error: err.Error()}
	}
	return &IDValidationResult{ID: id, Valid: true}
}

// ParseID breaks an identifier into its segments.
func (o *Ops) ParseID(id string) *IDParseResult {
	parsed, err := gts.ParseID(id)
	if err != nil {
		return &IDParseResult{ID: id, OK: false, Segments: []*gts.Segment{}, Error: err.Error()}
	}
	return &IDParseResult{ID: id, OK: true, Segments: parsed.Segments()}
}

// MatchIDPattern matches a candidate identifier against a wildcard
// pattern.
func (o *Ops) MatchIDPattern(candidate, pattern string) *IDMatchResult {
	c, err := gts.ParseID(candidate)
	if err != nil {
		return &IDMatchResult{Candidate: candidate, Pattern: pattern, Error: err.Error()}
	}
	w, err := gts.ParseWildcard(pattern)
	if err != nil {
		return &IDMatchResult{Candidate: candidate, Pattern: pattern, Error: err.Error()}
	}
	return &IDMatchResult{Candidate: candidate, Pattern: pattern, Match: c.Matches(w)}
}

// UUID derives the deterministic UUID for an identifier.
func (o *Ops) UUID(id string) (*UUIDResult, error) {
	parsed, err := gts.ParseID(id)
	if err != nil {
		return nil, err
	}
	return &UUIDResult{ID: parsed.String(), UUID: parsed.UUID().String()}, nil
}

// ValidateInstance validates a stored instance against its schema.
func (o *Ops) ValidateInstance(id string) *ValidationResult {
	if err := o.Store().ValidateInstance(id); err != nil {
		return &ValidationResult{ID: id, OK: false, Error: err.Error()}
	}
	return &ValidationResult{ID: id, OK: true}
}

// ValidateSchema validates a stored schema document.
func (o *Ops) ValidateSchema(id string) *ValidationResult {
	if err := o.Store().ValidateSchema(id); err != nil {
		return &ValidationResult{ID: id, OK: false, Error: err.Error()}
	}
	return &ValidationResult{ID: id, OK: true}
}

// ValidateEntity validates either a schema or an instance, picked by
// the trailing '~'.
func (o *Ops) ValidateEntity(id string) *ValidationResult {
	if strings.HasSuffix(id, "~") {
		return o.ValidateSchema(id)
	}
	return o.ValidateInstance(id)
}

// SchemaGraph resolves the reference graph rooted at an entity.
func (o *Ops) SchemaGraph(id string) *store.GraphNode {
	return o.Store().SchemaGraph(id)
}

// Compatibility diffs two schema versions.
func (o *Ops) Compatibility(oldSchemaID, newSchemaID string) *cast.Result {
	return o.Store().IsMinorCompatible(oldSchemaID, newSchemaID)
}

// Cast migrates an instance to a target schema. Failures surface in
// the result's error field.
func (o *Ops) Cast(fromID, toSchemaID string) *cast.Result {
	res, err := o.Store().Cast(fromID, toSchemaID)
	if err != nil {
		return cast.ErrorResult(err.Error())
	}
	return res
}

// Query filters entities by a query expression.
func (o *Ops) Query(expr string, limit int) *store.QueryResult {
	return o.Store().Query(expr, limit)
}

// Attr resolves an attribute path inside an entity, addressed as
// "<id>@<path>".
func (o *Ops) Attr(idWithPath string) *pathres.Result {
	id, path, err := gts.SplitAtPath(idWithPath)
	if err != nil {
		return pathres.Failure(idWithPath, "", err.Error())
	}
	if path == "" {
		return pathres.Failure(id, "", "Attribute selector requires '@path' in the identifier")
	}
	e, ok := o.Store().Get(id)
	if !ok {
		return pathres.Failure(id, path, fmt.Sprintf("Entity not found: %s", id))
	}
	return e.ResolvePath(path)
}

// ExtractID derives identifier information from raw content without
// registering it.
func (o *Ops) ExtractID(content map[string]any) *ExtractIDResult {
	e := entity.New(entity.Params{Content: content, Config: o.config})
	res := &ExtractIDResult{
		SchemaID:              e.SchemaID,
		SelectedEntityField:   e.SelectedEntityField,
		SelectedSchemaIDField: e.SelectedSchemaIDField,
		IsSchema:              e.IsSchema,
	}
	if e.ID != nil {
		res.ID = e.ID.String()
	}
	return res
}

// GetEntity fetches one entity with its content.
func (o *Ops) GetEntity(id string) *GetEntityResult {
	e, ok := o.Store().Get(id)
	if !ok {
		return &GetEntityResult{OK: false, Error: fmt.Sprintf("Entity '%s' not found", id)}
	}
	return &GetEntityResult{
		OK:       true,
		ID:       e.ID.String(),
		SchemaID: e.SchemaID,
		IsSchema: e.IsSchema,
		Content:  e.Content,
	}
}

// GetEntities lists registered entities up to limit, reporting the
// total alongside.
func (o *Ops) GetEntities(limit int) *EntitiesListResult {
	items := o.Store().Items()
	total := len(items)
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	infos := make([]*EntityInfo, 0, len(items))
	for _, e := range items {
		infos = append(infos, &EntityInfo{
			ID:       e.ID.String(),
			SchemaID: e.SchemaID,
			IsSchema: e.IsSchema,
		})
	}
	return &EntitiesListResult{Entities: infos, Count: len(infos), Total: total}
}

// AddEntity registers raw content. Schemas are always validated;
// instances only when validate is set.
func (o *Ops) AddEntity(content map[string]any, validate bool) *AddEntityResult {
	e := entity.New(entity.Params{Content: content, Config: o.config})
	if e.ID == nil {
		return &AddEntityResult{OK: false, Error: "Unable to detect GTS ID in entity"}
	}
	// One snapshot for the whole operation, so validation sees the
	// entity just registered even if a reload lands in between.
	s := o.Store()
	if err := s.Register(e); err != nil {
		return &AddEntityResult{OK: false, Error: err.Error()}
	}

	if e.IsSchema {
		if err := s.ValidateSchema(e.ID.String()); err != nil {
			return &AddEntityResult{OK: false, Error: fmt.Sprintf("Validation failed: %s", err)}
		}
	} else if validate {
		if err := s.ValidateInstance(e.ID.String()); err != nil {
			return &AddEntityResult{OK: false, Error: fmt.Sprintf("Validation failed: %s", err)}
		}
	}

	return &AddEntityResult{
		OK:       true,
		ID:       e.ID.String(),
		SchemaID: e.SchemaID,
		IsSchema: e.IsSchema,
	}
}

// AddEntities registers a batch, reporting per-item outcomes.
func (o *Ops) AddEntities(items []map[string]any) *AddEntitiesResult {
	results := make([]*AddEntityResult, 0, len(items))
	ok := true
	for _, it := range items {
		r := o.AddEntity(it, false)
		ok = ok && r.OK
		results = append(results, r)
	}
	return &AddEntitiesResult{OK: ok, Results: results}
}

// AddSchema registers raw schema content under a type identifier.
func (o *Ops) AddSchema(typeID string, schema map[string]any) *AddSchemaResult {
	if err := o.Store().RegisterSchema(typeID, schema); err != nil {
		return &AddSchemaResult{OK: false, Error: err.Error()}
	}
	return &AddSchemaResult{OK: true, ID: typeID}
}
