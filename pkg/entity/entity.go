// Package entity wraps decoded JSON/YAML documents with their GTS
// identity: the identifier and schema identifier derived from
// configured document fields, plus every GTS reference found in the
// content.
package entity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gts-labs/gts/pkg/cast"
	"github.com/gts-labs/gts/pkg/gts"
	"github.com/gts-labs/gts/pkg/pathres"
)

// Ref is one identifier occurrence inside an entity's content.
type Ref struct {
	ID         string `json:"id"`
	SourcePath string `json:"sourcePath"`
}

// Entity is an identified JSON document. All derived fields are
// computed once in New; entities are not mutated afterwards.
type Entity struct {
	ID          *gts.ID
	IsSchema    bool
	File        *File
	ListSequence *int
	Label       string
	Content     any
	Description string
	SchemaID    string

	// Refs are GTS identifier strings found anywhere in the content,
	// SchemaRefs are $ref values (schemas only).
	Refs       []Ref
	SchemaRefs []Ref

	// The content fields the identifiers were taken from, if any.
	SelectedEntityField   string
	SelectedSchemaIDField string
}

// Params carries the inputs for New. Supplying Config enables
// identifier derivation from content fields; an explicit ID wins over
// derivation.
type Params struct {
	File         *File
	ListSequence *int
	Content      any
	Config       *Config
	ID           *gts.ID
	IsSchema     bool
	Label        string
	SchemaID     string
}

// New builds an entity from raw content, deriving schema detection,
// identifiers, label, description and references.
func New(p Params) *Entity {
	e := &Entity{
		ID:           p.ID,
		IsSchema:     p.IsSchema,
		File:         p.File,
		ListSequence: p.ListSequence,
		Label:        p.Label,
		Content:      p.Content,
		SchemaID:     p.SchemaID,
	}

	if e.Content != nil && isJSONSchemaDoc(e.Content) {
		e.IsSchema = true
	}

	if p.Config != nil {
		idv := e.calcEntityID(p.Config)
		e.SchemaID = e.calcSchemaID(p.Config)
		if !gts.IsValidID(idv) && gts.IsValidID(e.SchemaID) {
			idv = e.SchemaID
		}
		if id, err := gts.ParseID(idv); err == nil {
			e.ID = id
		}
		if gts.IsValidID(e.SchemaID) {
			e.SchemaID = gts.Normalize(e.SchemaID)
		}
	}

	switch {
	case e.File != nil && e.ListSequence != nil:
		e.Label = fmt.Sprintf("%s#%d", e.File.Name, *e.ListSequence)
	case e.File != nil:
		e.Label = e.File.Name
	case e.ID != nil:
		e.Label = e.ID.String()
	}

	if m, ok := e.Content.(map[string]any); ok {
		if d, ok := m["description"].(string); ok {
			e.Description = d
		}
	}

	e.Refs = extractGTSRefs(e.Content)
	if e.IsSchema {
		e.SchemaRefs = extractSchemaRefs(e.Content)
	}

	return e
}

// isJSONSchemaDoc detects JSON Schema documents strictly by their
// $schema meta-schema URL. GTS-flavored $schema values mark instances
// of a GTS type, not schemas.
func isJSONSchemaDoc(content any) bool {
	m, ok := content.(map[string]any)
	if !ok {
		return false
	}
	url, ok := m["$schema"].(string)
	if !ok {
		return false
	}
	return strings.HasPrefix(url, "http://json-schema.org/") ||
		strings.HasPrefix(url, "https://json-schema.org/")
}

func (e *Entity) fieldValue(field string) string {
	m, ok := e.Content.(map[string]any)
	if !ok {
		return ""
	}
	v, ok := m[field].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return ""
	}
	return v
}

// firstNonEmptyField probes fields in order, preferring the first one
// holding a valid identifier over the first one holding anything.
func (e *Entity) firstNonEmptyField(fields []string) (string, string) {
	for _, f := range fields {
		if v := e.fieldValue(f); v != "" && gts.IsValidID(v) {
			return f, v
		}
	}
	for _, f := range fields {
		if v := e.fieldValue(f); v != "" {
			return f, v
		}
	}
	return "", ""
}

func (e *Entity) calcEntityID(cfg *Config) string {
	if f, v := e.firstNonEmptyField(cfg.EntityIDFields); f != "" {
		e.SelectedEntityField = f
		return v
	}
	if e.File != nil && e.ListSequence != nil {
		return fmt.Sprintf("%s#%d", e.File.Path, *e.ListSequence)
	}
	if e.File != nil {
		return e.File.Path
	}
	return ""
}

func (e *Entity) calcSchemaID(cfg *Config) string {
	if f, v := e.firstNonEmptyField(cfg.SchemaIDFields); f != "" {
		e.SelectedSchemaIDField = f
		return v
	}
	// Fall back to the entity identifier's type chain.
	idv := e.calcEntityID(cfg)
	if gts.IsValidID(idv) {
		norm := gts.Normalize(idv)
		if strings.HasSuffix(norm, "~") {
			return norm
		}
		if last := strings.LastIndex(norm, "~"); last > 0 {
			e.SelectedSchemaIDField = e.SelectedEntityField
			return norm[:last+1]
		}
	}
	if e.File != nil && e.ListSequence != nil {
		return fmt.Sprintf("%s#%d", e.File.Path, *e.ListSequence)
	}
	if e.File != nil {
		return e.File.Path
	}
	return ""
}

// ResolvePath resolves a dotted attribute path within the content.
func (e *Entity) ResolvePath(path string) *pathres.Result {
	idStr := ""
	if e.ID != nil {
		idStr = e.ID.String()
	}
	return pathres.Resolve(idStr, e.Content, path)
}

// Cast migrates this entity's content from one schema to another.
// Schemas cast their own content, so the source schema must be the
// entity itself unless the source has no identifier at all.
func (e *Entity) Cast(to, from *Entity, resolver cast.SchemaResolver) (*cast.Result, error) {
	if e.ID == nil {
		return nil, fmt.Errorf("entity has no GTS identifier")
	}
	if e.IsSchema && from.ID != nil && e.ID.String() != from.ID.String() {
		return nil, fmt.Errorf("internal error: %s != %s", e.ID.String(), from.ID.String())
	}
	if !to.IsSchema {
		return nil, fmt.Errorf("target must be a schema")
	}
	if !from.IsSchema {
		return nil, fmt.Errorf("source schema must be a schema")
	}
	if to.ID == nil {
		return nil, fmt.Errorf("target schema has no GTS identifier")
	}
	fromSchema, ok := from.Content.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("source schema content must be an object")
	}
	toSchema, ok := to.Content.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("target schema content must be an object")
	}
	return cast.Cast(e.ID.String(), to.ID.String(), e.Content, fromSchema, toSchema, resolver), nil
}

// Graph summarizes the entity's outgoing references by source path.
type Graph struct {
	ID       string            `json:"id"`
	SchemaID string            `json:"schema_id"`
	Refs     map[string]string `json:"refs"`
}

// RefGraph returns the entity's reference map keyed by source path.
func (e *Entity) RefGraph() *Graph {
	g := &Graph{SchemaID: e.SchemaID, Refs: map[string]string{}}
	if e.ID != nil {
		g.ID = e.ID.String()
	}
	for _, r := range e.Refs {
		g.Refs[r.SourcePath] = r.ID
	}
	return g
}

// extractGTSRefs walks content collecting every string that parses as
// a GTS identifier. Object keys are visited in sorted order so ref
// lists are deterministic.
func extractGTSRefs(content any) []Ref {
	var found []Ref
	walk(content, "", func(node any, path string) {
		s, ok := node.(string)
		if !ok || !gts.IsValidID(s) {
			return
		}
		if path == "" {
			path = "root"
		}
		// URI-prefixed refs normalize to the bare identifier so graph
		// traversal and store lookups see one spelling.
		found = append(found, Ref{ID: gts.Normalize(s), SourcePath: path})
	})
	return dedupeRefs(found)
}

func extractSchemaRefs(content any) []Ref {
	var found []Ref
	walk(content, "", func(node any, path string) {
		m, ok := node.(map[string]any)
		if !ok {
			return
		}
		ref, ok := m["$ref"].(string)
		if !ok {
			return
		}
		refPath := "$ref"
		if path != "" {
			refPath = path + ".$ref"
		}
		found = append(found, Ref{ID: gts.Normalize(ref), SourcePath: refPath})
	})
	return dedupeRefs(found)
}

func walk(node any, path string, visit func(node any, path string)) {
	if node == nil {
		return
	}
	visit(node, path)
	switch n := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			next := k
			if path != "" {
				next = path + "." + k
			}
			walk(n[k], next, visit)
		}
	case []any:
		for i, item := range n {
			walk(item, fmt.Sprintf("%s[%d]", path, i), visit)
		}
	}
}

func dedupeRefs(refs []Ref) []Ref {
	seen := map[string]bool{}
	out := make([]Ref, 0, len(refs))
	for _, r := range refs {
		key := r.ID + "|" + r.SourcePath
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
