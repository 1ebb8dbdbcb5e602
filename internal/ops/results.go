package ops

import "github.com/gts-labs/gts/pkg/gts"

// IDValidationResult reports whether an identifier is well formed.
type IDValidationResult struct {
	ID    string `json:"id"`
	Valid bool   `json:"valid"`
	Error string `json:"error"`
}

// IDParseResult carries the parsed segments of an identifier.
type IDParseResult struct {
	ID       string         `json:"id"`
	OK       bool           `json:"ok"`
	Segments []*gts.Segment `json:"segments"`
	Error    string         `json:"error"`
}

// IDMatchResult reports a pattern match outcome.
type IDMatchResult struct {
	Candidate string `json:"candidate"`
	Pattern   string `json:"pattern"`
	Match     bool   `json:"match"`
	Error     string `json:"error,omitempty"`
}

// UUIDResult pairs an identifier with its derived UUID.
type UUIDResult struct {
	ID   string `json:"id"`
	UUID string `json:"uuid"`
}

// ValidationResult reports schema or instance validation.
type ValidationResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// EntityInfo is the listing view of one entity.
type EntityInfo struct {
	ID       string `json:"id"`
	SchemaID string `json:"schema_id"`
	IsSchema bool   `json:"is_schema"`
}

// GetEntityResult carries a single entity with its content.
type GetEntityResult struct {
	OK       bool   `json:"ok"`
	ID       string `json:"id,omitempty"`
	SchemaID string `json:"schema_id,omitempty"`
	IsSchema bool   `json:"is_schema,omitempty"`
	Content  any    `json:"content,omitempty"`
	Error    string `json:"error,omitempty"`
}

// EntitiesListResult is a bounded listing with the unbounded total.
type EntitiesListResult struct {
	Entities []*EntityInfo `json:"entities"`
	Count    int           `json:"count"`
	Total    int           `json:"total"`
}

// AddEntityResult reports a single registration.
type AddEntityResult struct {
	OK       bool   `json:"ok"`
	ID       string `json:"id,omitempty"`
	SchemaID string `json:"schema_id,omitempty"`
	IsSchema bool   `json:"is_schema,omitempty"`
	Error    string `json:"error,omitempty"`
}

// AddEntitiesResult reports a batch registration.
type AddEntitiesResult struct {
	OK      bool               `json:"ok"`
	Results []*AddEntityResult `json:"results"`
}

// AddSchemaResult reports a schema registration.
type AddSchemaResult struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

// ExtractIDResult reports identifier detection over raw content.
type ExtractIDResult struct {
	ID                    string `json:"id"`
	SchemaID              string `json:"schema_id"`
	SelectedEntityField   string `json:"selected_entity_field"`
	SelectedSchemaIDField string `json:"selected_schema_id_field"`
	IsSchema              bool   `json:"is_schema"`
}
