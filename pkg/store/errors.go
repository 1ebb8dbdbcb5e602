package store

import (
	"fmt"
	"strings"
)

// EntityNotFoundError reports a lookup miss for any entity kind.
type EntityNotFoundError struct {
	ID string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("JSON entity with GTS ID '%s' not found in store", e.ID)
}

// ObjectNotFoundError reports a lookup miss for an instance object.
type ObjectNotFoundError struct {
	ID string
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("JSON object with GTS ID '%s' not found in store", e.ID)
}

// SchemaNotFoundError reports a lookup miss for a schema.
type SchemaNotFoundError struct {
	ID string
}

func (e *SchemaNotFoundError) Error() string {
	return fmt.Sprintf("JSON schema with GTS ID '%s' not found in store", e.ID)
}

// SchemaForInstanceNotFoundError reports that an instance declares no
// resolvable schema identifier.
type SchemaForInstanceNotFoundError struct {
	ID string
}

func (e *SchemaForInstanceNotFoundError) Error() string {
	return fmt.Sprintf("Can't determine JSON schema ID for instance with GTS ID '%s'", e.ID)
}

// CastFromSchemaNotAllowedError reports a cast attempt whose source is
// a schema identifier instead of an instance.
type CastFromSchemaNotAllowedError struct {
	FromID string
}

func (e *CastFromSchemaNotAllowedError) Error() string {
	return fmt.Sprintf("Cannot cast from schema ID '%s'. The from_id must be an instance (not ending with '~').", e.FromID)
}

// ValidationError aggregates keyword and x-gts-ref violations from one
// validation run.
type ValidationError struct {
	Context  string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Context, strings.Join(e.Problems, "; "))
}
