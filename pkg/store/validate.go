package store

import (
	"fmt"
	"strings"

	"github.com/gts-labs/gts/pkg/cast"
	"github.com/gts-labs/gts/pkg/gts"
	"github.com/gts-labs/gts/pkg/gtsref"
)

// ValidateSchema runs JSON Schema meta-validation (draft inferred from
// the schema's own $schema, Draft-07 by default) followed by x-gts-ref
// validation.
func (s *Store) ValidateSchema(id string) error {
	if !strings.HasSuffix(id, "~") {
		return fmt.Errorf("ID '%s' is not a schema (must end with '~')", id)
	}

	e, ok := s.Get(id)
	if !ok {
		return &SchemaNotFoundError{id}
	}
	if !e.IsSchema {
		return fmt.Errorf("Entity '%s' is not a schema", id)
	}
	content, ok := e.Content.(map[string]any)
	if !ok {
		return fmt.Errorf("schema '%s' content must be an object", id)
	}

	s.logger.Debug("validating schema", "id", id)

	// Compiling performs the meta-schema check.
	if _, err := cast.CompileSchema(content, s); err != nil {
		return fmt.Errorf("JSON Schema validation failed for '%s': %w", id, err)
	}

	if errs := gtsref.NewValidator(s).ValidateSchema(content); len(errs) > 0 {
		problems := make([]string, len(errs))
		for i, e := range errs {
			problems[i] = fmt.Sprintf("%s: %s", e.FieldPath, e.Reason)
		}
		return &ValidationError{Context: "Schema x-gts-ref validation failed", Problems: problems}
	}

	return nil
}

// ValidateInstance validates an instance against its declared schema
// and then checks x-gts-ref constraints with registry existence
// lookups.
func (s *Store) ValidateInstance(id string) error {
	parsed, err := gts.ParseID(id)
	if err != nil {
		return err
	}

	e, ok := s.Get(parsed.String())
	if !ok {
		return &ObjectNotFoundError{id}
	}
	if e.SchemaID == "" {
		return &SchemaForInstanceNotFoundError{parsed.String()}
	}
	schema, err := s.SchemaContent(e.SchemaID)
	if err != nil {
		return &SchemaNotFoundError{e.SchemaID}
	}

	s.logger.Debug("validating instance", "id", id, "schema", e.SchemaID)

	if err := cast.Validate(e.Content, schema, s); err != nil {
		return &ValidationError{
			Context:  fmt.Sprintf("Instance validation failed for '%s'", id),
			Problems: []string{err.Error()},
		}
	}

	if errs := gtsref.NewValidator(s).ValidateInstance(e.Content, schema); len(errs) > 0 {
		problems := make([]string, len(errs))
		for i, e := range errs {
			problems[i] = fmt.Sprintf("%s: %s", e.FieldPath, e.Reason)
		}
		return &ValidationError{Context: "x-gts-ref validation failed", Problems: problems}
	}

	return nil
}
