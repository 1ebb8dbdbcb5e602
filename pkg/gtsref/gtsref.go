// Package gtsref validates the x-gts-ref schema extension: a keyword
// constraining which GTS identifiers a string field may hold, either
// as an absolute pattern or as a JSON Pointer into the same schema.
package gtsref

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gts-labs/gts/pkg/gts"
)

// Keyword is the schema extension key this package validates.
const Keyword = "x-gts-ref"

// Resolver checks whether a referenced entity is registered. It is
// optional: without one, existence checks are skipped.
type Resolver interface {
	Has(id string) bool
}

// RefError is one x-gts-ref violation at a field path.
type RefError struct {
	FieldPath  string `json:"field_path"`
	Value      any    `json:"value"`
	RefPattern string `json:"ref_pattern"`
	Reason     string `json:"reason"`
}

func (e *RefError) Error() string {
	return fmt.Sprintf("x-gts-ref validation failed for field '%s': %s", e.FieldPath, e.Reason)
}

// Validator checks x-gts-ref constraints on schemas and instances.
type Validator struct {
	resolver Resolver
}

// NewValidator builds a validator. resolver may be nil.
func NewValidator(resolver Resolver) *Validator {
	return &Validator{resolver: resolver}
}

// ValidateSchema recursively checks every x-gts-ref declaration in the
// schema. Valid values are absolute GTS patterns or '/'-rooted JSON
// Pointers resolving, within the same schema, to a valid identifier.
func (v *Validator) ValidateSchema(schema map[string]any) []*RefError {
	var errs []*RefError
	v.visitSchema(schema, "", schema, &errs)
	return errs
}

func (v *Validator) visitSchema(sch any, path string, root map[string]any, errs *[]*RefError) {
	m, ok := sch.(map[string]any)
	if !ok {
		return
	}

	if refValue, ok := m[Keyword]; ok {
		refPath := Keyword
		if path != "" {
			refPath = path + "/" + Keyword
		}
		if err := v.checkRefPattern(refValue, refPath, root); err != nil {
			*errs = append(*errs, err)
		}
	}

	for _, key := range sortedKeys(m) {
		if key == Keyword {
			continue
		}
		nested := key
		if path != "" {
			nested = path + "/" + key
		}
		switch val := m[key].(type) {
		case map[string]any:
			v.visitSchema(val, nested, root, errs)
		case []any:
			for i, item := range val {
				if sub, ok := item.(map[string]any); ok {
					v.visitSchema(sub, fmt.Sprintf("%s[%d]", nested, i), root, errs)
				}
			}
		}
	}
}

// ValidateInstance walks instance data alongside its schema and checks
// every string value whose schema node declares x-gts-ref.
func (v *Validator) ValidateInstance(instance any, schema map[string]any) []*RefError {
	var errs []*RefError
	v.visitInstance(instance, schema, "", schema, &errs)
	return errs
}

func (v *Validator) visitInstance(inst, sch any, path string, root map[string]any, errs *[]*RefError) {
	m, ok := sch.(map[string]any)
	if !ok {
		return
	}

	if pattern, ok := m[Keyword]; ok {
		if s, ok := inst.(string); ok {
			if err := v.checkRefValue(s, pattern, path, root); err != nil {
				*errs = append(*errs, err)
			}
		}
	}

	if m["type"] == "object" {
		props, okProps := m["properties"].(map[string]any)
		obj, okObj := inst.(map[string]any)
		if okProps && okObj {
			for _, name := range sortedKeys(props) {
				val, ok := obj[name]
				if !ok {
					continue
				}
				propPath := name
				if path != "" {
					propPath = path + "." + name
				}
				v.visitInstance(val, props[name], propPath, root, errs)
			}
		}
	}

	if m["type"] == "array" {
		items, okItems := m["items"]
		list, okList := inst.([]any)
		if okItems && okList {
			for i, item := range list {
				v.visitInstance(item, items, fmt.Sprintf("%s[%d]", path, i), root, errs)
			}
		}
	}
}

// checkRefPattern validates a schema-side x-gts-ref declaration.
func (v *Validator) checkRefPattern(refValue any, fieldPath string, root map[string]any) *RefError {
	pattern, ok := refValue.(string)
	if !ok {
		return &RefError{fieldPath, refValue, "", fmt.Sprintf("x-gts-ref value must be a string, got %T", refValue)}
	}

	if strings.HasPrefix(pattern, "gts.") {
		return v.checkIDOrPattern(pattern, fieldPath)
	}

	if strings.HasPrefix(pattern, "/") {
		resolved, ok := resolvePointer(root, pattern)
		if !ok {
			return &RefError{fieldPath, pattern, pattern, fmt.Sprintf("Cannot resolve reference path '%s'", pattern)}
		}
		if !gts.IsValidID(resolved) {
			return &RefError{fieldPath, pattern, pattern, fmt.Sprintf("Resolved reference '%s' -> '%s' is not a valid GTS identifier", pattern, resolved)}
		}
		return nil
	}

	return &RefError{fieldPath, pattern, pattern, fmt.Sprintf("Invalid x-gts-ref value: '%s' must start with 'gts.' or '/'", pattern)}
}

func (v *Validator) checkIDOrPattern(pattern, fieldPath string) *RefError {
	if pattern == "gts.*" {
		return nil
	}
	if strings.Contains(pattern, "*") {
		prefix := strings.TrimRight(pattern, "*")
		if !strings.HasPrefix(prefix, "gts.") {
			return &RefError{fieldPath, pattern, pattern, "Invalid GTS wildcard pattern: " + pattern}
		}
		return nil
	}
	if !gts.IsValidID(pattern) {
		return &RefError{fieldPath, pattern, pattern, "Invalid GTS identifier: " + pattern}
	}
	return nil
}

// checkRefValue validates an instance value against its x-gts-ref
// constraint, resolving '/'-rooted patterns against the schema first.
func (v *Validator) checkRefValue(value string, refValue any, fieldPath string, root map[string]any) *RefError {
	pattern, ok := refValue.(string)
	if !ok {
		return &RefError{fieldPath, value, "", fmt.Sprintf("x-gts-ref value must be a string, got %T", refValue)}
	}

	if strings.HasPrefix(pattern, "/") {
		resolved, ok := resolvePointer(root, pattern)
		if !ok {
			return &RefError{fieldPath, value, pattern, fmt.Sprintf("Cannot resolve reference path '%s'", pattern)}
		}
		if !strings.HasPrefix(resolved, "gts.") {
			return &RefError{fieldPath, value, pattern, fmt.Sprintf("Resolved reference '%s' -> '%s' is not a GTS pattern", pattern, resolved)}
		}
		pattern = resolved
	}

	return v.checkPatternMatch(value, pattern, fieldPath)
}

// checkPatternMatch enforces the three-step instance check: syntactic
// validity, pattern match (exact for bare patterns, prefix for
// *-suffixed ones, unconditional for gts.*), and registry existence
// when a resolver is present.
func (v *Validator) checkPatternMatch(value, pattern, fieldPath string) *RefError {
	if !gts.IsValidID(value) {
		return &RefError{fieldPath, value, pattern, fmt.Sprintf("Value '%s' is not a valid GTS identifier", value)}
	}

	switch {
	case pattern == "gts.*":
	case strings.HasSuffix(pattern, "*"):
		if !strings.HasPrefix(value, pattern[:len(pattern)-1]) {
			return &RefError{fieldPath, value, pattern, fmt.Sprintf("Value '%s' does not match pattern '%s'", value, pattern)}
		}
	default:
		if value != pattern {
			return &RefError{fieldPath, value, pattern, fmt.Sprintf("Value '%s' does not match pattern '%s'", value, pattern)}
		}
	}

	if v.resolver != nil && !v.resolver.Has(value) {
		return &RefError{fieldPath, value, pattern, fmt.Sprintf("Referenced entity '%s' not found in registry", value)}
	}

	return nil
}

// resolvePointer walks a '/'-separated pointer through nested objects.
// A string target is returned with its URI prefix stripped; an object
// target carrying its own x-gts-ref is followed one more hop.
func resolvePointer(schema map[string]any, pointer string) (string, bool) {
	path := strings.TrimLeft(pointer, "/")
	if path == "" {
		return "", false
	}

	var current any = schema
	for _, part := range strings.Split(path, "/") {
		m, ok := current.(map[string]any)
		if !ok {
			return "", false
		}
		current, ok = m[part]
		if !ok || current == nil {
			return "", false
		}
	}

	if s, ok := current.(string); ok {
		return gts.Normalize(s), true
	}

	if m, ok := current.(map[string]any); ok {
		if ref, ok := m[Keyword].(string); ok {
			if strings.HasPrefix(ref, "/") {
				return resolvePointer(schema, ref)
			}
			return gts.Normalize(ref), true
		}
	}

	return "", false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
