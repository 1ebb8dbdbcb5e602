package cast

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/gts-labs/gts/pkg/gts"
)

// rootSchemaURL anchors the schema under compilation; referenced GTS
// schemas are registered under gts:///<id>.
const rootSchemaURL = "gts:///root.json"

// SchemaResolver supplies previously registered schema content for
// bare GTS identifiers appearing in $ref values.
type SchemaResolver interface {
	ResolveSchema(id string) (map[string]any, bool)
}

// CompileSchema compiles a schema with GTS-aware $ref resolution. The
// draft is taken from the schema's own $schema field, defaulting to
// Draft-07. Referenced GTS schemas are pulled from the resolver and
// registered transitively.
func CompileSchema(schema map[string]any, resolver SchemaResolver) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft7)

	if err := c.AddResource(rootSchemaURL, rewriteGTSRefs(schema, true)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	addRefResources(c, schema, resolver, map[string]bool{})

	return c.Compile(rootSchemaURL)
}

// Validate compiles the schema and validates the instance against it.
func Validate(instance any, schema map[string]any, resolver SchemaResolver) error {
	sch, err := CompileSchema(schema, resolver)
	if err != nil {
		return err
	}
	return sch.Validate(instance)
}

// ValidateWithTolerance validates like Validate but first relaxes
// const constraints whose value is a GTS identifier to plain string
// checks, so minor-version casting can restamp identifier fields.
func ValidateWithTolerance(instance any, schema map[string]any, resolver SchemaResolver) error {
	relaxed, _ := relaxGTSConsts(schema).(map[string]any)
	if relaxed == nil {
		relaxed = schema
	}
	return Validate(instance, relaxed, resolver)
}

// relaxGTSConsts rebuilds the schema with every GTS-identifier const
// replaced by a type:string constraint.
func relaxGTSConsts(schema any) any {
	m, ok := schema.(map[string]any)
	if !ok {
		return schema
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k == "const" {
			if s, ok := v.(string); ok && gts.IsValidID(s) {
				out["type"] = "string"
				continue
			}
		}
		switch val := v.(type) {
		case map[string]any:
			out[k] = relaxGTSConsts(val)
		case []any:
			list := make([]any, len(val))
			for i, item := range val {
				if sub, ok := item.(map[string]any); ok {
					list[i] = relaxGTSConsts(sub)
				} else {
					list[i] = item
				}
			}
			out[k] = list
		default:
			out[k] = v
		}
	}
	return out
}

// rewriteGTSRefs deep-copies a schema, rewriting $ref values that are
// GTS identifiers to gts:/// URLs so the compiler can resolve them as
// registered resources. The top-level $id is dropped to keep the
// caller-chosen resource URL authoritative.
func rewriteGTSRefs(schema any, topLevel bool) any {
	m, ok := schema.(map[string]any)
	if !ok {
		if list, ok := schema.([]any); ok {
			out := make([]any, len(list))
			for i, item := range list {
				out[i] = rewriteGTSRefs(item, false)
			}
			return out
		}
		return schema
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if topLevel && k == "$id" {
			continue
		}
		if k == "$ref" {
			if s, ok := v.(string); ok && gts.IsValidID(s) {
				out[k] = refURL(s)
				continue
			}
		}
		out[k] = rewriteGTSRefs(v, false)
	}
	return out
}

func refURL(id string) string {
	return "gts:///" + gts.Normalize(id)
}

// addRefResources registers every GTS schema the given schema
// references, transitively. Unresolvable references are left for the
// compiler to report.
func addRefResources(c *jsonschema.Compiler, schema any, resolver SchemaResolver, visited map[string]bool) {
	if resolver == nil {
		return
	}
	for _, id := range collectGTSRefs(schema, nil) {
		norm := gts.Normalize(id)
		if visited[norm] {
			continue
		}
		visited[norm] = true
		content, ok := resolver.ResolveSchema(norm)
		if !ok {
			continue
		}
		if err := c.AddResource(refURL(norm), rewriteGTSRefs(content, true)); err != nil {
			continue
		}
		addRefResources(c, content, resolver, visited)
	}
}

func collectGTSRefs(schema any, acc []string) []string {
	switch node := schema.(type) {
	case map[string]any:
		if s, ok := node["$ref"].(string); ok && gts.IsValidID(s) {
			acc = append(acc, s)
		}
		for _, v := range node {
			acc = collectGTSRefs(v, acc)
		}
	case []any:
		for _, item := range node {
			acc = collectGTSRefs(item, acc)
		}
	}
	return acc
}
