package cast

// flattenSchema merges a schema's allOf branches into a single object
// schema. Properties merge with later branches winning, required lists
// concatenate, and the last additionalProperties seen wins with a
// top-level one overriding all branches.
func flattenSchema(schema map[string]any) map[string]any {
	props := map[string]any{}
	required := []any{}
	out := map[string]any{"properties": props, "required": required}

	if allOf, ok := schema["allOf"].([]any); ok {
		for _, part := range allOf {
			sub, ok := part.(map[string]any)
			if !ok {
				continue
			}
			flat := flattenSchema(sub)
			if fp, ok := flat["properties"].(map[string]any); ok {
				for k, v := range fp {
					props[k] = v
				}
			}
			if fr, ok := flat["required"].([]any); ok {
				required = append(required, fr...)
			}
			if ap, ok := flat["additionalProperties"]; ok {
				out["additionalProperties"] = ap
			}
		}
	}

	if p, ok := schema["properties"].(map[string]any); ok {
		for k, v := range p {
			props[k] = v
		}
	}
	if r, ok := schema["required"].([]any); ok {
		required = append(required, r...)
	}
	if ap, ok := schema["additionalProperties"]; ok {
		out["additionalProperties"] = ap
	}

	out["required"] = required
	return out
}

// effectiveObjectSchema unwraps a property schema to the part carrying
// properties or required, looking inside allOf when the top level has
// neither.
func effectiveObjectSchema(s map[string]any) map[string]any {
	if _, ok := s["properties"].(map[string]any); ok {
		return s
	}
	if _, ok := s["required"].([]any); ok {
		return s
	}
	if allOf, ok := s["allOf"].([]any); ok {
		for _, part := range allOf {
			sub, ok := part.(map[string]any)
			if !ok {
				continue
			}
			if _, ok := sub["properties"].(map[string]any); ok {
				return sub
			}
			if _, ok := sub["required"].([]any); ok {
				return sub
			}
		}
	}
	return s
}
