// Package cast implements schema compatibility checking and
// best-effort instance migration between minor versions of a GTS type.
package cast

import (
	"fmt"
	"sort"

	"github.com/gts-labs/gts/pkg/gts"
)

// Cast directions.
const (
	DirectionUp      = "up"
	DirectionDown    = "down"
	DirectionNone    = "none"
	DirectionUnknown = "unknown"
)

// Cast migrates instance content from one schema to another and
// reports the full compatibility picture. Incompatibilities never
// abort the call: partial results with accumulated reasons are always
// returned.
func Cast(fromID, toSchemaID string, instance any, fromSchema, toSchema map[string]any, resolver SchemaResolver) *Result {
	target := flattenSchema(toSchema)
	direction := inferDirection(fromID, toSchemaID)

	// Direction decides which side counts as old for the diff.
	oldSchema, newSchema := fromSchema, toSchema
	if direction == DirectionDown {
		oldSchema, newSchema = toSchema, fromSchema
	}

	res := newResult(fromID, toSchemaID, direction)
	res.IsBackwardCompatible, res.BackwardErrors = CheckBackward(oldSchema, newSchema)
	res.IsForwardCompatible, res.ForwardErrors = CheckForward(oldSchema, newSchema)

	inst, ok := instance.(map[string]any)
	if !ok {
		res.Error = "Instance must be an object for casting"
		return res
	}

	casted, added, removed, reasons := castToSchema(deepCopyMap(inst), target, "")
	res.AddedProperties = sortedUnique(added)
	res.RemovedProperties = sortedUnique(removed)
	res.IncompatibilityReasons = reasons

	// Full compatibility reflects the final validation alone; reasons
	// accumulated during migration do not gate it.
	if err := ValidateWithTolerance(casted, toSchema, resolver); err != nil {
		res.IncompatibilityReasons = append(res.IncompatibilityReasons, err.Error())
	} else {
		res.IsFullyCompatible = true
	}
	res.CastedEntity = casted

	return res
}

// inferDirection compares the minor versions of the final segments of
// both identifiers. Without minors on both sides the direction is
// unknown.
func inferDirection(fromID, toID string) string {
	from, err := gts.ParseID(fromID)
	if err != nil {
		return DirectionUnknown
	}
	to, err := gts.ParseID(toID)
	if err != nil {
		return DirectionUnknown
	}
	fromSegs, toSegs := from.Segments(), to.Segments()
	fromMinor := fromSegs[len(fromSegs)-1].VerMinor
	toMinor := toSegs[len(toSegs)-1].VerMinor
	if fromMinor == nil || toMinor == nil {
		return DirectionUnknown
	}
	switch {
	case *toMinor > *fromMinor:
		return DirectionUp
	case *toMinor < *fromMinor:
		return DirectionDown
	default:
		return DirectionNone
	}
}

// castToSchema applies the migration rules against a flattened target
// schema: fill defaults for missing properties, stamp GTS const
// values, drop extraneous properties under additionalProperties:false,
// then recurse into nested objects and arrays of objects.
func castToSchema(instance, schema map[string]any, basePath string) (map[string]any, []string, []string, []string) {
	var added, removed, reasons []string

	targetProps, _ := schema["properties"].(map[string]any)
	if targetProps == nil {
		targetProps = map[string]any{}
	}
	required := map[string]bool{}
	if reqList, ok := schema["required"].([]any); ok {
		for _, r := range reqList {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}

	result := make(map[string]any, len(instance))
	for k, v := range instance {
		result[k] = v
	}

	// Required properties are filled from defaults; a required property
	// without a default is an incompatibility, not an abort.
	for _, prop := range sortedKeysBool(required) {
		if _, ok := result[prop]; ok {
			continue
		}
		path := joinPath(basePath, prop)
		if pSchema, ok := targetProps[prop].(map[string]any); ok {
			if def, ok := pSchema["default"]; ok {
				result[prop] = deepCopyValue(def)
				added = append(added, path)
				continue
			}
		}
		reasons = append(reasons, fmt.Sprintf("Missing required property '%s' and no default is defined", path))
	}

	// Optional properties with defaults are filled too.
	for _, prop := range sortedKeys(targetProps) {
		if required[prop] {
			continue
		}
		if _, ok := result[prop]; ok {
			continue
		}
		pSchema, ok := targetProps[prop].(map[string]any)
		if !ok {
			continue
		}
		if def, ok := pSchema["default"]; ok {
			result[prop] = deepCopyValue(def)
			added = append(added, joinPath(basePath, prop))
		}
	}

	// Const values that are GTS identifiers get restamped to the target
	// schema's value. This is the expected effect of version casting,
	// so it is not reported as a change.
	for _, prop := range sortedKeys(targetProps) {
		pSchema, ok := targetProps[prop].(map[string]any)
		if !ok {
			continue
		}
		constVal, ok := pSchema["const"].(string)
		if !ok {
			continue
		}
		oldVal, ok := result[prop].(string)
		if !ok {
			continue
		}
		if gts.IsValidID(constVal) && gts.IsValidID(oldVal) && oldVal != constVal {
			result[prop] = constVal
		}
	}

	if ap, ok := schema["additionalProperties"].(bool); ok && !ap {
		for _, prop := range sortedKeys(result) {
			if _, ok := targetProps[prop]; !ok {
				delete(result, prop)
				removed = append(removed, joinPath(basePath, prop))
			}
		}
	}

	for _, prop := range sortedKeys(targetProps) {
		val, ok := result[prop]
		if !ok {
			continue
		}
		pSchema, ok := targetProps[prop].(map[string]any)
		if !ok {
			continue
		}
		switch pSchema["type"] {
		case "object":
			obj, ok := val.(map[string]any)
			if !ok {
				continue
			}
			nested := effectiveObjectSchema(pSchema)
			newObj, addSub, remSub, reasonsSub := castToSchema(obj, nested, joinPath(basePath, prop))
			result[prop] = newObj
			added = append(added, addSub...)
			removed = append(removed, remSub...)
			reasons = append(reasons, reasonsSub...)
		case "array":
			list, ok := val.([]any)
			if !ok {
				continue
			}
			items, ok := pSchema["items"].(map[string]any)
			if !ok || items["type"] != "object" {
				continue
			}
			nested := effectiveObjectSchema(items)
			newList := make([]any, 0, len(list))
			for idx, item := range list {
				obj, ok := item.(map[string]any)
				if !ok {
					newList = append(newList, item)
					continue
				}
				itemPath := fmt.Sprintf("%s[%d]", joinPath(basePath, prop), idx)
				newItem, addSub, remSub, reasonsSub := castToSchema(obj, nested, itemPath)
				newList = append(newList, newItem)
				added = append(added, addSub...)
				removed = append(removed, remSub...)
				reasons = append(reasons, reasonsSub...)
			}
			result[prop] = newList
		}
	}

	return result, added, removed, reasons
}

func joinPath(base, prop string) string {
	if base == "" {
		return prop
	}
	return base + "." + prop
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysBool(m map[string]bool) []string {
	return sortedKeys(m)
}

func sortedUnique(items []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	sort.Strings(out)
	return out
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}
