package cast

import (
	"fmt"
	"sort"
	"strings"
)

// CheckBackward reports whether new consumers can read old data.
// Adding required properties, adding enum values and tightening min or
// max constraints all break backward compatibility.
func CheckBackward(oldSchema, newSchema map[string]any) (bool, []string) {
	return checkCompatibility(oldSchema, newSchema, true)
}

// CheckForward reports whether old consumers can read new data.
// Removing required properties, removing enum values and relaxing min
// or max constraints all break forward compatibility.
func CheckForward(oldSchema, newSchema map[string]any) (bool, []string) {
	return checkCompatibility(oldSchema, newSchema, false)
}

// Compare runs the pure schema diff between two registered schema
// versions without touching any instance data.
func Compare(oldID, newID string, oldSchema, newSchema map[string]any) *Result {
	res := newResult(oldID, newID, inferDirection(oldID, newID))
	res.IsBackwardCompatible, res.BackwardErrors = CheckBackward(oldSchema, newSchema)
	res.IsForwardCompatible, res.ForwardErrors = CheckForward(oldSchema, newSchema)
	res.IsFullyCompatible = res.IsBackwardCompatible && res.IsForwardCompatible
	return res
}

func checkCompatibility(oldSchema, newSchema map[string]any, tightening bool) (bool, []string) {
	errs := []string{}

	oldFlat := flattenSchema(oldSchema)
	newFlat := flattenSchema(newSchema)

	oldProps, _ := oldFlat["properties"].(map[string]any)
	newProps, _ := newFlat["properties"].(map[string]any)
	oldRequired := stringSet(oldFlat["required"])
	newRequired := stringSet(newFlat["required"])

	if tightening {
		if newly := setDiff(newRequired, oldRequired); len(newly) > 0 {
			errs = append(errs, "Added required properties: "+strings.Join(newly, ", "))
		}
	} else {
		if gone := setDiff(oldRequired, newRequired); len(gone) > 0 {
			errs = append(errs, "Removed required properties: "+strings.Join(gone, ", "))
		}
	}

	for _, prop := range sortedKeys(oldProps) {
		oldProp, ok := oldProps[prop].(map[string]any)
		if !ok {
			continue
		}
		newProp, ok := newProps[prop].(map[string]any)
		if !ok {
			continue
		}

		oldType, _ := oldProp["type"].(string)
		newType, _ := newProp["type"].(string)
		if oldType != "" && newType != "" && oldType != newType {
			errs = append(errs, fmt.Sprintf("Property '%s' type changed from %s to %s", prop, oldType, newType))
		}

		oldEnum, _ := oldProp["enum"].([]any)
		newEnum, _ := newProp["enum"].([]any)
		if len(oldEnum) > 0 && len(newEnum) > 0 {
			if tightening {
				if added := enumDiff(newEnum, oldEnum); len(added) > 0 {
					errs = append(errs, fmt.Sprintf("Property '%s' added enum values: %s", prop, strings.Join(added, ", ")))
				}
			} else {
				if removed := enumDiff(oldEnum, newEnum); len(removed) > 0 {
					errs = append(errs, fmt.Sprintf("Property '%s' removed enum values: %s", prop, strings.Join(removed, ", ")))
				}
			}
		}

		errs = append(errs, checkConstraints(prop, oldProp, newProp, tightening)...)

		if oldType == "object" && newType == "object" {
			ok, nested := checkCompatibility(oldProp, newProp, tightening)
			if !ok {
				for _, err := range nested {
					errs = append(errs, fmt.Sprintf("Property '%s': %s", prop, err))
				}
			}
		}
	}

	return len(errs) == 0, errs
}

// checkConstraints compares the bound pair matching the property type:
// minimum/maximum for numbers, minLength/maxLength for strings,
// minItems/maxItems for arrays.
func checkConstraints(prop string, oldProp, newProp map[string]any, tightening bool) []string {
	switch oldProp["type"] {
	case "number", "integer":
		return checkMinMax(prop, oldProp, newProp, "minimum", "maximum", tightening)
	case "string":
		return checkMinMax(prop, oldProp, newProp, "minLength", "maxLength", tightening)
	case "array":
		return checkMinMax(prop, oldProp, newProp, "minItems", "maxItems", tightening)
	}
	return nil
}

func checkMinMax(prop string, oldProp, newProp map[string]any, minKey, maxKey string, tightening bool) []string {
	var errs []string

	oldMin, haveOldMin := toFloat(oldProp[minKey])
	newMin, haveNewMin := toFloat(newProp[minKey])
	switch {
	case haveOldMin && haveNewMin:
		if tightening && newMin > oldMin {
			errs = append(errs, fmt.Sprintf("Property '%s' %s increased from %v to %v", prop, minKey, oldProp[minKey], newProp[minKey]))
		} else if !tightening && newMin < oldMin {
			errs = append(errs, fmt.Sprintf("Property '%s' %s decreased from %v to %v", prop, minKey, oldProp[minKey], newProp[minKey]))
		}
	case tightening && !haveOldMin && haveNewMin:
		errs = append(errs, fmt.Sprintf("Property '%s' added %s constraint: %v", prop, minKey, newProp[minKey]))
	case !tightening && haveOldMin && !haveNewMin:
		errs = append(errs, fmt.Sprintf("Property '%s' removed %s constraint", prop, minKey))
	}

	oldMax, haveOldMax := toFloat(oldProp[maxKey])
	newMax, haveNewMax := toFloat(newProp[maxKey])
	switch {
	case haveOldMax && haveNewMax:
		if tightening && newMax < oldMax {
			errs = append(errs, fmt.Sprintf("Property '%s' %s decreased from %v to %v", prop, maxKey, oldProp[maxKey], newProp[maxKey]))
		} else if !tightening && newMax > oldMax {
			errs = append(errs, fmt.Sprintf("Property '%s' %s increased from %v to %v", prop, maxKey, oldProp[maxKey], newProp[maxKey]))
		}
	case tightening && !haveOldMax && haveNewMax:
		errs = append(errs, fmt.Sprintf("Property '%s' added %s constraint: %v", prop, maxKey, newProp[maxKey]))
	case !tightening && haveOldMax && !haveNewMax:
		errs = append(errs, fmt.Sprintf("Property '%s' removed %s constraint", prop, maxKey))
	}

	return errs
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func stringSet(v any) map[string]bool {
	set := map[string]bool{}
	list, ok := v.([]any)
	if !ok {
		return set
	}
	for _, item := range list {
		if s, ok := item.(string); ok {
			set[s] = true
		}
	}
	return set
}

// setDiff returns the sorted members of a not present in b.
func setDiff(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// enumDiff returns formatted members of a not present in b, comparing
// values by their canonical string form.
func enumDiff(a, b []any) []string {
	present := map[string]bool{}
	for _, v := range b {
		present[fmt.Sprint(v)] = true
	}
	var out []string
	seen := map[string]bool{}
	for _, v := range a {
		key := fmt.Sprint(v)
		if !present[key] && !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
