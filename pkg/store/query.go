package store

import (
	"fmt"
	"strings"

	"github.com/gts-labs/gts/pkg/gts"
)

// QueryResult holds the outcome of a store query. Results contains
// the matching entity contents in ID order, capped at Limit.
type QueryResult struct {
	Count   int              `json:"count"`
	Limit   int              `json:"limit"`
	Error   string           `json:"error,omitempty"`
	Results []map[string]any `json:"results"`
}

// Query filters entities by a GTS query expression.
//
// Supported forms:
//
//	gts.acme.core.events.event.v1~              exact match
//	gts.acme.core.events.*                      wildcard match
//	gts.acme.core.events.event.v1~[status=active]
//	gts.acme.core.*[status=active, category=*]
//
// Filter values compare against the stringified content field; the
// value "*" matches any non-empty field.
func (s *Store) Query(expr string, limit int) *QueryResult {
	res := &QueryResult{Limit: limit, Results: []map[string]any{}}

	base, filt, hasFilter := strings.Cut(expr, "[")
	basePattern := strings.TrimSpace(base)
	isWildcard := strings.Contains(basePattern, "*")

	filterStr := ""
	if hasFilter {
		if i := strings.LastIndex(filt, "]"); i >= 0 {
			filterStr = filt[:i]
		} else {
			filterStr = filt
		}
	}
	filters := parseQueryFilters(filterStr)

	var wildcard *gts.Wildcard
	if isWildcard {
		if !strings.HasSuffix(basePattern, ".*") && !strings.HasSuffix(basePattern, "~*") {
			res.Error = "Invalid query: wildcard patterns must end with .* or ~*"
			return res
		}
		w, err := gts.ParseWildcard(basePattern)
		if err != nil {
			res.Error = fmt.Sprintf("Invalid query: %s", err)
			return res
		}
		wildcard = w
	} else {
		if _, err := gts.ParseID(basePattern); err != nil {
			res.Error = fmt.Sprintf("Invalid query: %s", err)
			return res
		}
	}

	for _, e := range s.Items() {
		if len(res.Results) >= limit {
			break
		}
		content, ok := e.Content.(map[string]any)
		if !ok || e.ID == nil {
			continue
		}
		if !matchesIDPattern(e.ID, basePattern, wildcard) {
			continue
		}
		if !matchesFilters(content, filters) {
			continue
		}
		res.Results = append(res.Results, content)
	}

	res.Count = len(res.Results)
	return res
}

func parseQueryFilters(filterStr string) map[string]string {
	filters := map[string]string{}
	if filterStr == "" {
		return filters
	}
	for _, part := range strings.Split(filterStr, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		v = strings.Trim(v, `"`)
		v = strings.Trim(v, "'")
		filters[strings.TrimSpace(k)] = v
	}
	return filters
}

func matchesIDPattern(id *gts.ID, basePattern string, wildcard *gts.Wildcard) bool {
	if wildcard != nil {
		return id.Matches(wildcard)
	}
	// Exact patterns go through wildcard matching too, so a pattern
	// like gts.x.a.b.t.v1~ tolerates candidate minor versions.
	if w, err := gts.ParseWildcard(basePattern); err == nil {
		return id.Matches(w)
	}
	return id.String() == basePattern
}

func matchesFilters(content map[string]any, filters map[string]string) bool {
	for key, want := range filters {
		var got string
		if v, ok := content[key]; ok && v != nil {
			got = fmt.Sprint(v)
		}
		if want == "*" {
			if got == "" {
				return false
			}
		} else if got != want {
			return false
		}
	}
	return true
}
