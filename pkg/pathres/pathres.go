// Package pathres resolves dotted attribute paths against decoded JSON
// values. Paths accept '.' or '/' separators and bracketed list
// indices, e.g. "users[1].name" or "users/1/name".
package pathres

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Result carries the outcome of one path resolution. On failure, Error
// holds a diagnostic and AvailableFields lists the paths reachable from
// the last node that was resolved.
type Result struct {
	GtsID           string   `json:"gts_id"`
	Path            string   `json:"path"`
	Value           any      `json:"value"`
	Resolved        bool     `json:"resolved"`
	Error           string   `json:"error,omitempty"`
	AvailableFields []string `json:"available_fields,omitempty"`
}

// Resolve walks content along path. An empty path resolves to the root
// content itself.
func Resolve(gtsID string, content any, path string) *Result {
	res := &Result{GtsID: gtsID, Path: path}

	cur := content
	for _, part := range splitParts(path) {
		switch node := cur.(type) {
		case []any:
			idxStr := part
			if strings.HasPrefix(part, "[") && strings.HasSuffix(part, "]") {
				idxStr = part[1 : len(part)-1]
			}
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				res.Error = fmt.Sprintf("Expected list index at segment '%s'", part)
				res.AvailableFields = collectFields(node)
				return res
			}
			if idx < 0 || idx >= len(node) {
				res.Error = fmt.Sprintf("Index out of range at segment '%s'", part)
				res.AvailableFields = collectFields(node)
				return res
			}
			cur = node[idx]
		case map[string]any:
			if strings.HasPrefix(part, "[") && strings.HasSuffix(part, "]") {
				res.Error = fmt.Sprintf("Path not found at segment '%s' in '%s', see available fields", part, path)
				res.AvailableFields = collectFields(node)
				return res
			}
			val, ok := node[part]
			if !ok {
				res.Error = fmt.Sprintf("Path not found at segment '%s' in '%s', see available fields", part, path)
				res.AvailableFields = collectFields(node)
				return res
			}
			cur = val
		default:
			res.Error = fmt.Sprintf("Cannot descend into %T at segment '%s'", cur, part)
			return res
		}
	}

	res.Value = cur
	res.Resolved = true
	return res
}

// Failure builds a non-resolved result with a caller-supplied message.
func Failure(gtsID, path, msg string) *Result {
	return &Result{GtsID: gtsID, Path: path, Error: msg}
}

// splitParts normalizes '/' to '.', drops empty segments and splits
// bracketed indices into their own parts, so "a[0][1].b" yields
// ["a", "[0]", "[1]", "b"].
func splitParts(path string) []string {
	norm := strings.ReplaceAll(path, "/", ".")
	var parts []string
	for _, seg := range strings.Split(norm, ".") {
		if seg == "" {
			continue
		}
		parts = append(parts, splitBrackets(seg)...)
	}
	return parts
}

func splitBrackets(seg string) []string {
	var out []string
	var buf strings.Builder
	for i := 0; i < len(seg); {
		if seg[i] == '[' {
			if buf.Len() > 0 {
				out = append(out, buf.String())
				buf.Reset()
			}
			j := strings.IndexByte(seg[i+1:], ']')
			if j < 0 {
				buf.WriteString(seg[i:])
				break
			}
			out = append(out, seg[i:i+j+2])
			i += j + 2
		} else {
			buf.WriteByte(seg[i])
			i++
		}
	}
	if buf.Len() > 0 {
		out = append(out, buf.String())
	}
	return out
}

// collectFields lists the paths reachable from node, keys sorted at
// each object level for stable output.
func collectFields(node any) []string {
	acc := []string{}
	listFields(node, "", &acc)
	return acc
}

func listFields(node any, prefix string, acc *[]string) {
	switch n := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			*acc = append(*acc, p)
			listFields(n[k], p, acc)
		}
	case []any:
		for i, v := range n {
			p := fmt.Sprintf("%s[%d]", prefix, i)
			*acc = append(*acc, p)
			listFields(v, p, acc)
		}
	}
}
