package store

import (
	"sort"
	"strings"
)

// GraphNode is one entity in a reference graph. Refs maps the JSON
// path of each reference to the referenced node. Revisited entities
// appear as bare ID leaves so cycles terminate.
type GraphNode struct {
	ID       string                `json:"id"`
	Refs     map[string]*GraphNode `json:"refs,omitempty"`
	SchemaID *GraphNode            `json:"schema_id,omitempty"`
	Errors   []string              `json:"errors,omitempty"`
}

// SchemaGraph walks the reference graph rooted at id, following both
// x-gts-ref style references and schema chains.
func (s *Store) SchemaGraph(id string) *GraphNode {
	return s.buildGraph(id, map[string]bool{})
}

func (s *Store) buildGraph(id string, visited map[string]bool) *GraphNode {
	node := &GraphNode{ID: id}
	if visited[id] {
		return node
	}
	visited[id] = true

	e, ok := s.Get(id)
	if !ok {
		node.Errors = append(node.Errors, "Entity not found")
		return node
	}

	g := e.RefGraph()
	paths := make([]string, 0, len(g.Refs))
	for p := range g.Refs {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		refID := g.Refs[p]
		if refID == id || isMetaSchemaRef(refID) {
			continue
		}
		if node.Refs == nil {
			node.Refs = make(map[string]*GraphNode)
		}
		node.Refs[p] = s.buildGraph(refID, visited)
	}

	if e.SchemaID == "" {
		node.Errors = append(node.Errors, "Schema not recognized")
	} else if !isMetaSchemaRef(e.SchemaID) {
		node.SchemaID = s.buildGraph(e.SchemaID, visited)
	}

	return node
}

func isMetaSchemaRef(id string) bool {
	return strings.HasPrefix(id, "http://json-schema.org") ||
		strings.HasPrefix(id, "https://json-schema.org")
}
