// Package gts implements the GTS identifier grammar: parsing, wildcard
// matching and UUIDv5 derivation for hierarchical versioned identifiers
// of the form gts.vendor.package.namespace.type.v1~...
package gts

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	// Prefix is the mandatory leading marker of every identifier.
	Prefix = "gts."
	// URIPrefix is an optional scheme wrapper stripped during parsing.
	URIPrefix = "gts://"
	// MaxIDLength bounds the normalized identifier length.
	MaxIDLength = 1024
)

// Namespace is the UUIDv5 namespace all identifiers are hashed under,
// itself derived from the URL namespace and the literal "gts".
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("gts"))

// ID is a parsed GTS identifier: a chain of type segments optionally
// terminated by an instance segment.
type ID struct {
	raw      string
	segments []*Segment
}

// Normalize trims whitespace and strips a gts:// URI prefix without
// validating the remainder.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, URIPrefix) {
		s = s[len(URIPrefix):]
	}
	return s
}

// ParseID parses and validates a GTS identifier.
func ParseID(raw string) (*ID, error) {
	norm := Normalize(raw)

	if norm != strings.ToLower(norm) {
		return nil, &InvalidIDError{raw, "Must be lower case"}
	}
	if strings.Contains(norm, "-") {
		return nil, &InvalidIDError{raw, "Must not contain '-'"}
	}
	if !strings.HasPrefix(norm, Prefix) {
		return nil, &InvalidIDError{raw, "Does not start with 'gts.'"}
	}
	if len(norm) > MaxIDLength {
		return nil, &InvalidIDError{raw, "Too long"}
	}

	id := &ID{raw: norm}

	// Split on '~' keeping the separator attached to its segment. A
	// trailing '~' belongs to the last segment rather than opening an
	// empty one.
	split := strings.Split(norm[len(Prefix):], "~")
	var parts []string
	for i := 0; i < len(split); i++ {
		if i < len(split)-1 {
			parts = append(parts, split[i]+"~")
			if i == len(split)-2 && split[i+1] == "" {
				break
			}
		} else {
			parts = append(parts, split[i])
		}
	}

	offset := len(Prefix)
	for i, part := range parts {
		if part == "" {
			return nil, &InvalidIDError{raw, segmentEmptyCause(i+1, offset)}
		}
		seg, err := parseSegment(i+1, offset, part)
		if err != nil {
			return nil, err
		}
		id.segments = append(id.segments, seg)
		offset += len(part)
	}

	// Instance identifiers must be chained. A lone segment is only
	// acceptable for types and wildcard patterns.
	if !strings.HasSuffix(id.raw, "~") && len(id.segments) == 1 && !id.segments[0].IsWildcard {
		return nil, &InvalidIDError{raw, "Single-segment instance IDs are not allowed. Instance IDs must be chained (e.g., type~instance)."}
	}

	return id, nil
}

func segmentEmptyCause(num, offset int) string {
	return fmt.Sprintf("GTS segment #%d @ offset %d is empty", num, offset)
}

// IsValidID reports whether s parses as a GTS identifier.
func IsValidID(s string) bool {
	_, err := ParseID(s)
	return err == nil
}

// String returns the normalized identifier.
func (id *ID) String() string { return id.raw }

// Segments returns the parsed segment chain.
func (id *ID) Segments() []*Segment { return id.segments }

// IsType reports whether the identifier names a type rather than an
// instance.
func (id *ID) IsType() bool { return strings.HasSuffix(id.raw, "~") }

// TypeID returns the identifier of the chain without its final segment,
// or "" when the chain has fewer than two segments.
func (id *ID) TypeID() string {
	if len(id.segments) < 2 {
		return ""
	}
	var b strings.Builder
	b.WriteString(Prefix)
	for _, seg := range id.segments[:len(id.segments)-1] {
		b.WriteString(seg.Raw)
	}
	return b.String()
}

// UUID derives the deterministic UUIDv5 of the identifier.
func (id *ID) UUID() uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(id.raw))
}

// SplitAtPath splits an "id@attribute.path" expression. The path is ""
// when no '@' is present. A trailing '@' with nothing after it is an
// error.
func SplitAtPath(s string) (string, string, error) {
	idx := strings.Index(s, "@")
	if idx < 0 {
		return s, "", nil
	}
	idPart, path := s[:idx], s[idx+1:]
	if path == "" {
		return "", "", &InvalidIDError{s, "Attribute path cannot be empty"}
	}
	return idPart, path, nil
}
