package gts

import "strings"

// Wildcard is a match pattern over identifiers. It follows the same
// grammar as ID with an optional single '*' token, which may appear
// only at the very end, after a '.' or a '~'.
type Wildcard struct {
	*ID
	pattern string
}

// ParseWildcard parses and validates a wildcard pattern. Plain
// identifiers without '*' are accepted and match with minor-version
// tolerance only.
func ParseWildcard(pattern string) (*Wildcard, error) {
	p := strings.TrimSpace(pattern)
	if !strings.HasPrefix(p, Prefix) {
		return nil, &InvalidWildcardError{pattern, "Does not start with 'gts.'"}
	}
	if strings.Count(p, "*") > 1 {
		return nil, &InvalidWildcardError{pattern, "The wildcard '*' token is allowed only once"}
	}
	if strings.Contains(p, "*") && !strings.HasSuffix(p, ".*") && !strings.HasSuffix(p, "~*") {
		return nil, &InvalidWildcardError{pattern, "The wildcard '*' token is allowed only at the end of the pattern"}
	}
	id, err := ParseID(p)
	if err != nil {
		return nil, &InvalidWildcardError{pattern, err.Error()}
	}
	return &Wildcard{ID: id, pattern: p}, nil
}

// Pattern returns the original pattern string.
func (w *Wildcard) Pattern() string { return w.pattern }

// Matches reports whether the identifier satisfies the pattern.
// Matching is segment-wise: a pattern longer than the candidate never
// matches, populated wildcard-segment fields must agree, and a pattern
// segment without a minor version tolerates any candidate minor.
func (id *ID) Matches(w *Wildcard) bool {
	return matchSegments(w.segments, id.segments)
}

func matchSegments(pattern, candidate []*Segment) bool {
	if len(pattern) > len(candidate) {
		return false
	}

	for i, p := range pattern {
		c := candidate[i]

		if p.IsWildcard {
			// Only the fields present before the '*' constrain the
			// candidate; everything after is accepted.
			if p.Vendor != "" && p.Vendor != c.Vendor {
				return false
			}
			if p.Package != "" && p.Package != c.Package {
				return false
			}
			if p.Namespace != "" && p.Namespace != c.Namespace {
				return false
			}
			if p.Type != "" && p.Type != c.Type {
				return false
			}
			if p.VerMajor != 0 && p.VerMajor != c.VerMajor {
				return false
			}
			if p.VerMinor != nil && (c.VerMinor == nil || *p.VerMinor != *c.VerMinor) {
				return false
			}
			if p.IsType && !c.IsType {
				return false
			}
			return true
		}

		if p.Vendor != c.Vendor || p.Package != c.Package || p.Namespace != c.Namespace || p.Type != c.Type {
			return false
		}
		if p.VerMajor != c.VerMajor {
			return false
		}
		if p.VerMinor != nil && (c.VerMinor == nil || *p.VerMinor != *c.VerMinor) {
			return false
		}
		if p.IsType != c.IsType {
			return false
		}
	}

	return true
}
