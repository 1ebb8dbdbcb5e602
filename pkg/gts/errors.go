package gts

import "fmt"

// InvalidSegmentError reports a malformed segment inside an identifier.
// Num is 1-based, Offset is the byte offset of the segment within the
// normalized identifier string.
type InvalidSegmentError struct {
	Num     int
	Offset  int
	Segment string
	Cause   string
}

func (e *InvalidSegmentError) Error() string {
	if e.Cause != "" {
		return fmt.Sprintf("Invalid GTS segment #%d @ offset %d: '%s': %s", e.Num, e.Offset, e.Segment, e.Cause)
	}
	return fmt.Sprintf("Invalid GTS segment #%d @ offset %d: '%s'", e.Num, e.Offset, e.Segment)
}

// InvalidIDError reports an identifier that violates the grammar.
type InvalidIDError struct {
	ID    string
	Cause string
}

func (e *InvalidIDError) Error() string {
	if e.Cause != "" {
		return fmt.Sprintf("Invalid GTS identifier: %s: %s", e.ID, e.Cause)
	}
	return fmt.Sprintf("Invalid GTS identifier: %s", e.ID)
}

// InvalidWildcardError reports a malformed wildcard pattern.
type InvalidWildcardError struct {
	Pattern string
	Cause   string
}

func (e *InvalidWildcardError) Error() string {
	if e.Cause != "" {
		return fmt.Sprintf("Invalid GTS wildcard pattern: %s: %s", e.Pattern, e.Cause)
	}
	return fmt.Sprintf("Invalid GTS wildcard pattern: %s", e.Pattern)
}
