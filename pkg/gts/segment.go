package gts

import (
	"regexp"
	"strconv"
	"strings"
)

var segmentTokenRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Segment is one parsed link of a GTS identifier chain. A segment that
// ends with '~' declares a type, a segment containing '*' is a wildcard
// tail with only its leading tokens populated.
type Segment struct {
	Num        int    `json:"num"`
	Offset     int    `json:"offset"`
	Raw        string `json:"raw"`
	Vendor     string `json:"vendor"`
	Package    string `json:"package"`
	Namespace  string `json:"namespace"`
	Type       string `json:"type"`
	VerMajor   int    `json:"ver_major"`
	VerMinor   *int   `json:"ver_minor"`
	IsType     bool   `json:"is_type"`
	IsWildcard bool   `json:"is_wildcard"`
}

func parseSegment(num, offset int, raw string) (*Segment, error) {
	seg := &Segment{Num: num, Offset: offset, Raw: strings.TrimSpace(raw)}
	body := seg.Raw

	if n := strings.Count(body, "~"); n > 0 {
		if n > 1 {
			return nil, &InvalidSegmentError{num, offset, body, "Too many '~' characters"}
		}
		if !strings.HasSuffix(body, "~") {
			return nil, &InvalidSegmentError{num, offset, body, "'~' must be at the end"}
		}
		seg.IsType = true
		body = body[:len(body)-1]
	}

	tokens := strings.Split(body, ".")

	if len(tokens) > 6 {
		return nil, &InvalidSegmentError{num, offset, body, "Too many tokens"}
	}

	if !strings.HasSuffix(body, "*") {
		if len(tokens) < 5 {
			return nil, &InvalidSegmentError{num, offset, body, "Too few tokens"}
		}
		for t := 0; t < 4; t++ {
			if !segmentTokenRe.MatchString(tokens[t]) {
				return nil, &InvalidSegmentError{num, offset, body, "Invalid segment token: " + tokens[t]}
			}
		}
	}

	// Populate fields positionally, stopping at the wildcard token.
	if tokens[0] == "*" {
		seg.IsWildcard = true
		return seg, nil
	}
	seg.Vendor = tokens[0]

	if len(tokens) > 1 {
		if tokens[1] == "*" {
			seg.IsWildcard = true
			return seg, nil
		}
		seg.Package = tokens[1]
	}
	if len(tokens) > 2 {
		if tokens[2] == "*" {
			seg.IsWildcard = true
			return seg, nil
		}
		seg.Namespace = tokens[2]
	}
	if len(tokens) > 3 {
		if tokens[3] == "*" {
			seg.IsWildcard = true
			return seg, nil
		}
		seg.Type = tokens[3]
	}
	if len(tokens) > 4 {
		if tokens[4] == "*" {
			seg.IsWildcard = true
			return seg, nil
		}
		if !strings.HasPrefix(tokens[4], "v") {
			return nil, &InvalidSegmentError{num, offset, body, "Major version must start with 'v'"}
		}
		major, err := strconv.Atoi(tokens[4][1:])
		if err != nil || strconv.Itoa(major) != tokens[4][1:] {
			return nil, &InvalidSegmentError{num, offset, body, "Major version must be an integer"}
		}
		if major < 0 {
			return nil, &InvalidSegmentError{num, offset, body, "Major version must be >= 0"}
		}
		seg.VerMajor = major
	}
	if len(tokens) > 5 {
		if tokens[5] == "*" {
			seg.IsWildcard = true
			return seg, nil
		}
		minor, err := strconv.Atoi(tokens[5])
		if err != nil || strconv.Itoa(minor) != tokens[5] {
			return nil, &InvalidSegmentError{num, offset, body, "Minor version must be an integer"}
		}
		if minor < 0 {
			return nil, &InvalidSegmentError{num, offset, body, "Minor version must be >= 0"}
		}
		seg.VerMinor = &minor
	}

	return seg, nil
}
