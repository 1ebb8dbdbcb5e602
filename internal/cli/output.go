package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// printJSON writes v as indented JSON, matching the wire format of
// the HTTP API.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// readJSONInput decodes a JSON object from either an inline string or
// a file path, preferring the inline form.
func readJSONInput(inline string, path string, stdin io.Reader) (map[string]any, error) {
	var data []byte
	switch {
	case inline != "":
		data = []byte(inline)
	case path == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		data = b
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = b
	default:
		return nil, fmt.Errorf("either --content or --file is required")
	}

	var content map[string]any
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("parse JSON content: %w", err)
	}
	return content, nil
}
