package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"sigs.k8s.io/yaml"
)

// ReadDescriptor returns the raw query descriptor from the first available
// source: the inline value, the named file ("-" reads stdin), or stdin.
func ReadDescriptor(inline, file string, stdin io.Reader) ([]byte, error) {
	switch {
	case inline != "":
		return []byte(inline), nil
	case file == "-":
		return io.ReadAll(stdin)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading descriptor: %w", err)
		}
		return data, nil
	default:
		return io.ReadAll(stdin)
	}
}

// DecodeDescriptor decodes a JSON or YAML descriptor into v. Input whose
// first non-space byte is '{' is treated as JSON.
func DecodeDescriptor(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty query descriptor")
	}
	if trimmed[0] != '{' {
		converted, err := yaml.YAMLToJSON(trimmed)
		if err != nil {
			return fmt.Errorf("parsing YAML descriptor: %w", err)
		}
		trimmed = converted
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("parsing descriptor: %w", err)
	}
	return nil
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
