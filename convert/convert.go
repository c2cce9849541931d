// Package convert moves workflow documents between YAML and JSON so they can
// be written and reviewed in either form.
package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// IsYAML reports whether name has a YAML extension.
func IsYAML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// YAMLToJSON converts a YAML document to indented JSON.
func YAMLToJSON(in []byte) ([]byte, error) {
	var data any
	if err := yaml.Unmarshal(in, &data); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		// maps with non-string keys
		return nil, fmt.Errorf("YAML document has no JSON form: %w", err)
	}
	return out, nil
}

// JSONToYAML converts a JSON document to YAML with two space indentation.
func JSONToYAML(in []byte) ([]byte, error) {
	var data any
	if err := json.Unmarshal(in, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileToJSON returns data as JSON, converting it first when name is a YAML
// file.
func FileToJSON(name string, data []byte) ([]byte, error) {
	if !IsYAML(name) {
		return data, nil
	}
	out, err := YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
