package schema

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CompileJSONFile loads a schema definition from a JSON file and compiles it.
func CompileJSONFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode schema file %s: %w", path, err)
	}
	return Compile(raw)
}

// CompileYAMLFile loads a schema definition from a YAML file and compiles it.
// YAML maps are normalized to map[string]any before compilation.
func CompileYAMLFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	return CompileYAML(data)
}

// CompileYAML compiles a schema definition from YAML bytes.
func CompileYAML(data []byte) (*Schema, error) {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to decode YAML schema: %w", err)
	}

	normalized := normalizeYAML(node)
	raw, ok := normalized.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("YAML schema root must be a mapping, got %T", normalized)
	}
	return Compile(raw)
}

// normalizeYAML converts yaml.v3's map[string]any / []any trees into the
// string-keyed form the compiler expects. yaml.v3 already decodes mappings
// with string keys into map[string]any, but nested any-keyed maps can
// appear with merge keys or unusual documents.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}
