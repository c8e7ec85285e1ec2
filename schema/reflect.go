package schema

import (
	"reflect"
	"strings"
	"time"
)

// FromType generates and compiles a schema from a Go type using reflection.
// Struct fields follow their json tags; omitempty and pointer fields become
// optional; `description` and `enum` struct tags are honored:
//
//	type Report struct {
//	    Title    string  `json:"title" description:"Short title"`
//	    Severity string  `json:"severity" enum:"low,medium,high"`
//	    Score    float64 `json:"score,omitempty"`
//	}
//
//	s, err := schema.FromType[Report]()
func FromType[T any]() (*Schema, error) {
	var zero T
	return Compile(rawFromType(reflect.TypeOf(zero)))
}

// MustFromType is like FromType but panics on error.
func MustFromType[T any]() *Schema {
	s, err := FromType[T]()
	if err != nil {
		panic(err)
	}
	return s
}

func rawFromType(t reflect.Type) map[string]any {
	if t == nil {
		return map[string]any{"type": "null"}
	}

	if t.Kind() == reflect.Ptr {
		raw := rawFromType(t.Elem())
		// Pointers are nullable.
		if typeVal, ok := raw["type"].(string); ok {
			raw["type"] = []string{typeVal, "null"}
		}
		return raw
	}

	if t == reflect.TypeFor[time.Time]() {
		return map[string]any{"type": "string", "format": "date-time"}
	}
	if t == reflect.TypeFor[time.Duration]() {
		return map[string]any{
			"type":        "string",
			"description": "Duration string (e.g., '1h30m', '2s')",
		}
	}

	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}

	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}

	case reflect.Bool:
		return map[string]any{"type": "boolean"}

	case reflect.Slice, reflect.Array:
		return map[string]any{
			"type":  "array",
			"items": rawFromType(t.Elem()),
		}

	case reflect.Map:
		return map[string]any{
			"type":                 "object",
			"additionalProperties": rawFromType(t.Elem()),
		}

	case reflect.Struct:
		return rawFromStruct(t)

	default:
		return map[string]any{}
	}
}

func rawFromStruct(t reflect.Type) map[string]any {
	properties := make(map[string]any)
	required := make([]string, 0)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		fieldName := field.Name
		omitempty := false
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				fieldName = parts[0]
			}
			for _, part := range parts[1:] {
				if part == "omitempty" {
					omitempty = true
				}
			}
		}

		fieldSchema := rawFromType(field.Type)

		if desc := field.Tag.Get("description"); desc != "" {
			fieldSchema["description"] = desc
		}
		if enumTag := field.Tag.Get("enum"); enumTag != "" {
			literals := strings.Split(enumTag, ",")
			values := make([]any, len(literals))
			for j, lit := range literals {
				values[j] = strings.TrimSpace(lit)
			}
			fieldSchema["enum"] = values
		}

		properties[fieldName] = fieldSchema

		if !omitempty && field.Type.Kind() != reflect.Ptr {
			required = append(required, fieldName)
		}
	}

	raw := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		raw["required"] = required
	}
	return raw
}
