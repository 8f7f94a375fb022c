// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agents

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// EnsureStrictJSONSchema returns a copy of schema that conforms to the
// expectations of strict function calling: every object forbids additional
// properties and requires all of its properties, and oneOf is rewritten as anyOf.
func EnsureStrictJSONSchema(schema map[string]any) (map[string]any, error) {
	if schema == nil {
		schema = map[string]any{}
	}
	if len(schema) == 0 {
		return map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties":           map[string]any{},
			"required":             []any{},
		}, nil
	}
	return ensureStrictJSONSchema(schema, nil)
}

func ensureStrictJSONSchema(schema map[string]any, path []string) (map[string]any, error) {
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		out[k] = v
	}

	for _, defsKey := range []string{"$defs", "definitions"} {
		if defs, ok := out[defsKey].(map[string]any); ok {
			strictDefs := make(map[string]any, len(defs))
			for name, def := range defs {
				defSchema, ok := def.(map[string]any)
				if !ok {
					strictDefs[name] = def
					continue
				}
				s, err := ensureStrictJSONSchema(defSchema, append(path, defsKey, name))
				if err != nil {
					return nil, err
				}
				strictDefs[name] = s
			}
			out[defsKey] = strictDefs
		}
	}

	if out["type"] == "object" {
		if ap, ok := out["additionalProperties"]; ok && ap != false {
			return nil, UserErrorf(
				"additionalProperties should not be set for object types at %s; this could be because you're using an older version of the schema generator",
				schemaPath(path),
			)
		}
		out["additionalProperties"] = false
	}

	if props, ok := out["properties"].(map[string]any); ok {
		strictProps := make(map[string]any, len(props))
		keys := make([]string, 0, len(props))
		for name, prop := range props {
			keys = append(keys, name)
			propSchema, ok := prop.(map[string]any)
			if !ok {
				strictProps[name] = prop
				continue
			}
			s, err := ensureStrictJSONSchema(propSchema, append(path, "properties", name))
			if err != nil {
				return nil, err
			}
			strictProps[name] = s
		}
		slices.Sort(keys)
		required := make([]any, len(keys))
		for i, k := range keys {
			required[i] = k
		}
		out["properties"] = strictProps
		out["required"] = required
	}

	if items, ok := out["items"].(map[string]any); ok {
		s, err := ensureStrictJSONSchema(items, append(path, "items"))
		if err != nil {
			return nil, err
		}
		out["items"] = s
	}

	var anyOf []any
	if existing, ok := out["anyOf"].([]any); ok {
		anyOf = append(anyOf, existing...)
	}
	if oneOf, ok := out["oneOf"].([]any); ok {
		anyOf = append(anyOf, oneOf...)
		delete(out, "oneOf")
	}
	if anyOf != nil {
		strictAnyOf := make([]any, len(anyOf))
		for i, variant := range anyOf {
			variantSchema, ok := variant.(map[string]any)
			if !ok {
				strictAnyOf[i] = variant
				continue
			}
			s, err := ensureStrictJSONSchema(variantSchema, append(path, "anyOf", fmt.Sprint(i)))
			if err != nil {
				return nil, err
			}
			strictAnyOf[i] = s
		}
		out["anyOf"] = strictAnyOf
	}

	if allOf, ok := out["allOf"].([]any); ok {
		strictAllOf := make([]any, len(allOf))
		for i, entry := range allOf {
			entrySchema, ok := entry.(map[string]any)
			if !ok {
				strictAllOf[i] = entry
				continue
			}
			s, err := ensureStrictJSONSchema(entrySchema, append(path, "allOf", fmt.Sprint(i)))
			if err != nil {
				return nil, err
			}
			strictAllOf[i] = s
		}
		out["allOf"] = strictAllOf
	}

	return out, nil
}

func schemaPath(path []string) string {
	if len(path) == 0 {
		return "root"
	}
	return strings.Join(path, ".")
}

// JSONSchemaFor reflects a strict JSON schema for the Go type T.
func JSONSchemaFor[T any]() (map[string]any, error) {
	return JSONSchemaForType(reflect.TypeFor[T]())
}

// JSONSchemaForType reflects a strict JSON schema for t.
func JSONSchemaForType(t reflect.Type) (map[string]any, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
	case reflect.Map:
		return map[string]any{"type": "object"}, nil
	default:
		return nil, UserErrorf("tool parameters must be a struct or a map, got %s", t)
	}

	reflector := &jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.ReflectFromType(t)

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(raw, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON schema: %w", err)
	}
	delete(schemaMap, "$schema")
	delete(schemaMap, "$id")
	if _, ok := schemaMap["properties"]; !ok {
		schemaMap["properties"] = map[string]any{}
	}
	// The reflector already closes objects; reset it so the strict pass owns it.
	if schemaMap["additionalProperties"] == false {
		delete(schemaMap, "additionalProperties")
	}
	return EnsureStrictJSONSchema(schemaMap)
}

// JSONSchemaValidator validates raw JSON documents against a compiled schema.
type JSONSchemaValidator struct {
	schema *gojsonschema.Schema
}

// NewJSONSchemaValidator compiles schema.
func NewJSONSchemaValidator(schema map[string]any) (*JSONSchemaValidator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, err
	}
	return &JSONSchemaValidator{schema: compiled}, nil
}

// Validate reports an error listing every violation found in input.
func (v *JSONSchemaValidator) Validate(input string) error {
	result, err := v.schema.Validate(gojsonschema.NewStringLoader(input))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}
	messages := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		messages = append(messages, e.String())
	}
	return fmt.Errorf("%s", strings.Join(messages, "; "))
}
