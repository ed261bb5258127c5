package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ValidationError lists every schema violation found in a suite document.
type ValidationError struct {
	Source   string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid suite: %s", e.Source, strings.Join(e.Problems, "; "))
}

// LoadFile reads, schema-checks and validates a suite file.
func LoadFile(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes a YAML suite document. The document is checked against the
// suite JSON schema before it is decoded, then validated step by step.
func Parse(source string, data []byte) (*Suite, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: failed to parse yaml: %w", source, err)
	}
	if err := validateSchema(source, doc); err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var suite Suite
	if err := dec.Decode(&suite); err != nil {
		return nil, fmt.Errorf("%s: failed to decode suite: %w", source, err)
	}
	if err := suite.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return &suite, nil
}

var (
	schemaOnce   sync.Once
	schemaLoader gojsonschema.JSONLoader
	schemaErr    error
)

func validateSchema(source string, doc any) error {
	schemaOnce.Do(func() {
		raw, err := json.Marshal(suiteSchema())
		if err != nil {
			schemaErr = fmt.Errorf("failed to marshal schema: %w", err)
			return
		}
		schemaLoader = gojsonschema.NewBytesLoader(raw)
	})
	if schemaErr != nil {
		return schemaErr
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%s: failed to convert document: %w", source, err)
	}
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(docJSON))
	if err != nil {
		return fmt.Errorf("%s: validation error: %w", source, err)
	}
	if result.Valid() {
		return nil
	}
	verr := &ValidationError{Source: source}
	for _, e := range result.Errors() {
		verr.Problems = append(verr.Problems, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return verr
}

// SchemaJSON returns the suite JSON schema, indented, for editors and docs.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(suiteSchema(), "", "  ")
}

func suiteSchema() map[string]interface{} {
	actions := make([]string, len(Actions))
	for i, a := range Actions {
		actions[i] = string(a)
	}
	step := map[string]interface{}{
		"type":                 "object",
		"required":             []string{"action"},
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"name":     map[string]interface{}{"type": "string"},
			"action":   map[string]interface{}{"type": "string", "enum": actions},
			"locator":  map[string]interface{}{"type": "string", "minLength": 1},
			"value":    map[string]interface{}{"type": "string"},
			"index":    map[string]interface{}{"type": "integer", "minimum": 0},
			"save":     map[string]interface{}{"type": "string", "pattern": "^[A-Za-z_][A-Za-z0-9_]*$"},
			"expect":   map[string]interface{}{"type": "string"},
			"table":    map[string]interface{}{"type": "string", "minLength": 1},
			"column":   map[string]interface{}{"type": "integer", "minimum": 0},
			"cell":     map[string]interface{}{"type": "integer", "minimum": 0},
			"row":      map[string]interface{}{"type": "string"},
			"baseline": map[string]interface{}{"type": "string"},
			"delta":    map[string]interface{}{"type": "integer"},
			"timeout":  map[string]interface{}{"type": "string", "pattern": "^[0-9]+(\\.[0-9]+)?(ms|s|m)$"},
		},
	}
	steps := map[string]interface{}{"type": "array", "items": step}
	return map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                "Scenario Suite",
		"type":                 "object",
		"required":             []string{"name", "scenarios"},
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"name":        map[string]interface{}{"type": "string", "minLength": 1},
			"description": map[string]interface{}{"type": "string"},
			"login":       map[string]interface{}{"type": "boolean"},
			"env": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": map[string]interface{}{"type": "string"},
			},
			"setup":    steps,
			"teardown": steps,
			"scenarios": map[string]interface{}{
				"type":     "array",
				"minItems": 1,
				"items": map[string]interface{}{
					"type":                 "object",
					"required":             []string{"name", "steps"},
					"additionalProperties": false,
					"properties": map[string]interface{}{
						"name":        map[string]interface{}{"type": "string", "minLength": 1},
						"description": map[string]interface{}{"type": "string"},
						"tags":        map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
						"steps":       map[string]interface{}{"type": "array", "minItems": 1, "items": step},
					},
				},
			},
		},
	}
}
