package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fulmenhq/cachestamp/internal/assets"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	Path    string `json:"path,omitempty"` // Single string path (e.g., "manifest_format")
	Message string `json:"message"`
}

// Result holds the validation result.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// registry holds pre-compiled schemas keyed by asset registry name (e.g., "cachestamp-config-v1.0.0").
var registry = make(map[string]*gojsonschema.Schema)

func init() {
	for _, a := range assets.Registry {
		if a.Kind != assets.KindSchema {
			continue
		}
		schema, err := compile(a.Path)
		if err != nil {
			// Skip on error; Validate reports the schema as missing
			continue
		}
		registry[a.Name] = schema
	}
}

func compile(path string) (*gojsonschema.Schema, error) {
	schemaBytes, ok := assets.GetSchema(path)
	if !ok || len(schemaBytes) == 0 {
		return nil, fmt.Errorf("schema %s not embedded", path)
	}
	// Convert YAML to JSON for gojsonschema
	var schemaData interface{}
	if err := yaml.Unmarshal(schemaBytes, &schemaData); err != nil {
		return nil, err
	}
	jsonBytes, err := json.Marshal(schemaData)
	if err != nil {
		return nil, err
	}
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(jsonBytes))
}

// Names lists the compiled schemas.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate validates data (interface{}) against the named schema.
func Validate(data interface{}, schemaName string) (*Result, error) {
	schema, ok := registry[schemaName]
	if !ok {
		return nil, fmt.Errorf("schema %s not found in registry", schemaName)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	res := &Result{Valid: result.Valid()}
	for _, verr := range result.Errors() {
		field := verr.Field()
		if field == "" || field == "(root)" {
			field = "root"
		}
		res.Errors = append(res.Errors, ValidationError{
			Path:    field,
			Message: verr.Description(),
		})
	}
	return res, nil
}
