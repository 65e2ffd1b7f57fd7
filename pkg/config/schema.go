package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/cachestamp/internal/assets"
	"github.com/fulmenhq/cachestamp/internal/schema"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// SchemaName identifies the embedded schema configuration files are checked against.
const SchemaName = assets.ConfigSchemaName

// ParseDocument decodes a configuration document by file extension into
// plain maps suitable for schema validation.
func ParseDocument(name string, data []byte) (interface{}, error) {
	var doc interface{}
	var err error
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".json":
		err = json.Unmarshal(data, &doc)
	case ".toml":
		var m map[string]interface{}
		err = toml.Unmarshal(data, &m)
		doc = m
	default:
		return nil, fmt.Errorf("unsupported config file type %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return doc, nil
}

// ValidateDocument checks data against the embedded configuration schema.
func ValidateDocument(name string, data []byte) (*schema.Result, error) {
	doc, err := ParseDocument(name, data)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	return schema.Validate(doc, SchemaName)
}

// ValidateFile reads and validates a configuration file.
func ValidateFile(path string) (*schema.Result, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is the user's own config file
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("read config: %w", err)}
	}
	return ValidateDocument(path, data)
}

// SchemaDocument returns the embedded schema source.
func SchemaDocument() ([]byte, error) {
	info, ok := assets.Lookup(SchemaName)
	if !ok {
		return nil, fmt.Errorf("schema %s not registered", SchemaName)
	}
	data, ok := assets.GetSchema(info.Path)
	if !ok {
		return nil, fmt.Errorf("schema %s not embedded", SchemaName)
	}
	return data, nil
}
