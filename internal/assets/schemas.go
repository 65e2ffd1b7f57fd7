package assets

import (
	"embed"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed embedded_schemas
var schemaFS embed.FS

// SchemaInfo holds schema metadata.
type SchemaInfo struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Draft string `json:"draft"`
}

// GetSchema returns the embedded schema bytes by path (e.g., "embedded_schemas/config/cachestamp-config-v1.0.0.yaml").
func GetSchema(relPath string) ([]byte, bool) {
	data, err := schemaFS.ReadFile(relPath)
	return data, err == nil
}

// GetSchemaNames returns the registered schemas that are actually embedded.
func GetSchemaNames() []SchemaInfo {
	var infos []SchemaInfo
	for _, a := range Registry {
		if a.Kind != KindSchema {
			continue
		}
		if _, ok := GetSchema(a.Path); ok {
			infos = append(infos, SchemaInfo{Name: a.Name, Path: a.Path, Draft: detectDraft(a.Path)})
		}
	}
	return infos
}

// detectDraft heuristically detects draft from schema bytes via $schema key.
func detectDraft(path string) string {
	bytes, ok := GetSchema(path)
	if !ok {
		return "unknown"
	}
	var doc interface{}
	if err := yaml.Unmarshal(bytes, &doc); err != nil {
		if err := json.Unmarshal(bytes, &doc); err != nil {
			return "unknown"
		}
	}
	if m, ok := doc.(map[string]interface{}); ok {
		if v, ok := m["$schema"].(string); ok {
			if strings.Contains(v, "draft-07") {
				return "draft-07"
			}
			if strings.Contains(v, "2020-12") {
				return "2020-12"
			}
		}
	}
	return "unknown"
}
