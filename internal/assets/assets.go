package assets

import (
	"embed"
	"io/fs"
)

//go:embed embedded_templates
var templates embed.FS

// GetTemplatesFS exposes embedded templates rooted at embedded_templates.
func GetTemplatesFS() fs.FS {
	if sub, err := fs.Sub(templates, "embedded_templates"); err == nil {
		return sub
	}
	return templates
}

// GetTemplate returns a template by name (e.g., "service-worker.js.hbs").
func GetTemplate(name string) ([]byte, error) {
	return fs.ReadFile(GetTemplatesFS(), name)
}
