package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		data  string
		valid bool
	}{
		{"yaml_single", "cachestamp.yaml", "match: 're:\\.js$'\nmax_size: 100\n", true},
		{"yaml_grouped", "cachestamp.yml", "match:\n  js: 'glob:*.js'\n", true},
		{"json", "cachestamp.json", `{"manifest_format": "toml", "dry_run": true}`, true},
		{"toml", "cachestamp.toml", "version_handler = \"GIT_SHA\"\n[match]\njs = \"glob:*.js\"\n", true},
		{"empty", "cachestamp.yaml", "", true},
		{"unknown_key", "cachestamp.yaml", "colour: red\n", false},
		{"bad_format", "cachestamp.json", `{"manifest_format": "xml"}`, false},
		{"negative_size", "cachestamp.toml", "max_size = -5\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ValidateDocument(tt.file, []byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid, "errors: %v", res.Errors)
		})
	}
}

func TestValidateDocument_ParseFailure(t *testing.T) {
	_, err := ValidateDocument("cachestamp.json", []byte("{"))
	assert.Error(t, err)

	_, err = ValidateDocument("cachestamp.ini", []byte("a=b"))
	assert.ErrorContains(t, err, "unsupported config file type")
}

func TestValidateFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cachestamp.yaml")
	require.NoError(t, os.WriteFile(p, []byte("identifier: CACHE_VERSION\n"), 0o600))
	res, err := ValidateFile(p)
	require.NoError(t, err)
	assert.True(t, res.Valid)

	_, err = ValidateFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSchemaDocument(t *testing.T) {
	data, err := SchemaDocument()
	require.NoError(t, err)
	assert.Contains(t, string(data), "cachestamp configuration")
}
