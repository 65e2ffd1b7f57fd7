package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/cachestamp/pkg/host"
	"github.com/fulmenhq/cachestamp/pkg/manifest"
	"github.com/fulmenhq/cachestamp/pkg/patcher"
	"github.com/fulmenhq/cachestamp/pkg/pattern"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("match", "", "")
	fs.StringToString("group", nil, "")
	fs.String("format", "", "")
	fs.Int64("max-size", 0, "")
	fs.String("handler", "", "")
	fs.Bool("dry-run", false, "")
	fs.StringSlice("ignore", nil, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	f, used, err := Load("", nil)
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.True(t, f.Match.IsZero())
	assert.Equal(t, manifest.DefaultName, f.ManifestName)
	assert.Equal(t, "json", f.ManifestFormat)
	assert.Equal(t, DefaultScriptPath, f.SWPath)
	assert.Equal(t, ".", f.Root)
	assert.Equal(t, patcher.HandlerIncrement, f.VersionHandler)
	assert.Equal(t, patcher.DefaultIdentifier, f.Identifier)
	assert.Equal(t, patcher.DefaultKeyword, f.Keyword)
	assert.Zero(t, f.MaxSize)

	opts, err := Resolve(*f, patcher.Env{})
	require.NoError(t, err)
	assert.Equal(t, manifest.DefaultName, opts.ManifestAssetPath())
	assert.Equal(t, DefaultScriptPath, opts.ScriptAssetPath())
	_, bounded := opts.Ceiling.Limit()
	assert.False(t, bounded)
	assert.False(t, opts.Rule.IsGrouped())
	assert.True(t, opts.Handler.IsIncrement())
}

func TestLoad_GroupedYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, "cachestamp.yaml", `
match:
  js: 'glob:**/*.js'
  css: '/\.css$/'
output_path: static
max_size: 1024
version_handler: count
`)

	f, used, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "cachestamp.yaml", filepath.Base(used))
	assert.Equal(t, map[string]string{"js": "glob:**/*.js", "css": `/\.css$/`}, f.Match.Groups)

	opts, err := Resolve(*f, patcher.Env{})
	require.NoError(t, err)
	assert.Equal(t, []string{"css", "js"}, opts.Rule.Labels())
	assert.Equal(t, "static/resources-manifest.json", opts.ManifestAssetPath())
	limit, bounded := opts.Ceiling.Limit()
	assert.True(t, bounded)
	assert.Equal(t, int64(1024), limit)
	assert.Equal(t, patcher.HandlerCount, opts.Handler.Name())
}

func TestLoad_GroupLabelsKeepCase(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "cachestamp.yaml", "match:\n  JS: '*.js'\n  styleSheets: '*.css'\n  app.core: 'core/**'\n"},
		{"json", "cachestamp.json", `{"match": {"JS": "*.js", "styleSheets": "*.css", "app.core": "core/**"}}`},
		{"toml", "cachestamp.toml", "[match]\nJS = \"*.js\"\nstyleSheets = \"*.css\"\n\"app.core\" = \"core/**\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			writeConfig(t, dir, tt.file, tt.content)

			f, _, err := Load("", nil)
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"JS": "*.js", "styleSheets": "*.css", "app.core": "core/**"}, f.Match.Groups)

			opts, err := Resolve(*f, patcher.Env{})
			require.NoError(t, err)
			m := manifest.Build([]host.Asset{{Name: "a.js", Size: 1}, {Name: "b.css", Size: 1}}, opts.Rule, opts.Ceiling)
			out, err := manifest.Encode(m, manifest.FormatJSON)
			require.NoError(t, err)
			assert.JSONEq(t, `{"JS":["a.js"],"app.core":[],"styleSheets":["b.css"]}`, string(out))
		})
	}
}

func TestLoad_EnvMatchOverridesFileGroups(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, "cachestamp.yaml", "match:\n  JS: '*.js'\n")
	t.Setenv("CACHESTAMP_MATCH", "re:\\.css$")

	f, _, err := Load("", nil)
	require.NoError(t, err)
	assert.Nil(t, f.Match.Groups)
	assert.Equal(t, `re:\.css$`, f.Match.Single)
}

func TestLoad_ExplicitTOML(t *testing.T) {
	dir := t.TempDir()
	p := writeConfig(t, dir, "build.toml", `
match = "re:\\.js$"
sw_path = "public/sw.js"
manifest_format = "json-pretty"
`)
	f, used, err := Load(p, nil)
	require.NoError(t, err)
	assert.Equal(t, p, used)
	assert.Equal(t, `re:\.js$`, f.Match.Single)

	opts, err := Resolve(*f, patcher.Env{})
	require.NoError(t, err)
	assert.Equal(t, manifest.FormatJSONPretty, opts.Format)
	assert.Equal(t, "public/sw.js", opts.ScriptPath)
	assert.Equal(t, "sw.js", opts.ScriptAssetPath())
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, "cachestamp.json", `{"match": "re:\\.js$", "max_size": 10, "version_handler": "hash"}`)
	t.Setenv("CACHESTAMP_MAX_SIZE", "20")
	t.Setenv("CACHESTAMP_MATCH", "glob:*.css")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--handler", "timestamp", "--ignore", "a/**,b/**"}))

	f, _, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, int64(20), f.MaxSize, "env beats file")
	assert.Equal(t, "glob:*.css", f.Match.Single, "env beats file")
	assert.Equal(t, "timestamp", f.VersionHandler, "flag beats file")
	assert.Equal(t, []string{"a/**", "b/**"}, f.Ignore)

	require.NoError(t, flags.Parse([]string{"--match", "re:\\.map$"}))
	f, _, err = Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, `re:\.map$`, f.Match.Single, "flag beats env")
}

func TestLoad_GroupFlag(t *testing.T) {
	t.Chdir(t.TempDir())
	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--group", "js=glob:*.js", "--group", "css=glob:*.css"}))

	f, _, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"js": "glob:*.js", "css": "glob:*.css"}, f.Match.Groups)
}

func TestLoad_MatchWrongType(t *testing.T) {
	dir := t.TempDir()
	p := writeConfig(t, dir, "cachestamp.yaml", "match:\n  js: 3\n")
	_, _, err := Load(p, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `match group "js"`)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		file File
		key  string
	}{
		{"bad_pattern", File{Match: MatchSpec{Single: "re:("}}, KeyMatch},
		{"bad_group_pattern", File{Match: MatchSpec{Groups: map[string]string{"js": "glob:[", "css": "glob:*.css"}}}, "match.js"},
		{"empty_groups", File{Match: MatchSpec{Groups: map[string]string{}}}, KeyMatch},
		{"negative_size", File{MaxSize: -1}, KeyMaxSize},
		{"bad_format", File{ManifestFormat: "xml"}, KeyManifestFormat},
		{"bad_identifier", File{Identifier: "CACHE VERSION"}, KeyIdentifier},
		{"bad_keyword", File{Keyword: "con st"}, KeyKeyword},
		{"bad_handler", File{VersionHandler: "random"}, KeyVersionHandler},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.file, patcher.Env{})
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}

	_, err := Resolve(File{Match: MatchSpec{Single: "re:("}}, patcher.Env{})
	var compileErr *pattern.CompileError
	assert.True(t, errors.As(err, &compileErr))
}

func TestResolve_ScriptOutputOverride(t *testing.T) {
	opts, err := Resolve(File{OutputPath: "/assets/", SWPath: "src/sw.js", SWOutput: "worker.js"}, patcher.Env{})
	require.NoError(t, err)
	assert.Equal(t, "assets/worker.js", opts.ScriptAssetPath())
	assert.Equal(t, "assets/resources-manifest.json", opts.ManifestAssetPath())
}

func TestResolve_CopiesIgnore(t *testing.T) {
	f := File{Ignore: []string{"*.map"}}
	opts, err := Resolve(f, patcher.Env{})
	require.NoError(t, err)
	f.Ignore[0] = "changed"
	assert.Equal(t, []string{"*.map"}, opts.Ignore)
}

func TestMatchSpecValue(t *testing.T) {
	assert.Equal(t, "glob:*.js", MatchSpec{Single: "glob:*.js"}.Value())
	b, err := MatchSpec{Groups: map[string]string{"js": "glob:*.js"}}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"js":"glob:*.js"}`, string(b))
}
