// Package config loads cachestamp settings from defaults, a config file,
// CACHESTAMP_* environment variables and command-line flags, and resolves
// them into immutable Options.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/fulmenhq/cachestamp/pkg/manifest"
	"github.com/fulmenhq/cachestamp/pkg/patcher"
	"github.com/fulmenhq/cachestamp/pkg/pattern"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. CACHESTAMP_MAX_SIZE.
const EnvPrefix = "CACHESTAMP"

// FileName is the base name searched for in the working directory.
const FileName = "cachestamp"

// Configuration keys.
const (
	KeyMatch          = "match"
	KeyOutputPath     = "output_path"
	KeyManifestName   = "manifest_name"
	KeyManifestFormat = "manifest_format"
	KeySWPath         = "sw_path"
	KeySWOutput       = "sw_output"
	KeyRoot           = "root"
	KeyMaxSize        = "max_size"
	KeyVersionHandler = "version_handler"
	KeyIdentifier     = "identifier"
	KeyKeyword        = "keyword"
	KeyDryRun         = "dry_run"
	KeyNoIgnore       = "no_ignore"
	KeyIgnore         = "ignore"
)

// DefaultScriptPath is the companion script looked up under Root.
const DefaultScriptPath = "service-worker.js"

// File mirrors the configuration document.
type File struct {
	Match          MatchSpec `mapstructure:"match" json:"match" yaml:"match"`
	OutputPath     string    `mapstructure:"output_path" json:"output_path" yaml:"output_path"`
	ManifestName   string    `mapstructure:"manifest_name" json:"manifest_name" yaml:"manifest_name"`
	ManifestFormat string    `mapstructure:"manifest_format" json:"manifest_format" yaml:"manifest_format"`
	SWPath         string    `mapstructure:"sw_path" json:"sw_path" yaml:"sw_path"`
	SWOutput       string    `mapstructure:"sw_output" json:"sw_output,omitempty" yaml:"sw_output,omitempty"`
	Root           string    `mapstructure:"root" json:"root" yaml:"root"`
	MaxSize        int64     `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	VersionHandler string    `mapstructure:"version_handler" json:"version_handler" yaml:"version_handler"`
	Identifier     string    `mapstructure:"identifier" json:"identifier" yaml:"identifier"`
	Keyword        string    `mapstructure:"keyword" json:"keyword" yaml:"keyword"`
	DryRun         bool      `mapstructure:"dry_run" json:"dry_run" yaml:"dry_run"`
	NoIgnore       bool      `mapstructure:"no_ignore" json:"no_ignore" yaml:"no_ignore"`
	Ignore         []string  `mapstructure:"ignore" json:"ignore,omitempty" yaml:"ignore,omitempty"`
}

// MatchSpec is the raw match setting: one pattern, or labelled patterns.
// The zero value means the default pattern.
type MatchSpec struct {
	Single string
	Groups map[string]string
}

// IsZero reports whether match was left unset.
func (m MatchSpec) IsZero() bool { return m.Single == "" && len(m.Groups) == 0 }

// Value is the document form: a string or a map.
func (m MatchSpec) Value() interface{} {
	if m.Groups != nil {
		return m.Groups
	}
	return m.Single
}

func (m MatchSpec) MarshalJSON() ([]byte, error) { return json.Marshal(m.Value()) }

func (m MatchSpec) MarshalYAML() (interface{}, error) { return m.Value(), nil }

var matchSpecType = reflect.TypeOf(MatchSpec{})

// MatchSpecHook decodes a string or a map into MatchSpec.
func MatchSpecHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != matchSpecType {
			return data, nil
		}
		switch v := data.(type) {
		case nil:
			return MatchSpec{}, nil
		case MatchSpec:
			return v, nil
		case string:
			return MatchSpec{Single: v}, nil
		case map[string]interface{}:
			return groupsFrom(v)
		case map[interface{}]interface{}:
			m := make(map[string]interface{}, len(v))
			for k, val := range v {
				m[fmt.Sprint(k)] = val
			}
			return groupsFrom(m)
		case map[string]string:
			groups := make(map[string]string, len(v))
			for k, val := range v {
				groups[k] = val
			}
			return MatchSpec{Groups: groups}, nil
		default:
			return nil, fmt.Errorf("match must be a pattern string or a map of label to pattern, got %T", data)
		}
	}
}

func groupsFrom(raw map[string]interface{}) (MatchSpec, error) {
	groups := make(map[string]string, len(raw))
	if err := collectGroups(groups, "", raw); err != nil {
		return MatchSpec{}, err
	}
	return MatchSpec{Groups: groups}, nil
}

// collectGroups joins nested maps back into dotted labels; viper splits
// keys such as "app.core" into nested maps.
func collectGroups(dst map[string]string, prefix string, raw map[string]interface{}) error {
	for key, val := range raw {
		label := key
		if prefix != "" {
			label = prefix + "." + key
		}
		switch v := val.(type) {
		case string:
			dst[label] = v
		case map[string]interface{}:
			if err := collectGroups(dst, label, v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("match group %q must be a pattern string, got %T", label, val)
		}
	}
	return nil
}

// flagKeys maps command-line flag names onto configuration keys.
var flagKeys = map[string]string{
	"output-path":   KeyOutputPath,
	"manifest-name": KeyManifestName,
	"format":        KeyManifestFormat,
	"sw-path":       KeySWPath,
	"sw-output":     KeySWOutput,
	"root":          KeyRoot,
	"max-size":      KeyMaxSize,
	"handler":       KeyVersionHandler,
	"identifier":    KeyIdentifier,
	"keyword":       KeyKeyword,
	"dry-run":       KeyDryRun,
	"no-ignore":     KeyNoIgnore,
	"ignore":        KeyIgnore,
}

func setDefaults(v *viper.Viper) {
	// match has no viper default: a string default would shadow a map from the file.
	v.SetDefault(KeyOutputPath, "")
	v.SetDefault(KeyManifestName, manifest.DefaultName)
	v.SetDefault(KeyManifestFormat, string(manifest.FormatJSON))
	v.SetDefault(KeySWPath, DefaultScriptPath)
	v.SetDefault(KeySWOutput, "")
	v.SetDefault(KeyRoot, ".")
	v.SetDefault(KeyMaxSize, 0)
	v.SetDefault(KeyVersionHandler, patcher.HandlerIncrement)
	v.SetDefault(KeyIdentifier, patcher.DefaultIdentifier)
	v.SetDefault(KeyKeyword, patcher.DefaultKeyword)
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyNoIgnore, false)
	v.SetDefault(KeyIgnore, []string{})
}

// Load reads configuration. explicit names a config file; when empty,
// cachestamp.{yaml,yml,json,toml} is searched for in the working directory
// and the user config directory. flags may be nil. Load returns the file
// actually read, or "" when running on defaults.
func Load(explicit string, flags *pflag.FlagSet) (*File, string, error) {
	v := viper.New()
	setDefaults(v)

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, FileName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(KeyMatch)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, "", &ConfigError{Key: key, Err: err}
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, "", &ConfigError{Err: fmt.Errorf("read config: %w", err)}
		}
	}

	var f File
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		MatchSpecHook(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&f, hook); err != nil {
		return nil, "", &ConfigError{Err: fmt.Errorf("decode config: %w", err)}
	}

	used := v.ConfigFileUsed()
	if used != "" && f.Match.Groups != nil {
		// viper lowercases map keys; labels are read back from the document.
		groups, err := documentGroups(used)
		if err != nil {
			return nil, "", &ConfigError{Key: KeyMatch, Err: err}
		}
		if groups != nil {
			f.Match = MatchSpec{Groups: groups}
		}
	}

	if flags != nil {
		if mf := flags.Lookup("match"); mf != nil && mf.Changed {
			f.Match = MatchSpec{Single: mf.Value.String()}
		}
		if gf := flags.Lookup("group"); gf != nil && gf.Changed {
			groups, err := flags.GetStringToString("group")
			if err != nil {
				return nil, "", &ConfigError{Key: KeyMatch, Err: err}
			}
			f.Match = MatchSpec{Groups: groups}
		}
	}

	return &f, used, nil
}

// documentGroups returns the match map of the config file at name with its
// labels as written, or nil when match is not a map there.
func documentGroups(name string) (map[string]string, error) {
	data, err := os.ReadFile(name) // #nosec G304 -- path is the user's own config file
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	doc, err := ParseDocument(name, data)
	if err != nil {
		return nil, err
	}
	top, ok := doc.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	for key, raw := range top {
		if !strings.EqualFold(key, KeyMatch) {
			continue
		}
		decoded, err := MatchSpecHook()(reflect.TypeOf(raw), matchSpecType, raw)
		if err != nil {
			return nil, err
		}
		return decoded.(MatchSpec).Groups, nil
	}
	return nil, nil
}

// ConfigError reports an unusable setting.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Options are fully resolved settings. Build them with Resolve or Defaults;
// the stamp package treats them as read-only.
type Options struct {
	Rule         manifest.Rule
	Ceiling      manifest.Ceiling
	OutputPath   string
	ManifestName string
	Format       manifest.Format
	ScriptPath   string
	ScriptOutput string
	Root         string
	Declaration  patcher.Declaration
	Handler      patcher.Handler
	DryRun       bool
	NoIgnore     bool
	Ignore       []string
}

// Defaults is what an empty configuration resolves to.
func Defaults() Options {
	return Options{
		Rule:         manifest.DefaultRule(),
		Ceiling:      manifest.Unbounded(),
		ManifestName: manifest.DefaultName,
		Format:       manifest.FormatJSON,
		ScriptPath:   DefaultScriptPath,
		ScriptOutput: DefaultScriptPath,
		Root:         ".",
		Declaration:  patcher.DefaultDeclaration(),
		Handler:      patcher.Increment,
	}
}

// ManifestAssetPath is the output asset name of the manifest.
func (o Options) ManifestAssetPath() string { return path.Join(o.OutputPath, o.ManifestName) }

// ScriptAssetPath is the output asset name of the rewritten script.
func (o Options) ScriptAssetPath() string { return path.Join(o.OutputPath, o.ScriptOutput) }

// Resolve validates f, fills every default and compiles all patterns.
func Resolve(f File, env patcher.Env) (Options, error) {
	opts := Defaults()

	rule, err := resolveRule(f.Match)
	if err != nil {
		return Options{}, err
	}
	opts.Rule = rule

	if f.MaxSize < 0 {
		return Options{}, &ConfigError{Key: KeyMaxSize, Err: fmt.Errorf("must not be negative, got %d", f.MaxSize)}
	}
	if f.MaxSize > 0 {
		opts.Ceiling = manifest.Below(f.MaxSize)
	}

	opts.OutputPath = strings.Trim(filepath.ToSlash(f.OutputPath), "/")
	if f.ManifestName != "" {
		opts.ManifestName = f.ManifestName
	}
	if f.ManifestFormat != "" {
		format, err := manifest.ParseFormat(f.ManifestFormat)
		if err != nil {
			return Options{}, &ConfigError{Key: KeyManifestFormat, Err: err}
		}
		opts.Format = format
	}

	if f.Root != "" {
		opts.Root = f.Root
	}
	if f.SWPath != "" {
		opts.ScriptPath = filepath.ToSlash(f.SWPath)
	}
	opts.ScriptOutput = path.Base(opts.ScriptPath)
	if f.SWOutput != "" {
		opts.ScriptOutput = filepath.ToSlash(f.SWOutput)
	}

	if f.Keyword != "" {
		opts.Declaration.Keyword = f.Keyword
	}
	if f.Identifier != "" {
		opts.Declaration.Identifier = f.Identifier
	}
	if err := opts.Declaration.Validate(); err != nil {
		key := KeyIdentifier
		if strings.Contains(err.Error(), "keyword") {
			key = KeyKeyword
		}
		return Options{}, &ConfigError{Key: key, Err: err}
	}

	if env.RepoPath == "" {
		env.RepoPath = opts.Root
	}
	handler, err := patcher.Resolve(f.VersionHandler, env)
	if err != nil {
		return Options{}, &ConfigError{Key: KeyVersionHandler, Err: err}
	}
	opts.Handler = handler

	opts.DryRun = f.DryRun
	opts.NoIgnore = f.NoIgnore
	opts.Ignore = append([]string(nil), f.Ignore...)
	return opts, nil
}

func resolveRule(spec MatchSpec) (manifest.Rule, error) {
	if spec.Groups != nil {
		if len(spec.Groups) == 0 {
			return manifest.Rule{}, &ConfigError{Key: KeyMatch, Err: errors.New("grouped match needs at least one label")}
		}
		labels := make([]string, 0, len(spec.Groups))
		for label := range spec.Groups {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		groups := make(map[string]pattern.Matcher, len(spec.Groups))
		for _, label := range labels {
			m, err := pattern.Compile(spec.Groups[label])
			if err != nil {
				return manifest.Rule{}, &ConfigError{Key: KeyMatch + "." + label, Err: err}
			}
			groups[label] = m
		}
		rule := manifest.Grouped(groups)
		if err := rule.Validate(); err != nil {
			return manifest.Rule{}, &ConfigError{Key: KeyMatch, Err: err}
		}
		return rule, nil
	}

	if spec.Single == "" {
		return manifest.DefaultRule(), nil
	}
	m, err := pattern.Compile(spec.Single)
	if err != nil {
		return manifest.Rule{}, &ConfigError{Key: KeyMatch, Err: err}
	}
	return manifest.Single(m), nil
}
