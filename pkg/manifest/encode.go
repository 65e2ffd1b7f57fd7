package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a serialization of the manifest.
type Format string

const (
	FormatJSON       Format = "json"
	FormatJSONPretty Format = "json-pretty"
	FormatYAML       Format = "yaml"
	FormatTOML       Format = "toml"
)

// tomlSingleKey wraps a single-rule manifest, since TOML has no top-level arrays.
const tomlSingleKey = "assets"

// ParseFormat validates a configured format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatJSONPretty, FormatYAML, FormatTOML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported manifest format %q (json, json-pretty, yaml, toml)", s)
	}
}

// Value returns the manifest as a plain []string or map[string][]string.
func (m Manifest) Value() interface{} {
	if !m.Grouped {
		if m.Names == nil {
			return []string{}
		}
		return m.Names
	}
	groups := make(map[string][]string, len(m.Groups))
	for label, names := range m.Groups {
		if names == nil {
			names = []string{}
		}
		groups[label] = names
	}
	return groups
}

// MarshalJSON renders a flat array or an object of arrays. Empty groups are
// [] and never null.
func (m Manifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Value())
}

// UnmarshalJSON accepts either shape.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var names []string
		if err := json.Unmarshal(trimmed, &names); err != nil {
			return err
		}
		*m = Manifest{Names: names}
		return nil
	}
	var groups map[string][]string
	if err := json.Unmarshal(trimmed, &groups); err != nil {
		return err
	}
	*m = Manifest{Grouped: true, Groups: groups}
	return nil
}

// Encode serializes m. The json format is compact to match what browsers
// fetch at install time.
func Encode(m Manifest, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return json.Marshal(m.Value())
	case FormatJSONPretty:
		b, err := json.MarshalIndent(m.Value(), "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(m.Value()); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOML:
		var v interface{} = m.Value()
		if !m.Grouped {
			v = map[string][]string{tomlSingleKey: m.Value().([]string)}
		}
		return toml.Marshal(v)
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
}

// Decode parses data produced by Encode.
func Decode(data []byte, format Format) (Manifest, error) {
	switch format {
	case FormatJSON, FormatJSONPretty, "":
		var m Manifest
		err := json.Unmarshal(data, &m)
		return m, err
	case FormatYAML:
		var raw interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Manifest{}, err
		}
		return fromValue(raw)
	case FormatTOML:
		var raw map[string]interface{}
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Manifest{}, err
		}
		if len(raw) == 1 {
			if names, ok := raw[tomlSingleKey]; ok {
				return fromValue(names)
			}
		}
		return fromValue(raw)
	default:
		return Manifest{}, fmt.Errorf("unsupported manifest format %q", format)
	}
}

func fromValue(raw interface{}) (Manifest, error) {
	switch v := raw.(type) {
	case nil:
		return Manifest{Names: []string{}}, nil
	case []interface{}:
		names, err := toStrings(v)
		return Manifest{Names: names}, err
	case map[string]interface{}:
		groups := make(map[string][]string, len(v))
		for label, item := range v {
			list, ok := item.([]interface{})
			if !ok {
				return Manifest{}, fmt.Errorf("group %q is not a list", label)
			}
			names, err := toStrings(list)
			if err != nil {
				return Manifest{}, err
			}
			groups[label] = names
		}
		return Manifest{Grouped: true, Groups: groups}, nil
	default:
		return Manifest{}, fmt.Errorf("unexpected manifest document of type %T", raw)
	}
}

func toStrings(items []interface{}) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("manifest entry %v is not a string", item)
		}
		out = append(out, s)
	}
	return out, nil
}
