// Package host defines what cachestamp needs from the build that produced the
// assets: a listing of output files, a way to register new output files, a
// sink for non-fatal diagnostics, and read/write access to the companion
// script. The bundler itself is never modelled here.
package host

import (
	"fmt"
	"sort"
	"sync"
)

// Asset is one bundler output as seen by the manifest builder.
type Asset struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Diagnostic is a recoverable problem surfaced to the user after the build.
type Diagnostic struct {
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (d Diagnostic) String() string { return d.Message }

// Compilation is the build-host surface consumed by a stamp run.
type Compilation interface {
	// Assets lists the current output assets in host order.
	Assets() ([]Asset, error)
	// EmitAsset registers an output asset. A later call for the same name wins.
	EmitAsset(name string, content []byte) error
	// ReportError records a non-fatal diagnostic.
	ReportError(err error)
	// Diagnostics returns everything reported so far.
	Diagnostics() []Diagnostic
}

// ScriptStore reads and writes the persisted companion script.
type ScriptStore interface {
	ReadText(path string) (string, error)
	WriteText(path, content string) error
}

// diagnostics is embedded by the Compilation implementations.
type diagnostics struct {
	mu    sync.Mutex
	items []Diagnostic
}

func (d *diagnostics) ReportError(err error) {
	if err == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = append(d.items, Diagnostic{Message: err.Error(), Err: err})
}

func (d *diagnostics) Diagnostics() []Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Diagnostic, len(d.items))
	copy(out, d.items)
	return out
}

// Memory is an in-memory Compilation for library callers and tests.
type Memory struct {
	diagnostics

	assets  []Asset
	emitted map[string][]byte
	order   []string

	// ListErr, when set, is returned by Assets.
	ListErr error
}

// NewMemory returns a Memory compilation holding assets in the given order.
func NewMemory(assets ...Asset) *Memory {
	return &Memory{
		assets:  append([]Asset(nil), assets...),
		emitted: make(map[string][]byte),
	}
}

func (m *Memory) Assets() ([]Asset, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append([]Asset(nil), m.assets...), nil
}

func (m *Memory) EmitAsset(name string, content []byte) error {
	if name == "" {
		return fmt.Errorf("emit asset: empty name")
	}
	if _, ok := m.emitted[name]; !ok {
		m.order = append(m.order, name)
	}
	m.emitted[name] = append([]byte(nil), content...)
	return nil
}

// Emitted returns the content last registered under name.
func (m *Memory) Emitted(name string) ([]byte, bool) {
	b, ok := m.emitted[name]
	return b, ok
}

// EmittedNames lists registered asset names in first-registration order.
func (m *Memory) EmittedNames() []string {
	return append([]string(nil), m.order...)
}

// MemoryStore is a map-backed ScriptStore.
type MemoryStore struct {
	mu    sync.Mutex
	files map[string]string

	ReadErr  error
	WriteErr error
	Writes   int
}

// NewMemoryStore seeds a store with path → content pairs.
func NewMemoryStore(files map[string]string) *MemoryStore {
	s := &MemoryStore{files: make(map[string]string, len(files))}
	for k, v := range files {
		s.files[k] = v
	}
	return s
}

func (s *MemoryStore) ReadText(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return "", s.ReadErr
	}
	text, ok := s.files[path]
	if !ok {
		return "", fmt.Errorf("open %s: file does not exist", path)
	}
	return text, nil
}

func (s *MemoryStore) WriteText(path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.files[path] = content
	s.Writes++
	return nil
}

// Paths lists stored paths in sorted order.
func (s *MemoryStore) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.files))
	for k := range s.files {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
