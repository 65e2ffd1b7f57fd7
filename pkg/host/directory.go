package host

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fulmenhq/cachestamp/pkg/ignore"
	"github.com/fulmenhq/cachestamp/pkg/safeio"
	"golang.org/x/sync/errgroup"
)

// DirectoryOptions tunes how an output directory is listed.
type DirectoryOptions struct {
	// NoIgnore disables .gitignore / .cachestampignore filtering.
	NoIgnore bool
	// Ignore holds extra gitignore-syntax patterns.
	Ignore []string
	// Exclude lists slash-separated names never reported as assets, such as
	// the manifest a previous run emitted.
	Exclude []string
	// Workers bounds concurrent size lookups. Zero means GOMAXPROCS.
	Workers int
}

// Directory is a Compilation backed by a bundler output directory on disk.
type Directory struct {
	diagnostics

	root    string
	opts    DirectoryOptions
	matcher *ignore.Matcher
	exclude map[string]struct{}
}

// NewDirectory opens root as the output directory of a finished build.
func NewDirectory(root string, opts DirectoryOptions) (*Directory, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("output directory: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("output directory %s is not a directory", root)
	}

	d := &Directory{root: root, opts: opts, exclude: make(map[string]struct{}, len(opts.Exclude))}
	for _, name := range opts.Exclude {
		d.exclude[path.Clean(filepath.ToSlash(name))] = struct{}{}
	}
	if !opts.NoIgnore {
		m, err := ignore.NewMatcher(root, opts.Ignore...)
		if err != nil {
			return nil, fmt.Errorf("load ignore files: %w", err)
		}
		d.matcher = m
	}
	return d, nil
}

// Root returns the directory being listed.
func (d *Directory) Root() string { return d.root }

// Assets walks the directory in lexical order and returns every regular file
// that is not ignored or excluded. Sizes are looked up concurrently; the
// result keeps walk order.
func (d *Directory) Assets() ([]Asset, error) {
	fsys := os.DirFS(d.root)

	var names []string
	err := doublestar.GlobWalk(fsys, "**", func(p string, entry fs.DirEntry) error {
		if entry.IsDir() {
			if d.matcher != nil && p != "." && d.matcher.IsIgnoredDir(p) {
				return fs.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		if _, skip := d.exclude[p]; skip {
			return nil
		}
		if d.matcher != nil && d.matcher.IsIgnored(p) {
			return nil
		}
		names = append(names, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", d.root, err)
	}

	assets := make([]Asset, len(names))
	workers := d.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			info, err := fs.Stat(fsys, name)
			if err != nil {
				return fmt.Errorf("stat %s: %w", name, err)
			}
			assets[i] = Asset{Name: name, Size: info.Size()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

// EmitAsset writes content below the output directory.
func (d *Directory) EmitAsset(name string, content []byte) error {
	clean, err := safeio.CleanUserPath(name)
	if err != nil {
		return fmt.Errorf("emit %s: %w", name, err)
	}
	if err := safeio.WriteFileContained(d.root, clean, content); err != nil {
		return fmt.Errorf("emit %s: %w", name, err)
	}
	return nil
}

// FileStore reads and writes the companion script relative to Root.
type FileStore struct {
	Root string
}

func (s FileStore) root() string {
	if s.Root == "" {
		return "."
	}
	return s.Root
}

func (s FileStore) ReadText(p string) (string, error) {
	b, err := safeio.ReadFileContained(s.root(), p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s FileStore) WriteText(p, content string) error {
	abs, err := safeio.ResolveContained(s.root(), p)
	if err != nil {
		return err
	}
	return safeio.WriteFilePreservePerms(abs, []byte(content))
}
