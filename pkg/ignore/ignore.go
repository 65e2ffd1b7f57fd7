// Package ignore provides gitignore-style filtering of bundler output using go-git
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileName is the project-level ignore file read from the output directory root.
const FileName = ".cachestampignore"

// Matcher provides gitignore-based filtering rooted at an output directory
type Matcher struct {
	matcher gitignore.Matcher
	count   int
}

// NewMatcher creates a matcher for root with layered ignore sources:
// 1. built-in defaults (.git)
// 2. .gitignore files found under root
// 3. .cachestampignore at root
// 4. extra patterns supplied by configuration
func NewMatcher(root string, extra ...string) (*Matcher, error) {
	fs := osfs.New(root)

	var allPatterns []gitignore.Pattern
	for _, p := range []string{".git", FileName} {
		allPatterns = append(allPatterns, gitignore.ParsePattern(p, nil))
	}

	if gitPatterns, err := gitignore.ReadPatterns(fs, nil); err == nil {
		allPatterns = append(allPatterns, gitPatterns...)
	}

	if own, err := readIgnoreFile(filepath.Join(root, FileName)); err == nil {
		for _, p := range own {
			allPatterns = append(allPatterns, gitignore.ParsePattern(p, nil))
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	for _, p := range extra {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		allPatterns = append(allPatterns, gitignore.ParsePattern(p, nil))
	}

	return &Matcher{
		matcher: gitignore.NewMatcher(allPatterns),
		count:   len(allPatterns),
	}, nil
}

// readIgnoreFile reads patterns from a gitignore-syntax file
func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- fixed file name under the output root
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, nil
}

// Len reports how many patterns the matcher holds.
func (m *Matcher) Len() int { return m.count }

// IsIgnored reports whether a slash-separated path relative to the root is ignored
func (m *Matcher) IsIgnored(relPath string) bool {
	parts := splitPath(relPath)
	if len(parts) == 0 {
		return false
	}
	return m.matcher.Match(parts, false)
}

// IsIgnoredDir reports whether a directory relative to the root should be skipped
func (m *Matcher) IsIgnoredDir(relPath string) bool {
	parts := splitPath(relPath)
	if len(parts) == 0 {
		return false
	}
	return m.matcher.Match(parts, true)
}

// splitPath converts a slash-separated path into components for go-git matching
func splitPath(path string) []string {
	path = filepath.ToSlash(path)
	if path == "" || path == "." {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}
