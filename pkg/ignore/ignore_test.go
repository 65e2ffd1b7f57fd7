package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestNewMatcherLayers(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.map\nreport/\n")
	writeFile(t, filepath.Join(root, FileName), "# local\nstats.json\n")

	matcher, err := NewMatcher(root, "*.LICENSE.txt")
	if err != nil {
		t.Fatalf("NewMatcher() failed: %v", err)
	}

	tests := []struct {
		path    string
		ignored bool
	}{
		{"main.js", false},
		{"main.js.map", true},
		{"static/js/chunk.js.map", true},
		{"stats.json", true},
		{"vendor.js.LICENSE.txt", true},
		{".git/HEAD", true},
		{FileName, true},
		{"report/index.html", true},
		{"styles.css", false},
	}
	for _, tt := range tests {
		if got := matcher.IsIgnored(tt.path); got != tt.ignored {
			t.Errorf("IsIgnored(%q) = %v, expected %v", tt.path, got, tt.ignored)
		}
	}

	if !matcher.IsIgnoredDir("report") {
		t.Errorf("IsIgnoredDir(report) = false, expected true")
	}
	if matcher.IsIgnoredDir("static") {
		t.Errorf("IsIgnoredDir(static) = true, expected false")
	}
}

func TestNewMatcherWithoutIgnoreFiles(t *testing.T) {
	matcher, err := NewMatcher(t.TempDir())
	if err != nil {
		t.Fatalf("NewMatcher() failed: %v", err)
	}
	if matcher.IsIgnored("main.js") {
		t.Error("main.js should not be ignored without ignore files")
	}
	if matcher.Len() != 2 {
		t.Errorf("Len() = %d, expected 2 default patterns", matcher.Len())
	}
}

func TestSplitPath(t *testing.T) {
	tests := map[string]int{
		"":               0,
		".":              0,
		"/a/b":           2,
		"a//b/./c":       3,
		"static/js/a.js": 3,
	}
	for in, want := range tests {
		if got := len(splitPath(in)); got != want {
			t.Errorf("splitPath(%q) has %d parts, expected %d", in, got, want)
		}
	}
}
