package patcher

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/fulmenhq/cachestamp/internal/gitctx"
	"github.com/fulmenhq/cachestamp/pkg/manifest"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Increment(t *testing.T) {
	for _, name := range []string{"", "INCREMENT", "increment", " Increment "} {
		h, err := Resolve(name, Env{})
		require.NoError(t, err)
		assert.True(t, h.IsIncrement(), name)
	}
}

func TestResolve_Unknown(t *testing.T) {
	_, err := Resolve("RANDOM", Env{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GIT_SHA")
}

func TestResolve_Count(t *testing.T) {
	h, err := Resolve("count", Env{})
	require.NoError(t, err)

	m := manifest.Manifest{Grouped: true, Groups: map[string][]string{"js": {"a.js", "b.js"}, "css": {"a.css"}}}
	res, err := Patch("const CACHE_VERSION = 1;", DefaultDeclaration(), h, m)
	require.NoError(t, err)
	assert.Equal(t, "const CACHE_VERSION = 3;", res.Text)
	assert.Equal(t, HandlerCount, res.Handler)
}

func TestResolve_Timestamp(t *testing.T) {
	fixed := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	h, err := Resolve(HandlerTimestamp, Env{Now: func() time.Time { return fixed }})
	require.NoError(t, err)

	res, err := Patch("const CACHE_VERSION = 1;", DefaultDeclaration(), h, manifest.Manifest{})
	require.NoError(t, err)
	assert.Equal(t, "const CACHE_VERSION = "+strconv.FormatInt(fixed.Unix(), 10)+";", res.Text)
}

func TestResolve_HashIsStableAndQuoted(t *testing.T) {
	h, err := Resolve(HandlerHash, Env{})
	require.NoError(t, err)

	m := manifest.Manifest{Names: []string{"main.js", "app.css"}}
	first, err := Patch("const CACHE_VERSION = 1;", DefaultDeclaration(), h, m)
	require.NoError(t, err)
	second, err := Patch(first.Text, DefaultDeclaration(), h, m)
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.False(t, second.Changed())
	unquoted, err := strconv.Unquote(first.Next)
	require.NoError(t, err)
	assert.Len(t, unquoted, 16)

	other, err := ManifestHash(manifest.Manifest{Names: []string{"main.js"}})
	require.NoError(t, err)
	assert.NotEqual(t, first.Next, other)
}

func TestResolve_GitSHA(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "service-worker.js"), []byte("const CACHE_VERSION = 1;"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("service-worker.js")
	require.NoError(t, err)
	hash, err := wt.Commit("add service worker", &git.CommitOptions{
		Author: &object.Signature{Name: "Build Bot", Email: "bot@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	h, err := Resolve(HandlerGitSHA, Env{RepoPath: dir})
	require.NoError(t, err)
	res, err := Patch("const CACHE_VERSION = 1;", DefaultDeclaration(), h, manifest.Manifest{})
	require.NoError(t, err)
	assert.Equal(t, `const CACHE_VERSION = "`+hash.String()[:gitctx.ShortLength]+`";`, res.Text)
}

func TestResolve_GitSHAOutsideRepository(t *testing.T) {
	h, err := Resolve(HandlerGitSHA, Env{RepoPath: t.TempDir()})
	require.NoError(t, err)

	_, err = Patch("const CACHE_VERSION = 1;", DefaultDeclaration(), h, manifest.Manifest{})
	var handlerErr *HandlerError
	require.True(t, errors.As(err, &handlerErr))
	assert.True(t, errors.Is(err, gitctx.ErrNotRepository))
	assert.True(t, IsRecoverable(err))
}

func TestNames(t *testing.T) {
	for _, name := range Names() {
		_, err := Resolve(name, Env{})
		assert.NoError(t, err, name)
	}
}
