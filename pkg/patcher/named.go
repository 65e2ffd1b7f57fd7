package patcher

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fulmenhq/cachestamp/internal/gitctx"
	"github.com/fulmenhq/cachestamp/pkg/manifest"
)

// Handler names accepted in configuration.
const (
	HandlerIncrement = "INCREMENT"
	HandlerCount     = "COUNT"
	HandlerTimestamp = "TIMESTAMP"
	HandlerHash      = "HASH"
	HandlerGitSHA    = "GIT_SHA"
)

// Env supplies what the named handlers read from outside the manifest.
type Env struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// RepoPath is where GIT_SHA starts looking for a repository.
	RepoPath string
}

// Names lists every handler Resolve accepts.
func Names() []string {
	return []string{HandlerIncrement, HandlerCount, HandlerTimestamp, HandlerHash, HandlerGitSHA}
}

// Resolve maps a configured handler name to a Handler. Names are case
// insensitive.
func Resolve(name string, env Env) (Handler, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", HandlerIncrement:
		return Increment, nil
	case HandlerCount:
		return Custom(HandlerCount, func(m manifest.Manifest) (interface{}, error) {
			return m.Count(), nil
		}), nil
	case HandlerTimestamp:
		now := env.Now
		if now == nil {
			now = time.Now
		}
		return Custom(HandlerTimestamp, func(manifest.Manifest) (interface{}, error) {
			return now().Unix(), nil
		}), nil
	case HandlerHash:
		return Custom(HandlerHash, func(m manifest.Manifest) (interface{}, error) {
			return ManifestHash(m)
		}), nil
	case HandlerGitSHA:
		repo := env.RepoPath
		if repo == "" {
			repo = "."
		}
		return Custom(HandlerGitSHA, func(manifest.Manifest) (interface{}, error) {
			head, err := gitctx.Head(repo)
			if err != nil {
				return nil, err
			}
			return strconv.Quote(head.Short()), nil
		}), nil
	default:
		return Handler{}, fmt.Errorf("unknown version handler %q (expected one of %s)", name, strings.Join(Names(), ", "))
	}
}

// ManifestHash is the quoted xxhash of the compact JSON manifest. It changes
// exactly when the selected asset names change.
func ManifestHash(m manifest.Manifest) (string, error) {
	b, err := json.Marshal(m.Value())
	if err != nil {
		return "", err
	}
	return strconv.Quote(fmt.Sprintf("%016x", xxhash.Sum64(b))), nil
}
