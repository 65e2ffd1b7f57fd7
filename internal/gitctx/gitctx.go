// Package gitctx reads repository state for version handlers.
package gitctx

import (
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
)

// ShortLength is the abbreviated commit length used in version values.
const ShortLength = 7

// ErrNotRepository is returned when no repository contains the target.
var ErrNotRepository = errors.New("not inside a git repository")

// HeadInfo is the checked-out commit of a repository.
type HeadInfo struct {
	SHA    string `json:"sha"`
	Branch string `json:"branch,omitempty"`
}

// Short returns the abbreviated commit hash.
func (h HeadInfo) Short() string {
	if len(h.SHA) <= ShortLength {
		return h.SHA
	}
	return h.SHA[:ShortLength]
}

// Head opens the repository containing target, searching parent directories,
// and returns its HEAD commit.
func Head(target string) (*HeadInfo, error) {
	repo, err := git.PlainOpenWithOptions(target, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	info := &HeadInfo{SHA: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	return info, nil
}
