// Package gitsource fetches a documentation catalog out of a git repository
// so conversion can run against a remote source of truth.
package gitsource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
	"git.home.luguber.info/inful/docarchive/internal/retry"
)

// FetchOptions select what to clone and where the catalog lives inside the
// repository.
type FetchOptions struct {
	// Ref is a branch or tag name; empty means the remote default branch.
	Ref string

	// Subdir is the catalog path inside the repository; empty means the
	// repository root.
	Subdir string

	// Retry governs re-attempts on clone failure. The zero value clones
	// exactly once.
	Retry retry.Policy
}

// Fetch shallow-clones the repository into a temporary directory and
// returns the catalog path plus a cleanup function. The clone is read-only
// input; callers remove it via cleanup when the build finishes.
func Fetch(ctx context.Context, url string, opts FetchOptions) (catalogPath string, cleanup func(), err error) {
	tmp, err := os.MkdirTemp("", "docarchive-git-*")
	if err != nil {
		return "", nil, archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal,
			"create temporary clone directory")
	}
	cleanup = func() { _ = os.RemoveAll(tmp) }

	slog.Info("Cloning documentation source",
		slog.String("url", url),
		slog.String("ref", opts.Ref))
	err = retry.Do(ctx, opts.Retry, func(ctx context.Context) error {
		// A failed attempt can leave a partial checkout behind; each
		// attempt starts from an empty directory.
		if err := os.RemoveAll(tmp); err != nil {
			return err
		}
		if err := os.MkdirAll(tmp, 0o755); err != nil {
			return err
		}
		return attemptClone(ctx, tmp, url, opts.Ref)
	})
	if err != nil {
		cleanup()
		return "", nil, archerr.Wrap(err, archerr.CategoryGit, archerr.SeverityFatal,
			fmt.Sprintf("clone %s", url))
	}

	catalogPath = filepath.Join(tmp, filepath.FromSlash(opts.Subdir))
	if st, statErr := os.Stat(catalogPath); statErr != nil || !st.IsDir() {
		cleanup()
		return "", nil, archerr.New(archerr.CategoryGit, archerr.SeverityFatal,
			fmt.Sprintf("repository %s has no directory %q", url, opts.Subdir))
	}
	return catalogPath, cleanup, nil
}

// attemptClone performs one shallow clone. A named ref is tried as a branch
// first, then as a tag.
func attemptClone(ctx context.Context, dir, url, ref string) error {
	cloneOpts := &git.CloneOptions{
		URL:          url,
		Depth:        1,
		SingleBranch: true,
	}
	if ref == "" {
		_, err := git.PlainCloneContext(ctx, dir, false, cloneOpts)
		return err
	}

	cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(ref)
	if _, err := git.PlainCloneContext(ctx, dir, false, cloneOpts); err == nil {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	cloneOpts.ReferenceName = plumbing.NewTagReferenceName(ref)
	_, err := git.PlainCloneContext(ctx, dir, false, cloneOpts)
	return err
}
