// Package layoutrepo reads base layout files as of a git revision.
package layoutrepo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	oerrors "github.com/keyforge/dispatch/internal/errors"
	"github.com/keyforge/dispatch/internal/layer"
	"github.com/keyforge/dispatch/internal/layout"
)

// HEAD is the default revision.
const HEAD = "HEAD"

// Repo serves files from a layouts directory that may live inside a git
// working tree.
type Repo struct {
	Root string
}

// ValidateName rejects names that are not plain JSON file names.
func ValidateName(file string) error {
	switch {
	case file == "", strings.ContainsAny(file, `/\`), strings.Contains(file, ".."):
		return oerrors.Wrap(oerrors.ErrValidation, fmt.Sprintf("invalid layout file name %q", file))
	case !strings.HasSuffix(file, ".json"):
		return oerrors.Wrap(oerrors.ErrValidation, fmt.Sprintf("layout file %q must be a .json file", file))
	}
	return nil
}

// Read returns the content of file at rev. An empty rev means HEAD. When
// the root is not inside a git repository, HEAD reads the working file and
// any other revision is not found.
func (r *Repo) Read(file, rev string) ([]byte, error) {
	if err := ValidateName(file); err != nil {
		return nil, err
	}
	if rev == "" {
		rev = HEAD
	}

	repo, err := git.PlainOpenWithOptions(r.Root, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if rev != HEAD {
			return nil, oerrors.Wrap(oerrors.ErrNotFound, fmt.Sprintf("revision %s: layouts are not under version control", rev))
		}
		return r.readWorking(file)
	}
	if err != nil {
		return nil, fmt.Errorf("opening layouts repository: %w", err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, oerrors.Wrapf(oerrors.ErrNotFound, err, "revision %s", rev)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, oerrors.Wrapf(oerrors.ErrNotFound, err, "revision %s", rev)
	}

	path, err := r.pathInRepo(repo, file)
	if err != nil {
		return nil, err
	}
	f, err := commit.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, oerrors.Wrap(oerrors.ErrNotFound, fmt.Sprintf("%s at %s", file, rev))
		}
		return nil, fmt.Errorf("reading %s at %s: %w", file, rev, err)
	}
	content, err := f.Contents()
	if err != nil {
		return nil, fmt.Errorf("reading %s at %s: %w", file, rev, err)
	}
	return []byte(content), nil
}

func (r *Repo) readWorking(file string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(r.Root, file))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, oerrors.Wrap(oerrors.ErrNotFound, file)
	}
	return data, err
}

// pathInRepo returns the slash-separated path of file relative to the
// repository's working tree.
func (r *Repo) pathInRepo(repo *git.Repository, file string) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("layouts repository has no working tree: %w", err)
	}
	root, err := filepath.Abs(r.Root)
	if err != nil {
		return "", err
	}
	top, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	rel, err := filepath.Rel(top, root)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(filepath.Join(rel, file)), nil
}

// Source adapts the repository to a layer.BaseSource pinned at rev.
func (r *Repo) Source(rev string) layer.BaseSource {
	return revisionSource{repo: r, rev: rev}
}

type revisionSource struct {
	repo *Repo
	rev  string
}

func (s revisionSource) Load(board, base string, legacy bool) ([]layout.MatrixKey, error) {
	data, err := s.repo.Read(layer.BaseFileName(board, base, legacy), s.rev)
	if err != nil {
		return nil, err
	}
	return layer.DecodeBase(data)
}
