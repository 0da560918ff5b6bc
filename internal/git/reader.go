package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/maxbolgarin/errm"
)

// RepositorySource reads commits from a repository through go-git.
type RepositorySource struct {
	repo *git.Repository
	root string

	// go-git object storage is not documented as safe for concurrent use.
	mu sync.Mutex
}

// Open opens the repository at path. Parent directories are searched for a
// .git directory, so any path inside a working tree works.
func Open(path string) (*RepositorySource, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNoRepository
		}
		return nil, errm.Wrap(err, "open repository")
	}

	var root string
	if wt, err := repo.Worktree(); err == nil {
		root = canonicalPath(wt.Filesystem.Root())
	}

	return &RepositorySource{repo: repo, root: root}, nil
}

// OpenForResource opens the repository enclosing a file or directory.
// The resource does not need to exist (deleted files still have history).
func OpenForResource(resource string) (*RepositorySource, error) {
	return Open(existingDir(resource))
}

// Root returns the working tree root, or "" for bare repositories.
func (r *RepositorySource) Root() string {
	return r.root
}

// ResolveRef resolves a revision expression to a commit id.
func (r *RepositorySource) ResolveRef(_ context.Context, ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		ref = "HEAD"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		if ref == "HEAD" && errors.Is(err, plumbing.ErrReferenceNotFound) {
			if _, headErr := r.repo.Head(); errors.Is(headErr, plumbing.ErrReferenceNotFound) {
				return "", ErrEmptyRepository
			}
		}
		if errors.Is(err, plumbing.ErrReferenceNotFound) || errors.Is(err, plumbing.ErrObjectNotFound) {
			return "", fmt.Errorf("%w: %s", ErrRefNotFound, ref)
		}
		return "", errm.Wrap(err, "resolve "+ref)
	}
	return hash.String(), nil
}

// Commit returns the commit with the given id.
func (r *RepositorySource) Commit(_ context.Context, id string) (CommitNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.commitObject(id)
	if err != nil {
		return CommitNode{}, err
	}
	return commitNodeFromObject(c), nil
}

// TouchesPath reports whether the commit is not TREESAME to any of its parents
// for the filtered paths. A root commit touches every path present in its tree.
func (r *RepositorySource) TouchesPath(ctx context.Context, node CommitNode, filter PathFilter) (bool, error) {
	if filter.IsZero() {
		return true, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.commitObject(node.ID)
	if err != nil {
		return false, err
	}
	tree, err := c.Tree()
	if err != nil {
		return false, errm.Wrap(err, "read tree of "+node.ShortID())
	}

	if filter.needsDiff() {
		return r.touchesByDiff(ctx, c, tree, filter)
	}

	current, err := lookupEntry(tree, filter.Path)
	if err != nil {
		return false, err
	}
	if c.NumParents() == 0 {
		return !current.absent(), nil
	}

	for _, parentHash := range c.ParentHashes {
		parentTree, err := r.treeOf(parentHash)
		if err != nil {
			if errors.Is(err, ErrCommitNotFound) {
				// An unreachable parent cannot be TREESAME.
				continue
			}
			return false, err
		}
		previous, err := lookupEntry(parentTree, filter.Path)
		if err != nil {
			return false, err
		}
		if previous == current {
			return false, nil
		}
	}
	return true, nil
}

// RelativePath returns the repository-relative path of resource.
func (r *RepositorySource) RelativePath(resource string) (string, bool) {
	return relativeTo(r.root, resource)
}

func (r *RepositorySource) touchesByDiff(ctx context.Context, c *object.Commit, tree *object.Tree, filter PathFilter) (bool, error) {
	if c.NumParents() == 0 {
		found := false
		err := tree.Files().ForEach(func(f *object.File) error {
			if filter.Matches(f.Name) {
				found = true
				return storer.ErrStop
			}
			return nil
		})
		if err != nil {
			return false, errm.Wrap(err, "list files of "+c.Hash.String())
		}
		return found, nil
	}

	for _, parentHash := range c.ParentHashes {
		parentTree, err := r.treeOf(parentHash)
		if err != nil {
			if errors.Is(err, ErrCommitNotFound) {
				continue
			}
			return false, err
		}

		changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, &object.DiffTreeOptions{})
		if err != nil {
			return false, errm.Wrap(err, "diff "+c.Hash.String())
		}

		differs := false
		for _, change := range changes {
			if changeMatches(filter, change.From.Name) || changeMatches(filter, change.To.Name) {
				differs = true
				break
			}
		}
		if !differs {
			return false, nil
		}
	}
	return true, nil
}

func changeMatches(filter PathFilter, name string) bool {
	return name != "" && filter.Matches(name)
}

func (r *RepositorySource) commitObject(id string) (*object.Commit, error) {
	if !plumbing.IsHash(id) {
		return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, id)
	}
	c, err := r.repo.CommitObject(plumbing.NewHash(id))
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, id)
		}
		return nil, errm.Wrap(err, "read commit "+id)
	}
	return c, nil
}

func (r *RepositorySource) treeOf(hash plumbing.Hash) (*object.Tree, error) {
	c, err := r.commitObject(hash.String())
	if err != nil {
		return nil, err
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, errm.Wrap(err, "read tree of "+hash.String())
	}
	return tree, nil
}

// treeEntry identifies the content stored at a path. The zero value means absent.
type treeEntry struct {
	hash plumbing.Hash
	mode filemode.FileMode
}

func (e treeEntry) absent() bool {
	return e == treeEntry{}
}

func lookupEntry(tree *object.Tree, p string) (treeEntry, error) {
	entry, err := tree.FindEntry(p)
	if err != nil {
		if errors.Is(err, object.ErrEntryNotFound) ||
			errors.Is(err, object.ErrDirectoryNotFound) ||
			errors.Is(err, plumbing.ErrObjectNotFound) {
			return treeEntry{}, nil
		}
		return treeEntry{}, errm.Wrap(err, "find "+p)
	}
	return treeEntry{hash: entry.Hash, mode: entry.Mode}, nil
}

func commitNodeFromObject(c *object.Commit) CommitNode {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, h := range c.ParentHashes {
		parents = append(parents, h.String())
	}
	return CommitNode{
		ID:        c.Hash.String(),
		ParentIDs: parents,
		When:      c.Committer.When,
		Author:    AuthorInfo{Name: c.Author.Name, Email: c.Author.Email},
		Message:   strings.TrimRight(c.Message, "\n"),
	}
}

// relativeTo maps resource onto root. Relative resources are taken as
// repository-relative when root is unknown (bare repositories).
func relativeTo(root, resource string) (string, bool) {
	if strings.TrimSpace(resource) == "" {
		return "", false
	}
	if root == "" {
		if filepath.IsAbs(resource) {
			return "", false
		}
		return NormalizePath(resource), true
	}

	abs, err := filepath.Abs(resource)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(root, canonicalPath(abs))
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return NormalizePath(rel), true
}

// canonicalPath resolves symlinks in the longest existing prefix of p.
func canonicalPath(p string) string {
	p = filepath.Clean(p)
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	dir, base := filepath.Split(p)
	dir = filepath.Clean(dir)
	if dir == p {
		return p
	}
	return filepath.Join(canonicalPath(dir), base)
}

// existingDir returns resource itself when it is a directory, otherwise the
// closest existing ancestor directory.
func existingDir(resource string) string {
	p := filepath.Clean(resource)
	for {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			return p
		}
		p = parent
	}
}
