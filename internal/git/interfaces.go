package git

import (
	"context"
	"errors"
)

var (
	// ErrNoRepository is returned when a resource is not inside a repository.
	ErrNoRepository = errors.New("not a git repository")
	// ErrRefNotFound is returned when a start reference cannot be resolved.
	ErrRefNotFound = errors.New("reference not found")
	// ErrEmptyRepository is returned when HEAD is unborn: the repository has no commits yet.
	ErrEmptyRepository = errors.New("repository has no commits")
	// ErrCommitNotFound is returned when a commit id is unknown to the source.
	// Walkers treat it as a dead end (shallow clones, truncated histories).
	ErrCommitNotFound = errors.New("commit not found")
)

// CommitSource yields parsed commit records of one repository.
// Implementations must be safe for concurrent reads.
type CommitSource interface {
	// ResolveRef resolves a revision expression ("HEAD", a branch, an id) to a commit id.
	ResolveRef(ctx context.Context, ref string) (string, error)
	// Commit returns the commit with the given id.
	Commit(ctx context.Context, id string) (CommitNode, error)
	// TouchesPath reports whether the commit changed anything selected by the filter
	// relative to every one of its parents.
	TouchesPath(ctx context.Context, c CommitNode, filter PathFilter) (bool, error)
}

// PathResolver maps a filesystem resource to a repository-relative path.
type PathResolver interface {
	// RelativePath returns the slash-separated path of resource inside the repository.
	// ok is false when the resource lies outside the repository.
	RelativePath(resource string) (path string, ok bool)
}

// Repository is a Commit Source that can also resolve resources.
type Repository interface {
	CommitSource
	PathResolver
}

// Compile-time interface conformance checks.
var (
	_ Repository = (*RepositorySource)(nil)
	_ Repository = (*CLISource)(nil)
	_ Repository = (*MemorySource)(nil)
)
