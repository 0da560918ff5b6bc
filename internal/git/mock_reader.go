package git

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
)

// MemorySource is an in-memory Commit Source.
// It allows tests to describe a commit graph without needing a real Git repository.
type MemorySource struct {
	mu      sync.RWMutex
	commits map[string]CommitNode
	changed map[string][]string
	refs    map[string]string

	// Root is the directory resources are resolved against. When empty, only
	// relative resources resolve.
	Root string
	// Error, when set, is returned by every lookup.
	Error error
}

// NewMemorySource creates an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		commits: make(map[string]CommitNode),
		changed: make(map[string][]string),
		refs:    make(map[string]string),
	}
}

// Add stores a commit and the paths it changed, and points HEAD at it.
func (m *MemorySource) Add(node CommitNode, changedPaths ...string) *MemorySource {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commits[node.ID] = node
	m.changed[node.ID] = changedPaths
	m.refs["HEAD"] = node.ID
	return m
}

// SetRef points a named reference at a commit id.
func (m *MemorySource) SetRef(name, id string) *MemorySource {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refs[name] = id
	return m
}

// ResolveRef returns the id a reference points at, or ref itself when it is a known commit id.
func (m *MemorySource) ResolveRef(_ context.Context, ref string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Error != nil {
		return "", m.Error
	}
	if ref == "" {
		ref = "HEAD"
	}
	if id, ok := m.refs[ref]; ok {
		return id, nil
	}
	if _, ok := m.commits[ref]; ok {
		return ref, nil
	}
	if ref == "HEAD" && len(m.commits) == 0 {
		return "", ErrEmptyRepository
	}
	return "", fmt.Errorf("%w: %s", ErrRefNotFound, ref)
}

// Commit returns the stored commit.
func (m *MemorySource) Commit(_ context.Context, id string) (CommitNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Error != nil {
		return CommitNode{}, m.Error
	}
	c, ok := m.commits[id]
	if !ok {
		return CommitNode{}, fmt.Errorf("%w: %s", ErrCommitNotFound, id)
	}
	return c, nil
}

// TouchesPath reports whether any of the stored changed paths is selected.
func (m *MemorySource) TouchesPath(_ context.Context, c CommitNode, filter PathFilter) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Error != nil {
		return false, m.Error
	}
	if filter.IsZero() {
		return true, nil
	}
	return filter.MatchesAny(m.changed[c.ID]), nil
}

// RelativePath resolves resource against Root.
func (m *MemorySource) RelativePath(resource string) (string, bool) {
	if m.Root == "" {
		if filepath.IsAbs(resource) {
			return "", false
		}
		return NormalizePath(resource), resource != ""
	}
	return relativeTo(m.Root, resource)
}
