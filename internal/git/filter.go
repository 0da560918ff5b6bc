package git

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PathFilter selects the repository paths a history is about.
// Path is an exact file, a directory (matching everything below it) or a
// doublestar glob. A zero filter selects every path.
type PathFilter struct {
	Path    string
	Exclude []string // Glob patterns removed from the selection
}

// NewPathFilter normalizes p and validates the glob patterns.
func NewPathFilter(p string, exclude ...string) (PathFilter, error) {
	f := PathFilter{Path: NormalizePath(p)}
	if f.IsGlob() && !doublestar.ValidatePattern(f.Path) {
		return PathFilter{}, fmt.Errorf("invalid path pattern %q", p)
	}
	for _, pattern := range exclude {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return PathFilter{}, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
		f.Exclude = append(f.Exclude, pattern)
	}
	return f, nil
}

// NormalizePath converts p into the clean, slash-separated form used in trees.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(filepath.ToSlash(strings.TrimSpace(p)), "\\", "/")
	if p == "" {
		return ""
	}
	p = strings.TrimLeft(path.Clean(p), "/")
	if p == "." {
		return ""
	}
	return p
}

// IsZero reports whether the filter selects every path.
func (f PathFilter) IsZero() bool {
	return f.Path == "" && len(f.Exclude) == 0
}

// IsGlob reports whether Path is a glob pattern.
func (f PathFilter) IsGlob() bool {
	return strings.ContainsAny(f.Path, "*?[{")
}

// needsDiff reports whether the filter can only be evaluated on changed paths
// rather than by comparing a single tree entry.
func (f PathFilter) needsDiff() bool {
	return f.IsGlob() || len(f.Exclude) > 0
}

// Matches reports whether a changed path is selected by the filter.
func (f PathFilter) Matches(p string) bool {
	p = strings.ReplaceAll(p, "\\", "/")

	for _, pattern := range f.Exclude {
		if matched, _ := doublestar.Match(pattern, p); matched {
			return false
		}
	}

	switch {
	case f.Path == "":
		return true
	case f.IsGlob():
		matched, _ := doublestar.Match(f.Path, p)
		return matched
	default:
		return p == f.Path || strings.HasPrefix(p, f.Path+"/")
	}
}

// MatchesAny reports whether any of the paths is selected.
func (f PathFilter) MatchesAny(paths []string) bool {
	for _, p := range paths {
		if f.Matches(p) {
			return true
		}
	}
	return false
}

// String returns the filter in a form suitable for log output.
func (f PathFilter) String() string {
	if len(f.Exclude) == 0 {
		return f.Path
	}
	return f.Path + " (exclude " + strings.Join(f.Exclude, ",") + ")"
}
