package history

import (
	"path"
	"time"

	"github.com/masmgr/filehistory-go/internal/git"
)

// Revision is a revision object a history can be queried with.
// Revisions produced by other providers are not recognized by FileHistory.
type Revision interface {
	ContentIdentifier() string
}

// FileRevision is one commit of a file's history.
// It belongs to the FileHistory that created it and is immutable.
type FileRevision struct {
	node  git.CommitNode
	path  string
	pos   int
	owner *FileHistory
}

// ContentIdentifier returns the commit id, unique within one history.
func (r *FileRevision) ContentIdentifier() string {
	return r.node.ID
}

// Equal reports whether both revisions have the same content identifier.
func (r *FileRevision) Equal(other Revision) bool {
	return other != nil && r.ContentIdentifier() == other.ContentIdentifier()
}

// IsDescendantOf reports whether other's commit is a proper ancestor of r's commit.
// other may come from another history of the same repository; it is resolved
// by content identifier within r's history.
func (r *FileRevision) IsDescendantOf(other *FileRevision) bool {
	if other == nil {
		return false
	}
	o := r.owner.own(other)
	if o == nil {
		return false
	}
	return r.owner.ancestors[r.pos].has(o.pos)
}

// IsAncestorOf reports whether r's commit is a proper ancestor of other's commit.
func (r *FileRevision) IsAncestorOf(other *FileRevision) bool {
	if other == nil {
		return false
	}
	o := r.owner.own(other)
	if o == nil {
		return false
	}
	return o.IsDescendantOf(r)
}

// Name returns the file name.
func (r *FileRevision) Name() string {
	return path.Base(r.path)
}

// Path returns the repository-relative path the revision concerns.
func (r *FileRevision) Path() string {
	return r.path
}

// Exists is true for every commit-backed revision.
func (r *FileRevision) Exists() bool {
	return true
}

// Timestamp returns the committer time.
func (r *FileRevision) Timestamp() time.Time {
	return r.node.When
}

// Author returns the commit author.
func (r *FileRevision) Author() git.AuthorInfo {
	return r.node.Author
}

// Comment returns the full commit message.
func (r *FileRevision) Comment() string {
	return r.node.Message
}

// Commit returns the underlying commit.
func (r *FileRevision) Commit() git.CommitNode {
	return r.node
}

// ParentIDs returns a copy of the commit parent ids, first parent first.
func (r *FileRevision) ParentIDs() []string {
	return append([]string(nil), r.node.ParentIDs...)
}

// ShortID returns the abbreviated commit id.
func (r *FileRevision) ShortID() string {
	return r.node.ShortID()
}

// String returns the short id and subject.
func (r *FileRevision) String() string {
	return r.node.ShortID() + " " + r.node.Subject()
}
