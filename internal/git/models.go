package git

import (
	"strings"
	"time"
)

// shortIDLen is the abbreviated commit id length used in reports.
const shortIDLen = 8

// CommitNode represents one commit of the history graph.
// Nodes are immutable values; parents are referenced by id, never by pointer.
type CommitNode struct {
	ID        string
	ParentIDs []string
	When      time.Time
	Author    AuthorInfo
	Message   string
}

// AuthorInfo represents commit author information.
type AuthorInfo struct {
	Name  string
	Email string
}

// ContributorKey returns a normalized identifier for grouping contributors.
func (a AuthorInfo) ContributorKey() string {
	return strings.ToLower(a.Email)
}

// String returns "Name <email>", or whichever part is set.
func (a AuthorInfo) String() string {
	switch {
	case a.Name != "" && a.Email != "":
		return a.Name + " <" + a.Email + ">"
	case a.Name != "":
		return a.Name
	default:
		return a.Email
	}
}

// IsRoot reports whether the commit has no parents.
func (c CommitNode) IsRoot() bool {
	return len(c.ParentIDs) == 0
}

// IsMerge reports whether the commit has more than one parent.
func (c CommitNode) IsMerge() bool {
	return len(c.ParentIDs) > 1
}

// ShortID returns the abbreviated commit id.
func (c CommitNode) ShortID() string {
	if len(c.ID) <= shortIDLen {
		return c.ID
	}
	return c.ID[:shortIDLen]
}

// Subject returns the first line of the commit message.
func (c CommitNode) Subject() string {
	message := strings.TrimSpace(c.Message)
	if idx := strings.IndexByte(message, '\n'); idx != -1 {
		message = message[:idx]
	}
	return strings.TrimSpace(message)
}

// Backend selects the Commit Source implementation.
type Backend string

const (
	BackendGoGit Backend = "go-git"
	BackendCLI   Backend = "cli"
)
