package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"

	"github.com/masmgr/filehistory-go/internal/git"
	"github.com/masmgr/filehistory-go/internal/revlist"
)

// Flags control how much history is built.
type Flags int

const (
	// Full walks the whole reachable history.
	Full Flags = 0
	// SingleRevision stops at the newest revision that touched the path.
	SingleRevision Flags = 1
)

// String returns "single" or "full".
func (f Flags) String() string {
	if f&SingleRevision != 0 {
		return "single"
	}
	return "full"
}

// Lookup errors.
var (
	ErrRevisionNotFound  = errors.New("revision not found")
	ErrAmbiguousRevision = errors.New("ambiguous revision prefix")
)

// Options configure Build.
type Options struct {
	Ref         string // Start point; HEAD when empty
	Order       revlist.Order
	MaxResults  int // Bound for Full histories; 0 means unbounded
	CheckStride int
	Exclude     []string // Glob patterns removed from the path selection
	OnProgress  func(processed int)

	// Logger receives diagnostic events; a component logger is used when nil.
	Logger *logze.Logger
}

// FileHistory is the frozen, newest-first revision list of one resource.
// It is read-only after Build and safe for concurrent queries.
type FileHistory struct {
	resource  string
	path      string
	flags     Flags
	revisions []*FileRevision
	byID      map[string]*FileRevision
	ancestors []bitset
	stats     revlist.Stats
	err       error
}

// Build walks the history of resource in repo. It never fails: when the
// resource is unversioned, the source breaks or ctx is cancelled, the result
// is an empty history whose Err reports the cause.
func Build(ctx context.Context, repo git.Repository, resource string, flags Flags, opts Options) *FileHistory {
	h := &FileHistory{
		resource: resource,
		flags:    flags,
		byID:     map[string]*FileRevision{},
	}

	log := logze.With("component", "history")
	if opts.Logger != nil {
		log = *opts.Logger
	}
	log = log.WithFields("resource", resource)

	if repo == nil {
		h.err = &revlist.WalkError{Kind: revlist.ErrNoRepository}
		log.Info("no history", "event", "no_repository")
		return h
	}

	relPath, ok := repo.RelativePath(resource)
	if !ok {
		h.err = &revlist.WalkError{Kind: revlist.ErrNoRepository, Err: errm.New("resource is outside the repository")}
		log.Info("no history", "event", "no_repository")
		return h
	}
	h.path = relPath

	filter, err := git.NewPathFilter(relPath, opts.Exclude...)
	if err != nil {
		h.err = errm.Wrap(err, "build path filter")
		log.Err(err, "no history", "event", "invalid_filter")
		return h
	}

	walkOpts := revlist.Options{
		Filter:      filter,
		MaxResults:  opts.MaxResults,
		Order:       opts.Order,
		CheckStride: opts.CheckStride,
		OnProgress:  opts.OnProgress,
	}
	if opts.Ref != "" {
		walkOpts.Refs = []string{opts.Ref}
	}
	if flags&SingleRevision != 0 {
		walkOpts.MaxResults = 1
	}

	res, err := revlist.NewWalker(repo).WithLogger(log).Walk(ctx, walkOpts)
	if err != nil {
		h.err = err
		switch revlist.KindOf(err) {
		case revlist.ErrNoRepository:
			log.Info("no history", "event", "no_repository")
		case revlist.ErrCancelled:
			log.Warn("history walk cancelled", "event", "cancelled")
		default:
			log.Err(err, "history walk failed", "event", "source_unavailable")
		}
		return h
	}

	h.stats = res.Stats
	h.materialize(res)

	if res.Graph.Len() == 0 {
		log.Info("no history", "event", "empty_repository")
		return h
	}

	if res.Stats.DeadEnds > 0 {
		log.Debug("history reached unknown parents", "dead_ends", res.Stats.DeadEnds)
	}
	log.Debug("history built", "path", relPath, "revisions", len(h.revisions), "visited", res.Stats.Visited)
	return h
}

func (h *FileHistory) materialize(res *revlist.Result) {
	h.revisions = make([]*FileRevision, len(res.Commits))
	h.byID = make(map[string]*FileRevision, len(res.Commits))

	position := make([]int, res.Graph.Len())
	for i := range position {
		position[i] = -1
	}

	for pos, node := range res.Commits {
		rev := &FileRevision{node: node, path: h.path, pos: pos, owner: h}
		h.revisions[pos] = rev
		h.byID[node.ID] = rev
		if k, ok := res.Graph.Lookup(node.ID); ok {
			position[k] = pos
		}
	}

	h.ancestors = buildAncestry(res.Graph, position, len(h.revisions))
}

// own returns the revision of h with the same identity as r, or nil.
func (h *FileHistory) own(r *FileRevision) *FileRevision {
	if r.owner == h {
		return r
	}
	return h.byID[r.ContentIdentifier()]
}

// resolve maps a caller supplied revision onto a revision of h.
func (h *FileHistory) resolve(r Revision) *FileRevision {
	fr, ok := r.(*FileRevision)
	if !ok || fr == nil {
		return nil
	}
	return h.own(fr)
}

// FileRevisions returns a copy of the revisions, newest first.
func (h *FileHistory) FileRevisions() []*FileRevision {
	out := make([]*FileRevision, len(h.revisions))
	copy(out, h.revisions)
	return out
}

// FileRevision returns the revision with the given content identifier, or nil.
func (h *FileHistory) FileRevision(id string) *FileRevision {
	return h.byID[id]
}

// Lookup finds a revision by content identifier or by a unique prefix of one.
func (h *FileHistory) Lookup(prefix string) (*FileRevision, error) {
	prefix = strings.TrimSpace(prefix)
	if rev := h.byID[prefix]; rev != nil {
		return rev, nil
	}
	if prefix == "" {
		return nil, ErrRevisionNotFound
	}

	var found *FileRevision
	for _, rev := range h.revisions {
		if !strings.HasPrefix(rev.ContentIdentifier(), prefix) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguousRevision, prefix)
		}
		found = rev
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrRevisionNotFound, prefix)
	}
	return found, nil
}

// Contributors returns the revisions that r descends from, newest first.
// Revisions not known to this history yield an empty result.
func (h *FileHistory) Contributors(r Revision) []*FileRevision {
	target := h.resolve(r)
	if target == nil {
		return []*FileRevision{}
	}
	anc := h.ancestors[target.pos]
	out := []*FileRevision{}
	for _, rev := range h.revisions {
		if anc.has(rev.pos) {
			out = append(out, rev)
		}
	}
	return out
}

// Targets returns the revisions that descend from r, newest first.
// Revisions not known to this history yield an empty result.
func (h *FileHistory) Targets(r Revision) []*FileRevision {
	source := h.resolve(r)
	if source == nil {
		return []*FileRevision{}
	}
	out := []*FileRevision{}
	for _, rev := range h.revisions {
		if h.ancestors[rev.pos].has(source.pos) {
			out = append(out, rev)
		}
	}
	return out
}

// Resource returns the resource the history was built for.
func (h *FileHistory) Resource() string {
	return h.resource
}

// Path returns the repository-relative path, or "" when the resource could not be resolved.
func (h *FileHistory) Path() string {
	return h.path
}

// Flags returns the mode the history was built with.
func (h *FileHistory) Flags() Flags {
	return h.flags
}

// Err returns the failure absorbed during Build, or nil.
func (h *FileHistory) Err() error {
	return h.err
}

// Len returns the number of revisions.
func (h *FileHistory) Len() int {
	return len(h.revisions)
}

// Latest returns the newest revision, or nil for an empty history.
func (h *FileHistory) Latest() *FileRevision {
	if len(h.revisions) == 0 {
		return nil
	}
	return h.revisions[0]
}

// Stats returns the statistics of the walk that built the history.
func (h *FileHistory) Stats() revlist.Stats {
	return h.stats
}
