package revlist

import (
	"container/heap"
	"context"
	"errors"
	"sort"

	"github.com/maxbolgarin/logze/v2"

	"github.com/masmgr/filehistory-go/internal/git"
)

// DefaultCheckStride is the number of commit visits between cancellation checks.
const DefaultCheckStride = 64

// Order selects how emitted commits are sequenced.
type Order int

// Both orders emit a commit only after every reachable child, so the reachable
// graph is enumerated before the first emission.
const (
	// OrderDate picks the newest committer time among the commits whose children
	// were all emitted, ties by id, like git --date-order.
	OrderDate Order = iota
	// OrderTopo follows the first-parent line of the last emitted commit before
	// switching lines, like git --topo-order.
	OrderTopo
)

// String returns the order name used in configuration and flags.
func (o Order) String() string {
	if o == OrderTopo {
		return "topo"
	}
	return "date"
}

// ParseOrder parses "date" or "topo". The empty string selects OrderDate.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "date":
		return OrderDate, nil
	case "topo":
		return OrderTopo, nil
	default:
		return OrderDate, errors.New("unknown order " + s + " (expected date or topo)")
	}
}

// Options configure a walk.
type Options struct {
	Refs        []string       // Start points; HEAD when empty
	Filter      git.PathFilter // Zero filter emits every commit
	MaxResults  int            // 0 means unbounded
	Order       Order
	CheckStride int // Visits between context checks; DefaultCheckStride when <= 0

	// OnProgress, when set, is called on every cancellation check with the
	// number of commits processed so far (loaded, then filtered).
	OnProgress func(processed int)
}

// Stats describe a finished walk.
type Stats struct {
	Visited  int // Commits tested against the filter
	Emitted  int // Commits that passed the filter
	DeadEnds int // Distinct parent ids the source does not know
}

// Result is the outcome of Walk.
type Result struct {
	Commits []git.CommitNode // Emitted commits in walk order
	Graph   *Graph           // Every commit loaded by the walk
	Stats   Stats
}

// Walker traverses the commit graph of a Commit Source.
// A Walker holds no per-walk state and may run concurrent walks when its
// source supports concurrent reads.
type Walker struct {
	source git.CommitSource
	log    logze.Logger
}

// NewWalker creates a Walker reading from source.
func NewWalker(source git.CommitSource) *Walker {
	return &Walker{
		source: source,
		log:    logze.With("component", "revlist"),
	}
}

// WithLogger replaces the walker's logger.
func (w *Walker) WithLogger(log logze.Logger) *Walker {
	w.log = log
	return w
}

// Walk runs the traversal to completion (or MaxResults) and collects the
// emitted commits. The returned Graph holds every reachable commit, also when
// the walk stopped at MaxResults. Every error returned is a *WalkError.
func (w *Walker) Walk(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{}
	g, stats, err := w.run(ctx, opts, func(node git.CommitNode) error {
		res.Commits = append(res.Commits, node)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Graph = g
	res.Stats = stats
	return res, nil
}

// Each streams emitted commits to fn. Returning ErrStop from fn ends the walk
// without error; any other error from fn is returned unchanged.
func (w *Walker) Each(ctx context.Context, opts Options, fn func(git.CommitNode) error) (Stats, error) {
	_, stats, err := w.run(ctx, opts, fn)
	if errors.Is(err, ErrStop) {
		return stats, nil
	}
	return stats, err
}

// walkState is the mutable state of one traversal.
type walkState struct {
	w       *Walker
	opts    Options
	graph   *Graph
	missing map[string]struct{}
	stats   Stats
	ticks   int
}

func (w *Walker) run(ctx context.Context, opts Options, emit func(git.CommitNode) error) (*Graph, Stats, error) {
	if w.source == nil {
		return nil, Stats{}, newWalkError(ErrNoRepository, nil)
	}
	if opts.CheckStride <= 0 {
		opts.CheckStride = DefaultCheckStride
	}

	s := &walkState{
		w:       w,
		opts:    opts,
		graph:   newGraph(),
		missing: make(map[string]struct{}),
	}

	starts, err := s.resolveStarts(ctx)
	if err != nil {
		return nil, s.stats, err
	}

	if err := s.enumerate(ctx, starts); err != nil {
		return nil, s.stats, err
	}
	if opts.Order == OrderTopo {
		err = s.emitTopo(ctx, emit)
	} else {
		err = s.emitDate(ctx, emit)
	}
	if err != nil {
		return nil, s.stats, err
	}
	return s.graph, s.stats, nil
}

func (s *walkState) resolveStarts(ctx context.Context) ([]int, error) {
	refs := s.opts.Refs
	if len(refs) == 0 {
		refs = []string{"HEAD"}
	}

	starts := make([]int, 0, len(refs))
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, newWalkError(ErrCancelled, err)
		}
		id, err := s.w.source.ResolveRef(ctx, ref)
		if errors.Is(err, git.ErrEmptyRepository) {
			s.w.log.Debug("start has no commits", "ref", ref)
			continue
		}
		if err != nil {
			return nil, s.classify(ctx, err)
		}
		if _, ok := s.graph.Lookup(id); ok {
			continue
		}
		node, err := s.w.source.Commit(ctx, id)
		if err != nil {
			return nil, s.classify(ctx, err)
		}
		starts = append(starts, s.graph.add(node))
	}
	return starts, nil
}

// tick is called before every commit visit; it checks the context on the
// configured stride, starting with the first visit.
func (s *walkState) tick(ctx context.Context) error {
	defer func() { s.ticks++ }()
	if s.ticks%s.opts.CheckStride != 0 {
		return nil
	}
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(s.ticks)
	}
	if err := ctx.Err(); err != nil {
		return newWalkError(ErrCancelled, err)
	}
	return nil
}

// visit tests commit i against the filter and emits it when selected.
// It reports whether the walk is complete.
func (s *walkState) visit(ctx context.Context, i int, emit func(git.CommitNode) error) (bool, error) {
	node := s.graph.Node(i)
	s.stats.Visited++

	selected := true
	if !s.opts.Filter.IsZero() {
		ok, err := s.w.source.TouchesPath(ctx, node, s.opts.Filter)
		if err != nil {
			return false, s.classify(ctx, err)
		}
		selected = ok
	}
	if !selected {
		return false, nil
	}

	s.stats.Emitted++
	if err := emit(node); err != nil {
		return false, err
	}
	return s.opts.MaxResults > 0 && s.stats.Emitted >= s.opts.MaxResults, nil
}

// expand loads the parents of commit i. It returns the indexes of parents that
// were loaded for the first time.
func (s *walkState) expand(ctx context.Context, i int) ([]int, error) {
	node := s.graph.Node(i)
	parents := make([]int, 0, len(node.ParentIDs))
	var added []int

	for _, pid := range node.ParentIDs {
		if pid == node.ID {
			s.w.log.Warn("commit lists itself as parent", "commit", node.ShortID())
			parents = append(parents, Unresolved)
			continue
		}
		if j, ok := s.graph.Lookup(pid); ok {
			parents = append(parents, j)
			continue
		}
		if _, ok := s.missing[pid]; ok {
			parents = append(parents, Unresolved)
			continue
		}

		parent, err := s.w.source.Commit(ctx, pid)
		if err != nil {
			if errors.Is(err, git.ErrCommitNotFound) {
				// Shallow clones and partial histories end here.
				s.missing[pid] = struct{}{}
				s.stats.DeadEnds++
				s.w.log.Debug("dead end parent", "commit", node.ShortID(), "parent", pid)
				parents = append(parents, Unresolved)
				continue
			}
			return nil, s.classify(ctx, err)
		}

		j := s.graph.add(parent)
		parents = append(parents, j)
		added = append(added, j)
	}

	s.graph.setParents(i, parents)
	return added, nil
}

// enumerate loads every commit reachable from starts.
func (s *walkState) enumerate(ctx context.Context, starts []int) error {
	pending := append([]int(nil), starts...)
	for len(pending) > 0 {
		if err := s.tick(ctx); err != nil {
			return err
		}
		i := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		added, err := s.expand(ctx, i)
		if err != nil {
			return err
		}
		pending = append(pending, added...)
	}
	return nil
}

// childCounts returns, per commit, the number of loaded children.
func (s *walkState) childCounts() []int {
	children := make([]int, s.graph.Len())
	for i := 0; i < s.graph.Len(); i++ {
		for _, p := range s.graph.Parents(i) {
			if p != Unresolved {
				children[p]++
			}
		}
	}
	return children
}

func (s *walkState) emitDate(ctx context.Context, emit func(git.CommitNode) error) error {
	children := s.childCounts()
	queue := &frontier{g: s.graph}
	for i, n := range children {
		if n == 0 {
			queue.items = append(queue.items, i)
		}
	}
	heap.Init(queue)

	for queue.Len() > 0 {
		if err := s.tick(ctx); err != nil {
			return err
		}
		i := heap.Pop(queue).(int)

		done, err := s.visit(ctx, i, emit)
		if err != nil || done {
			return err
		}

		for _, p := range s.graph.Parents(i) {
			if p == Unresolved {
				continue
			}
			children[p]--
			if children[p] == 0 {
				heap.Push(queue, p)
			}
		}
	}
	return nil
}

func (s *walkState) emitTopo(ctx context.Context, emit func(git.CommitNode) error) error {
	children := s.childCounts()

	// Tips go on the stack oldest first so the newest is emitted first.
	tips := &frontier{g: s.graph}
	for i, n := range children {
		if n == 0 {
			tips.items = append(tips.items, i)
		}
	}
	sort.Sort(sort.Reverse(tips))
	stack := tips.items

	for len(stack) > 0 {
		if err := s.tick(ctx); err != nil {
			return err
		}
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		done, err := s.visit(ctx, i, emit)
		if err != nil || done {
			return err
		}

		// Push in reverse so the first parent is on top.
		parents := s.graph.Parents(i)
		for k := len(parents) - 1; k >= 0; k-- {
			p := parents[k]
			if p == Unresolved {
				continue
			}
			children[p]--
			if children[p] == 0 {
				stack = append(stack, p)
			}
		}
	}
	return nil
}

// classify maps a source failure onto a walk failure kind.
func (s *walkState) classify(ctx context.Context, err error) error {
	var we *WalkError
	switch {
	case errors.As(err, &we):
		return we
	case ctx.Err() != nil:
		return newWalkError(ErrCancelled, ctx.Err())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newWalkError(ErrCancelled, err)
	case errors.Is(err, git.ErrNoRepository):
		return newWalkError(ErrNoRepository, err)
	default:
		return newWalkError(ErrSourceUnavailable, err)
	}
}
