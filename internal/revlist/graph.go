package revlist

import (
	"github.com/masmgr/filehistory-go/internal/git"
)

// Unresolved marks a parent edge whose commit is not known to the source.
const Unresolved = -1

// Graph is the arena of commits loaded during a walk. Commits are addressed by
// index; parent edges are index lists, so ancestry is answered without pointer
// chasing. A Graph is read-only once the walk that built it has returned.
type Graph struct {
	nodes    []git.CommitNode
	parents  [][]int
	expanded []bool
	index    map[string]int
}

func newGraph() *Graph {
	return &Graph{index: make(map[string]int, 256)}
}

// Len returns the number of loaded commits.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns the commit stored at index i.
func (g *Graph) Node(i int) git.CommitNode {
	return g.nodes[i]
}

// Lookup returns the index of a commit id.
func (g *Graph) Lookup(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Parents returns the parent indexes of commit i in ParentIDs order.
// Unresolved parents are reported as Unresolved.
func (g *Graph) Parents(i int) []int {
	return g.parents[i]
}

// Expanded reports whether the parents of commit i were loaded.
func (g *Graph) Expanded(i int) bool {
	return g.expanded[i]
}

func (g *Graph) add(node git.CommitNode) int {
	i := len(g.nodes)
	g.nodes = append(g.nodes, node)
	g.parents = append(g.parents, nil)
	g.expanded = append(g.expanded, false)
	g.index[node.ID] = i
	return i
}

func (g *Graph) setParents(i int, parents []int) {
	g.parents[i] = parents
	g.expanded[i] = true
}

// frontier is a max-priority queue of commit indexes: newest committer time
// first, ties broken by ascending id.
type frontier struct {
	g     *Graph
	items []int
}

func (f *frontier) Len() int { return len(f.items) }

func (f *frontier) Less(a, b int) bool {
	na, nb := f.g.nodes[f.items[a]], f.g.nodes[f.items[b]]
	if !na.When.Equal(nb.When) {
		return na.When.After(nb.When)
	}
	return na.ID < nb.ID
}

func (f *frontier) Swap(a, b int) { f.items[a], f.items[b] = f.items[b], f.items[a] }

func (f *frontier) Push(x any) { f.items = append(f.items, x.(int)) }

func (f *frontier) Pop() any {
	last := len(f.items) - 1
	x := f.items[last]
	f.items = f.items[:last]
	return x
}
