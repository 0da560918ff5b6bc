package history

import (
	"github.com/masmgr/filehistory-go/internal/revlist"
)

// bitset is a fixed-width set of revision positions. Sets are shared between
// graph nodes and never modified after they are published.
type bitset []uint64

func (b bitset) has(i int) bool {
	w := i >> 6
	return w < len(b) && b[w]&(1<<(uint(i)&63)) != 0
}

// covers reports whether b is a superset of o.
func (b bitset) covers(o bitset) bool {
	for w, bits := range o {
		if bits == 0 {
			continue
		}
		if w >= len(b) || b[w]&bits != bits {
			return false
		}
	}
	return true
}

// with returns a copy of b sized for n positions with position i added.
func (b bitset) with(i, n int) bitset {
	out := make(bitset, (n+63)>>6)
	copy(out, b)
	out[i>>6] |= 1 << (uint(i) & 63)
	return out
}

// unionShared returns a set containing a and b, reusing either operand when it
// already covers the other.
func unionShared(a, b bitset) bitset {
	switch {
	case a == nil:
		return b
	case b == nil, a.covers(b):
		return a
	case b.covers(a):
		return b
	}
	if len(a) < len(b) {
		a, b = b, a
	}
	out := make(bitset, len(a))
	copy(out, a)
	for w, bits := range b {
		out[w] |= bits
	}
	return out
}

// buildAncestry returns, for every revision position, the set of revision
// positions that are proper ancestors of it in g. position maps graph indexes
// to revision positions (-1 for commits that are not revisions).
//
// Graph nodes are processed parents first; each node's reach set is its
// ancestors' set plus itself when it is a revision.
func buildAncestry(g *revlist.Graph, position []int, n int) []bitset {
	size := g.Len()
	pending := make([]int, size)
	children := make([][]int, size)
	for k := 0; k < size; k++ {
		for _, p := range g.Parents(k) {
			if p == revlist.Unresolved {
				continue
			}
			pending[k]++
			children[p] = append(children[p], k)
		}
	}

	ready := make([]int, 0, size)
	for k := 0; k < size; k++ {
		if pending[k] == 0 {
			ready = append(ready, k)
		}
	}

	reach := make([]bitset, size)
	anc := make([]bitset, n)

	for len(ready) > 0 {
		k := ready[len(ready)-1]
		ready = ready[:len(ready)-1]

		var up bitset
		for _, p := range g.Parents(k) {
			if p != revlist.Unresolved {
				up = unionShared(up, reach[p])
			}
		}

		if pos := position[k]; pos >= 0 {
			anc[pos] = up
			reach[k] = up.with(pos, n)
		} else {
			reach[k] = up
		}

		for _, c := range children[k] {
			pending[c]--
			if pending[c] == 0 {
				ready = append(ready, c)
			}
		}
	}
	return anc
}
