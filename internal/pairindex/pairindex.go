// Package pairindex implements the bi-indexed pair-frequency table (spec §4.2,
// component C2): a hash map keyed by pair for O(1) lookup, plus a lazily
// cleaned max-heap keyed by (count desc, tie-break key asc) for the current
// maximum.
//
// The lazy-heap technique (push a fresh snapshot on every count change, drop
// stale snapshots at pop time by comparing against the authoritative map
// entry) is the same one the teacher's offline encoder uses to keep merge
// candidates valid across in-place edits (internal/tokenizer/core/encoder.go,
// the liveVersion bookkeeping); here it tracks pair counts instead of symbol
// stream generations.
package pairindex

import "container/heap"

// Pair is an ordered pair of symbol IDs.
type Pair struct {
	A, B int
}

// TieBreak selects how pairs with equal counts are ordered.
type TieBreak int

const (
	// First resolves ties in favour of whichever pair was observed earliest.
	First TieBreak = iota
	// Lexical resolves ties in favour of the component-wise smaller pair.
	Lexical
)

type counter struct {
	count int
	tieA  int64
	tieB  int64
}

// PairIndex is scoped to a single training run (spec §3, Lifecycles).
type PairIndex struct {
	tie    TieBreak
	counts map[Pair]*counter
	seq    int64
	h      pairHeap
}

// New returns an empty PairIndex using the given tie-break strategy.
func New(tie TieBreak) *PairIndex {
	return &PairIndex{
		tie:    tie,
		counts: make(map[Pair]*counter),
	}
}

// BumpOrCreate adjusts p's count by delta (which may be negative), creating a
// fresh entry with a new tie-break key if p has not been seen before. Reports
// whether the entry was newly created.
func (pi *PairIndex) BumpOrCreate(p Pair, delta int) bool {
	if c, ok := pi.counts[p]; ok {
		c.count += delta
		heap.Push(&pi.h, snapshot{pair: p, count: c.count, tieA: c.tieA, tieB: c.tieB})
		return false
	}

	var tieA, tieB int64
	switch pi.tie {
	case Lexical:
		tieA, tieB = int64(p.A), int64(p.B)
	default: // First
		tieA = pi.seq
		pi.seq++
	}

	pi.counts[p] = &counter{count: delta, tieA: tieA, tieB: tieB}
	heap.Push(&pi.h, snapshot{pair: p, count: delta, tieA: tieA, tieB: tieB})
	return true
}

// Lookup returns p's current count, or false if p has never been observed.
func (pi *PairIndex) Lookup(p Pair) (int, bool) {
	c, ok := pi.counts[p]
	if !ok {
		return 0, false
	}
	return c.count, true
}

// Top returns the pair with the maximum positive count, resolving ties per
// the configured strategy. Entries whose count has decayed to zero or below
// are skipped — they have no remaining adjacent occurrences and so cannot be
// the pair to merge next — but are left in the map per spec §4.2 (removal is
// not required for correctness). Top is absent iff no pair currently has a
// positive count.
func (pi *PairIndex) Top() (Pair, int, bool) {
	for pi.h.Len() > 0 {
		top := pi.h[0]
		c, ok := pi.counts[top.pair]
		if !ok || c.count != top.count || c.tieA != top.tieA || c.tieB != top.tieB {
			heap.Pop(&pi.h) // stale snapshot, superseded by a later BumpOrCreate
			continue
		}
		if c.count <= 0 {
			return Pair{}, 0, false
		}
		return top.pair, top.count, true
	}
	return Pair{}, 0, false
}

// snapshot is one version of a pair's (count, tieKey) pushed onto the heap.
type snapshot struct {
	pair  Pair
	count int
	tieA  int64
	tieB  int64
}

// pairHeap orders snapshots by (-count, tieA, tieB) so the root is the
// current maximum under the configured tie-break rule.
type pairHeap []snapshot

func (h pairHeap) Len() int { return len(h) }
func (h pairHeap) Less(i, j int) bool {
	if h[i].count != h[j].count {
		return h[i].count > h[j].count
	}
	if h[i].tieA != h[j].tieA {
		return h[i].tieA < h[j].tieA
	}
	return h[i].tieB < h[j].tieB
}
func (h pairHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *pairHeap) Push(x any)        { *h = append(*h, x.(snapshot)) }
func (h *pairHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
