// Package symbolstream implements the per-chunk symbol sequence (spec §4.1,
// component C1): a linked representation supporting O(1) in-place merge of two
// adjacent symbols without invalidating the cursors on either side of the merge.
//
// Grounded on the doubly-linked prev/next index arrays used by the teacher's
// offline encoder (internal/tokenizer/core/encoder.go), generalized here from a
// single hard-coded merge loop into a reusable type shared by the trainer and
// the codec.
package symbolstream

// Cursor identifies a live position inside a Chunk. Head returns the first
// one (Cursor 0 in a non-empty chunk); NoCursor marks the absence of one.
type Cursor int

// NoCursor marks the absence of a neighbour (start or end of chunk).
const NoCursor Cursor = -1

// Chunk is an ordered sequence of symbol IDs. Merges never cross chunk
// boundaries (spec §3), so each chunk is fully independent.
type Chunk struct {
	symbols []int
	next    []int
	prev    []int
	live    int
}

// New builds a Chunk from an initial symbol sequence, most often the raw
// bytes of a pre-tokenized piece of text.
func New(symbols []int) *Chunk {
	n := len(symbols)
	c := &Chunk{
		symbols: append([]int(nil), symbols...),
		next:    make([]int, n),
		prev:    make([]int, n),
		live:    n,
	}
	for i := 0; i < n; i++ {
		c.prev[i] = i - 1
		if i == n-1 {
			c.next[i] = int(NoCursor)
		} else {
			c.next[i] = i + 1
		}
	}
	if n > 0 {
		c.prev[0] = int(NoCursor)
	}
	return c
}

// Head returns the first live cursor, or NoCursor if the chunk is empty.
func (c *Chunk) Head() Cursor {
	if len(c.symbols) == 0 {
		return NoCursor
	}
	return 0
}

// Len reports the current number of live symbols.
func (c *Chunk) Len() int { return c.live }

// Next returns the cursor immediately following cur, or NoCursor at the end.
func (c *Chunk) Next(cur Cursor) Cursor {
	if cur == NoCursor {
		return NoCursor
	}
	return Cursor(c.next[cur])
}

// Prev returns the cursor immediately preceding cur, or NoCursor at the start.
func (c *Chunk) Prev(cur Cursor) Cursor {
	if cur == NoCursor {
		return NoCursor
	}
	return Cursor(c.prev[cur])
}

// At returns the symbol ID currently stored at cur.
func (c *Chunk) At(cur Cursor) int { return c.symbols[cur] }

// MergeAt requires at least two live elements from cur: it rewrites cur to
// hold newID and removes the element that followed it, in O(1). The cursors
// Prev(cur) and the new Next(cur) remain valid and point at the correct
// neighbours, so a caller updating pair counts needs no rescan.
func (c *Chunk) MergeAt(cur Cursor, newID int) {
	next := Cursor(c.next[cur])
	if next == NoCursor {
		panic("symbolstream: MergeAt requires a following element")
	}

	c.symbols[cur] = newID

	after := Cursor(c.next[next])
	c.next[cur] = int(after)
	if after != NoCursor {
		c.prev[after] = int(cur)
	}

	// next is now detached; its own links are irrelevant but cleared for safety.
	c.next[next] = int(NoCursor)
	c.prev[next] = int(NoCursor)

	c.live--
}

// Symbols returns the current live sequence in order. Intended for tests and
// for flattening a chunk once training/encoding on it is complete.
func (c *Chunk) Symbols() []int {
	out := make([]int, 0, c.live)
	for cur := c.Head(); cur != NoCursor; cur = c.Next(cur) {
		out = append(out, c.At(cur))
	}
	return out
}
