// Package codec implements the encoder and decoder (spec §4.5, component
// C5): applying learned merges in rank order inside each pre-tokenized
// chunk, and mapping token IDs back to bytes.
//
// The per-chunk merge application is adapted from the teacher's
// internal/tokenizer/core/encoder.go: a doubly-linked symbol sequence plus a
// rank-priority queue of merge candidates, with a generation counter per
// cell so a candidate computed before a neighbouring merge is detected as
// stale rather than silently misapplied. The teacher built its pairLookup
// from a pretrained GPT-2 merges table; here it is built from this module's
// own learned merge list, which makes "apply merges in learned order" the
// canonical algorithm named in spec §4.5.1 rather than an approximation.
package codec

import (
	"fmt"
	"sync"

	"github.com/bpetok/internal/mergerule"
	"github.com/bpetok/internal/pretoken"
	"github.com/bpetok/internal/vocabulary"
)

// Encoder turns text into a sequence of symbol IDs.
type Encoder struct {
	vocab    *vocabulary.Vocabulary
	lookup   *pairLookup
	maxRank  int
	splitter *pretoken.Splitter
	specials map[string]int
	scratch  sync.Pool
}

// NewEncoder builds an Encoder from a tokenizer's vocabulary, learned
// merges, pre-tokenization splitter, and special-token table (string ->
// symbol ID; may be nil or empty).
func NewEncoder(vocab *vocabulary.Vocabulary, merges []mergerule.Merge, splitter *pretoken.Splitter, specials map[string]int) *Encoder {
	return &Encoder{
		vocab:    vocab,
		lookup:   newPairLookup(merges),
		maxRank:  len(merges) - 1,
		splitter: splitter,
		specials: specials,
	}
}

// Encode applies special-token pre-splitting, then the pre-tokenization
// regex, then the learned merges, inside each resulting chunk.
func (e *Encoder) Encode(text string) ([]int, error) {
	parts := splitSpecial(text, e.specials)

	var out []int
	for _, p := range parts {
		if p.id >= 0 {
			out = append(out, p.id)
			continue
		}

		chunks, err := e.splitter.Split(p.text)
		if err != nil {
			return nil, fmt.Errorf("codec: pretokenize: %w", err)
		}
		for _, chunk := range chunks {
			out = append(out, e.encodeChunk(chunk)...)
		}
	}
	return out, nil
}

// encodeChunk applies the learned merges to a single pre-tokenized chunk,
// always picking the lowest-rank adjacent pair present anywhere in the
// chunk, left to right on ties — the greedy process converges to the same
// result as "merge every occurrence of the current best pair, recompute,
// repeat" (spec §4.4), but reacts immediately when merging one occurrence
// creates an even lower-rank pair elsewhere.
func (e *Encoder) encodeChunk(chunk string) []int {
	n := len(chunk)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []int{int(chunk[0])}
	}

	sc := e.acquireScratch(n)
	defer e.releaseScratch(sc)

	tokens, prev, next, live := sc.tokens, sc.prev, sc.next, sc.live
	for i := 0; i < n; i++ {
		tokens[i] = int(chunk[i])
		prev[i] = i - 1
		next[i] = i + 1
		live[i] = 0
	}
	prev[0] = -1
	next[n-1] = -1

	q := newBucketQueue(e.maxRank)

	pushIfMergeable := func(i int) {
		if i == -1 {
			return
		}
		j := next[i]
		if j == -1 {
			return
		}
		rank, _, ok := e.lookup.lookup(tokens[i], tokens[j])
		if !ok {
			return
		}
		q.push(mergeCand{
			rank: rank, pos: i,
			leftToken: tokens[i], rightToken: tokens[j],
			verL: live[i], verR: live[j],
		})
	}

	for i := 0; i != -1 && next[i] != -1; i = next[i] {
		pushIfMergeable(i)
	}

	for {
		c, ok := q.pop()
		if !ok {
			break
		}
		i := c.pos
		j := next[i]
		if j == -1 || live[i] != c.verL || live[j] != c.verR {
			continue
		}

		rankNow, newID, ok := e.lookup.lookup(tokens[i], tokens[j])
		if !ok || rankNow != c.rank || tokens[i] != c.leftToken || tokens[j] != c.rightToken {
			continue
		}

		tokens[i] = newID
		nj := next[j]
		next[i] = nj
		if nj != -1 {
			prev[nj] = i
		}
		prev[j], next[j] = -1, -1
		live[i]++
		live[j]++

		if pi := prev[i]; pi != -1 {
			pushIfMergeable(pi)
		}
		pushIfMergeable(i)
	}

	out := make([]int, 0, n)
	for i := 0; i != -1; i = next[i] {
		out = append(out, tokens[i])
	}
	return out
}
