// Package trainer implements the BPE merge loop (spec §4.4, component C4):
// pre-tokenize, seed pair counts, then repeatedly pick the most frequent
// adjacent pair, merge every occurrence of it, and record the result.
package trainer

import (
	"fmt"
	"log/slog"

	"github.com/bpetok/internal/errs"
	"github.com/bpetok/internal/mergerule"
	"github.com/bpetok/internal/pairindex"
	"github.com/bpetok/internal/pretoken"
	"github.com/bpetok/internal/symbolstream"
	"github.com/bpetok/internal/vocabulary"
)

// Merge is one learned rewrite rule, in the order it was discovered. Its
// position in the returned slice is its rank, and NewID == 256+rank.
type Merge = mergerule.Merge

// Options configures a training run.
type Options struct {
	VocabSize int
	TieBreak  pairindex.TieBreak
	Verbose   bool
}

// Result is the outcome of a training run.
type Result struct {
	Merges []Merge
	Vocab  *vocabulary.Vocabulary
}

// Train runs the BPE merge loop over corpus, pre-tokenized by splitter (a nil
// pattern inside splitter means the whole corpus is a single chunk).
func Train(corpus string, splitter *pretoken.Splitter, opts Options) (*Result, error) {
	if opts.VocabSize < 256 {
		return nil, errs.New(errs.InvalidArgument, "train", fmt.Errorf("vocab size %d is below the minimum of 256", opts.VocabSize))
	}

	chunkTexts, err := splitter.Split(corpus)
	if err != nil {
		return nil, errs.New(errs.PatternError, "train", err)
	}

	chunks := make([]*symbolstream.Chunk, 0, len(chunkTexts))
	for _, ct := range chunkTexts {
		symbols := make([]int, len(ct))
		for i := 0; i < len(ct); i++ {
			symbols[i] = int(ct[i])
		}
		chunks = append(chunks, symbolstream.New(symbols))
	}

	vocab := vocabulary.New()
	var merges []Merge

	incremental := opts.TieBreak == pairindex.Lexical
	pi := seedPairIndex(chunks, opts.TieBreak)

	for newID := 256; newID < opts.VocabSize; newID++ {
		top, count, ok := pi.Top()
		if !ok {
			break
		}

		mergedID, err := vocab.Extend(top.A, top.B)
		if err != nil {
			return nil, errs.New(errs.StateError, "train", err)
		}
		merges = append(merges, Merge{A: top.A, B: top.B, NewID: mergedID})

		if opts.Verbose {
			slog.Info("merge",
				"rank", len(merges)-1,
				"a", top.A, "b", top.B,
				"new_id", mergedID,
				"count", count,
			)
		}

		for _, c := range chunks {
			mergeAllInChunk(c, top, mergedID, pi, incremental)
		}

		if !incremental {
			pi = seedPairIndex(chunks, opts.TieBreak)
		}
	}

	return &Result{Merges: merges, Vocab: vocab}, nil
}

// seedPairIndex builds a fresh PairIndex by scanning every chunk once,
// left to right (spec §4.4 step 2, and the rebuild-from-scratch option for
// the FIRST tie-break strategy in step 3).
func seedPairIndex(chunks []*symbolstream.Chunk, tie pairindex.TieBreak) *pairindex.PairIndex {
	pi := pairindex.New(tie)
	for _, c := range chunks {
		cur := c.Head()
		for cur != symbolstream.NoCursor {
			next := c.Next(cur)
			if next == symbolstream.NoCursor {
				break
			}
			pi.BumpOrCreate(pairindex.Pair{A: c.At(cur), B: c.At(next)}, 1)
			cur = next
		}
	}
	return pi
}

// mergeAllInChunk applies one merge rule across an entire chunk, left to
// right and non-overlapping (spec §4.4.1). When incremental is true, the
// PairIndex is updated in place rather than rebuilt.
func mergeAllInChunk(c *symbolstream.Chunk, pair pairindex.Pair, newID int, pi *pairindex.PairIndex, incremental bool) {
	cur := c.Head()
	for cur != symbolstream.NoCursor {
		next := c.Next(cur)
		if next == symbolstream.NoCursor {
			break
		}

		if c.At(cur) != pair.A || c.At(next) != pair.B {
			cur = next
			continue
		}

		prev := c.Prev(cur)
		havePrev := prev != symbolstream.NoCursor
		var prevVal int
		if havePrev {
			prevVal = c.At(prev)
		}

		c.MergeAt(cur, newID)

		after := c.Next(cur)
		haveAfter := after != symbolstream.NoCursor
		var afterVal int
		if haveAfter {
			afterVal = c.At(after)
		}

		if incremental {
			pi.BumpOrCreate(pair, -1)
			if havePrev {
				pi.BumpOrCreate(pairindex.Pair{A: prevVal, B: pair.A}, -1)
				pi.BumpOrCreate(pairindex.Pair{A: prevVal, B: newID}, 1)
			}
			if haveAfter {
				pi.BumpOrCreate(pairindex.Pair{A: pair.B, B: afterVal}, -1)
				pi.BumpOrCreate(pairindex.Pair{A: newID, B: afterVal}, 1)
			}
		}

		// Advance from the position after the just-merged cell: consecutive
		// matches cannot overlap (spec §4.4.1).
		cur = after
	}
}
