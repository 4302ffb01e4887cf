package codec

import "github.com/bpetok/internal/mergerule"

// pairLookup answers, for a pair of symbol IDs, the rank and resulting ID of
// the merge that combines them, with a fast path for small symbol IDs and a
// map fallback for large ones.
//
// Adapted from the teacher's internal/tokenizer/pair_lookup.go, which used
// the same 2D-array/map-fallback split for a pretrained, fixed-size GPT-2
// merge table. Here the fast path is sized off the merge list this package
// actually learned (see maxFastSize below) rather than carried over as a
// constant borrowed from that reference vocabulary.
type pairLookup struct {
	fast     [][]uint64 // fast[a][b] = packed(rank,newID), or sentinel if absent
	fastSize int
	slow     map[uint64]uint64
}

// maxFastSize bounds the dense fast-path table. Beyond it the per-entry
// bookkeeping (fastSize^2 uint64s) stops paying for itself relative to the
// map fallback, so larger vocabularies spill into slow entirely.
const maxFastSize = 4096

const noEntry = ^uint64(0)

func pack(rank, newID int) uint64 {
	return uint64(rank)<<32 | uint64(uint32(newID))
}

func unpack(v uint64) (rank, newID int) {
	return int(v >> 32), int(int32(uint32(v)))
}

func packKey(a, b int) uint64 {
	return uint64(uint32(a))<<32 | uint64(uint32(b))
}

// newPairLookup builds a lookup table for merges, ordered by rank (their
// position in the slice). The fast array is sized off the learned vocabulary
// itself (256 base bytes plus one new ID per merge), capped at maxFastSize,
// so a small trained model doesn't pay for a table sized to a vocabulary it
// never produced.
func newPairLookup(merges []mergerule.Merge) *pairLookup {
	fastSize := 256 + len(merges)
	if fastSize > maxFastSize {
		fastSize = maxFastSize
	}

	fast := make([][]uint64, fastSize)
	for i := range fast {
		fast[i] = make([]uint64, fastSize)
		for j := range fast[i] {
			fast[i][j] = noEntry
		}
	}
	slow := make(map[uint64]uint64, len(merges)/4)

	for rank, m := range merges {
		v := pack(rank, m.NewID)
		if m.A >= 0 && m.A < fastSize && m.B >= 0 && m.B < fastSize {
			fast[m.A][m.B] = v
		} else {
			slow[packKey(m.A, m.B)] = v
		}
	}

	return &pairLookup{fast: fast, fastSize: fastSize, slow: slow}
}

// lookup returns (rank, newID, true) for pair (a,b) if it names a merge.
func (pl *pairLookup) lookup(a, b int) (int, int, bool) {
	if a >= 0 && a < pl.fastSize && b >= 0 && b < pl.fastSize {
		if v := pl.fast[a][b]; v != noEntry {
			rank, newID := unpack(v)
			return rank, newID, true
		}
		return 0, 0, false
	}
	if v, ok := pl.slow[packKey(a, b)]; ok {
		rank, newID := unpack(v)
		return rank, newID, true
	}
	return 0, 0, false
}
