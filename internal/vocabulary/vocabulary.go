// Package vocabulary implements the symbol-ID -> byte-sequence map (spec §4.7,
// component C7). It is purely derived from the ordered merge list: the first
// 256 entries are the single raw bytes, and each subsequent entry is the
// concatenation of the two symbols a learned merge combines.
package vocabulary

import (
	"fmt"

	"github.com/bpetok/internal/mergerule"
)

// Vocabulary is a total function from symbol ID to its byte expansion.
type Vocabulary struct {
	entries [][]byte
}

// New returns a Vocabulary seeded with the 256 single-byte symbols.
func New() *Vocabulary {
	v := &Vocabulary{entries: make([][]byte, 256)}
	for b := 0; b < 256; b++ {
		v.entries[b] = []byte{byte(b)}
	}
	return v
}

// Size reports how many symbol IDs are covered (256 + number of merges).
func (v *Vocabulary) Size() int { return len(v.entries) }

// Bytes returns the byte sequence for id, or false if id is out of range.
func (v *Vocabulary) Bytes(id int) ([]byte, bool) {
	if id < 0 || id >= len(v.entries) {
		return nil, false
	}
	return v.entries[id], true
}

// Extend appends a new entry equal to vocab[a] ++ vocab[b] and returns its
// ID, which is always len-before-the-call (spec §3: newId = 256 + rank).
func (v *Vocabulary) Extend(a, b int) (int, error) {
	ab, ok := v.Bytes(a)
	if !ok {
		return 0, fmt.Errorf("vocabulary: symbol %d out of range", a)
	}
	bb, ok := v.Bytes(b)
	if !ok {
		return 0, fmt.Errorf("vocabulary: symbol %d out of range", b)
	}

	merged := make([]byte, 0, len(ab)+len(bb))
	merged = append(merged, ab...)
	merged = append(merged, bb...)

	id := len(v.entries)
	v.entries = append(v.entries, merged)
	return id, nil
}

// FromMerges rebuilds a Vocabulary by replaying merges from ID 256 upward
// (spec §4.6: "reconstruct vocab by replaying merges"). Used when loading a
// saved model, where only the merge list is persisted.
func FromMerges(merges []mergerule.Merge) (*Vocabulary, error) {
	v := New()
	for i, m := range merges {
		wantID := 256 + i
		if m.NewID != wantID {
			return nil, fmt.Errorf("vocabulary: merge %d has id %d, want %d", i, m.NewID, wantID)
		}
		id, err := v.Extend(m.A, m.B)
		if err != nil {
			return nil, fmt.Errorf("vocabulary: replaying merge %d: %w", i, err)
		}
		if id != wantID {
			return nil, fmt.Errorf("vocabulary: replayed merge %d produced id %d, want %d", i, id, wantID)
		}
	}
	return v, nil
}
