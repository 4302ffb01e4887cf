package codec

import (
	"log/slog"

	"github.com/bpetok/internal/vocabulary"
)

// Decoder turns a sequence of symbol IDs back into bytes.
type Decoder struct {
	vocab    *vocabulary.Vocabulary
	specials map[int]string
}

// NewDecoder builds a Decoder from a tokenizer's vocabulary and a
// symbol-ID -> special-token-string table (may be nil or empty).
func NewDecoder(vocab *vocabulary.Vocabulary, specialsByID map[int]string) *Decoder {
	return &Decoder{vocab: vocab, specials: specialsByID}
}

// Decode maps each ID to its literal special-token string or vocabulary
// bytes and concatenates the result. An unknown ID is logged and skipped
// (spec §4.8) rather than treated as fatal.
func (d *Decoder) Decode(ids []int) []byte {
	var out []byte
	for _, id := range ids {
		if s, ok := d.specials[id]; ok {
			out = append(out, s...)
			continue
		}
		b, ok := d.vocab.Bytes(id)
		if !ok {
			slog.Warn("decode: unknown token id, skipping", "id", id)
			continue
		}
		out = append(out, b...)
	}
	return out
}
