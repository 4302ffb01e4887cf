// Package pretoken implements the pre-tokenizer (spec §4.3, component C3):
// splitting input text into chunks using a Unicode-property regex, or a
// single identity chunk when no pattern is configured.
//
// Grounded on other_examples' soundprediction-go-light-rag BPE tokenizer,
// which compiles a GPT-style split pattern with dlclark/regexp2 and walks
// matches via FindStringMatch/FindNextMatch — the only engine in the
// retrieved pack supporting \p{L}, \p{N}, inline (?i:...), and the
// possessive/atomic quantifiers the GPT-4 pattern requires.
package pretoken

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// GPT2Pattern is GPT-2's pre-tokenization split pattern, stored verbatim.
const GPT2Pattern = `'(?:[sdmt]|ll|ve|re)| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

// GPT4Pattern is GPT-4's pre-tokenization split pattern, stored verbatim.
const GPT4Pattern = `'(?i:[sdmt]|ll|ve|re)|[^\r\n\p{L}\p{N}]?+\p{L}+|\p{N}{1,3}| ?[^\s\p{L}\p{N}]++[\r\n]*|\s*[\r\n]|\s+(?!\S)|\s+`

// Splitter produces non-overlapping chunks from a compiled pattern. The zero
// value is not usable; construct with Compile.
type Splitter struct {
	pattern string
	re      *regexp2.Regexp
}

// Compile builds a Splitter for pattern. An empty pattern is valid and
// selects identity splitting (the whole input becomes one chunk).
func Compile(pattern string) (*Splitter, error) {
	if pattern == "" {
		return &Splitter{}, nil
	}
	re, err := regexp2.Compile(pattern, regexp2.Unicode)
	if err != nil {
		return nil, fmt.Errorf("pretoken: compile pattern %q: %w", pattern, err)
	}
	return &Splitter{pattern: pattern, re: re}, nil
}

// Pattern returns the pattern string this Splitter was built from (possibly empty).
func (s *Splitter) Pattern() string { return s.pattern }

// Split returns the ordered, non-overlapping chunks of text. With no pattern
// configured, it returns text as a single chunk (empty text yields no chunks).
func (s *Splitter) Split(text string) ([]string, error) {
	if s.re == nil {
		if text == "" {
			return nil, nil
		}
		return []string{text}, nil
	}

	var out []string

	m, err := s.re.FindStringMatch(text)
	if err != nil {
		return nil, fmt.Errorf("pretoken: match: %w", err)
	}
	for m != nil {
		start := m.Index
		length := m.Length

		if length > 0 {
			out = append(out, m.String())
			m, err = s.re.FindNextMatch(m)
			if err != nil {
				return nil, fmt.Errorf("pretoken: next match: %w", err)
			}
			continue
		}

		// Zero-width match (spec §4.3: "advance one byte and continue"): it
		// contributes no chunk, but the engine may retry at the same offset
		// forever, so we advance past it ourselves and keep scanning from
		// there. regexp2 indexes by rune position rather than raw byte
		// offset, so this advances one rune, the narrowest step the engine
		// can resume from.
		next := start + 1
		if next > len(text) {
			break
		}
		m, err = s.re.FindStringMatchStartingAt(text, next)
		if err != nil {
			return nil, fmt.Errorf("pretoken: match: %w", err)
		}
	}
	return out, nil
}
