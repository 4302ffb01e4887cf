package trainer

import (
	"fmt"
	"testing"

	"github.com/bpetok/internal/pairindex"
	"github.com/bpetok/internal/pretoken"
)

func noPattern(t *testing.T) *pretoken.Splitter {
	t.Helper()
	s, err := pretoken.Compile("")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return s
}

// Scenario 1: "abcbcde", V=258, FIRST, no pattern.
func TestTrainTrivialMerge(t *testing.T) {
	res, err := Train("abcbcde", noPattern(t), Options{VocabSize: 258, TieBreak: pairindex.First})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	want := []Merge{{A: 98, B: 99, NewID: 256}, {A: 97, B: 256, NewID: 257}}
	if fmt.Sprint(res.Merges) != fmt.Sprint(want) {
		t.Fatalf("merges = %v, want %v", res.Merges, want)
	}
}

// Scenario 2: empty corpus.
func TestTrainEmptyCorpus(t *testing.T) {
	res, err := Train("", noPattern(t), Options{VocabSize: 300, TieBreak: pairindex.First})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(res.Merges) != 0 {
		t.Fatalf("merges = %v, want none", res.Merges)
	}
	if res.Vocab.Size() != 256 {
		t.Fatalf("vocab size = %d, want 256", res.Vocab.Size())
	}
}

// Scenario 3: single byte.
func TestTrainSingleByte(t *testing.T) {
	res, err := Train("?", noPattern(t), Options{VocabSize: 300, TieBreak: pairindex.First})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(res.Merges) != 0 {
		t.Fatalf("merges = %v, want none", res.Merges)
	}
}

// Scenario 5 corpus: in "abab" (a,b) occurs twice and (b,a) once, so both
// strategies must pick (a,b) as the first merge.
func TestTrainTieBreakScenario(t *testing.T) {
	for _, tie := range []pairindex.TieBreak{pairindex.First, pairindex.Lexical} {
		res, err := Train("abab", noPattern(t), Options{VocabSize: 257, TieBreak: tie})
		if err != nil {
			t.Fatalf("Train: %v", err)
		}
		if len(res.Merges) == 0 || res.Merges[0].A != 'a' || res.Merges[0].B != 'b' {
			t.Fatalf("tie=%v: first merge = %v, want (a,b)", tie, res.Merges)
		}
	}
}

func TestTrainRejectsSmallVocabSize(t *testing.T) {
	_, err := Train("abc", noPattern(t), Options{VocabSize: 100, TieBreak: pairindex.First})
	if err == nil {
		t.Fatalf("expected an error for vocab size below 256")
	}
}

// Monotone vocabulary: vocab.Size() == 256 + len(merges) after any run.
func TestTrainMonotoneVocabulary(t *testing.T) {
	res, err := Train("the quick brown fox the quick brown fox", noPattern(t), Options{VocabSize: 280, TieBreak: pairindex.Lexical})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if res.Vocab.Size() != 256+len(res.Merges) {
		t.Fatalf("vocab size = %d, want %d", res.Vocab.Size(), 256+len(res.Merges))
	}
}

// Merge stability: re-training twice on the same input with the same
// tie-break strategy yields identical merge lists.
func TestTrainIsDeterministic(t *testing.T) {
	corpus := "aaabdaaabac the quick brown fox jumps over the lazy dog repeatedly"
	for _, tie := range []pairindex.TieBreak{pairindex.First, pairindex.Lexical} {
		a, err := Train(corpus, noPattern(t), Options{VocabSize: 300, TieBreak: tie})
		if err != nil {
			t.Fatalf("Train: %v", err)
		}
		b, err := Train(corpus, noPattern(t), Options{VocabSize: 300, TieBreak: tie})
		if err != nil {
			t.Fatalf("Train: %v", err)
		}
		if fmt.Sprint(a.Merges) != fmt.Sprint(b.Merges) {
			t.Fatalf("tie=%v: non-deterministic merges:\n%v\n%v", tie, a.Merges, b.Merges)
		}
	}
}

// Merges never span a chunk boundary.
func TestTrainChunksAreIndependent(t *testing.T) {
	s, err := pretoken.Compile(pretoken.GPT2Pattern)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	res, err := Train("ab ab ab ab", s, Options{VocabSize: 260, TieBreak: pairindex.First})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	for _, m := range res.Merges {
		// The GPT-2 pattern splits this corpus into "ab", " ab", " ab", " ab":
		// a space only ever starts a chunk, so a merge whose right-hand symbol
		// begins with a space would only be possible if chunk independence broke.
		ab, _ := res.Vocab.Bytes(m.A)
		bb, _ := res.Vocab.Bytes(m.B)
		if len(bb) > 0 && bb[0] == ' ' {
			t.Fatalf("merge (%q,%q) crosses a chunk boundary", ab, bb)
		}
	}
}
