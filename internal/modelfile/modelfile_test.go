package modelfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bpetok/internal/mergerule"
	"github.com/bpetok/internal/vocabulary"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.model")

	m := Model{
		Pattern: "",
		Specials: []SpecialToken{
			{Token: "<|end|>", ID: 100257},
		},
		Merges: []mergerule.Merge{
			{A: 'a', B: 'b', NewID: 256},
			{A: 256, B: 'c', NewID: 257},
		},
	}

	if err := Save(path, m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Pattern != m.Pattern {
		t.Fatalf("Pattern = %q, want %q", got.Pattern, m.Pattern)
	}
	if len(got.Specials) != 1 || got.Specials[0] != m.Specials[0] {
		t.Fatalf("Specials = %+v, want %+v", got.Specials, m.Specials)
	}
	if len(got.Merges) != 2 || got.Merges[0] != m.Merges[0] || got.Merges[1] != m.Merges[1] {
		t.Fatalf("Merges = %+v, want %+v", got.Merges, m.Merges)
	}
}

func TestLoadRejectsBadVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.model")
	if err := os.WriteFile(path, []byte("not a real header\n\n0\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for a bad version header")
	}
}

func TestLoadRejectsSpecialCollidingWithLearnedRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.model")
	// One merge occupies id 256; a special token claiming id 256 must be rejected.
	content := "minbpe v1\n\n1\nbad 256\n97 98\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for a special token colliding with the learned range")
	}
}

func TestSaveRejectsEmptyModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.model")
	if err := Save(path, Model{}); err == nil {
		t.Fatalf("expected an error saving a model with no merges and no specials")
	}
}

func TestWriteVocabRendersNonPrintableAsReplacement(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.vocab")

	v := vocabulary.New()
	if err := WriteVocab(path, v); err != nil {
		t.Fatalf("WriteVocab: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// Byte 0x41 ('A') must appear printable; byte 0x00 must not appear literally.
	if !contains(data, []byte(`"A"`)) {
		t.Fatalf("expected a printable rendering of byte 'A' in vocab dump")
	}
	if contains(data, []byte{0x00}) {
		t.Fatalf("byte 0x00 appeared literally in vocab dump")
	}
	if !contains(data, []byte("\"�\"")) {
		t.Fatalf("expected non-printable bytes rendered as the replacement character")
	}
}

func TestWriteReadTokensRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.bin")

	ids := []int{0, 1, 256, 65535, 100257}
	if err := WriteTokens(path, ids); err != nil {
		t.Fatalf("WriteTokens: %v", err)
	}
	got, err := ReadTokens(path)
	if err != nil {
		t.Fatalf("ReadTokens: %v", err)
	}
	if len(got) != len(ids) {
		t.Fatalf("got %d ids, want %d", len(got), len(ids))
	}
	for i := range ids {
		if got[i] != ids[i] {
			t.Fatalf("ids[%d] = %d, want %d", i, got[i], ids[i])
		}
	}
}

func TestLoadSpecialTokens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "specials.txt")
	content := "<|end|> 100257\n<|pad|> 100258\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := LoadSpecialTokens(path)
	if err != nil {
		t.Fatalf("LoadSpecialTokens: %v", err)
	}
	if got["<|end|>"] != 100257 || got["<|pad|>"] != 100258 {
		t.Fatalf("got %+v", got)
	}
}

func contains(haystack, needle []byte) bool {
	return len(needle) == 0 || indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle []byte) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
