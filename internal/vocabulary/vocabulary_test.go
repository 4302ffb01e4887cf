package vocabulary

import (
	"bytes"
	"testing"

	"github.com/bpetok/internal/mergerule"
)

func TestNewCoversAllBytes(t *testing.T) {
	v := New()
	if v.Size() != 256 {
		t.Fatalf("Size() = %d, want 256", v.Size())
	}
	for b := 0; b < 256; b++ {
		got, ok := v.Bytes(b)
		if !ok || !bytes.Equal(got, []byte{byte(b)}) {
			t.Fatalf("Bytes(%d) = %v,%v want [%d],true", b, got, ok, b)
		}
	}
}

func TestExtendConcatenatesAndAppends(t *testing.T) {
	v := New()
	id, err := v.Extend('a', 'b')
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if id != 256 {
		t.Fatalf("id = %d, want 256", id)
	}
	got, ok := v.Bytes(256)
	if !ok || string(got) != "ab" {
		t.Fatalf("Bytes(256) = %q,%v want \"ab\",true", got, ok)
	}
	if v.Size() != 257 {
		t.Fatalf("Size() = %d, want 257", v.Size())
	}
}

func TestExtendChainsPreviousMerges(t *testing.T) {
	v := New()
	ab, _ := v.Extend('a', 'b')   // 256 = "ab"
	abc, _ := v.Extend(ab, 'c')   // 257 = "abc"
	got, ok := v.Bytes(abc)
	if !ok || string(got) != "abc" {
		t.Fatalf("Bytes(%d) = %q,%v want \"abc\",true", abc, got, ok)
	}
}

func TestExtendOutOfRangeErrors(t *testing.T) {
	v := New()
	if _, err := v.Extend(1000, 1); err == nil {
		t.Fatalf("expected an error for an out-of-range symbol")
	}
}

func TestBytesOutOfRange(t *testing.T) {
	v := New()
	if _, ok := v.Bytes(-1); ok {
		t.Fatalf("expected Bytes(-1) to be absent")
	}
	if _, ok := v.Bytes(256); ok {
		t.Fatalf("expected Bytes(256) to be absent before any merges")
	}
}

func TestFromMergesReplaysVocabulary(t *testing.T) {
	merges := []mergerule.Merge{
		{A: 'a', B: 'b', NewID: 256},
		{A: 256, B: 'c', NewID: 257},
	}
	v, err := FromMerges(merges)
	if err != nil {
		t.Fatalf("FromMerges: %v", err)
	}
	if v.Size() != 258 {
		t.Fatalf("Size() = %d, want 258", v.Size())
	}
	if got, ok := v.Bytes(256); !ok || string(got) != "ab" {
		t.Fatalf("Bytes(256) = %q,%v want \"ab\",true", got, ok)
	}
	if got, ok := v.Bytes(257); !ok || string(got) != "abc" {
		t.Fatalf("Bytes(257) = %q,%v want \"abc\",true", got, ok)
	}
}

func TestFromMergesRejectsOutOfOrderIDs(t *testing.T) {
	merges := []mergerule.Merge{
		{A: 'a', B: 'b', NewID: 300},
	}
	if _, err := FromMerges(merges); err == nil {
		t.Fatalf("expected an error when a merge's NewID does not match 256+i")
	}
}
