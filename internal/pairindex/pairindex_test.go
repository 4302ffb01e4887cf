package pairindex

import "testing"

func TestLookupAbsentByDefault(t *testing.T) {
	pi := New(First)
	if _, ok := pi.Lookup(Pair{1, 2}); ok {
		t.Fatalf("expected absent lookup on empty index")
	}
}

func TestTopEmptyIsAbsent(t *testing.T) {
	pi := New(First)
	if _, _, ok := pi.Top(); ok {
		t.Fatalf("expected Top() absent on empty index")
	}
}

func TestBumpOrCreateReportsCreation(t *testing.T) {
	pi := New(First)
	if created := pi.BumpOrCreate(Pair{1, 2}, 1); !created {
		t.Fatalf("expected first bump to report creation")
	}
	if created := pi.BumpOrCreate(Pair{1, 2}, 1); created {
		t.Fatalf("expected second bump to not report creation")
	}
	if count, ok := pi.Lookup(Pair{1, 2}); !ok || count != 2 {
		t.Fatalf("Lookup = %d,%v want 2,true", count, ok)
	}
}

// Scenario 5 pairs from corpus "abab", with (b,a) bumped to the same count
// as (a,b) so both tie at 2; FIRST must prefer (a,b) because it was inserted
// first.
func TestTieBreakFirst(t *testing.T) {
	pi := New(First)
	ab := Pair{'a', 'b'}
	ba := Pair{'b', 'a'}
	pi.BumpOrCreate(ab, 1) // position 0: a,b
	pi.BumpOrCreate(ba, 1) // position 1: b,a
	pi.BumpOrCreate(ab, 1) // position 2: a,b
	// (b,a) only occurs once in "abab" (positions: ab, ba, ab), so give it
	// an equal count explicitly to exercise the tie.
	pi.BumpOrCreate(ba, 1)

	top, count, ok := pi.Top()
	if !ok || count != 2 || top != ab {
		t.Fatalf("Top() = %v,%d,%v want %v,2,true", top, count, ok, ab)
	}
}

// LEXICAL must prefer the component-wise smaller pair on a tie, regardless of
// insertion order.
func TestTieBreakLexical(t *testing.T) {
	pi := New(Lexical)
	ab := Pair{'a', 'b'} // smaller
	ba := Pair{'b', 'a'}
	pi.BumpOrCreate(ba, 1)
	pi.BumpOrCreate(ab, 1)

	top, count, ok := pi.Top()
	if !ok || count != 1 || top != ab {
		t.Fatalf("Top() = %v,%d,%v want %v,1,true", top, count, ok, ab)
	}
}

func TestTopSkipsDecayedEntries(t *testing.T) {
	pi := New(First)
	p := Pair{1, 2}
	pi.BumpOrCreate(p, 1)
	pi.BumpOrCreate(p, -1) // decays to zero
	if _, _, ok := pi.Top(); ok {
		t.Fatalf("expected Top() absent once the only entry decays to zero")
	}
}

func TestTopReflectsLatestCountAfterChurn(t *testing.T) {
	pi := New(First)
	a := Pair{1, 2}
	b := Pair{3, 4}
	pi.BumpOrCreate(a, 5)
	pi.BumpOrCreate(b, 1)
	pi.BumpOrCreate(a, -4) // a now at 1
	pi.BumpOrCreate(b, 3)  // b now at 4, should become the max

	top, count, ok := pi.Top()
	if !ok || top != b || count != 4 {
		t.Fatalf("Top() = %v,%d,%v want %v,4,true", top, count, ok, b)
	}
}
