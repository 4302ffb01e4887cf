package codec

// encodeScratch holds the per-call working arrays for encodeChunk: a
// doubly-linked symbol sequence (tokens/prev/next) plus a generation counter
// per cell (live) used to invalidate stale merge candidates, exactly as in
// the teacher's internal/tokenizer/core/encoder.go. Pooled via sync.Pool so a
// long-running encoder doesn't reallocate these on every chunk.
type encodeScratch struct {
	tokens []int
	prev   []int
	next   []int
	live   []int
}

func (sc *encodeScratch) prepare(n int) {
	sc.tokens = ensureIntCapacity(sc.tokens, n)
	sc.prev = ensureIntCapacity(sc.prev, n)
	sc.next = ensureIntCapacity(sc.next, n)
	sc.live = ensureIntCapacity(sc.live, n)
}

func ensureIntCapacity(buf []int, n int) []int {
	if cap(buf) < n {
		return make([]int, n)
	}
	return buf[:n]
}

func (e *Encoder) acquireScratch(n int) *encodeScratch {
	v := e.scratch.Get()
	sc, ok := v.(*encodeScratch)
	if !ok {
		sc = &encodeScratch{}
	}
	sc.prepare(n)
	return sc
}

func (e *Encoder) releaseScratch(sc *encodeScratch) {
	e.scratch.Put(sc)
}
