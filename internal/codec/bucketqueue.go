package codec

import "sort"

// mergeCand is one candidate merge waiting to be applied: the pair at
// position pos ranks rank, and verL/verR pin it to a specific generation of
// its two symbol-stream cells so a stale candidate can be told apart from a
// live one after other merges have touched the same cells.
type mergeCand struct {
	rank       int
	pos        int
	leftToken  int
	rightToken int
	verL, verR int
}

// bucketQueue is a priority queue over merge candidates ordered by
// (rank asc, pos asc): bucket index IS the rank, so popping the lowest
// non-empty bucket is popping the highest-priority (earliest-learned) merge,
// and the leftmost position wins ties within a rank.
//
// Adapted from the teacher's internal/utils/bucket_queue.go, built there for
// a fixed number of rank "buckets" sized to a pretrained merges table. The
// bucket count here grows with the ranks this package's own encodeChunk
// actually produces, and within-bucket insertion uses sort.Search rather
// than the teacher's hand-split linear/binary threshold, to drive the
// canonical "apply merges in learned order" encoding algorithm (spec
// §4.5.1).
type bucketQueue struct {
	buckets    [][]mergeCand
	current    int
	totalCount int
}

func newBucketQueue(maxRank int) *bucketQueue {
	size := maxRank + 1
	if size < 0 {
		size = 0
	}
	return &bucketQueue{buckets: make([][]mergeCand, size)}
}

func (q *bucketQueue) len() int { return q.totalCount }

func (q *bucketQueue) push(c mergeCand) {
	if c.rank >= len(q.buckets) {
		grown := make([][]mergeCand, c.rank+1)
		copy(grown, q.buckets)
		q.buckets = grown
	}

	bucket := q.buckets[c.rank]
	insertPos := sort.Search(len(bucket), func(i int) bool { return bucket[i].pos >= c.pos })

	bucket = append(bucket, mergeCand{})
	copy(bucket[insertPos+1:], bucket[insertPos:])
	bucket[insertPos] = c
	q.buckets[c.rank] = bucket
	q.totalCount++
}

func (q *bucketQueue) pop() (mergeCand, bool) {
	for q.current < len(q.buckets) && len(q.buckets[q.current]) == 0 {
		q.current++
	}
	if q.current >= len(q.buckets) {
		return mergeCand{}, false
	}

	bucket := q.buckets[q.current]
	c := bucket[0]
	q.buckets[q.current] = bucket[1:]
	q.totalCount--
	return c, true
}
