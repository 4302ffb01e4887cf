// Package mergerule defines the shared Merge record (spec §3): a learned
// rewrite rule (a,b) -> newId, at a fixed position (its rank) in an ordered
// list. Kept separate so the trainer, codec, and model serializer can all
// depend on it without depending on each other.
package mergerule

// Merge is one learned rule. Its rank is its index in an ordered []Merge,
// and NewID always equals 256+rank.
type Merge struct {
	A, B, NewID int
}
