// Package delta implements the deduplicating add-path: turning an incoming
// byte buffer plus a reference ChunkList into a new ChunkList that maximally
// reuses the reference's Chunks, with byte-exact verification of every
// reuse. It has four stages, each its own file: the head/tail fast-equal
// scan (headtail.go), the lazily built reference-chunk hash index
// (tableref.go), the hash-driven middle matcher with its chunk-splitting
// fallback (middle.go and freshchunk.go), and the orchestrator that
// composes the three into a new ChunkList (dedup.go).
package delta

import "github.com/prn-tf/chunkvault/internal/domain"

// HeadTailResult is the output of MatchHeadTail: the reused head and tail
// runs (as brand-new ChunkRefs already pointing at the reference's Chunks),
// and the reference's middle ChunkRefs plus the new-data byte span between
// them, left for MiddleMatcher to resolve.
type HeadTailResult struct {
	HeadRefs []*domain.ChunkRef
	TailRefs []*domain.ChunkRef

	// RemainingStart, RemainingEnd bound the unmatched span of the new
	// bytes, i.e. the portion MiddleMatcher must account for.
	RemainingStart, RemainingEnd int

	// RefMiddle holds the reference ChunkList's own ChunkRefs between the
	// head and tail matches, in list order. These are not new allocations —
	// they still belong to the reference ChunkList.
	RefMiddle []*domain.ChunkRef
}
