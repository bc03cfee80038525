package delta

import (
	"github.com/prn-tf/chunkvault/internal/domain"
	"github.com/prn-tf/chunkvault/internal/hashutil"
)

// candidate is one bucket entry: a reference middle ChunkRef plus its
// position within the RefMiddle slice it came from, so MiddleMatcher can
// chain-extend into whatever follows it in reference order without a
// second hash probe.
type candidate struct {
	ref *domain.ChunkRef
	pos int
}

// TableRef is the transient hash index over a reference ChunkList's middle
// chunks (spec §4.5). Keys are hashutil.ChunkPrefixHash values; multiple
// chunks sharing a key chain together in insertion order. Building it is
// the caller's choice to make lazily — TableRef itself doesn't defer
// anything, Build just does no work on an empty slice.
type TableRef struct {
	buckets map[uint64][]candidate
	stride  int
	k       int
}

// NewTableRef creates an empty index for the given stride and
// K_ACCUMULATE.
func NewTableRef(stride, k int) *TableRef {
	return &TableRef{
		buckets: make(map[uint64][]candidate),
		stride:  stride,
		k:       k,
	}
}

// hash computes (or fetches the cached) TableRef key for chunk.
func (t *TableRef) hash(c *domain.Chunk) uint64 {
	return c.HashPrefix(func(d []byte) uint64 {
		return hashutil.ChunkPrefixHash(d, t.stride, t.k)
	})
}

// Build inserts every ChunkRef in refMiddle into the index, keyed by its
// target Chunk's prefix hash.
func (t *TableRef) Build(refMiddle []*domain.ChunkRef) {
	for pos, ref := range refMiddle {
		h := t.hash(ref.Chunk())
		t.buckets[h] = append(t.buckets[h], candidate{ref: ref, pos: pos})
	}
}

// candidatesFor returns the chained bucket for hash, in insertion order.
func (t *TableRef) candidatesFor(hash uint64) []candidate {
	return t.buckets[hash]
}
