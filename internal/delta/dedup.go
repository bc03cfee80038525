package delta

import (
	"github.com/prn-tf/chunkvault/internal/domain"
	"github.com/prn-tf/chunkvault/internal/pool"
)

// KAccumulate is the fixed window width (in stride-sized sub-blocks) used to
// key TableRef entries and the accumulated-hash array (spec §4.5).
const KAccumulate = 7

// releaseAll releases every ChunkRef in refs, used to unwind partial work
// when a later stage of the add-path fails.
func releaseAll(pools *pool.Pools, refs []*domain.ChunkRef) {
	for _, r := range refs {
		pools.ReleaseChunkRef(r)
	}
}

// Fresh builds a ChunkList for data with no reference state to dedup
// against: every chunkSize-sized piece of data becomes a brand-new Chunk.
// This is the add-path for the first State in a store, or for any
// AddDataWithRef call against a zero-value (empty) reference.
func Fresh(pools *pool.Pools, data []byte, chunkSize int) (*domain.ChunkList, error) {
	refs, err := ChunkFresh(pools, data, chunkSize)
	if err != nil {
		return nil, err
	}
	list, err := pools.NewChunkList()
	if err != nil {
		releaseAll(pools, refs)
		return nil, err
	}
	list.AppendRefs(refs)
	return list, nil
}

// AddWithRef computes the deduplicated ChunkList for newData given a
// reference ChunkList ref, composing the three matching stages: head/tail
// fast-equal scan, hash-indexed middle matching, and chunked fresh-fill for
// whatever remains unmatched. It never mutates ref — every reused Chunk is
// wrapped in a new ChunkRef of its own.
//
// On failure at any stage, every Chunk and ChunkRef allocated during this
// call is released before returning, leaving the store's prior state
// reachable and unchanged (spec's AllocFailure rollback requirement).
func AddWithRef(pools *pool.Pools, newData []byte, ref *domain.ChunkList, stride, k, chunkSize int) (*domain.ChunkList, error) {
	if ref == nil || ref.Count() == 0 {
		return Fresh(pools, newData, chunkSize)
	}

	ht, err := MatchHeadTail(pools, newData, ref)
	if err != nil {
		return nil, err
	}

	table := NewTableRef(stride, k)
	table.Build(ht.RefMiddle)

	mid, err := MatchMiddle(pools, table, ht.RefMiddle, newData[ht.RemainingStart:ht.RemainingEnd], stride, k, chunkSize)
	if err != nil {
		releaseAll(pools, ht.HeadRefs)
		releaseAll(pools, ht.TailRefs)
		return nil, err
	}

	list, err := pools.NewChunkList()
	if err != nil {
		releaseAll(pools, ht.HeadRefs)
		releaseAll(pools, mid)
		releaseAll(pools, ht.TailRefs)
		return nil, err
	}

	list.AppendRefs(ht.HeadRefs)
	list.AppendRefs(mid)
	list.AppendRefs(ht.TailRefs)
	return list, nil
}
