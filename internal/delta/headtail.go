package delta

import (
	"github.com/prn-tf/chunkvault/internal/domain"
	"github.com/prn-tf/chunkvault/internal/pool"
)

// MatchHeadTail walks newData and the reference ChunkList ref from both
// ends, reusing every reference Chunk whose bytes exactly match the next
// equally-long prefix (or, from the other end, suffix) of newData. It stops
// at the first mismatch on each side and never lets the two walks overlap —
// if the tail walk would reconsume a reference ChunkRef or byte range the
// head walk already claimed, the tail walk is truncated first.
//
// Every reused chunk gets a brand-new ChunkRef (via pools): the reference's
// own ChunkRefs stay put in ref, since two ChunkLists never share a
// ChunkRef even when they share the Chunk it points to.
func MatchHeadTail(pools *pool.Pools, newData []byte, ref *domain.ChunkList) (*HeadTailResult, error) {
	refRefs := ref.Refs()

	headCount := 0
	headBytes := 0
	for headCount < len(refRefs) {
		c := refRefs[headCount].Chunk()
		clen := c.Len()
		if headBytes+clen > len(newData) {
			break
		}
		if !c.Equal(newData[headBytes : headBytes+clen]) {
			break
		}
		headCount++
		headBytes += clen
	}

	remainingRefCount := len(refRefs) - headCount
	remainingNewLen := len(newData) - headBytes

	tailCount := 0
	tailBytes := 0
	for tailCount < remainingRefCount {
		c := refRefs[len(refRefs)-1-tailCount].Chunk()
		clen := c.Len()
		if tailBytes+clen > remainingNewLen {
			break
		}
		start := len(newData) - tailBytes - clen
		if !c.Equal(newData[start : start+clen]) {
			break
		}
		tailCount++
		tailBytes += clen
	}

	var allocated []*domain.ChunkRef
	rollback := func() {
		for _, r := range allocated {
			pools.ReleaseChunkRef(r)
		}
	}

	headOut := make([]*domain.ChunkRef, 0, headCount)
	for i := 0; i < headCount; i++ {
		r, err := pools.NewChunkRef(refRefs[i].Chunk())
		if err != nil {
			rollback()
			return nil, err
		}
		allocated = append(allocated, r)
		headOut = append(headOut, r)
	}

	tailOut := make([]*domain.ChunkRef, 0, tailCount)
	for i := len(refRefs) - tailCount; i < len(refRefs); i++ {
		r, err := pools.NewChunkRef(refRefs[i].Chunk())
		if err != nil {
			rollback()
			return nil, err
		}
		allocated = append(allocated, r)
		tailOut = append(tailOut, r)
	}

	return &HeadTailResult{
		HeadRefs:       headOut,
		TailRefs:       tailOut,
		RemainingStart: headBytes,
		RemainingEnd:   len(newData) - tailBytes,
		RefMiddle:      refRefs[headCount : len(refRefs)-tailCount],
	}, nil
}
