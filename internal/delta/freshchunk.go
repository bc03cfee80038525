package delta

import (
	"github.com/prn-tf/chunkvault/internal/domain"
	"github.com/prn-tf/chunkvault/internal/pool"
)

// ChunkFresh splits span into chunkSize-sized pieces (the final piece
// shorter if span's length isn't a multiple of chunkSize) and allocates a
// brand-new Chunk plus ChunkRef for each one. It is the only way new Chunks
// enter a ChunkList: every other path reuses a chunk the reference ChunkList
// already owned.
//
// On any allocation failure partway through, every Chunk and ChunkRef
// already produced by this call is released before returning, so the caller
// never has to reason about a partially-built result.
func ChunkFresh(pools *pool.Pools, span []byte, chunkSize int) ([]*domain.ChunkRef, error) {
	if len(span) == 0 {
		return nil, nil
	}

	var out []*domain.ChunkRef
	rollback := func() {
		for _, r := range out {
			pools.ReleaseChunkRef(r)
		}
	}

	for off := 0; off < len(span); off += chunkSize {
		end := off + chunkSize
		if end > len(span) {
			end = len(span)
		}

		c, err := pools.NewChunk(span[off:end])
		if err != nil {
			rollback()
			return nil, err
		}
		r, err := pools.NewChunkRef(c)
		if err != nil {
			pools.AbandonChunk(c)
			rollback()
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
