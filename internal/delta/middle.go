package delta

import (
	"github.com/prn-tf/chunkvault/internal/domain"
	"github.com/prn-tf/chunkvault/internal/hashutil"
	"github.com/prn-tf/chunkvault/internal/pool"
)

// MatchMiddle resolves the unmatched span newMid (newData[RemainingStart:
// RemainingEnd] from a HeadTailResult) against the reference ChunkList's
// middle ChunkRefs, using table (already built over refMiddle) to jump
// straight to candidate chunks instead of scanning byte by byte.
//
// It probes newMid at every stride-aligned offset for which a full
// accumulated window fits, looks up candidates sharing that window's hash,
// and byte-verifies each one against the chunk it names before accepting it
// — the index only narrows the search, it never stands in for the
// byte-exact check spec §4.6 requires. A verified match is chain-extended:
// as long as the reference chunk immediately following the matched one
// (in refMiddle order) also matches the bytes right after it in newMid, it
// is consumed too, with no further hash lookups. Any stretch of newMid that
// never matches anything is cut into fresh chunkSize-sized Chunks.
func MatchMiddle(pools *pool.Pools, table *TableRef, refMiddle []*domain.ChunkRef, newMid []byte, stride, k, chunkSize int) ([]*domain.ChunkRef, error) {
	var out []*domain.ChunkRef
	rollback := func() {
		for _, r := range out {
			pools.ReleaseChunkRef(r)
		}
	}

	appendFresh := func(span []byte) error {
		refs, err := ChunkFresh(pools, span, chunkSize)
		if err != nil {
			return err
		}
		out = append(out, refs...)
		return nil
	}

	appendReused := func(c *domain.Chunk) error {
		r, err := pools.NewChunkRef(c)
		if err != nil {
			return err
		}
		out = append(out, r)
		return nil
	}

	acc := hashutil.BuildAccumulated(newMid, stride, k)
	numWindows := len(acc)

	pos := 0
	pendingStart := 0
	i := 0
	for i < numWindows {
		winOffset := hashutil.Offset(i, stride)
		if winOffset < pos {
			i++
			continue
		}

		matched, newPos, err := tryMatch(pools, table, refMiddle, newMid, acc[i], winOffset, pendingStart, appendFresh, appendReused)
		if err != nil {
			rollback()
			return nil, err
		}
		if !matched {
			i++
			continue
		}

		pos = newPos
		pendingStart = newPos
		i = ceilDiv(pos, stride)
	}

	if err := appendFresh(newMid[pendingStart:]); err != nil {
		rollback()
		return nil, err
	}
	return out, nil
}

// tryMatch attempts every candidate sharing hash at byte offset winOffset.
// On the first byte-verified candidate, it flushes the pending fresh span
// [pendingStart:winOffset), emits the matched run (chain-extended as far as
// it holds), and returns the new position past the run.
func tryMatch(
	pools *pool.Pools,
	table *TableRef,
	refMiddle []*domain.ChunkRef,
	newMid []byte,
	hash uint64,
	winOffset, pendingStart int,
	appendFresh func([]byte) error,
	appendReused func(*domain.Chunk) error,
) (bool, int, error) {
	for _, cand := range table.candidatesFor(hash) {
		c := cand.ref.Chunk()
		clen := c.Len()
		if winOffset+clen > len(newMid) {
			continue
		}
		if !c.Equal(newMid[winOffset : winOffset+clen]) {
			continue
		}

		if err := appendFresh(newMid[pendingStart:winOffset]); err != nil {
			return false, 0, err
		}
		if err := appendReused(c); err != nil {
			return false, 0, err
		}
		pos := winOffset + clen

		next := cand.pos + 1
		for next < len(refMiddle) {
			nc := refMiddle[next].Chunk()
			nclen := nc.Len()
			if pos+nclen > len(newMid) || !nc.Equal(newMid[pos:pos+nclen]) {
				break
			}
			if err := appendReused(nc); err != nil {
				return false, 0, err
			}
			pos += nclen
			next++
		}

		return true, pos, nil
	}
	return false, 0, nil
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}
