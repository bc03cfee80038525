package domain

// ChunkList is the ordered sequence of ChunkRefs making up one State. It
// caches the total byte length so callers never need to re-sum on every
// read. The same Chunk may appear multiple times in one list; each
// occurrence is a distinct ChunkRef, and two ChunkLists never share a
// ChunkRef even when they share the Chunks those refs point to.
type ChunkList struct {
	refs   []*ChunkRef
	length int64
}

// Reset clears a ChunkList for reuse from a pool. It does not release the
// refcounts of whatever it used to hold — the caller (pool.Pools) must do
// that before recycling.
func (l *ChunkList) Reset() {
	l.refs = l.refs[:0]
	l.length = 0
}

// AppendRef appends an already-constructed ChunkRef to the end of the list.
// This transfers ownership of ref into the list without touching its
// target Chunk's refcount — that accounting happens once, at ChunkRef
// construction time (internal/pool), whether the ref is being appended here
// for the first time or spliced in from a transient head/middle/tail run.
func (l *ChunkList) AppendRef(ref *ChunkRef) {
	l.refs = append(l.refs, ref)
	l.length += int64(ref.Chunk().Len())
}

// AppendRefs appends a whole ordered run of ChunkRefs, preserving order.
func (l *ChunkList) AppendRefs(refs []*ChunkRef) {
	for _, ref := range refs {
		l.AppendRef(ref)
	}
}

// Refs returns the list's ChunkRefs in order. The caller must not retain a
// mutable view across further appends.
func (l *ChunkList) Refs() []*ChunkRef {
	return l.refs
}

// At returns the i'th ChunkRef.
func (l *ChunkList) At(i int) *ChunkRef {
	return l.refs[i]
}

// Count returns the number of ChunkRefs (chunk occurrences) in the list.
func (l *ChunkList) Count() int {
	return len(l.refs)
}

// Len returns the cached total byte length of the list.
func (l *ChunkList) Len() int64 {
	return l.length
}
