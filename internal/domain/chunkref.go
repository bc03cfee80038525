package domain

// ChunkRef represents one occurrence of a Chunk inside one ChunkList. It
// owns no bytes itself; its existence contributes exactly one count to its
// target Chunk's reference count. A ChunkRef belongs to exactly one
// ChunkList at a time.
type ChunkRef struct {
	chunk *Chunk
}

// Reset clears a ChunkRef for reuse from a pool. Callers must have already
// released the reference count on the previous target (see pool.Pools).
func (r *ChunkRef) Reset() {
	r.chunk = nil
}

// Bind points the ref at chunk. Ref-counting is the caller's (pool.Pools)
// responsibility, not this type's — ChunkRef is a plain occurrence marker.
// Exported for use by internal/pool, which is the only allowed caller.
func (r *ChunkRef) Bind(chunk *Chunk) {
	r.chunk = chunk
}

// Chunk returns the target Chunk of this occurrence.
func (r *ChunkRef) Chunk() *Chunk {
	return r.chunk
}
