// Package domain contains the core entities of the chunk store: the
// reference-counted Chunk, its per-occurrence ChunkRef, and the ordered
// ChunkList that makes up one State.
package domain

// hashUnset is the sentinel cached-hash value meaning "not yet computed".
// A real hash of exactly this value is accepted without ambiguity because
// Chunk tracks validity with a separate bool rather than reserving a value.
const hashUnset = 0

// Chunk is an immutable, reference-counted run of bytes. It is never
// mutated after construction: callers must not retain and write through the
// slice returned by Bytes.
type Chunk struct {
	data     []byte
	hash     uint64
	hashSet  bool
	refCount int32
}

// Reset clears a Chunk for reuse from a pool. It does not touch data's
// backing array identity; callers must assign new content with Init.
func (c *Chunk) Reset() {
	c.data = nil
	c.hash = hashUnset
	c.hashSet = false
	c.refCount = 0
}

// Init assigns the byte content of a freshly (re)used Chunk. Must only be
// called on a Chunk with RefCount() == 0.
func (c *Chunk) Init(data []byte) {
	c.data = data
	c.hash = hashUnset
	c.hashSet = false
}

// Bytes returns the chunk's content. The caller must not modify it.
func (c *Chunk) Bytes() []byte {
	return c.data
}

// Len returns the chunk's byte length.
func (c *Chunk) Len() int {
	return len(c.data)
}

// HashPrefix returns the cached TableRef key for this chunk, computing and
// caching it on first call via fn (expected to be hashutil.ChunkPrefixHash
// bound to the store's fixed stride and K_ACCUMULATE). Every caller within
// one Store passes an equivalent fn, so a single cached value is always
// valid for the store's lifetime.
func (c *Chunk) HashPrefix(fn func([]byte) uint64) uint64 {
	if c.hashSet {
		return c.hash
	}
	c.hash = fn(c.data)
	c.hashSet = true
	return c.hash
}

// Equal reports byte-for-byte equality against data. Hash equality is never
// substituted for this: spec invariant is "no false positives".
func (c *Chunk) Equal(data []byte) bool {
	if len(c.data) != len(data) {
		return false
	}
	for i := range c.data {
		if c.data[i] != data[i] {
			return false
		}
	}
	return true
}

// RefCount returns the number of live ChunkRefs targeting this Chunk.
func (c *Chunk) RefCount() int32 {
	return c.refCount
}

// IncRef increments the reference count. Called by internal/pool when a new
// ChunkRef is constructed against this Chunk; not meant for other callers.
func (c *Chunk) IncRef() {
	c.refCount++
}

// DecRef decrements the reference count and returns the value after
// decrementing. A caller observing 0 must return the Chunk to its pool.
// Called by internal/pool; not meant for other callers.
func (c *Chunk) DecRef() int32 {
	c.refCount--
	return c.refCount
}
