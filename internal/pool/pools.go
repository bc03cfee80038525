package pool

import "github.com/prn-tf/chunkvault/internal/domain"

// Stats summarizes the three slab pools' occupancy, used to populate the
// store's pool_* metrics gauges.
type Stats struct {
	ChunksAllocated, ChunksFree, ChunksLive       int
	ChunkRefsAllocated, ChunkRefsFree, ChunkRefsLive int
	ListsAllocated, ListsFree, ListsLive          int
}

// Pools owns the three slab allocators a Store needs — one per kind named
// in spec §4.2 — and is the only place refcounts on Chunks are mutated.
// Nothing outside this package calls Chunk.IncRef/DecRef or ChunkRef.Bind.
type Pools struct {
	chunks *FreeList[domain.Chunk]
	refs   *FreeList[domain.ChunkRef]
	lists  *FreeList[domain.ChunkList]
}

// New creates a Pools with the given per-kind allocation ceilings (0 means
// unbounded). The Store always constructs its Pools unbounded; non-zero
// ceilings are used by tests to exercise the AllocFailure path.
func New(maxChunks, maxRefs, maxLists int) *Pools {
	return &Pools{
		chunks: NewFreeList(func() *domain.Chunk { return &domain.Chunk{} }, maxChunks),
		refs:   NewFreeList(func() *domain.ChunkRef { return &domain.ChunkRef{} }, maxRefs),
		lists:  NewFreeList(func() *domain.ChunkList { return &domain.ChunkList{} }, maxLists),
	}
}

// NewChunk allocates (or recycles) a Chunk initialized with data, at
// refcount 0 — the caller must pair it with a NewChunkRef to keep it alive.
func (p *Pools) NewChunk(data []byte) (*domain.Chunk, error) {
	c, err := p.chunks.Get()
	if err != nil {
		return nil, err
	}
	c.Init(data)
	return c, nil
}

// freeChunk returns a Chunk with refcount 0 to its pool.
func (p *Pools) freeChunk(c *domain.Chunk) {
	c.Reset()
	p.chunks.Put(c)
}

// AbandonChunk returns a Chunk allocated via NewChunk directly to its pool
// without ever having had a ChunkRef bound to it. Callers must only use this
// on a Chunk they know has refcount 0 — once any ChunkRef has been
// constructed against it, release the Chunk through ReleaseChunkRef instead.
func (p *Pools) AbandonChunk(c *domain.Chunk) {
	p.freeChunk(c)
}

// NewChunkRef allocates a ChunkRef targeting chunk, incrementing chunk's
// refcount. This is the only path by which a Chunk's refcount increases.
func (p *Pools) NewChunkRef(chunk *domain.Chunk) (*domain.ChunkRef, error) {
	r, err := p.refs.Get()
	if err != nil {
		return nil, err
	}
	chunk.IncRef()
	r.Bind(chunk)
	return r, nil
}

// ReleaseChunkRef decrements the target Chunk's refcount and recycles the
// ChunkRef. If the Chunk's refcount reaches zero, the Chunk is recycled too.
func (p *Pools) ReleaseChunkRef(r *domain.ChunkRef) {
	c := r.Chunk()
	r.Reset()
	p.refs.Put(r)
	if c.DecRef() == 0 {
		p.freeChunk(c)
	}
}

// NewChunkList allocates an empty ChunkList.
func (p *Pools) NewChunkList() (*domain.ChunkList, error) {
	l, err := p.lists.Get()
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ReleaseChunkList releases every ChunkRef the list holds (decrementing
// their target Chunks' refcounts, freeing any that reach zero) and recycles
// the ChunkList itself. This is the only reclamation path state_free uses.
func (p *Pools) ReleaseChunkList(l *domain.ChunkList) {
	for _, r := range l.Refs() {
		p.ReleaseChunkRef(r)
	}
	l.Reset()
	p.lists.Put(l)
}

// Stats reports current occupancy across all three pools.
func (p *Pools) Stats() Stats {
	return Stats{
		ChunksAllocated: p.chunks.Allocated(), ChunksFree: p.chunks.Free(), ChunksLive: p.chunks.Live(),
		ChunkRefsAllocated: p.refs.Allocated(), ChunkRefsFree: p.refs.Free(), ChunkRefsLive: p.refs.Live(),
		ListsAllocated: p.lists.Allocated(), ListsFree: p.lists.Free(), ListsLive: p.lists.Live(),
	}
}
