// Package store implements the public façade over the chunked, reference-
// counted, copy-on-write byte-array store: fixed stride and target chunk
// size, plus the four operations an embedding application drives an undo
// history through (AddData, AddDataWithRef, StateFree, StateDataGet).
package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"

	"github.com/prn-tf/chunkvault/internal/delta"
	"github.com/prn-tf/chunkvault/internal/domain"
	"github.com/prn-tf/chunkvault/internal/pool"
)

// StateHandle is the opaque external identifier for one immutable version
// of the stored byte array. The embedding application holds these; the
// Store never interprets them beyond map lookup.
type StateHandle = uuid.UUID

// Stats summarizes a Store's current occupancy, mirroring the teacher's
// delta.Delta savings-ratio reporting but at whole-store granularity.
type Stats struct {
	LiveStates int
	LiveChunks int
	PoolStats  pool.Stats
}

// Store is the public façade. It is single-threaded cooperative: no
// internal locking, no suspension. Callers must externally serialize all
// access to one Store.
type Store struct {
	stride    int
	chunkSize int

	pools   *pool.Pools
	states  map[StateHandle]*domain.ChunkList
	logger  zerolog.Logger
	metrics *Metrics
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithLogger attaches a logger for Debug/Trace-level add-path diagnostics.
// The zero value, zerolog.Nop(), is used if this option is omitted.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithMetrics attaches a prometheus registry to record counters and gauges
// against. Passing this option with a nil registry, or omitting it
// entirely, disables recording at zero overhead.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(s *Store) { s.metrics = NewMetrics(reg) }
}

// New creates a Store with the given stride and target chunk size.
// chunk_size is rounded down to the nearest positive multiple of stride,
// matching spec's "chunk_size defines the target chunk byte length" note;
// the last piece cut from each fresh span may still be shorter than it.
func New(stride, chunkSize uint32, opts ...Option) (*Store, error) {
	if stride == 0 || chunkSize < stride {
		return nil, ErrInvalidConfig
	}
	rounded := (chunkSize / stride) * stride

	s := &Store{
		stride:    int(stride),
		chunkSize: int(rounded),
		pools:     pool.New(0, 0, 0),
		states:    make(map[StateHandle]*domain.ChunkList),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AddData creates a new State from data with no reference to deduplicate
// against: data is freshly chunked into chunkSize-sized spans.
func (s *Store) AddData(data []byte) (StateHandle, error) {
	return s.add(data, nil)
}

// AddDataWithRef creates a new State from data, deduplicating against
// refState's ChunkList. refState is unchanged and remains independently
// freeable and readable afterward.
func (s *Store) AddDataWithRef(data []byte, refState StateHandle) (StateHandle, error) {
	ref, ok := s.states[refState]
	if !ok {
		return StateHandle{}, ErrUnknownState
	}
	return s.add(data, ref)
}

func (s *Store) add(data []byte, ref *domain.ChunkList) (StateHandle, error) {
	if len(data)%s.stride != 0 {
		return StateHandle{}, fmt.Errorf("%w: length %d is not a multiple of stride %d", ErrUnalignedInput, len(data), s.stride)
	}

	start := time.Now()
	before := s.pools.Stats()

	var list *domain.ChunkList
	var err error
	if ref == nil || ref.Count() == 0 || len(data) == 0 {
		list, err = delta.Fresh(s.pools, data, s.chunkSize)
	} else {
		list, err = delta.AddWithRef(s.pools, data, ref, s.stride, delta.KAccumulate, s.chunkSize)
	}
	if err != nil {
		return StateHandle{}, fmt.Errorf("add: %w: %w", ErrAllocFailure, err)
	}

	handle := uuid.New()
	s.states[handle] = list

	after := s.pools.Stats()
	fresh := after.ChunksLive - before.ChunksLive
	reused := list.Count() - fresh
	if reused < 0 {
		reused = 0
	}

	s.logger.Debug().
		Str("state", handle.String()).
		Bool("with_ref", ref != nil).
		Int("chunks", list.Count()).
		Int("bytes", int(list.Len())).
		Int("fresh_chunks", fresh).
		Int("reused_chunks", reused).
		Msg("add_data completed")

	s.metrics.recordAdd(ref != nil, fresh, reused, time.Since(start))
	s.metrics.setLive(len(s.states), after.ChunksLive)
	s.metrics.setPoolStats(after.ChunksAllocated, after.ChunksFree, after.ChunkRefsAllocated, after.ChunkRefsFree, after.ListsAllocated, after.ListsFree)

	return handle, nil
}

// StateFree removes state, drops its ChunkList, and decrements the
// refcount of every Chunk it referenced (freeing any that reach zero). It
// is synchronous: all memory that becomes unreferenced is reclaimed before
// this call returns.
func (s *Store) StateFree(state StateHandle) error {
	list, ok := s.states[state]
	if !ok {
		return ErrUnknownState
	}

	bytesFreed := list.Len()
	chunksFreed := list.Count()
	s.pools.ReleaseChunkList(list)
	delete(s.states, state)

	s.logger.Debug().
		Str("state", state.String()).
		Int("chunks", chunksFreed).
		Int64("bytes", bytesFreed).
		Msg("state_free completed")

	stats := s.pools.Stats()
	s.metrics.setLive(len(s.states), stats.ChunksLive)
	s.metrics.setPoolStats(stats.ChunksAllocated, stats.ChunksFree, stats.ChunkRefsAllocated, stats.ChunkRefsFree, stats.ListsAllocated, stats.ListsFree)

	return nil
}

// StateSize returns the total byte length of state's content.
func (s *Store) StateSize(state StateHandle) (int, error) {
	list, ok := s.states[state]
	if !ok {
		return 0, ErrUnknownState
	}
	return int(list.Len()), nil
}

// StateDataGet writes the concatenated bytes of state's chunks into out.
// len(out) must equal StateSize(state) exactly.
func (s *Store) StateDataGet(state StateHandle, out []byte) error {
	list, ok := s.states[state]
	if !ok {
		return ErrUnknownState
	}
	if int64(len(out)) != list.Len() {
		return ErrOutputBufferSize
	}

	pos := 0
	for _, ref := range list.Refs() {
		b := ref.Chunk().Bytes()
		copy(out[pos:], b)
		pos += len(b)
	}
	return nil
}

// StateFingerprint returns a blake2b-256 digest over state's full byte
// content — a cheap way for an embedding application to compare two states
// for byte-identity without reading both out in full.
func (s *Store) StateFingerprint(state StateHandle) ([32]byte, error) {
	list, ok := s.states[state]
	if !ok {
		return [32]byte{}, ErrUnknownState
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return [32]byte{}, fmt.Errorf("state_fingerprint: %w", err)
	}
	for _, ref := range list.Refs() {
		h.Write(ref.Chunk().Bytes())
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Stats reports current Store-wide occupancy.
func (s *Store) Stats() Stats {
	stats := s.pools.Stats()
	return Stats{
		LiveStates: len(s.states),
		LiveChunks: stats.ChunksLive,
		PoolStats:  stats,
	}
}
