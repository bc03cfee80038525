package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getData(t *testing.T, s *Store, h StateHandle) []byte {
	t.Helper()
	size, err := s.StateSize(h)
	require.NoError(t, err)
	out := make([]byte, size)
	require.NoError(t, s.StateDataGet(h, out))
	return out
}

func newChunksAllocated(s *Store) int {
	return s.Stats().PoolStats.ChunksAllocated
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(0, 8)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(4, 2)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_RoundsChunkSizeDownToMultipleOfStride(t *testing.T) {
	s, err := New(4, 10)
	require.NoError(t, err)
	assert.Equal(t, 8, s.chunkSize)
}

func TestS1_Identical(t *testing.T) {
	s, err := New(1, 8)
	require.NoError(t, err)

	data := []byte("abcdefghijklmnop")
	s0, err := s.AddData(data)
	require.NoError(t, err)

	before := newChunksAllocated(s)
	s1, err := s.AddDataWithRef(data, s0)
	require.NoError(t, err)
	after := newChunksAllocated(s)

	assert.Equal(t, data, getData(t, s, s1))
	assert.Equal(t, before, after, "identical content must allocate zero new Chunks")
}

func TestS2_PrefixEdit(t *testing.T) {
	s, err := New(1, 8)
	require.NoError(t, err)

	s0, err := s.AddData([]byte("abcdefghIJKLMNOP"))
	require.NoError(t, err)

	before := newChunksAllocated(s)
	s1, err := s.AddDataWithRef([]byte("ZYcdefghIJKLMNOP"), s0)
	require.NoError(t, err)
	after := newChunksAllocated(s)

	assert.Equal(t, []byte("ZYcdefghIJKLMNOP"), getData(t, s, s1))
	assert.Equal(t, 1, after-before, "only the 2-byte prefix edit should allocate one fresh chunk")
}

func TestS3_Reorder(t *testing.T) {
	s, err := New(4, 4)
	require.NoError(t, err)

	s0, err := s.AddData([]byte("AAAABBBBCCCCDDDD"))
	require.NoError(t, err)

	before := newChunksAllocated(s)
	s1, err := s.AddDataWithRef([]byte("DDDDCCCCBBBBAAAA"), s0)
	require.NoError(t, err)
	after := newChunksAllocated(s)

	assert.Equal(t, []byte("DDDDCCCCBBBBAAAA"), getData(t, s, s1))
	assert.Equal(t, before, after, "a pure reorder of existing chunks must allocate nothing new")
}

func TestS4_MiddleInsertion(t *testing.T) {
	s, err := New(1, 8)
	require.NoError(t, err)

	a := make([]byte, 32)
	for i := range a {
		a[i] = 'A'
	}
	b := make([]byte, 32)
	for i := range b {
		b[i] = 'B'
	}
	original := append(append([]byte{}, a...), b...)

	s0, err := s.AddData(original)
	require.NoError(t, err)

	x := make([]byte, 8)
	for i := range x {
		x[i] = 'X'
	}
	edited := append(append(append([]byte{}, a...), x...), b...)

	before := newChunksAllocated(s)
	s1, err := s.AddDataWithRef(edited, s0)
	require.NoError(t, err)
	after := newChunksAllocated(s)

	assert.Equal(t, edited, getData(t, s, s1))
	assert.Equal(t, 1, after-before, "only the inserted 8-byte run of X should allocate a new chunk")
}

func TestS5_FreeIntermediate(t *testing.T) {
	s, err := New(1, 8)
	require.NoError(t, err)

	b0 := []byte("initial-content-0")
	b1 := []byte("initial-content-1-edited")
	b2 := []byte("initial-content-2-edited-again")

	s0, err := s.AddData(b0)
	require.NoError(t, err)
	s1, err := s.AddDataWithRef(b1, s0)
	require.NoError(t, err)
	s2, err := s.AddDataWithRef(b2, s1)
	require.NoError(t, err)

	require.NoError(t, s.StateFree(s1))

	assert.Equal(t, b0, getData(t, s, s0))
	assert.Equal(t, b2, getData(t, s, s2))
}

func TestS6_StrideMisalignmentImmunity(t *testing.T) {
	s, err := New(4, 16)
	require.NoError(t, err)

	data := make([]byte, 100) // multiple of 4
	for i := range data {
		data[i] = byte(i)
	}

	h, err := s.AddData(data)
	require.NoError(t, err)

	list := s.states[h]
	refs := list.Refs()
	for i, r := range refs {
		if i == len(refs)-1 {
			continue // the final chunk may be shorter than chunk_size
		}
		assert.Equal(t, 0, r.Chunk().Len()%4, "every non-final chunk's length must be a multiple of stride")
	}
	assert.Equal(t, data, getData(t, s, h))
}

func TestProperty_RoundTrip(t *testing.T) {
	s, err := New(1, 8)
	require.NoError(t, err)

	for _, data := range [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte("a reasonably long sentence used to exercise chunk splitting"),
	} {
		h, err := s.AddData(data)
		require.NoError(t, err)
		assert.Equal(t, data, getData(t, s, h))
	}
}

func TestProperty_ReferenceIndependence(t *testing.T) {
	s, err := New(1, 8)
	require.NoError(t, err)

	s0, err := s.AddData([]byte("reference-content-for-independence"))
	require.NoError(t, err)
	s1, err := s.AddDataWithRef([]byte("reference-content-for-INDEPENDENCE"), s0)
	require.NoError(t, err)

	beforeFree := getData(t, s, s1)
	require.NoError(t, s.StateFree(s0))
	afterFree := getData(t, s, s1)

	assert.Equal(t, beforeFree, afterFree)
}

func TestProperty_DedupLowerBound(t *testing.T) {
	s, err := New(1, 8)
	require.NoError(t, err)

	data := []byte("exactly-the-same-bytes-twice-over")
	s0, err := s.AddData(data)
	require.NoError(t, err)

	before := newChunksAllocated(s)
	_, err = s.AddDataWithRef(data, s0)
	require.NoError(t, err)
	after := newChunksAllocated(s)

	assert.Equal(t, before, after)
}

func TestProperty_RefcountSoundness(t *testing.T) {
	s, err := New(1, 8)
	require.NoError(t, err)

	s0, err := s.AddData([]byte("shared-prefix-AAAA"))
	require.NoError(t, err)
	s1, err := s.AddDataWithRef([]byte("shared-prefix-BBBB"), s0)
	require.NoError(t, err)

	liveBeforeFree := s.Stats().PoolStats.ChunksLive
	assert.Greater(t, liveBeforeFree, 0)

	require.NoError(t, s.StateFree(s0))
	assert.Greater(t, s.Stats().PoolStats.ChunksLive, 0, "chunks still reachable from s1 must remain live")

	require.NoError(t, s.StateFree(s1))
	assert.Equal(t, 0, s.Stats().PoolStats.ChunksLive, "every chunk must be freed once its last referrer is freed")
}

func TestProperty_NoSharedChunkMutation(t *testing.T) {
	s, err := New(1, 8)
	require.NoError(t, err)

	data := []byte("unchanging-shared-content-here!")
	s0, err := s.AddData(data)
	require.NoError(t, err)
	s1, err := s.AddDataWithRef(data, s0)
	require.NoError(t, err)

	before := getData(t, s, s0)
	require.NoError(t, s.StateFree(s1))
	after := getData(t, s, s0)

	assert.Equal(t, before, after, "freeing a co-referrer must never change another state's observed bytes")
}

func TestProperty_OrderingDeterminism(t *testing.T) {
	s, err := New(1, 8)
	require.NoError(t, err)

	ref, err := s.AddData([]byte("deterministic-reference-content"))
	require.NoError(t, err)

	edited := []byte("deterministic-REFERENCE-content")
	a, err := s.AddDataWithRef(edited, ref)
	require.NoError(t, err)
	b, err := s.AddDataWithRef(edited, ref)
	require.NoError(t, err)

	assert.Equal(t, getData(t, s, a), getData(t, s, b), "identical inputs against the same reference must produce identical bytes")
}

func TestStateFree_UnknownHandle(t *testing.T) {
	s, err := New(1, 8)
	require.NoError(t, err)

	assert.ErrorIs(t, s.StateFree(StateHandle{}), ErrUnknownState)
}

func TestStateDataGet_WrongBufferSize(t *testing.T) {
	s, err := New(1, 8)
	require.NoError(t, err)

	h, err := s.AddData([]byte("abc"))
	require.NoError(t, err)

	err = s.StateDataGet(h, make([]byte, 2))
	assert.ErrorIs(t, err, ErrOutputBufferSize)
}

func TestAddData_UnalignedInputRejected(t *testing.T) {
	s, err := New(4, 16)
	require.NoError(t, err)

	_, err = s.AddData([]byte("abc")) // length 3, not a multiple of stride 4
	assert.ErrorIs(t, err, ErrUnalignedInput)
}

func TestAddDataWithRef_UnknownRefState(t *testing.T) {
	s, err := New(1, 8)
	require.NoError(t, err)

	_, err = s.AddDataWithRef([]byte("abc"), StateHandle{})
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestStateFingerprint_MatchesForIdenticalContent(t *testing.T) {
	s, err := New(1, 8)
	require.NoError(t, err)

	data := []byte("fingerprint-this-content")
	s0, err := s.AddData(data)
	require.NoError(t, err)
	s1, err := s.AddDataWithRef(data, s0)
	require.NoError(t, err)

	f0, err := s.StateFingerprint(s0)
	require.NoError(t, err)
	f1, err := s.StateFingerprint(s1)
	require.NoError(t, err)

	assert.Equal(t, f0, f1)
}

func TestStateFingerprint_DiffersForDifferentContent(t *testing.T) {
	s, err := New(1, 8)
	require.NoError(t, err)

	s0, err := s.AddData([]byte("content-one"))
	require.NoError(t, err)
	s1, err := s.AddData([]byte("content-two"))
	require.NoError(t, err)

	f0, err := s.StateFingerprint(s0)
	require.NoError(t, err)
	f1, err := s.StateFingerprint(s1)
	require.NoError(t, err)

	assert.NotEqual(t, f0, f1)
}
