// Package hashutil builds the 64-bit "accumulated hash" TableRef keys off
// of, and the cached per-Chunk prefix hash, as described in spec §4.5/§4.6.
//
// Both are built from the same primitive: an xxhash.Sum64 over a single
// stride-sized sub-block, folded together over a window of K_ACCUMULATE
// consecutive sub-blocks via a rotate-then-XOR combine. Each sub-hash's
// rotation amount is pinned to its position *relative to the start of its
// own window* (0..K-1), never to its absolute sub-block index — two equal
// runs of K sub-blocks combine to the same value no matter where either one
// sits in the buffer. That is the property TableRef/MiddleMatcher need: a
// reference chunk's ChunkPrefixHash (always window-relative index 0) must
// equal BuildAccumulated's entry for the same bytes at any alignment in the
// new-data buffer. The tradeoff is that sliding the window by one stride
// cannot be done by XOR-ing out one rotated term and XOR-ing in another —
// every term's rotation changes when its relative position shifts — so each
// window is recombined from scratch.
package hashutil

import "github.com/cespare/xxhash/v2"

// SubHash hashes one stride-sized (or shorter, for a final partial) block.
func SubHash(block []byte) uint64 {
	return xxhash.Sum64(block)
}

func rol(x uint64, bits uint) uint64 {
	bits %= 64
	return (x << bits) | (x >> (64 - bits))
}

// combine folds k consecutive sub-hashes (subHashes[start:start+k]) into one
// 64-bit value. Each term's rotation amount is its offset j within the
// window (0..k-1), not its absolute index in subHashes, so combine of the
// same k sub-hash values returns the same result regardless of start.
func combine(subHashes []uint64, start, k int) uint64 {
	var r uint64
	for j := 0; j < k; j++ {
		r ^= rol(subHashes[start+j], uint(j))
	}
	return r
}

// subHashAll slices data into stride-sized blocks (dropping any trailing
// partial block shorter than stride — it can never start a full window)
// and hashes each one.
func subHashAll(data []byte, stride int) []uint64 {
	n := len(data) / stride
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = SubHash(data[i*stride : (i+1)*stride])
	}
	return out
}

// BuildAccumulated computes, for every stride-aligned offset p = i*stride in
// data at which a full window of k consecutive stride-blocks fits (i.e.
// p+stride*k <= len(data)), the combined hash of data[p:p+stride*k]. The
// result is indexed by window index i; Offset(i, stride) recovers p.
//
// Returns nil if data is shorter than one full window (N = stride*k bytes)
// — callers should skip hashing entirely in that case, per spec §4.6.
func BuildAccumulated(data []byte, stride, k int) []uint64 {
	if stride <= 0 || k <= 0 {
		return nil
	}
	subs := subHashAll(data, stride)
	numWindows := len(subs) - k + 1
	if numWindows <= 0 {
		return nil
	}

	acc := make([]uint64, numWindows)
	for i := 0; i < numWindows; i++ {
		acc[i] = combine(subs, i, k)
	}
	return acc
}

// Offset converts a window index returned by BuildAccumulated back to a
// byte offset into the original data.
func Offset(windowIndex, stride int) int {
	return windowIndex * stride
}

// ChunkPrefixHash computes the TableRef key for a reference chunk's data:
// the combined hash over its first n = stride*k bytes, or — if the chunk is
// shorter than n — a plain hash over the whole chunk (spec §4.5).
func ChunkPrefixHash(data []byte, stride, k int) uint64 {
	n := stride * k
	if len(data) < n {
		return SubHash(data)
	}
	subs := subHashAll(data[:n], stride)
	return combine(subs, 0, k)
}
