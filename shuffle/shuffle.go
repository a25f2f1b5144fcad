// Package shuffle implements the Fisher-Yates permutation and
// entropy-derived index selection used by Safrole's fallback key sequence
// and Reports' guarantor rotation (spec.md §4.2, §4.4, §9), plus the
// outside-in ordering used for the epoch's ticket-derived sealing-key
// sequence.
//
// spec.md §9 flags the reference Fisher-Yates specification as naturally
// recursive; this package implements it iteratively with a single working
// buffer to bound stack use without changing the output, per that note.
package shuffle

import (
	"encoding/binary"

	"github.com/jamzig/jamzig-sub009/crypto"
)

// FisherYates permutes a copy of items using entropy as the randomness
// source. For index i counting down from len(items)-1 to 1, the swap
// partner j = entropyIndex(entropy, i, i+1) so the algorithm is fully
// deterministic and reproducible from (items, entropy) alone.
func FisherYates[T any](items []T, entropy crypto.Hash256) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := entropyIndex(entropy, uint32(i), uint32(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// entropyIndex derives a deterministic index in [0, bound) from entropy and
// a counter, using the same Blake2b-256-derived selection scheme Safrole's
// fallback key selection uses (spec.md §4.2): idx = u32_le(H(entropy ‖
// u32_le(counter))[0..4]) mod bound.
func entropyIndex(entropy crypto.Hash256, counter, bound uint32) uint32 {
	var ctrBytes [4]byte
	binary.LittleEndian.PutUint32(ctrBytes[:], counter)
	h := crypto.Blake2b256(entropy[:], ctrBytes[:])
	v := binary.LittleEndian.Uint32(h[:4])
	return v % bound
}

// EntropySelect picks count indices into [0, poolSize) deterministically
// from entropy, matching Safrole's fallback sealing-key derivation (§4.2):
// for i in [0, count): idx = u32_le(Blake2b256(entropy ‖ u32_le(i))[0..4])
// mod poolSize.
func EntropySelect(entropy crypto.Hash256, count, poolSize uint32) []uint32 {
	out := make([]uint32, count)
	for i := uint32(0); i < count; i++ {
		out[i] = entropyIndex(entropy, i, poolSize)
	}
	return out
}

// OutsideIn interleaves a sequence alternately from its head and tail:
// given [a0, a1, ..., an-1], it yields [a0, an-1, a1, an-2, ...] (spec.md
// §4.2, GLOSSARY). Applying OutsideIn twice to a palindrome sequence is the
// identity (spec.md §8 property 11).
func OutsideIn[T any](items []T) []T {
	out := make([]T, len(items))
	lo, hi := 0, len(items)-1
	for i := 0; i < len(items); i++ {
		if i%2 == 0 {
			out[i] = items[lo]
			lo++
		} else {
			out[i] = items[hi]
			hi--
		}
	}
	return out
}
