package state

import "github.com/jamzig/jamzig-sub009/crypto"

// Entropy is the η accumulator: an ordered 4-tuple of 32-byte opaque hashes
// (spec.md §3). η[0] is the live accumulator; η[1..3] are snapshots taken at
// past epoch boundaries and consumed by Safrole's fallback key selection
// and ring-VRF ticket input.
type Entropy [4]crypto.Hash256

// Clone returns a value copy; Entropy is an array so this is only here for
// call-site symmetry with the other state.Clone* helpers.
func (e Entropy) Clone() Entropy { return e }

// Accumulate folds in new block entropy: η'[0] = H(η[0] ‖ blockEntropy).
func (e Entropy) Accumulate(blockEntropy []byte) Entropy {
	out := e
	out[0] = crypto.Blake2b256(e[0][:], blockEntropy)
	return out
}

// Rotate shifts the accumulator at an epoch boundary: η'[3]←η[2], η'[2]←η[1],
// η'[1]←η[0]. η[0] is left untouched by Rotate; callers apply Accumulate
// first within the same block per the STF order in §4.9 step 3.
func (e Entropy) Rotate() Entropy {
	return Entropy{e[0], e[0], e[1], e[2]}
}
