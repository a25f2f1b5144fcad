// blake2.go provides the Blake2b-256 hashing façade used throughout the JAM
// codec, state Merkleisation, and entropy accumulator (spec.md §4.1/§6).
// JAM hashes everything with Blake2b-256, never Keccak or SHA-256.
package crypto

import "golang.org/x/crypto/blake2b"

// HashSize is the output size of every JAM hash, in bytes.
const HashSize = 32

// Hash256 is a 32-byte Blake2b-256 digest.
type Hash256 [HashSize]byte

// Blake2b256 hashes the concatenation of parts with Blake2b-256. Accepting
// multiple parts lets callers express "H(a ‖ b ‖ c)" from spec.md without an
// intermediate allocation-heavy concatenation.
func Blake2b256(parts ...[]byte) Hash256 {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails for an over-long key, and we never pass
		// one; a failure here means the standard library itself is broken.
		panic("crypto: blake2b.New256: " + err.Error())
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash256
	h.Sum(out[:0])
	return out
}

// IsZero reports whether h is the all-zero hash.
func (h Hash256) IsZero() bool {
	for _, b := range h {
		if b != 0 {
			return false
		}
	}
	return true
}
