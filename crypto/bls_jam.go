// bls_jam.go bridges the protocol's 144-byte BLS public key wire format
// (spec.md §3 ValidatorData.bls_pub) to the 48-byte compressed-G1
// BLSPublicKey used by the aggregate-verification façade in bls.go. JAM
// reserves the wider field for a forward-compatible BLS encoding; only the
// leading 48 bytes are interpreted by this façade, matching the "opaque
// verifiers/signers with fixed byte sizes" contract in spec.md §1.
package crypto

// JAMBLSPublicKeySize is the wire size of a validator's bls_pub field.
const JAMBLSPublicKeySize = 144

// JAMBLSPublicKey is the wire-format BLS public key carried in
// ValidatorData. Only JAMBLSPublicKey.Compressed's low BLSPubkeySize bytes
// participate in aggregate verification today.
type JAMBLSPublicKey [JAMBLSPublicKeySize]byte

// Compressed extracts the embedded compressed-G1 BLSPublicKey.
func (k JAMBLSPublicKey) Compressed() BLSPublicKey {
	var out BLSPublicKey
	copy(out[:], k[:BLSPubkeySize])
	return out
}

// NewJAMBLSPublicKey embeds a compressed-G1 key into the wire format,
// zero-padding the reserved tail.
func NewJAMBLSPublicKey(compressed BLSPublicKey) JAMBLSPublicKey {
	var out JAMBLSPublicKey
	copy(out[:], compressed[:])
	return out
}
