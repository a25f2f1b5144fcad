package state

import "github.com/jamzig/jamzig-sub009/crypto"

// ValidatorData is one validator's full key material plus fixed metadata
// (spec.md §3): {bandersnatch_pub(32), ed25519_pub(32), bls_pub(144),
// metadata(128)}.
type ValidatorData struct {
	Bandersnatch crypto.BandersnatchPublicKey
	Ed25519      crypto.Ed25519PublicKey
	BLS          crypto.JAMBLSPublicKey
	Metadata     [128]byte
}

// IsZero reports whether every field of v is the zero value, the encoding
// Safrole uses to represent an offending validator's zeroed entry on
// rotation (§4.2).
func (v ValidatorData) IsZero() bool {
	return v == ValidatorData{}
}

// Clone returns a value copy. ValidatorData has no reference fields so this
// exists only for call-site symmetry with composite Clone methods.
func (v ValidatorData) Clone() ValidatorData { return v }

// ValidatorSet is an ordered sequence of exactly Params.ValidatorsCount
// ValidatorData entries (κ, λ, ι, γ_k all share this type).
type ValidatorSet []ValidatorData

// Clone returns a deep (independent backing array) copy of vs.
func (vs ValidatorSet) Clone() ValidatorSet {
	out := make(ValidatorSet, len(vs))
	copy(out, vs)
	return out
}

// Equal reports whether vs and other contain the same entries in the same
// order.
func (vs ValidatorSet) Equal(other ValidatorSet) bool {
	if len(vs) != len(other) {
		return false
	}
	for i := range vs {
		if vs[i] != other[i] {
			return false
		}
	}
	return true
}

// IndexOfEd25519 returns the index of the validator whose Ed25519 key
// equals pk, or -1 if none match. Used by Disputes and Reports to resolve a
// signer's assigned core or offender-set membership.
func (vs ValidatorSet) IndexOfEd25519(pk crypto.Ed25519PublicKey) int {
	for i, v := range vs {
		if v.Ed25519 == pk {
			return i
		}
	}
	return -1
}

// BandersnatchKeys projects the ring of Bandersnatch public keys out of vs,
// in validator order, for ring commitment / ring verification.
func (vs ValidatorSet) BandersnatchKeys() []crypto.BandersnatchPublicKey {
	out := make([]crypto.BandersnatchPublicKey, len(vs))
	for i, v := range vs {
		out[i] = v.Bandersnatch
	}
	return out
}

// ValidatorKeys is the κ/λ/ι lifecycle record (spec.md §3): κ current,
// λ previous, ι future/next-draw.
type ValidatorKeys struct {
	Current  ValidatorSet // κ
	Previous ValidatorSet // λ
	Next     ValidatorSet // ι
}

// Clone returns a deep copy of k.
func (k ValidatorKeys) Clone() ValidatorKeys {
	return ValidatorKeys{
		Current:  k.Current.Clone(),
		Previous: k.Previous.Clone(),
		Next:     k.Next.Clone(),
	}
}
