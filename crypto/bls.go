// bls.go is the BLS12-381 aggregation façade: opaque sign/verify/aggregate
// over the MinPk scheme (public keys in G1, signatures in G2), backed by
// the supranational/blst library. The state-transition function never
// inspects BLS internals; validator metadata carries the keys as fixed-size
// opaque fields (bls_jam.go) and auditing-layer callers verify aggregates
// through this façade only.
package crypto

import (
	"errors"

	blst "github.com/supranational/blst/bindings/go"
)

// Key and signature sizes for the MinPk scheme.
const (
	BLSPubkeySize    = 48 // compressed G1
	BLSSignatureSize = 96 // compressed G2
	blsSecretSize    = 32 // scalar field element
)

// blsDST is the ciphersuite domain separation tag (RFC 9380 / BLS
// signatures draft, G2 proof-of-possession variant).
var blsDST = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_")

var (
	ErrBLSInvalidIKM           = errors.New("crypto: bls IKM must be at least 32 bytes")
	ErrBLSKeyGenFailed         = errors.New("crypto: bls key generation failed")
	ErrBLSInvalidSecretKey     = errors.New("crypto: invalid bls secret key bytes")
	ErrBLSInvalidPublicKey     = errors.New("crypto: invalid bls public key bytes")
	ErrBLSInvalidSignature     = errors.New("crypto: invalid bls signature bytes")
	ErrBLSNoSignatures         = errors.New("crypto: no bls signatures to aggregate")
	ErrBLSAggregateFailed      = errors.New("crypto: bls signature aggregation failed")
	ErrBLSVerifyFailed         = errors.New("crypto: bls signature verification failed")
	ErrBLSAggregateVerifyFailed = errors.New("crypto: bls aggregate signature verification failed")
)

// BLSPublicKey is a compressed G1 public key.
type BLSPublicKey [BLSPubkeySize]byte

// BLSSignature is a compressed G2 signature.
type BLSSignature [BLSSignatureSize]byte

// BLSSecretKey is an owned handle on a scalar secret key.
type BLSSecretKey struct {
	inner *blst.SecretKey
}

// BLSKeyGen derives a key pair from at least 32 bytes of input key
// material, per the RFC 9380 KeyGen procedure blst implements.
func BLSKeyGen(ikm []byte) (BLSPublicKey, *BLSSecretKey, error) {
	var pub BLSPublicKey
	if len(ikm) < 32 {
		return pub, nil, ErrBLSInvalidIKM
	}
	sk := blst.KeyGen(ikm)
	if sk == nil {
		return pub, nil, ErrBLSKeyGenFailed
	}
	copy(pub[:], new(blst.P1Affine).From(sk).Compress())
	return pub, &BLSSecretKey{inner: sk}, nil
}

// Sign produces a compressed G2 signature over msg.
func (sk *BLSSecretKey) Sign(msg []byte) (BLSSignature, error) {
	var out BLSSignature
	if sk == nil || sk.inner == nil {
		return out, ErrBLSInvalidSecretKey
	}
	sig := new(blst.P2Affine).Sign(sk.inner, msg, blsDST)
	if sig == nil {
		return out, ErrBLSInvalidSecretKey
	}
	copy(out[:], sig.Compress())
	return out, nil
}

// BLSVerify checks a single signature.
func BLSVerify(pub BLSPublicKey, msg []byte, sig BLSSignature) error {
	pk := new(blst.P1Affine).Uncompress(pub[:])
	if pk == nil {
		return ErrBLSInvalidPublicKey
	}
	s := new(blst.P2Affine).Uncompress(sig[:])
	if s == nil {
		return ErrBLSInvalidSignature
	}
	if !s.Verify(true, pk, true, msg, blsDST) {
		return ErrBLSVerifyFailed
	}
	return nil
}

// BLSAggregateSignatures folds the given signatures into one.
func BLSAggregateSignatures(sigs []BLSSignature) (BLSSignature, error) {
	var out BLSSignature
	if len(sigs) == 0 {
		return out, ErrBLSNoSignatures
	}
	raw := make([][]byte, len(sigs))
	for i := range sigs {
		raw[i] = sigs[i][:]
	}
	agg := new(blst.P2Aggregate)
	if !agg.AggregateCompressed(raw, true) {
		return out, ErrBLSAggregateFailed
	}
	copy(out[:], agg.ToAffine().Compress())
	return out, nil
}

// BLSAggregateVerify checks an aggregate signature where keys[i] signed
// msgs[i].
func BLSAggregateVerify(keys []BLSPublicKey, msgs [][]byte, sig BLSSignature) error {
	if len(keys) == 0 || len(keys) != len(msgs) {
		return ErrBLSAggregateVerifyFailed
	}
	s := new(blst.P2Affine).Uncompress(sig[:])
	if s == nil {
		return ErrBLSInvalidSignature
	}
	pks := make([]*blst.P1Affine, len(keys))
	for i := range keys {
		pks[i] = new(blst.P1Affine).Uncompress(keys[i][:])
		if pks[i] == nil {
			return ErrBLSInvalidPublicKey
		}
	}
	blstMsgs := make([]blst.Message, len(msgs))
	for i, m := range msgs {
		blstMsgs[i] = m
	}
	if !s.AggregateVerify(true, pks, true, blstMsgs, blsDST) {
		return ErrBLSAggregateVerifyFailed
	}
	return nil
}

// BLSFastAggregateVerify checks an aggregate where every key signed the
// same msg, the common shape for availability-style attestations.
func BLSFastAggregateVerify(keys []BLSPublicKey, msg []byte, sig BLSSignature) error {
	if len(keys) == 0 {
		return ErrBLSAggregateVerifyFailed
	}
	s := new(blst.P2Affine).Uncompress(sig[:])
	if s == nil {
		return ErrBLSInvalidSignature
	}
	pks := make([]*blst.P1Affine, len(keys))
	for i := range keys {
		pks[i] = new(blst.P1Affine).Uncompress(keys[i][:])
		if pks[i] == nil {
			return ErrBLSInvalidPublicKey
		}
	}
	if !s.FastAggregateVerify(true, pks, msg, blsDST) {
		return ErrBLSAggregateVerifyFailed
	}
	return nil
}
