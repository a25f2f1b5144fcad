// ed25519.go provides the Ed25519 façade used for Disputes verdict/culprit/
// fault signatures, guarantee signatures on work-reports, and availability
// bitfield signatures (spec.md §4.3-§4.5).
package crypto

import (
	"crypto/ed25519"
	"errors"
)

// Ed25519PublicKeySize and Ed25519SignatureSize are the wire sizes fixed by
// the protocol; they never vary by key material.
const (
	Ed25519PublicKeySize = ed25519.PublicKeySize
	Ed25519SignatureSize = ed25519.SignatureSize
)

var (
	// ErrEd25519InvalidPublicKey names a public key that is not a valid
	// Ed25519 point. Ed25519Verify does not return it.
	ErrEd25519InvalidPublicKey = errors.New("crypto: invalid ed25519 public key")
	// ErrEd25519VerifyFailed is returned when a signature does not verify
	// against the given public key and message.
	ErrEd25519VerifyFailed = errors.New("crypto: ed25519 signature verification failed")
)

// Ed25519PublicKey is a raw 32-byte Ed25519 public key as it appears in
// validator metadata.
type Ed25519PublicKey [Ed25519PublicKeySize]byte

// Ed25519Signature is a raw 64-byte Ed25519 signature.
type Ed25519Signature [Ed25519SignatureSize]byte

// Ed25519Sign signs msg with the given seed-derived private key. Callers in
// this codebase hold only the 32-byte seed form of a key, matching the
// validator metadata encoding, so the full private key is expanded here.
func Ed25519Sign(seed [32]byte, msg []byte) Ed25519Signature {
	priv := ed25519.NewKeyFromSeed(seed[:])
	sig := ed25519.Sign(priv, msg)
	var out Ed25519Signature
	copy(out[:], sig)
	return out
}

// Ed25519Verify checks sig against msg and pk. Every rejection, including
// one caused by a malformed key, is reported as ErrEd25519VerifyFailed; a
// corrupt key is not distinguished from a bad signature.
func Ed25519Verify(pk Ed25519PublicKey, msg []byte, sig Ed25519Signature) error {
	if !ed25519.Verify(ed25519.PublicKey(pk[:]), msg, sig[:]) {
		return ErrEd25519VerifyFailed
	}
	return nil
}
