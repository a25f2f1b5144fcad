package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func blsTestKey(t *testing.T, tag byte) (BLSPublicKey, *BLSSecretKey) {
	t.Helper()
	ikm := make([]byte, 32)
	ikm[0] = tag
	pub, sk, err := BLSKeyGen(ikm)
	require.NoError(t, err)
	return pub, sk
}

func TestBLSSignVerify(t *testing.T) {
	pub, sk := blsTestKey(t, 1)
	msg := []byte("jam verdict payload")

	sig, err := sk.Sign(msg)
	require.NoError(t, err)
	require.NoError(t, BLSVerify(pub, msg, sig))
	require.ErrorIs(t, BLSVerify(pub, []byte("other payload"), sig), ErrBLSVerifyFailed)

	otherPub, _ := blsTestKey(t, 2)
	require.ErrorIs(t, BLSVerify(otherPub, msg, sig), ErrBLSVerifyFailed)
}

func TestBLSKeyGenRejectsShortIKM(t *testing.T) {
	_, _, err := BLSKeyGen(make([]byte, 16))
	require.ErrorIs(t, err, ErrBLSInvalidIKM)
}

func TestBLSFastAggregateVerify(t *testing.T) {
	msg := []byte("same message for all signers")
	var keys []BLSPublicKey
	var sigs []BLSSignature
	for i := byte(1); i <= 4; i++ {
		pub, sk := blsTestKey(t, i)
		sig, err := sk.Sign(msg)
		require.NoError(t, err)
		keys = append(keys, pub)
		sigs = append(sigs, sig)
	}

	agg, err := BLSAggregateSignatures(sigs)
	require.NoError(t, err)
	require.NoError(t, BLSFastAggregateVerify(keys, msg, agg))

	// Dropping a signer from the key set must fail verification.
	require.ErrorIs(t, BLSFastAggregateVerify(keys[:3], msg, agg), ErrBLSAggregateVerifyFailed)
}

func TestBLSAggregateVerifyDistinctMessages(t *testing.T) {
	var keys []BLSPublicKey
	var msgs [][]byte
	var sigs []BLSSignature
	for i := byte(1); i <= 3; i++ {
		pub, sk := blsTestKey(t, i)
		msg := []byte{0xA0, i}
		sig, err := sk.Sign(msg)
		require.NoError(t, err)
		keys = append(keys, pub)
		msgs = append(msgs, msg)
		sigs = append(sigs, sig)
	}

	agg, err := BLSAggregateSignatures(sigs)
	require.NoError(t, err)
	require.NoError(t, BLSAggregateVerify(keys, msgs, agg))

	// Swapping two messages breaks the pairing product.
	msgs[0], msgs[1] = msgs[1], msgs[0]
	require.ErrorIs(t, BLSAggregateVerify(keys, msgs, agg), ErrBLSAggregateVerifyFailed)
}

func TestBLSAggregateSignaturesEmpty(t *testing.T) {
	_, err := BLSAggregateSignatures(nil)
	require.ErrorIs(t, err, ErrBLSNoSignatures)
}

func TestJAMBLSKeyEmbedding(t *testing.T) {
	pub, _ := blsTestKey(t, 9)
	wire := NewJAMBLSPublicKey(pub)
	require.Equal(t, pub, wire.Compressed())
	// The reserved tail stays zero.
	for _, b := range wire[BLSPubkeySize:] {
		require.Zero(t, b)
	}
}
