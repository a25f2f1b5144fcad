package crypto

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlake2b256Deterministic(t *testing.T) {
	a := Blake2b256([]byte("hello"), []byte("jam"))
	b := Blake2b256([]byte("hello"), []byte("jam"))
	require.Equal(t, a, b)
	require.False(t, a.IsZero())
}

func TestEd25519SignVerify(t *testing.T) {
	var seed [32]byte
	for i := range seed {
		seed[i] = byte(i)
	}
	pub := ed25519PubFromSeed(seed)
	msg := []byte("jam_available")
	sig := Ed25519Sign(seed, msg)
	require.NoError(t, Ed25519Verify(pub, msg, sig))

	sig[0] ^= 1
	require.ErrorIs(t, Ed25519Verify(pub, msg, sig), ErrEd25519VerifyFailed)
}

func ed25519PubFromSeed(seed [32]byte) Ed25519PublicKey {
	var pub Ed25519PublicKey
	copy(pub[:], ed25519.NewKeyFromSeed(seed[:]).Public().(ed25519.PublicKey))
	return pub
}

func TestRingCommitAndVerifyRoundTrip(t *testing.T) {
	var seeds [6][32]byte
	keys := make([]BandersnatchPublicKey, 6)
	sks := make([]BandersnatchSecretKey, 6)
	for i := range seeds {
		seeds[i][0] = byte(i + 1)
		sks[i] = NewBandersnatchSecretKey(seeds[i])
		keys[i] = sks[i].Public()
	}
	commitment, err := RingCommit(keys)
	require.NoError(t, err)

	prover, err := NewRingProver(sks[2], keys, 2)
	require.NoError(t, err)

	input := []byte("jam_ticket_seal")
	sig, out1, err := prover.Sign(input, nil)
	require.NoError(t, err)

	out2, err := RingVerify(commitment, uint32(len(keys)), input, nil, sig)
	require.NoError(t, err)
	require.Equal(t, out1, out2)

	sig2 := sig
	sig2[8] ^= 0xFF
	_, err = RingVerify(commitment, uint32(len(keys)), input, nil, sig2)
	require.Error(t, err)
}

func TestIetfVrfProveVerify(t *testing.T) {
	var seed [32]byte
	seed[1] = 7
	sk := NewBandersnatchSecretKey(seed)
	pk := sk.Public()

	proof, out1 := IetfVrfProve(sk, []byte("jam_fallback_seal"), nil)
	out2, err := IetfVrfVerify(pk, []byte("jam_fallback_seal"), nil, proof)
	require.NoError(t, err)
	require.Equal(t, out1, out2)

	_, err = IetfVrfVerify(pk, []byte("wrong input"), nil, proof)
	require.ErrorIs(t, err, ErrIetfVrfProofInvalid)
}
