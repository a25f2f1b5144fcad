// ietfvrf.go implements the non-anonymous Bandersnatch IETF-VRF façade used
// wherever a single validator proves a deterministic output tied to one of
// its own keys, without the ring-membership indirection of ringvrf.go
// (spec.md §4.2, §6). It reuses the same Chaum-Pedersen DLEQ construction.
package crypto

import "errors"

const (
	// IetfVrfProofSize is the fixed wire size of an IETF-VRF proof: the
	// VRF output point plus a Chaum-Pedersen (challenge, response) pair.
	IetfVrfProofSize = 96
)

var ErrIetfVrfProofInvalid = errors.New("crypto: ietf VRF proof failed verification")

// IetfVrfProof is the fixed-size proof envelope.
type IetfVrfProof [IetfVrfProofSize]byte

// IetfVrfProve produces a VRF output and proof for input under sk.
func IetfVrfProve(sk BandersnatchSecretKey, input, aux []byte) (IetfVrfProof, [32]byte) {
	h := hashToCurve("jam_ietf_vrf_input", input)
	gamma := BanderScalarMul(h, sk.scalar)

	skBytes := serializeScalar(sk.scalar)
	nonce := hashToScalar("jam_ietf_vrf_nonce", skBytes[:], input, aux)
	A := BanderScalarMul(BanderGenerator(), nonce)
	B := BanderScalarMul(h, nonce)

	pk := sk.Public()
	c := chaumPedersenChallenge(pk, gamma, A, B, aux)
	s := banderScalarAdd(nonce, banderScalarMul(c, sk.scalar))

	gammaBytes := BanderSerialize(gamma)
	cBytes := serializeScalar(c)
	sBytes := serializeScalar(s)

	var proof IetfVrfProof
	copy(proof[0:32], gammaBytes[:])
	copy(proof[32:64], cBytes[:])
	copy(proof[64:96], sBytes[:])

	output := Blake2b256([]byte("jam_ietf_vrf_output"), gammaBytes[:])
	return proof, output
}

// IetfVrfVerify checks proof against pk and input, returning the 32-byte
// VRF output on success.
func IetfVrfVerify(pk BandersnatchPublicKey, input, aux []byte, proof IetfVrfProof) ([32]byte, error) {
	var gammaBytes, cBytes, sBytes [32]byte
	copy(gammaBytes[:], proof[0:32])
	copy(cBytes[:], proof[32:64])
	copy(sBytes[:], proof[64:96])

	gamma, err := BanderDeserialize(gammaBytes)
	if err != nil {
		return [32]byte{}, ErrIetfVrfProofInvalid
	}
	pkPoint, err := BanderDeserialize([32]byte(pk))
	if err != nil {
		return [32]byte{}, ErrRingInvalidPublicKey
	}
	c := bytesToScalar(cBytes)
	s := bytesToScalar(sBytes)

	h := hashToCurve("jam_ietf_vrf_input", input)
	negC := negateScalar(c)
	aPrime := BanderAdd(BanderScalarMul(BanderGenerator(), s), BanderScalarMul(pkPoint, negC))
	bPrime := BanderAdd(BanderScalarMul(h, s), BanderScalarMul(gamma, negC))

	cPrime := chaumPedersenChallenge(pk, gamma, aPrime, bPrime, aux)
	if cPrime.Cmp(c) != 0 {
		return [32]byte{}, ErrIetfVrfProofInvalid
	}
	gammaOut := BanderSerialize(gamma)
	return Blake2b256([]byte("jam_ietf_vrf_output"), gammaOut[:]), nil
}
