package assurances

import (
	stded25519 "crypto/ed25519"
	"testing"

	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/delta"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/state"
	"github.com/stretchr/testify/require"
)

func ed25519PublicFromSeed(seed [32]byte) crypto.Ed25519PublicKey {
	pub := stded25519.NewKeyFromSeed(seed[:]).Public().(stded25519.PublicKey)
	var out crypto.Ed25519PublicKey
	copy(out[:], pub)
	return out
}

func fixtureValidators(p params.Params) (state.ValidatorSet, [][32]byte) {
	vs := make(state.ValidatorSet, p.ValidatorsCount)
	seeds := make([][32]byte, p.ValidatorsCount)
	for i := range vs {
		var seed [32]byte
		seed[0] = byte(i + 1)
		seeds[i] = seed
		vs[i] = state.ValidatorData{Ed25519: ed25519PublicFromSeed(seed)}
	}
	return vs, seeds
}

func TestProcessAssurancesExtrinsicPromotesOnSuperMajority(t *testing.T) {
	p := params.Tiny()
	vs, seeds := fixtureValidators(p)
	parentHash := crypto.Hash256{0x42}

	base := &state.State{
		Validators: state.ValidatorKeys{Current: vs},
		Pending: state.PendingReports{
			{Report: state.WorkReport{CoreIndex: 0}, Timeout: 100},
			nil,
		},
	}
	d := delta.New(base)

	bitfield := []byte{0b10000000} // core 0 set
	var ex state.AssurancesExtrinsic
	for i := uint32(0); i < p.ValidatorsSuperMajority; i++ {
		sig := crypto.Ed25519Sign(seeds[i], availableMessage(parentHash, bitfield))
		ex = append(ex, state.Assurance{ParentHash: parentHash, ValidatorIndex: i, Bitfield: bitfield, Signature: sig})
	}

	promoted, err := ProcessAssurancesExtrinsic(p, d, 0, parentHash, ex)
	require.NoError(t, err)
	require.Len(t, promoted, 1)
	require.Equal(t, uint16(0), promoted[0].CoreIndex)

	pending := d.GetPending()
	require.Nil(t, pending[0])
}

func TestProcessAssurancesExtrinsicBelowThresholdDoesNotPromote(t *testing.T) {
	p := params.Tiny()
	vs, seeds := fixtureValidators(p)
	parentHash := crypto.Hash256{0x42}

	base := &state.State{
		Validators: state.ValidatorKeys{Current: vs},
		Pending:    state.PendingReports{{Report: state.WorkReport{CoreIndex: 0}, Timeout: 100}, nil},
	}
	d := delta.New(base)

	bitfield := []byte{0b10000000}
	sig := crypto.Ed25519Sign(seeds[0], availableMessage(parentHash, bitfield))
	ex := state.AssurancesExtrinsic{{ParentHash: parentHash, ValidatorIndex: 0, Bitfield: bitfield, Signature: sig}}

	promoted, err := ProcessAssurancesExtrinsic(p, d, 0, parentHash, ex)
	require.NoError(t, err)
	require.Empty(t, promoted)
	require.NotNil(t, d.GetPending()[0])
}

func TestProcessAssurancesExtrinsicClearsTimedOutReport(t *testing.T) {
	p := params.Tiny()
	vs, _ := fixtureValidators(p)
	parentHash := crypto.Hash256{0x42}

	base := &state.State{
		Validators: state.ValidatorKeys{Current: vs},
		Pending:    state.PendingReports{{Report: state.WorkReport{CoreIndex: 0}, Timeout: 5}, nil},
	}
	d := delta.New(base)

	promoted, err := ProcessAssurancesExtrinsic(p, d, 10, parentHash, nil)
	require.NoError(t, err)
	require.Empty(t, promoted)
	require.Nil(t, d.GetPending()[0])
}

func TestProcessAssurancesExtrinsicRejectsUnsortedAssurers(t *testing.T) {
	p := params.Tiny()
	vs, seeds := fixtureValidators(p)
	parentHash := crypto.Hash256{0x42}
	base := &state.State{Validators: state.ValidatorKeys{Current: vs}, Pending: make(state.PendingReports, p.CoreCount)}
	d := delta.New(base)

	bitfield := []byte{0}
	sig0 := crypto.Ed25519Sign(seeds[1], availableMessage(parentHash, bitfield))
	sig1 := crypto.Ed25519Sign(seeds[0], availableMessage(parentHash, bitfield))
	ex := state.AssurancesExtrinsic{
		{ParentHash: parentHash, ValidatorIndex: 1, Bitfield: bitfield, Signature: sig0},
		{ParentHash: parentHash, ValidatorIndex: 0, Bitfield: bitfield, Signature: sig1},
	}

	_, err := ProcessAssurancesExtrinsic(p, d, 0, parentHash, ex)
	require.ErrorIs(t, err, ErrAssurersNotSorted)
}

func TestProcessAssurancesExtrinsicRejectsBitsBeyondCoreCount(t *testing.T) {
	p := params.Tiny()
	vs, seeds := fixtureValidators(p)
	parentHash := crypto.Hash256{0x42}
	base := &state.State{Validators: state.ValidatorKeys{Current: vs}, Pending: make(state.PendingReports, p.CoreCount)}
	d := delta.New(base)

	// Bit 2 is past the last core (tiny has 2 cores); a correctly signed
	// assurance over it must still be rejected.
	bitfield := []byte{0b00100000}
	sig := crypto.Ed25519Sign(seeds[0], availableMessage(parentHash, bitfield))
	ex := state.AssurancesExtrinsic{{ParentHash: parentHash, ValidatorIndex: 0, Bitfield: bitfield, Signature: sig}}

	_, err := ProcessAssurancesExtrinsic(p, d, 0, parentHash, ex)
	require.ErrorIs(t, err, ErrBadBitfieldLength)
}

func TestProcessAssurancesExtrinsicRejectsDisengagedCore(t *testing.T) {
	p := params.Tiny()
	vs, seeds := fixtureValidators(p)
	parentHash := crypto.Hash256{0x42}

	// Core 1 carries no pending report; a correctly signed vouch for it is
	// rejected rather than silently tallied.
	base := &state.State{
		Validators: state.ValidatorKeys{Current: vs},
		Pending:    state.PendingReports{{Report: state.WorkReport{CoreIndex: 0}, Timeout: 100}, nil},
	}
	d := delta.New(base)

	bitfield := []byte{0b01000000}
	sig := crypto.Ed25519Sign(seeds[0], availableMessage(parentHash, bitfield))
	ex := state.AssurancesExtrinsic{{ParentHash: parentHash, ValidatorIndex: 0, Bitfield: bitfield, Signature: sig}}

	_, err := ProcessAssurancesExtrinsic(p, d, 0, parentHash, ex)
	require.ErrorIs(t, err, ErrCoreNotEngaged)
	require.NotNil(t, d.GetPending()[0])
}
