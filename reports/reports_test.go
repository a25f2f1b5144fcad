package reports

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

type reportFixture struct {
	p          params.Params
	validators state.ValidatorSet
	seeds      [][32]byte
	base       *state.State
}

func newFixture(t *testing.T) *reportFixture {
	t.Helper()
	p := params.Tiny()
	vs := make(state.ValidatorSet, p.ValidatorsCount)
	seeds := make([][32]byte, p.ValidatorsCount)
	for i := range vs {
		var seed [32]byte
		seed[0] = byte(i + 1)
		seeds[i] = seed
		vs[i] = state.ValidatorData{Ed25519: ed25519PublicFromSeed(seed)}
	}

	authorizerHash := crypto.Hash256{0x01}
	anchorHash := crypto.Hash256{0x02}
	anchorStateRoot := crypto.Hash256{0x03}

	base := &state.State{
		Slot:       0,
		Validators: state.ValidatorKeys{Current: vs, Previous: vs},
		History:    state.RecentHistory{{HeaderHash: anchorHash, StateRoot: anchorStateRoot}},
		Auth: state.AuthorizationState{
			Pools: []state.AuthPool{{authorizerHash}, {authorizerHash}},
		},
		Pending: make(state.PendingReports, p.CoreCount),
	}
	return &reportFixture{p: p, validators: vs, seeds: seeds, base: base}
}

func (f *reportFixture) report(core uint16) state.WorkReport {
	return state.WorkReport{
		PackageSpec: state.PackageSpec{Hash: crypto.Hash256{byte(core + 1), 0xFF}},
		Context: state.Context{
			AnchorHeaderHash: crypto.Hash256{0x02},
			AnchorStateRoot:  crypto.Hash256{0x03},
			AnchorTimeslot:   0,
		},
		CoreIndex:      core,
		AuthorizerHash: crypto.Hash256{0x01},
	}
}

func (f *reportFixture) guaranteeFor(t *testing.T, currentSlot uint32, core uint16) state.Guarantee {
	t.Helper()
	r := f.report(core)
	reportHash := state.HashWorkReport(r)
	window := rotationWindow(f.p, currentSlot)
	assignment := coreAssignment(f.p, f.base.Entropy[2], window)

	var sigs []state.GuaranteeSignature
	for vi, c := range assignment {
		if c == uint32(core) {
			sig := crypto.Ed25519Sign(f.seeds[vi], guaranteeMessage(reportHash))
			sigs = append(sigs, state.GuaranteeSignature{ValidatorIndex: uint32(vi), Signature: sig})
			if uint32(len(sigs)) == f.p.MaxGuarantorsPerReport {
				break
			}
		}
	}
	require.GreaterOrEqual(t, len(sigs), int(f.p.MinGuarantorsPerReport), "fixture must produce enough assigned guarantors")
	return state.Guarantee{Report: r, Timeslot: currentSlot, Signatures: sigs}
}

func TestProcessGuaranteesExtrinsicAdmitsValidReport(t *testing.T) {
	f := newFixture(t)
	d := delta.New(f.base)
	g := f.guaranteeFor(t, 0, 0)

	reporters, err := ProcessGuaranteesExtrinsic(f.p, d, 0, state.GuaranteesExtrinsic{g})
	require.NoError(t, err)
	require.Len(t, reporters, len(g.Signatures))

	pending := d.GetPending()
	require.NotNil(t, pending[0])
	require.Equal(t, uint32(f.p.ReportTimeoutSlots), pending[0].Timeout)
}

func TestProcessGuaranteesExtrinsicRejectsUnknownAnchor(t *testing.T) {
	f := newFixture(t)
	d := delta.New(f.base)
	g := f.guaranteeFor(t, 0, 0)
	g.Report.Context.AnchorHeaderHash = crypto.Hash256{0x99}

	_, err := ProcessGuaranteesExtrinsic(f.p, d, 0, state.GuaranteesExtrinsic{g})
	require.ErrorIs(t, err, ErrUnknownAnchor)
}

func TestProcessGuaranteesExtrinsicRejectsDuplicateCore(t *testing.T) {
	f := newFixture(t)
	d := delta.New(f.base)
	g1 := f.guaranteeFor(t, 0, 0)
	g2 := f.guaranteeFor(t, 0, 0)

	_, err := ProcessGuaranteesExtrinsic(f.p, d, 0, state.GuaranteesExtrinsic{g1, g2})
	require.ErrorIs(t, err, ErrDuplicateCoreInBlock)
}

func TestProcessGuaranteesExtrinsicRejectsUnknownAuthorizer(t *testing.T) {
	f := newFixture(t)
	d := delta.New(f.base)
	g := f.guaranteeFor(t, 0, 0)
	g.Report.AuthorizerHash = crypto.Hash256{0xDE, 0xAD}

	_, err := ProcessGuaranteesExtrinsic(f.p, d, 0, state.GuaranteesExtrinsic{g})
	require.ErrorIs(t, err, ErrAuthorizerNotInPool)
}

func TestProcessGuaranteesExtrinsicEmptyAlwaysSucceeds(t *testing.T) {
	f := newFixture(t)
	d := delta.New(f.base)
	reporters, err := ProcessGuaranteesExtrinsic(f.p, d, 0, nil)
	require.NoError(t, err)
	require.Nil(t, reporters)
}

func TestProcessGuaranteesExtrinsicUsesPreviousRingNearBoundary(t *testing.T) {
	p := params.Tiny()

	// Two distinct validator sets: λ signed the guarantee just before the
	// epoch boundary, κ took over at the boundary the chain has crossed.
	prevSeeds := make([][32]byte, p.ValidatorsCount)
	prev := make(state.ValidatorSet, p.ValidatorsCount)
	cur := make(state.ValidatorSet, p.ValidatorsCount)
	for i := range prev {
		var seed [32]byte
		seed[0] = byte(i + 1)
		prevSeeds[i] = seed
		prev[i] = state.ValidatorData{Ed25519: ed25519PublicFromSeed(seed)}
		var newSeed [32]byte
		newSeed[0] = byte(i + 101)
		cur[i] = state.ValidatorData{Ed25519: ed25519PublicFromSeed(newSeed)}
	}

	authorizerHash := crypto.Hash256{0x01}
	anchorHash := crypto.Hash256{0x02}
	anchorStateRoot := crypto.Hash256{0x03}
	base := &state.State{
		Slot:       12,
		Validators: state.ValidatorKeys{Current: cur, Previous: prev},
		History:    state.RecentHistory{{HeaderHash: anchorHash, StateRoot: anchorStateRoot}},
		Auth: state.AuthorizationState{
			Pools: []state.AuthPool{{authorizerHash}, {authorizerHash}},
		},
		Pending: make(state.PendingReports, p.CoreCount),
	}
	d := delta.New(base)

	const currentSlot = 13 // epoch 1
	const guaranteeSlot = 11 // epoch 0, within the rotation window

	r := state.WorkReport{
		PackageSpec: state.PackageSpec{Hash: crypto.Hash256{0x77}},
		Context: state.Context{
			AnchorHeaderHash: anchorHash,
			AnchorStateRoot:  anchorStateRoot,
			AnchorTimeslot:   11,
		},
		CoreIndex:      0,
		AuthorizerHash: authorizerHash,
	}
	reportHash := state.HashWorkReport(r)
	assignment := coreAssignment(p, base.Entropy[2], rotationWindow(p, guaranteeSlot))

	var sigs []state.GuaranteeSignature
	for vi, c := range assignment {
		if c != 0 {
			continue
		}
		sigs = append(sigs, state.GuaranteeSignature{
			ValidatorIndex: uint32(vi),
			Signature:      crypto.Ed25519Sign(prevSeeds[vi], guaranteeMessage(reportHash)),
		})
		if uint32(len(sigs)) == p.MaxGuarantorsPerReport {
			break
		}
	}
	require.GreaterOrEqual(t, len(sigs), int(p.MinGuarantorsPerReport))

	g := state.Guarantee{Report: r, Timeslot: guaranteeSlot, Signatures: sigs}
	reporters, err := ProcessGuaranteesExtrinsic(p, d, currentSlot, state.GuaranteesExtrinsic{g})
	require.NoError(t, err)
	require.Len(t, reporters, len(sigs))
	require.NotNil(t, d.GetPending()[0])

	// The same signatures fail against κ: a κ-only implementation would
	// wrongly reject this guarantee.
	d2 := delta.New(base)
	g2 := g
	g2.Timeslot = currentSlot
	_, err = ProcessGuaranteesExtrinsic(p, d2, currentSlot, state.GuaranteesExtrinsic{g2})
	require.Error(t, err)
}

func TestProcessGuaranteesExtrinsicRejectsFutureRotationTimeslot(t *testing.T) {
	f := newFixture(t)
	d := delta.New(f.base)

	g := f.guaranteeFor(t, 3, 0)
	g.Timeslot = 5 // ahead of the block being imported
	_, err := ProcessGuaranteesExtrinsic(f.p, d, 3, state.GuaranteesExtrinsic{g})
	require.ErrorIs(t, err, ErrContextOutOfWindow)
}
