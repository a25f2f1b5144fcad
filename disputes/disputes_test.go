package disputes

import (
	stded25519 "crypto/ed25519"
	"testing"

	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/delta"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/state"
	"github.com/stretchr/testify/require"
)

type testValidator struct {
	seed [32]byte
	pub  crypto.Ed25519PublicKey
}

func makeValidators(t *testing.T, n int) ([]testValidator, state.ValidatorSet) {
	t.Helper()
	vs := make([]testValidator, n)
	set := make(state.ValidatorSet, n)
	for i := 0; i < n; i++ {
		var seed [32]byte
		seed[0] = byte(i + 1)
		pub := stded25519.NewKeyFromSeed(seed[:]).Public().(stded25519.PublicKey)
		var pk crypto.Ed25519PublicKey
		copy(pk[:], pub)
		vs[i] = testValidator{seed: seed, pub: pk}
		set[i] = state.ValidatorData{Ed25519: pk}
	}
	return vs, set
}

func sign(v testValidator, msg []byte) crypto.Ed25519Signature {
	return crypto.Ed25519Sign(v.seed, msg)
}

func TestProcessDisputesExtrinsicResolvesBadVerdict(t *testing.T) {
	p := params.Tiny()
	vs, set := makeValidators(t, int(p.ValidatorsCount))
	base := &state.State{Validators: state.ValidatorKeys{Current: set, Previous: set}}
	d := delta.New(base)

	reportHash := crypto.Hash256{0xAA}
	judgements := make([]state.Judgement, p.ValidatorsSuperMajority)
	for i := range judgements {
		judgements[i] = state.Judgement{
			Vote:           false,
			ValidatorIndex: uint32(i),
			Signature:      sign(vs[i], judgementMessage(domainInvalid, reportHash)),
		}
	}
	ex := state.DisputesExtrinsic{
		Verdicts: []state.Verdict{{ReportHash: reportHash, EpochIndex: 0, Judgements: judgements}},
	}

	err := ProcessDisputesExtrinsic(p, d, 0, ex)
	require.NoError(t, err)

	g := d.GetDisputes()
	require.True(t, g.Bad.Contains(dummyKeyFromHash(reportHash)))
	require.False(t, g.Good.Contains(dummyKeyFromHash(reportHash)))
}

func TestProcessDisputesExtrinsicResolvesGoodVerdict(t *testing.T) {
	p := params.Tiny()
	vs, set := makeValidators(t, int(p.ValidatorsCount))
	base := &state.State{Validators: state.ValidatorKeys{Current: set, Previous: set}}
	d := delta.New(base)

	reportHash := crypto.Hash256{0xBB}
	judgements := make([]state.Judgement, p.ValidatorsSuperMajority)
	for i := range judgements {
		judgements[i] = state.Judgement{
			Vote:           true,
			ValidatorIndex: uint32(i),
			Signature:      sign(vs[i], judgementMessage(domainValid, reportHash)),
		}
	}
	ex := state.DisputesExtrinsic{
		Verdicts: []state.Verdict{{ReportHash: reportHash, EpochIndex: 0, Judgements: judgements}},
	}

	require.NoError(t, ProcessDisputesExtrinsic(p, d, 0, ex))
	g := d.GetDisputes()
	require.True(t, g.Good.Contains(dummyKeyFromHash(reportHash)))
}

func TestProcessDisputesExtrinsicRejectsAlreadyResolved(t *testing.T) {
	p := params.Tiny()
	_, set := makeValidators(t, int(p.ValidatorsCount))
	reportHash := crypto.Hash256{0xCC}
	base := &state.State{
		Validators: state.ValidatorKeys{Current: set, Previous: set},
		Disputes:   state.Disputes{Bad: state.EdKeySet{dummyKeyFromHash(reportHash)}},
	}
	d := delta.New(base)
	ex := state.DisputesExtrinsic{Verdicts: []state.Verdict{{ReportHash: reportHash, EpochIndex: 0}}}
	err := ProcessDisputesExtrinsic(p, d, 0, ex)
	require.ErrorIs(t, err, ErrVerdictAlreadyResolved)
}

func TestProcessDisputesExtrinsicRejectsBelowQuorum(t *testing.T) {
	p := params.Tiny()
	vs, set := makeValidators(t, int(p.ValidatorsCount))
	base := &state.State{Validators: state.ValidatorKeys{Current: set, Previous: set}}
	d := delta.New(base)

	reportHash := crypto.Hash256{0xDD}
	ex := state.DisputesExtrinsic{
		Verdicts: []state.Verdict{{
			ReportHash: reportHash,
			EpochIndex: 0,
			Judgements: []state.Judgement{{
				Vote:           true,
				ValidatorIndex: 0,
				Signature:      sign(vs[0], judgementMessage(domainValid, reportHash)),
			}},
		}},
	}
	err := ProcessDisputesExtrinsic(p, d, 0, ex)
	require.ErrorIs(t, err, ErrQuorumNotMet)
}

func TestProcessDisputesExtrinsicCulpritJoinsPunish(t *testing.T) {
	p := params.Tiny()
	vs, set := makeValidators(t, int(p.ValidatorsCount))
	base := &state.State{Validators: state.ValidatorKeys{Current: set, Previous: set}}
	d := delta.New(base)

	reportHash := crypto.Hash256{0xEE}
	judgements := make([]state.Judgement, p.ValidatorsSuperMajority)
	for i := range judgements {
		judgements[i] = state.Judgement{
			Vote:           false,
			ValidatorIndex: uint32(i),
			Signature:      sign(vs[i], judgementMessage(domainInvalid, reportHash)),
		}
	}
	culpritValidator := vs[p.ValidatorsSuperMajority]
	ex := state.DisputesExtrinsic{
		Verdicts: []state.Verdict{{ReportHash: reportHash, EpochIndex: 0, Judgements: judgements}},
		Culprits: []state.Culprit{{
			ReportHash: reportHash,
			Key:        culpritValidator.pub,
			Signature:  sign(culpritValidator, culpritMessage(reportHash)),
		}},
	}

	require.NoError(t, ProcessDisputesExtrinsic(p, d, 0, ex))
	g := d.GetDisputes()
	require.True(t, g.Punish.Contains(culpritValidator.pub))
}

func TestProcessDisputesExtrinsicEmptyAlwaysSucceeds(t *testing.T) {
	p := params.Tiny()
	base := &state.State{}
	d := delta.New(base)
	require.NoError(t, ProcessDisputesExtrinsic(p, d, 0, state.DisputesExtrinsic{}))
}

func TestProcessDisputesExtrinsicRejectsRepeatedJudgement(t *testing.T) {
	p := params.Tiny()
	vs, set := makeValidators(t, int(p.ValidatorsCount))
	base := &state.State{Validators: state.ValidatorKeys{Current: set, Previous: set}}
	d := delta.New(base)

	// One validator's judgement repeated to quorum length: each signature
	// verifies, but the verdict must still be rejected before counting.
	reportHash := crypto.Hash256{0xAB}
	judgements := make([]state.Judgement, p.ValidatorsSuperMajority)
	for i := range judgements {
		judgements[i] = state.Judgement{
			Vote:           false,
			ValidatorIndex: 0,
			Signature:      sign(vs[0], judgementMessage(domainInvalid, reportHash)),
		}
	}
	ex := state.DisputesExtrinsic{
		Verdicts: []state.Verdict{{ReportHash: reportHash, EpochIndex: 0, Judgements: judgements}},
	}

	err := ProcessDisputesExtrinsic(p, d, 0, ex)
	require.ErrorIs(t, err, ErrJudgementsNotSorted)
	require.False(t, d.GetDisputes().Bad.Contains(dummyKeyFromHash(reportHash)))
}
