package safrole

import (
	"testing"

	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/delta"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/state"
	"github.com/stretchr/testify/require"
)

func tinyValidators(t *testing.T, n int) (state.ValidatorSet, []crypto.BandersnatchSecretKey) {
	t.Helper()
	vs := make(state.ValidatorSet, n)
	sks := make([]crypto.BandersnatchSecretKey, n)
	for i := 0; i < n; i++ {
		var seed [32]byte
		seed[0] = byte(i + 1)
		sk := crypto.NewBandersnatchSecretKey(seed)
		sks[i] = sk
		vs[i] = state.ValidatorData{Bandersnatch: sk.Public()}
	}
	return vs, sks
}

func TestProcessTicketExtrinsicAcceptsValidTickets(t *testing.T) {
	p := params.Tiny()
	validators, sks := tinyValidators(t, int(p.ValidatorsCount))
	commitment, err := crypto.RingCommit(validators.BandersnatchKeys())
	require.NoError(t, err)

	base := &state.State{
		Safrole: state.Safrole{
			NextEpochValidators: validators,
			RingCommitment:      commitment,
		},
	}
	d := delta.New(base)

	prover, err := crypto.NewRingProver(sks[0], validators.BandersnatchKeys(), 0)
	require.NoError(t, err)
	input := ringSealInput(base.Entropy[2], 0)
	sig, _, err := prover.Sign(input, nil)
	require.NoError(t, err)

	err = ProcessTicketExtrinsic(p, d, 0, state.TicketExtrinsic{{Attempt: 0, Signature: sig}})
	require.NoError(t, err)
	require.Len(t, d.GetSafrole().Tickets, 1)
}

func TestProcessTicketExtrinsicRejectsAfterDeadline(t *testing.T) {
	p := params.Tiny()
	validators, _ := tinyValidators(t, int(p.ValidatorsCount))
	commitment, err := crypto.RingCommit(validators.BandersnatchKeys())
	require.NoError(t, err)
	base := &state.State{Safrole: state.Safrole{NextEpochValidators: validators, RingCommitment: commitment}}
	d := delta.New(base)

	err = ProcessTicketExtrinsic(p, d, p.TicketSubmissionEndEpochSlot, state.TicketExtrinsic{{Attempt: 0}})
	require.ErrorIs(t, err, ErrUnexpectedTicket)
}

func TestProcessTicketExtrinsicEmptyAlwaysSucceeds(t *testing.T) {
	p := params.Tiny()
	base := &state.State{}
	d := delta.New(base)
	require.NoError(t, ProcessTicketExtrinsic(p, d, p.TicketSubmissionEndEpochSlot, nil))
}

func TestRotateEpochUsesOutsideInWhenAccumulatorFull(t *testing.T) {
	p := params.Tiny()
	validators, _ := tinyValidators(t, int(p.ValidatorsCount))
	commitment, err := crypto.RingCommit(validators.BandersnatchKeys())
	require.NoError(t, err)

	tickets := make(state.TicketAccumulator, p.EpochLength)
	for i := range tickets {
		tickets[i] = state.TicketBody{ID: [32]byte{byte(i)}, Attempt: 0}
	}

	base := &state.State{
		Slot: state.TimeSlot(p.EpochLength - 1),
		Validators: state.ValidatorKeys{
			Current:  validators,
			Previous: validators,
			Next:     validators,
		},
		Safrole: state.Safrole{
			NextEpochValidators: validators,
			RingCommitment:      commitment,
			Tickets:             tickets,
		},
	}
	d := delta.New(base)
	err = RotateEpoch(p, d, p.TicketSubmissionEndEpochSlot, p.EpochLength)
	require.NoError(t, err)

	g := d.GetSafrole()
	require.False(t, g.SealingKeys.IsFallback())
	require.Len(t, g.SealingKeys.Tickets, int(p.EpochLength))
	require.Empty(t, g.Tickets)
}

func TestRotateEpochFallsBackWithoutFullAccumulator(t *testing.T) {
	p := params.Tiny()
	validators, _ := tinyValidators(t, int(p.ValidatorsCount))
	commitment, err := crypto.RingCommit(validators.BandersnatchKeys())
	require.NoError(t, err)

	base := &state.State{
		Validators: state.ValidatorKeys{Current: validators, Previous: validators, Next: validators},
		Safrole:    state.Safrole{NextEpochValidators: validators, RingCommitment: commitment},
	}
	d := delta.New(base)
	err = RotateEpoch(p, d, p.EpochLength-1, p.EpochLength)
	require.NoError(t, err)

	g := d.GetSafrole()
	require.True(t, g.SealingKeys.IsFallback())
	require.Len(t, g.SealingKeys.FallbackKeys, int(p.EpochLength))
}

func TestProcessTicketExtrinsicRejectsDuplicateTicket(t *testing.T) {
	p := params.Tiny()
	validators, sks := tinyValidators(t, int(p.ValidatorsCount))
	commitment, err := crypto.RingCommit(validators.BandersnatchKeys())
	require.NoError(t, err)
	base := &state.State{Safrole: state.Safrole{NextEpochValidators: validators, RingCommitment: commitment}}
	d := delta.New(base)

	prover, err := crypto.NewRingProver(sks[1], validators.BandersnatchKeys(), 1)
	require.NoError(t, err)
	sig, _, err := prover.Sign(ringSealInput(base.Entropy[2], 1), nil)
	require.NoError(t, err)

	// The same envelope twice derives the same id: rejected, accumulator
	// left as it was before the extrinsic.
	err = ProcessTicketExtrinsic(p, d, 0, state.TicketExtrinsic{
		{Attempt: 1, Signature: sig},
		{Attempt: 1, Signature: sig},
	})
	require.ErrorIs(t, err, ErrDuplicateTicket)
	require.Empty(t, d.GetSafrole().Tickets)
}

func TestProcessTicketExtrinsicRejectsDescendingIDs(t *testing.T) {
	p := params.Tiny()
	validators, sks := tinyValidators(t, int(p.ValidatorsCount))
	commitment, err := crypto.RingCommit(validators.BandersnatchKeys())
	require.NoError(t, err)
	base := &state.State{Safrole: state.Safrole{NextEpochValidators: validators, RingCommitment: commitment}}

	type env struct {
		id  [32]byte
		te  state.TicketEnvelope
	}
	var envs []env
	for v := 0; v < 2; v++ {
		prover, err := crypto.NewRingProver(sks[v], validators.BandersnatchKeys(), v)
		require.NoError(t, err)
		sig, id, err := prover.Sign(ringSealInput(base.Entropy[2], 0), nil)
		require.NoError(t, err)
		envs = append(envs, env{id: id, te: state.TicketEnvelope{Attempt: 0, Signature: sig}})
	}
	if compareIDs(envs[0].id, envs[1].id) < 0 {
		envs[0], envs[1] = envs[1], envs[0]
	}

	d := delta.New(base)
	err = ProcessTicketExtrinsic(p, d, 0, state.TicketExtrinsic{envs[0].te, envs[1].te})
	require.ErrorIs(t, err, ErrBadTicketOrder)
}

func TestProcessTicketExtrinsicRejectsBadAttempt(t *testing.T) {
	p := params.Tiny()
	validators, _ := tinyValidators(t, int(p.ValidatorsCount))
	commitment, err := crypto.RingCommit(validators.BandersnatchKeys())
	require.NoError(t, err)
	base := &state.State{Safrole: state.Safrole{NextEpochValidators: validators, RingCommitment: commitment}}
	d := delta.New(base)

	err = ProcessTicketExtrinsic(p, d, 0, state.TicketExtrinsic{{Attempt: p.MaxTicketEntriesPerValidator}})
	require.ErrorIs(t, err, ErrBadTicketAttempt)
}
