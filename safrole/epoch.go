package safrole

import (
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/delta"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/shuffle"
	"github.com/jamzig/jamzig-sub009/state"
)

// RotateEpoch applies the epoch-boundary transition of spec.md §4.2:
// validator-key lifecycle advance, offender zeroing, ring-commitment
// refresh, and sealing-key sequence selection (outside-in ticket order
// when the epoch had a full, on-time ticket accumulator; entropy-derived
// fallback keys otherwise). Callers invoke this only when
// params.Params.IsEpochBoundary(priorSlot, newSlot) holds.
func RotateEpoch(p params.Params, d *delta.Delta, priorSlot, newSlot uint32) error {
	vk := d.GetValidators()
	g := d.GetSafrole()
	ps := d.GetDisputes()

	nextKeys := zeroOffenders(vk.Next, ps.Punish)
	ringCommitment, err := crypto.RingCommit(nextKeys.BandersnatchKeys())
	if err != nil {
		return err
	}

	vkPrime := d.EnsureValidators()
	vkPrime.Previous = vk.Current.Clone()
	vkPrime.Current = g.NextEpochValidators.Clone()

	entropy := d.GetEntropy()
	priorSlotInEpoch := p.SlotInEpoch(priorSlot)
	consecutiveEpochs := p.Epoch(newSlot) == p.Epoch(priorSlot)+1
	ticketsFull := uint32(len(g.Tickets)) == p.EpochLength
	useTickets := priorSlotInEpoch >= p.TicketSubmissionEndEpochSlot && ticketsFull && consecutiveEpochs

	gp := d.EnsureSafrole()
	gp.NextEpochValidators = nextKeys
	gp.RingCommitment = ringCommitment
	if useTickets {
		gp.SealingKeys = state.SealingKeys{Tickets: shuffle.OutsideIn(g.Tickets)}
	} else {
		gp.SealingKeys = state.SealingKeys{FallbackKeys: fallbackKeys(entropy[2], vkPrime.Current, p.EpochLength)}
	}
	gp.Tickets = state.TicketAccumulator{}
	return nil
}

// zeroOffenders replaces every validator in ring whose Ed25519 key is in
// offenders with a zero ValidatorData, per spec.md §4.2's "γ′_k ←
// zeroed(ι over ψ.offenders)".
func zeroOffenders(ring state.ValidatorSet, offenders state.EdKeySet) state.ValidatorSet {
	out := make(state.ValidatorSet, len(ring))
	for i, v := range ring {
		if offenders.Contains(v.Ed25519) {
			out[i] = state.ValidatorData{}
			continue
		}
		out[i] = v
	}
	return out
}

// fallbackKeys derives the length-epochLength fallback sealing-key
// sequence from entropy, per spec.md §4.2: for i in [0, epochLength):
// idx = u32_le(Blake2b256(entropy ‖ u32_le(i))[0..4]) mod validatorsCount;
// result[i] = validators[idx].bandersnatch.
func fallbackKeys(entropy crypto.Hash256, validators state.ValidatorSet, epochLength uint32) []crypto.BandersnatchPublicKey {
	indices := shuffle.EntropySelect(entropy, epochLength, uint32(len(validators)))
	out := make([]crypto.BandersnatchPublicKey, epochLength)
	for i, idx := range indices {
		out[i] = validators[idx].Bandersnatch
	}
	return out
}
