package reports

import (
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/shuffle"
	"github.com/jamzig/jamzig-sub009/state"
)

// guarantorRing selects the validator ring a guarantee's rotation timeslot
// binds to (spec.md §4.4): κ for a timeslot in the current epoch, λ when
// the timeslot falls just before an epoch boundary the chain has since
// crossed — the same boundary test Safrole's rotation uses.
func guarantorRing(p params.Params, vk state.ValidatorKeys, guaranteeSlot, currentSlot uint32) state.ValidatorSet {
	if p.Epoch(guaranteeSlot) < p.Epoch(currentSlot) {
		return vk.Previous
	}
	return vk.Current
}

// rotationWindow returns the rotation-window index containing slot, per
// spec.md §4.4's "guarantor rotation window (validator_rotation_period)".
func rotationWindow(p params.Params, slot uint32) uint32 {
	return slot / p.ValidatorRotationPeriod
}

// AssignmentAt derives the per-validator core assignment for the rotation
// window containing slot. blockbuilder uses it to pick legitimate
// guarantors when synthesizing traces; admission recomputes it
// independently.
func AssignmentAt(p params.Params, entropy crypto.Hash256, slot uint32) []uint32 {
	return coreAssignment(p, entropy, rotationWindow(p, slot))
}

// GuaranteeMessage returns the exact bytes a guarantor signs over a report
// hash, shared with blockbuilder's trace synthesis.
func GuaranteeMessage(reportHash crypto.Hash256) []byte {
	return guaranteeMessage(reportHash)
}

// coreAssignment derives, for the given rotation window, the core each
// validator index is assigned to guarantee reports for. Validators are
// shuffled once per window (entropy combined with the window index so each
// window gets an independent permutation) and then sliced into CoreCount
// contiguous groups. The shuffle draws its indices with the same
// entropy-index scheme Safrole's fallback key derivation uses (spec.md
// §4.2, §4.4).
func coreAssignment(p params.Params, entropy crypto.Hash256, window uint32) []uint32 {
	seed := crypto.Blake2b256(entropy[:], u32le(window))
	indices := make([]uint32, p.ValidatorsCount)
	for i := range indices {
		indices[i] = uint32(i)
	}
	perm := shuffle.FisherYates(indices, seed)

	perCore := p.ValidatorsCount / p.CoreCount
	if perCore == 0 {
		perCore = 1
	}
	assignment := make([]uint32, p.ValidatorsCount)
	for pos, validatorIdx := range perm {
		core := uint32(pos) / perCore
		if core >= p.CoreCount {
			core = p.CoreCount - 1
		}
		assignment[validatorIdx] = core
	}
	return assignment
}

func u32le(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
