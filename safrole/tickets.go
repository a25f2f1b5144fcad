// Package safrole implements ticket admission, the per-block ticket
// accumulator, and epoch-boundary sealing-key rotation (spec.md §4.2).
package safrole

import (
	"sort"

	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/delta"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/state"
)

// ringSealInputDomain is the ring-VRF input domain tag for ticket seals
// (spec.md §4.2): "jam_ticket_seal" ‖ η′[2] ‖ [attempt].
const ringSealInputDomain = "jam_ticket_seal"

// ProcessTicketExtrinsic admits a block's ticket extrinsic into γ_a,
// applying every check in spec.md §4.2's process_ticket_extrinsic
// contract. slotInEpoch is the current block's slot offset within its
// epoch (post any epoch rotation already applied this block).
func ProcessTicketExtrinsic(p params.Params, d *delta.Delta, slotInEpoch uint32, extrinsic state.TicketExtrinsic) error {
	if len(extrinsic) == 0 {
		return nil
	}
	if slotInEpoch >= p.TicketSubmissionEndEpochSlot {
		return ErrUnexpectedTicket
	}
	if len(extrinsic) > int(p.EpochLength) {
		return ErrTooManyTicketsInExtrinsic
	}

	g := d.GetSafrole()
	entropy := d.GetEntropy()
	ringSize := uint32(len(g.NextEpochValidators))

	ids := make([]state.TicketBody, len(extrinsic))
	for i, env := range extrinsic {
		if env.Attempt >= p.MaxTicketEntriesPerValidator {
			return ErrBadTicketAttempt
		}
		input := ringSealInput(entropy[2], env.Attempt)
		vrfOutput, err := crypto.RingVerify(g.RingCommitment, ringSize, input, nil, env.Signature)
		if err != nil {
			return ErrBadTicketProof
		}
		ids[i] = state.TicketBody{ID: vrfOutput, Attempt: env.Attempt}

		if i > 0 {
			cmp := compareIDs(ids[i].ID, ids[i-1].ID)
			switch {
			case cmp == 0:
				return ErrDuplicateTicket
			case cmp < 0:
				return ErrBadTicketOrder
			}
		}
		if idx := searchTicketID(g.Tickets, ids[i].ID); idx >= 0 {
			return ErrDuplicateTicket
		}
	}

	merged := mergeTickets(g.Tickets, ids)
	if uint32(len(merged)) > p.EpochLength {
		merged = merged[:p.EpochLength]
	}
	sp := d.EnsureSafrole()
	sp.Tickets = merged
	return nil
}

func ringSealInput(epochEntropy crypto.Hash256, attempt uint8) []byte {
	out := make([]byte, 0, len(ringSealInputDomain)+32+1)
	out = append(out, []byte(ringSealInputDomain)...)
	out = append(out, epochEntropy[:]...)
	out = append(out, attempt)
	return out
}

func compareIDs(a, b [32]byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// searchTicketID binary-searches the (already-sorted-by-id) accumulator
// for id, returning its index or -1.
func searchTicketID(accumulator state.TicketAccumulator, id [32]byte) int {
	idx := sort.Search(len(accumulator), func(i int) bool {
		return compareIDs(accumulator[i].ID, id) >= 0
	})
	if idx < len(accumulator) && accumulator[idx].ID == id {
		return idx
	}
	return -1
}

// mergeTickets merge-sorts accepted (already strictly-increasing) ids into
// the existing accumulator, preserving overall ascending-by-id order.
func mergeTickets(existing state.TicketAccumulator, accepted []state.TicketBody) state.TicketAccumulator {
	out := make(state.TicketAccumulator, 0, len(existing)+len(accepted))
	i, j := 0, 0
	for i < len(existing) && j < len(accepted) {
		if compareIDs(existing[i].ID, accepted[j].ID) <= 0 {
			out = append(out, existing[i])
			i++
		} else {
			out = append(out, accepted[j])
			j++
		}
	}
	out = append(out, existing[i:]...)
	out = append(out, accepted[j:]...)
	return out
}
