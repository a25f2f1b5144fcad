package state

import (
	"sort"

	"github.com/jamzig/jamzig-sub009/crypto"
)

// TicketBody is the canonical ticket record once admitted into the
// accumulator: {id (32-byte VRF output), attempt (u8)} (spec.md §3).
type TicketBody struct {
	ID      [32]byte
	Attempt uint8
}

// TicketEnvelope is the extrinsic wire form of a ticket bid: {attempt,
// ring-VRF signature}. Its id is recovered by ring verification, not
// carried on the wire.
type TicketEnvelope struct {
	Attempt   uint8
	Signature crypto.RingSignature
}

// SealingKeys is γ_s: the length-EpochLength sequence that determines
// block-author eligibility within an epoch, either a ticket sequence or a
// fallback Bandersnatch-key sequence (spec.md §3). Exactly one of Tickets
// or FallbackKeys is non-nil at any time; IsFallback reports which.
type SealingKeys struct {
	Tickets       []TicketBody
	FallbackKeys  []crypto.BandersnatchPublicKey
}

// IsFallback reports whether the sequence is in fallback-key form.
func (s SealingKeys) IsFallback() bool { return s.FallbackKeys != nil }

// Clone returns a deep copy of s.
func (s SealingKeys) Clone() SealingKeys {
	out := SealingKeys{}
	if s.Tickets != nil {
		out.Tickets = append([]TicketBody(nil), s.Tickets...)
	}
	if s.FallbackKeys != nil {
		out.FallbackKeys = append([]crypto.BandersnatchPublicKey(nil), s.FallbackKeys...)
	}
	return out
}

// TicketAccumulator is γ_a: an ordered-by-id sequence of at most
// Params.EpochLength accepted tickets for the epoch in progress.
type TicketAccumulator []TicketBody

// Clone returns a deep copy.
func (t TicketAccumulator) Clone() TicketAccumulator {
	out := make(TicketAccumulator, len(t))
	copy(out, t)
	return out
}

// Len, Less, Swap implement sort.Interface, ordering by id ascending, the
// accumulator's invariant order (spec.md §2.2 testable property 3).
func (t TicketAccumulator) Len() int      { return len(t) }
func (t TicketAccumulator) Swap(i, j int) { t[i], t[j] = t[j], t[i] }
func (t TicketAccumulator) Less(i, j int) bool {
	return lessBytes(t[i].ID[:], t[j].ID[:])
}

var _ sort.Interface = TicketAccumulator(nil)

func lessBytes(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// Safrole is γ: Safrole's full mutable state (spec.md §3).
type Safrole struct {
	// NextEpochValidators is γ_k: the validator set staged to become κ at
	// the next epoch rotation.
	NextEpochValidators ValidatorSet
	// RingCommitment is γ_z: the 144-byte ring-VRF commitment to
	// NextEpochValidators' Bandersnatch keys.
	RingCommitment crypto.RingCommitment
	// SealingKeys is γ_s.
	SealingKeys SealingKeys
	// Tickets is γ_a.
	Tickets TicketAccumulator
}

// Clone returns a deep copy of g.
func (g Safrole) Clone() Safrole {
	return Safrole{
		NextEpochValidators: g.NextEpochValidators.Clone(),
		RingCommitment:      g.RingCommitment,
		SealingKeys:         g.SealingKeys.Clone(),
		Tickets:             g.Tickets.Clone(),
	}
}
