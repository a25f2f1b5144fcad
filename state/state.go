// Package state defines the typed, versioned JAM state entities (spec.md
// §3): time, entropy, validator sets, Safrole's γ, Disputes' ψ, pending
// reports ρ, recent history β, services δ, authorization α/φ, and
// validator/core/service statistics π. Every entity has a Clone method that
// returns a deep copy, and the package provides the encoders package merkle
// consumes to compute the post-state root.
package state

import "github.com/jamzig/jamzig-sub009/crypto"

// State is the full JAM state snapshot (spec.md §3): the pre-state for a
// transition is borrowed immutably in its entirety; package delta stages
// mutations against it field by field.
type State struct {
	Slot       TimeSlot        // τ
	Entropy    Entropy         // η
	Validators ValidatorKeys   // κ, λ, ι
	Safrole    Safrole         // γ
	Disputes   Disputes        // ψ
	Pending    PendingReports  // ρ
	History    RecentHistory   // β
	Services   Services        // δ
	Auth       AuthorizationState // α, φ
	Statistics Statistics      // π
}

// Clone returns a deep copy of s, independent of every backing array/map.
func (s *State) Clone() *State {
	return &State{
		Slot:       s.Slot,
		Entropy:    s.Entropy.Clone(),
		Validators: s.Validators.Clone(),
		Safrole:    s.Safrole.Clone(),
		Disputes:   s.Disputes.Clone(),
		Pending:    s.Pending.Clone(),
		History:    s.History.Clone(),
		Services:   s.Services.Clone(),
		Auth:       s.Auth.Clone(),
		Statistics: s.Statistics.Clone(),
	}
}

// NewGenesis builds a deterministic, internally-consistent genesis state
// for the given validator set and parameter set, used as the conformance
// harness's SetState seed and by blockbuilder to synthesize traces.
func NewGenesis(validators ValidatorSet, coreCount, validatorsCount uint32) (*State, error) {
	commitment, err := crypto.RingCommit(validators.BandersnatchKeys())
	if err != nil {
		return nil, err
	}
	return &State{
		Slot:    0,
		Entropy: Entropy{},
		Validators: ValidatorKeys{
			Current:  validators.Clone(),
			Previous: validators.Clone(),
			Next:     validators.Clone(),
		},
		Safrole: Safrole{
			NextEpochValidators: validators.Clone(),
			RingCommitment:      commitment,
			SealingKeys:         SealingKeys{FallbackKeys: make([]crypto.BandersnatchPublicKey, 0)},
			Tickets:             TicketAccumulator{},
		},
		Disputes: Disputes{},
		Pending:  make(PendingReports, coreCount),
		History:  RecentHistory{},
		Services: make(Services),
		Auth: AuthorizationState{
			Pools:  make([]AuthPool, coreCount),
			Queues: make([]AuthQueue, coreCount),
		},
		Statistics: NewStatistics(validatorsCount, coreCount),
	}, nil
}
