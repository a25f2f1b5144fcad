package state

import (
	"github.com/holiman/uint256"
	"github.com/jamzig/jamzig-sub009/crypto"
)

// ServiceID names a service account (spec.md §3 δ mapping key).
type ServiceID uint32

// PreimageStatus records the lifecycle of one preimage lookup entry: either
// unrequested (absent), requested (empty slot slice), or available at one
// or more historical slots (a service may re-request the same hash across
// epochs, hence a slice rather than a single slot).
type PreimageStatus struct {
	Slots []uint32
}

// Clone returns a deep copy.
func (s PreimageStatus) Clone() PreimageStatus {
	return PreimageStatus{Slots: append([]uint32(nil), s.Slots...)}
}

// ServiceAccount is one entry of δ (spec.md §3). Balances and gas minimums
// use uint256.Int rather than plain uint64: service balances accumulate
// transfers without a protocol ceiling, and the wide representation keeps
// the arithmetic overflow-safe without ad hoc saturation checks.
type ServiceAccount struct {
	Balance            *uint256.Int
	MinGasAccumulate   *uint256.Int
	MinGasOnTransfer   *uint256.Int
	CodeHash           crypto.Hash256
	Storage            map[crypto.Hash256][]byte
	PreimageLookups    map[crypto.Hash256]PreimageStatus
	LastAccumulationSlot uint32
	CreationSlot       uint32
}

// NewServiceAccount returns a zero-valued account with initialized maps,
// ready for Accumulation to populate.
func NewServiceAccount() *ServiceAccount {
	return &ServiceAccount{
		Balance:          uint256.NewInt(0),
		MinGasAccumulate: uint256.NewInt(0),
		MinGasOnTransfer: uint256.NewInt(0),
		Storage:          make(map[crypto.Hash256][]byte),
		PreimageLookups:  make(map[crypto.Hash256]PreimageStatus),
	}
}

// Clone returns a deep copy of a, including its storage and preimage maps.
func (a *ServiceAccount) Clone() *ServiceAccount {
	if a == nil {
		return nil
	}
	out := &ServiceAccount{
		Balance:              new(uint256.Int).Set(a.Balance),
		MinGasAccumulate:     new(uint256.Int).Set(a.MinGasAccumulate),
		MinGasOnTransfer:     new(uint256.Int).Set(a.MinGasOnTransfer),
		CodeHash:             a.CodeHash,
		LastAccumulationSlot: a.LastAccumulationSlot,
		CreationSlot:         a.CreationSlot,
		Storage:              make(map[crypto.Hash256][]byte, len(a.Storage)),
		PreimageLookups:      make(map[crypto.Hash256]PreimageStatus, len(a.PreimageLookups)),
	}
	for k, v := range a.Storage {
		out.Storage[k] = append([]byte(nil), v...)
	}
	for k, v := range a.PreimageLookups {
		out.PreimageLookups[k] = v.Clone()
	}
	return out
}

// Services is δ: the service-account table. A plain Go map is used at the
// state-model layer; the state-dictionary encoder (merkle/state_dictionary.go) is the
// single place key ordering is made deterministic, so map iteration order
// never leaks into consensus-relevant output (spec.md §1 non-determinism
// ban).
type Services map[ServiceID]*ServiceAccount

// Clone returns a deep copy of d.
func (d Services) Clone() Services {
	out := make(Services, len(d))
	for id, acct := range d {
		out[id] = acct.Clone()
	}
	return out
}

// SortedIDs returns the service IDs in ascending order, the only order in
// which δ may ever be iterated by consensus-relevant code (e.g.
// Accumulation's per-service accumulate_root Merkleisation, §4.6).
func (d Services) SortedIDs() []ServiceID {
	ids := make([]ServiceID, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sortServiceIDs(ids)
	return ids
}

func sortServiceIDs(ids []ServiceID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
