package state

import "github.com/jamzig/jamzig-sub009/crypto"

// AuthPool is α[core]: a FIFO-bounded pool of authorizer hashes a core may
// currently accept guarantees against (spec.md §3), capped at
// Params.MaxAuthorizationsPoolItems.
type AuthPool []crypto.Hash256

// Clone returns a deep copy.
func (p AuthPool) Clone() AuthPool {
	out := make(AuthPool, len(p))
	copy(out, p)
	return out
}

// Contains reports whether hash is present in the pool.
func (p AuthPool) Contains(hash crypto.Hash256) bool {
	for _, h := range p {
		if h == hash {
			return true
		}
	}
	return false
}

// PushFront inserts hash at the front and truncates from the back to
// maxItems, the FIFO eviction policy for α (spec.md §3).
func (p AuthPool) PushFront(hash crypto.Hash256, maxItems uint32) AuthPool {
	out := make(AuthPool, 0, maxItems)
	out = append(out, hash)
	out = append(out, p...)
	if uint32(len(out)) > maxItems {
		out = out[:maxItems]
	}
	return out
}

// AuthQueue is φ[core]: a per-core queue of authorizer hashes waiting to
// enter the pool, capped at Params.MaxAuthorizationsQueueItems.
type AuthQueue []crypto.Hash256

// Clone returns a deep copy.
func (q AuthQueue) Clone() AuthQueue {
	out := make(AuthQueue, len(q))
	copy(out, q)
	return out
}

// AuthorizationState bundles α and φ across all cores.
type AuthorizationState struct {
	Pools  []AuthPool  // α, indexed by core
	Queues []AuthQueue // φ, indexed by core
}

// Clone returns a deep copy of a.
func (a AuthorizationState) Clone() AuthorizationState {
	out := AuthorizationState{
		Pools:  make([]AuthPool, len(a.Pools)),
		Queues: make([]AuthQueue, len(a.Queues)),
	}
	for i, p := range a.Pools {
		out.Pools[i] = p.Clone()
	}
	for i, q := range a.Queues {
		out.Queues[i] = q.Clone()
	}
	return out
}
