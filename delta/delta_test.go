package delta

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/state"
)

func baseState() *state.State {
	return &state.State{
		Slot:    7,
		Entropy: state.Entropy{crypto.Blake2b256([]byte("eta0"))},
		Safrole: state.Safrole{
			Tickets: state.TicketAccumulator{{ID: [32]byte{1}}},
		},
		Pending:  make(state.PendingReports, 2),
		History:  state.RecentHistory{{HeaderHash: crypto.Hash256{0xAA}}},
		Services: make(state.Services),
		Auth: state.AuthorizationState{
			Pools:  make([]state.AuthPool, 2),
			Queues: make([]state.AuthQueue, 2),
		},
		Statistics: state.NewStatistics(6, 2),
	}
}

func TestGetPrefersPrimeOverBase(t *testing.T) {
	base := baseState()
	d := New(base)

	require.Equal(t, state.TimeSlot(7), d.GetSlot())
	*d.EnsureSlot() = 8
	require.Equal(t, state.TimeSlot(8), d.GetSlot())
	require.Equal(t, state.TimeSlot(7), base.Slot)
}

func TestEnsureClonesBaseOnce(t *testing.T) {
	base := baseState()
	d := New(base)

	g := d.EnsureSafrole()
	g.Tickets = append(g.Tickets, state.TicketBody{ID: [32]byte{2}})
	// Same prime on the second Ensure, not a fresh clone.
	require.Len(t, d.EnsureSafrole().Tickets, 2)
	// Base remains at its original length.
	require.Len(t, base.Safrole.Tickets, 1)
}

func TestMergeTakesPrimesAndKeepsBaseIntact(t *testing.T) {
	base := baseState()
	d := New(base)

	*d.EnsureSlot() = 9
	hist := d.EnsureHistory()
	*hist = hist.Append(state.HistoryEntry{HeaderHash: crypto.Hash256{0xBB}}, 8)

	post := d.Merge()
	require.Equal(t, state.TimeSlot(9), post.Slot)
	require.Len(t, post.History, 2)

	// Unstaged fields come through as exact copies of base.
	require.Equal(t, base.Entropy, post.Entropy)
	require.Len(t, post.Safrole.Tickets, 1)

	// Base is untouched in every field.
	require.Equal(t, state.TimeSlot(7), base.Slot)
	require.Len(t, base.History, 1)
}

func TestDiscardedDeltaLeavesBaseUsable(t *testing.T) {
	base := baseState()
	d := New(base)
	*d.EnsureSlot() = 100
	d.EnsureServices()

	// Simulate a failed transition: drop the delta without merging.
	d = nil
	_ = d

	require.Equal(t, state.TimeSlot(7), base.Slot)
	require.Empty(t, base.Services)
}

func TestMergeResultIsIndependentOfBase(t *testing.T) {
	base := baseState()
	d := New(base)
	post := d.Merge()

	post.History[0].HeaderHash = crypto.Hash256{0xCC}
	require.Equal(t, crypto.Hash256{0xAA}, base.History[0].HeaderHash)
}
