package state

import "github.com/jamzig/jamzig-sub009/crypto"

// HistoryEntry is one β record: a past block's header hash, post-state
// root, BEEFY MMR root, and the roots of its work-reports and accumulation
// output (spec.md §3/§4.7).
type HistoryEntry struct {
	HeaderHash      crypto.Hash256
	StateRoot       crypto.Hash256
	BeefyMMR        crypto.Hash256
	WorkReportsRoot crypto.Hash256
	AccumulateRoot  crypto.Hash256
}

// RecentHistory is β: a bounded, slot-monotone sequence of HistoryEntry,
// capped at Params.RecentBlocksDepth (spec.md §3/§4.7).
type RecentHistory []HistoryEntry

// Clone returns a deep copy of h.
func (h RecentHistory) Clone() RecentHistory {
	out := make(RecentHistory, len(h))
	copy(out, h)
	return out
}

// PatchLastStateRoot sets the state root of the last entry, used at the
// start of every transition (§4.9 step 2) because a block's own post-root
// is only learned one block later.
func (h RecentHistory) PatchLastStateRoot(root crypto.Hash256) {
	if len(h) == 0 {
		return
	}
	h[len(h)-1].StateRoot = root
}

// Append adds entry and truncates from the front to depth, matching §4.7's
// "β is truncated from the front to recent_blocks_depth".
func (h RecentHistory) Append(entry HistoryEntry, depth uint32) RecentHistory {
	out := append(h.Clone(), entry)
	if uint32(len(out)) > depth {
		out = out[uint32(len(out))-depth:]
	}
	return out
}
