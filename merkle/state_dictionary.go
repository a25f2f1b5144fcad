package merkle

import (
	"encoding/binary"
	"sort"

	"github.com/jamzig/jamzig-sub009/codec"
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/state"
)

// ServiceOutputRoot hashes a service account's state-dictionary encoding,
// the per-service output root Accumulation Merkleises into accumulate_root
// (spec.md §4.6).
func ServiceOutputRoot(acct *state.ServiceAccount) crypto.Hash256 {
	return crypto.Blake2b256(encodeServiceAccount(acct))
}

// State-dictionary key tags. Each top-level state field (and each indexed
// sub-entry: one per core, one per service) gets its own 31-byte key, tag
// in byte 0 and an index (where applicable) in bytes 1-4 big-endian,
// leaving the remainder zero. This is a concrete realization of the
// "separate spec consumed unchanged" referenced in spec.md §6: any
// conformant state-dictionary scheme must reduce to the same values keyed
// consistently, which is all Root() depends on.
const (
	tagSlot       = 0
	tagEntropy    = 1
	tagValCurrent = 2
	tagValPrev    = 3
	tagValNext    = 4
	tagSafrole    = 5
	tagDisputes   = 6
	tagPending    = 7 // + core index
	tagHistory    = 8
	tagService    = 9 // + service id
	tagAuthPool   = 10 // + core index
	tagAuthQueue  = 11 // + core index
	tagStatsCur   = 12 // + validator index
	tagStatsPrev  = 13 // + validator index
	tagStatsCore  = 14 // + core index
	tagStatsSvc   = 15 // + service id
)

func simpleKey(tag byte) Key {
	var k Key
	k[0] = tag
	return k
}

func indexedKey(tag byte, index uint32) Key {
	var k Key
	k[0] = tag
	binary.BigEndian.PutUint32(k[1:5], index)
	return k
}

// EncodeState produces the full state-dictionary encoding of s, the input
// to Dictionary.Root for computing a post-state Merkle root (spec.md §6,
// §8 property 8).
func EncodeState(s *state.State) Dictionary {
	var d Dictionary

	e := codec.NewEncoder(8)
	e.Uint32(uint32(s.Slot))
	d = append(d, KeyValue{simpleKey(tagSlot), e.Bytes()})

	e = codec.NewEncoder(128)
	for _, h := range s.Entropy {
		e.Raw(h[:])
	}
	d = append(d, KeyValue{simpleKey(tagEntropy), e.Bytes()})

	d = append(d, KeyValue{simpleKey(tagValCurrent), encodeValidatorSet(s.Validators.Current)})
	d = append(d, KeyValue{simpleKey(tagValPrev), encodeValidatorSet(s.Validators.Previous)})
	d = append(d, KeyValue{simpleKey(tagValNext), encodeValidatorSet(s.Validators.Next)})

	d = append(d, KeyValue{simpleKey(tagSafrole), encodeSafrole(s.Safrole)})
	d = append(d, KeyValue{simpleKey(tagDisputes), encodeDisputes(s.Disputes)})
	d = append(d, KeyValue{simpleKey(tagHistory), encodeHistory(s.History)})

	for core, pr := range s.Pending {
		d = append(d, KeyValue{indexedKey(tagPending, uint32(core)), encodePendingReport(pr)})
	}
	for core, pool := range s.Auth.Pools {
		e := codec.NewEncoder(32 * len(pool))
		for _, h := range pool {
			e.Raw(h[:])
		}
		d = append(d, KeyValue{indexedKey(tagAuthPool, uint32(core)), e.Bytes()})
	}
	for core, q := range s.Auth.Queues {
		e := codec.NewEncoder(32 * len(q))
		for _, h := range q {
			e.Raw(h[:])
		}
		d = append(d, KeyValue{indexedKey(tagAuthQueue, uint32(core)), e.Bytes()})
	}
	for _, id := range s.Services.SortedIDs() {
		d = append(d, KeyValue{indexedKey(tagService, uint32(id)), encodeServiceAccount(s.Services[id])})
	}

	for idx, st := range s.Statistics.CurrentEpoch {
		d = append(d, KeyValue{indexedKey(tagStatsCur, uint32(idx)), encodeValidatorStats(st)})
	}
	for idx, st := range s.Statistics.PreviousEpoch {
		d = append(d, KeyValue{indexedKey(tagStatsPrev, uint32(idx)), encodeValidatorStats(st)})
	}
	for idx, cs := range s.Statistics.Cores {
		e := codec.NewEncoder(32)
		e.Uint64(cs.GasUsed)
		e.Uint32(cs.ImportedSegments)
		e.Uint32(cs.ExportedSegments)
		e.Uint64(cs.ExtrinsicSize)
		e.Uint64(cs.BundleSize)
		d = append(d, KeyValue{indexedKey(tagStatsCore, uint32(idx)), e.Bytes()})
	}
	svcIDs := make([]state.ServiceID, 0, len(s.Statistics.Services))
	for id := range s.Statistics.Services {
		svcIDs = append(svcIDs, id)
	}
	sort.Slice(svcIDs, func(i, j int) bool { return svcIDs[i] < svcIDs[j] })
	for _, id := range svcIDs {
		ss := s.Statistics.Services[id]
		e := codec.NewEncoder(24)
		e.Uint64(ss.AccumulateGasUsed)
		e.Uint64(ss.TransferGasUsed)
		e.Uint32(ss.AccumulateCalls)
		e.Uint32(ss.TransferCalls)
		d = append(d, KeyValue{indexedKey(tagStatsSvc, uint32(id)), e.Bytes()})
	}

	return d
}

func encodeValidatorSet(vs state.ValidatorSet) []byte {
	e := codec.NewEncoder(len(vs) * (32 + 32 + 144 + 128))
	e.Sequence(len(vs))
	for _, v := range vs {
		e.Raw(v.Bandersnatch[:])
		e.Raw(v.Ed25519[:])
		e.Raw(v.BLS[:])
		e.Raw(v.Metadata[:])
	}
	return e.Bytes()
}

func encodeSafrole(g state.Safrole) []byte {
	e := codec.NewEncoder(512)
	e.Raw(encodeValidatorSet(g.NextEpochValidators))
	e.Raw(g.RingCommitment[:])
	if g.SealingKeys.IsFallback() {
		e.Byte(1)
		e.Sequence(len(g.SealingKeys.FallbackKeys))
		for _, k := range g.SealingKeys.FallbackKeys {
			e.Raw(k[:])
		}
	} else {
		e.Byte(0)
		e.Sequence(len(g.SealingKeys.Tickets))
		for _, t := range g.SealingKeys.Tickets {
			state.EncodeTicketBody(e, t)
		}
	}
	e.Sequence(len(g.Tickets))
	for _, t := range g.Tickets {
		state.EncodeTicketBody(e, t)
	}
	return e.Bytes()
}

func encodeDisputes(ps state.Disputes) []byte {
	e := codec.NewEncoder(256)
	for _, set := range []state.EdKeySet{ps.Good, ps.Bad, ps.Wonky, ps.Punish} {
		e.Sequence(len(set))
		for _, k := range set {
			e.Raw(k[:])
		}
	}
	return e.Bytes()
}

func encodeHistory(h state.RecentHistory) []byte {
	e := codec.NewEncoder(len(h) * 160)
	e.Sequence(len(h))
	for _, entry := range h {
		e.Raw(entry.HeaderHash[:])
		e.Raw(entry.StateRoot[:])
		e.Raw(entry.BeefyMMR[:])
		e.Raw(entry.WorkReportsRoot[:])
		e.Raw(entry.AccumulateRoot[:])
	}
	return e.Bytes()
}

func encodePendingReport(pr *state.PendingReport) []byte {
	e := codec.NewEncoder(256)
	if pr == nil {
		e.Byte(0)
		return e.Bytes()
	}
	e.Byte(1)
	state.EncodeWorkReport(e, pr.Report)
	e.Uint32(pr.Timeout)
	e.Sequence(len(pr.GuarantorKeys))
	for _, k := range pr.GuarantorKeys {
		e.Raw(k[:])
	}
	return e.Bytes()
}

func encodeServiceAccount(acct *state.ServiceAccount) []byte {
	e := codec.NewEncoder(256)
	balBytes := acct.Balance.Bytes32()
	e.Raw(balBytes[:])
	minAccBytes := acct.MinGasAccumulate.Bytes32()
	e.Raw(minAccBytes[:])
	minXferBytes := acct.MinGasOnTransfer.Bytes32()
	e.Raw(minXferBytes[:])
	e.Raw(acct.CodeHash[:])
	e.Uint32(acct.LastAccumulationSlot)
	e.Uint32(acct.CreationSlot)

	storageKeys := make([][]byte, 0, len(acct.Storage))
	for k := range acct.Storage {
		kk := k
		storageKeys = append(storageKeys, kk[:])
	}
	sortByteSlices(storageKeys)
	e.Sequence(len(storageKeys))
	for _, k := range storageKeys {
		e.Raw(k)
		e.VarBytes(acct.Storage[[32]byte(k)])
	}

	preimageKeys := make([][]byte, 0, len(acct.PreimageLookups))
	for k := range acct.PreimageLookups {
		kk := k
		preimageKeys = append(preimageKeys, kk[:])
	}
	sortByteSlices(preimageKeys)
	e.Sequence(len(preimageKeys))
	for _, k := range preimageKeys {
		e.Raw(k)
		status := acct.PreimageLookups[[32]byte(k)]
		e.Sequence(len(status.Slots))
		for _, slot := range status.Slots {
			e.Uint32(slot)
		}
	}
	return e.Bytes()
}

func encodeValidatorStats(st state.ValidatorStats) []byte {
	e := codec.NewEncoder(32)
	e.Uint32(st.BlocksProduced)
	e.Uint32(st.TicketsIntroduced)
	e.Uint32(st.PreimagesIntroduced)
	e.Uint64(st.OctetsAcrossPreimages)
	e.Uint32(st.ReportsGuaranteed)
	e.Uint32(st.AvailabilityAssurances)
	return e.Bytes()
}

func sortByteSlices(keys [][]byte) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && lessBytes(keys[j], keys[j-1]); j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
}

func lessBytes(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
