package merkle

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/jamzig/jamzig-sub009/codec"
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/state"
)

// DecodeState reconstructs a typed state.State from its state-dictionary
// encoding, the inverse of EncodeState. The conformance target uses it to
// materialize the keyvals an initialize message carries (spec.md §4.11);
// together the pair satisfies the bijectivity property 9 of spec.md §8 at
// the whole-state level. Entries are matched by key tag, so the
// dictionary's slice order does not matter; an unknown tag or a
// non-contiguous index space is an InvalidFormat error.
func DecodeState(dict Dictionary) (*state.State, error) {
	var (
		s       state.State
		simple  = make(map[byte][]byte)
		indexed = make(map[byte]map[uint32][]byte)
	)
	for _, kv := range dict {
		tag := kv.Key[0]
		switch tag {
		case tagPending, tagService, tagAuthPool, tagAuthQueue,
			tagStatsCur, tagStatsPrev, tagStatsCore, tagStatsSvc:
			if indexed[tag] == nil {
				indexed[tag] = make(map[uint32][]byte)
			}
			indexed[tag][binary.BigEndian.Uint32(kv.Key[1:5])] = kv.Value
		case tagSlot, tagEntropy, tagValCurrent, tagValPrev, tagValNext,
			tagSafrole, tagDisputes, tagHistory:
			simple[tag] = kv.Value
		default:
			return nil, codec.ErrInvalidFormat
		}
	}

	d, err := requireSimple(simple, tagSlot)
	if err != nil {
		return nil, err
	}
	slot, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	s.Slot = state.TimeSlot(slot)

	if d, err = requireSimple(simple, tagEntropy); err != nil {
		return nil, err
	}
	for i := range s.Entropy {
		raw, err := d.Raw(32)
		if err != nil {
			return nil, err
		}
		copy(s.Entropy[i][:], raw)
	}

	if s.Validators.Current, err = decodeValidatorSetValue(simple, tagValCurrent); err != nil {
		return nil, err
	}
	if s.Validators.Previous, err = decodeValidatorSetValue(simple, tagValPrev); err != nil {
		return nil, err
	}
	if s.Validators.Next, err = decodeValidatorSetValue(simple, tagValNext); err != nil {
		return nil, err
	}

	if d, err = requireSimple(simple, tagSafrole); err != nil {
		return nil, err
	}
	if s.Safrole, err = decodeSafrole(d); err != nil {
		return nil, err
	}

	if d, err = requireSimple(simple, tagDisputes); err != nil {
		return nil, err
	}
	if s.Disputes, err = decodeDisputes(d); err != nil {
		return nil, err
	}

	if d, err = requireSimple(simple, tagHistory); err != nil {
		return nil, err
	}
	if s.History, err = decodeHistory(d); err != nil {
		return nil, err
	}

	pendingVals, err := contiguous(indexed[tagPending])
	if err != nil {
		return nil, err
	}
	s.Pending = make(state.PendingReports, len(pendingVals))
	for core, raw := range pendingVals {
		if s.Pending[core], err = decodePendingReport(codec.NewDecoder(raw)); err != nil {
			return nil, err
		}
	}

	poolVals, err := contiguous(indexed[tagAuthPool])
	if err != nil {
		return nil, err
	}
	queueVals, err := contiguous(indexed[tagAuthQueue])
	if err != nil {
		return nil, err
	}
	s.Auth.Pools = make([]state.AuthPool, len(poolVals))
	for core, raw := range poolVals {
		hashes, err := decodeHashList(raw)
		if err != nil {
			return nil, err
		}
		s.Auth.Pools[core] = hashes
	}
	s.Auth.Queues = make([]state.AuthQueue, len(queueVals))
	for core, raw := range queueVals {
		hashes, err := decodeHashList(raw)
		if err != nil {
			return nil, err
		}
		s.Auth.Queues[core] = hashes
	}

	s.Services = make(state.Services, len(indexed[tagService]))
	for id, raw := range indexed[tagService] {
		acct, err := decodeServiceAccount(codec.NewDecoder(raw))
		if err != nil {
			return nil, err
		}
		s.Services[state.ServiceID(id)] = acct
	}

	curVals, err := contiguous(indexed[tagStatsCur])
	if err != nil {
		return nil, err
	}
	prevVals, err := contiguous(indexed[tagStatsPrev])
	if err != nil {
		return nil, err
	}
	coreVals, err := contiguous(indexed[tagStatsCore])
	if err != nil {
		return nil, err
	}
	s.Statistics.CurrentEpoch = make([]state.ValidatorStats, len(curVals))
	for i, raw := range curVals {
		if s.Statistics.CurrentEpoch[i], err = decodeValidatorStats(codec.NewDecoder(raw)); err != nil {
			return nil, err
		}
	}
	s.Statistics.PreviousEpoch = make([]state.ValidatorStats, len(prevVals))
	for i, raw := range prevVals {
		if s.Statistics.PreviousEpoch[i], err = decodeValidatorStats(codec.NewDecoder(raw)); err != nil {
			return nil, err
		}
	}
	s.Statistics.Cores = make([]state.CoreStats, len(coreVals))
	for i, raw := range coreVals {
		if s.Statistics.Cores[i], err = decodeCoreStats(codec.NewDecoder(raw)); err != nil {
			return nil, err
		}
	}
	s.Statistics.Services = make(map[state.ServiceID]state.ServiceStats, len(indexed[tagStatsSvc]))
	for id, raw := range indexed[tagStatsSvc] {
		ss, err := decodeServiceStats(codec.NewDecoder(raw))
		if err != nil {
			return nil, err
		}
		s.Statistics.Services[state.ServiceID(id)] = ss
	}

	return &s, nil
}

func requireSimple(simple map[byte][]byte, tag byte) (*codec.Decoder, error) {
	raw, ok := simple[tag]
	if !ok {
		return nil, codec.ErrInvalidFormat
	}
	return codec.NewDecoder(raw), nil
}

// contiguous turns an index→value map into a dense slice, rejecting gaps:
// every per-core and per-validator key space is fully populated by
// EncodeState, so a hole means a corrupt or truncated dictionary.
func contiguous(m map[uint32][]byte) ([][]byte, error) {
	out := make([][]byte, len(m))
	for idx, v := range m {
		if int(idx) >= len(out) {
			return nil, codec.ErrInvalidFormat
		}
		out[idx] = v
	}
	return out, nil
}

func decodeValidatorSetValue(simple map[byte][]byte, tag byte) (state.ValidatorSet, error) {
	d, err := requireSimple(simple, tag)
	if err != nil {
		return nil, err
	}
	return decodeValidatorSet(d)
}

func decodeValidatorSet(d *codec.Decoder) (state.ValidatorSet, error) {
	n, err := d.Sequence()
	if err != nil {
		return nil, err
	}
	out := make(state.ValidatorSet, n)
	for i := range out {
		var v state.ValidatorData
		raw, err := d.Raw(32)
		if err != nil {
			return nil, err
		}
		copy(v.Bandersnatch[:], raw)
		if raw, err = d.Raw(32); err != nil {
			return nil, err
		}
		copy(v.Ed25519[:], raw)
		if raw, err = d.Raw(144); err != nil {
			return nil, err
		}
		copy(v.BLS[:], raw)
		if raw, err = d.Raw(128); err != nil {
			return nil, err
		}
		copy(v.Metadata[:], raw)
		out[i] = v
	}
	return out, nil
}

func decodeSafrole(d *codec.Decoder) (state.Safrole, error) {
	var g state.Safrole
	var err error
	if g.NextEpochValidators, err = decodeValidatorSet(d); err != nil {
		return g, err
	}
	raw, err := d.Raw(crypto.RingCommitmentSize)
	if err != nil {
		return g, err
	}
	copy(g.RingCommitment[:], raw)

	form, err := d.Discriminant(2)
	if err != nil {
		return g, err
	}
	n, err := d.Sequence()
	if err != nil {
		return g, err
	}
	if form == 1 {
		g.SealingKeys.FallbackKeys = make([]crypto.BandersnatchPublicKey, n)
		for i := range g.SealingKeys.FallbackKeys {
			raw, err := d.Raw(32)
			if err != nil {
				return g, err
			}
			copy(g.SealingKeys.FallbackKeys[i][:], raw)
		}
	} else {
		g.SealingKeys.Tickets = make([]state.TicketBody, n)
		for i := range g.SealingKeys.Tickets {
			if g.SealingKeys.Tickets[i], err = state.DecodeTicketBody(d); err != nil {
				return g, err
			}
		}
	}

	if n, err = d.Sequence(); err != nil {
		return g, err
	}
	g.Tickets = make(state.TicketAccumulator, n)
	for i := range g.Tickets {
		if g.Tickets[i], err = state.DecodeTicketBody(d); err != nil {
			return g, err
		}
	}
	return g, nil
}

func decodeDisputes(d *codec.Decoder) (state.Disputes, error) {
	var ps state.Disputes
	for _, set := range []*state.EdKeySet{&ps.Good, &ps.Bad, &ps.Wonky, &ps.Punish} {
		n, err := d.Sequence()
		if err != nil {
			return ps, err
		}
		*set = make(state.EdKeySet, n)
		for i := range *set {
			raw, err := d.Raw(32)
			if err != nil {
				return ps, err
			}
			copy((*set)[i][:], raw)
		}
	}
	return ps, nil
}

func decodeHistory(d *codec.Decoder) (state.RecentHistory, error) {
	n, err := d.Sequence()
	if err != nil {
		return nil, err
	}
	out := make(state.RecentHistory, n)
	for i := range out {
		for _, dst := range []*crypto.Hash256{
			&out[i].HeaderHash, &out[i].StateRoot, &out[i].BeefyMMR,
			&out[i].WorkReportsRoot, &out[i].AccumulateRoot,
		} {
			raw, err := d.Raw(32)
			if err != nil {
				return nil, err
			}
			copy(dst[:], raw)
		}
	}
	return out, nil
}

func decodePendingReport(d *codec.Decoder) (*state.PendingReport, error) {
	present, err := d.Discriminant(2)
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	var pr state.PendingReport
	if pr.Report, err = state.DecodeWorkReport(d); err != nil {
		return nil, err
	}
	if pr.Timeout, err = d.Uint32(); err != nil {
		return nil, err
	}
	n, err := d.Sequence()
	if err != nil {
		return nil, err
	}
	pr.GuarantorKeys = make([]crypto.Ed25519PublicKey, n)
	for i := range pr.GuarantorKeys {
		raw, err := d.Raw(32)
		if err != nil {
			return nil, err
		}
		copy(pr.GuarantorKeys[i][:], raw)
	}
	return &pr, nil
}

func decodeHashList(raw []byte) ([]crypto.Hash256, error) {
	if len(raw)%32 != 0 {
		return nil, codec.ErrInvalidFormat
	}
	out := make([]crypto.Hash256, len(raw)/32)
	for i := range out {
		copy(out[i][:], raw[i*32:])
	}
	return out, nil
}

func decodeServiceAccount(d *codec.Decoder) (*state.ServiceAccount, error) {
	acct := state.NewServiceAccount()
	for _, dst := range []**uint256.Int{&acct.Balance, &acct.MinGasAccumulate, &acct.MinGasOnTransfer} {
		raw, err := d.Raw(32)
		if err != nil {
			return nil, err
		}
		(*dst).SetBytes(raw)
	}
	raw, err := d.Raw(32)
	if err != nil {
		return nil, err
	}
	copy(acct.CodeHash[:], raw)
	if acct.LastAccumulationSlot, err = d.Uint32(); err != nil {
		return nil, err
	}
	if acct.CreationSlot, err = d.Uint32(); err != nil {
		return nil, err
	}

	n, err := d.Sequence()
	if err != nil {
		return nil, err
	}
	var prevKey crypto.Hash256
	for i := 0; i < n; i++ {
		raw, err := d.Raw(32)
		if err != nil {
			return nil, err
		}
		var key crypto.Hash256
		copy(key[:], raw)
		if i > 0 && !lessBytes(prevKey[:], key[:]) {
			return nil, codec.ErrKeysNotSorted
		}
		prevKey = key
		value, err := d.VarBytes()
		if err != nil {
			return nil, err
		}
		acct.Storage[key] = append([]byte(nil), value...)
	}

	if n, err = d.Sequence(); err != nil {
		return nil, err
	}
	prevKey = crypto.Hash256{}
	for i := 0; i < n; i++ {
		raw, err := d.Raw(32)
		if err != nil {
			return nil, err
		}
		var key crypto.Hash256
		copy(key[:], raw)
		if i > 0 && !lessBytes(prevKey[:], key[:]) {
			return nil, codec.ErrKeysNotSorted
		}
		prevKey = key
		m, err := d.Sequence()
		if err != nil {
			return nil, err
		}
		status := state.PreimageStatus{Slots: make([]uint32, m)}
		for j := range status.Slots {
			if status.Slots[j], err = d.Uint32(); err != nil {
				return nil, err
			}
		}
		acct.PreimageLookups[key] = status
	}
	return acct, nil
}

func decodeValidatorStats(d *codec.Decoder) (state.ValidatorStats, error) {
	var st state.ValidatorStats
	var err error
	if st.BlocksProduced, err = d.Uint32(); err != nil {
		return st, err
	}
	if st.TicketsIntroduced, err = d.Uint32(); err != nil {
		return st, err
	}
	if st.PreimagesIntroduced, err = d.Uint32(); err != nil {
		return st, err
	}
	if st.OctetsAcrossPreimages, err = d.Uint64(); err != nil {
		return st, err
	}
	if st.ReportsGuaranteed, err = d.Uint32(); err != nil {
		return st, err
	}
	if st.AvailabilityAssurances, err = d.Uint32(); err != nil {
		return st, err
	}
	return st, nil
}

func decodeCoreStats(d *codec.Decoder) (state.CoreStats, error) {
	var cs state.CoreStats
	var err error
	if cs.GasUsed, err = d.Uint64(); err != nil {
		return cs, err
	}
	if cs.ImportedSegments, err = d.Uint32(); err != nil {
		return cs, err
	}
	if cs.ExportedSegments, err = d.Uint32(); err != nil {
		return cs, err
	}
	if cs.ExtrinsicSize, err = d.Uint64(); err != nil {
		return cs, err
	}
	if cs.BundleSize, err = d.Uint64(); err != nil {
		return cs, err
	}
	return cs, nil
}

func decodeServiceStats(d *codec.Decoder) (state.ServiceStats, error) {
	var ss state.ServiceStats
	var err error
	if ss.AccumulateGasUsed, err = d.Uint64(); err != nil {
		return ss, err
	}
	if ss.TransferGasUsed, err = d.Uint64(); err != nil {
		return ss, err
	}
	if ss.AccumulateCalls, err = d.Uint32(); err != nil {
		return ss, err
	}
	if ss.TransferCalls, err = d.Uint32(); err != nil {
		return ss, err
	}
	return ss, nil
}
