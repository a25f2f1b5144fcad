// Package assurances implements availability-bitfield processing and
// pending-report promotion (spec.md §4.5): validators vouch for a core's
// pending report, and once a super-majority vouches, the report is handed
// off to Accumulation.
package assurances

import (
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/delta"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/state"
)

// domainAvailable is the signed-message domain spec.md §4.5 pins literally:
// "jam_available" ‖ parent_hash ‖ bitfield.
const domainAvailable = "jam_available"

// ProcessAssurancesExtrinsic admits a block's assurances extrinsic,
// validates every entry per spec.md §4.5, promotes any core whose tally
// reaches ValidatorsSuperMajority, independently clears any pending report
// that has timed out, and returns the promoted reports in core-ascending
// order for Accumulation.
func ProcessAssurancesExtrinsic(p params.Params, d *delta.Delta, currentSlot uint32, parentHash crypto.Hash256, ex state.AssurancesExtrinsic) ([]state.WorkReport, error) {
	vk := d.GetValidators()
	pending := d.GetPending()

	tally := make([]uint32, p.CoreCount)
	var lastIndex int64 = -1
	for _, a := range ex {
		if a.ValidatorIndex >= uint32(len(vk.Current)) {
			return nil, ErrBadValidatorIndex
		}
		if int64(a.ValidatorIndex) <= lastIndex {
			return nil, ErrAssurersNotSorted
		}
		lastIndex = int64(a.ValidatorIndex)

		if uint32(len(a.Bitfield)) != p.AvailBitfieldBytes {
			return nil, ErrBadBitfieldLength
		}
		for bit := p.CoreCount; bit < p.AvailBitfieldBytes*8; bit++ {
			if bitSet(a.Bitfield, bit) {
				return nil, ErrBadBitfieldLength
			}
		}
		if a.ParentHash != parentHash {
			return nil, ErrBadParentHash
		}

		for core := uint32(0); core < p.CoreCount; core++ {
			if bitSet(a.Bitfield, core) && pending[core] == nil {
				return nil, ErrCoreNotEngaged
			}
		}

		signer := vk.Current[a.ValidatorIndex]
		if err := crypto.Ed25519Verify(signer.Ed25519, availableMessage(a.ParentHash, a.Bitfield), a.Signature); err != nil {
			return nil, ErrBadSignature
		}

		for core := uint32(0); core < p.CoreCount; core++ {
			if bitSet(a.Bitfield, core) {
				tally[core]++
			}
		}
	}

	pp := d.EnsurePending()
	promoted := make([]state.WorkReport, 0, p.CoreCount)
	for core := uint32(0); core < p.CoreCount; core++ {
		pr := (*pp)[core]
		if pr == nil {
			continue
		}
		switch {
		case tally[core] >= p.ValidatorsSuperMajority:
			promoted = append(promoted, pr.Report)
			(*pp)[core] = nil
		case currentSlot > pr.Timeout:
			(*pp)[core] = nil
		}
	}
	return promoted, nil
}

func availableMessage(parentHash crypto.Hash256, bitfield []byte) []byte {
	out := make([]byte, 0, len(domainAvailable)+32+len(bitfield))
	out = append(out, []byte(domainAvailable)...)
	out = append(out, parentHash[:]...)
	out = append(out, bitfield...)
	return out
}

// bitSet reports whether the core-th bit of bitfield is set, MSB-first
// within each byte (spec.md §3's bitfield convention, matching merkle's bit
// indexing).
func bitSet(bitfield []byte, core uint32) bool {
	byteIdx := core / 8
	if int(byteIdx) >= len(bitfield) {
		return false
	}
	bitIdx := 7 - (core % 8)
	return bitfield[byteIdx]&(1<<bitIdx) != 0
}
