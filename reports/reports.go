// Package reports implements guarantee admission into ρ (spec.md §4.4):
// validating a WorkReport's anchor, authorizer, guarantor assignment, and
// signatures before installing it as a core's pending report.
package reports

import (
	"sort"

	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/delta"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/state"
)

// domainGuarantee is the signed-message domain tag for guarantee
// signatures. Not pinned by spec.md's crypto façade (§1); chosen to mirror
// assurances' explicit "jam_available" tag.
const domainGuarantee = "jam_guarantee"

// ProcessGuaranteesExtrinsic admits a block's guarantees extrinsic,
// applying every check in spec.md §4.4, and installs each accepted report
// into ρ′[core] with the report's timeout. It returns the Ed25519 keys of
// every guarantor whose signature was accepted, for §4.8's
// reports_guaranteed statistic.
func ProcessGuaranteesExtrinsic(p params.Params, d *delta.Delta, currentSlot uint32, ex state.GuaranteesExtrinsic) ([]crypto.Ed25519PublicKey, error) {
	if len(ex) == 0 {
		return nil, nil
	}

	vk := d.GetValidators()
	history := d.GetHistory()
	auth := d.GetAuth()
	pending := d.GetPending()

	seenCores := make(map[uint16]struct{}, len(ex))
	seenPackageHashes := make(map[crypto.Hash256]struct{}, len(ex))
	for _, pr := range pending {
		if pr != nil {
			seenPackageHashes[pr.Report.PackageSpec.Hash] = struct{}{}
		}
	}

	var reporters []crypto.Ed25519PublicKey
	results := make([]*state.PendingReport, len(ex))

	for i, g := range ex {
		r := g.Report
		if uint32(r.CoreIndex) >= p.CoreCount {
			return nil, ErrBadCoreIndex
		}
		if _, dup := seenCores[r.CoreIndex]; dup {
			return nil, ErrDuplicateCoreInBlock
		}
		seenCores[r.CoreIndex] = struct{}{}

		if _, dup := seenPackageHashes[r.PackageSpec.Hash]; dup {
			return nil, ErrDuplicatePackageHash
		}
		seenPackageHashes[r.PackageSpec.Hash] = struct{}{}

		entry, ok := findHistoryEntry(history, r.Context.AnchorHeaderHash)
		if !ok {
			return nil, ErrUnknownAnchor
		}
		if entry.StateRoot != r.Context.AnchorStateRoot {
			return nil, ErrAnchorStateRootMismatch
		}

		if !auth.Pools[r.CoreIndex].Contains(r.AuthorizerHash) {
			return nil, ErrAuthorizerNotInPool
		}

		if r.Context.AnchorTimeslot > currentSlot || currentSlot-r.Context.AnchorTimeslot >= p.ValidatorRotationPeriod {
			return nil, ErrContextOutOfWindow
		}

		if uint32(len(g.Signatures)) < p.MinGuarantorsPerReport {
			return nil, ErrTooFewGuarantors
		}
		if uint32(len(g.Signatures)) > p.MaxGuarantorsPerReport {
			return nil, ErrTooManyGuarantors
		}

		// The guarantee's own rotation timeslot picks the ring its signers
		// were drawn from: κ normally, λ when the timeslot predates an
		// epoch boundary the chain has since crossed.
		if g.Timeslot > currentSlot || currentSlot-g.Timeslot >= p.ValidatorRotationPeriod {
			return nil, ErrContextOutOfWindow
		}
		ring := guarantorRing(p, vk, g.Timeslot, currentSlot)
		window := rotationWindow(p, g.Timeslot)
		assignment := coreAssignment(p, d.GetEntropy()[2], window)
		reportHash := state.HashWorkReport(r)

		for si, sig := range g.Signatures {
			if si > 0 && g.Signatures[si-1].ValidatorIndex >= sig.ValidatorIndex {
				return nil, ErrSignersNotSorted
			}
			if sig.ValidatorIndex >= uint32(len(ring)) {
				return nil, ErrSignerNotAssignedToCore
			}
			if assignment[sig.ValidatorIndex] != uint32(r.CoreIndex) {
				return nil, ErrSignerNotAssignedToCore
			}
			signer := ring[sig.ValidatorIndex]
			if err := crypto.Ed25519Verify(signer.Ed25519, guaranteeMessage(reportHash), sig.Signature); err != nil {
				return nil, ErrBadSignature
			}
			reporters = append(reporters, signer.Ed25519)
		}

		results[i] = &state.PendingReport{
			Report:        r.Clone(),
			Timeout:       currentSlot + p.ReportTimeoutSlots,
			GuarantorKeys: sortedSignerKeys(ring, g.Signatures),
		}
	}

	pp := d.EnsurePending()
	for i, g := range ex {
		(*pp)[g.Report.CoreIndex] = results[i]
	}
	return reporters, nil
}

func findHistoryEntry(h state.RecentHistory, headerHash crypto.Hash256) (state.HistoryEntry, bool) {
	for _, entry := range h {
		if entry.HeaderHash == headerHash {
			return entry, true
		}
	}
	return state.HistoryEntry{}, false
}

func guaranteeMessage(reportHash crypto.Hash256) []byte {
	out := make([]byte, 0, len(domainGuarantee)+32)
	out = append(out, []byte(domainGuarantee)...)
	out = append(out, reportHash[:]...)
	return out
}

func sortedSignerKeys(validators state.ValidatorSet, sigs []state.GuaranteeSignature) []crypto.Ed25519PublicKey {
	out := make([]crypto.Ed25519PublicKey, len(sigs))
	for i, s := range sigs {
		out[i] = validators[s.ValidatorIndex].Ed25519
	}
	sort.Slice(out, func(i, j int) bool {
		for k := range out[i] {
			if out[i][k] != out[j][k] {
				return out[i][k] < out[j][k]
			}
		}
		return false
	})
	return out
}
