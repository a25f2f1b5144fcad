// Package stf orchestrates the twelve-step state transition function of
// spec.md §4.9 across every subsystem package (safrole, disputes, reports,
// assurances, accumulation). It owns none of the subsystem logic itself;
// it only fixes the order they run in and turns their primes into a merged
// post-state and post-root.
package stf

import (
	"github.com/jamzig/jamzig-sub009/accumulation"
	"github.com/jamzig/jamzig-sub009/assurances"
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/delta"
	"github.com/jamzig/jamzig-sub009/disputes"
	"github.com/jamzig/jamzig-sub009/merkle"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/pvm"
	"github.com/jamzig/jamzig-sub009/reports"
	"github.com/jamzig/jamzig-sub009/safrole"
	"github.com/jamzig/jamzig-sub009/state"
	"github.com/jamzig/jamzig-sub009/tracing"
)

// Orchestrator runs ImportBlock against a fixed parameter set, PVM, and
// diagnostic sink.
type Orchestrator struct {
	Params  params.Params
	Machine pvm.Machine
	Sink    tracing.Sink
}

// New builds an Orchestrator. A nil sink is replaced with tracing.Noop.
func New(p params.Params, vm pvm.Machine, sink tracing.Sink) *Orchestrator {
	if sink == nil {
		sink = tracing.Noop
	}
	return &Orchestrator{Params: p, Machine: vm, Sink: sink}
}

// ImportBlock applies block to pre and returns the resulting post-state and
// its state-dictionary root, following the fixed order of spec.md §4.9.
// pre is never mutated; on any error the returned state is nil and pre
// remains the valid state for the caller to retry or report.
func (o *Orchestrator) ImportBlock(pre *state.State, block state.Block) (*state.State, crypto.Hash256, error) {
	o.Sink.Block(uint32(block.Header.Slot), block.Header.Hash())

	d := delta.New(pre)

	// Step 1: time.
	if block.Header.Slot <= pre.Slot {
		o.Sink.Error("time", ErrSlotNotAdvancing)
		return nil, crypto.Hash256{}, ErrSlotNotAdvancing
	}
	if len(pre.History) > 0 && block.Header.ParentHash != pre.History[len(pre.History)-1].HeaderHash {
		o.Sink.Error("time", ErrUnknownParent)
		return nil, crypto.Hash256{}, ErrUnknownParent
	}
	*d.EnsureSlot() = block.Header.Slot
	o.Sink.Subsystem("time")

	// Step 2: recent-history patch.
	if hist := d.EnsureHistory(); len(*hist) > 0 {
		hist.PatchLastStateRoot(block.Header.ParentStateRoot)
	}
	o.Sink.Subsystem("history_patch")

	// Step 3: entropy.
	boundary := o.Params.IsEpochBoundary(uint32(pre.Slot), uint32(block.Header.Slot))
	entropy := d.GetEntropy().Accumulate(block.Header.BlockEntropy[:])
	if boundary {
		entropy = entropy.Rotate()
	}
	*d.EnsureEntropy() = entropy
	o.Sink.Subsystem("entropy")

	// Step 4: Safrole epoch rotation and ticket extrinsic.
	if boundary {
		if err := safrole.RotateEpoch(o.Params, d, uint32(pre.Slot), uint32(block.Header.Slot)); err != nil {
			o.Sink.Error("safrole_rotate", err)
			return nil, crypto.Hash256{}, err
		}
	}
	if err := safrole.ProcessTicketExtrinsic(o.Params, d, o.Params.SlotInEpoch(uint32(block.Header.Slot)), block.Extrinsic.Tickets); err != nil {
		o.Sink.Error("safrole_tickets", err)
		return nil, crypto.Hash256{}, err
	}
	o.Sink.Subsystem("safrole")

	// Step 5: disputes.
	if err := disputes.ProcessDisputesExtrinsic(o.Params, d, uint32(block.Header.Slot), block.Extrinsic.Disputes); err != nil {
		o.Sink.Error("disputes", err)
		return nil, crypto.Hash256{}, err
	}
	o.Sink.Subsystem("disputes")

	// Step 6: reports/guarantees.
	signers, err := reports.ProcessGuaranteesExtrinsic(o.Params, d, uint32(block.Header.Slot), block.Extrinsic.Guarantees)
	if err != nil {
		o.Sink.Error("reports", err)
		return nil, crypto.Hash256{}, err
	}
	o.Sink.Subsystem("reports")

	// Step 7: assurances.
	promoted, err := assurances.ProcessAssurancesExtrinsic(o.Params, d, uint32(block.Header.Slot), block.Header.ParentHash, block.Extrinsic.Assurances)
	if err != nil {
		o.Sink.Error("assurances", err)
		return nil, crypto.Hash256{}, err
	}
	o.Sink.Subsystem("assurances")

	// Step 8: preimages, applied to δ′.
	if err := accumulation.ProcessPreimagesExtrinsic(d, uint32(block.Header.Slot), block.Extrinsic.Preimages); err != nil {
		o.Sink.Error("preimages", err)
		return nil, crypto.Hash256{}, err
	}
	o.Sink.Subsystem("preimages")

	// Step 9: accumulation over newly available reports.
	accumulateRoot, err := accumulation.Accumulate(o.Params, d, o.Machine, uint32(block.Header.Slot), promoted)
	if err != nil {
		o.Sink.Error("accumulation", err)
		return nil, crypto.Hash256{}, err
	}
	o.Sink.Subsystem("accumulation")

	// Step 10: recent-history append.
	entry := state.HistoryEntry{
		HeaderHash: block.Header.Hash(),
		// StateRoot is a placeholder: it is only known and patched in by
		// the following block's step 2 (spec.md §4.7).
		StateRoot: crypto.Hash256{},
		// BeefyMMR is maintained outside this state-transition function
		// (spec.md §1 treats bridge-facing commitments as opaque); left
		// zero here.
		BeefyMMR:        crypto.Hash256{},
		WorkReportsRoot: workReportsRoot(promoted),
		AccumulateRoot:  accumulateRoot,
	}
	hist := d.EnsureHistory()
	*hist = hist.Append(entry, o.Params.RecentBlocksDepth)
	o.Sink.Subsystem("history_append")

	// Step 11: validator & service statistics.
	applyStatistics(d, o.Params, block, signers, promoted, boundary)
	o.Sink.Subsystem("statistics")

	// Step 12: merge and compute post-root.
	post := d.Merge()
	root := merkle.EncodeState(post).Root()
	o.Sink.Subsystem("merge")

	return post, root, nil
}

// workReportsRoot Merkleises the newly-available reports' content hashes
// in the order Assurances promoted them (core-ascending), mirroring
// Accumulation's own ordered list Merkleisation (spec.md §4.6/§4.7).
func workReportsRoot(reports []state.WorkReport) crypto.Hash256 {
	if len(reports) == 0 {
		return crypto.Hash256{}
	}
	leaves := make([]crypto.Hash256, len(reports))
	for i, r := range reports {
		leaves[i] = state.HashWorkReport(r)
	}
	return merkle.ListRoot(leaves)
}

// applyStatistics folds one block's activity into π's current-epoch
// bucket (spec.md §3/§4.8). Ticket and preimage counts are attributed to
// the block's author: the producing validator is credited for everything
// the block it sealed carried.
func applyStatistics(d *delta.Delta, p params.Params, block state.Block, signers []crypto.Ed25519PublicKey, promoted []state.WorkReport, boundary bool) {
	stats := d.EnsureStatistics()
	if boundary {
		*stats = stats.RotateEpoch()
	}
	author := int(block.Header.AuthorIndex)
	if author >= 0 && author < len(stats.CurrentEpoch) {
		vs := stats.CurrentEpoch[author]
		vs.BlocksProduced++
		vs.TicketsIntroduced += uint32(len(block.Extrinsic.Tickets))
		vs.PreimagesIntroduced += uint32(len(block.Extrinsic.Preimages))
		for _, pre := range block.Extrinsic.Preimages {
			vs.OctetsAcrossPreimages += uint64(len(pre.Blob))
		}
		stats.CurrentEpoch[author] = vs
	}

	validators := d.GetValidators().Current
	for _, pk := range signers {
		idx := validators.IndexOfEd25519(pk)
		if idx < 0 || idx >= len(stats.CurrentEpoch) {
			continue
		}
		vs := stats.CurrentEpoch[idx]
		vs.ReportsGuaranteed++
		stats.CurrentEpoch[idx] = vs
	}

	for _, a := range block.Extrinsic.Assurances {
		idx := int(a.ValidatorIndex)
		if idx < 0 || idx >= len(stats.CurrentEpoch) {
			continue
		}
		vs := stats.CurrentEpoch[idx]
		vs.AvailabilityAssurances++
		stats.CurrentEpoch[idx] = vs
	}

	// Per-core counters aggregate the refine-load of reports that became
	// available this block (spec.md §4.8).
	for _, r := range promoted {
		core := int(r.CoreIndex)
		if core < 0 || core >= len(stats.Cores) {
			continue
		}
		cs := stats.Cores[core]
		cs.ExportedSegments += uint32(r.PackageSpec.ExportsCount)
		cs.ImportedSegments += uint32(len(r.Context.Prerequisites))
		cs.BundleSize += uint64(r.PackageSpec.Length)
		for _, res := range r.Results {
			cs.GasUsed += res.AccumulateGas
			cs.ExtrinsicSize += uint64(len(res.Output))
		}
		stats.Cores[core] = cs
	}
}
