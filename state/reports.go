package state

import "github.com/jamzig/jamzig-sub009/crypto"

// PackageSpec identifies the work package a WorkReport commits to (spec.md
// §3): a content hash, its length, the erasure-coding root used for
// availability reconstruction, and the exports root/count of items it
// makes available to later work packages.
type PackageSpec struct {
	Hash         crypto.Hash256
	Length       uint32
	ErasureRoot  crypto.Hash256
	ExportsRoot  crypto.Hash256
	ExportsCount uint16
}

// Context anchors a work report to a specific point in chain history
// (spec.md §4.4): the anchor block must be present in recent history (β)
// with a matching state root.
type Context struct {
	AnchorHeaderHash crypto.Hash256
	AnchorStateRoot  crypto.Hash256
	AnchorTimeslot   uint32
	// Prerequisites lists package hashes that must already be available
	// before this report's results may be accumulated.
	Prerequisites []crypto.Hash256
}

// Clone returns a deep copy of c.
func (c Context) Clone() Context {
	out := c
	out.Prerequisites = append([]crypto.Hash256(nil), c.Prerequisites...)
	return out
}

// WorkResultStatus enumerates how a single work-item's execution
// concluded (spec.md §4.6/§6).
type WorkResultStatus uint8

const (
	WorkResultOK WorkResultStatus = iota
	WorkResultOutOfGas
	WorkResultPanic
	WorkResultBadExports
	WorkResultBadCode
	WorkResultCodeOversize
)

// WorkResult is one service's refine-step output within a WorkReport.
type WorkResult struct {
	ServiceID      uint32
	CodeHash       crypto.Hash256
	PayloadHash    crypto.Hash256
	AccumulateGas  uint64
	Status         WorkResultStatus
	// Output carries the refine output blob when Status == WorkResultOK;
	// nil otherwise.
	Output []byte
}

// Clone returns a deep copy of r.
func (r WorkResult) Clone() WorkResult {
	out := r
	out.Output = append([]byte(nil), r.Output...)
	return out
}

// WorkReport is the validator-signed commitment to off-chain computation
// admitted by Reports/Guarantees (spec.md §3).
type WorkReport struct {
	PackageSpec     PackageSpec
	Context         Context
	CoreIndex       uint16
	AuthorizerHash  crypto.Hash256
	Results         []WorkResult
}

// Clone returns a deep copy of r.
func (r WorkReport) Clone() WorkReport {
	out := r
	out.Context = r.Context.Clone()
	out.Results = make([]WorkResult, len(r.Results))
	for i, res := range r.Results {
		out.Results[i] = res.Clone()
	}
	return out
}

// PendingReport is one core's entry in ρ: an admitted-but-not-yet-available
// work report, its timeout slot, and the guarantor keys that signed it.
type PendingReport struct {
	Report        WorkReport
	Timeout       uint32
	GuarantorKeys []crypto.Ed25519PublicKey
}

// Clone returns a deep copy of p.
func (p *PendingReport) Clone() *PendingReport {
	if p == nil {
		return nil
	}
	out := &PendingReport{
		Report:  p.Report.Clone(),
		Timeout: p.Timeout,
	}
	out.GuarantorKeys = append([]crypto.Ed25519PublicKey(nil), p.GuarantorKeys...)
	return out
}

// PendingReports is ρ: one optional slot per core.
type PendingReports []*PendingReport

// Clone returns a deep copy of rs.
func (rs PendingReports) Clone() PendingReports {
	out := make(PendingReports, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}
