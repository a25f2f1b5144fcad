package state

import "github.com/jamzig/jamzig-sub009/crypto"

// TimeSlot is a monotonically increasing slot number (spec.md §3).
type TimeSlot uint32

// EpochMark is carried on a header when a block crosses an epoch boundary
// (spec.md §4.2): the new epoch's entropy and the Bandersnatch keys of the
// incoming validator set, letting light clients verify the rotation
// without replaying Safrole.
type EpochMark struct {
	Entropy    crypto.Hash256
	Validators []crypto.BandersnatchPublicKey
}

// TicketsMark is carried on a header when γ_s switches to its outside-in
// ticket ordering at an epoch boundary (spec.md §4.2, §8 S4).
type TicketsMark struct {
	Tickets []TicketBody
}

// Header is a JAM block header (spec.md §3/§4.9). Fields beyond those the
// STF itself reads (slot, author, parent/parent-state roots, the optional
// marks, and the seal/entropy source) are out of STF scope per §1 (sealing
// signatures are verified by the opaque crypto façade, not re-derived here).
type Header struct {
	ParentHash      crypto.Hash256
	ParentStateRoot crypto.Hash256
	ExtrinsicHash   crypto.Hash256
	Slot            TimeSlot
	EpochMark       *EpochMark
	TicketsMark     *TicketsMark
	AuthorIndex     uint32
	// BlockEntropy is the per-block VRF output that feeds η'[0] (§4.9 step
	// 3); in the full protocol this is the seal/entropy-source VRF output,
	// treated here as an opaque 32-byte value supplied alongside the
	// header, matching §1's "ring-VRF ... treated as opaque".
	BlockEntropy crypto.Hash256
	Seal         crypto.RingSignature
}

// Hash returns the Blake2b-256 hash of the header's codec encoding,
// matching every other content-addressed identifier in the system
// (spec.md §4.1/§6).
func (h Header) Hash() crypto.Hash256 {
	return crypto.Blake2b256(EncodeHeader(h))
}

// TicketExtrinsic is the tickets portion of a block's extrinsic (§4.2).
type TicketExtrinsic []TicketEnvelope

// Verdict is one disputes verdict: ≥2/3 validator judgements on a single
// work-report hash (spec.md §3/§4.3).
type Verdict struct {
	ReportHash crypto.Hash256
	EpochIndex uint32
	Judgements []Judgement
}

// Judgement is one validator's signed vote within a Verdict.
type Judgement struct {
	Vote      bool // true = valid
	ValidatorIndex uint32
	Signature crypto.Ed25519Signature
}

// Culprit attests, over its own Ed25519 signature, that ReportHash was a
// bad report (§4.3).
type Culprit struct {
	ReportHash crypto.Hash256
	Key        crypto.Ed25519PublicKey
	Signature  crypto.Ed25519Signature
}

// Fault contradicts a known verdict over ReportHash (§4.3).
type Fault struct {
	ReportHash crypto.Hash256
	Vote       bool
	Key        crypto.Ed25519PublicKey
	Signature  crypto.Ed25519Signature
}

// DisputesExtrinsic bundles a block's verdicts/culprits/faults (§4.3).
type DisputesExtrinsic struct {
	Verdicts []Verdict
	Culprits []Culprit
	Faults   []Fault
}

// Guarantee is a signed attestation that a work report was correctly
// produced (spec.md §3/§4.4): 2-3 Ed25519 signatures over the report.
type Guarantee struct {
	Report     WorkReport
	Timeslot   uint32
	Signatures []GuaranteeSignature
}

// GuaranteeSignature pairs a validator index with its Ed25519 signature
// over the guaranteed report.
type GuaranteeSignature struct {
	ValidatorIndex uint32
	Signature      crypto.Ed25519Signature
}

// GuaranteesExtrinsic is a block's guarantee list (§4.4).
type GuaranteesExtrinsic []Guarantee

// Assurance is one validator's availability bitfield for the current core
// set (spec.md §3/§4.5).
type Assurance struct {
	ParentHash     crypto.Hash256
	ValidatorIndex uint32
	Bitfield       []byte
	Signature      crypto.Ed25519Signature
}

// AssurancesExtrinsic is a block's assurance list (§4.5).
type AssurancesExtrinsic []Assurance

// Preimage is a service-addressed blob supplied out-of-band from the
// work-report pipeline, matched against ServiceAccount.PreimageLookups
// (spec.md §4.6/§4.8).
type Preimage struct {
	ServiceID ServiceID
	Blob      []byte
}

// PreimagesExtrinsic is a block's preimage list (§4.9 step 8).
type PreimagesExtrinsic []Preimage

// Extrinsic bundles every extrinsic list a block carries (spec.md §2
// GLOSSARY "Extrinsic").
type Extrinsic struct {
	Tickets    TicketExtrinsic
	Disputes   DisputesExtrinsic
	Preimages  PreimagesExtrinsic
	Assurances AssurancesExtrinsic
	Guarantees GuaranteesExtrinsic
}

// Block is a full JAM block: header plus extrinsic (spec.md §2).
type Block struct {
	Header    Header
	Extrinsic Extrinsic
}
