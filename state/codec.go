package state

import (
	"github.com/jamzig/jamzig-sub009/codec"
	"github.com/jamzig/jamzig-sub009/crypto"
)

// This file implements the bijective codec.Encoder/Decoder bindings for
// every wire-reachable state.* type (spec.md §4.1, §4.11). Each Encode/
// Decode pair round-trips exactly: decode(encode(v)) == v.

func encodeHash(e *codec.Encoder, h crypto.Hash256) { e.Raw(h[:]) }

func decodeHash(d *codec.Decoder) (crypto.Hash256, error) {
	b, err := d.Raw(32)
	if err != nil {
		return crypto.Hash256{}, err
	}
	var h crypto.Hash256
	copy(h[:], b)
	return h, nil
}

func encodeEd25519Sig(e *codec.Encoder, s crypto.Ed25519Signature) { e.Raw(s[:]) }

func decodeEd25519Sig(d *codec.Decoder) (crypto.Ed25519Signature, error) {
	b, err := d.Raw(crypto.Ed25519SignatureSize)
	if err != nil {
		return crypto.Ed25519Signature{}, err
	}
	var s crypto.Ed25519Signature
	copy(s[:], b)
	return s, nil
}

func encodeEd25519Pub(e *codec.Encoder, p crypto.Ed25519PublicKey) { e.Raw(p[:]) }

func decodeEd25519Pub(d *codec.Decoder) (crypto.Ed25519PublicKey, error) {
	b, err := d.Raw(crypto.Ed25519PublicKeySize)
	if err != nil {
		return crypto.Ed25519PublicKey{}, err
	}
	var p crypto.Ed25519PublicKey
	copy(p[:], b)
	return p, nil
}

func encodeBandersnatchPub(e *codec.Encoder, p crypto.BandersnatchPublicKey) { e.Raw(p[:]) }

func decodeBandersnatchPub(d *codec.Decoder) (crypto.BandersnatchPublicKey, error) {
	b, err := d.Raw(32)
	if err != nil {
		return crypto.BandersnatchPublicKey{}, err
	}
	var p crypto.BandersnatchPublicKey
	copy(p[:], b)
	return p, nil
}

func encodeRingSig(e *codec.Encoder, s crypto.RingSignature) { e.Raw(s[:]) }

func decodeRingSig(d *codec.Decoder) (crypto.RingSignature, error) {
	b, err := d.Raw(crypto.RingSignatureSize)
	if err != nil {
		return crypto.RingSignature{}, err
	}
	var s crypto.RingSignature
	copy(s[:], b)
	return s, nil
}

// EncodeTicketBody appends {id(32), attempt(u8)}.
func EncodeTicketBody(e *codec.Encoder, t TicketBody) {
	e.Raw(t.ID[:])
	e.Uint8(t.Attempt)
}

// DecodeTicketBody consumes a TicketBody.
func DecodeTicketBody(d *codec.Decoder) (TicketBody, error) {
	idb, err := d.Raw(32)
	if err != nil {
		return TicketBody{}, err
	}
	attempt, err := d.Uint8()
	if err != nil {
		return TicketBody{}, err
	}
	var t TicketBody
	copy(t.ID[:], idb)
	t.Attempt = attempt
	return t, nil
}

// EncodeTicketEnvelope appends {attempt(u8), signature(784)}.
func EncodeTicketEnvelope(e *codec.Encoder, t TicketEnvelope) {
	e.Uint8(t.Attempt)
	encodeRingSig(e, t.Signature)
}

// DecodeTicketEnvelope consumes a TicketEnvelope.
func DecodeTicketEnvelope(d *codec.Decoder) (TicketEnvelope, error) {
	attempt, err := d.Uint8()
	if err != nil {
		return TicketEnvelope{}, err
	}
	sig, err := decodeRingSig(d)
	if err != nil {
		return TicketEnvelope{}, err
	}
	return TicketEnvelope{Attempt: attempt, Signature: sig}, nil
}

// EncodeTicketExtrinsic appends a length-prefixed sequence of envelopes.
func EncodeTicketExtrinsic(e *codec.Encoder, ex TicketExtrinsic) {
	e.Sequence(len(ex))
	for _, t := range ex {
		EncodeTicketEnvelope(e, t)
	}
}

// DecodeTicketExtrinsic consumes a TicketExtrinsic.
func DecodeTicketExtrinsic(d *codec.Decoder) (TicketExtrinsic, error) {
	n, err := d.Sequence()
	if err != nil {
		return nil, err
	}
	out := make(TicketExtrinsic, n)
	for i := range out {
		t, err := DecodeTicketEnvelope(d)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// EncodePackageSpec appends a PackageSpec.
func EncodePackageSpec(e *codec.Encoder, p PackageSpec) {
	encodeHash(e, p.Hash)
	e.Uint32(p.Length)
	encodeHash(e, p.ErasureRoot)
	encodeHash(e, p.ExportsRoot)
	e.Uint16(p.ExportsCount)
}

// DecodePackageSpec consumes a PackageSpec.
func DecodePackageSpec(d *codec.Decoder) (PackageSpec, error) {
	var p PackageSpec
	var err error
	if p.Hash, err = decodeHash(d); err != nil {
		return p, err
	}
	if p.Length, err = d.Uint32(); err != nil {
		return p, err
	}
	if p.ErasureRoot, err = decodeHash(d); err != nil {
		return p, err
	}
	if p.ExportsRoot, err = decodeHash(d); err != nil {
		return p, err
	}
	if p.ExportsCount, err = d.Uint16(); err != nil {
		return p, err
	}
	return p, nil
}

// EncodeContext appends a Context.
func EncodeContext(e *codec.Encoder, c Context) {
	encodeHash(e, c.AnchorHeaderHash)
	encodeHash(e, c.AnchorStateRoot)
	e.Uint32(c.AnchorTimeslot)
	e.Sequence(len(c.Prerequisites))
	for _, h := range c.Prerequisites {
		encodeHash(e, h)
	}
}

// DecodeContext consumes a Context.
func DecodeContext(d *codec.Decoder) (Context, error) {
	var c Context
	var err error
	if c.AnchorHeaderHash, err = decodeHash(d); err != nil {
		return c, err
	}
	if c.AnchorStateRoot, err = decodeHash(d); err != nil {
		return c, err
	}
	if c.AnchorTimeslot, err = d.Uint32(); err != nil {
		return c, err
	}
	n, err := d.Sequence()
	if err != nil {
		return c, err
	}
	c.Prerequisites = make([]crypto.Hash256, n)
	for i := range c.Prerequisites {
		if c.Prerequisites[i], err = decodeHash(d); err != nil {
			return c, err
		}
	}
	return c, nil
}

// EncodeWorkResult appends a WorkResult, discriminated by Status.
func EncodeWorkResult(e *codec.Encoder, r WorkResult) {
	e.Uint32(r.ServiceID)
	encodeHash(e, r.CodeHash)
	encodeHash(e, r.PayloadHash)
	e.Uint64(r.AccumulateGas)
	e.Discriminant(byte(r.Status))
	if r.Status == WorkResultOK {
		e.VarBytes(r.Output)
	}
}

// DecodeWorkResult consumes a WorkResult.
func DecodeWorkResult(d *codec.Decoder) (WorkResult, error) {
	var r WorkResult
	var err error
	if r.ServiceID, err = d.Uint32(); err != nil {
		return r, err
	}
	if r.CodeHash, err = decodeHash(d); err != nil {
		return r, err
	}
	if r.PayloadHash, err = decodeHash(d); err != nil {
		return r, err
	}
	if r.AccumulateGas, err = d.Uint64(); err != nil {
		return r, err
	}
	tag, err := d.Discriminant(6)
	if err != nil {
		return r, err
	}
	r.Status = WorkResultStatus(tag)
	if r.Status == WorkResultOK {
		if r.Output, err = d.VarBytes(); err != nil {
			return r, err
		}
	}
	return r, nil
}

// HashWorkReport returns the Blake2b-256 hash of r's codec encoding, the
// identifier disputes/reports/assurances use to refer to a report without
// carrying its full body (spec.md §4.3/§4.4/§4.5).
func HashWorkReport(r WorkReport) crypto.Hash256 {
	e := codec.NewEncoder(256)
	EncodeWorkReport(e, r)
	return crypto.Blake2b256(e.Bytes())
}

// EncodeWorkReport appends a WorkReport.
func EncodeWorkReport(e *codec.Encoder, r WorkReport) {
	EncodePackageSpec(e, r.PackageSpec)
	EncodeContext(e, r.Context)
	e.Uint16(r.CoreIndex)
	encodeHash(e, r.AuthorizerHash)
	e.Sequence(len(r.Results))
	for _, res := range r.Results {
		EncodeWorkResult(e, res)
	}
}

// DecodeWorkReport consumes a WorkReport.
func DecodeWorkReport(d *codec.Decoder) (WorkReport, error) {
	var r WorkReport
	var err error
	if r.PackageSpec, err = DecodePackageSpec(d); err != nil {
		return r, err
	}
	if r.Context, err = DecodeContext(d); err != nil {
		return r, err
	}
	if r.CoreIndex, err = d.Uint16(); err != nil {
		return r, err
	}
	if r.AuthorizerHash, err = decodeHash(d); err != nil {
		return r, err
	}
	n, err := d.Sequence()
	if err != nil {
		return r, err
	}
	r.Results = make([]WorkResult, n)
	for i := range r.Results {
		if r.Results[i], err = DecodeWorkResult(d); err != nil {
			return r, err
		}
	}
	return r, nil
}

// EncodeGuarantee appends a Guarantee.
func EncodeGuarantee(e *codec.Encoder, g Guarantee) {
	EncodeWorkReport(e, g.Report)
	e.Uint32(g.Timeslot)
	e.Sequence(len(g.Signatures))
	for _, s := range g.Signatures {
		e.Uint32(s.ValidatorIndex)
		encodeEd25519Sig(e, s.Signature)
	}
}

// DecodeGuarantee consumes a Guarantee.
func DecodeGuarantee(d *codec.Decoder) (Guarantee, error) {
	var g Guarantee
	var err error
	if g.Report, err = DecodeWorkReport(d); err != nil {
		return g, err
	}
	if g.Timeslot, err = d.Uint32(); err != nil {
		return g, err
	}
	n, err := d.Sequence()
	if err != nil {
		return g, err
	}
	g.Signatures = make([]GuaranteeSignature, n)
	for i := range g.Signatures {
		idx, err := d.Uint32()
		if err != nil {
			return g, err
		}
		sig, err := decodeEd25519Sig(d)
		if err != nil {
			return g, err
		}
		g.Signatures[i] = GuaranteeSignature{ValidatorIndex: idx, Signature: sig}
	}
	return g, nil
}

// EncodeGuaranteesExtrinsic appends a GuaranteesExtrinsic.
func EncodeGuaranteesExtrinsic(e *codec.Encoder, ex GuaranteesExtrinsic) {
	e.Sequence(len(ex))
	for _, g := range ex {
		EncodeGuarantee(e, g)
	}
}

// DecodeGuaranteesExtrinsic consumes a GuaranteesExtrinsic.
func DecodeGuaranteesExtrinsic(d *codec.Decoder) (GuaranteesExtrinsic, error) {
	n, err := d.Sequence()
	if err != nil {
		return nil, err
	}
	out := make(GuaranteesExtrinsic, n)
	for i := range out {
		if out[i], err = DecodeGuarantee(d); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// EncodeAssurance appends an Assurance.
func EncodeAssurance(e *codec.Encoder, a Assurance) {
	encodeHash(e, a.ParentHash)
	e.Uint32(a.ValidatorIndex)
	e.VarBytes(a.Bitfield)
	encodeEd25519Sig(e, a.Signature)
}

// DecodeAssurance consumes an Assurance.
func DecodeAssurance(d *codec.Decoder) (Assurance, error) {
	var a Assurance
	var err error
	if a.ParentHash, err = decodeHash(d); err != nil {
		return a, err
	}
	if a.ValidatorIndex, err = d.Uint32(); err != nil {
		return a, err
	}
	if a.Bitfield, err = d.VarBytes(); err != nil {
		return a, err
	}
	if a.Signature, err = decodeEd25519Sig(d); err != nil {
		return a, err
	}
	return a, nil
}

// EncodeAssurancesExtrinsic appends an AssurancesExtrinsic.
func EncodeAssurancesExtrinsic(e *codec.Encoder, ex AssurancesExtrinsic) {
	e.Sequence(len(ex))
	for _, a := range ex {
		EncodeAssurance(e, a)
	}
}

// DecodeAssurancesExtrinsic consumes an AssurancesExtrinsic.
func DecodeAssurancesExtrinsic(d *codec.Decoder) (AssurancesExtrinsic, error) {
	n, err := d.Sequence()
	if err != nil {
		return nil, err
	}
	out := make(AssurancesExtrinsic, n)
	for i := range out {
		if out[i], err = DecodeAssurance(d); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// EncodeJudgement appends a Judgement.
func EncodeJudgement(e *codec.Encoder, j Judgement) {
	if j.Vote {
		e.Byte(1)
	} else {
		e.Byte(0)
	}
	e.Uint32(j.ValidatorIndex)
	encodeEd25519Sig(e, j.Signature)
}

// DecodeJudgement consumes a Judgement.
func DecodeJudgement(d *codec.Decoder) (Judgement, error) {
	var j Judgement
	vb, err := d.Byte()
	if err != nil {
		return j, err
	}
	j.Vote = vb != 0
	if j.ValidatorIndex, err = d.Uint32(); err != nil {
		return j, err
	}
	if j.Signature, err = decodeEd25519Sig(d); err != nil {
		return j, err
	}
	return j, nil
}

// EncodeVerdict appends a Verdict.
func EncodeVerdict(e *codec.Encoder, v Verdict) {
	encodeHash(e, v.ReportHash)
	e.Uint32(v.EpochIndex)
	e.Sequence(len(v.Judgements))
	for _, j := range v.Judgements {
		EncodeJudgement(e, j)
	}
}

// DecodeVerdict consumes a Verdict.
func DecodeVerdict(d *codec.Decoder) (Verdict, error) {
	var v Verdict
	var err error
	if v.ReportHash, err = decodeHash(d); err != nil {
		return v, err
	}
	if v.EpochIndex, err = d.Uint32(); err != nil {
		return v, err
	}
	n, err := d.Sequence()
	if err != nil {
		return v, err
	}
	v.Judgements = make([]Judgement, n)
	for i := range v.Judgements {
		if v.Judgements[i], err = DecodeJudgement(d); err != nil {
			return v, err
		}
	}
	return v, nil
}

// EncodeCulprit appends a Culprit.
func EncodeCulprit(e *codec.Encoder, c Culprit) {
	encodeHash(e, c.ReportHash)
	encodeEd25519Pub(e, c.Key)
	encodeEd25519Sig(e, c.Signature)
}

// DecodeCulprit consumes a Culprit.
func DecodeCulprit(d *codec.Decoder) (Culprit, error) {
	var c Culprit
	var err error
	if c.ReportHash, err = decodeHash(d); err != nil {
		return c, err
	}
	if c.Key, err = decodeEd25519Pub(d); err != nil {
		return c, err
	}
	if c.Signature, err = decodeEd25519Sig(d); err != nil {
		return c, err
	}
	return c, nil
}

// EncodeFault appends a Fault.
func EncodeFault(e *codec.Encoder, f Fault) {
	encodeHash(e, f.ReportHash)
	if f.Vote {
		e.Byte(1)
	} else {
		e.Byte(0)
	}
	encodeEd25519Pub(e, f.Key)
	encodeEd25519Sig(e, f.Signature)
}

// DecodeFault consumes a Fault.
func DecodeFault(d *codec.Decoder) (Fault, error) {
	var f Fault
	var err error
	if f.ReportHash, err = decodeHash(d); err != nil {
		return f, err
	}
	vb, err := d.Byte()
	if err != nil {
		return f, err
	}
	f.Vote = vb != 0
	if f.Key, err = decodeEd25519Pub(d); err != nil {
		return f, err
	}
	if f.Signature, err = decodeEd25519Sig(d); err != nil {
		return f, err
	}
	return f, nil
}

// EncodeDisputesExtrinsic appends a DisputesExtrinsic.
func EncodeDisputesExtrinsic(e *codec.Encoder, ex DisputesExtrinsic) {
	e.Sequence(len(ex.Verdicts))
	for _, v := range ex.Verdicts {
		EncodeVerdict(e, v)
	}
	e.Sequence(len(ex.Culprits))
	for _, c := range ex.Culprits {
		EncodeCulprit(e, c)
	}
	e.Sequence(len(ex.Faults))
	for _, f := range ex.Faults {
		EncodeFault(e, f)
	}
}

// DecodeDisputesExtrinsic consumes a DisputesExtrinsic.
func DecodeDisputesExtrinsic(d *codec.Decoder) (DisputesExtrinsic, error) {
	var ex DisputesExtrinsic
	n, err := d.Sequence()
	if err != nil {
		return ex, err
	}
	ex.Verdicts = make([]Verdict, n)
	for i := range ex.Verdicts {
		if ex.Verdicts[i], err = DecodeVerdict(d); err != nil {
			return ex, err
		}
	}
	n, err = d.Sequence()
	if err != nil {
		return ex, err
	}
	ex.Culprits = make([]Culprit, n)
	for i := range ex.Culprits {
		if ex.Culprits[i], err = DecodeCulprit(d); err != nil {
			return ex, err
		}
	}
	n, err = d.Sequence()
	if err != nil {
		return ex, err
	}
	ex.Faults = make([]Fault, n)
	for i := range ex.Faults {
		if ex.Faults[i], err = DecodeFault(d); err != nil {
			return ex, err
		}
	}
	return ex, nil
}

// EncodePreimage appends a Preimage.
func EncodePreimage(e *codec.Encoder, p Preimage) {
	e.Uint32(uint32(p.ServiceID))
	e.VarBytes(p.Blob)
}

// DecodePreimage consumes a Preimage.
func DecodePreimage(d *codec.Decoder) (Preimage, error) {
	var p Preimage
	id, err := d.Uint32()
	if err != nil {
		return p, err
	}
	p.ServiceID = ServiceID(id)
	if p.Blob, err = d.VarBytes(); err != nil {
		return p, err
	}
	return p, nil
}

// EncodePreimagesExtrinsic appends a PreimagesExtrinsic.
func EncodePreimagesExtrinsic(e *codec.Encoder, ex PreimagesExtrinsic) {
	e.Sequence(len(ex))
	for _, p := range ex {
		EncodePreimage(e, p)
	}
}

// DecodePreimagesExtrinsic consumes a PreimagesExtrinsic.
func DecodePreimagesExtrinsic(d *codec.Decoder) (PreimagesExtrinsic, error) {
	n, err := d.Sequence()
	if err != nil {
		return nil, err
	}
	out := make(PreimagesExtrinsic, n)
	for i := range out {
		if out[i], err = DecodePreimage(d); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// EncodeExtrinsic appends a full Extrinsic.
func EncodeExtrinsic(e *codec.Encoder, ex Extrinsic) {
	EncodeTicketExtrinsic(e, ex.Tickets)
	EncodeDisputesExtrinsic(e, ex.Disputes)
	EncodePreimagesExtrinsic(e, ex.Preimages)
	EncodeAssurancesExtrinsic(e, ex.Assurances)
	EncodeGuaranteesExtrinsic(e, ex.Guarantees)
}

// DecodeExtrinsic consumes a full Extrinsic.
func DecodeExtrinsic(d *codec.Decoder) (Extrinsic, error) {
	var ex Extrinsic
	var err error
	if ex.Tickets, err = DecodeTicketExtrinsic(d); err != nil {
		return ex, err
	}
	if ex.Disputes, err = DecodeDisputesExtrinsic(d); err != nil {
		return ex, err
	}
	if ex.Preimages, err = DecodePreimagesExtrinsic(d); err != nil {
		return ex, err
	}
	if ex.Assurances, err = DecodeAssurancesExtrinsic(d); err != nil {
		return ex, err
	}
	if ex.Guarantees, err = DecodeGuaranteesExtrinsic(d); err != nil {
		return ex, err
	}
	return ex, nil
}

// encodeOptionalEpochMark appends an optional EpochMark (presence byte then body).
func encodeOptionalEpochMark(e *codec.Encoder, m *EpochMark) {
	if m == nil {
		e.Byte(0)
		return
	}
	e.Byte(1)
	encodeHash(e, m.Entropy)
	e.Sequence(len(m.Validators))
	for _, v := range m.Validators {
		encodeBandersnatchPub(e, v)
	}
}

func decodeOptionalEpochMark(d *codec.Decoder) (*EpochMark, error) {
	tag, err := d.Byte()
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}
	var m EpochMark
	if m.Entropy, err = decodeHash(d); err != nil {
		return nil, err
	}
	n, err := d.Sequence()
	if err != nil {
		return nil, err
	}
	m.Validators = make([]crypto.BandersnatchPublicKey, n)
	for i := range m.Validators {
		if m.Validators[i], err = decodeBandersnatchPub(d); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func encodeOptionalTicketsMark(e *codec.Encoder, m *TicketsMark) {
	if m == nil {
		e.Byte(0)
		return
	}
	e.Byte(1)
	e.Sequence(len(m.Tickets))
	for _, t := range m.Tickets {
		EncodeTicketBody(e, t)
	}
}

func decodeOptionalTicketsMark(d *codec.Decoder) (*TicketsMark, error) {
	tag, err := d.Byte()
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}
	n, err := d.Sequence()
	if err != nil {
		return nil, err
	}
	m := &TicketsMark{Tickets: make([]TicketBody, n)}
	for i := range m.Tickets {
		if m.Tickets[i], err = DecodeTicketBody(d); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// EncodeHeader returns a Header's codec encoding (used for Header.Hash and
// the conformance wire format).
func EncodeHeader(h Header) []byte {
	e := codec.NewEncoder(256)
	encodeHash(e, h.ParentHash)
	encodeHash(e, h.ParentStateRoot)
	encodeHash(e, h.ExtrinsicHash)
	e.Uint32(uint32(h.Slot))
	encodeOptionalEpochMark(e, h.EpochMark)
	encodeOptionalTicketsMark(e, h.TicketsMark)
	e.Uint32(h.AuthorIndex)
	encodeHash(e, h.BlockEntropy)
	encodeRingSig(e, h.Seal)
	return e.Bytes()
}

// DecodeHeader consumes a Header.
func DecodeHeader(d *codec.Decoder) (Header, error) {
	var h Header
	var err error
	if h.ParentHash, err = decodeHash(d); err != nil {
		return h, err
	}
	if h.ParentStateRoot, err = decodeHash(d); err != nil {
		return h, err
	}
	if h.ExtrinsicHash, err = decodeHash(d); err != nil {
		return h, err
	}
	slot, err := d.Uint32()
	if err != nil {
		return h, err
	}
	h.Slot = TimeSlot(slot)
	if h.EpochMark, err = decodeOptionalEpochMark(d); err != nil {
		return h, err
	}
	if h.TicketsMark, err = decodeOptionalTicketsMark(d); err != nil {
		return h, err
	}
	if h.AuthorIndex, err = d.Uint32(); err != nil {
		return h, err
	}
	if h.BlockEntropy, err = decodeHash(d); err != nil {
		return h, err
	}
	if h.Seal, err = decodeRingSig(d); err != nil {
		return h, err
	}
	return h, nil
}

// EncodeBlock returns the codec encoding of a full Block.
func EncodeBlock(b Block) []byte {
	e := codec.NewEncoder(1024)
	e.Raw(EncodeHeader(b.Header))
	EncodeExtrinsic(e, b.Extrinsic)
	return e.Bytes()
}

// DecodeBlock consumes a full Block from raw bytes.
func DecodeBlock(raw []byte) (Block, error) {
	d := codec.NewDecoder(raw)
	var b Block
	var err error
	if b.Header, err = DecodeHeader(d); err != nil {
		return b, err
	}
	if b.Extrinsic, err = DecodeExtrinsic(d); err != nil {
		return b, err
	}
	if !d.Done() {
		return b, codec.ErrInvalidFormat
	}
	return b, nil
}
