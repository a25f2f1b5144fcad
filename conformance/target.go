package conformance

import (
	"bufio"
	"errors"
	"io"

	"github.com/jamzig/jamzig-sub009/accumulation"
	"github.com/jamzig/jamzig-sub009/assurances"
	"github.com/jamzig/jamzig-sub009/codec"
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/disputes"
	"github.com/jamzig/jamzig-sub009/merkle"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/pvm"
	"github.com/jamzig/jamzig-sub009/reports"
	"github.com/jamzig/jamzig-sub009/safrole"
	"github.com/jamzig/jamzig-sub009/state"
	"github.com/jamzig/jamzig-sub009/stf"
	"github.com/jamzig/jamzig-sub009/tracing"
)

// maxRetainedStates bounds how many post-state dictionary snapshots the
// target keeps for get_state diagnostics. Older snapshots are evicted
// oldest-first; the fuzzer only ever asks about recent divergences.
const maxRetainedStates = 64

// Target is the serving side of the conformance protocol (spec.md §4.11):
// it answers a fuzzer's initialize/import_block/get_state requests by
// running the real STF and reporting state roots. One Target holds one
// state lineage; a second initialize resets it.
type Target struct {
	orch *stf.Orchestrator
	info PeerInfo
	sink tracing.Sink

	cur       *state.State
	snapshots map[crypto.Hash256]merkle.Dictionary
	order     []crypto.Hash256
}

// NewTarget builds a Target serving the given parameter set and PVM. A nil
// sink is replaced with tracing.Noop.
func NewTarget(p params.Params, vm pvm.Machine, info PeerInfo, sink tracing.Sink) *Target {
	if sink == nil {
		sink = tracing.Noop
	}
	return &Target{
		orch:      stf.New(p, vm, sink),
		info:      info,
		sink:      sink,
		snapshots: make(map[crypto.Hash256]merkle.Dictionary),
	}
}

// Serve answers requests on rw until the peer disconnects. A clean EOF
// between messages returns nil; a malformed frame or an out-of-order
// message returns the protocol error (the caller exits non-zero on it,
// per the CLI contract in spec.md §6).
func (t *Target) Serve(rw io.ReadWriter) error {
	r := bufio.NewReader(rw)
	for {
		frame, err := ReadFrame(r)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(frame) == 0 {
			return codec.ErrInvalidFormat
		}
		tag, payload := Tag(frame[0]), frame[1:]
		if err := t.handle(rw, tag, payload); err != nil {
			return err
		}
	}
}

func (t *Target) handle(w io.Writer, tag Tag, payload []byte) error {
	switch tag {
	case TagPeerInfo:
		remote, err := decodePeerInfo(codec.NewDecoder(payload))
		if err != nil {
			return err
		}
		t.sink.Session("peer_info received", "app", remote.AppName)
		return WriteFrame(w, EncodePeerInfo(t.info))

	case TagInitialize:
		m, err := decodeInitialize(codec.NewDecoder(payload))
		if err != nil {
			return err
		}
		st, err := merkle.DecodeState(m.KeyVals)
		if err != nil {
			return WriteFrame(w, EncodeError(ErrorName(err)))
		}
		t.cur = st
		t.snapshots = make(map[crypto.Hash256]merkle.Dictionary)
		t.order = nil
		root := t.remember(m.Header.Hash(), merkle.EncodeState(st))
		t.sink.Session("initialized", "slot", uint32(st.Slot), "root", root)
		return WriteFrame(w, EncodeStateRoot(root))

	case TagImportBlock:
		if t.cur == nil {
			return WriteFrame(w, EncodeError("UninitializedState"))
		}
		b, err := decodeImportBlock(codec.NewDecoder(payload))
		if err != nil {
			return err
		}
		post, root, err := t.orch.ImportBlock(t.cur, b)
		if err != nil {
			// A rejected block leaves the pre-state untouched; the
			// session continues so the fuzzer can probe further.
			t.sink.Error("import_block", err)
			return WriteFrame(w, EncodeError(ErrorName(err)))
		}
		t.cur = post
		t.remember(b.Header.Hash(), merkle.EncodeState(post))
		return WriteFrame(w, EncodeStateRoot(root))

	case TagGetState:
		h, err := decodeGetState(codec.NewDecoder(payload))
		if err != nil {
			return err
		}
		dict, ok := t.snapshots[h]
		if !ok {
			return WriteFrame(w, EncodeError("UnknownHeaderHash"))
		}
		return WriteFrame(w, EncodeState(dict))

	case TagError:
		msg, err := decodeErrorMessage(codec.NewDecoder(payload))
		if err != nil {
			return err
		}
		t.sink.Session("peer error", "message", msg)
		return nil

	default:
		return ErrUnexpectedTag
	}
}

// remember stores a post-state dictionary snapshot under its header hash,
// evicting oldest-first past maxRetainedStates, and returns its root.
func (t *Target) remember(headerHash crypto.Hash256, dict merkle.Dictionary) crypto.Hash256 {
	if _, seen := t.snapshots[headerHash]; !seen {
		t.order = append(t.order, headerHash)
		if len(t.order) > maxRetainedStates {
			delete(t.snapshots, t.order[0])
			t.order = t.order[1:]
		}
	}
	t.snapshots[headerHash] = dict
	return dict.Root()
}

// ErrorName maps a subsystem error to the stable conformance-output name
// of spec.md §7. Unrecognized errors fall back to their Go message so a
// diagnosing fuzzer still sees something actionable.
func ErrorName(err error) string {
	for _, m := range errorNames {
		if errors.Is(err, m.err) {
			return m.name
		}
	}
	return err.Error()
}

var errorNames = []struct {
	err  error
	name string
}{
	{stf.ErrSlotNotAdvancing, "BadSlot"},
	{stf.ErrUnknownParent, "BadSlot"},

	{safrole.ErrUnexpectedTicket, "UnexpectedTicket"},
	{safrole.ErrBadTicketAttempt, "BadTicketAttempt"},
	{safrole.ErrTooManyTicketsInExtrinsic, "TooManyTicketsInExtrinsic"},
	{safrole.ErrBadTicketProof, "BadTicketProof"},
	{safrole.ErrBadTicketOrder, "BadTicketOrder"},
	{safrole.ErrDuplicateTicket, "DuplicateTicket"},

	{disputes.ErrBadSignature, "BadSignature"},
	{disputes.ErrOffendersNotInValidators, "OffendersNotInValidators"},
	{disputes.ErrVerdictAlreadyResolved, "VerdictAlreadyResolved"},
	{disputes.ErrQuorumNotMet, "QuorumNotMet"},
	{disputes.ErrBadAgeOfJudgement, "BadAgeOfJudgement"},
	{disputes.ErrJudgementsNotSorted, "JudgementsNotSortedUnique"},

	{reports.ErrBadCoreIndex, "BadCoreIndex"},
	{reports.ErrDuplicateCoreInBlock, "DuplicateReportOnCore"},
	{reports.ErrUnknownAnchor, "BadAnchor"},
	{reports.ErrAnchorStateRootMismatch, "BadAnchor"},
	{reports.ErrAuthorizerNotInPool, "AuthorizationNotInPool"},
	{reports.ErrContextOutOfWindow, "BadGuarantorAssignment"},
	{reports.ErrTooFewGuarantors, "BadGuarantorAssignment"},
	{reports.ErrTooManyGuarantors, "BadGuarantorAssignment"},
	{reports.ErrSignersNotSorted, "BadGuarantorAssignment"},
	{reports.ErrSignerNotAssignedToCore, "BadGuarantorAssignment"},
	{reports.ErrBadSignature, "BadGuarantorSignature"},
	{reports.ErrDuplicatePackageHash, "DuplicatePackageHash"},

	{assurances.ErrBadParentHash, "InvalidAnchorHash"},
	{assurances.ErrBadValidatorIndex, "InvalidValidatorIndex"},
	{assurances.ErrCoreNotEngaged, "CoreNotEngaged"},
	{assurances.ErrBadBitfieldLength, "InvalidBitfieldSize"},
	{assurances.ErrBadSignature, "InvalidSignature"},
	{assurances.ErrAssurersNotSorted, "NotSortedOrUniqueValidatorIndex"},

	{accumulation.ErrPreimageAlreadyProvided, "PreimageAlreadyProvided"},
	{accumulation.ErrServiceUnknown, "ServiceUnknown"},
	{accumulation.ErrUnknownService, "ServiceUnknown"},

	{codec.ErrInvalidFormat, "InvalidFormat"},
	{codec.ErrUnexpectedEnd, "UnexpectedEnd"},
	{codec.ErrDiscriminantOutOfRange, "DiscriminantOutOfRange"},
	{codec.ErrKeysNotSorted, "KeysNotSorted"},
}
