package conformance

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/jamzig/jamzig-sub009/codec"
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/merkle"
	"github.com/jamzig/jamzig-sub009/state"
	"github.com/jamzig/jamzig-sub009/tracing"
)

// SessionState is the fuzzer-side conformance session's FSM position
// (spec.md §4.11: "Handshake... Session: initialize → state_root then
// repeated import_block → state_root").
type SessionState int

const (
	StateInit SessionState = iota
	StateHandshakeSent
	StateHandshakeDone
	StateStateSet
	StateRunning
	StateEnded
)

// Stats is the session's diagnostic summary, printed by cmd/jamfuzz after
// a run completes or is cancelled.
type Stats struct {
	BlocksProcessed int
	LastError       error
	LastStateRoot   crypto.Hash256
}

// Session drives one target process over a framed byte stream, following
// the fixed handshake/initialize/import_block protocol of spec.md §4.11.
// It is the fuzzer side: it writes requests and reads the target's
// responses. The target side (cmd/jamtarget) runs the mirror image of
// this exchange directly against an stf.Orchestrator.
type Session struct {
	w     io.Writer
	r     *bufio.Reader
	sink  tracing.Sink
	state SessionState
	stats Stats
}

// NewSession wraps rw as a conformance session. A nil sink is replaced
// with tracing.Noop.
func NewSession(rw io.ReadWriter, sink tracing.Sink) *Session {
	if sink == nil {
		sink = tracing.Noop
	}
	return &Session{w: rw, r: bufio.NewReader(rw), sink: sink, state: StateInit}
}

// Handshake exchanges PeerInfo with the target (spec.md §4.11: "both sides
// exchange peer_info").
func (s *Session) Handshake(local PeerInfo) (PeerInfo, error) {
	if s.state != StateInit {
		return PeerInfo{}, ErrUnexpectedTag
	}
	if err := WriteFrame(s.w, EncodePeerInfo(local)); err != nil {
		return PeerInfo{}, err
	}
	s.state = StateHandshakeSent
	s.sink.Session("peer_info sent", "app", local.AppName)

	tag, payload, err := s.readMessage()
	if err != nil {
		return PeerInfo{}, err
	}
	if tag != TagPeerInfo {
		return PeerInfo{}, ErrUnexpectedTag
	}
	remote, err := decodePeerInfo(codec.NewDecoder(payload))
	if err != nil {
		return PeerInfo{}, err
	}
	s.state = StateHandshakeDone
	s.sink.Session("peer_info received", "app", remote.AppName)
	return remote, nil
}

// SetState sends initialize and returns the target's reported genesis
// state_root.
func (s *Session) SetState(header state.Header, keyvals merkle.Dictionary, ancestry []crypto.Hash256) (crypto.Hash256, error) {
	if s.state != StateHandshakeDone {
		return crypto.Hash256{}, ErrUnexpectedTag
	}
	msg := Initialize{Header: header, KeyVals: keyvals, Ancestry: ancestry}
	if err := WriteFrame(s.w, EncodeInitialize(msg)); err != nil {
		return crypto.Hash256{}, err
	}
	root, err := s.readStateRoot()
	if err != nil {
		return crypto.Hash256{}, err
	}
	s.state = StateStateSet
	s.stats.LastStateRoot = root
	return root, nil
}

// ImportBlock sends one import_block request and returns the target's
// resulting state_root.
func (s *Session) ImportBlock(b state.Block) (crypto.Hash256, error) {
	if s.state != StateStateSet && s.state != StateRunning {
		return crypto.Hash256{}, ErrUnexpectedTag
	}
	if err := WriteFrame(s.w, EncodeImportBlock(b)); err != nil {
		return crypto.Hash256{}, err
	}
	root, err := s.readStateRoot()
	if err != nil {
		s.stats.LastError = err
		return crypto.Hash256{}, err
	}
	s.state = StateRunning
	s.stats.BlocksProcessed++
	s.stats.LastStateRoot = root
	s.sink.Session("import_block applied", "slot", uint32(b.Header.Slot), "root", root)
	return root, nil
}

// GetState requests the target's full state dictionary for headerHash,
// used for post-mismatch diagnostics (spec.md §4.11).
func (s *Session) GetState(headerHash crypto.Hash256) (merkle.Dictionary, error) {
	if err := WriteFrame(s.w, EncodeGetState(headerHash)); err != nil {
		return nil, err
	}
	tag, payload, err := s.readMessage()
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagState:
		return decodeState(codec.NewDecoder(payload))
	case TagError:
		return nil, s.peerError(payload)
	default:
		return nil, ErrUnexpectedTag
	}
}

// Run drives blocks through ImportBlock in order, polling shouldStop
// between each one (spec.md §5: "driving side polls a should-shutdown
// predicate between blocks"). A nil shouldStop never stops early. On a
// clean stop or full completion it returns the number processed and a nil
// error; on a transport or peer error it returns the count processed
// before the failure. Run does not compare roots; RunTrace does.
func (s *Session) Run(blocks []state.Block, shouldStop func() bool) (int, error) {
	for i, b := range blocks {
		if shouldStop != nil && shouldStop() {
			s.state = StateEnded
			return i, nil
		}
		if _, err := s.ImportBlock(b); err != nil {
			s.state = StateEnded
			return i, err
		}
	}
	s.state = StateEnded
	return len(blocks), nil
}

// Stats returns the session's running diagnostic summary.
func (s *Session) Stats() Stats { return s.stats }

func (s *Session) readMessage() (Tag, []byte, error) {
	frame, err := ReadFrame(s.r)
	if err != nil {
		return 0, nil, err
	}
	if len(frame) == 0 {
		return 0, nil, codec.ErrInvalidFormat
	}
	return Tag(frame[0]), frame[1:], nil
}

func (s *Session) readStateRoot() (crypto.Hash256, error) {
	tag, payload, err := s.readMessage()
	if err != nil {
		return crypto.Hash256{}, err
	}
	switch tag {
	case TagStateRoot:
		return decodeStateRoot(codec.NewDecoder(payload))
	case TagError:
		return crypto.Hash256{}, s.peerError(payload)
	default:
		return crypto.Hash256{}, ErrUnexpectedTag
	}
}

func (s *Session) peerError(payload []byte) error {
	msg, err := decodeErrorMessage(codec.NewDecoder(payload))
	if err != nil {
		return ErrPeerError
	}
	return fmt.Errorf("%w: %s", ErrPeerError, msg)
}

// SignalStop adapts a context into a Session.Run shutdown predicate,
// wiring cmd/jamfuzz's os/signal-driven cancellation to the between-blocks
// poll point spec.md §5 requires.
func SignalStop(ctx context.Context) func() bool {
	return func() bool {
		select {
		case <-ctx.Done():
			return true
		default:
			return false
		}
	}
}
