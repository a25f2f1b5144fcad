// Package conformance implements the fuzzer/target wire protocol of
// spec.md §4.11: length-prefixed framed messages over a bidirectional byte
// stream, driving a target through initialize/import_block/get_state
// exchanges and comparing state roots.
package conformance

import (
	"github.com/jamzig/jamzig-sub009/codec"
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/merkle"
	"github.com/jamzig/jamzig-sub009/state"
)

// Tag is a message discriminant (spec.md §4.11 table).
type Tag byte

const (
	TagPeerInfo    Tag = 0
	TagInitialize  Tag = 1
	TagStateRoot   Tag = 2
	TagImportBlock Tag = 3
	TagGetState    Tag = 4
	TagState       Tag = 5
	TagError       Tag = 255
)

// PeerInfo is exchanged by both sides at handshake.
type PeerInfo struct {
	FuzzVersion  uint8
	FuzzFeatures uint32
	JamVersion   [3]uint8
	AppVersion   [3]uint8
	AppName      string
}

// EncodePeerInfo returns the framed payload for a PeerInfo message.
func EncodePeerInfo(p PeerInfo) []byte {
	e := codec.NewEncoder(16 + len(p.AppName))
	e.Discriminant(byte(TagPeerInfo))
	e.Uint8(p.FuzzVersion)
	e.Uint32(p.FuzzFeatures)
	e.Raw(p.JamVersion[:])
	e.Raw(p.AppVersion[:])
	e.VarBytes([]byte(p.AppName))
	return e.Bytes()
}

func decodePeerInfo(d *codec.Decoder) (PeerInfo, error) {
	var p PeerInfo
	var err error
	if p.FuzzVersion, err = d.Uint8(); err != nil {
		return p, err
	}
	if p.FuzzFeatures, err = d.Uint32(); err != nil {
		return p, err
	}
	jv, err := d.Raw(3)
	if err != nil {
		return p, err
	}
	copy(p.JamVersion[:], jv)
	av, err := d.Raw(3)
	if err != nil {
		return p, err
	}
	copy(p.AppVersion[:], av)
	name, err := d.VarBytes()
	if err != nil {
		return p, err
	}
	p.AppName = string(name)
	return p, nil
}

// Initialize seeds a target session with a genesis header, the genesis
// state dictionary ("keyvals"), and an optional ancestry of prior header
// hashes (spec.md §4.11 row 1).
type Initialize struct {
	Header   state.Header
	KeyVals  merkle.Dictionary
	Ancestry []crypto.Hash256
}

// EncodeInitialize returns the framed payload for an Initialize message.
func EncodeInitialize(m Initialize) []byte {
	e := codec.NewEncoder(512)
	e.Discriminant(byte(TagInitialize))
	e.Raw(state.EncodeHeader(m.Header))
	e.Sequence(len(m.KeyVals))
	for _, kv := range m.KeyVals {
		e.Raw(kv.Key[:])
		e.VarBytes(kv.Value)
	}
	e.Sequence(len(m.Ancestry))
	for _, h := range m.Ancestry {
		e.Raw(h[:])
	}
	return e.Bytes()
}

func decodeInitialize(d *codec.Decoder) (Initialize, error) {
	var m Initialize
	header, err := state.DecodeHeader(d)
	if err != nil {
		return m, err
	}
	m.Header = header

	n, err := d.Sequence()
	if err != nil {
		return m, err
	}
	m.KeyVals = make(merkle.Dictionary, n)
	for i := 0; i < n; i++ {
		keyBytes, err := d.Raw(31)
		if err != nil {
			return m, err
		}
		var key merkle.Key
		copy(key[:], keyBytes)
		value, err := d.VarBytes()
		if err != nil {
			return m, err
		}
		m.KeyVals[i] = merkle.KeyValue{Key: key, Value: value}
	}

	n, err = d.Sequence()
	if err != nil {
		return m, err
	}
	m.Ancestry = make([]crypto.Hash256, n)
	for i := 0; i < n; i++ {
		hb, err := d.Raw(32)
		if err != nil {
			return m, err
		}
		copy(m.Ancestry[i][:], hb)
	}
	return m, nil
}

// EncodeStateRoot returns the framed payload for a state_root message.
func EncodeStateRoot(root crypto.Hash256) []byte {
	e := codec.NewEncoder(33)
	e.Discriminant(byte(TagStateRoot))
	e.Raw(root[:])
	return e.Bytes()
}

func decodeStateRoot(d *codec.Decoder) (crypto.Hash256, error) {
	raw, err := d.Raw(32)
	if err != nil {
		return crypto.Hash256{}, err
	}
	var root crypto.Hash256
	copy(root[:], raw)
	return root, nil
}

// EncodeImportBlock returns the framed payload for an import_block message.
func EncodeImportBlock(b state.Block) []byte {
	e := codec.NewEncoder(1024)
	e.Discriminant(byte(TagImportBlock))
	e.Raw(state.EncodeBlock(b))
	return e.Bytes()
}

func decodeImportBlock(d *codec.Decoder) (state.Block, error) {
	header, err := state.DecodeHeader(d)
	if err != nil {
		return state.Block{}, err
	}
	ex, err := state.DecodeExtrinsic(d)
	if err != nil {
		return state.Block{}, err
	}
	return state.Block{Header: header, Extrinsic: ex}, nil
}

// EncodeGetState returns the framed payload for a get_state message.
func EncodeGetState(headerHash crypto.Hash256) []byte {
	e := codec.NewEncoder(33)
	e.Discriminant(byte(TagGetState))
	e.Raw(headerHash[:])
	return e.Bytes()
}

func decodeGetState(d *codec.Decoder) (crypto.Hash256, error) {
	raw, err := d.Raw(32)
	if err != nil {
		return crypto.Hash256{}, err
	}
	var h crypto.Hash256
	copy(h[:], raw)
	return h, nil
}

// EncodeState returns the framed payload for a state message: a sequence
// of {key, value} entries forming the target's full state dictionary.
func EncodeState(entries merkle.Dictionary) []byte {
	e := codec.NewEncoder(64 + 48*len(entries))
	e.Discriminant(byte(TagState))
	e.Sequence(len(entries))
	for _, kv := range entries {
		e.Raw(kv.Key[:])
		e.VarBytes(kv.Value)
	}
	return e.Bytes()
}

func decodeState(d *codec.Decoder) (merkle.Dictionary, error) {
	n, err := d.Sequence()
	if err != nil {
		return nil, err
	}
	out := make(merkle.Dictionary, n)
	for i := 0; i < n; i++ {
		keyBytes, err := d.Raw(31)
		if err != nil {
			return nil, err
		}
		var key merkle.Key
		copy(key[:], keyBytes)
		value, err := d.VarBytes()
		if err != nil {
			return nil, err
		}
		out[i] = merkle.KeyValue{Key: key, Value: value}
	}
	return out, nil
}

// EncodeError returns the framed payload for an error message: a utf8
// string describing the protocol violation.
func EncodeError(msg string) []byte {
	e := codec.NewEncoder(16 + len(msg))
	e.Discriminant(byte(TagError))
	e.VarBytes([]byte(msg))
	return e.Bytes()
}

func decodeErrorMessage(d *codec.Decoder) (string, error) {
	raw, err := d.VarBytes()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
