package blockbuilder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamzig/jamzig-sub009/codec"
	"github.com/jamzig/jamzig-sub009/conformance"
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/merkle"
	"github.com/jamzig/jamzig-sub009/state"
)

// Trace directory layout, matching the recorded W3F/JAMDUNA trace shape
// spec.md §4.12 replays: the genesis in pre_state.bin, one codec-encoded
// block per blocks/NNNN.bin, and the expected post-roots concatenated in
// post_roots.bin.
const (
	preStateFile  = "pre_state.bin"
	postRootsFile = "post_roots.bin"
	blocksDir     = "blocks"
)

// SaveTrace writes tr under dir, creating it (and blocks/) as needed.
func SaveTrace(dir string, tr conformance.Trace) error {
	if err := os.MkdirAll(filepath.Join(dir, blocksDir), 0o755); err != nil {
		return err
	}

	e := codec.NewEncoder(1024)
	e.Raw(state.EncodeHeader(tr.GenesisHeader))
	e.Raw(tr.GenesisRoot[:])
	e.Sequence(len(tr.GenesisState))
	for _, kv := range tr.GenesisState {
		e.Raw(kv.Key[:])
		e.VarBytes(kv.Value)
	}
	if err := os.WriteFile(filepath.Join(dir, preStateFile), e.Bytes(), 0o644); err != nil {
		return err
	}

	for i, b := range tr.Blocks {
		name := filepath.Join(dir, blocksDir, fmt.Sprintf("%04d.bin", i+1))
		if err := os.WriteFile(name, state.EncodeBlock(b), 0o644); err != nil {
			return err
		}
	}

	roots := make([]byte, 0, 32*len(tr.PostRoots))
	for _, r := range tr.PostRoots {
		roots = append(roots, r[:]...)
	}
	return os.WriteFile(filepath.Join(dir, postRootsFile), roots, 0o644)
}

// LoadTrace reads a trace directory written by SaveTrace (or recorded by
// an external tool using the same layout) back into memory.
func LoadTrace(dir string) (conformance.Trace, error) {
	var tr conformance.Trace

	raw, err := os.ReadFile(filepath.Join(dir, preStateFile))
	if err != nil {
		return tr, err
	}
	d := codec.NewDecoder(raw)
	if tr.GenesisHeader, err = state.DecodeHeader(d); err != nil {
		return tr, err
	}
	rootBytes, err := d.Raw(32)
	if err != nil {
		return tr, err
	}
	copy(tr.GenesisRoot[:], rootBytes)
	n, err := d.Sequence()
	if err != nil {
		return tr, err
	}
	tr.GenesisState = make(merkle.Dictionary, n)
	for i := 0; i < n; i++ {
		keyBytes, err := d.Raw(merkle.KeySize)
		if err != nil {
			return tr, err
		}
		copy(tr.GenesisState[i].Key[:], keyBytes)
		if tr.GenesisState[i].Value, err = d.VarBytes(); err != nil {
			return tr, err
		}
	}

	for i := 1; ; i++ {
		raw, err := os.ReadFile(filepath.Join(dir, blocksDir, fmt.Sprintf("%04d.bin", i)))
		if os.IsNotExist(err) {
			break
		}
		if err != nil {
			return tr, err
		}
		b, err := state.DecodeBlock(raw)
		if err != nil {
			return tr, err
		}
		tr.Blocks = append(tr.Blocks, b)
	}

	rootsRaw, err := os.ReadFile(filepath.Join(dir, postRootsFile))
	if err != nil {
		return tr, err
	}
	if len(rootsRaw)%32 != 0 {
		return tr, codec.ErrInvalidFormat
	}
	tr.PostRoots = make([]crypto.Hash256, len(rootsRaw)/32)
	for i := range tr.PostRoots {
		copy(tr.PostRoots[i][:], rootsRaw[i*32:])
	}
	return tr, nil
}
