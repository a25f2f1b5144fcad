package conformance

import (
	"errors"
	"fmt"

	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/merkle"
	"github.com/jamzig/jamzig-sub009/state"
)

// ErrInitialStateRootMismatch is returned by RunTrace when the target's
// genesis root disagrees before any block has been imported.
var ErrInitialStateRootMismatch = errors.New("conformance: initial state root mismatch")

// RootMismatchError reports the first diverging block of a trace run
// (spec.md §7: StateRootMismatch carries {block_number, expected, got}).
type RootMismatchError struct {
	BlockNumber int
	Expected    crypto.Hash256
	Got         crypto.Hash256
}

func (e *RootMismatchError) Error() string {
	return fmt.Sprintf("conformance: state root mismatch at block %d: expected %x, got %x",
		e.BlockNumber, e.Expected, e.Got)
}

// Trace is a pre-computed reference run: a genesis (header + state
// dictionary + its root) and the block sequence with the post-root each
// block must produce. blockbuilder synthesizes traces; LoadTrace reads
// recorded ones from disk.
type Trace struct {
	GenesisHeader state.Header
	GenesisState  merkle.Dictionary
	GenesisRoot   crypto.Hash256
	Blocks        []state.Block
	PostRoots     []crypto.Hash256
}

// RunTrace drives tr through the session and compares every reported root
// against the reference, returning the number of blocks that matched. The
// genesis root is checked first (ErrInitialStateRootMismatch); the first
// diverging block aborts with a *RootMismatchError identifying it, so the
// caller can follow up with GetState for diagnostics. shouldStop is polled
// between blocks as in Run.
func (s *Session) RunTrace(tr Trace, shouldStop func() bool) (int, error) {
	root, err := s.SetState(tr.GenesisHeader, tr.GenesisState, nil)
	if err != nil {
		return 0, err
	}
	if root != tr.GenesisRoot {
		return 0, fmt.Errorf("%w: expected %x, got %x", ErrInitialStateRootMismatch, tr.GenesisRoot, root)
	}
	for i, b := range tr.Blocks {
		if shouldStop != nil && shouldStop() {
			s.state = StateEnded
			return i, nil
		}
		got, err := s.ImportBlock(b)
		if err != nil {
			s.state = StateEnded
			return i, err
		}
		if i < len(tr.PostRoots) && got != tr.PostRoots[i] {
			s.state = StateEnded
			mismatch := &RootMismatchError{BlockNumber: i + 1, Expected: tr.PostRoots[i], Got: got}
			s.stats.LastError = mismatch
			return i, mismatch
		}
	}
	s.state = StateEnded
	return len(tr.Blocks), nil
}
