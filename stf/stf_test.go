package stf

import (
	"testing"

	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/pvm"
	"github.com/jamzig/jamzig-sub009/state"
	"github.com/stretchr/testify/require"
)

func tinyGenesis(t *testing.T) *state.State {
	t.Helper()
	p := params.Tiny()
	validators := make(state.ValidatorSet, p.ValidatorsCount)
	for i := range validators {
		var seed [32]byte
		seed[0] = byte(i + 1)
		sk := crypto.NewBandersnatchSecretKey(seed)
		validators[i] = state.ValidatorData{Bandersnatch: sk.Public()}
	}
	s, err := state.NewGenesis(validators, p.CoreCount, p.ValidatorsCount)
	require.NoError(t, err)
	s.History = state.RecentHistory{{HeaderHash: crypto.Hash256{0x01}}}
	return s
}

func TestImportBlockEmptyBlockAdvancesSlotAndMerges(t *testing.T) {
	p := params.Tiny()
	pre := tinyGenesis(t)
	o := New(p, &pvm.StubMachine{}, nil)

	block := state.Block{
		Header: state.Header{
			ParentHash:      pre.History[0].HeaderHash,
			ParentStateRoot: crypto.Hash256{0x02},
			Slot:            1,
			BlockEntropy:    crypto.Hash256{0x03},
		},
	}

	post, root, err := o.ImportBlock(pre, block)
	require.NoError(t, err)
	require.NotNil(t, post)
	require.Equal(t, state.TimeSlot(1), post.Slot)
	require.NotEqual(t, crypto.Hash256{}, root)
	require.Len(t, post.History, 2)
	require.Equal(t, crypto.Hash256{0x02}, post.History[0].StateRoot)
	require.Equal(t, block.Header.Hash(), post.History[1].HeaderHash)

	// pre is untouched.
	require.Equal(t, state.TimeSlot(0), pre.Slot)
}

func TestImportBlockRejectsNonAdvancingSlot(t *testing.T) {
	p := params.Tiny()
	pre := tinyGenesis(t)
	pre.Slot = 5
	o := New(p, &pvm.StubMachine{}, nil)

	block := state.Block{Header: state.Header{
		ParentHash: pre.History[0].HeaderHash,
		Slot:       5,
	}}

	_, _, err := o.ImportBlock(pre, block)
	require.ErrorIs(t, err, ErrSlotNotAdvancing)
}

func TestImportBlockRejectsUnknownParent(t *testing.T) {
	p := params.Tiny()
	pre := tinyGenesis(t)
	o := New(p, &pvm.StubMachine{}, nil)

	block := state.Block{Header: state.Header{
		ParentHash: crypto.Hash256{0xff},
		Slot:       1,
	}}

	_, _, err := o.ImportBlock(pre, block)
	require.ErrorIs(t, err, ErrUnknownParent)
}
