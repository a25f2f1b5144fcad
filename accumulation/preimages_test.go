package accumulation

import (
	"testing"

	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/delta"
	"github.com/jamzig/jamzig-sub009/state"
	"github.com/stretchr/testify/require"
)

func TestProcessPreimagesExtrinsicStoresBlobAndSlot(t *testing.T) {
	d := delta.New(baseState(t))
	blob := []byte("hello jam")

	err := ProcessPreimagesExtrinsic(d, 3, state.PreimagesExtrinsic{
		{ServiceID: 1, Blob: blob},
	})
	require.NoError(t, err)

	services := d.GetServices()
	hash := crypto.Blake2b256(blob)
	stored, ok := services[1].Storage[hash]
	require.True(t, ok)
	require.Equal(t, blob, stored)
	require.Equal(t, []uint32{3}, services[1].PreimageLookups[hash].Slots)
}

func TestProcessPreimagesExtrinsicRejectsUnknownService(t *testing.T) {
	d := delta.New(baseState(t))
	err := ProcessPreimagesExtrinsic(d, 1, state.PreimagesExtrinsic{
		{ServiceID: 99, Blob: []byte("x")},
	})
	require.ErrorIs(t, err, ErrServiceUnknown)
}

func TestProcessPreimagesExtrinsicRejectsDuplicate(t *testing.T) {
	d := delta.New(baseState(t))
	blob := []byte("dup")
	require.NoError(t, ProcessPreimagesExtrinsic(d, 1, state.PreimagesExtrinsic{
		{ServiceID: 1, Blob: blob},
	}))
	err := ProcessPreimagesExtrinsic(d, 2, state.PreimagesExtrinsic{
		{ServiceID: 1, Blob: blob},
	})
	require.ErrorIs(t, err, ErrPreimageAlreadyProvided)
}

func TestProcessPreimagesExtrinsicEmptyIsNoop(t *testing.T) {
	d := delta.New(baseState(t))
	require.NoError(t, ProcessPreimagesExtrinsic(d, 1, nil))
}
