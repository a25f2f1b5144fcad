package accumulation

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/delta"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/pvm"
	"github.com/jamzig/jamzig-sub009/state"
	"github.com/stretchr/testify/require"
)

func baseState(t *testing.T) *state.State {
	t.Helper()
	s := &state.State{
		Services: state.Services{
			1: func() *state.ServiceAccount {
				a := state.NewServiceAccount()
				a.Balance = uint256.NewInt(1000)
				a.MinGasAccumulate = uint256.NewInt(100)
				a.MinGasOnTransfer = uint256.NewInt(50)
				return a
			}(),
			2: func() *state.ServiceAccount {
				a := state.NewServiceAccount()
				a.Balance = uint256.NewInt(1000)
				a.MinGasAccumulate = uint256.NewInt(100)
				a.MinGasOnTransfer = uint256.NewInt(50)
				return a
			}(),
		},
		Statistics: state.NewStatistics(6, 2),
	}
	return s
}

func reportFor(serviceID uint32) state.WorkReport {
	return state.WorkReport{
		Results: []state.WorkResult{{ServiceID: serviceID, Status: state.WorkResultOK}},
	}
}

func TestAccumulateInvokesEachServiceOnce(t *testing.T) {
	d := delta.New(baseState(t))
	calls := 0
	vm := &pvm.StubMachine{InvokeF: func(req pvm.InvokeRequest, host pvm.Host) (pvm.InvokeResult, error) {
		calls++
		return pvm.InvokeResult{GasUsed: 10, Status: pvm.StatusHalt}, nil
	}}

	root, err := Accumulate(params.Tiny(), d, vm, 5, []state.WorkReport{reportFor(1), reportFor(2)})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.NotEqual(t, crypto.Hash256{}, root)

	stats := d.GetStatistics()
	require.Equal(t, uint32(1), stats.Services[1].AccumulateCalls)
	require.Equal(t, uint64(10), stats.Services[1].AccumulateGasUsed)
}

func TestAccumulateSetsLastAccumulationSlotExceptNewlyCreated(t *testing.T) {
	d := delta.New(baseState(t))
	var created state.ServiceID
	vm := &pvm.StubMachine{InvokeF: func(req pvm.InvokeRequest, host pvm.Host) (pvm.InvokeResult, error) {
		created = host.CreateService(crypto.Hash256{0xaa}, uint256.NewInt(1), uint256.NewInt(1))
		return pvm.InvokeResult{Status: pvm.StatusHalt}, nil
	}}

	_, err := Accumulate(params.Tiny(), d, vm, 7, []state.WorkReport{reportFor(1)})
	require.NoError(t, err)

	services := d.GetServices()
	require.Equal(t, uint32(7), services[1].LastAccumulationSlot)
	// The newly created service was never "touched" via a result entry in
	// this batch, so it keeps its zero LastAccumulationSlot.
	require.NotZero(t, created)
	require.Zero(t, services[created].LastAccumulationSlot)
}

func TestAccumulateDrainsTransfersFIFOAfterAccumulateCalls(t *testing.T) {
	d := delta.New(baseState(t))
	var order []string
	vm := &pvm.StubMachine{InvokeF: func(req pvm.InvokeRequest, host pvm.Host) (pvm.InvokeResult, error) {
		if len(order) == 0 {
			order = append(order, "accumulate:1")
			host.EmitTransfer(2, uint256.NewInt(5), 10, nil)
		} else {
			order = append(order, "transfer:2")
		}
		return pvm.InvokeResult{GasUsed: 1, Status: pvm.StatusHalt}, nil
	}}

	_, err := Accumulate(params.Tiny(), d, vm, 1, []state.WorkReport{reportFor(1)})
	require.NoError(t, err)
	require.Equal(t, []string{"accumulate:1", "transfer:2"}, order)

	stats := d.GetStatistics()
	require.Equal(t, uint32(1), stats.Services[2].TransferCalls)

	services := d.GetServices()
	require.Equal(t, uint64(995), services[1].Balance.Uint64())
	require.Equal(t, uint64(1005), services[2].Balance.Uint64())
}

func TestAccumulateTransferConveysEnvelope(t *testing.T) {
	d := delta.New(baseState(t))
	payload := []byte("memo")
	var got pvm.InvokeRequest
	calls := 0
	vm := &pvm.StubMachine{InvokeF: func(req pvm.InvokeRequest, host pvm.Host) (pvm.InvokeResult, error) {
		calls++
		if calls == 1 {
			host.EmitTransfer(2, uint256.NewInt(7), 10, payload)
		} else {
			got = req
		}
		return pvm.InvokeResult{Status: pvm.StatusHalt}, nil
	}}

	_, err := Accumulate(params.Tiny(), d, vm, 1, []state.WorkReport{reportFor(1)})
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	// The on_transfer invocation carries the envelope: sender, recipient,
	// amount, and the data bytes in memory page 0.
	require.Equal(t, uint64(1), got.InitialRegisters[7])
	require.Equal(t, uint64(2), got.InitialRegisters[8])
	require.Equal(t, uint64(7), got.InitialRegisters[9])
	require.Equal(t, uint64(len(payload)), got.InitialRegisters[10])
	require.Len(t, got.InitialMemory, 1)
	require.Equal(t, payload, got.InitialMemory[0].Data)
}

func TestAccumulateUnderfundedTransferIsVoided(t *testing.T) {
	d := delta.New(baseState(t))
	calls := 0
	vm := &pvm.StubMachine{InvokeF: func(req pvm.InvokeRequest, host pvm.Host) (pvm.InvokeResult, error) {
		calls++
		if calls == 1 {
			host.EmitTransfer(2, uint256.NewInt(5000), 10, nil)
		}
		return pvm.InvokeResult{Status: pvm.StatusHalt}, nil
	}}

	_, err := Accumulate(params.Tiny(), d, vm, 1, []state.WorkReport{reportFor(1)})
	require.NoError(t, err)
	// The recipient is never invoked and no balance moves.
	require.Equal(t, 1, calls)
	services := d.GetServices()
	require.Equal(t, uint64(1000), services[1].Balance.Uint64())
	require.Equal(t, uint64(1000), services[2].Balance.Uint64())
	require.Zero(t, d.GetStatistics().Services[2].TransferCalls)
}

func TestAccumulateInsufficientGasIsNonFatal(t *testing.T) {
	d := delta.New(baseState(t))
	vm := &pvm.StubMachine{InvokeF: func(req pvm.InvokeRequest, host pvm.Host) (pvm.InvokeResult, error) {
		return pvm.InvokeResult{Status: pvm.StatusOutOfGas}, nil
	}}

	_, err := Accumulate(params.Tiny(), d, vm, 1, []state.WorkReport{reportFor(1)})
	require.NoError(t, err)
}

func TestAccumulateMachineFailureAborts(t *testing.T) {
	d := delta.New(baseState(t))
	vm := &pvm.StubMachine{InvokeF: func(req pvm.InvokeRequest, host pvm.Host) (pvm.InvokeResult, error) {
		return pvm.InvokeResult{}, ErrMachineFailure
	}}

	_, err := Accumulate(params.Tiny(), d, vm, 1, []state.WorkReport{reportFor(1)})
	require.ErrorIs(t, err, ErrMachineFailure)
}
