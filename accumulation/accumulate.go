package accumulation

import (
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/delta"
	"github.com/jamzig/jamzig-sub009/merkle"
	"github.com/jamzig/jamzig-sub009/params"
	"github.com/jamzig/jamzig-sub009/pvm"
	"github.com/jamzig/jamzig-sub009/state"
)

// Accumulate invokes the accumulate entry point of every service named by a
// newly-available report's results, then drains any transfers those calls
// emitted as on_transfer invocations, in FIFO order (spec.md §4.6). Each
// drained transfer moves its amount from the sender's balance to the
// recipient's before the recipient's on_transfer entry point runs. It
// returns the block's accumulate_root: the Merkleisation, in service-id
// order, of every touched service's state-dictionary output root.
//
// reports must already be in core-ascending order (assurances.
// ProcessAssurancesExtrinsic guarantees this). A call that runs out of gas
// is counted in the service statistics with the gas it used, like any other
// call, and does not fail the block (spec.md §7); only a transport-level
// Machine error aborts the transition.
func Accumulate(p params.Params, d *delta.Delta, vm pvm.Machine, currentSlot uint32, reports []state.WorkReport) (crypto.Hash256, error) {
	_ = p
	services := d.GetServices()
	var nextID state.ServiceID
	for id := range services {
		if id >= nextID {
			nextID = id + 1
		}
	}
	host := newDeltaHost(d, nextID, currentSlot)

	for _, report := range reports {
		for _, res := range report.Results {
			sid := state.ServiceID(res.ServiceID)
			if err := invokeAccumulate(d, host, vm, sid); err != nil {
				return crypto.Hash256{}, err
			}
		}
	}

	if err := drainTransfers(d, host, vm); err != nil {
		return crypto.Hash256{}, err
	}

	applyLastAccumulationSlot(d, host, currentSlot)

	return computeAccumulateRoot(d, host)
}

func invokeAccumulate(d *delta.Delta, host *deltaHost, vm pvm.Machine, sid state.ServiceID) error {
	services := *d.EnsureServices()
	acct, ok := services[sid]
	if !ok {
		return nil
	}
	host.current = sid
	req := pvm.InvokeRequest{
		Program:    acct.CodeHash[:],
		EntryPoint: 0,
		GasLimit:   acct.MinGasAccumulate.Uint64(),
	}
	result, err := vm.Invoke(req, host)
	if err != nil {
		return ErrMachineFailure
	}
	host.touched[sid] = struct{}{}
	recordAccumulateCall(d, sid, result)
	return nil
}

func drainTransfers(d *delta.Delta, host *deltaHost, vm pvm.Machine) error {
	for i := 0; i < len(host.transfers); i++ {
		t := host.transfers[i]
		services := *d.EnsureServices()
		recipient, ok := services[t.To]
		if !ok {
			continue
		}
		sender, ok := services[t.From]
		// A vanished or underfunded sender voids the transfer: no balance
		// moves and the recipient is not invoked.
		if !ok || sender.Balance.Lt(t.Amount) {
			continue
		}
		sender.Balance.Sub(sender.Balance, t.Amount)
		recipient.Balance.Add(recipient.Balance, t.Amount)
		host.touched[t.From] = struct{}{}

		host.current = t.To
		req := pvm.InvokeRequest{
			Program:          recipient.CodeHash[:],
			EntryPoint:       0,
			InitialRegisters: transferRegisters(t),
			InitialMemory:    transferMemory(t.Data),
			GasLimit:         recipient.MinGasOnTransfer.Uint64(),
		}
		result, err := vm.Invoke(req, host)
		if err != nil {
			return ErrMachineFailure
		}
		host.touched[t.To] = struct{}{}
		recordTransferCall(d, t.To, result)
	}
	return nil
}

// transferRegisters seeds the on_transfer register file with the transfer
// envelope: r7 sender, r8 recipient, r9 the amount's low 64 bits, r10 the
// data length. The data bytes themselves arrive in memory page 0.
func transferRegisters(t pendingTransfer) pvm.Registers {
	var regs pvm.Registers
	regs[7] = uint64(t.From)
	regs[8] = uint64(t.To)
	regs[9] = t.Amount.Uint64()
	regs[10] = uint64(len(t.Data))
	return regs
}

func transferMemory(data []byte) []pvm.MemoryPage {
	if len(data) == 0 {
		return nil
	}
	return []pvm.MemoryPage{{Index: 0, Data: append([]byte(nil), data...)}}
}

func recordAccumulateCall(d *delta.Delta, sid state.ServiceID, result pvm.InvokeResult) {
	stats := d.EnsureStatistics()
	ss := stats.Services[sid]
	ss.AccumulateGasUsed += result.GasUsed
	ss.AccumulateCalls++
	stats.Services[sid] = ss
}

func recordTransferCall(d *delta.Delta, sid state.ServiceID, result pvm.InvokeResult) {
	stats := d.EnsureStatistics()
	ss := stats.Services[sid]
	ss.TransferGasUsed += result.GasUsed
	ss.TransferCalls++
	stats.Services[sid] = ss
}

// applyLastAccumulationSlot sets LastAccumulationSlot on every touched
// service for currentSlot, except one created in the same slot (spec.md
// §4.6: "except services created in the same slot").
func applyLastAccumulationSlot(d *delta.Delta, host *deltaHost, currentSlot uint32) {
	if len(host.touched) == 0 {
		return
	}
	services := *d.EnsureServices()
	for sid := range host.touched {
		acct, ok := services[sid]
		if !ok || acct.CreationSlot == currentSlot {
			continue
		}
		acct.LastAccumulationSlot = currentSlot
	}
}

// computeAccumulateRoot Merkleises the touched services' state-dictionary
// output roots in ascending service-id order (spec.md §4.6).
func computeAccumulateRoot(d *delta.Delta, host *deltaHost) (crypto.Hash256, error) {
	services := *d.EnsureServices()
	ids := make([]state.ServiceID, 0, len(host.touched))
	for sid := range host.touched {
		ids = append(ids, sid)
	}
	sortServiceIDsAsc(ids)
	leaves := make([]crypto.Hash256, 0, len(ids))
	for _, sid := range ids {
		acct, ok := services[sid]
		if !ok {
			continue
		}
		leaves = append(leaves, merkle.ServiceOutputRoot(acct))
	}
	return merkle.ListRoot(leaves), nil
}

func sortServiceIDsAsc(ids []state.ServiceID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
