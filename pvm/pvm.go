// Package pvm declares the host-callable machine interface Accumulation
// invokes a service's refine/accumulate/on_transfer entry points through
// (spec.md §6). The PVM bytecode interpreter itself is explicitly out of
// scope (spec.md §1): this package only fixes the shape of one invocation
// and its host-call surface, so Accumulation can be written and tested
// against any Machine implementation without depending on a concrete
// interpreter.
package pvm

import (
	"github.com/holiman/uint256"
	"github.com/jamzig/jamzig-sub009/crypto"
	"github.com/jamzig/jamzig-sub009/state"
)

// Status is the terminal condition of one PVM invocation (spec.md §6).
type Status uint8

const (
	StatusHalt Status = iota
	StatusPanic
	StatusOutOfGas
	StatusPageFault
	StatusHostCall
)

// Registers is the fixed 13-register PVM register file.
type Registers [13]uint64

// MemoryPage is one page of initial memory supplied to an invocation.
type MemoryPage struct {
	Index uint32
	Data  []byte
}

// MemoryDelta is one page's worth of memory mutation an invocation produced.
type MemoryDelta struct {
	PageIndex uint32
	Offset    uint32
	Data      []byte
}

// InvokeRequest bundles everything one PVM invocation needs (spec.md §6):
// the program image, entry point, initial register file, initial memory
// pages, and a gas budget that bounds the call.
type InvokeRequest struct {
	Program          []byte
	EntryPoint       uint32
	InitialRegisters Registers
	InitialMemory    []MemoryPage
	GasLimit         uint64
}

// InvokeResult is the outcome of one PVM invocation (spec.md §6).
type InvokeResult struct {
	Registers    Registers
	MemoryDeltas []MemoryDelta
	GasUsed      uint64
	Status       Status
	// FaultAddr is meaningful only when Status == StatusPageFault.
	FaultAddr uint64
	// HostCallID is meaningful only when Status == StatusHostCall.
	HostCallID uint32
}

// Host is the accumulation-side callback surface a running program reaches
// through host calls (spec.md §4.6/§6): reads and writes of the invoking
// service's own storage and preimage maps, service creation, and emitting a
// transfer to another service. Every write lands in δ′, never δ.
type Host interface {
	ReadStorage(service state.ServiceID, key crypto.Hash256) ([]byte, bool)
	WriteStorage(service state.ServiceID, key crypto.Hash256, value []byte)
	ReadPreimage(service state.ServiceID, hash crypto.Hash256) ([]byte, bool)
	WritePreimageStatus(service state.ServiceID, hash crypto.Hash256, status state.PreimageStatus)
	CreateService(codeHash crypto.Hash256, minGasAccumulate, minGasOnTransfer *uint256.Int) state.ServiceID
	EmitTransfer(to state.ServiceID, amount *uint256.Int, gas uint64, data []byte)
}

// Machine is the opaque PVM façade Accumulation depends on. Production
// deployments wire in a real bytecode interpreter; this package ships only
// the interface plus a deterministic stub (stub.go) used by tests and the
// block builder's local STF simulation.
type Machine interface {
	Invoke(req InvokeRequest, host Host) (InvokeResult, error)
}
