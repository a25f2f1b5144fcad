package pvm

// StubMachine is a deterministic, dependency-free Machine used by
// accumulation's tests and the block builder's local STF simulation. It
// never touches real bytecode: InvokeF, if set, fully determines the
// result.
type StubMachine struct {
	InvokeF func(req InvokeRequest, host Host) (InvokeResult, error)
}

// Invoke delegates to InvokeF, or returns a zero-gas Halt with untouched
// registers when InvokeF is nil. Tests that want strictness set InvokeF to
// a closure that fails.
func (m *StubMachine) Invoke(req InvokeRequest, host Host) (InvokeResult, error) {
	if m.InvokeF != nil {
		return m.InvokeF(req, host)
	}
	return InvokeResult{Registers: req.InitialRegisters, Status: StatusHalt}, nil
}
