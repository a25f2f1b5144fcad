package accumulation

import "errors"

// Sentinel errors named to match spec.md §7's stable error taxonomy.
var (
	ErrUnknownService          = errors.New("accumulation: report targets an unknown service")
	ErrMachineFailure          = errors.New("accumulation: pvm machine returned a transport-level error")
	ErrServiceUnknown          = errors.New("accumulation: preimage targets an unknown service")
	ErrPreimageAlreadyProvided = errors.New("accumulation: preimage already provided for this hash")
)
