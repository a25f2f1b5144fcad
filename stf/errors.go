package stf

import "errors"

// Sentinel errors for the orchestration-level checks that don't belong to
// any one subsystem (spec.md §4.9 step 1 and the merge/root step 12).
var (
	// ErrSlotNotAdvancing is returned when a block's header slot does not
	// strictly exceed the pre-state's τ (spec.md §4.9 step 1).
	ErrSlotNotAdvancing = errors.New("stf: header slot does not advance time")
	// ErrUnknownParent is returned when a block's ParentHash does not match
	// the pre-state's most recent history entry.
	ErrUnknownParent = errors.New("stf: block parent does not match recent history head")
)
