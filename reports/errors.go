package reports

import "errors"

// Sentinel errors named to match spec.md §7's stable error taxonomy.
var (
	ErrBadCoreIndex            = errors.New("reports: core index out of range")
	ErrDuplicateCoreInBlock    = errors.New("reports: more than one report for the same core in this block")
	ErrUnknownAnchor           = errors.New("reports: context anchor not present in recent history")
	ErrAnchorStateRootMismatch = errors.New("reports: context anchor state root does not match recent history")
	ErrAuthorizerNotInPool     = errors.New("reports: authorizer hash not present in the core's authorization pool")
	ErrContextOutOfWindow      = errors.New("reports: context timeslot outside the guarantor rotation window")
	ErrTooFewGuarantors        = errors.New("reports: fewer than the minimum number of guarantor signatures")
	ErrTooManyGuarantors       = errors.New("reports: more than the maximum number of guarantor signatures")
	ErrSignersNotSorted        = errors.New("reports: guarantor signatures not strictly sorted by validator index")
	ErrSignerNotAssignedToCore = errors.New("reports: guarantor not assigned to the reported core for this rotation")
	ErrBadSignature            = errors.New("reports: guarantee signature verification failed")
	ErrDuplicatePackageHash    = errors.New("reports: duplicate work-package hash across guarantees")
)
