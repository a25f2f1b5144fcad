package disputes

import "errors"

// Sentinel errors named to match spec.md §7's stable error taxonomy.
var (
	ErrBadSignature            = errors.New("disputes: signature verification failed")
	ErrOffendersNotInValidators = errors.New("disputes: offender key not in current or previous validator set")
	ErrVerdictAlreadyResolved  = errors.New("disputes: verdict target already resolved")
	ErrQuorumNotMet            = errors.New("disputes: verdict judgement count below quorum")
	ErrJudgementsNotSorted     = errors.New("disputes: verdict judgements not strictly sorted by validator index")
	ErrBadAgeOfJudgement       = errors.New("disputes: verdict epoch index out of range")
	ErrUnknownVerdictTarget    = errors.New("disputes: culprit or fault targets a report with no resolved verdict")
	ErrFaultDoesNotContradict  = errors.New("disputes: fault vote agrees with the resolved verdict")
	ErrCulpritTargetNotBad     = errors.New("disputes: culprit targets a report not judged bad")
)
