package assurances

import "errors"

// Sentinel errors named to match spec.md §7's stable error taxonomy.
var (
	ErrBadValidatorIndex = errors.New("assurances: validator index out of range")
	ErrAssurersNotSorted = errors.New("assurances: assurers not strictly increasing by validator index")
	ErrBadBitfieldLength = errors.New("assurances: bitfield length does not match avail_bitfield_bytes")
	ErrCoreNotEngaged    = errors.New("assurances: bitfield vouches for a core with no pending report")
	ErrBadSignature      = errors.New("assurances: signature verification failed")
	ErrBadParentHash     = errors.New("assurances: assurance parent hash does not match the block's parent")
)
