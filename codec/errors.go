package codec

import "errors"

// Sentinel errors returned by the codec, named to match the stable error
// taxonomy in spec.md §7 so the conformance harness can surface them
// verbatim.
var (
	// ErrInvalidFormat is returned when a decoded value violates a type's
	// own constraints (e.g. a discriminant naming a variant with the wrong
	// trailing shape).
	ErrInvalidFormat = errors.New("codec: invalid format")
	// ErrUnexpectedEnd is returned when the input is shorter than the
	// value being decoded requires.
	ErrUnexpectedEnd = errors.New("codec: unexpected end of input")
	// ErrDiscriminantOutOfRange is returned when a sum-type discriminant
	// byte does not name a known variant.
	ErrDiscriminantOutOfRange = errors.New("codec: discriminant out of range")
	// ErrKeysNotSorted is returned when an ordered-dictionary payload's
	// keys are not strictly increasing.
	ErrKeysNotSorted = errors.New("codec: keys not sorted")
)
