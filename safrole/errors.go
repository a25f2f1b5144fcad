package safrole

import "errors"

// Sentinel errors named to match spec.md §7's stable error taxonomy.
var (
	ErrUnexpectedTicket        = errors.New("safrole: unexpected ticket after submission deadline")
	ErrBadTicketAttempt        = errors.New("safrole: ticket attempt out of range")
	ErrTooManyTicketsInExtrinsic = errors.New("safrole: too many tickets in extrinsic")
	ErrBadTicketProof          = errors.New("safrole: ticket ring-VRF proof failed verification")
	ErrBadTicketOrder          = errors.New("safrole: ticket ids not strictly increasing")
	ErrDuplicateTicket         = errors.New("safrole: duplicate ticket id")
)
