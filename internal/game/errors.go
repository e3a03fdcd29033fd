package game

import "errors"

// Rejection reasons. Clients never see these; the transport drops rejected
// actions silently and only logs the reason.
var (
	ErrUnknownSeat         = errors.New("unknown seat")
	ErrSeatTaken           = errors.New("seat taken by another connection")
	ErrNotSeatOwner        = errors.New("connection does not own seat")
	ErrWrongPhase          = errors.New("action not allowed in current phase")
	ErrInvalidAmount       = errors.New("bet amount must be a positive whole number")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSideNotAllowed      = errors.New("side not allowed for seat role")
	ErrInvalidSide         = errors.New("invalid side")
	ErrRollNotAllowed      = errors.New("roll not allowed")
)
