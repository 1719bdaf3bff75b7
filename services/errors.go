package services

import "errors"

var (
	// ErrNotFound signals a read-then-act path that found nothing to
	// act on. Handlers translate it to a benign not-found response.
	ErrNotFound = errors.New("favordesk: ticket not found")

	// ErrInvalidTransition signals a lifecycle or tag operation on a
	// ticket that is not in a state the operation accepts.
	ErrInvalidTransition = errors.New("favordesk: invalid state transition")

	// ErrTipTooLow rejects priority submissions below the configured
	// minimum tip.
	ErrTipTooLow = errors.New("favordesk: tip below priority lane minimum")

	// ErrCounterUnavailable aborts number assignment when the counter
	// row cannot be read back after insertion. Numbers must never come
	// from a phantom counter; the caller retries.
	ErrCounterUnavailable = errors.New("favordesk: counter record unavailable")
)
