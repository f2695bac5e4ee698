package domain

import "errors"

var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrInvalidDepositAmount    = errors.New("invalid deposit amount")
	ErrInvalidHypeAmount       = errors.New("invalid hype amount")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrNotFound                = errors.New("resource not found")
	ErrConflict                = errors.New("conflict")
	ErrIdempotencyConflict     = errors.New("idempotency conflict")
	ErrPoolExists              = errors.New("pool already exists for post")
	ErrPoolBusy                = errors.New("pool is locked by another operation")
	ErrTreasuryNotInitialized  = errors.New("treasury not initialized")
	ErrSlippageExceeded        = errors.New("slippage exceeded")
	ErrInsufficientHypeReserve = errors.New("insufficient hype reserve in the pool")
	ErrInsufficientHypeBalance = errors.New("insufficient hype balance")
	ErrInsufficientBaseReserve = errors.New("insufficient base reserve in the pool")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrArithmeticOverflow      = errors.New("arithmetic overflow")
	ErrAmountTooLarge          = errors.New("amount exceeds maximum allowed value")
	ErrInvariantViolated       = errors.New("ledger invariant violated")
	ErrUnsupportedEventType    = errors.New("unsupported event type")
	ErrInvalidEnvelope         = errors.New("invalid envelope")
)

// IsFatal reports whether err belongs to the arithmetic-boundary class: the
// attempt aborted because the curve or an amount left its representable range.
func IsFatal(err error) bool {
	return errors.Is(err, ErrArithmeticOverflow) ||
		errors.Is(err, ErrAmountTooLarge) ||
		errors.Is(err, ErrInvariantViolated)
}
