package economy

import "errors"

// Validation failures. Every one of them leaves the engine state untouched.
var (
	ErrInsufficientPayment = errors.New("you have to pay for those eggs")
	ErrInvalidQuantity     = errors.New("egg quantity must be positive")
	ErrNoEggsAvailable     = errors.New("no eggs available to create an ant")
	ErrAntNotFound         = errors.New("ant not found")
	ErrNotOwner            = errors.New("caller does not own this ant")
	ErrCooldownActive      = errors.New("you have to wait")
	ErrInvalidCaller       = errors.New("caller address is required")
	ErrInvalidRecipient    = errors.New("recipient address is required")
	ErrSupplyExhausted     = errors.New("egg supply would overflow")
)
