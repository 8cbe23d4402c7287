package ledger

import "errors"

var (
	// ErrNotMinter is returned when anyone but the configured authority tries to
	// mutate a ledger.
	ErrNotMinter = errors.New("only the ants contract can call this function, please refer to the ants contract")

	// ErrInsufficientEggs prevents a burn from driving a balance negative.
	ErrInsufficientEggs = errors.New("insufficient egg balance")

	// ErrAntNotFound covers unknown identifiers and tombstoned ants.
	ErrAntNotFound = errors.New("ant not found")

	// ErrInvalidOwner rejects an empty recipient address.
	ErrInvalidOwner = errors.New("invalid owner address")

	// ErrSupplyOverflow guards the uint64 counters.
	ErrSupplyOverflow = errors.New("supply overflow")
)
