package models

import (
	"math/big"
	"time"
)

// EventKind enumerates ownership-change notifications emitted by the engine.
type EventKind string

const (
	EventEggsMinted     EventKind = "eggs_minted"
	EventEggsBurned     EventKind = "eggs_burned"
	EventAntMinted      EventKind = "ant_minted"
	EventAntTransferred EventKind = "ant_transferred"
	EventAntDied        EventKind = "ant_died"
	EventAntSold        EventKind = "ant_sold"
)

// LedgerEvent is a single ownership change. From is empty for mints and To is
// empty for burns, mirroring token transfer logs. Amount counts eggs for egg
// events and wei for sales.
type LedgerEvent struct {
	Seq        uint64    `json:"seq"`
	Kind       EventKind `json:"kind"`
	From       Address   `json:"from,omitempty"`
	To         Address   `json:"to,omitempty"`
	AntID      AntID     `json:"ant_id,omitempty"`
	Amount     *big.Int  `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
