package models

import (
	"math/big"
	"strings"
	"time"
)

// Address identifies an account holder. Caller identity is supplied by the
// invoking environment and trusted as-is.
type Address string

// AntID is the sequential identifier of an Ant. Zero is never issued.
type AntID uint64

// Ant is one entry of the ant arena. Dead ants stay in the arena as tombstones
// so their identifier can never be handed out again.
type Ant struct {
	ID          AntID     `bson:"id" json:"id"`
	Owner       Address   `bson:"owner" json:"owner"`
	Alive       bool      `bson:"alive" json:"alive"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	LastLayTime time.Time `bson:"last_lay_time" json:"last_lay_time"`
	HasLaid     bool      `bson:"has_laid" json:"has_laid"`
}

// LayResult reports the outcome of a single laying event.
type LayResult struct {
	AntID    AntID  `json:"ant_id"`
	EggsLaid uint64 `json:"eggs_laid"`
	Died     bool   `json:"died"`
}

// EconomyStats holds running totals maintained by the engine. Revenue and
// Payouts are in wei.
type EconomyStats struct {
	EggsPurchased uint64   `json:"eggs_purchased"`
	EggsLaid      uint64   `json:"eggs_laid"`
	AntsMinted    uint64   `json:"ants_minted"`
	AntsDied      uint64   `json:"ants_died"`
	AntsSold      uint64   `json:"ants_sold"`
	Revenue       *big.Int `json:"revenue"`
	Payouts       *big.Int `json:"payouts"`
}

// Clone returns a copy that shares no amounts with s.
func (s EconomyStats) Clone() EconomyStats {
	out := s
	out.Revenue = cloneAmount(s.Revenue)
	out.Payouts = cloneAmount(s.Payouts)
	return out
}

// Holdings is a consistent view of what one address owns.
type Holdings struct {
	Owner Address `json:"address"`
	Eggs  uint64  `json:"eggs"`
	Ants  []Ant   `json:"ants"`
}

// NormalizeAddress canonicalises caller supplied addresses so that header,
// path and command inputs agree.
func NormalizeAddress(raw string) Address {
	return Address(strings.ToLower(strings.TrimSpace(raw)))
}

func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
