package models

import (
	"math/big"
	"time"
)

// EconomyReport represents the aggregated activity of one reporting window.
// Revenue, Payouts and Treasury are in wei.
type EconomyReport struct {
	Date          time.Time `json:"date"`
	EggsPurchased uint64    `json:"eggs_purchased"`
	EggsLaid      uint64    `json:"eggs_laid"`
	AntsMinted    uint64    `json:"ants_minted"`
	AntsDied      uint64    `json:"ants_died"`
	AntsSold      uint64    `json:"ants_sold"`
	Revenue       *big.Int  `json:"revenue"`
	Payouts       *big.Int  `json:"payouts"`
	Treasury      *big.Int  `json:"treasury"`
	CreatedAt     time.Time `json:"created_at"`
}
