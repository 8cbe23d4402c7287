package currency

import (
	"fmt"
	"math/big"
	"strings"
)

// WeiPerEther is the number of wei in one ether.
const WeiPerEther = 1_000_000_000_000_000_000

var weiPerEther = big.NewInt(WeiPerEther)

// Wei returns v as a fresh big integer.
func Wei(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

// Ether returns n whole ether expressed in wei.
func Ether(n uint64) *big.Int { return new(big.Int).Mul(Wei(n), weiPerEther) }

// Copy returns an independent copy of v. A nil amount is treated as zero.
func Copy(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

// ParseWei reads a non-negative decimal wei amount. Underscores may be used as
// digit separators.
func ParseWei(raw string) (*big.Int, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(raw), "_", "")
	v, ok := new(big.Int).SetString(clean, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return v, nil
}
