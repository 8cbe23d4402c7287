package currency

import (
	"math/big"
	"strings"
)

// FormatEther renders a wei amount as a decimal ether string without trailing
// zeros, e.g. 10000000000000000 -> "0.01".
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	sign := ""
	if wei.Sign() < 0 {
		sign = "-"
	}
	whole, frac := new(big.Int).QuoRem(new(big.Int).Abs(wei), weiPerEther, new(big.Int))
	if frac.Sign() == 0 {
		return sign + whole.String()
	}
	digits := frac.String()
	digits = strings.Repeat("0", 18-len(digits)) + digits
	return sign + whole.String() + "." + strings.TrimRight(digits, "0")
}
