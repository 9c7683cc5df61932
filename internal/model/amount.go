package model

import (
	"math/big"
	"strings"
)

// FormatUnits renders an integer token amount as a decimal string scaled by
// the token's decimals. The fractional part keeps at least two digits;
// trailing zeros beyond that are stripped.
func FormatUnits(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0.00"
	}

	abs := new(big.Int).Abs(value)
	base := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	intPart, frac := new(big.Int).QuoRem(abs, base, new(big.Int))

	fracStr := frac.String()
	if pad := int(decimals) - len(fracStr); pad > 0 {
		fracStr = strings.Repeat("0", pad) + fracStr
	}
	fracStr = strings.TrimRight(fracStr, "0")
	for len(fracStr) < 2 {
		fracStr += "0"
	}

	out := intPart.String() + "." + fracStr
	if value.Sign() < 0 {
		out = "-" + out
	}
	return out
}

// FormatGwei renders a wei amount in gwei.
func FormatGwei(value *big.Int) string {
	return FormatUnits(value, 9)
}
