package lottery

import (
	"math/big"
)

// formatUnits converts a raw integer token amount into human units.
func formatUnits(value *big.Int, decimals uint8) float64 {
	if value == nil {
		return 0
	}
	if decimals == 0 {
		f, _ := new(big.Float).SetInt(value).Float64()
		return f
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	f, _ := new(big.Rat).SetFrac(value, denom).Float64()
	return f
}

func rawString(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}
