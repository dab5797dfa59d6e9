package estimation

import (
	"github.com/shopspring/decimal"
)

// EstimateCost prices one side (labor or material) of a cost row. A unit rate wins
// and is multiplied by the base size; otherwise a complete range yields its mean and
// a half-open range yields whichever bound is present.
func EstimateCost(rate, rangeMin, rangeMax decimal.NullDecimal, size decimal.Decimal) decimal.NullDecimal {
	switch {
	case rate.Valid:
		return decimal.NewNullDecimal(rate.Decimal.Mul(size))
	case rangeMin.Valid && rangeMax.Valid:
		return decimal.NewNullDecimal(rangeMin.Decimal.Add(rangeMax.Decimal).Div(two))
	case rangeMin.Valid:
		return rangeMin
	default:
		return rangeMax
	}
}
