package domain

import "github.com/shopspring/decimal"

// Money converts v to a decimal rounded half away from zero to cents.
func Money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func Round2(v float64) float64 {
	return Money(v).InexactFloat64()
}
