package domain

import "math"

// CentsFromAmount converts a decimal price as sent by clients into integer cents.
func CentsFromAmount(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func AmountFromCents(cents int64) float64 {
	return float64(cents) / 100
}
