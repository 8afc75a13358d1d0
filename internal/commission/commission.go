package commission

import "github.com/shopspring/decimal"

// Rate is the share of the winning amount owed by the auctioneer
const Rate = 0.05

// monetaryPrecision is the number of decimal places kept for money
const monetaryPrecision = 2

// Calculate returns the commission owed on a winning amount at the system rate.
func Calculate(winningAmount float64) float64 {
	return CalculateWithRate(winningAmount, Rate)
}

// CalculateWithRate returns amount*rate rounded to cents.
// Non-positive amounts or rates yield zero: auctions without a winning bid never incur commission.
func CalculateWithRate(winningAmount, rate float64) float64 {
	if winningAmount <= 0 || rate <= 0 {
		return 0
	}
	amount := decimal.NewFromFloat(winningAmount)
	commission := amount.Mul(decimal.NewFromFloat(rate)).Round(monetaryPrecision)
	return commission.InexactFloat64()
}
