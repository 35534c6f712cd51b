package domain

import "github.com/shopspring/decimal"

// Fare is the cheapest offer the price oracle found for a route and date.
type Fare struct {
	Price decimal.Decimal
	// Link is a deep link to the offer; empty when the oracle gave none.
	Link string
}
