package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rodrigolyusei/mynextflight/internal/pkg/validate"
)

// MaxAlertsPerOwner caps how many alerts a single chat may keep active.
const MaxAlertsPerOwner = 6

// Price bounds keep thresholds inside DynamoDB's number type and cheap to
// render. Values must be below 10^maxPriceIntegerDigits.
const (
	maxPriceIntegerDigits     = 9
	maxPriceFractionDigits    = 10
	maxPriceSignificantDigits = 38
)

// Alert is a persisted price-watch request owned by one chat.
type Alert struct {
	OwnerID     string `validate:"required"`
	AlertID     string `validate:"required"`
	Origin      string `validate:"required"`
	Destination string `validate:"required"`
	Date        string `validate:"required"`
	MaxPrice    decimal.Decimal
}

// Validate reports whether the alert may be persisted. Date and location
// codes are opaque tokens and are only checked for presence.
func (a Alert) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAlert, err)
	}
	if err := ValidatePrice(a.MaxPrice); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAlert, err)
	}
	return nil
}

// ValidatePrice reports whether p is usable as a threshold. It only inspects
// the coefficient and exponent, so absurd exponents are rejected without
// expanding the number.
func ValidatePrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return errors.New("max price must not be negative")
	}
	digits, exp := p.NumDigits(), int(p.Exponent())
	switch {
	case digits > maxPriceSignificantDigits:
		return fmt.Errorf("max price has more than %d significant digits", maxPriceSignificantDigits)
	case exp < -maxPriceFractionDigits:
		return fmt.Errorf("max price has more than %d decimal places", maxPriceFractionDigits)
	case digits+exp > maxPriceIntegerDigits:
		return fmt.Errorf("max price must be below 1e%d", maxPriceIntegerDigits)
	}
	return nil
}

// Matches reports whether price satisfies the alert threshold. The
// comparison is inclusive.
func (a Alert) Matches(price decimal.Decimal) bool {
	return price.LessThanOrEqual(a.MaxPrice)
}
