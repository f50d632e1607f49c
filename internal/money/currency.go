// Package money converts foreign-currency amounts into the agency base
// currency and formats them for display.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code accepted by the back office.
type Currency string

const (
	PKR Currency = "PKR"
	SAR Currency = "SAR"
	USD Currency = "USD"
	AED Currency = "AED"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// Base is the currency every amount is aggregated in.
const Base = PKR

// maxAmountPlaces is the precision of stored original and base amounts.
const maxAmountPlaces = 2

// maxRatePlaces is the finest exchange-rate precision that survives storage.
const maxRatePlaces = 4

var supported = map[Currency]struct{}{
	PKR: {}, SAR: {}, USD: {}, AED: {}, EUR: {}, GBP: {},
}

// ErrInvalidRate is matched by every InvalidRateError.
var ErrInvalidRate = errors.New("money: invalid exchange rate")

// ErrAmountPrecision reports an amount finer than the two decimal places
// amounts are stored with.
var ErrAmountPrecision = errors.New("money: amount has more than 2 decimal places")

// ErrUnknownCurrency reports a currency code outside the supported set.
var ErrUnknownCurrency = errors.New("money: unknown currency")

// InvalidRateError describes why an exchange rate was rejected.
type InvalidRateError struct {
	Rate   string
	Reason string
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("money: invalid exchange rate %s: %s", e.Rate, e.Reason)
}

// Is lets errors.Is match ErrInvalidRate.
func (e *InvalidRateError) Is(target error) bool {
	return target == ErrInvalidRate
}

// ParseCurrency normalises and validates a currency code.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if c == "" {
		return Base, nil
	}
	if _, ok := supported[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return c, nil
}

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	_, ok := supported[c]
	return ok
}

// IsBase reports whether c is the base currency.
func (c Currency) IsBase() bool {
	return c == Base
}

// RateFromFloat builds a rate from a float, rejecting non-finite values.
func RateFromFloat(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, &InvalidRateError{Rate: fmt.Sprint(v), Reason: "must be a finite number"}
	}
	return decimal.NewFromFloat(v), nil
}

// ValidateRate checks that rate is positive and carries at most four decimal places.
func ValidateRate(rate decimal.Decimal) error {
	if rate.Sign() <= 0 {
		return &InvalidRateError{Rate: rate.String(), Reason: "must be greater than zero"}
	}
	if !rate.Equal(rate.Truncate(maxRatePlaces)) {
		return &InvalidRateError{Rate: rate.String(), Reason: "more than 4 decimal places"}
	}
	return nil
}

// ToBase converts amount into the base currency at rate, rounded to two places.
func ToBase(amount decimal.Decimal, code Currency, rate decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateRate(rate); err != nil {
		return decimal.Zero, err
	}
	if !code.Valid() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownCurrency, string(code))
	}
	return amount.Mul(rate).Round(2), nil
}
