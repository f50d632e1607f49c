package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in its original currency together with its base equivalent.
type Money struct {
	AmountOriginal decimal.Decimal `json:"amount_original"`
	Currency       Currency        `json:"currency"`
	RateToBase     decimal.Decimal `json:"exchange_rate"`
	AmountBase     decimal.Decimal `json:"amount_base"`
}

// New validates the inputs and computes the base amount. The base currency
// always carries a rate of one regardless of the supplied value. Amounts
// finer than cents are rejected so the stored original still reproduces
// AmountBase after a reload.
func New(amount decimal.Decimal, code Currency, rate decimal.Decimal) (Money, error) {
	if !amount.Equal(amount.Round(maxAmountPlaces)) {
		return Money{}, fmt.Errorf("%w: %s", ErrAmountPrecision, amount.String())
	}
	if code.IsBase() {
		rate = decimal.NewFromInt(1)
	}
	base, err := ToBase(amount, code, rate)
	if err != nil {
		return Money{}, err
	}
	return Money{
		AmountOriginal: amount,
		Currency:       code,
		RateToBase:     rate,
		AmountBase:     base,
	}, nil
}

// InBase is shorthand for an amount already expressed in the base currency.
func InBase(amount decimal.Decimal) Money {
	amount = amount.Round(2)
	return Money{
		AmountOriginal: amount,
		Currency:       Base,
		RateToBase:     decimal.NewFromInt(1),
		AmountBase:     amount,
	}
}

// Consistent reports whether AmountBase still matches AmountOriginal * RateToBase.
func (m Money) Consistent() bool {
	return m.AmountBase.Equal(m.AmountOriginal.Mul(m.RateToBase).Round(2))
}

// Display renders the amount for the UI.
func (m Money) Display() string {
	return DualDisplay(m.AmountOriginal, m.Currency, m.AmountBase)
}
