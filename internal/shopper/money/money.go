// Package money provides an immutable monetary amount bound to a currency.
package money

import (
	"encoding/json"
	"fmt"

	e "github.com/gartstein/shopper/internal/shopper/errors"
	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	switch c {
	case USD, EUR, GBP:
		return true
	default:
		return false
	}
}

// Money is a value object: two values with equal amount and currency are
// interchangeable. The zero value is not a valid Money; use New or Zero.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// New builds a Money, failing with ErrInvalidValue when the amount is
// negative or the currency is unknown.
func New(currency Currency, amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount %s must not be negative", e.ErrInvalidValue, amount.String())
	}
	if !currency.Valid() {
		return Money{}, fmt.Errorf("%w: unknown currency %q", e.ErrInvalidValue, currency)
	}
	return Money{amount: amount, currency: currency}, nil
}

// Zero returns EUR 0.00.
func Zero() Money {
	return Money{amount: decimal.Zero, currency: EUR}
}

func (m Money) Amount() decimal.Decimal {
	return m.amount
}

func (m Money) Currency() Currency {
	return m.currency
}

// Equal compares by value. 12.5 and 12.50 are the same amount.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Key returns a canonical comparable form, usable as a map key.
func (m Money) Key() string {
	return string(m.currency) + " " + m.amount.String()
}

// String formats as "<currency> <amount with 2 decimals>", e.g. "EUR 12.50".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.currency, m.amount.StringFixed(2))
}

type moneyJSON struct {
	Currency Currency        `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Currency: m.currency, Amount: m.amount})
}

// UnmarshalJSON applies the same invariants as New.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := New(raw.Currency, raw.Amount)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
