package currency

import (
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code.
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
	CurrencyCHF Currency = "CHF"
	CurrencyJPY Currency = "JPY"
)

var ErrInvalidCurrency = errors.New("invalid currency")

// exponents holds the number of minor units per major unit, as a power of ten.
var exponents = map[Currency]int32{
	CurrencyEUR: 2,
	CurrencyUSD: 2,
	CurrencyGBP: 2,
	CurrencyCHF: 2,
	CurrencyJPY: 0,
}

func (c Currency) String() string {
	return string(c)
}

func (c Currency) Value() (driver.Value, error) {
	return c.String(), nil
}

// Exponent returns the minor unit exponent of the currency.
func (c Currency) Exponent() int32 {
	return exponents[c]
}

// ToMinor converts a whole-unit amount into integer minor units, rounding half away from zero.
func (c Currency) ToMinor(amount decimal.Decimal) int64 {
	return amount.Shift(c.Exponent()).Round(0).IntPart()
}

// Format renders a minor-unit amount for humans, e.g. "1250.00 EUR".
func (c Currency) Format(minor int64) string {
	exp := c.Exponent()

	return decimal.New(minor, -exp).StringFixed(exp) + " " + c.String()
}

func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := exponents[c]; !ok {
		return "", ErrInvalidCurrency
	}

	return c, nil
}
