package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" eur ")
	require.NoError(t, err)
	assert.Equal(t, CurrencyEUR, c)

	_, err = ParseCurrency("XXX")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestToMinor(t *testing.T) {
	tests := []struct {
		name     string
		currency Currency
		amount   string
		want     int64
	}{
		{"whole euros", CurrencyEUR, "500", 50000},
		{"fractional euros", CurrencyEUR, "129.99", 12999},
		{"half cent rounds away from zero", CurrencyEUR, "10.005", 1001},
		{"zero exponent", CurrencyJPY, "4200", 4200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.currency.ToMinor(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1000.00 EUR", CurrencyEUR.Format(100000))
	assert.Equal(t, "0.05 USD", CurrencyUSD.Format(5))
	assert.Equal(t, "4200 JPY", CurrencyJPY.Format(4200))
}
