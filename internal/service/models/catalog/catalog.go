package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VariantPrice is the price of a product's primary variant as stored by the catalog,
// in whole currency units.
type VariantPrice struct {
	ProductID uuid.UUID
	Amount    decimal.Decimal
}
