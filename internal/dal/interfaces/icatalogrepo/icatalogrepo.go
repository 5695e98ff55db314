package icatalogrepo

import (
	"context"

	"github.com/corray333/backend-labs/checkout/internal/service/models/catalog"
	"github.com/google/uuid"
)

// ICatalogRepository reads prices from the product catalog.
type ICatalogRepository interface {
	// PrimaryVariantPrices returns the primary variant price of every product found among ids.
	PrimaryVariantPrices(ctx context.Context, ids []uuid.UUID) ([]catalog.VariantPrice, error)
}
