package ishippingoptionrepo

import (
	"context"
	"errors"

	"github.com/corray333/backend-labs/checkout/internal/service/models/shippingoption"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("shipping option not found")

// IShippingOptionRepository reads shipping options.
type IShippingOptionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*shippingoption.ShippingOption, error)
}
