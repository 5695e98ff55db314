package iorderrepo

import (
	"context"
	"errors"

	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/google/uuid"
)

// ErrIdempotencyConflict is returned by Insert when another order already owns the idempotency key.
var ErrIdempotencyConflict = errors.New("idempotency key already used")

// IOrderRepository is an interface for order postgres repository.
type IOrderRepository interface {
	// Insert stores the order header and returns it with the generated id, display id and creation time.
	Insert(ctx context.Context, o order.Order) (order.Order, error)
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	// AttachCustomer links guest orders with the given email to the customer and returns how many changed.
	AttachCustomer(ctx context.Context, customerID uuid.UUID, email string) (int64, error)
}
