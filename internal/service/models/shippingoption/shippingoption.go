package shippingoption

import "github.com/google/uuid"

// ShippingOption is a selectable shipping method managed by the admin console.
type ShippingOption struct {
	ID     uuid.UUID
	Name   string
	Amount int64
}
