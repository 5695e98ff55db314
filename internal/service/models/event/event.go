package event

import (
	"time"

	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/google/uuid"
)

const TypeOrderPlaced = "order.placed"

// OrderPlaced is published to downstream consumers once an order is committed.
type OrderPlaced struct {
	EventID       uuid.UUID  `json:"event_id"`
	Type          string     `json:"type"`
	OrderID       uuid.UUID  `json:"order_id"`
	DisplayID     int64      `json:"display_id"`
	Email         string     `json:"email"`
	CustomerID    *uuid.UUID `json:"customer_id"`
	CurrencyCode  string     `json:"currency_code"`
	Subtotal      int64      `json:"subtotal"`
	ShippingTotal int64      `json:"shipping_total"`
	Total         int64      `json:"total"`
	ItemCount     int        `json:"item_count"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewOrderPlaced builds the event for a persisted order.
func NewOrderPlaced(o *order.Order) OrderPlaced {
	count := 0
	for _, item := range o.OrderItems {
		count += item.Quantity
	}

	return OrderPlaced{
		EventID:       uuid.New(),
		Type:          TypeOrderPlaced,
		OrderID:       o.ID,
		DisplayID:     o.DisplayID,
		Email:         o.Email,
		CustomerID:    o.CustomerID,
		CurrencyCode:  o.CurrencyCode.String(),
		Subtotal:      o.Subtotal,
		ShippingTotal: o.ShippingTotal,
		Total:         o.Total,
		ItemCount:     count,
		CreatedAt:     o.CreatedAt,
	}
}
