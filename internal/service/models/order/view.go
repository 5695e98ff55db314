package order

import (
	"time"

	"github.com/corray333/backend-labs/checkout/internal/service/models/address"
	"github.com/corray333/backend-labs/checkout/internal/service/models/currency"
	"github.com/corray333/backend-labs/checkout/internal/service/models/orderitem"
	"github.com/google/uuid"
)

// View is the normalized order projection served by the lookup endpoints.
type View struct {
	ID                uuid.UUID         `json:"id"`
	DisplayID         int64             `json:"display_id"`
	OrderNumber       string            `json:"order_number"`
	Email             string            `json:"email"`
	Status            Status            `json:"status"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillment_status"`
	PaymentStatus     PaymentStatus     `json:"payment_status"`
	CurrencyCode      currency.Currency `json:"currency_code"`
	CreatedAt         time.Time         `json:"created_at"`
	Items             []ItemView        `json:"items"`
	ShippingAddress   address.Address   `json:"shipping_address"`
	ShippingMethod    string            `json:"shipping_method"`
	Subtotal          int64             `json:"subtotal"`
	ShippingTotal     int64             `json:"shipping_total"`
	Total             int64             `json:"total"`
}

// ItemView is a line of View.
type ItemView struct {
	ID        uuid.UUID           `json:"id"`
	ProductID *uuid.UUID          `json:"product_id"`
	Title     string              `json:"title"`
	Subtitle  string              `json:"subtitle"`
	Thumbnail string              `json:"thumbnail"`
	Quantity  int                 `json:"quantity"`
	UnitPrice int64               `json:"unit_price"`
	Total     int64               `json:"total"`
	Metadata  *orderitem.Metadata `json:"metadata,omitempty"`
}

// View projects the order. Item metadata is only included when withItemMetadata is set.
func (o *Order) View(numberPrefix string, withItemMetadata bool) View {
	items := make([]ItemView, len(o.OrderItems))
	for i, item := range o.OrderItems {
		items[i] = ItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			Title:     item.Title,
			Subtitle:  item.Subtitle,
			Thumbnail: item.Thumbnail,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.Total,
		}
		if withItemMetadata {
			md := item.Metadata
			items[i].Metadata = &md
		}
	}

	return View{
		ID:                o.ID,
		DisplayID:         o.DisplayID,
		OrderNumber:       FormatDisplayNumber(numberPrefix, o.DisplayID),
		Email:             o.Email,
		Status:            o.Status,
		FulfillmentStatus: o.FulfillmentStatus,
		PaymentStatus:     o.PaymentStatus,
		CurrencyCode:      o.CurrencyCode,
		CreatedAt:         o.CreatedAt,
		Items:             items,
		ShippingAddress:   o.ShippingAddress,
		ShippingMethod:    o.ShippingMethod,
		Subtotal:          o.Subtotal,
		ShippingTotal:     o.ShippingTotal,
		Total:             o.Total,
	}
}
