package orderitem

import (
	"time"

	"github.com/google/uuid"
)

// Metadata keeps the raw cart data behind an order line for diagnostics.
type Metadata struct {
	Handle       string `json:"handle,omitempty"`
	RawProductID string `json:"raw_product_id,omitempty"`
	Size         string `json:"size,omitempty"`
	Color        string `json:"color,omitempty"`
}

// OrderItem represents an item within an order.
// Title, subtitle and thumbnail are snapshots and never follow later catalog edits.
type OrderItem struct {
	ID        uuid.UUID  `json:"id"`
	OrderID   uuid.UUID  `json:"order_id"`
	ProductID *uuid.UUID `json:"product_id"`
	Title     string     `json:"title"`
	Subtitle  string     `json:"subtitle"`
	Thumbnail string     `json:"thumbnail"`
	Quantity  int        `json:"quantity"`
	UnitPrice int64      `json:"unit_price"`
	Total     int64      `json:"total"`
	Metadata  Metadata   `json:"metadata"`
	CreatedAt time.Time  `json:"created_at"`
}
