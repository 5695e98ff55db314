package order

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/service/models/address"
	"github.com/corray333/backend-labs/checkout/internal/service/models/currency"
	"github.com/corray333/backend-labs/checkout/internal/service/models/orderitem"
	"github.com/google/uuid"
)

type Status string

const StatusPending Status = "pending"

type FulfillmentStatus string

const FulfillmentStatusNotFulfilled FulfillmentStatus = "not_fulfilled"

type PaymentStatus string

const PaymentStatusAwaiting PaymentStatus = "awaiting"

// MetadataNoteKey is the metadata key holding the customer's free-text order note.
const MetadataNoteKey = "note"

var (
	ErrNotFound           = errors.New("order not found")
	ErrInvalidOrderNumber = errors.New("invalid order number")
)

// Order represents an order header together with its items.
type Order struct {
	ID                uuid.UUID             `json:"id"`
	DisplayID         int64                 `json:"display_id"`
	Email             string                `json:"email"`
	CustomerID        *uuid.UUID            `json:"customer_id"`
	Status            Status                `json:"status"`
	FulfillmentStatus FulfillmentStatus     `json:"fulfillment_status"`
	PaymentStatus     PaymentStatus         `json:"payment_status"`
	CurrencyCode      currency.Currency     `json:"currency_code"`
	Subtotal          int64                 `json:"subtotal"`
	ShippingTotal     int64                 `json:"shipping_total"`
	Total             int64                 `json:"total"`
	ShippingAddress   address.Address       `json:"shipping_address"`
	BillingAddress    address.Address       `json:"billing_address"`
	ShippingMethod    string                `json:"shipping_method"`
	Metadata          map[string]any        `json:"metadata"`
	IdempotencyKey    string                `json:"-"`
	CreatedAt         time.Time             `json:"created_at"`
	OrderItems        []orderitem.OrderItem `json:"items"`
}

// Summary is the minimal order representation returned from checkout.
type Summary struct {
	ID            uuid.UUID `json:"id"`
	DisplayID     int64     `json:"display_id"`
	Email         string    `json:"email"`
	Status        Status    `json:"status"`
	Total         int64     `json:"total"`
	Subtotal      int64     `json:"subtotal"`
	ShippingTotal int64     `json:"shipping_total"`
}

// Summary returns the checkout summary of the order.
func (o *Order) Summary() Summary {
	return Summary{
		ID:            o.ID,
		DisplayID:     o.DisplayID,
		Email:         o.Email,
		Status:        o.Status,
		Total:         o.Total,
		Subtotal:      o.Subtotal,
		ShippingTotal: o.ShippingTotal,
	}
}

// NormalizeEmail trims and lower-cases an email address before it is stored or compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FormatDisplayNumber renders the customer-facing order number, e.g. "AE-1042".
func FormatDisplayNumber(prefix string, displayID int64) string {
	if prefix == "" {
		return strconv.FormatInt(displayID, 10)
	}

	return prefix + "-" + strconv.FormatInt(displayID, 10)
}

// ParseDisplayNumber accepts "PREFIX-1042", "#1042" or "1042" and returns 1042.
// The prefix is matched case-insensitively and must be the configured one.
func ParseDisplayNumber(prefix, s string) (int64, error) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "-"); i >= 0 {
		if prefix == "" || !strings.EqualFold(s[:i], prefix) {
			return 0, ErrInvalidOrderNumber
		}
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "#")
	}

	if s == "" || strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, ErrInvalidOrderNumber
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidOrderNumber
	}

	return n, nil
}
