package checkout

import (
	"errors"
	"regexp"
	"strings"

	"github.com/corray333/backend-labs/checkout/internal/service/models/address"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrIncompleteAddress  = errors.New("incomplete shipping address")
	ErrInvalidCartLine    = errors.New("invalid cart line")
	ErrUnrecognizedItem   = errors.New("unrecognized catalog item")
	ErrPersistenceFailure = errors.New("internal persistence failure")
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	validate     = validator.New(validator.WithRequiredStructEnabled())
)

// CartLine is a client-submitted item awaiting order creation. Price is the
// client's proposal in minor units and is only trusted for unrecognized items.
type CartLine struct {
	ProductID string
	Handle    string
	Title     string
	Thumbnail string
	Quantity  int   `validate:"gte=1"`
	Price     int64 `validate:"gte=0"`
	Size      string
	Color     string
}

// Subtitle folds the selected size and color into one display string.
func (l CartLine) Subtitle() string {
	parts := make([]string, 0, 2)
	if l.Size != "" {
		parts = append(parts, l.Size)
	}
	if l.Color != "" {
		parts = append(parts, l.Color)
	}

	return strings.Join(parts, " / ")
}

// Submission is a checkout request as received from the storefront.
type Submission struct {
	Email            string
	Items            []CartLine
	ShippingAddress  address.Address
	ShippingOptionID string
	ShippingCost     int64
	OrderNote        string
	IdempotencyKey   string
}

// Normalize trims free-text fields, lower-cases the email and normalizes the address.
func (s *Submission) Normalize() {
	s.Email = order.NormalizeEmail(s.Email)
	s.ShippingAddress = s.ShippingAddress.Normalized()
	s.ShippingOptionID = strings.TrimSpace(s.ShippingOptionID)
	s.OrderNote = strings.TrimSpace(s.OrderNote)
	s.IdempotencyKey = strings.TrimSpace(s.IdempotencyKey)
	for i := range s.Items {
		s.Items[i].ProductID = strings.TrimSpace(s.Items[i].ProductID)
		s.Items[i].Size = strings.TrimSpace(s.Items[i].Size)
		s.Items[i].Color = strings.TrimSpace(s.Items[i].Color)
	}
}

// Validate checks the preconditions of a checkout in a fixed order and
// reports the first failing one.
func (s *Submission) Validate() error {
	if s.Email == "" || len(s.Items) == 0 {
		return ErrMissingFields
	}

	if !emailPattern.MatchString(s.Email) {
		return ErrInvalidEmail
	}

	if err := validate.Struct(s.ShippingAddress); err != nil {
		return ErrIncompleteAddress
	}

	for _, line := range s.Items {
		if err := validate.Struct(line); err != nil {
			return ErrInvalidCartLine
		}
	}

	if s.ShippingCost < 0 {
		return ErrInvalidCartLine
	}

	return nil
}
