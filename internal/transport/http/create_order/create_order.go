package createorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/checkout/internal/service/models/address"
	"github.com/corray333/backend-labs/checkout/internal/service/models/checkout"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/internal/transport/http/response"
)

// IdempotencyKeyHeader carries the client token that makes a checkout safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

// service is an interface for the service layer.
type service interface {
	Checkout(ctx context.Context, sub checkout.Submission) (order.Summary, error)
}

// cartLineRequest represents a cart line in a checkout request.
type cartLineRequest struct {
	ProductID string `json:"productId"`
	Handle    string `json:"handle"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// createOrderRequest represents a checkout request.
type createOrderRequest struct {
	Email            string            `json:"email"`
	Items            []cartLineRequest `json:"items"`
	ShippingAddress  address.Address   `json:"shippingAddress"`
	ShippingOptionID string            `json:"shippingOptionId"`
	ShippingCost     int64             `json:"shippingCost"`
	OrderNote        string            `json:"orderNote,omitempty"`
}

// toModel converts createOrderRequest to checkout.Submission.
func (r *createOrderRequest) toModel(idempotencyKey string) checkout.Submission {
	lines := make([]checkout.CartLine, len(r.Items))
	for i, item := range r.Items {
		lines[i] = checkout.CartLine{
			ProductID: item.ProductID,
			Handle:    item.Handle,
			Title:     item.Title,
			Thumbnail: item.Thumbnail,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Size:      item.Size,
			Color:     item.Color,
		}
	}

	return checkout.Submission{
		Email:            r.Email,
		Items:            lines,
		ShippingAddress:  r.ShippingAddress,
		ShippingOptionID: r.ShippingOptionID,
		ShippingCost:     r.ShippingCost,
		OrderNote:        r.OrderNote,
		IdempotencyKey:   idempotencyKey,
	}
}

type createOrderResponse struct {
	Order order.Summary `json:"order"`
}

var clientErrors = []error{
	checkout.ErrMissingFields,
	checkout.ErrInvalidEmail,
	checkout.ErrIncompleteAddress,
	checkout.ErrInvalidCartLine,
	checkout.ErrUnrecognizedItem,
}

// CreateOrder handles the checkout request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	req := createOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.DecodeError(w, err, "invalid request body")
		slog.Warn("Error decoding checkout request body", "error", err)

		return
	}

	summary, err := service.Checkout(r.Context(), req.toModel(r.Header.Get(IdempotencyKeyHeader)))
	if err != nil {
		for _, clientErr := range clientErrors {
			if errors.Is(err, clientErr) {
				response.Error(w, http.StatusBadRequest, clientErr.Error())
				slog.Info("Checkout rejected", "reason", clientErr.Error())

				return
			}
		}

		response.Error(w, http.StatusInternalServerError, checkout.ErrPersistenceFailure.Error())
		slog.Error("Error performing checkout", "error", err)

		return
	}

	response.JSON(w, http.StatusOK, createOrderResponse{Order: summary})
}
