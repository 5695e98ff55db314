package claimorders

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/checkout/internal/service/services/customersvc"
	"github.com/corray333/backend-labs/checkout/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type service interface {
	ClaimGuestOrders(ctx context.Context, customerID uuid.UUID, email string) (int64, error)
}

type claimOrdersRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}

type claimOrdersResponse struct {
	Claimed int64 `json:"claimed"`
}

var validate = validator.New()

// ClaimOrders attaches the guest orders placed with a customer's email to that customer.
// The body email is optional and must match the customer's stored email when present.
func ClaimOrders(w http.ResponseWriter, r *http.Request, service service) {
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid customer id")

		return
	}

	req := claimOrdersRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.DecodeError(w, err, "invalid request body")
		slog.Warn("Error decoding claim orders request", "error", err)

		return
	}

	if err := validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid email format")

		return
	}

	claimed, err := service.ClaimGuestOrders(r.Context(), customerID, req.Email)
	switch {
	case errors.Is(err, customersvc.ErrCustomerNotFound):
		response.Error(w, http.StatusNotFound, "customer not found")

		return
	case errors.Is(err, customersvc.ErrEmailMismatch):
		response.Error(w, http.StatusForbidden, "email does not belong to customer")

		return
	case err != nil:
		response.Error(w, http.StatusInternalServerError, "internal error")
		slog.Error("Error claiming guest orders", "customer_id", customerID, "error", err)

		return
	}

	response.JSON(w, http.StatusOK, claimOrdersResponse{Claimed: claimed})
}
