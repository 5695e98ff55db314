package getorder

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
)

type service interface {
	GetOrder(ctx context.Context, rawID string) (*order.Order, error)
}

// GetOrder handles the direct order lookup by id. The projection includes item metadata.
func GetOrder(w http.ResponseWriter, r *http.Request, service service, numberPrefix string) {
	found, err := service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, order.ErrNotFound) {
		response.Error(w, http.StatusNotFound, order.ErrNotFound.Error())

		return
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "internal error")
		slog.Error("Error getting order", "error", err)

		return
	}

	response.JSON(w, http.StatusOK, found.View(numberPrefix, true))
}
