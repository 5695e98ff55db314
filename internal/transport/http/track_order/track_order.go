package trackorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/internal/transport/http/response"
	"github.com/gorilla/schema"
)

type service interface {
	TrackOrder(ctx context.Context, email, orderNumber string) (*order.Order, error)
}

type trackOrderRequest struct {
	Email       string `json:"email"       schema:"email"`
	OrderNumber string `json:"orderNumber" schema:"orderNumber"`
}

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}()

// TrackOrder handles the guest tracking lookup. POST reads a JSON body, GET reads the query string.
func TrackOrder(w http.ResponseWriter, r *http.Request, service service, numberPrefix string) {
	req := &trackOrderRequest{}

	var err error
	if r.Method == http.MethodGet {
		err = decoder.Decode(req, r.URL.Query())
	} else {
		err = json.NewDecoder(r.Body).Decode(req)
	}
	if err != nil {
		response.DecodeError(w, err, "invalid request")
		slog.Warn("Error decoding track order request", "error", err)

		return
	}

	found, err := service.TrackOrder(r.Context(), req.Email, req.OrderNumber)
	if errors.Is(err, order.ErrNotFound) {
		response.Error(w, http.StatusNotFound, order.ErrNotFound.Error())

		return
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "internal error")
		slog.Error("Error tracking order", "error", err)

		return
	}

	response.JSON(w, http.StatusOK, found.View(numberPrefix, false))
}
