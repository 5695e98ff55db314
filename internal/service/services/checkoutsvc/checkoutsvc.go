package checkoutsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corray333/backend-labs/checkout/internal/config"
	"github.com/corray333/backend-labs/checkout/internal/metrics"
	"github.com/corray333/backend-labs/checkout/internal/service/models/checkout"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/checkout/internal/service/services/pricesvc"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

type priceAuthority interface {
	PriceLines(ctx context.Context, lines []checkout.CartLine) ([]pricesvc.PricedLine, error)
}

type customerLinker interface {
	LinkByEmail(ctx context.Context, email string) *uuid.UUID
}

type orderWriter interface {
	FindByIdempotencyKey(ctx context.Context, key string) (*order.Order, error)
	PlaceOrder(ctx context.Context, o order.Order, shippingOptionID string) (*order.Order, bool, error)
}

type notifier interface {
	Dispatch(o order.Order)
}

// CheckoutService turns a submitted cart into a persisted order.
type CheckoutService struct {
	prices    priceAuthority
	customers customerLinker
	orders    orderWriter
	notifier  notifier
	cfg       config.Checkout
}

// option is a function that configures the CheckoutService.
type option func(*CheckoutService)

// MustNewCheckoutService creates a new CheckoutService.
func MustNewCheckoutService(opts ...option) *CheckoutService {
	s := &CheckoutService{
		cfg: config.DefaultCheckout(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.prices == nil || s.customers == nil || s.orders == nil || s.notifier == nil {
		panic("checkout service requires price, customer, order and notification services")
	}

	return s
}

// WithPriceAuthority sets the service that verifies cart prices.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPriceAuthority(p priceAuthority) option {
	return func(s *CheckoutService) {
		s.prices = p
	}
}

// WithCustomerLinker sets the service that links orders to registered customers.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCustomerLinker(c customerLinker) option {
	return func(s *CheckoutService) {
		s.customers = c
	}
}

// WithOrderWriter sets the service that persists orders.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderWriter(w orderWriter) option {
	return func(s *CheckoutService) {
		s.orders = w
	}
}

// WithNotifier sets the confirmation email dispatcher.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithNotifier(n notifier) option {
	return func(s *CheckoutService) {
		s.notifier = n
	}
}

// WithConfig sets the store settings for the CheckoutService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithConfig(cfg config.Checkout) option {
	return func(s *CheckoutService) {
		s.cfg = cfg
	}
}

// Checkout validates the submission, re-prices it against the catalog, stores the
// order and schedules the confirmation email.
func (s *CheckoutService) Checkout(ctx context.Context, sub checkout.Submission) (order.Summary, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "CheckoutService.Checkout")
	defer span.End()

	sub.Normalize()
	if err := sub.Validate(); err != nil {
		return order.Summary{}, err
	}

	if sub.IdempotencyKey != "" {
		existing, err := s.findExisting(ctx, sub.IdempotencyKey)
		if err != nil {
			return order.Summary{}, s.persistenceFailure("Idempotency lookup failed", err)
		}
		if existing != nil {
			metrics.IdempotentReplays.Inc()
			slog.Info("Replaying checkout for idempotency key", "order_id", existing.ID)

			return existing.Summary(), nil
		}
	}

	var (
		priced     []pricesvc.PricedLine
		customerID *uuid.UUID
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		storeCtx, cancel := context.WithTimeout(gctx, s.cfg.StoreTimeout)
		defer cancel()

		var err error
		priced, err = s.prices.PriceLines(storeCtx, sub.Items)

		return err
	})
	g.Go(func() error {
		storeCtx, cancel := context.WithTimeout(gctx, s.cfg.StoreTimeout)
		defer cancel()

		customerID = s.customers.LinkByEmail(storeCtx, sub.Email)

		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, checkout.ErrUnrecognizedItem) {
			return order.Summary{}, err
		}

		return order.Summary{}, s.persistenceFailure("Price verification failed", err)
	}

	amounts := make([]LineAmount, len(sub.Items))
	for i, line := range sub.Items {
		amounts[i] = LineAmount{UnitPrice: priced[i].UnitPrice, Quantity: line.Quantity}
	}

	totals, err := CalculateTotals(amounts, sub.ShippingCost)
	if err != nil {
		return order.Summary{}, err
	}

	o := s.buildOrder(sub, priced, totals, customerID)

	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	placed, replayed, err := s.orders.PlaceOrder(storeCtx, o, sub.ShippingOptionID)
	cancel()
	if err != nil {
		span.RecordError(err)
		return order.Summary{}, s.persistenceFailure("Failed to place order", err)
	}

	if replayed {
		metrics.IdempotentReplays.Inc()
		slog.Info("Concurrent checkout resolved to existing order", "order_id", placed.ID)

		return placed.Summary(), nil
	}

	metrics.OrdersPlaced.Inc()
	span.SetAttributes(attribute.Int64("order.display_id", placed.DisplayID))
	slog.Info("Order placed",
		"order_id", placed.ID,
		"display_id", placed.DisplayID,
		"total", placed.Total,
		"guest", placed.CustomerID == nil,
	)

	s.notifier.Dispatch(*placed)

	return placed.Summary(), nil
}

func (s *CheckoutService) findExisting(ctx context.Context, key string) (*order.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	return s.orders.FindByIdempotencyKey(ctx, key)
}

func (s *CheckoutService) buildOrder(
	sub checkout.Submission,
	priced []pricesvc.PricedLine,
	totals Totals,
	customerID *uuid.UUID,
) order.Order {
	items := make([]orderitem.OrderItem, len(sub.Items))
	for i, line := range sub.Items {
		items[i] = orderitem.OrderItem{
			ProductID: priced[i].ProductID,
			Title:     line.Title,
			Subtitle:  line.Subtitle(),
			Thumbnail: line.Thumbnail,
			Quantity:  line.Quantity,
			UnitPrice: priced[i].UnitPrice,
			Total:     totals.LineTotals[i],
			Metadata: orderitem.Metadata{
				Handle:       line.Handle,
				RawProductID: line.ProductID,
				Size:         line.Size,
				Color:        line.Color,
			},
		}
	}

	metadata := map[string]any{}
	if sub.OrderNote != "" {
		metadata[order.MetadataNoteKey] = sub.OrderNote
	}

	return order.Order{
		Email:             sub.Email,
		CustomerID:        customerID,
		Status:            order.StatusPending,
		FulfillmentStatus: order.FulfillmentStatusNotFulfilled,
		PaymentStatus:     order.PaymentStatusAwaiting,
		CurrencyCode:      s.cfg.Currency,
		Subtotal:          totals.Subtotal,
		ShippingTotal:     totals.ShippingTotal,
		Total:             totals.Total,
		ShippingAddress:   sub.ShippingAddress,
		BillingAddress:    sub.ShippingAddress,
		Metadata:          metadata,
		IdempotencyKey:    sub.IdempotencyKey,
		OrderItems:        items,
	}
}

func (s *CheckoutService) persistenceFailure(msg string, err error) error {
	slog.Error(msg, "error", err)

	return fmt.Errorf("%w: %w", checkout.ErrPersistenceFailure, err)
}
