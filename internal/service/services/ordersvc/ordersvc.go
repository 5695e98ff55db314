package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/config"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/ishippingoptionrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/postgres"
	"github.com/corray333/backend-labs/checkout/internal/dal/uow"
	"github.com/corray333/backend-labs/checkout/internal/service/models/event"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/checkout/internal/service/models/outbox"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// OrderService writes and reads orders.
type OrderService struct {
	newUOW       func() unitOfWork
	shippingRepo ishippingoptionrepo.IShippingOptionRepository
	cfg          config.Checkout
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		cfg: config.DefaultCheckout(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("order service requires a postgres client or a unit of work factory")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithUnitOfWorkFactory replaces the Postgres unit of work.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() unitOfWork) option {
	return func(s *OrderService) {
		s.newUOW = factory
	}
}

// WithShippingOptionRepository sets the repository used to name non-reserved shipping options.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithShippingOptionRepository(repo ishippingoptionrepo.IShippingOptionRepository) option {
	return func(s *OrderService) {
		s.shippingRepo = repo
	}
}

// WithConfig sets the store settings for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithConfig(cfg config.Checkout) option {
	return func(s *OrderService) {
		s.cfg = cfg
	}
}

// PlaceOrder persists the order header, its items and the order.placed event in one
// transaction. When the idempotency key is already taken, the existing order is
// returned with the second result set to true and nothing is written.
func (s *OrderService) PlaceOrder(
	ctx context.Context,
	o order.Order,
	shippingOptionID string,
) (*order.Order, bool, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.PlaceOrder")
	defer span.End()

	o.ShippingMethod = s.ResolveShippingMethod(ctx, shippingOptionID)
	o.ShippingAddress.CountryCode = strings.ToLower(o.ShippingAddress.CountryCode)
	o.BillingAddress.CountryCode = strings.ToLower(o.BillingAddress.CountryCode)
	if o.Status == "" {
		o.Status = order.StatusPending
	}
	if o.FulfillmentStatus == "" {
		o.FulfillmentStatus = order.FulfillmentStatusNotFulfilled
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = order.PaymentStatusAwaiting
	}
	if o.CurrencyCode == "" {
		o.CurrencyCode = s.cfg.Currency
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to begin order transaction: %w", err)
	}
	defer func() {
		if rbErr := work.Rollback(ctx); rbErr != nil {
			slog.Error("Failed to roll back order transaction", "error", rbErr)
		}
	}()

	header, err := work.OrderRepository().Insert(ctx, o)
	if errors.Is(err, iorderrepo.ErrIdempotencyConflict) {
		if rbErr := work.Rollback(ctx); rbErr != nil {
			slog.Error("Failed to roll back order transaction", "error", rbErr)
		}

		existing, findErr := s.FindByIdempotencyKey(ctx, o.IdempotencyKey)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("order for idempotency key vanished: %w", err)
		}

		span.SetAttributes(attribute.Bool("replayed", true))

		return existing, true, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, false, err
	}

	items := make([]orderitem.OrderItem, len(o.OrderItems))
	for i, item := range o.OrderItems {
		item.OrderID = header.ID
		items[i] = item
	}

	items, err = work.OrderItemRepository().BulkInsert(ctx, items)
	if err != nil {
		span.RecordError(err)
		return nil, false, err
	}
	header.OrderItems = items

	msg, err := outbox.NewJSONMessage(
		s.cfg.OrderPlacedRoutingKey,
		s.cfg.OrderPlacedMaxRetries,
		event.NewOrderPlaced(&header),
		time.Now().UTC(),
	)
	if err != nil {
		return nil, false, err
	}

	if err := work.OutboxRepository().Insert(ctx, msg); err != nil {
		span.RecordError(err)
		return nil, false, err
	}

	if err := work.Commit(ctx); err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("failed to commit order transaction: %w", err)
	}

	span.SetAttributes(
		attribute.String("order.id", header.ID.String()),
		attribute.Int64("order.display_id", header.DisplayID),
	)

	return &header, false, nil
}

// ResolveShippingMethod turns a shipping option id into the display name stored on the order.
// Reserved ids map directly; catalog ids are looked up; everything else gets the default name.
func (s *OrderService) ResolveShippingMethod(ctx context.Context, optionID string) string {
	optionID = strings.TrimSpace(optionID)

	if name, ok := s.cfg.ReservedShippingOptions[strings.ToLower(optionID)]; ok {
		return name
	}

	id, err := uuid.Parse(optionID)
	if err != nil || s.shippingRepo == nil {
		return s.cfg.DefaultShippingMethod
	}

	opt, err := s.shippingRepo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ishippingoptionrepo.ErrNotFound) {
			slog.Warn("Shipping option lookup failed, using default name", "option_id", optionID, "error", err)
		}

		return s.cfg.DefaultShippingMethod
	}

	if opt.Name == "" {
		return s.cfg.DefaultShippingMethod
	}

	return opt.Name
}

// FindByIdempotencyKey returns the order placed with key, or nil.
func (s *OrderService) FindByIdempotencyKey(ctx context.Context, key string) (*order.Order, error) {
	if key == "" {
		return nil, nil
	}

	found, err := s.queryOne(ctx, &order.QueryOrdersModel{
		IdempotencyKeys: []string{key},
		Limit:           1,
	})
	if errors.Is(err, order.ErrNotFound) {
		return nil, nil
	}

	return found, err
}

// TrackOrder finds a guest order by email and customer-facing order number.
// Any mismatch yields order.ErrNotFound so callers cannot tell which part was wrong.
func (s *OrderService) TrackOrder(ctx context.Context, email, orderNumber string) (*order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.TrackOrder")
	defer span.End()

	email = order.NormalizeEmail(email)
	displayID, err := order.ParseDisplayNumber(s.cfg.OrderNumberPrefix, orderNumber)
	if err != nil || email == "" {
		return nil, order.ErrNotFound
	}

	return s.queryOne(ctx, &order.QueryOrdersModel{
		DisplayIds: []int64{displayID},
		Emails:     []string{email},
		Limit:      1,
	})
}

// GetOrder finds an order by id. Ids that are not UUIDs are reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, rawID string) (*order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.GetOrder")
	defer span.End()

	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, order.ErrNotFound
	}

	return s.queryOne(ctx, &order.QueryOrdersModel{
		Ids:   []uuid.UUID{id},
		Limit: 1,
	})
}

func (s *OrderService) queryOne(ctx context.Context, filter *order.QueryOrdersModel) (*order.Order, error) {
	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return nil, order.ErrNotFound
	}

	found := orders[0]
	items, err := work.OrderItemRepository().Query(ctx, &orderitem.QueryOrderItemsModel{
		OrderIds: []uuid.UUID{found.ID},
	})
	if err != nil {
		return nil, err
	}

	found.OrderItems = items
	if found.OrderItems == nil {
		found.OrderItems = []orderitem.OrderItem{}
	}

	return &found, nil
}
