package customersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/icustomerrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrEmailMismatch    = errors.New("email does not belong to customer")
)

// CustomerService links orders to registered customers. It never creates customers.
type CustomerService struct {
	customerRepo icustomerrepo.ICustomerRepository
	orderRepo    iorderrepo.IOrderRepository
}

// option is a function that configures the CustomerService.
type option func(*CustomerService)

// MustNewCustomerService creates a new CustomerService.
func MustNewCustomerService(opts ...option) *CustomerService {
	s := &CustomerService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.customerRepo == nil {
		panic("customer service requires a customer repository")
	}

	return s
}

// WithCustomerRepository sets the customer repository for the CustomerService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCustomerRepository(repo icustomerrepo.ICustomerRepository) option {
	return func(s *CustomerService) {
		s.customerRepo = repo
	}
}

// WithOrderRepository sets the order repository used for claiming guest orders.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderRepository(repo iorderrepo.IOrderRepository) option {
	return func(s *CustomerService) {
		s.orderRepo = repo
	}
}

// LinkByEmail returns the id of the customer registered with email, or nil.
// A failed lookup is logged and treated as a guest checkout.
func (s *CustomerService) LinkByEmail(ctx context.Context, email string) *uuid.UUID {
	ctx, span := otel.Tracer("service").Start(ctx, "CustomerService.LinkByEmail")
	defer span.End()

	id, err := s.customerRepo.FindIDByEmail(ctx, order.NormalizeEmail(email))
	if err != nil {
		span.RecordError(err)
		slog.Warn("Customer lookup failed, continuing as guest", "error", err)

		return nil
	}

	return id
}

// ClaimGuestOrders attaches every guest order placed with the customer's stored email
// to the customer and returns how many orders were claimed. A non-empty email must match
// the stored one.
func (s *CustomerService) ClaimGuestOrders(ctx context.Context, customerID uuid.UUID, email string) (int64, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "CustomerService.ClaimGuestOrders")
	defer span.End()

	if s.orderRepo == nil {
		return 0, fmt.Errorf("order repository is not configured")
	}

	stored, err := s.customerRepo.GetEmailByID(ctx, customerID)
	if errors.Is(err, icustomerrepo.ErrNotFound) {
		return 0, ErrCustomerNotFound
	}
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to load customer: %w", err)
	}

	stored = order.NormalizeEmail(stored)
	if email = order.NormalizeEmail(email); email != "" && email != stored {
		slog.Warn("Rejected guest order claim for foreign email", "customer_id", customerID)

		return 0, ErrEmailMismatch
	}
	if stored == "" {
		return 0, nil
	}

	claimed, err := s.orderRepo.AttachCustomer(ctx, customerID, stored)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to claim guest orders: %w", err)
	}

	slog.Info("Guest orders claimed", "customer_id", customerID, "claimed", claimed)

	return claimed, nil
}
