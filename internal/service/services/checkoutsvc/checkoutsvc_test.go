package checkoutsvc

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/corray333/backend-labs/checkout/internal/config"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/icustomerrepo"
	"github.com/corray333/backend-labs/checkout/internal/service/models/address"
	"github.com/corray333/backend-labs/checkout/internal/service/models/catalog"
	"github.com/corray333/backend-labs/checkout/internal/service/models/checkout"
	"github.com/corray333/backend-labs/checkout/internal/service/models/mail"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/internal/service/services/customersvc"
	"github.com/corray333/backend-labs/checkout/internal/service/services/notifysvc"
	"github.com/corray333/backend-labs/checkout/internal/service/services/pricesvc"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	mu     sync.Mutex
	prices map[uuid.UUID]decimal.Decimal
	err    error
	calls  int
}

func (f *fakeCatalog) PrimaryVariantPrices(_ context.Context, ids []uuid.UUID) ([]catalog.VariantPrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	var out []catalog.VariantPrice
	for _, id := range ids {
		if amount, ok := f.prices[id]; ok {
			out = append(out, catalog.VariantPrice{ProductID: id, Amount: amount})
		}
	}

	return out, nil
}

type fakeCustomers struct {
	mu      sync.Mutex
	byEmail map[string]uuid.UUID
	err     error
	calls   int
}

func (f *fakeCustomers) FindIDByEmail(_ context.Context, email string) (*uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if id, ok := f.byEmail[email]; ok {
		return &id, nil
	}

	return nil, nil
}

func (f *fakeCustomers) GetEmailByID(context.Context, uuid.UUID) (string, error) {
	return "", icustomerrepo.ErrNotFound
}

type fakeWriter struct {
	mu            sync.Mutex
	orders        []order.Order
	err           error
	placeCalls    int
	nextDisplayID int64
}

func (f *fakeWriter) FindByIdempotencyKey(_ context.Context, key string) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.orders {
		if f.orders[i].IdempotencyKey == key {
			found := f.orders[i]
			return &found, nil
		}
	}

	return nil, nil
}

func (f *fakeWriter) PlaceOrder(_ context.Context, o order.Order, shippingOptionID string) (*order.Order, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.placeCalls++
	if f.err != nil {
		return nil, false, f.err
	}

	if o.IdempotencyKey != "" {
		for i := range f.orders {
			if f.orders[i].IdempotencyKey == o.IdempotencyKey {
				found := f.orders[i]
				return &found, true, nil
			}
		}
	}

	f.nextDisplayID++
	o.ID = uuid.New()
	o.DisplayID = f.nextDisplayID
	o.ShippingMethod = shippingOptionID
	f.orders = append(f.orders, o)

	return &o, false, nil
}

type fakeNotifier struct {
	mu         sync.Mutex
	dispatched []order.Order
}

func (f *fakeNotifier) Dispatch(o order.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, o)
}

type failingSender struct{}

func (failingSender) Send(context.Context, mail.Message) error {
	return errors.New("provider rejected message")
}

type harness struct {
	catalog   *fakeCatalog
	customers *fakeCustomers
	writer    *fakeWriter
	notifier  *fakeNotifier
	svc       *CheckoutService
}

func newHarness(t *testing.T, cfg config.Checkout) *harness {
	t.Helper()

	h := &harness{
		catalog:   &fakeCatalog{prices: map[uuid.UUID]decimal.Decimal{}},
		customers: &fakeCustomers{byEmail: map[string]uuid.UUID{}},
		writer:    &fakeWriter{},
		notifier:  &fakeNotifier{},
	}
	h.svc = MustNewCheckoutService(
		WithPriceAuthority(pricesvc.MustNewPriceService(
			pricesvc.WithCatalogRepository(h.catalog),
			pricesvc.WithConfig(cfg),
		)),
		WithCustomerLinker(customersvc.MustNewCustomerService(
			customersvc.WithCustomerRepository(h.customers),
		)),
		WithOrderWriter(h.writer),
		WithNotifier(h.notifier),
		WithConfig(cfg),
	)

	return h
}

func validSubmission(lines ...checkout.CartLine) checkout.Submission {
	return checkout.Submission{
		Email: "bride@example.com",
		Items: lines,
		ShippingAddress: address.Address{
			FirstName:   "Anna",
			LastName:    "Schmidt",
			Address1:    "Hauptstrasse 1",
			City:        "Berlin",
			PostalCode:  "10115",
			CountryCode: "DE",
		},
		ShippingOptionID: "standard",
	}
}

func TestCheckout_CatalogPriceOverridesClientPrice(t *testing.T) {
	h := newHarness(t, config.DefaultCheckout())
	gown := uuid.New()
	h.catalog.prices[gown] = decimal.NewFromInt(500)

	summary, err := h.svc.Checkout(context.Background(), validSubmission(checkout.CartLine{
		ProductID: gown.String(),
		Handle:    "aurora-gown",
		Title:     "Aurora Gown",
		Quantity:  2,
		Price:     1,
	}))

	require.NoError(t, err)
	assert.Equal(t, int64(100000), summary.Subtotal)
	assert.Equal(t, int64(100000), summary.Total)

	require.Len(t, h.writer.orders, 1)
	item := h.writer.orders[0].OrderItems[0]
	assert.Equal(t, int64(50000), item.UnitPrice)
	assert.Equal(t, int64(100000), item.Total)
	require.NotNil(t, item.ProductID)
	assert.Equal(t, gown, *item.ProductID)
}

func TestCheckout_UnrecognizedItemKeepsClientPrice(t *testing.T) {
	h := newHarness(t, config.DefaultCheckout())

	summary, err := h.svc.Checkout(context.Background(), validSubmission(checkout.CartLine{
		ProductID: "legacy-veil-01",
		Title:     "Cathedral Veil",
		Quantity:  2,
		Price:     4500,
	}))

	require.NoError(t, err)
	assert.Equal(t, int64(9000), summary.Subtotal)
	item := h.writer.orders[0].OrderItems[0]
	assert.Nil(t, item.ProductID)
	assert.Equal(t, "legacy-veil-01", item.Metadata.RawProductID)
}

func TestCheckout_RejectsUnrecognizedItemWhenConfigured(t *testing.T) {
	cfg := config.DefaultCheckout()
	cfg.RejectUnresolvedItems = true
	h := newHarness(t, cfg)

	_, err := h.svc.Checkout(context.Background(), validSubmission(checkout.CartLine{
		ProductID: "legacy-veil-01",
		Quantity:  1,
		Price:     4500,
	}))

	assert.ErrorIs(t, err, checkout.ErrUnrecognizedItem)
	assert.Zero(t, h.writer.placeCalls)
}

func TestCheckout_TotalsAndOrderShape(t *testing.T) {
	h := newHarness(t, config.DefaultCheckout())
	gown := uuid.New()
	h.catalog.prices[gown] = decimal.RequireFromString("1299.50")
	customer := uuid.New()
	h.customers.byEmail["bride@example.com"] = customer

	sub := validSubmission(
		checkout.CartLine{ProductID: gown.String(), Title: "Aurora Gown", Quantity: 1, Size: "38", Color: "Ivory"},
		checkout.CartLine{ProductID: "belt-01", Title: "Satin Belt", Quantity: 3, Price: 2000},
	)
	sub.Email = "  Bride@Example.COM "
	sub.ShippingCost = 1500
	sub.OrderNote = "  Fitting on May 3rd  "

	summary, err := h.svc.Checkout(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, "bride@example.com", summary.Email)
	assert.Equal(t, order.StatusPending, summary.Status)
	assert.Equal(t, int64(129950+6000), summary.Subtotal)
	assert.Equal(t, int64(1500), summary.ShippingTotal)
	assert.Equal(t, summary.Subtotal+summary.ShippingTotal, summary.Total)

	o := h.writer.orders[0]
	require.NotNil(t, o.CustomerID)
	assert.Equal(t, customer, *o.CustomerID)
	assert.Equal(t, "de", o.ShippingAddress.CountryCode)
	assert.Equal(t, o.ShippingAddress, o.BillingAddress)
	assert.Equal(t, "Fitting on May 3rd", o.Metadata[order.MetadataNoteKey])
	assert.Equal(t, "38 / Ivory", o.OrderItems[0].Subtitle)
	assert.Equal(t, int64(6000), o.OrderItems[1].Total)

	var sum int64
	for _, item := range o.OrderItems {
		assert.Equal(t, item.UnitPrice*int64(item.Quantity), item.Total)
		sum += item.Total
	}
	assert.Equal(t, o.Subtotal, sum)

	require.Len(t, h.notifier.dispatched, 1)
	assert.Equal(t, o.ID, h.notifier.dispatched[0].ID)
}

func TestCheckout_CustomerLookupFailureIsGuestCheckout(t *testing.T) {
	h := newHarness(t, config.DefaultCheckout())
	h.customers.err = errors.New("statement timeout")

	_, err := h.svc.Checkout(context.Background(), validSubmission(checkout.CartLine{
		ProductID: "x", Quantity: 1, Price: 100,
	}))

	require.NoError(t, err)
	assert.Nil(t, h.writer.orders[0].CustomerID)
}

func TestCheckout_ValidationFailureWritesNothing(t *testing.T) {
	line := checkout.CartLine{ProductID: uuid.NewString(), Quantity: 1, Price: 100}

	tests := []struct {
		name   string
		mutate func(*checkout.Submission)
		want   error
	}{
		{name: "no email", mutate: func(s *checkout.Submission) { s.Email = " " }, want: checkout.ErrMissingFields},
		{name: "empty cart", mutate: func(s *checkout.Submission) { s.Items = nil }, want: checkout.ErrMissingFields},
		{name: "bad email", mutate: func(s *checkout.Submission) { s.Email = "bride@example" }, want: checkout.ErrInvalidEmail},
		{
			name:   "missing city",
			mutate: func(s *checkout.Submission) { s.ShippingAddress.City = "" },
			want:   checkout.ErrIncompleteAddress,
		},
		{
			name:   "three letter country",
			mutate: func(s *checkout.Submission) { s.ShippingAddress.CountryCode = "DEU" },
			want:   checkout.ErrIncompleteAddress,
		},
		{
			name:   "zero quantity",
			mutate: func(s *checkout.Submission) { s.Items[0].Quantity = 0 },
			want:   checkout.ErrInvalidCartLine,
		},
		{
			name:   "negative shipping",
			mutate: func(s *checkout.Submission) { s.ShippingCost = -100 },
			want:   checkout.ErrInvalidCartLine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, config.DefaultCheckout())
			sub := validSubmission(line)
			tt.mutate(&sub)

			_, err := h.svc.Checkout(context.Background(), sub)

			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, h.catalog.calls)
			assert.Zero(t, h.customers.calls)
			assert.Zero(t, h.writer.placeCalls)
			assert.Empty(t, h.notifier.dispatched)
		})
	}
}

func TestCheckout_NotificationFailureStillSucceeds(t *testing.T) {
	cfg := config.DefaultCheckout()
	writer := &fakeWriter{}
	notifications := notifysvc.MustNewNotificationService(
		notifysvc.WithSender(failingSender{}),
		notifysvc.WithConfig(cfg),
	)
	svc := MustNewCheckoutService(
		WithPriceAuthority(pricesvc.MustNewPriceService(
			pricesvc.WithCatalogRepository(&fakeCatalog{}),
			pricesvc.WithConfig(cfg),
		)),
		WithCustomerLinker(customersvc.MustNewCustomerService(
			customersvc.WithCustomerRepository(&fakeCustomers{}),
		)),
		WithOrderWriter(writer),
		WithNotifier(notifications),
		WithConfig(cfg),
	)

	summary, err := svc.Checkout(context.Background(), validSubmission(checkout.CartLine{
		ProductID: "x", Title: "Gown", Quantity: 1, Price: 100000,
	}))

	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.DisplayID)
	require.NoError(t, notifications.Wait(context.Background()))
	assert.Len(t, writer.orders, 1)
}

func TestCheckout_PersistenceFailure(t *testing.T) {
	h := newHarness(t, config.DefaultCheckout())
	h.writer.err = errors.New(`duplicate key value violates unique constraint "orders_pkey"`)

	_, err := h.svc.Checkout(context.Background(), validSubmission(checkout.CartLine{
		ProductID: "x", Quantity: 1, Price: 100,
	}))

	assert.ErrorIs(t, err, checkout.ErrPersistenceFailure)
	assert.Empty(t, h.notifier.dispatched)
}

func TestCheckout_CatalogFailureIsPersistenceFailure(t *testing.T) {
	h := newHarness(t, config.DefaultCheckout())
	h.catalog.err = errors.New("connection reset")

	_, err := h.svc.Checkout(context.Background(), validSubmission(checkout.CartLine{
		ProductID: uuid.NewString(), Quantity: 1, Price: 100,
	}))

	assert.ErrorIs(t, err, checkout.ErrPersistenceFailure)
	assert.Zero(t, h.writer.placeCalls)
}

func TestCheckout_IdempotentReplay(t *testing.T) {
	h := newHarness(t, config.DefaultCheckout())
	sub := validSubmission(checkout.CartLine{ProductID: "x", Quantity: 1, Price: 100})
	sub.IdempotencyKey = "cart-42"

	first, err := h.svc.Checkout(context.Background(), sub)
	require.NoError(t, err)

	second, err := h.svc.Checkout(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, h.writer.placeCalls)
	assert.Len(t, h.writer.orders, 1)
	assert.Len(t, h.notifier.dispatched, 1)
}

func TestCheckout_ConcurrentKeylessSubmissionsCreateSeparateOrders(t *testing.T) {
	h := newHarness(t, config.DefaultCheckout())
	sub := validSubmission(checkout.CartLine{ProductID: "x", Quantity: 1, Price: 100})

	var wg sync.WaitGroup
	summaries := make([]order.Summary, 2)
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			s := sub
			s.Items = append([]checkout.CartLine(nil), sub.Items...)
			summaries[i], errs[i] = h.svc.Checkout(context.Background(), s)
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.NotEqual(t, summaries[0].ID, summaries[1].ID)
	assert.NotEqual(t, summaries[0].DisplayID, summaries[1].DisplayID)
	assert.Len(t, h.writer.orders, 2)
}
