package customersvc

import (
	"context"
	"errors"
	"testing"

	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/icustomerrepo"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCustomers struct {
	byEmail map[string]uuid.UUID
	err     error
	asked   []string
}

func (f *fakeCustomers) GetEmailByID(_ context.Context, id uuid.UUID) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for email, known := range f.byEmail {
		if known == id {
			return email, nil
		}
	}

	return "", icustomerrepo.ErrNotFound
}

func (f *fakeCustomers) FindIDByEmail(_ context.Context, email string) (*uuid.UUID, error) {
	f.asked = append(f.asked, email)
	if f.err != nil {
		return nil, f.err
	}
	if id, ok := f.byEmail[email]; ok {
		return &id, nil
	}

	return nil, nil
}

type fakeOrders struct {
	orders []order.Order
	err    error
}

func (f *fakeOrders) Insert(_ context.Context, o order.Order) (order.Order, error) {
	f.orders = append(f.orders, o)
	return o, nil
}

func (f *fakeOrders) Query(context.Context, *order.QueryOrdersModel) ([]order.Order, error) {
	return f.orders, nil
}

func (f *fakeOrders) AttachCustomer(_ context.Context, customerID uuid.UUID, email string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}

	var n int64
	for i := range f.orders {
		if f.orders[i].Email == email && f.orders[i].CustomerID == nil {
			id := customerID
			f.orders[i].CustomerID = &id
			n++
		}
	}

	return n, nil
}

func TestLinkByEmail(t *testing.T) {
	known := uuid.New()
	repo := &fakeCustomers{byEmail: map[string]uuid.UUID{"bride@example.com": known}}
	svc := MustNewCustomerService(WithCustomerRepository(repo))

	id := svc.LinkByEmail(context.Background(), "  Bride@Example.com ")
	require.NotNil(t, id)
	assert.Equal(t, known, *id)
	assert.Equal(t, []string{"bride@example.com"}, repo.asked)

	assert.Nil(t, svc.LinkByEmail(context.Background(), "guest@example.com"))
}

func TestLinkByEmail_ErrorMeansGuest(t *testing.T) {
	svc := MustNewCustomerService(WithCustomerRepository(&fakeCustomers{err: errors.New("timeout")}))

	assert.Nil(t, svc.LinkByEmail(context.Background(), "bride@example.com"))
}

func TestClaimGuestOrders(t *testing.T) {
	other := uuid.New()
	orders := &fakeOrders{orders: []order.Order{
		{Email: "bride@example.com"},
		{Email: "bride@example.com"},
		{Email: "bride@example.com", CustomerID: &other},
		{Email: "someone@example.com"},
	}}
	customer := uuid.New()
	svc := MustNewCustomerService(
		WithCustomerRepository(&fakeCustomers{byEmail: map[string]uuid.UUID{"bride@example.com": customer}}),
		WithOrderRepository(orders),
	)

	claimed, err := svc.ClaimGuestOrders(context.Background(), customer, "BRIDE@example.com")

	require.NoError(t, err)
	assert.Equal(t, int64(2), claimed)
	assert.Equal(t, customer, *orders.orders[0].CustomerID)
	assert.Equal(t, other, *orders.orders[2].CustomerID)
	assert.Nil(t, orders.orders[3].CustomerID)
}

func TestClaimGuestOrders_UsesStoredEmailWhenNoneGiven(t *testing.T) {
	orders := &fakeOrders{orders: []order.Order{{Email: "bride@example.com"}}}
	customer := uuid.New()
	svc := MustNewCustomerService(
		WithCustomerRepository(&fakeCustomers{byEmail: map[string]uuid.UUID{"bride@example.com": customer}}),
		WithOrderRepository(orders),
	)

	claimed, err := svc.ClaimGuestOrders(context.Background(), customer, "")

	require.NoError(t, err)
	assert.Equal(t, int64(1), claimed)
}

func TestClaimGuestOrders_CannotClaimAnotherCustomersEmail(t *testing.T) {
	orders := &fakeOrders{orders: []order.Order{
		{Email: "bride@example.com"},
		{Email: "mallory@example.com"},
	}}
	bride := uuid.New()
	mallory := uuid.New()
	svc := MustNewCustomerService(
		WithCustomerRepository(&fakeCustomers{byEmail: map[string]uuid.UUID{
			"bride@example.com":   bride,
			"mallory@example.com": mallory,
		}}),
		WithOrderRepository(orders),
	)

	claimed, err := svc.ClaimGuestOrders(context.Background(), mallory, "bride@example.com")

	assert.ErrorIs(t, err, ErrEmailMismatch)
	assert.Zero(t, claimed)
	assert.Nil(t, orders.orders[0].CustomerID)
	assert.Nil(t, orders.orders[1].CustomerID)
}

func TestClaimGuestOrders_UnknownCustomer(t *testing.T) {
	orders := &fakeOrders{orders: []order.Order{{Email: "bride@example.com"}}}
	svc := MustNewCustomerService(
		WithCustomerRepository(&fakeCustomers{}),
		WithOrderRepository(orders),
	)

	_, err := svc.ClaimGuestOrders(context.Background(), uuid.New(), "bride@example.com")

	assert.ErrorIs(t, err, ErrCustomerNotFound)
	assert.Nil(t, orders.orders[0].CustomerID)
}

func TestClaimGuestOrders_Error(t *testing.T) {
	customer := uuid.New()
	svc := MustNewCustomerService(
		WithCustomerRepository(&fakeCustomers{byEmail: map[string]uuid.UUID{"bride@example.com": customer}}),
		WithOrderRepository(&fakeOrders{err: errors.New("boom")}),
	)

	_, err := svc.ClaimGuestOrders(context.Background(), customer, "bride@example.com")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailMismatch)
}
