package postgresrepo

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/postgres"
	"github.com/corray333/backend-labs/checkout/internal/service/models/currency"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return mock
}

func TestAttachCustomer_OnlyGuestOrders(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresOrderRepository(mock)
	customerID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE orders SET customer_id = $1 WHERE customer_id IS NULL AND email = $2",
	)).
		WithArgs(customerID, "bride@example.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	claimed, err := repo.AttachCustomer(context.Background(), customerID, "bride@example.com")

	require.NoError(t, err)
	assert.Equal(t, int64(2), claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_ByDisplayIDAndEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresOrderRepository(mock)
	id := uuid.New()
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT "+strings.Join(orderColumns, ", ")+" FROM orders "+
			"WHERE display_id IN ($1) AND email IN ($2) ORDER BY display_id ASC LIMIT 1",
	)).
		WithArgs(int64(1042), "bride@example.com").
		WillReturnRows(pgxmock.NewRows(orderColumns).AddRow(
			id, int64(1042), "bride@example.com", nil,
			"pending", "not_fulfilled", "awaiting", "eur",
			int64(100000), int64(1500), int64(101500),
			[]byte(`{"city":"Berlin","country_code":"DE"}`), []byte(`{"city":"Berlin"}`),
			"Express Shipping", []byte(`{"order_note":"call first"}`), nil, createdAt,
		))

	orders, err := repo.Query(context.Background(), &order.QueryOrdersModel{
		DisplayIds: []int64{1042},
		Emails:     []string{"bride@example.com"},
		Limit:      1,
	})

	require.NoError(t, err)
	require.Len(t, orders, 1)
	got := orders[0]
	assert.Equal(t, id, got.ID)
	assert.Nil(t, got.CustomerID)
	assert.Equal(t, currency.Currency("EUR"), got.CurrencyCode)
	assert.Equal(t, "DE", got.ShippingAddress.CountryCode)
	assert.Equal(t, "call first", got.Metadata["order_note"])
	assert.Empty(t, got.IdempotencyKey)
	assert.Equal(t, createdAt, got.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_IdempotencyConflict(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresOrderRepository(mock)

	args := make([]any, 14)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs(args...).
		WillReturnError(&pgconn.PgError{Code: postgres.UniqueViolation, ConstraintName: idempotencyConstraint})

	_, err := repo.Insert(context.Background(), order.Order{
		Email:          "bride@example.com",
		CurrencyCode:   currency.Currency("EUR"),
		IdempotencyKey: "cart-1",
	})

	assert.ErrorIs(t, err, iorderrepo.ErrIdempotencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
