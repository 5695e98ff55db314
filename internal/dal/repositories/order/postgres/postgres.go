package postgresrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/postgres"
	"github.com/corray333/backend-labs/checkout/internal/service/models/currency"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/internal/service/models/orderitem"
	"github.com/google/uuid"
)

const idempotencyConstraint = "orders_idempotency_key_key"

var orderColumns = []string{
	"id",
	"display_id",
	"email",
	"customer_id",
	"status",
	"fulfillment_status",
	"payment_status",
	"currency_code",
	"subtotal",
	"shipping_total",
	"total",
	"shipping_address",
	"billing_address",
	"shipping_method",
	"metadata",
	"idempotency_key",
	"created_at",
}

// OrderDal represents order data access layer model.
type OrderDal struct {
	Id                uuid.UUID     `db:"id"`
	DisplayId         int64         `db:"display_id"`
	Email             string        `db:"email"`
	CustomerId        uuid.NullUUID `db:"customer_id"`
	Status            string        `db:"status"`
	FulfillmentStatus string        `db:"fulfillment_status"`
	PaymentStatus     string        `db:"payment_status"`
	CurrencyCode      string        `db:"currency_code"`
	Subtotal          int64         `db:"subtotal"`
	ShippingTotal     int64         `db:"shipping_total"`
	Total             int64         `db:"total"`
	ShippingAddress   []byte        `db:"shipping_address"`
	BillingAddress    []byte        `db:"billing_address"`
	ShippingMethod    string        `db:"shipping_method"`
	Metadata          []byte        `db:"metadata"`
	IdempotencyKey    *string       `db:"idempotency_key"`
	CreatedAt         time.Time     `db:"created_at"`
}

// ToModel converts OrderDal to service layer Order model.
func (o *OrderDal) ToModel() (*order.Order, error) {
	cur, err := currency.ParseCurrency(o.CurrencyCode)
	if err != nil {
		return nil, err
	}

	model := &order.Order{
		ID:                o.Id,
		DisplayID:         o.DisplayId,
		Email:             o.Email,
		Status:            order.Status(o.Status),
		FulfillmentStatus: order.FulfillmentStatus(o.FulfillmentStatus),
		PaymentStatus:     order.PaymentStatus(o.PaymentStatus),
		CurrencyCode:      cur,
		Subtotal:          o.Subtotal,
		ShippingTotal:     o.ShippingTotal,
		Total:             o.Total,
		ShippingMethod:    o.ShippingMethod,
		CreatedAt:         o.CreatedAt,
		OrderItems:        []orderitem.OrderItem{}, // Will be populated separately
	}

	if o.CustomerId.Valid {
		id := o.CustomerId.UUID
		model.CustomerID = &id
	}
	if o.IdempotencyKey != nil {
		model.IdempotencyKey = *o.IdempotencyKey
	}

	if err := json.Unmarshal(o.ShippingAddress, &model.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to decode shipping address: %w", err)
	}
	if err := json.Unmarshal(o.BillingAddress, &model.BillingAddress); err != nil {
		return nil, fmt.Errorf("failed to decode billing address: %w", err)
	}
	if len(o.Metadata) > 0 {
		if err := json.Unmarshal(o.Metadata, &model.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode order metadata: %w", err)
		}
	}

	return model, nil
}

// OrderDalFromModel converts service layer Order model to OrderDal.
func OrderDalFromModel(o *order.Order) (*OrderDal, error) {
	shipping, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to encode shipping address: %w", err)
	}
	billing, err := json.Marshal(o.BillingAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to encode billing address: %w", err)
	}

	metadata := o.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	md, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order metadata: %w", err)
	}

	dal := &OrderDal{
		Id:                o.ID,
		DisplayId:         o.DisplayID,
		Email:             o.Email,
		Status:            string(o.Status),
		FulfillmentStatus: string(o.FulfillmentStatus),
		PaymentStatus:     string(o.PaymentStatus),
		CurrencyCode:      o.CurrencyCode.String(),
		Subtotal:          o.Subtotal,
		ShippingTotal:     o.ShippingTotal,
		Total:             o.Total,
		ShippingAddress:   shipping,
		BillingAddress:    billing,
		ShippingMethod:    o.ShippingMethod,
		Metadata:          md,
		CreatedAt:         o.CreatedAt,
	}
	if o.CustomerID != nil {
		dal.CustomerId = uuid.NullUUID{UUID: *o.CustomerID, Valid: true}
	}
	if o.IdempotencyKey != "" {
		key := o.IdempotencyKey
		dal.IdempotencyKey = &key
	}

	return dal, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var dal OrderDal
	err := row.Scan(
		&dal.Id,
		&dal.DisplayId,
		&dal.Email,
		&dal.CustomerId,
		&dal.Status,
		&dal.FulfillmentStatus,
		&dal.PaymentStatus,
		&dal.CurrencyCode,
		&dal.Subtotal,
		&dal.ShippingTotal,
		&dal.Total,
		&dal.ShippingAddress,
		&dal.BillingAddress,
		&dal.ShippingMethod,
		&dal.Metadata,
		&dal.IdempotencyKey,
		&dal.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	model, err := dal.ToModel()
	if err != nil {
		return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
	}

	return model, nil
}

// PostgresOrderRepository represents a Postgres order repository.
type PostgresOrderRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(conn postgres.GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert inserts the order header. id, display_id and created_at are assigned by the database.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	dal, err := OrderDalFromModel(&o)
	if err != nil {
		return order.Order{}, err
	}

	query, args, err := r.sb.
		Insert("orders").
		Columns(
			"email",
			"customer_id",
			"status",
			"fulfillment_status",
			"payment_status",
			"currency_code",
			"subtotal",
			"shipping_total",
			"total",
			"shipping_address",
			"billing_address",
			"shipping_method",
			"metadata",
			"idempotency_key",
		).
		Values(
			dal.Email,
			dal.CustomerId,
			dal.Status,
			dal.FulfillmentStatus,
			dal.PaymentStatus,
			dal.CurrencyCode,
			dal.Subtotal,
			dal.ShippingTotal,
			dal.Total,
			dal.ShippingAddress,
			dal.BillingAddress,
			dal.ShippingMethod,
			dal.Metadata,
			dal.IdempotencyKey,
		).
		Suffix("RETURNING " + strings.Join(orderColumns, ", ")).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	inserted, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsUniqueViolation(err, idempotencyConstraint) {
			return order.Order{}, iorderrepo.ErrIdempotencyConflict
		}

		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return *inserted, nil
}

// Query retrieves orders based on filter criteria, ordered by display id.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	query := r.sb.
		Select(orderColumns...).
		From("orders")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": filter.Ids})
	}

	if len(filter.DisplayIds) > 0 {
		query = query.Where(sq.Eq{"display_id": filter.DisplayIds})
	}

	if len(filter.Emails) > 0 {
		query = query.Where(sq.Eq{"email": filter.Emails})
	}

	if len(filter.IdempotencyKeys) > 0 {
		query = query.Where(sq.Eq{"idempotency_key": filter.IdempotencyKeys})
	}

	query = query.OrderBy("display_id ASC")

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		model, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// AttachCustomer sets customer_id on guest orders placed with the email.
func (r *PostgresOrderRepository) AttachCustomer(
	ctx context.Context,
	customerID uuid.UUID,
	email string,
) (int64, error) {
	query, args, err := r.sb.
		Update("orders").
		Set("customer_id", customerID).
		Where(sq.Eq{"email": email, "customer_id": nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to attach customer to orders: %w", err)
	}

	return tag.RowsAffected(), nil
}
