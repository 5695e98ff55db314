package postgresrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/checkout/internal/dal/postgres"
	"github.com/corray333/backend-labs/checkout/internal/service/models/orderitem"
	"github.com/google/uuid"
)

var orderItemColumns = []string{
	"id",
	"order_id",
	"product_id",
	"line_no",
	"title",
	"subtitle",
	"thumbnail",
	"quantity",
	"unit_price",
	"total",
	"metadata",
	"created_at",
}

// OrderItemDal represents order item data access layer model.
type OrderItemDal struct {
	Id        uuid.UUID     `db:"id"`
	OrderId   uuid.UUID     `db:"order_id"`
	ProductId uuid.NullUUID `db:"product_id"`
	LineNo    int           `db:"line_no"`
	Title     string        `db:"title"`
	Subtitle  string        `db:"subtitle"`
	Thumbnail string        `db:"thumbnail"`
	Quantity  int           `db:"quantity"`
	UnitPrice int64         `db:"unit_price"`
	Total     int64         `db:"total"`
	Metadata  []byte        `db:"metadata"`
	CreatedAt time.Time     `db:"created_at"`
}

// ToModel converts OrderItemDal to service layer OrderItem model.
func (oi *OrderItemDal) ToModel() (*orderitem.OrderItem, error) {
	model := &orderitem.OrderItem{
		ID:        oi.Id,
		OrderID:   oi.OrderId,
		Title:     oi.Title,
		Subtitle:  oi.Subtitle,
		Thumbnail: oi.Thumbnail,
		Quantity:  oi.Quantity,
		UnitPrice: oi.UnitPrice,
		Total:     oi.Total,
		CreatedAt: oi.CreatedAt,
	}

	if oi.ProductId.Valid {
		id := oi.ProductId.UUID
		model.ProductID = &id
	}

	if len(oi.Metadata) > 0 {
		if err := json.Unmarshal(oi.Metadata, &model.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode order item metadata: %w", err)
		}
	}

	return model, nil
}

// OrderItemDalFromModel converts service layer OrderItem model to OrderItemDal.
func OrderItemDalFromModel(oi *orderitem.OrderItem, lineNo int) (*OrderItemDal, error) {
	md, err := json.Marshal(oi.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order item metadata: %w", err)
	}

	dal := &OrderItemDal{
		Id:        oi.ID,
		OrderId:   oi.OrderID,
		LineNo:    lineNo,
		Title:     oi.Title,
		Subtitle:  oi.Subtitle,
		Thumbnail: oi.Thumbnail,
		Quantity:  oi.Quantity,
		UnitPrice: oi.UnitPrice,
		Total:     oi.Total,
		Metadata:  md,
		CreatedAt: oi.CreatedAt,
	}
	if oi.ProductID != nil {
		dal.ProductId = uuid.NullUUID{UUID: *oi.ProductID, Valid: true}
	}

	return dal, nil
}

// PostgresOrderItemRepository represents a Postgres order item repository.
type PostgresOrderItemRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderItemRepository creates a new Postgres order item repository.
func NewPostgresOrderItemRepository(conn postgres.GenericConn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// BulkInsert inserts order items in one statement and returns them with generated ids,
// in the order they were given.
func (r *PostgresOrderItemRepository) BulkInsert(
	ctx context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(orderItems) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	builder := r.sb.
		Insert("order_items").
		Columns(
			"order_id",
			"product_id",
			"line_no",
			"title",
			"subtitle",
			"thumbnail",
			"quantity",
			"unit_price",
			"total",
			"metadata",
		)

	for i := range orderItems {
		dal, err := OrderItemDalFromModel(&orderItems[i], i)
		if err != nil {
			return nil, err
		}
		builder = builder.Values(
			dal.OrderId,
			dal.ProductId,
			dal.LineNo,
			dal.Title,
			dal.Subtitle,
			dal.Thumbnail,
			dal.Quantity,
			dal.UnitPrice,
			dal.Total,
			dal.Metadata,
		)
	}

	sql, args, err := builder.
		Suffix("RETURNING " + strings.Join(orderItemColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build order items insert query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}
	defer rows.Close()

	result := make([]orderitem.OrderItem, len(orderItems))
	inserted := 0
	for rows.Next() {
		model, lineNo, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		if lineNo < 0 || lineNo >= len(result) {
			return nil, fmt.Errorf("unexpected line number %d in insert result", lineNo)
		}
		result[lineNo] = *model
		inserted++
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}

	if inserted != len(orderItems) {
		return nil, fmt.Errorf("inserted %d of %d order items", inserted, len(orderItems))
	}

	return result, nil
}

// Query retrieves order items based on filter criteria, in cart order.
func (r *PostgresOrderItemRepository) Query(
	ctx context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	query := r.sb.
		Select(orderItemColumns...).
		From("order_items")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": filter.Ids})
	}

	if len(filter.OrderIds) > 0 {
		query = query.Where(sq.Eq{"order_id": filter.OrderIds})
	}

	query = query.OrderBy("order_id", "line_no ASC")

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
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		model, _, err := scanOrderItem(rows)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrderItem(row rowScanner) (*orderitem.OrderItem, int, error) {
	var dal OrderItemDal
	err := row.Scan(
		&dal.Id,
		&dal.OrderId,
		&dal.ProductId,
		&dal.LineNo,
		&dal.Title,
		&dal.Subtitle,
		&dal.Thumbnail,
		&dal.Quantity,
		&dal.UnitPrice,
		&dal.Total,
		&dal.Metadata,
		&dal.CreatedAt,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan order item: %w", err)
	}

	model, err := dal.ToModel()
	if err != nil {
		return nil, 0, err
	}

	return model, dal.LineNo, nil
}
