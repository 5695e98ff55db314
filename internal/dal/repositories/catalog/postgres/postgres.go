package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/checkout/internal/dal/postgres"
	"github.com/corray333/backend-labs/checkout/internal/service/models/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostgresCatalogRepository reads variant prices from the catalog tables.
type PostgresCatalogRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresCatalogRepository creates a new Postgres catalog repository.
func NewPostgresCatalogRepository(conn postgres.GenericConn) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// PrimaryVariantPrices returns, for each live product among ids, the price of its
// first variant by position. Deleted products are skipped.
func (r *PostgresCatalogRepository) PrimaryVariantPrices(
	ctx context.Context,
	ids []uuid.UUID,
) ([]catalog.VariantPrice, error) {
	if len(ids) == 0 {
		return []catalog.VariantPrice{}, nil
	}

	sql, args, err := r.sb.
		Select("DISTINCT ON (v.product_id) v.product_id", "v.price::text").
		From("product_variants v").
		Join("products p ON p.id = v.product_id").
		Where(sq.Eq{"v.product_id": ids}).
		Where(sq.Eq{"p.deleted_at": nil}).
		OrderBy("v.product_id", "v.position ASC", "v.created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog price query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog prices: %w", err)
	}
	defer rows.Close()

	result := make([]catalog.VariantPrice, 0, len(ids))
	for rows.Next() {
		var (
			productID uuid.UUID
			rawPrice  string
		)
		if err := rows.Scan(&productID, &rawPrice); err != nil {
			return nil, fmt.Errorf("failed to scan catalog price: %w", err)
		}

		amount, err := decimal.NewFromString(rawPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price of product %s: %w", productID, err)
		}

		result = append(result, catalog.VariantPrice{ProductID: productID, Amount: amount})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
