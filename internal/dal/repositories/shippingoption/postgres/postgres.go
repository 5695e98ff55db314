package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/ishippingoptionrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/postgres"
	"github.com/corray333/backend-labs/checkout/internal/service/models/shippingoption"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PostgresShippingOptionRepository reads shipping options.
type PostgresShippingOptionRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresShippingOptionRepository creates a new Postgres shipping option repository.
func NewPostgresShippingOptionRepository(conn postgres.GenericConn) *PostgresShippingOptionRepository {
	return &PostgresShippingOptionRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetByID returns ishippingoptionrepo.ErrNotFound when no option has the id.
func (r *PostgresShippingOptionRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*shippingoption.ShippingOption, error) {
	sql, args, err := r.sb.
		Select("id", "name", "amount").
		From("shipping_options").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build shipping option query: %w", err)
	}

	var opt shippingoption.ShippingOption
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&opt.ID, &opt.Name, &opt.Amount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ishippingoptionrepo.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query shipping option: %w", err)
	}

	return &opt, nil
}
