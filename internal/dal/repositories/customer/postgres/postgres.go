package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/icustomerrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PostgresCustomerRepository reads registered customers.
type PostgresCustomerRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresCustomerRepository creates a new Postgres customer repository.
func NewPostgresCustomerRepository(conn postgres.GenericConn) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// FindIDByEmail returns the id of the customer whose stored email equals email, or nil.
func (r *PostgresCustomerRepository) FindIDByEmail(ctx context.Context, email string) (*uuid.UUID, error) {
	sql, args, err := r.sb.
		Select("id").
		From("customers").
		Where(sq.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build customer query: %w", err)
	}

	var id uuid.UUID
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to query customer: %w", err)
	}

	return &id, nil
}

// GetEmailByID returns the stored email of the customer, or icustomerrepo.ErrNotFound.
func (r *PostgresCustomerRepository) GetEmailByID(ctx context.Context, id uuid.UUID) (string, error) {
	sql, args, err := r.sb.
		Select("email").
		From("customers").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build customer query: %w", err)
	}

	var email string
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", icustomerrepo.ErrNotFound
		}

		return "", fmt.Errorf("failed to query customer: %w", err)
	}

	return email, nil
}
