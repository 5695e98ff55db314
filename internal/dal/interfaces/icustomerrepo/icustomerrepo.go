package icustomerrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("customer not found")

// ICustomerRepository reads registered customers.
type ICustomerRepository interface {
	// FindIDByEmail returns nil when no customer has the email.
	FindIDByEmail(ctx context.Context, email string) (*uuid.UUID, error)
	// GetEmailByID returns ErrNotFound when no customer has the id.
	GetEmailByID(ctx context.Context, id uuid.UUID) (string, error)
}
