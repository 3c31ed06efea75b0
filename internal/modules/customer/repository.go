package customer

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for customers.
type Repository interface {
	// Create returns ErrCustomerExists when the email is taken.
	Create(ctx context.Context, c *Customer) error
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
}
