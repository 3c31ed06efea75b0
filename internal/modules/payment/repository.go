package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for payments.
type Repository interface {
	// Create returns ErrPaymentAlreadyExists when the order already has a
	// pending or completed payment.
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	// GetByOrder returns the order's most recent payment attempt.
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, gatewayRef, failure string) error
}
