package inventory

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines resource storage and the ingredient lookups the ledger needs.
type Repository interface {
	Create(ctx context.Context, r *Resource) error
	GetByID(ctx context.Context, id uuid.UUID) (*Resource, error)
	List(ctx context.Context) ([]*Resource, error)
	LowStock(ctx context.Context, threshold int) ([]*Resource, error)
	Restock(ctx context.Context, id uuid.UUID, delta int) (*Resource, error)
	SetAmount(ctx context.Context, id uuid.UUID, amount int) (*Resource, error)

	// ListRequirements returns the ingredient rows of the given menu items.
	ListRequirements(ctx context.Context, menuItemIDs []uuid.UUID) ([]Requirement, error)
	// LockResources reads and row-locks the given resources, in id order.
	// Must run inside a transaction.
	LockResources(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Resource, error)
	// Decrement subtracts delta only if the result stays non-negative.
	// It reports false when the guard rejected the update.
	Decrement(ctx context.Context, id uuid.UUID, delta int) (bool, error)
}
