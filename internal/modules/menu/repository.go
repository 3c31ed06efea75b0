package menu

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines menu item and ingredient mapping storage.
type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	// List expects a normalised filter.
	List(ctx context.Context, filter ItemFilter) ([]*Item, error)
	Update(ctx context.Context, item *Item) error
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error

	ListIngredients(ctx context.Context, menuItemID uuid.UUID) ([]*Ingredient, error)
	// SetIngredient inserts or replaces the per-unit amount of a resource.
	SetIngredient(ctx context.Context, menuItemID uuid.UUID, in *Ingredient) error
	RemoveIngredient(ctx context.Context, menuItemID, resourceID uuid.UUID) error
}
