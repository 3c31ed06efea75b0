package menu

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound     = errors.New("menu item not found")
	ErrInvalidItem      = errors.New("invalid menu item")
	ErrResourceNotFound = errors.New("resource not found")
)

// Category is the dietary category shown on the menu.
type Category string

const (
	CategoryRegular    Category = "regular"
	CategoryVegetarian Category = "vegetarian"
	CategoryVegan      Category = "vegan"
	CategoryGlutenFree Category = "gluten_free"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryRegular, CategoryVegetarian, CategoryVegan, CategoryGlutenFree:
		return true
	}
	return false
}

// Item is a dish on the menu.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    Category        `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Calories    int             `json:"calories,omitempty"`
	IsAvailable bool            `json:"is_available"`
	Ingredients []*Ingredient   `json:"ingredients,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Ingredient is how much of a resource one unit of a menu item consumes.
type Ingredient struct {
	ResourceID   uuid.UUID `json:"resource_id"`
	ResourceName string    `json:"resource_name,omitempty"`
	Amount       int       `json:"amount"`
}

// ItemRequest is the payload for creating or replacing a menu item.
type ItemRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Calories    int             `json:"calories"`
	IsAvailable *bool           `json:"is_available,omitempty"`
}
