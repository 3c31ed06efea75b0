package inventory

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrInvalidResource  = errors.New("invalid resource")
	ErrInvalidDemand    = errors.New("invalid demand")
	// ErrResourceMissing means an ingredient mapping points at a resource that
	// no longer exists.
	ErrResourceMissing = errors.New("ingredient references a missing resource")
	ErrResourceExists  = errors.New("resource with this name already exists")
)

// Resource is an inventory-tracked ingredient with its quantity on hand.
type Resource struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Amount    int       `json:"amount"`
	Unit      string    `json:"unit,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResourceRequest is the payload for creating a resource.
type ResourceRequest struct {
	Name   string `json:"name"`
	Amount int    `json:"amount"`
	Unit   string `json:"unit"`
}

// Demand asks for Quantity units of a menu item.
type Demand struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int       `json:"quantity"`
}

// Requirement is one ingredient row of a menu item joined with current stock.
// Missing is set when the referenced resource row does not exist.
type Requirement struct {
	MenuItemID   uuid.UUID
	ResourceID   uuid.UUID
	ResourceName string
	PerUnit      int
	Available    int
	Missing      bool
}

// ResourceAvailability compares what an item needs of a resource with stock.
// Required is this item's share; BatchRequired is what every item in the
// batch sharing the resource needs together, and Sufficient is judged on it.
type ResourceAvailability struct {
	ResourceID    uuid.UUID `json:"resource_id"`
	Required      int       `json:"required"`
	BatchRequired int       `json:"batch_required"`
	Available     int       `json:"available"`
	Sufficient    bool      `json:"sufficient"`
}

type ItemAvailability struct {
	Available   bool                            `json:"available"`
	PerResource map[string]ResourceAvailability `json:"per_resource"`
}

// AvailabilityReport is the result of a stock check for a batch of demands.
type AvailabilityReport struct {
	AllAvailable bool                           `json:"all_available"`
	PerItem      map[uuid.UUID]ItemAvailability `json:"per_item"`
}

// Shortages folds the insufficient entries of the report into one shortage
// per resource, summing what every item in the batch requires.
func (r *AvailabilityReport) Shortages() []Shortage {
	byID := map[uuid.UUID]*Shortage{}
	for _, item := range r.PerItem {
		for name, res := range item.PerResource {
			if res.Sufficient {
				continue
			}
			s, ok := byID[res.ResourceID]
			if !ok {
				s = &Shortage{ResourceID: res.ResourceID, Name: name, Available: res.Available}
				byID[res.ResourceID] = s
			}
			s.Required += res.Required
		}
	}
	out := make([]Shortage, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Shortage describes one resource that cannot cover the batch.
type Shortage struct {
	ResourceID uuid.UUID `json:"resource_id"`
	Name       string    `json:"name"`
	Required   int       `json:"required"`
	Available  int       `json:"available"`
}

// InsufficientInventoryError lists every resource the batch would overdraw.
type InsufficientInventoryError struct {
	Shortages []Shortage
}

func (e *InsufficientInventoryError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("%s (required %d, available %d)", s.Name, s.Required, s.Available)
	}
	return "insufficient inventory: " + strings.Join(parts, ", ")
}

func newInsufficientInventoryError(shortages []Shortage) *InsufficientInventoryError {
	sort.Slice(shortages, func(i, j int) bool { return shortages[i].Name < shortages[j].Name })
	return &InsufficientInventoryError{Shortages: shortages}
}
