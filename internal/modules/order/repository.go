package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrStaleStatus means the order's status changed between read and update.
var ErrStaleStatus = errors.New("order status changed concurrently")

// Repository defines order persistence. Multi-statement writes expect to run
// inside the caller's transaction.
type Repository interface {
	// CreateOrder inserts the order, its lines and the initial status entry.
	CreateOrder(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByTrackingCode(ctx context.Context, code string) (*Order, error)
	// GetForUpdate reads the order header and row-locks it.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)
	// UpdateStatus moves from → to only if the stored status is still from,
	// and appends the change to the status log.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) error
	ListHistory(ctx context.Context, id uuid.UUID) ([]StatusChange, error)

	// ListByDateRange returns orders with from <= order_date < to.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*Order, error)
	// CompletedRevenue sums completed orders with from <= order_date < to.
	CompletedRevenue(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error)
	// ItemSales aggregates lines of completed orders with from <= order_date < to,
	// one entry per menu item, in no particular order.
	ItemSales(ctx context.Context, from, to time.Time) ([]ItemSales, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Order, error)
}
