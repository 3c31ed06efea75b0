package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrOrderNotFound = errors.New("order not found")

// Type is how the order is fulfilled.
type Type string

const (
	TypeDineIn   Type = "dine_in"
	TypeTakeout  Type = "takeout"
	TypeDelivery Type = "delivery"
)

func (t Type) Valid() bool {
	switch t {
	case TypeDineIn, TypeTakeout, TypeDelivery:
		return true
	}
	return false
}

// Owner is who placed the order: a CustomerOwner or a GuestOwner.
type Owner interface {
	isOwner()
}

// CustomerOwner is a registered customer account.
type CustomerOwner struct {
	ID uuid.UUID
}

// GuestOwner is a walk-in or phone customer identified by contact details.
type GuestOwner struct {
	Name  string
	Phone string
	Email string
}

func (CustomerOwner) isOwner() {}
func (GuestOwner) isOwner()    {}

func (c CustomerOwner) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind       string    `json:"kind"`
		CustomerID uuid.UUID `json:"customer_id"`
	}{"customer", c.ID})
}

func (g GuestOwner) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Email string `json:"email,omitempty"`
	}{"guest", g.Name, g.Phone, g.Email})
}

// Order is the aggregate root: header, priced lines and status log.
type Order struct {
	ID                  uuid.UUID       `json:"id"`
	TrackingCode        string          `json:"tracking_code"`
	Owner               Owner           `json:"owner"`
	Description         string          `json:"description,omitempty"`
	Status              Status          `json:"status"`
	Type                Type            `json:"order_type"`
	PromotionCode       string          `json:"promotion_code,omitempty"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	TaxAmount           decimal.Decimal `json:"tax_amount"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	OrderDate           time.Time       `json:"order_date"`
	EstimatedCompletion time.Time       `json:"estimated_completion"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Lines               []*Line         `json:"lines"`
}

// Line is one menu item of an order with its price captured at creation.
type Line struct {
	ID         uuid.UUID       `json:"id"`
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	ItemName   string          `json:"item_name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

// StatusChange is one entry of the append-only status log. The creation
// entry has an empty From.
type StatusChange struct {
	From      Status    `json:"from,omitempty"`
	To        Status    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}

// LineInput is a requested (menu item, quantity) pair.
type LineInput struct {
	MenuItemID uuid.UUID
	Quantity   int
}

// NewOrder is everything a caller supplies to place an order.
type NewOrder struct {
	Owner         Owner
	Lines         []LineInput
	Type          Type
	PromotionCode string
	Description   string
}

// SummaryLine is a line as shown to a tracking customer.
type SummaryLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Summary is the customer-facing view of an order.
type Summary struct {
	OrderID             uuid.UUID       `json:"order_id"`
	TrackingCode        string          `json:"tracking_code"`
	Status              Status          `json:"status"`
	Type                Type            `json:"order_type"`
	Items               []SummaryLine   `json:"items"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	OrderDate           time.Time       `json:"order_date"`
	EstimatedCompletion time.Time       `json:"estimated_completion"`
	MinutesRemaining    int             `json:"minutes_remaining"`
	History             []StatusChange  `json:"history,omitempty"`
}

// DailyRevenue aggregates completed orders placed on one calendar day.
type DailyRevenue struct {
	Date         string          `json:"date"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	OrderCount   int             `json:"order_count"`
}

// ItemSales is the raw per-menu-item aggregate over completed orders.
type ItemSales struct {
	MenuItemID   uuid.UUID
	Name         string
	OrderCount   int
	QuantitySold int
	Revenue      decimal.Decimal
}

// MenuItemPerformance ranks a menu item by units sold over a date range.
// Revenue is the sum of line totals, before order-level discount and tax.
type MenuItemPerformance struct {
	Rank         int             `json:"rank"`
	MenuItemID   uuid.UUID       `json:"menu_item_id"`
	Name         string          `json:"name"`
	OrderCount   int             `json:"order_count"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// ValidationError collects every problem found with an order request.
// UnresolvedItems holds each unknown or unavailable menu item once.
type ValidationError struct {
	Problems        []string    `json:"problems"`
	UnresolvedItems []uuid.UUID `json:"unresolved_items,omitempty"`
}

func (e *ValidationError) Error() string {
	msg := "invalid order: " + strings.Join(e.Problems, "; ")
	if len(e.UnresolvedItems) > 0 {
		ids := make([]string, len(e.UnresolvedItems))
		for i, id := range e.UnresolvedItems {
			ids[i] = id.String()
		}
		msg += fmt.Sprintf(" (menu items: %s)", strings.Join(ids, ", "))
	}
	return msg
}

func newValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func unresolvedError(ids map[uuid.UUID]bool) *ValidationError {
	out := make([]uuid.UUID, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return &ValidationError{
		Problems:        []string{"menu items are unknown or unavailable"},
		UnresolvedItems: out,
	}
}
