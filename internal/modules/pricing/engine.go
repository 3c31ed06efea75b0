// Package pricing turns priced order lines and an optional promotion code
// into the subtotal/discount/tax/total breakdown stored on an order.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/promotion"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Line is a priced order line.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Breakdown holds the derived monetary fields, each rounded to cents.
// Total always equals Subtotal - Discount + Tax exactly.
type Breakdown struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount_amount"`
	Tax             decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total_amount"`
	AppliedPromo    string          `json:"applied_promotion,omitempty"`
	DiscountPercent int             `json:"discount_percent,omitempty"`
}

// PromotionFinder resolves a promotion code. It returns promotion.ErrNotFound
// for unknown codes.
type PromotionFinder interface {
	FindPromotion(ctx context.Context, code string) (*promotion.Promotion, error)
}

type Engine struct {
	taxRate decimal.Decimal
	promos  PromotionFinder
	now     func() time.Time
}

type Option func(*Engine)

// WithClock overrides the clock used for promotion expiry checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(taxRate decimal.Decimal, promos PromotionFinder, opts ...Option) *Engine {
	e := &Engine{taxRate: taxRate, promos: promos, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) TaxRate() decimal.Decimal { return e.taxRate }

// Subtotal is the exact sum of unit price times quantity.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Quote prices the lines. An unknown, expired or malformed promotion yields
// a zero discount; only datastore failures are returned as errors.
func (e *Engine) Quote(ctx context.Context, lines []Line, promoCode string) (Breakdown, error) {
	subtotal := Subtotal(lines)

	percent, applied, err := e.resolvePercent(ctx, promoCode)
	if err != nil {
		return Breakdown{}, err
	}

	discount := subtotal.Mul(decimal.NewFromInt(int64(percent))).Div(hundred)
	tax := subtotal.Sub(discount).Mul(e.taxRate)

	b := Breakdown{
		Subtotal:        subtotal.Round(2),
		Discount:        discount.Round(2),
		Tax:             tax.Round(2),
		AppliedPromo:    applied,
		DiscountPercent: percent,
	}
	b.Total = b.Subtotal.Sub(b.Discount).Add(b.Tax)
	return b, nil
}

func (e *Engine) resolvePercent(ctx context.Context, code string) (int, string, error) {
	code = strings.TrimSpace(code)
	if code == "" || e.promos == nil {
		return 0, "", nil
	}
	p, err := e.promos.FindPromotion(ctx, code)
	if errors.Is(err, promotion.ErrNotFound) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("lookup promotion %q: %w", code, err)
	}
	if !p.ActiveAt(e.now()) {
		return 0, "", nil
	}
	if p.DiscountPercent < 1 || p.DiscountPercent > 100 {
		return 0, "", nil
	}
	return p.DiscountPercent, p.Code, nil
}
