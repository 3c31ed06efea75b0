package pricing

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/promotion"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

type stubPromotions struct {
	promos map[string]*promotion.Promotion
	err    error
}

func (s stubPromotions) FindPromotion(ctx context.Context, code string) (*promotion.Promotion, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.promos[code]
	if !ok {
		return nil, promotion.ErrNotFound
	}
	return p, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestEngine(promos map[string]*promotion.Promotion) *Engine {
	return NewEngine(dec("0.07"), stubPromotions{promos: promos}, WithClock(func() time.Time { return testNow }))
}

func TestQuote_Scenarios(t *testing.T) {
	expired := testNow.Add(-24 * time.Hour)
	promos := map[string]*promotion.Promotion{
		"SAVE10": {Code: "SAVE10", DiscountPercent: 10},
		"OLD50":  {Code: "OLD50", DiscountPercent: 50, ExpiresAt: &expired},
		"BROKEN": {Code: "BROKEN", DiscountPercent: 150},
	}
	twoTens := []Line{{UnitPrice: dec("10.00"), Quantity: 2}}

	tests := []struct {
		name                           string
		lines                          []Line
		code                           string
		subtotal, discount, tax, total string
		applied                        string
	}{
		{"no promotion", twoTens, "", "20.00", "0.00", "1.40", "21.40", ""},
		{"ten percent", twoTens, "SAVE10", "20.00", "2.00", "1.26", "19.26", "SAVE10"},
		{"expired promotion", twoTens, "OLD50", "20.00", "0.00", "1.40", "21.40", ""},
		{"unknown promotion", twoTens, "NOPE", "20.00", "0.00", "1.40", "21.40", ""},
		{"malformed percent", twoTens, "BROKEN", "20.00", "0.00", "1.40", "21.40", ""},
		{
			"mixed lines",
			[]Line{{UnitPrice: dec("4.99"), Quantity: 3}, {UnitPrice: dec("0.35"), Quantity: 1}},
			"SAVE10", "15.32", "1.53", "0.97", "14.76", "SAVE10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := newTestEngine(promos).Quote(context.Background(), tt.lines, tt.code)
			if err != nil {
				t.Fatalf("Quote: %v", err)
			}
			check := func(field string, got decimal.Decimal, want string) {
				if !got.Equal(dec(want)) {
					t.Errorf("%s = %s, want %s", field, got.StringFixed(2), want)
				}
			}
			check("subtotal", b.Subtotal, tt.subtotal)
			check("discount", b.Discount, tt.discount)
			check("tax", b.Tax, tt.tax)
			check("total", b.Total, tt.total)
			if b.AppliedPromo != tt.applied {
				t.Errorf("applied promo = %q, want %q", b.AppliedPromo, tt.applied)
			}
		})
	}
}

func TestQuote_PromotionExpiringNowStillApplies(t *testing.T) {
	now := testNow
	e := newTestEngine(map[string]*promotion.Promotion{"EDGE": {Code: "EDGE", DiscountPercent: 25, ExpiresAt: &now}})
	b, err := e.Quote(context.Background(), []Line{{UnitPrice: dec("8.00"), Quantity: 1}}, "EDGE")
	if err != nil {
		t.Fatal(err)
	}
	if !b.Discount.Equal(dec("2.00")) {
		t.Errorf("discount = %s, want 2.00", b.Discount)
	}
}

func TestQuote_LookupFailureIsReturned(t *testing.T) {
	boom := errors.New("connection reset")
	e := NewEngine(dec("0.07"), stubPromotions{err: boom})
	_, err := e.Quote(context.Background(), []Line{{UnitPrice: dec("1.00"), Quantity: 1}}, "SAVE10")
	if !errors.Is(err, boom) {
		t.Fatalf("expected datastore error to surface, got %v", err)
	}
}

// Randomised check of the pricing identity and the discount bound.
func TestQuote_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ctx := context.Background()

	for i := 0; i < 2000; i++ {
		var lines []Line
		for n := rng.Intn(6) + 1; n > 0; n-- {
			cents := rng.Int63n(5000) + 1
			lines = append(lines, Line{UnitPrice: decimal.New(cents, -2), Quantity: rng.Intn(9) + 1})
		}
		percent := rng.Intn(100) + 1
		e := newTestEngine(map[string]*promotion.Promotion{"P": {Code: "P", DiscountPercent: percent}})
		code := ""
		if rng.Intn(2) == 0 {
			code = "P"
		}

		b, err := e.Quote(ctx, lines, code)
		if err != nil {
			t.Fatal(err)
		}
		if !b.Total.Equal(b.Subtotal.Sub(b.Discount).Add(b.Tax)) {
			t.Fatalf("identity broken: %+v", b)
		}
		if b.Discount.IsNegative() || b.Discount.GreaterThan(b.Subtotal) {
			t.Fatalf("discount out of bounds: %+v", b)
		}
		for _, v := range []decimal.Decimal{b.Subtotal, b.Discount, b.Tax, b.Total} {
			if !v.Equal(v.Round(2)) {
				t.Fatalf("value %s not rounded to cents", v)
			}
		}

		// Stays within a cent of the unrounded computation.
		sub := Subtotal(lines)
		disc := decimal.Zero
		if code != "" {
			disc = sub.Mul(decimal.NewFromInt(int64(percent))).Div(decimal.NewFromInt(100))
		}
		exact := sub.Sub(disc).Mul(dec("1.07"))
		if b.Total.Sub(exact).Abs().GreaterThan(dec("0.01")) {
			t.Fatalf("total %s drifts from exact %s", b.Total, exact)
		}
	}
}
