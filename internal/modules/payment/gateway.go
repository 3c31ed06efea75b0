package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gateway is the settlement provider. To integrate a real processor,
// implement this interface.
type Gateway interface {
	// Settle attempts to capture the payment. A declined payment is reported
	// through Settlement.Approved, not as an error.
	Settle(ctx context.Context, p *Payment) (*Settlement, error)
	// Refund returns a settled amount to the customer.
	Refund(ctx context.Context, gatewayRef string, amount decimal.Decimal) (string, error)
}

// Settlement is the provider's answer to a capture attempt.
type Settlement struct {
	Approved  bool   `json:"approved"`
	Reference string `json:"reference,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ── Simulated Gateway ─────────────────────────────────────────────────────────
// Approves everything except one configured sentinel amount, which lets
// staff exercise the decline path end to end.

type simulatedGateway struct {
	declineAmount decimal.Decimal
	now           func() time.Time
}

func NewSimulatedGateway(declineAmount decimal.Decimal) Gateway {
	return &simulatedGateway{declineAmount: declineAmount, now: time.Now}
}

func (g *simulatedGateway) reference(kind string) string {
	return fmt.Sprintf("SIM-%s-%s-%s", kind, g.now().Format("20060102150405"), uuid.NewString()[:8])
}

func (g *simulatedGateway) Settle(ctx context.Context, p *Payment) (*Settlement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Amount.Equal(g.declineAmount) {
		return &Settlement{Approved: false, Message: "card declined by issuer"}, nil
	}
	return &Settlement{
		Approved:  true,
		Reference: g.reference("PAY"),
		Message:   fmt.Sprintf("%s payment of %s captured", p.Method, p.Amount.StringFixed(2)),
	}, nil
}

func (g *simulatedGateway) Refund(ctx context.Context, gatewayRef string, amount decimal.Decimal) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if gatewayRef == "" {
		return "", fmt.Errorf("refund requires a settlement reference")
	}
	return g.reference("REF"), nil
}
