package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentAlreadyExists = errors.New("order already has a payment")
	ErrInvalidPayment       = errors.New("invalid payment")
	ErrRefundNotAllowed     = errors.New("only completed payments can be refunded")
)

// Tolerance is the largest accepted difference between a payment and the
// order total.
var Tolerance = decimal.New(1, -2)

// Method is how the customer pays.
type Method string

const (
	MethodCash       Method = "cash"
	MethodCreditCard Method = "credit_card"
	MethodDebitCard  Method = "debit_card"
	MethodGiftCard   Method = "gift_card"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCreditCard, MethodDebitCard, MethodGiftCard:
		return true
	}
	return false
}

// Status represents the lifecycle of a payment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Active reports whether the payment holds the order's one payment slot.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusCompleted
}

// Payment is one settlement attempt for an order.
type Payment struct {
	ID         uuid.UUID       `json:"id"`
	OrderID    uuid.UUID       `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     Method          `json:"method"`
	Status     Status          `json:"status"`
	GatewayRef string          `json:"gateway_ref,omitempty"`
	Failure    string          `json:"failure,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ProcessPaymentRequest is the payload to pay for an order.
type ProcessPaymentRequest struct {
	OrderID string          `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method"`
}

// AmountMismatchError is returned when the tendered amount differs from the
// order total by more than Tolerance.
type AmountMismatchError struct {
	Expected decimal.Decimal `json:"expected"`
	Received decimal.Decimal `json:"received"`
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("payment amount %s does not match order total %s",
		e.Received.StringFixed(2), e.Expected.StringFixed(2))
}

// SettledEvent is published after a payment completes.
type SettledEvent struct {
	PaymentID uuid.UUID       `json:"payment_id"`
	OrderID   uuid.UUID       `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    Method          `json:"method"`
}
