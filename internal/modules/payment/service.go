package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/order"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/database"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/events"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/logger"
)

// Service reconciles payments with orders.
type Service interface {
	// ProcessPayment settles a payment for the order. A declined settlement
	// returns the failed payment without an error; the order may then be
	// paid again, as it may after a refunded attempt.
	ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (*Payment, error)
	GetPaymentByOrder(ctx context.Context, orderID string) (*Payment, error)
	RefundPayment(ctx context.Context, id string) (*Payment, error)
}

// Orders is the part of the order lifecycle payments drive.
type Orders interface {
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	ConfirmOrder(ctx context.Context, id string) (*order.Order, error)
}

type service struct {
	repo      Repository
	tx        database.TxRunner
	orders    Orders
	gateway   Gateway
	publisher events.Publisher
	log       *slog.Logger
}

func NewService(repo Repository, tx database.TxRunner, orders Orders, gateway Gateway, publisher events.Publisher, log *slog.Logger) Service {
	return &service{
		repo:      repo,
		tx:        tx,
		orders:    orders,
		gateway:   gateway,
		publisher: publisher,
		log:       logger.WithComponent(log, "payment_service"),
	}
}

func (s *service) ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (*Payment, error) {
	method := Method(strings.ToLower(strings.TrimSpace(req.Method)))
	if !method.Valid() {
		return nil, fmt.Errorf("%w: method must be one of cash, credit_card, debit_card, gift_card", ErrInvalidPayment)
	}

	o, err := s.orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	// ── Preconditions ─────────────────────────────────────────────────────────
	if prev, err := s.repo.GetByOrder(ctx, o.ID); err == nil {
		if prev.Status.Active() {
			return nil, ErrPaymentAlreadyExists
		}
	} else if !errors.Is(err, ErrPaymentNotFound) {
		return nil, fmt.Errorf("lookup payment: %w", err)
	}
	if o.Status != order.StatusPending {
		return nil, &order.InvalidStateTransitionError{Current: o.Status, Requested: order.StatusConfirmed}
	}
	if req.Amount.Sub(o.TotalAmount).Abs().GreaterThan(Tolerance) {
		s.log.Warn("payment amount mismatch",
			slog.String("order_id", o.ID.String()),
			slog.String("expected", o.TotalAmount.StringFixed(2)),
			slog.String("received", req.Amount.StringFixed(2)))
		return nil, &AmountMismatchError{Expected: o.TotalAmount, Received: req.Amount}
	}

	p := &Payment{
		ID:      uuid.New(),
		OrderID: o.ID,
		Amount:  req.Amount,
		Method:  method,
		Status:  StatusPending,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	// ── Settlement ────────────────────────────────────────────────────────────
	settlement, err := s.gateway.Settle(ctx, p)
	if err != nil || !settlement.Approved {
		reason := "declined"
		if err != nil {
			reason = err.Error()
		} else if settlement.Message != "" {
			reason = settlement.Message
		}
		if uerr := s.repo.UpdateStatus(ctx, p.ID, StatusFailed, "", reason); uerr != nil {
			return nil, fmt.Errorf("record failed settlement: %w", uerr)
		}
		p.Status = StatusFailed
		p.Failure = reason
		s.log.Warn("payment settlement failed",
			slog.String("payment_id", p.ID.String()),
			slog.String("order_id", o.ID.String()),
			slog.String("reason", reason))
		return p, nil
	}
	p.GatewayRef = settlement.Reference

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.orders.ConfirmOrder(ctx, o.ID.String()); err != nil {
			return err
		}
		if err := s.repo.UpdateStatus(ctx, p.ID, StatusCompleted, p.GatewayRef, ""); err != nil {
			return fmt.Errorf("complete payment: %w", err)
		}
		database.AfterCommit(ctx, func() {
			events.Emit(ctx, s.publisher, s.log, events.TypePaymentSettled, SettledEvent{
				PaymentID: p.ID, OrderID: p.OrderID, Amount: p.Amount, Method: p.Method,
			})
		})
		return nil
	})
	if err != nil {
		s.compensate(ctx, p, err)
		return nil, err
	}

	p.Status = StatusCompleted
	s.log.Info("payment settled",
		slog.String("payment_id", p.ID.String()),
		slog.String("order_id", o.ID.String()),
		slog.String("amount", p.Amount.StringFixed(2)),
		slog.String("method", string(p.Method)))
	return p, nil
}

// compensate refunds a captured payment whose order could not be confirmed.
func (s *service) compensate(ctx context.Context, p *Payment, cause error) {
	log := s.log.With(slog.String("payment_id", p.ID.String()), slog.String("order_id", p.OrderID.String()))
	log.Warn("order confirmation failed after settlement, refunding", slog.String("error", cause.Error()))

	ref, err := s.gateway.Refund(ctx, p.GatewayRef, p.Amount)
	if err != nil {
		log.Error("refund after failed confirmation did not go through", slog.String("error", err.Error()))
		if uerr := s.repo.UpdateStatus(ctx, p.ID, StatusFailed, p.GatewayRef, "refund failed: "+err.Error()); uerr != nil {
			log.Error("record payment failure", slog.String("error", uerr.Error()))
		}
		return
	}
	if err := s.repo.UpdateStatus(ctx, p.ID, StatusRefunded, ref, cause.Error()); err != nil {
		log.Error("record refunded payment", slog.String("error", err.Error()))
	}
}

func (s *service) GetPaymentByOrder(ctx context.Context, orderID string) (*Payment, error) {
	uid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid order id %q", ErrInvalidPayment, orderID)
	}
	return s.repo.GetByOrder(ctx, uid)
}

func (s *service) RefundPayment(ctx context.Context, id string) (*Payment, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid payment id %q", ErrInvalidPayment, id)
	}
	p, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusCompleted {
		return nil, fmt.Errorf("%w (current: %s)", ErrRefundNotAllowed, p.Status)
	}

	ref, err := s.gateway.Refund(ctx, p.GatewayRef, p.Amount)
	if err != nil {
		return nil, fmt.Errorf("gateway refund: %w", err)
	}
	if err := s.repo.UpdateStatus(ctx, p.ID, StatusRefunded, ref, ""); err != nil {
		return nil, err
	}
	p.Status = StatusRefunded
	p.GatewayRef = ref
	s.log.Info("payment refunded", slog.String("payment_id", p.ID.String()), slog.String("amount", p.Amount.StringFixed(2)))
	return p, nil
}
