package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/inventory"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/menu"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/pricing"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/promotion"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/database"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/events"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/logger"
	"github.com/shopspring/decimal"
)

// Service defines the order lifecycle: placement, status transitions,
// tracking and reporting.
type Service interface {
	// CreateOrder validates, pre-checks stock, prices and persists a pending order.
	CreateOrder(ctx context.Context, req NewOrder) (*Order, error)

	// GetOrder retrieves a full order with its lines by UUID.
	GetOrder(ctx context.Context, id string) (*Order, error)

	// ConfirmOrder deducts inventory and moves a pending order to confirmed
	// in one unit of work.
	ConfirmOrder(ctx context.Context, id string) (*Order, error)

	// UpdateStatus applies any transition from the table. Confirmation is
	// routed through ConfirmOrder.
	UpdateStatus(ctx context.Context, id string, target Status) (*Order, error)

	// CancelOrder cancels the order. Deducted inventory is not restocked.
	CancelOrder(ctx context.Context, id string) (*Order, error)

	TrackOrder(ctx context.Context, trackingCode string) (*Summary, error)
	GetOrdersByDateRange(ctx context.Context, start, end time.Time) ([]*Summary, error)
	DailyRevenue(ctx context.Context, day time.Time) (*DailyRevenue, error)
	// MenuItemPerformance ranks menu items sold in completed orders between
	// the start and end days, both inclusive.
	MenuItemPerformance(ctx context.Context, start, end time.Time) ([]*MenuItemPerformance, error)
	ListCustomerOrders(ctx context.Context, customerID uuid.UUID) ([]*Order, error)
}

// MenuCatalog resolves menu items to price and availability.
type MenuCatalog interface {
	ResolveMenuItem(ctx context.Context, id uuid.UUID) (*menu.Item, error)
}

// InventoryLedger is the stock check and deduction the lifecycle drives.
type InventoryLedger interface {
	CheckAvailability(ctx context.Context, demands []inventory.Demand) (*inventory.AvailabilityReport, error)
	Deduct(ctx context.Context, demands []inventory.Demand) error
}

// Pricer quotes priced lines with an optional promotion code.
type Pricer interface {
	Quote(ctx context.Context, lines []pricing.Line, promoCode string) (pricing.Breakdown, error)
}

// MaxLineQuantity caps the units of one menu item on an order, checked per
// request line and again after duplicate lines are merged.
const MaxLineQuantity = 1000

// maxCodeAttempts bounds tracking-code regeneration on collision.
const maxCodeAttempts = 5

type service struct {
	repo      Repository
	tx        database.TxRunner
	catalog   MenuCatalog
	ledger    InventoryLedger
	pricer    Pricer
	publisher events.Publisher
	log       *slog.Logger

	newCode CodeGenerator
	now     func() time.Time
	loc     *time.Location
}

type Option func(*service)

func WithCodeGenerator(gen CodeGenerator) Option {
	return func(s *service) { s.newCode = gen }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithLocation sets the time zone that defines calendar days for reports.
func WithLocation(loc *time.Location) Option {
	return func(s *service) { s.loc = loc }
}

// NewService creates a new order service.
func NewService(
	repo Repository,
	tx database.TxRunner,
	catalog MenuCatalog,
	ledger InventoryLedger,
	pricer Pricer,
	publisher events.Publisher,
	log *slog.Logger,
	opts ...Option,
) Service {
	s := &service{
		repo:      repo,
		tx:        tx,
		catalog:   catalog,
		ledger:    ledger,
		pricer:    pricer,
		publisher: publisher,
		log:       logger.WithComponent(log, "order_service"),
		newCode:   NewCodeGenerator("ORD"),
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatedEvent is published once an order is committed.
type CreatedEvent struct {
	OrderID      uuid.UUID       `json:"order_id"`
	TrackingCode string          `json:"tracking_code"`
	Type         Type            `json:"order_type"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// StatusChangedEvent is published after every committed transition.
type StatusChangedEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	TrackingCode string    `json:"tracking_code"`
	From         Status    `json:"from"`
	To           Status    `json:"to"`
}

// ── Placement ─────────────────────────────────────────────────────────────────

func validateOwner(owner Owner) []string {
	switch o := owner.(type) {
	case CustomerOwner:
		if o.ID == uuid.Nil {
			return []string{"customer id is required"}
		}
	case GuestOwner:
		var problems []string
		if strings.TrimSpace(o.Name) == "" {
			problems = append(problems, "guest name is required")
		}
		if strings.TrimSpace(o.Phone) == "" {
			problems = append(problems, "guest phone is required")
		}
		return problems
	default:
		return []string{"either a customer or guest contact details are required"}
	}
	return nil
}

// mergeLines sums quantities of repeated menu items, keeping first-seen order.
// Inputs are already bounded by MaxLineQuantity; a merged total past it is
// reported as a problem.
func mergeLines(lines []LineInput) ([]LineInput, []string) {
	index := make(map[uuid.UUID]int, len(lines))
	merged := make([]LineInput, 0, len(lines))
	var problems []string
	for _, l := range lines {
		if i, ok := index[l.MenuItemID]; ok {
			merged[i].Quantity += l.Quantity
			if merged[i].Quantity > MaxLineQuantity && merged[i].Quantity-l.Quantity <= MaxLineQuantity {
				problems = append(problems, fmt.Sprintf("combined quantity for menu item %s must not exceed %d", l.MenuItemID, MaxLineQuantity))
			}
			continue
		}
		index[l.MenuItemID] = len(merged)
		merged = append(merged, l)
	}
	return merged, problems
}

func demandsOf(lines []*Line) []inventory.Demand {
	demands := make([]inventory.Demand, len(lines))
	for i, l := range lines {
		demands[i] = inventory.Demand{MenuItemID: l.MenuItemID, Quantity: l.Quantity}
	}
	return demands
}

func (s *service) CreateOrder(ctx context.Context, req NewOrder) (*Order, error) {
	// ── Validate request ──────────────────────────────────────────────────────
	problems := validateOwner(req.Owner)
	if !req.Type.Valid() {
		problems = append(problems, fmt.Sprintf("order type %q is not one of dine_in, takeout, delivery", req.Type))
	}
	if len(req.Lines) == 0 {
		problems = append(problems, "order must contain at least one item")
	}
	for _, l := range req.Lines {
		switch {
		case l.Quantity <= 0:
			problems = append(problems, fmt.Sprintf("quantity must be > 0 for menu item %s", l.MenuItemID))
		case l.Quantity > MaxLineQuantity:
			problems = append(problems, fmt.Sprintf("quantity must not exceed %d for menu item %s", MaxLineQuantity, l.MenuItemID))
		}
	}
	if len(problems) > 0 {
		return nil, s.rejected("create order", newValidationError(problems...))
	}
	inputs, problems := mergeLines(req.Lines)
	if len(problems) > 0 {
		return nil, s.rejected("create order", newValidationError(problems...))
	}

	// ── Resolve menu items ────────────────────────────────────────────────────
	unresolved := map[uuid.UUID]bool{}
	lines := make([]*Line, 0, len(inputs))
	for _, in := range inputs {
		item, err := s.catalog.ResolveMenuItem(ctx, in.MenuItemID)
		if errors.Is(err, menu.ErrItemNotFound) {
			unresolved[in.MenuItemID] = true
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve menu item %s: %w", in.MenuItemID, err)
		}
		if !item.IsAvailable {
			unresolved[in.MenuItemID] = true
			continue
		}
		lines = append(lines, &Line{
			ID:         uuid.New(),
			MenuItemID: in.MenuItemID,
			ItemName:   item.Name,
			Quantity:   in.Quantity,
			UnitPrice:  item.Price,
			LineTotal:  item.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
		})
	}
	if len(unresolved) > 0 {
		return nil, s.rejected("create order", unresolvedError(unresolved))
	}

	// ── Stock pre-check (advisory, no reservation) ────────────────────────────
	report, err := s.ledger.CheckAvailability(ctx, demandsOf(lines))
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if !report.AllAvailable {
		return nil, s.rejected("create order", &inventory.InsufficientInventoryError{Shortages: report.Shortages()})
	}

	// ── Price ─────────────────────────────────────────────────────────────────
	priced := make([]pricing.Line, len(lines))
	for i, l := range lines {
		priced[i] = pricing.Line{UnitPrice: l.UnitPrice, Quantity: l.Quantity}
	}
	promoCode := promotion.NormaliseCode(req.PromotionCode)
	quote, err := s.pricer.Quote(ctx, priced, promoCode)
	if err != nil {
		return nil, fmt.Errorf("price order: %w", err)
	}

	now := s.now()
	o := &Order{
		ID:                  uuid.New(),
		Owner:               req.Owner,
		Description:         strings.TrimSpace(req.Description),
		Status:              StatusPending,
		Type:                req.Type,
		PromotionCode:       promoCode,
		Subtotal:            quote.Subtotal,
		DiscountAmount:      quote.Discount,
		TaxAmount:           quote.Tax,
		TotalAmount:         quote.Total,
		OrderDate:           now,
		EstimatedCompletion: estimateCompletion(now, req.Type, len(lines)),
		UpdatedAt:           now,
		Lines:               lines,
	}

	// ── Persist with tracking-code collision retry ────────────────────────────
	if err := s.insert(ctx, o); err != nil {
		return nil, s.rejected("create order", err)
	}

	s.log.Info("order created",
		slog.String("order_id", o.ID.String()),
		slog.String("tracking_code", o.TrackingCode),
		slog.String("order_type", string(o.Type)),
		slog.String("total", o.TotalAmount.StringFixed(2)))
	return o, nil
}

func (s *service) insert(ctx context.Context, o *Order) error {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return err
		}
		o.TrackingCode = code

		err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.repo.CreateOrder(ctx, o); err != nil {
				return err
			}
			database.AfterCommit(ctx, func() {
				events.Emit(ctx, s.publisher, s.log, events.TypeOrderCreated, CreatedEvent{
					OrderID:      o.ID,
					TrackingCode: o.TrackingCode,
					Type:         o.Type,
					TotalAmount:  o.TotalAmount,
				})
			})
			return nil
		})
		if err == nil {
			return nil
		}
		if database.IsForeignKeyViolation(err, "orders_customer_id_fkey") {
			return newValidationError("customer does not exist")
		}
		if !database.IsUniqueViolation(err, "orders_tracking_code_key") {
			return fmt.Errorf("persist order: %w", err)
		}
		s.log.Warn("tracking code collision, regenerating",
			slog.String("tracking_code", code),
			slog.Int("attempt", attempt))
	}
	return fmt.Errorf("persist order: no unique tracking code after %d attempts", maxCodeAttempts)
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

func parseOrderID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, newValidationError(fmt.Sprintf("invalid order id %q", id))
	}
	return uid, nil
}

func (s *service) GetOrder(ctx context.Context, id string) (*Order, error) {
	uid, err := parseOrderID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, uid)
}

func (s *service) ConfirmOrder(ctx context.Context, id string) (*Order, error) {
	uid, err := parseOrderID(id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, uid, StatusConfirmed, func(ctx context.Context, o *Order) error {
		return s.ledger.Deduct(ctx, demandsOf(o.Lines))
	})
}

func (s *service) UpdateStatus(ctx context.Context, id string, target Status) (*Order, error) {
	target = Status(strings.ToLower(strings.TrimSpace(string(target))))
	if !target.Valid() {
		return nil, newValidationError(fmt.Sprintf("unknown status %q", target))
	}
	if target == StatusConfirmed {
		return s.ConfirmOrder(ctx, id)
	}
	uid, err := parseOrderID(id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, uid, target, nil)
}

func (s *service) CancelOrder(ctx context.Context, id string) (*Order, error) {
	uid, err := parseOrderID(id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, uid, StatusCancelled, nil)
}

// transition re-reads the order under a row lock, checks the table, runs
// the optional side effect and records the change, all in one transaction.
func (s *service) transition(ctx context.Context, id uuid.UUID, to Status, effect func(ctx context.Context, o *Order) error) (*Order, error) {
	var updated *Order
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from := o.Status
		if err := checkTransition(from, to); err != nil {
			return err
		}
		if effect != nil {
			if err := effect(ctx, o); err != nil {
				return err
			}
		}
		now := s.now()
		if err := s.repo.UpdateStatus(ctx, id, from, to, now); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		o.Status = to
		o.UpdatedAt = now
		updated = o

		database.AfterCommit(ctx, func() {
			s.log.Info("order status changed",
				slog.String("order_id", o.ID.String()),
				slog.String("from", string(from)),
				slog.String("to", string(to)))
			events.Emit(ctx, s.publisher, s.log, events.TypeOrderStatusChanged, StatusChangedEvent{
				OrderID:      o.ID,
				TrackingCode: o.TrackingCode,
				From:         from,
				To:           to,
			})
		})
		return nil
	})
	if err != nil {
		return nil, s.rejected("transition to "+string(to), err)
	}
	return updated, nil
}

// rejected logs err at warn for business rejections and error otherwise.
func (s *service) rejected(op string, err error) error {
	var (
		validation *ValidationError
		transition *InvalidStateTransitionError
		shortage   *inventory.InsufficientInventoryError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &transition), errors.As(err, &shortage),
		errors.Is(err, ErrOrderNotFound):
		s.log.Warn("order operation rejected", slog.String("op", op), slog.String("error", err.Error()))
	default:
		s.log.Error("order operation failed", slog.String("op", op), slog.String("error", err.Error()))
	}
	return err
}

// ── Tracking and reporting ────────────────────────────────────────────────────

func (s *service) summarise(o *Order) *Summary {
	items := make([]SummaryLine, len(o.Lines))
	for i, l := range o.Lines {
		items[i] = SummaryLine{Name: l.ItemName, Quantity: l.Quantity}
	}
	return &Summary{
		OrderID:             o.ID,
		TrackingCode:        o.TrackingCode,
		Status:              o.Status,
		Type:                o.Type,
		Items:               items,
		TotalAmount:         o.TotalAmount,
		OrderDate:           o.OrderDate,
		EstimatedCompletion: o.EstimatedCompletion,
		MinutesRemaining:    minutesRemaining(o, s.now()),
	}
}

func (s *service) TrackOrder(ctx context.Context, trackingCode string) (*Summary, error) {
	code := strings.ToUpper(strings.TrimSpace(trackingCode))
	if code == "" {
		return nil, newValidationError("tracking code is required")
	}
	o, err := s.repo.GetByTrackingCode(ctx, code)
	if err != nil {
		return nil, err
	}
	summary := s.summarise(o)
	if summary.History, err = s.repo.ListHistory(ctx, o.ID); err != nil {
		return nil, fmt.Errorf("load status history: %w", err)
	}
	return summary, nil
}

func (s *service) startOfDay(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

func (s *service) GetOrdersByDateRange(ctx context.Context, start, end time.Time) ([]*Summary, error) {
	from, last := s.startOfDay(start), s.startOfDay(end)
	if from.After(last) {
		return nil, newValidationError("start date must not be after end date")
	}
	orders, err := s.repo.ListByDateRange(ctx, from, last.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	out := make([]*Summary, len(orders))
	for i, o := range orders {
		out[i] = s.summarise(o)
	}
	return out, nil
}

func (s *service) DailyRevenue(ctx context.Context, day time.Time) (*DailyRevenue, error) {
	from := s.startOfDay(day)
	total, count, err := s.repo.CompletedRevenue(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return &DailyRevenue{
		Date:         from.Format("2006-01-02"),
		TotalRevenue: total.Round(2),
		OrderCount:   count,
	}, nil
}

func (s *service) MenuItemPerformance(ctx context.Context, start, end time.Time) ([]*MenuItemPerformance, error) {
	from, last := s.startOfDay(start), s.startOfDay(end)
	if from.After(last) {
		return nil, newValidationError("start date must not be after end date")
	}
	sales, err := s.repo.ItemSales(ctx, from, last.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	sort.Slice(sales, func(i, j int) bool {
		a, b := sales[i], sales[j]
		if a.QuantitySold != b.QuantitySold {
			return a.QuantitySold > b.QuantitySold
		}
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		return a.Name < b.Name
	})
	out := make([]*MenuItemPerformance, len(sales))
	for i, item := range sales {
		out[i] = &MenuItemPerformance{
			Rank:         i + 1,
			MenuItemID:   item.MenuItemID,
			Name:         item.Name,
			OrderCount:   item.OrderCount,
			QuantitySold: item.QuantitySold,
			Revenue:      item.Revenue.Round(2),
		}
	}
	return out, nil
}

func (s *service) ListCustomerOrders(ctx context.Context, customerID uuid.UUID) ([]*Order, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}
