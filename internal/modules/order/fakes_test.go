package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/inventory"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/menu"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/pricing"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/modules/promotion"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/events"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/logger"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ── Repository ────────────────────────────────────────────────────────────────

type memoryRepo struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]*Order
	history map[uuid.UUID][]StatusChange
	creates int
	// customers, when set, plays the customers table behind the foreign key.
	customers map[uuid.UUID]bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orders: map[uuid.UUID]*Order{}, history: map[uuid.UUID][]StatusChange{}}
}

func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Lines = make([]*Line, len(o.Lines))
	for i, l := range o.Lines {
		lc := *l
		cp.Lines[i] = &lc
	}
	return &cp
}

func (m *memoryRepo) CreateOrder(ctx context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if c, ok := o.Owner.(CustomerOwner); ok && m.customers != nil && !m.customers[c.ID] {
		return &pq.Error{Code: "23503", Constraint: "orders_customer_id_fkey"}
	}
	for _, existing := range m.orders {
		if existing.TrackingCode == o.TrackingCode {
			return &pq.Error{Code: "23505", Constraint: "orders_tracking_code_key"}
		}
	}
	m.orders[o.ID] = cloneOrder(o)
	m.history[o.ID] = []StatusChange{{To: o.Status, ChangedAt: o.OrderDate}}
	return nil
}

func (m *memoryRepo) get(id uuid.UUID) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (m *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) { return m.get(id) }

func (m *memoryRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error) {
	return m.get(id)
}

func (m *memoryRepo) GetByTrackingCode(ctx context.Context, code string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.TrackingCode == code {
			return cloneOrder(o), nil
		}
	}
	return nil, ErrOrderNotFound
}

func (m *memoryRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != from {
		return ErrStaleStatus
	}
	o.Status = to
	o.UpdatedAt = at
	m.history[id] = append(m.history[id], StatusChange{From: from, To: to, ChangedAt: at})
	return nil
}

func (m *memoryRepo) ListHistory(ctx context.Context, id uuid.UUID) ([]StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StatusChange(nil), m.history[id]...), nil
}

func (m *memoryRepo) filter(keep func(*Order) bool) []*Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Order
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.Before(out[j].OrderDate) })
	return out
}

func inRange(o *Order, from, to time.Time) bool {
	return !o.OrderDate.Before(from) && o.OrderDate.Before(to)
}

func (m *memoryRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]*Order, error) {
	return m.filter(func(o *Order) bool { return inRange(o, from, to) }), nil
}

func (m *memoryRepo) CompletedRevenue(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error) {
	total := decimal.Zero
	orders := m.filter(func(o *Order) bool { return o.Status == StatusCompleted && inRange(o, from, to) })
	for _, o := range orders {
		total = total.Add(o.TotalAmount)
	}
	return total, len(orders), nil
}

func (m *memoryRepo) ItemSales(ctx context.Context, from, to time.Time) ([]ItemSales, error) {
	byItem := map[uuid.UUID]*ItemSales{}
	for _, o := range m.filter(func(o *Order) bool { return o.Status == StatusCompleted && inRange(o, from, to) }) {
		for _, l := range o.Lines {
			s, ok := byItem[l.MenuItemID]
			if !ok {
				s = &ItemSales{MenuItemID: l.MenuItemID, Name: l.ItemName, Revenue: decimal.Zero}
				byItem[l.MenuItemID] = s
			}
			s.OrderCount++
			s.QuantitySold += l.Quantity
			s.Revenue = s.Revenue.Add(l.LineTotal)
		}
	}
	out := make([]ItemSales, 0, len(byItem))
	for _, s := range byItem {
		out = append(out, *s)
	}
	return out, nil
}

func (m *memoryRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Order, error) {
	return m.filter(func(o *Order) bool {
		c, ok := o.Owner.(CustomerOwner)
		return ok && c.ID == customerID
	}), nil
}

// setStatus bypasses the state machine to stage fixtures.
func (m *memoryRepo) setStatus(id uuid.UUID, s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[id].Status = s
}

// ── Unit of work ──────────────────────────────────────────────────────────────

type fakeTxKey struct{}

type fakeTx struct{ mu sync.Mutex }

func (t *fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(context.WithValue(ctx, fakeTxKey{}, true))
}

// ── Collaborators ─────────────────────────────────────────────────────────────

type fakeCatalog struct{ items map[uuid.UUID]*menu.Item }

func (c *fakeCatalog) add(name, price string, available bool) uuid.UUID {
	id := uuid.New()
	c.items[id] = &menu.Item{ID: id, Name: name, Price: decimal.RequireFromString(price), IsAvailable: available}
	return id
}

func (c *fakeCatalog) ResolveMenuItem(ctx context.Context, id uuid.UUID) (*menu.Item, error) {
	item, ok := c.items[id]
	if !ok {
		return nil, menu.ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

// fakeLedger gives every stocked menu item a private resource holding
// whole units of that item. Items without stock have no ingredients.
type fakeLedger struct {
	mu      sync.Mutex
	stock   map[uuid.UUID]int
	deducts int
}

func (l *fakeLedger) CheckAvailability(ctx context.Context, demands []inventory.Demand) (*inventory.AvailabilityReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	report := &inventory.AvailabilityReport{AllAvailable: true, PerItem: map[uuid.UUID]inventory.ItemAvailability{}}
	for _, d := range demands {
		item := inventory.ItemAvailability{Available: true, PerResource: map[string]inventory.ResourceAvailability{}}
		if have, ok := l.stock[d.MenuItemID]; ok {
			res := inventory.ResourceAvailability{
				ResourceID: d.MenuItemID, Required: d.Quantity, Available: have, Sufficient: d.Quantity <= have,
			}
			item.PerResource["stock-"+d.MenuItemID.String()[:8]] = res
			if !res.Sufficient {
				item.Available = false
				report.AllAvailable = false
			}
		}
		report.PerItem[d.MenuItemID] = item
	}
	return report, nil
}

func (l *fakeLedger) Deduct(ctx context.Context, demands []inventory.Demand) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var shortages []inventory.Shortage
	for _, d := range demands {
		if have, ok := l.stock[d.MenuItemID]; ok && have < d.Quantity {
			shortages = append(shortages, inventory.Shortage{
				ResourceID: d.MenuItemID, Name: "stock", Required: d.Quantity, Available: have,
			})
		}
	}
	if len(shortages) > 0 {
		return &inventory.InsufficientInventoryError{Shortages: shortages}
	}
	for _, d := range demands {
		if _, ok := l.stock[d.MenuItemID]; ok {
			l.stock[d.MenuItemID] -= d.Quantity
		}
	}
	l.deducts++
	return nil
}

type fakePromotions map[string]*promotion.Promotion

func (f fakePromotions) FindPromotion(ctx context.Context, code string) (*promotion.Promotion, error) {
	p, ok := f[code]
	if !ok {
		return nil, promotion.ErrNotFound
	}
	return p, nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// ── Fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	svc      Service
	repo     *memoryRepo
	catalog  *fakeCatalog
	ledger   *fakeLedger
	promos   fakePromotions
	recorder *events.Recorder
	clock    *fakeClock
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		repo:     newMemoryRepo(),
		catalog:  &fakeCatalog{items: map[uuid.UUID]*menu.Item{}},
		ledger:   &fakeLedger{stock: map[uuid.UUID]int{}},
		promos:   fakePromotions{},
		recorder: &events.Recorder{},
		clock:    &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	engine := pricing.NewEngine(decimal.RequireFromString("0.07"), f.promos, pricing.WithClock(f.clock.now))
	opts = append([]Option{WithClock(f.clock.now), WithLocation(time.UTC)}, opts...)
	f.svc = NewService(f.repo, &fakeTx{}, f.catalog, f.ledger, engine, f.recorder, logger.Discard(), opts...)
	return f
}

func guest() GuestOwner { return GuestOwner{Name: "Ada", Phone: "555-0100"} }
