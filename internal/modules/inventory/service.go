package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/database"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/logger"
)

// Service is the inventory ledger: stock checks, atomic batch deduction and
// resource maintenance.
type Service interface {
	// CheckAvailability is a pure read; it does not reserve stock.
	CheckAvailability(ctx context.Context, demands []Demand) (*AvailabilityReport, error)
	// Deduct applies the whole batch or nothing. It joins the caller's
	// transaction when ctx carries one.
	Deduct(ctx context.Context, demands []Demand) error
	LowStockItems(ctx context.Context, threshold int) ([]*Resource, error)

	CreateResource(ctx context.Context, req ResourceRequest) (*Resource, error)
	ListResources(ctx context.Context) ([]*Resource, error)
	Restock(ctx context.Context, id string, delta int) (*Resource, error)
	SetAmount(ctx context.Context, id string, amount int) (*Resource, error)
}

type service struct {
	repo Repository
	tx   database.TxRunner
	log  *slog.Logger
}

func NewService(repo Repository, tx database.TxRunner, log *slog.Logger) Service {
	return &service{repo: repo, tx: tx, log: logger.WithComponent(log, "inventory_ledger")}
}

// MaxDemandQuantity caps the units of one menu item in a single demand batch,
// before and after duplicates are merged.
const MaxDemandQuantity = 10000

// resourceNeed is the combined requirement of a batch on one resource.
type resourceNeed struct {
	id       uuid.UUID
	name     string
	required int
}

// mergeDemands sums quantities per menu item, keeping first-seen order.
func mergeDemands(demands []Demand) ([]Demand, error) {
	index := make(map[uuid.UUID]int, len(demands))
	merged := make([]Demand, 0, len(demands))
	for _, d := range demands {
		if d.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for %s must be greater than 0", ErrInvalidDemand, d.MenuItemID)
		}
		if d.Quantity > MaxDemandQuantity {
			return nil, fmt.Errorf("%w: quantity for %s must not exceed %d", ErrInvalidDemand, d.MenuItemID, MaxDemandQuantity)
		}
		if i, ok := index[d.MenuItemID]; ok {
			merged[i].Quantity += d.Quantity
			if merged[i].Quantity > MaxDemandQuantity {
				return nil, fmt.Errorf("%w: combined quantity for %s must not exceed %d", ErrInvalidDemand, d.MenuItemID, MaxDemandQuantity)
			}
			continue
		}
		index[d.MenuItemID] = len(merged)
		merged = append(merged, d)
	}
	return merged, nil
}

func menuItemIDs(demands []Demand) []uuid.UUID {
	ids := make([]uuid.UUID, len(demands))
	for i, d := range demands {
		ids[i] = d.MenuItemID
	}
	return ids
}

func missingError(reqs []Requirement) error {
	var names []string
	for _, r := range reqs {
		if r.Missing {
			names = append(names, fmt.Sprintf("%s (menu item %s)", r.ResourceID, r.MenuItemID))
		}
	}
	if len(names) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrResourceMissing, strings.Join(names, ", "))
}

// mulAdd returns acc + a*b for non-negative operands, reporting overflow.
func mulAdd(acc, a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a != 0 && b > math.MaxInt/a {
		return 0, false
	}
	p := a * b
	if acc > math.MaxInt-p {
		return 0, false
	}
	return acc + p, true
}

// aggregate expands demands into per-resource totals, ordered by resource id.
func aggregate(demands []Demand, reqs []Requirement) ([]*resourceNeed, error) {
	qty := make(map[uuid.UUID]int, len(demands))
	for _, d := range demands {
		qty[d.MenuItemID] = d.Quantity
	}
	byID := map[uuid.UUID]*resourceNeed{}
	for _, r := range reqs {
		need, ok := byID[r.ResourceID]
		if !ok {
			need = &resourceNeed{id: r.ResourceID, name: r.ResourceName}
			byID[r.ResourceID] = need
		}
		total, ok := mulAdd(need.required, r.PerUnit, qty[r.MenuItemID])
		if !ok {
			return nil, fmt.Errorf("%w: requirement for %s is out of range", ErrInvalidDemand, r.ResourceName)
		}
		need.required = total
	}
	out := make([]*resourceNeed, 0, len(byID))
	for _, need := range byID {
		out = append(out, need)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id.String() < out[j].id.String() })
	return out, nil
}

func (s *service) CheckAvailability(ctx context.Context, demands []Demand) (*AvailabilityReport, error) {
	merged, err := mergeDemands(demands)
	if err != nil {
		return nil, err
	}
	reqs, err := s.repo.ListRequirements(ctx, menuItemIDs(merged))
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	if err := missingError(reqs); err != nil {
		return nil, err
	}

	needs, err := aggregate(merged, reqs)
	if err != nil {
		return nil, err
	}
	combined := make(map[uuid.UUID]int, len(needs))
	for _, need := range needs {
		combined[need.id] = need.required
	}

	report := &AvailabilityReport{AllAvailable: true, PerItem: make(map[uuid.UUID]ItemAvailability, len(merged))}
	qty := make(map[uuid.UUID]int, len(merged))
	for _, d := range merged {
		qty[d.MenuItemID] = d.Quantity
		report.PerItem[d.MenuItemID] = ItemAvailability{Available: true, PerResource: map[string]ResourceAvailability{}}
	}
	for _, r := range reqs {
		item := report.PerItem[r.MenuItemID]
		sufficient := combined[r.ResourceID] <= r.Available
		item.PerResource[r.ResourceName] = ResourceAvailability{
			ResourceID:    r.ResourceID,
			Required:      r.PerUnit * qty[r.MenuItemID],
			BatchRequired: combined[r.ResourceID],
			Available:     r.Available,
			Sufficient:    sufficient,
		}
		if !sufficient {
			item.Available = false
			report.AllAvailable = false
		}
		report.PerItem[r.MenuItemID] = item
	}
	return report, nil
}

func (s *service) Deduct(ctx context.Context, demands []Demand) error {
	merged, err := mergeDemands(demands)
	if err != nil {
		return err
	}

	var applied []*resourceNeed
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		reqs, err := s.repo.ListRequirements(ctx, menuItemIDs(merged))
		if err != nil {
			return fmt.Errorf("list requirements: %w", err)
		}
		if err := missingError(reqs); err != nil {
			return err
		}
		needs, err := aggregate(merged, reqs)
		if err != nil {
			return err
		}
		if len(needs) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(needs))
		for i, need := range needs {
			ids[i] = need.id
		}
		locked, err := s.repo.LockResources(ctx, ids)
		if err != nil {
			return fmt.Errorf("lock resources: %w", err)
		}

		var shortages []Shortage
		for _, need := range needs {
			res, ok := locked[need.id]
			if !ok {
				return fmt.Errorf("%w: %s", ErrResourceMissing, need.id)
			}
			if res.Amount < need.required {
				shortages = append(shortages, Shortage{
					ResourceID: need.id, Name: res.Name, Required: need.required, Available: res.Amount,
				})
			}
		}
		if len(shortages) > 0 {
			return newInsufficientInventoryError(shortages)
		}

		for _, need := range needs {
			ok, err := s.repo.Decrement(ctx, need.id, need.required)
			if err != nil {
				return fmt.Errorf("decrement %s: %w", need.name, err)
			}
			if !ok {
				res := locked[need.id]
				return newInsufficientInventoryError([]Shortage{{
					ResourceID: need.id, Name: res.Name, Required: need.required, Available: res.Amount,
				}})
			}
		}
		applied = needs
		return nil
	})
	if err != nil {
		s.log.Warn("inventory deduction rejected", slog.String("error", err.Error()))
		return err
	}
	for _, need := range applied {
		s.log.Info("inventory deducted",
			slog.String("resource_id", need.id.String()),
			slog.String("resource", need.name),
			slog.Int("amount", need.required))
	}
	return nil
}

func (s *service) LowStockItems(ctx context.Context, threshold int) ([]*Resource, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("%w: threshold must not be negative", ErrInvalidResource)
	}
	return s.repo.LowStock(ctx, threshold)
}

func (s *service) CreateResource(ctx context.Context, req ResourceRequest) (*Resource, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidResource)
	}
	if req.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidResource)
	}
	res := &Resource{ID: uuid.New(), Name: name, Amount: req.Amount, Unit: req.Unit}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	s.log.Info("resource created", slog.String("resource_id", res.ID.String()), slog.String("name", name))
	return res, nil
}

func (s *service) ListResources(ctx context.Context) ([]*Resource, error) {
	return s.repo.List(ctx)
}

func parseResourceID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", ErrInvalidResource, id)
	}
	return uid, nil
}

func (s *service) Restock(ctx context.Context, id string, delta int) (*Resource, error) {
	uid, err := parseResourceID(id)
	if err != nil {
		return nil, err
	}
	if delta <= 0 {
		return nil, fmt.Errorf("%w: restock amount must be greater than 0", ErrInvalidResource)
	}
	res, err := s.repo.Restock(ctx, uid, delta)
	if err != nil {
		return nil, err
	}
	s.log.Info("resource restocked",
		slog.String("resource_id", uid.String()),
		slog.Int("delta", delta),
		slog.Int("amount", res.Amount))
	return res, nil
}

func (s *service) SetAmount(ctx context.Context, id string, amount int) (*Resource, error) {
	uid, err := parseResourceID(id)
	if err != nil {
		return nil, err
	}
	if amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidResource)
	}
	return s.repo.SetAmount(ctx, uid, amount)
}
