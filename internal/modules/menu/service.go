package menu

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/events"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/logger"
)

// Service defines menu management and the catalog lookup used by ordering.
type Service interface {
	CreateItem(ctx context.Context, req ItemRequest) (*Item, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]*Item, error)
	UpdateItem(ctx context.Context, id string, req ItemRequest) (*Item, error)
	SetAvailability(ctx context.Context, id string, available bool) error

	SetIngredient(ctx context.Context, menuItemID, resourceID string, amount int) error
	RemoveIngredient(ctx context.Context, menuItemID, resourceID string) error

	// ResolveMenuItem returns the price and availability of an item, or ErrItemNotFound.
	ResolveMenuItem(ctx context.Context, id uuid.UUID) (*Item, error)
}

type service struct {
	repo      Repository
	publisher events.Publisher
	log       *slog.Logger
}

func NewService(repo Repository, publisher events.Publisher, log *slog.Logger) Service {
	return &service{repo: repo, publisher: publisher, log: logger.WithComponent(log, "menu_service")}
}

// Cache keys other components may hold menu data under.
const listCacheKey = "menu_items"

func itemCacheKey(id uuid.UUID) string { return "menu_item:" + id.String() }

func (s *service) invalidate(ctx context.Context, id uuid.UUID) {
	events.Emit(ctx, s.publisher, s.log, events.TypeCacheInvalidate,
		events.CacheInvalidation{Keys: []string{itemCacheKey(id), listCacheKey}})
}

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", ErrInvalidItem, id)
	}
	return uid, nil
}

func validateRequest(req ItemRequest) (Category, error) {
	if strings.TrimSpace(req.Name) == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	if req.Price.IsNegative() {
		return "", fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	}
	if !req.Price.Equal(req.Price.Round(2)) {
		return "", fmt.Errorf("%w: price must have at most two decimal places", ErrInvalidItem)
	}
	category := Category(strings.ToLower(req.Category))
	if category == "" {
		category = CategoryRegular
	}
	if !category.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidItem, req.Category)
	}
	return category, nil
}

func (s *service) CreateItem(ctx context.Context, req ItemRequest) (*Item, error) {
	category, err := validateRequest(req)
	if err != nil {
		return nil, err
	}
	item := &Item{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    category,
		Price:       req.Price,
		Calories:    req.Calories,
		IsAvailable: true,
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	s.invalidate(ctx, item.ID)
	return item, nil
}

func (s *service) GetItem(ctx context.Context, id string) (*Item, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	item.Ingredients, err = s.repo.ListIngredients(ctx, uid)
	return item, err
}

func (s *service) ListItems(ctx context.Context, filter ItemFilter) ([]*Item, error) {
	return s.repo.List(ctx, strings.ToLower(category), availableOnly)
}

func (s *service) UpdateItem(ctx context.Context, id string, req ItemRequest) (*Item, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	category, err := validateRequest(req)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	item.Name = strings.TrimSpace(req.Name)
	item.Description = req.Description
	item.Category = category
	item.Price = req.Price
	item.Calories = req.Calories
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	s.invalidate(ctx, uid)
	return item, nil
}

func (s *service) SetAvailability(ctx context.Context, id string, available bool) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.repo.SetAvailability(ctx, uid, available); err != nil {
		return err
	}
	s.invalidate(ctx, uid)
	return nil
}

func (s *service) SetIngredient(ctx context.Context, menuItemID, resourceID string, amount int) error {
	mid, err := parseID(menuItemID)
	if err != nil {
		return err
	}
	rid, err := parseID(resourceID)
	if err != nil {
		return err
	}
	if amount <= 0 {
		return fmt.Errorf("%w: ingredient amount must be greater than 0", ErrInvalidItem)
	}
	if err := s.repo.SetIngredient(ctx, mid, &Ingredient{ResourceID: rid, Amount: amount}); err != nil {
		return err
	}
	s.log.Info("ingredient requirement set",
		slog.String("menu_item_id", mid.String()),
		slog.String("resource_id", rid.String()),
		slog.Int("amount", amount))
	s.invalidate(ctx, mid)
	return nil
}

func (s *service) RemoveIngredient(ctx context.Context, menuItemID, resourceID string) error {
	mid, err := parseID(menuItemID)
	if err != nil {
		return err
	}
	rid, err := parseID(resourceID)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveIngredient(ctx, mid, rid); err != nil {
		return err
	}
	s.invalidate(ctx, mid)
	return nil
}

func (s *service) ResolveMenuItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.repo.GetByID(ctx, id)
}
