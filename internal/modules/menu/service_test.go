package menu

import (
	"context"
	"errors"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/events"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/logger"
	"github.com/shopspring/decimal"
)

type memoryRepo struct {
	items       map[uuid.UUID]*Item
	ingredients map[uuid.UUID][]*Ingredient
	resources   map[uuid.UUID]bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		items:       map[uuid.UUID]*Item{},
		ingredients: map[uuid.UUID][]*Ingredient{},
		resources:   map[uuid.UUID]bool{},
	}
}

func (m *memoryRepo) Create(ctx context.Context, item *Item) error {
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (m *memoryRepo) List(ctx context.Context, filter ItemFilter) ([]*Item, error) {
	var out []*Item
	for _, item := range m.items {
		if filter.Matches(item) {
			cp := *item
			out = append(out, &cp)
		}
	}
	SortItems(out, filter.Sort)
	return out, nil
}

func (m *memoryRepo) Update(ctx context.Context, item *Item) error {
	if _, ok := m.items[item.ID]; !ok {
		return ErrItemNotFound
	}
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *memoryRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	item, ok := m.items[id]
	if !ok {
		return ErrItemNotFound
	}
	item.IsAvailable = available
	return nil
}

func (m *memoryRepo) ListIngredients(ctx context.Context, menuItemID uuid.UUID) ([]*Ingredient, error) {
	return m.ingredients[menuItemID], nil
}

func (m *memoryRepo) SetIngredient(ctx context.Context, menuItemID uuid.UUID, in *Ingredient) error {
	if _, ok := m.items[menuItemID]; !ok {
		return ErrItemNotFound
	}
	if !m.resources[in.ResourceID] {
		return ErrResourceNotFound
	}
	list := m.ingredients[menuItemID]
	for _, existing := range list {
		if existing.ResourceID == in.ResourceID {
			existing.Amount = in.Amount
			return nil
		}
	}
	m.ingredients[menuItemID] = append(list, in)
	return nil
}

func (m *memoryRepo) RemoveIngredient(ctx context.Context, menuItemID, resourceID uuid.UUID) error {
	list := m.ingredients[menuItemID]
	for i, existing := range list {
		if existing.ResourceID == resourceID {
			m.ingredients[menuItemID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return ErrResourceNotFound
}

func newTestService() (Service, *memoryRepo, *events.Recorder) {
	repo := newMemoryRepo()
	rec := &events.Recorder{}
	return NewService(repo, rec, logger.Discard()), repo, rec
}

func TestCreateItem_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     ItemRequest
		wantErr bool
	}{
		{"valid", ItemRequest{Name: "Burger", Price: decimal.RequireFromString("9.99")}, false},
		{"free item", ItemRequest{Name: "Water", Price: decimal.Zero}, false},
		{"vegan", ItemRequest{Name: "Salad", Category: "VEGAN", Price: decimal.NewFromInt(7)}, false},
		{"missing name", ItemRequest{Name: " ", Price: decimal.NewFromInt(1)}, true},
		{"negative price", ItemRequest{Name: "Refund", Price: decimal.NewFromInt(-1)}, true},
		{"sub-cent price", ItemRequest{Name: "Gum", Price: decimal.RequireFromString("0.005")}, true},
		{"unknown category", ItemRequest{Name: "Steak", Category: "carnivore", Price: decimal.NewFromInt(20)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			item, err := svc.CreateItem(context.Background(), tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateItem() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidItem) {
					t.Errorf("expected ErrInvalidItem, got %v", err)
				}
				return
			}
			if !item.IsAvailable {
				t.Error("new items default to available")
			}
			if !item.Category.Valid() {
				t.Errorf("category %q not normalised", item.Category)
			}
		})
	}
}

func TestMutationsEmitCacheInvalidation(t *testing.T) {
	svc, repo, rec := newTestService()
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, ItemRequest{Name: "Fries", Price: decimal.RequireFromString("3.50")})
	if err != nil {
		t.Fatal(err)
	}
	resourceID := uuid.New()
	repo.resources[resourceID] = true

	if err := svc.SetAvailability(ctx, item.ID.String(), false); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetIngredient(ctx, item.ID.String(), resourceID.String(), 2); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateItem(ctx, item.ID.String(), ItemRequest{Name: "Large Fries", Price: decimal.NewFromInt(4)}); err != nil {
		t.Fatal(err)
	}

	got := rec.OfType(events.TypeCacheInvalidate)
	if len(got) != 4 {
		t.Fatalf("expected 4 invalidation events, got %d", len(got))
	}
	keys := got[0].Payload.(events.CacheInvalidation).Keys
	want := []string{"menu_item:" + item.ID.String(), "menu_items"}
	if len(keys) != len(want) || keys[0] != want[0] || keys[1] != want[1] {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestFailedMutationDoesNotInvalidate(t *testing.T) {
	svc, _, rec := newTestService()
	err := svc.SetAvailability(context.Background(), uuid.NewString(), true)
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if n := len(rec.Events()); n != 0 {
		t.Errorf("expected no events, got %d", n)
	}
}

func TestSetIngredient(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	item, _ := svc.CreateItem(ctx, ItemRequest{Name: "Pizza", Price: decimal.NewFromInt(12)})
	cheese := uuid.New()
	repo.resources[cheese] = true

	if err := svc.SetIngredient(ctx, item.ID.String(), cheese.String(), 0); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("zero amount: expected ErrInvalidItem, got %v", err)
	}
	if err := svc.SetIngredient(ctx, item.ID.String(), uuid.NewString(), 1); !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("unknown resource: expected ErrResourceNotFound, got %v", err)
	}
	if err := svc.SetIngredient(ctx, item.ID.String(), cheese.String(), 3); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetIngredient(ctx, item.ID.String(), cheese.String(), 5); err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetItem(ctx, item.ID.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Ingredients) != 1 || got.Ingredients[0].Amount != 5 {
		t.Fatalf("expected one ingredient with amount 5, got %+v", got.Ingredients)
	}

	if err := svc.RemoveIngredient(ctx, item.ID.String(), cheese.String()); err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveIngredient(ctx, item.ID.String(), cheese.String()); !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("second removal: expected ErrResourceNotFound, got %v", err)
	}
}

func TestResolveMenuItem(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	item, _ := svc.CreateItem(ctx, ItemRequest{Name: "Soda", Price: decimal.RequireFromString("1.25")})

	got, err := svc.ResolveMenuItem(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Price.Equal(decimal.RequireFromString("1.25")) {
		t.Errorf("price = %s", got.Price)
	}
	if _, err := svc.ResolveMenuItem(ctx, uuid.New()); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestGetItem_InvalidID(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.GetItem(context.Background(), "not-a-uuid"); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("expected ErrInvalidItem, got %v", err)
	}
}

func TestListItems_Filters(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &events.Recorder{}, logger.Discard())
	ctx := context.Background()
	for _, req := range []ItemRequest{
		{Name: "Cheeseburger", Description: "beef patty, cheddar", Price: decimal.RequireFromString("10.00"), Calories: 800},
		{Name: "Garden Salad", Description: "greens with vinaigrette", Category: "vegan", Price: decimal.RequireFromString("7.50"), Calories: 250},
		{Name: "Veggie Burger", Description: "black bean patty", Category: "vegetarian", Price: decimal.RequireFromString("9.00"), Calories: 600},
		{Name: "Fries", Price: decimal.RequireFromString("3.50"), Calories: 400},
	} {
		if _, err := svc.CreateItem(ctx, req); err != nil {
			t.Fatal(err)
		}
	}
	for _, item := range repo.items {
		if item.Name == "Fries" {
			item.IsAvailable = false
		}
	}

	dec := func(s string) *decimal.Decimal { d := decimal.RequireFromString(s); return &d }
	cal := func(n int) *int { return &n }

	tests := []struct {
		name   string
		filter ItemFilter
		want   []string
	}{
		{"default sorts by name", ItemFilter{}, []string{"Cheeseburger", "Fries", "Garden Salad", "Veggie Burger"}},
		{"search name case-insensitive", ItemFilter{Search: " BURGER "}, []string{"Cheeseburger", "Veggie Burger"}},
		{"search description", ItemFilter{Search: "patty"}, []string{"Cheeseburger", "Veggie Burger"}},
		{"category", ItemFilter{Category: "VEGAN"}, []string{"Garden Salad"}},
		{"available only", ItemFilter{AvailableOnly: true}, []string{"Cheeseburger", "Garden Salad", "Veggie Burger"}},
		{"price range inclusive", ItemFilter{MinPrice: dec("7.50"), MaxPrice: dec("9.00")}, []string{"Garden Salad", "Veggie Burger"}},
		{"max calories", ItemFilter{MaxCalories: cal(400)}, []string{"Fries", "Garden Salad"}},
		{"price descending", ItemFilter{Sort: SortByPriceDesc}, []string{"Cheeseburger", "Veggie Burger", "Garden Salad", "Fries"}},
		{"calories ascending", ItemFilter{Sort: "calories"}, []string{"Garden Salad", "Fries", "Veggie Burger", "Cheeseburger"}},
		{"combined", ItemFilter{Search: "burger", MaxPrice: dec("9.50"), Sort: SortByPriceAsc}, []string{"Veggie Burger"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := svc.ListItems(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, item := range items {
				got = append(got, item.Name)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListItems_RejectsBadFilter(t *testing.T) {
	svc := NewService(newMemoryRepo(), &events.Recorder{}, logger.Discard())
	dec := func(s string) *decimal.Decimal { d := decimal.RequireFromString(s); return &d }
	cal := -1

	for name, f := range map[string]ItemFilter{
		"unknown category": {Category: "keto"},
		"unknown sort":     {Sort: "popularity"},
		"negative price":   {MinPrice: dec("-1")},
		"min above max":    {MinPrice: dec("10"), MaxPrice: dec("5")},
		"negative cals":    {MaxCalories: &cal},
	} {
		if _, err := svc.ListItems(context.Background(), f); !errors.Is(err, ErrInvalidItem) {
			t.Errorf("%s: expected ErrInvalidItem, got %v", name, err)
		}
	}
}

func TestListQuery(t *testing.T) {
	maxPrice := decimal.RequireFromString("12.00")
	query, args := listQuery(ItemFilter{
		Search:        "50%_off",
		Category:      CategoryVegan,
		AvailableOnly: true,
		MaxPrice:      &maxPrice,
		Sort:          SortByPriceDesc,
	})

	wantWhere := " WHERE (name ILIKE $1 OR description ILIKE $1) AND category=$2 AND is_available=true AND price <= $3 ORDER BY price DESC, name"
	if !strings.HasSuffix(query, wantWhere) {
		t.Errorf("query = %q", query)
	}
	if len(args) != 3 || args[0] != `%50\%\_off%` || args[1] != "vegan" {
		t.Errorf("args = %v", args)
	}

	if query, args := listQuery(ItemFilter{}); !strings.HasSuffix(query, "FROM menu_items ORDER BY name") || len(args) != 0 {
		t.Errorf("empty filter: %q %v", query, args)
	}
}

func TestParseFilter(t *testing.T) {
	f, err := parseFilter(url.Values{
		"q": {"burger"}, "min_price": {"2.5"}, "max_calories": {"700"}, "sort": {"price_asc"}, "available": {"true"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if f.Search != "burger" || f.MinPrice.String() != "2.5" || *f.MaxCalories != 700 || f.Sort != SortByPriceAsc || !f.AvailableOnly {
		t.Errorf("filter = %+v", f)
	}
	for _, bad := range []url.Values{{"max_price": {"cheap"}}, {"max_calories": {"lots"}}} {
		if _, err := parseFilter(bad); !errors.Is(err, ErrInvalidItem) {
			t.Errorf("parseFilter(%v): expected ErrInvalidItem, got %v", bad, err)
		}
	}
}
