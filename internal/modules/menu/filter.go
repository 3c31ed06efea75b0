package menu

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ItemSort orders a menu listing.
type ItemSort string

const (
	SortByName      ItemSort = "name"
	SortByPriceAsc  ItemSort = "price_asc"
	SortByPriceDesc ItemSort = "price_desc"
	SortByCalories  ItemSort = "calories"
)

func (s ItemSort) Valid() bool {
	switch s {
	case SortByName, SortByPriceAsc, SortByPriceDesc, SortByCalories:
		return true
	}
	return false
}

// ItemFilter narrows a menu listing. Zero values mean "no constraint".
// Search matches name or description, case-insensitively.
type ItemFilter struct {
	Search        string
	Category      Category
	AvailableOnly bool
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	MaxCalories   *int
	Sort          ItemSort
}

// normalise trims and lower-cases the filter and rejects impossible bounds.
func (f ItemFilter) normalise() (ItemFilter, error) {
	f.Search = strings.TrimSpace(f.Search)
	f.Category = Category(strings.ToLower(strings.TrimSpace(string(f.Category))))
	if f.Category != "" && !f.Category.Valid() {
		return f, fmt.Errorf("%w: unknown category %q", ErrInvalidItem, f.Category)
	}
	f.Sort = ItemSort(strings.ToLower(strings.TrimSpace(string(f.Sort))))
	if f.Sort == "" {
		f.Sort = SortByName
	}
	if !f.Sort.Valid() {
		return f, fmt.Errorf("%w: sort must be one of name, price_asc, price_desc, calories", ErrInvalidItem)
	}
	if (f.MinPrice != nil && f.MinPrice.IsNegative()) || (f.MaxPrice != nil && f.MaxPrice.IsNegative()) {
		return f, fmt.Errorf("%w: price bounds must not be negative", ErrInvalidItem)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return f, fmt.Errorf("%w: min_price must not exceed max_price", ErrInvalidItem)
	}
	if f.MaxCalories != nil && *f.MaxCalories < 0 {
		return f, fmt.Errorf("%w: max_calories must not be negative", ErrInvalidItem)
	}
	return f, nil
}

// Matches reports whether item passes every constraint of the filter.
func (f ItemFilter) Matches(item *Item) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(item.Name), needle) &&
			!strings.Contains(strings.ToLower(item.Description), needle) {
			return false
		}
	}
	switch {
	case f.Category != "" && item.Category != f.Category:
		return false
	case f.AvailableOnly && !item.IsAvailable:
		return false
	case f.MinPrice != nil && item.Price.LessThan(*f.MinPrice):
		return false
	case f.MaxPrice != nil && item.Price.GreaterThan(*f.MaxPrice):
		return false
	case f.MaxCalories != nil && item.Calories > *f.MaxCalories:
		return false
	}
	return true
}

// SortItems orders items in place the way the listing query does.
func SortItems(items []*Item, by ItemSort) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch by {
		case SortByPriceAsc:
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
		case SortByPriceDesc:
			if !a.Price.Equal(b.Price) {
				return a.Price.GreaterThan(b.Price)
			}
		case SortByCalories:
			if a.Calories != b.Calories {
				return a.Calories < b.Calories
			}
		}
		return a.Name < b.Name
	})
}

var orderByClause = map[ItemSort]string{
	SortByName:      "name",
	SortByPriceAsc:  "price, name",
	SortByPriceDesc: "price DESC, name",
	SortByCalories:  "calories, name",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// listQuery builds the listing statement for a normalised filter.
func listQuery(f ItemFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Search != "" {
		p := arg("%" + likeEscaper.Replace(f.Search) + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %s OR description ILIKE %s)", p, p))
	}
	if f.Category != "" {
		where = append(where, "category="+arg(string(f.Category)))
	}
	if f.AvailableOnly {
		where = append(where, "is_available=true")
	}
	if f.MinPrice != nil {
		where = append(where, "price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "price <= "+arg(*f.MaxPrice))
	}
	if f.MaxCalories != nil {
		where = append(where, "calories <= "+arg(*f.MaxCalories))
	}

	query := selectItemSQL
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	orderBy, ok := orderByClause[f.Sort]
	if !ok {
		orderBy = orderByClause[SortByName]
	}
	return query + " ORDER BY " + orderBy, args
}
