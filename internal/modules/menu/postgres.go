package menu

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/database"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectItemSQL = `SELECT id, name, description, category, price, calories, is_available, created_at, updated_at FROM menu_items`

func (r *postgresRepo) Create(ctx context.Context, item *Item) error {
	return database.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO menu_items (id, name, description, category, price, calories, is_available)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		item.ID, item.Name, item.Description, item.Category, item.Price, item.Calories, item.IsAvailable).
		Scan(&item.CreatedAt, &item.UpdatedAt)
}

func scanItem(scan func(...interface{}) error) (*Item, error) {
	item := &Item{}
	err := scan(&item.ID, &item.Name, &item.Description, &item.Category, &item.Price,
		&item.Calories, &item.IsAvailable, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	row := database.Conn(ctx, r.db).QueryRowContext(ctx, selectItemSQL+` WHERE id=$1`, id)
	item, err := scanItem(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	return item, err
}

func (r *postgresRepo) List(ctx context.Context, filter ItemFilter) ([]*Item, error) {
	query, args := listQuery(filter)

	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, item *Item) error {
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, `
		UPDATE menu_items
		SET name=$1, description=$2, category=$3, price=$4, calories=$5, is_available=$6, updated_at=NOW()
		WHERE id=$7
		RETURNING updated_at`,
		item.Name, item.Description, item.Category, item.Price, item.Calories, item.IsAvailable, item.ID).
		Scan(&item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrItemNotFound
	}
	return err
}

func (r *postgresRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	res, err := database.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE menu_items SET is_available=$1, updated_at=NOW() WHERE id=$2`, available, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *postgresRepo) ListIngredients(ctx context.Context, menuItemID uuid.UUID) ([]*Ingredient, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT i.resource_id, COALESCE(res.name, ''), i.amount
		FROM menu_item_ingredients i
		LEFT JOIN resources res ON res.id = i.resource_id
		WHERE i.menu_item_id=$1
		ORDER BY res.name`, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Ingredient
	for rows.Next() {
		in := &Ingredient{}
		if err := rows.Scan(&in.ResourceID, &in.ResourceName, &in.Amount); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *postgresRepo) SetIngredient(ctx context.Context, menuItemID uuid.UUID, in *Ingredient) error {
	_, err := database.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO menu_item_ingredients (menu_item_id, resource_id, amount)
		VALUES ($1,$2,$3)
		ON CONFLICT (menu_item_id, resource_id) DO UPDATE SET amount = EXCLUDED.amount`,
		menuItemID, in.ResourceID, in.Amount)
	switch {
	case database.IsForeignKeyViolation(err, "menu_item_ingredients_menu_item_id_fkey"):
		return ErrItemNotFound
	case database.IsForeignKeyViolation(err, ""):
		return ErrResourceNotFound
	}
	return err
}

func (r *postgresRepo) RemoveIngredient(ctx context.Context, menuItemID, resourceID uuid.UUID) error {
	res, err := database.Conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM menu_item_ingredients WHERE menu_item_id=$1 AND resource_id=$2`, menuItemID, resourceID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrResourceNotFound
	}
	return nil
}
