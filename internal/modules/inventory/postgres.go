package inventory

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/database"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectResourceSQL = `SELECT id, name, amount, unit, created_at, updated_at FROM resources`

func scanResource(scan func(...interface{}) error) (*Resource, error) {
	r := &Resource{}
	if err := scan(&r.ID, &r.Name, &r.Amount, &r.Unit, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *postgresRepo) queryResources(ctx context.Context, query string, args ...interface{}) ([]*Resource, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Resource
	for rows.Next() {
		res, err := scanResource(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Create(ctx context.Context, res *Resource) error {
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO resources (id, name, amount, unit) VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at`,
		res.ID, res.Name, res.Amount, res.Unit).
		Scan(&res.CreatedAt, &res.UpdatedAt)
	if database.IsUniqueViolation(err, "resources_name_key") {
		return ErrResourceExists
	}
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Resource, error) {
	row := database.Conn(ctx, r.db).QueryRowContext(ctx, selectResourceSQL+` WHERE id=$1`, id)
	res, err := scanResource(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResourceNotFound
	}
	return res, err
}

func (r *postgresRepo) List(ctx context.Context) ([]*Resource, error) {
	return r.queryResources(ctx, selectResourceSQL+` ORDER BY name`)
}

func (r *postgresRepo) LowStock(ctx context.Context, threshold int) ([]*Resource, error) {
	return r.queryResources(ctx, selectResourceSQL+` WHERE amount <= $1 ORDER BY amount, name`, threshold)
}

func (r *postgresRepo) Restock(ctx context.Context, id uuid.UUID, delta int) (*Resource, error) {
	row := database.Conn(ctx, r.db).QueryRowContext(ctx, `
		UPDATE resources SET amount = amount + $1, updated_at=NOW() WHERE id=$2
		RETURNING id, name, amount, unit, created_at, updated_at`, delta, id)
	res, err := scanResource(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResourceNotFound
	}
	return res, err
}

func (r *postgresRepo) SetAmount(ctx context.Context, id uuid.UUID, amount int) (*Resource, error) {
	row := database.Conn(ctx, r.db).QueryRowContext(ctx, `
		UPDATE resources SET amount = $1, updated_at=NOW() WHERE id=$2
		RETURNING id, name, amount, unit, created_at, updated_at`, amount, id)
	res, err := scanResource(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResourceNotFound
	}
	return res, err
}

func (r *postgresRepo) ListRequirements(ctx context.Context, menuItemIDs []uuid.UUID) ([]Requirement, error) {
	if len(menuItemIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(menuItemIDs))
	for i, id := range menuItemIDs {
		ids[i] = id.String()
	}
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT i.menu_item_id, i.resource_id, COALESCE(res.name, ''), i.amount,
		       COALESCE(res.amount, 0), res.id IS NULL
		FROM menu_item_ingredients i
		LEFT JOIN resources res ON res.id = i.resource_id
		WHERE i.menu_item_id = ANY($1::uuid[])
		ORDER BY i.menu_item_id, i.resource_id`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Requirement
	for rows.Next() {
		var req Requirement
		if err := rows.Scan(&req.MenuItemID, &req.ResourceID, &req.ResourceName,
			&req.PerUnit, &req.Available, &req.Missing); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *postgresRepo) LockResources(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Resource, error) {
	sorted := make([]string, len(ids))
	for i, id := range ids {
		sorted[i] = id.String()
	}
	sort.Strings(sorted)

	list, err := r.queryResources(ctx,
		selectResourceSQL+` WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`, pq.Array(sorted))
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*Resource, len(list))
	for _, res := range list {
		out[res.ID] = res
	}
	return out, nil
}

func (r *postgresRepo) Decrement(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE resources SET amount = amount - $1, updated_at=NOW()
		WHERE id=$2 AND amount >= $1`, delta, id)
	if err != nil {
		if database.IsCheckViolation(err) {
			return false, nil
		}
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
