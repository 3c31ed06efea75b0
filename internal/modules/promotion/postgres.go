package promotion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/database"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectSQL = `SELECT code, description, discount_percent, expires_at, created_at, updated_at FROM promotions`

func (r *postgresRepo) Create(ctx context.Context, p *Promotion) error {
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO promotions (code, description, discount_percent, expires_at)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at`,
		p.Code, p.Description, p.DiscountPercent, p.ExpiresAt).Scan(&p.CreatedAt, &p.UpdatedAt)
	if database.IsUniqueViolation(err, "") {
		return ErrExists
	}
	return err
}

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*Promotion, error) {
	row := database.Conn(ctx, r.db).QueryRowContext(ctx, selectSQL+` WHERE code=$1`, code)
	p, err := scanPromotion(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *postgresRepo) List(ctx context.Context) ([]*Promotion, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, selectSQL+` ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var promos []*Promotion
	for rows.Next() {
		p, err := scanPromotion(rows.Scan)
		if err != nil {
			return nil, err
		}
		promos = append(promos, p)
	}
	return promos, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, p *Promotion) error {
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, `
		UPDATE promotions
		SET description=$1, discount_percent=$2, expires_at=$3, updated_at=NOW()
		WHERE code=$4
		RETURNING updated_at`,
		p.Description, p.DiscountPercent, p.ExpiresAt, p.Code).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, code string) error {
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM promotions WHERE code=$1`, code)
	if err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPromotion(scan func(...interface{}) error) (*Promotion, error) {
	p := &Promotion{}
	var expires sql.NullTime
	if err := scan(&p.Code, &p.Description, &p.DiscountPercent, &expires, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if expires.Valid {
		t := expires.Time
		p.ExpiresAt = &t
	}
	return p, nil
}
