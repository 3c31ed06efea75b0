package customer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/database"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectCustomerSQL = `
	SELECT id, name, email, phone, address, password_hash, created_at, updated_at
	FROM customers`

func (r *postgresRepo) Create(ctx context.Context, c *Customer) error {
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO customers (id, name, email, phone, address, password_hash)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Email, c.Phone, c.Address, c.PasswordHash).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if database.IsUniqueViolation(err, "customers_email_key") {
		return ErrCustomerExists
	}
	return err
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	return r.getOne(ctx, selectCustomerSQL+` WHERE email=$1`, email)
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return r.getOne(ctx, selectCustomerSQL+` WHERE id=$1`, id)
}

func (r *postgresRepo) getOne(ctx context.Context, query string, arg interface{}) (*Customer, error) {
	c := &Customer{}
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.PasswordHash,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
