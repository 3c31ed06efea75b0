package payment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/database"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, p *Payment) error {
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO payments (id, order_id, amount, method, status, gateway_ref, failure)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		p.ID, p.OrderID, p.Amount, p.Method, p.Status, p.GatewayRef, p.Failure).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if database.IsUniqueViolation(err, "payments_order_active_key") {
		return ErrPaymentAlreadyExists
	}
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return r.scan(database.Conn(ctx, r.db).QueryRowContext(ctx, selectSQL+" WHERE id=$1", id))
}

func (r *postgresRepo) GetByOrder(ctx context.Context, orderID uuid.UUID) (*Payment, error) {
	return r.scan(database.Conn(ctx, r.db).QueryRowContext(ctx, selectSQL+" WHERE order_id=$1 ORDER BY created_at DESC LIMIT 1", orderID))
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, gatewayRef, failure string) error {
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE payments
		SET status=$1, gateway_ref=COALESCE(NULLIF($2,''), gateway_ref), failure=$3, updated_at=NOW()
		WHERE id=$4`,
		status, gatewayRef, failure, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// ── Scanner ───────────────────────────────────────────────────────────────────

const selectSQL = `
	SELECT id, order_id, amount, method, status, gateway_ref, failure, created_at, updated_at
	FROM payments`

func (r *postgresRepo) scan(row *sql.Row) (*Payment, error) {
	p := &Payment{}
	err := row.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Status,
		&p.GatewayRef, &p.Failure, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
