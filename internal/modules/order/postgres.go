package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jwill7022/ITSC-3155-Final-Project/internal/platform/database"
	"github.com/shopspring/decimal"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a PostgreSQL-backed order repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

const selectOrderSQL = `
SELECT id, tracking_code, customer_id, guest_name, guest_phone, guest_email, description,
       status, order_type, promotion_code, subtotal, discount_amount, tax_amount, total_amount,
       order_date, estimated_completion, updated_at
FROM orders`

// ── Write ─────────────────────────────────────────────────────────────────────

func (r *postgresRepo) CreateOrder(ctx context.Context, o *Order) error {
	conn := database.Conn(ctx, r.db)

	var (
		customerID                        *uuid.UUID
		guestName, guestPhone, guestEmail sql.NullString
	)
	switch owner := o.Owner.(type) {
	case CustomerOwner:
		id := owner.ID
		customerID = &id
	case GuestOwner:
		guestName = sql.NullString{String: owner.Name, Valid: true}
		guestPhone = sql.NullString{String: owner.Phone, Valid: true}
		guestEmail = sql.NullString{String: owner.Email, Valid: owner.Email != ""}
	default:
		return fmt.Errorf("unsupported order owner %T", o.Owner)
	}
	promo := sql.NullString{String: o.PromotionCode, Valid: o.PromotionCode != ""}

	_, err := conn.ExecContext(ctx, `
		INSERT INTO orders
		  (id, tracking_code, customer_id, guest_name, guest_phone, guest_email, description,
		   status, order_type, promotion_code, subtotal, discount_amount, tax_amount, total_amount,
		   order_date, estimated_completion, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$15)`,
		o.ID, o.TrackingCode, customerID, guestName, guestPhone, guestEmail, o.Description,
		o.Status, o.Type, promo, o.Subtotal, o.DiscountAmount, o.TaxAmount, o.TotalAmount,
		o.OrderDate, o.EstimatedCompletion)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, l := range o.Lines {
		_, err := conn.ExecContext(ctx, `
			INSERT INTO order_lines
			  (id, order_id, position, menu_item_id, item_name, quantity, unit_price, line_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			l.ID, o.ID, i, l.MenuItemID, l.ItemName, l.Quantity, l.UnitPrice, l.LineTotal)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, from_status, to_status, changed_at)
		VALUES ($1, '', $2, $3)`, o.ID, o.Status, o.OrderDate)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) error {
	conn := database.Conn(ctx, r.db)
	res, err := conn.ExecContext(ctx,
		`UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`, to, at, id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStaleStatus
	}
	_, err = conn.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, from_status, to_status, changed_at)
		VALUES ($1,$2,$3,$4)`, id, from, to, at)
	return err
}

// ── Read ──────────────────────────────────────────────────────────────────────

func scanOrder(scan func(...interface{}) error) (*Order, error) {
	o := &Order{}
	var (
		customerID                        uuid.NullUUID
		guestName, guestPhone, guestEmail sql.NullString
		promo                             sql.NullString
	)
	err := scan(&o.ID, &o.TrackingCode, &customerID, &guestName, &guestPhone, &guestEmail,
		&o.Description, &o.Status, &o.Type, &promo, &o.Subtotal, &o.DiscountAmount,
		&o.TaxAmount, &o.TotalAmount, &o.OrderDate, &o.EstimatedCompletion, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		o.Owner = CustomerOwner{ID: customerID.UUID}
	} else {
		o.Owner = GuestOwner{Name: guestName.String, Phone: guestPhone.String, Email: guestEmail.String}
	}
	o.PromotionCode = promo.String
	return o, nil
}

func (r *postgresRepo) getOne(ctx context.Context, query string, arg interface{}) (*Order, error) {
	o, err := scanOrder(database.Conn(ctx, r.db).QueryRowContext(ctx, query, arg).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Lines, err = r.getLines(ctx, o.ID)
	return o, err
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOne(ctx, selectOrderSQL+` WHERE id=$1`, id)
}

func (r *postgresRepo) GetByTrackingCode(ctx context.Context, code string) (*Order, error) {
	return r.getOne(ctx, selectOrderSQL+` WHERE tracking_code=$1`, code)
}

func (r *postgresRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOne(ctx, selectOrderSQL+` WHERE id=$1 FOR UPDATE`, id)
}

func (r *postgresRepo) getLines(ctx context.Context, orderID uuid.UUID) ([]*Line, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT id, menu_item_id, item_name, quantity, unit_price, line_total
		FROM order_lines WHERE order_id=$1 ORDER BY position`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*Line
	for rows.Next() {
		l := &Line{}
		if err := rows.Scan(&l.ID, &l.MenuItemID, &l.ItemName, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *postgresRepo) ListHistory(ctx context.Context, id uuid.UUID) ([]StatusChange, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT from_status, to_status, changed_at
		FROM order_status_history WHERE order_id=$1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []StatusChange
	for rows.Next() {
		var c StatusChange
		if err := rows.Scan(&c.From, &c.To, &c.ChangedAt); err != nil {
			return nil, err
		}
		history = append(history, c)
	}
	return history, rows.Err()
}

func (r *postgresRepo) listOrders(ctx context.Context, query string, args ...interface{}) ([]*Order, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.Lines, err = r.getLines(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *postgresRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]*Order, error) {
	return r.listOrders(ctx,
		selectOrderSQL+` WHERE order_date >= $1 AND order_date < $2 ORDER BY order_date`, from, to)
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Order, error) {
	return r.listOrders(ctx,
		selectOrderSQL+` WHERE customer_id=$1 ORDER BY order_date DESC`, customerID)
}

func (r *postgresRepo) ItemSales(ctx context.Context, from, to time.Time) ([]ItemSales, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT l.menu_item_id, MAX(l.item_name), COUNT(*), SUM(l.quantity), SUM(l.line_total)
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		WHERE o.status=$1 AND o.order_date >= $2 AND o.order_date < $3
		GROUP BY l.menu_item_id`,
		StatusCompleted, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemSales
	for rows.Next() {
		var s ItemSales
		if err := rows.Scan(&s.MenuItemID, &s.Name, &s.OrderCount, &s.QuantitySold, &s.Revenue); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *postgresRepo) CompletedRevenue(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error) {
	var (
		total decimal.Decimal
		count int
	)
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
		FROM orders
		WHERE status=$1 AND order_date >= $2 AND order_date < $3`,
		StatusCompleted, from, to).Scan(&total, &count)
	return total, count, err
}
