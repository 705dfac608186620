package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bitebuddy-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// Create inserts the order and its items in one transaction and fills in
	// the generated ids.
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id int64) (*Order, error)

	// Mutate locks the order row, applies fn and writes the result back.
	// When fn fails nothing is written.
	Mutate(ctx context.Context, id int64, fn func(o *Order) error) (*Order, error)

	ListByCustomer(ctx context.Context, customerID int64, page Page) ([]*Order, error)
	ListByStaff(ctx context.Context, staffID int64) ([]*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, int, error)
	Stats(ctx context.Context, from, to *time.Time) (*Stats, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `id, order_number, customer_id, service_id, total_amount, address, phone,
	special_instructions, status, assigned_to, otp, otp_expiry, otp_attempts, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var (
		o          Order
		assignedTo sql.NullInt64
		otp        sql.NullString
		otpExpiry  sql.NullTime
	)

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.ServiceID, &o.TotalAmount, &o.Address, &o.Phone,
		&o.SpecialInstructions, &o.Status, &assignedTo, &otp, &otpExpiry, &o.OTP.Attempts,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assignedTo.Valid {
		o.AssignedTo = &assignedTo.Int64
	}
	if otp.Valid {
		o.OTP.Code = &otp.String
	}
	if otpExpiry.Valid {
		o.OTP.Expiry = &otpExpiry.Time
	}

	return &o, nil
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "order.Create"),
		zap.String("order_number", o.OrderNumber),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			order_number, customer_id, service_id, total_amount,
			address, phone, special_instructions, status,
			otp_attempts, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,0,$9,$9)
		RETURNING id
	`,
		o.OrderNumber,
		o.CustomerID,
		o.ServiceID,
		o.TotalAmount,
		o.Address,
		o.Phone,
		o.SpecialInstructions,
		o.Status,
		o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return errDuplicateOrderNumber
		}
		log.Error("db: failed to insert order", zap.Error(err))
		return err
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID

		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, quantity, price_at_order)
			VALUES ($1,$2,$3,$4)
			RETURNING id
		`, item.OrderID, item.MenuItemID, item.Quantity, item.PriceAtOrder).Scan(&item.ID)
		if err != nil {
			log.Error("db: failed to insert order item",
				zap.Int64("menu_item_id", item.MenuItemID),
				zap.Error(err),
			)
			return err
		}
	}

	o.UpdatedAt = o.CreatedAt
	return tx.Commit()
}

func (r *repository) Get(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, menu_item_id, quantity, price_at_order
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Quantity, &it.PriceAtOrder); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}

	return o, rows.Err()
}

func (r *repository) Mutate(ctx context.Context, id int64, fn func(o *Order) error) (*Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	o, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := fn(o); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
			assigned_to = $2,
			otp = $3,
			otp_expiry = $4,
			otp_attempts = $5,
			updated_at = $6
		WHERE id = $7
	`,
		o.Status,
		o.AssignedTo,
		o.OTP.Code,
		o.OTP.Expiry,
		o.OTP.Attempts,
		o.UpdatedAt,
		o.ID,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to update order",
			zap.Int64("order_id", o.ID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID int64, page Page) ([]*Order, error) {
	page = page.normalize()
	return r.query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, customerID, page.Size, page.offset())
}

func (r *repository) ListByStaff(ctx context.Context, staffID int64) ([]*Order, error) {
	return r.query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE assigned_to = $1 AND status IN ('assigned', 'out_for_delivery')
		ORDER BY created_at ASC
	`, staffID)
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Order, int, error) {
	page := filter.Page.normalize()
	log := logger.FromCtx(ctx).With(
		zap.String("method", "order.List"),
		zap.Int("page", page.Number),
		zap.Int("limit", page.Size),
	)

	where, args := filterClause(filter.Status, filter.DateFrom, filter.DateTo)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		log.Error("failed to count orders", zap.Error(err))
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, page.Size, page.offset())

	orders, err := r.query(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *repository) Stats(ctx context.Context, from, to *time.Time) (*Stats, error) {
	where, args := filterClause(nil, from, to)

	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM orders`+where+`
		GROUP BY status
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &Stats{ByStatus: make(map[Status]int64)}
	var billable int64
	for rows.Next() {
		var (
			status Status
			count  int64
			amount int64
		)
		if err := rows.Scan(&status, &count, &amount); err != nil {
			return nil, err
		}

		stats.ByStatus[status] = count
		stats.TotalOrders += count
		if status != StatusCancelled {
			stats.Revenue += amount
			billable += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if billable > 0 {
		stats.AverageOrderValue = stats.Revenue / billable
	}
	return stats, nil
}

func (r *repository) query(ctx context.Context, query string, args ...any) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// filterClause builds the WHERE part shared by the admin list and stats.
func filterClause(status *Status, from, to *time.Time) (string, []any) {
	where := " WHERE 1=1"
	var args []any

	if status != nil {
		args = append(args, *status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if from != nil {
		args = append(args, *from)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	return where, args
}
