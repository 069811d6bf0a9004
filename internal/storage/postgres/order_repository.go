package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/faxed-bot/sharkv1/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderRepository is the durable order store. All status transitions go
// through SetStatusIfPending; there is no unconditional status update.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, user_id, username, product, duration, price, account_type, email, password, status, created_at, payment_txn`

// Insert writes a new order row and returns its assigned id.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) (int64, error) {
	const stmt = `
INSERT INTO orders (user_id, username, product, duration, price, account_type, email, password, status, created_at, payment_txn)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id`

	var id int64
	err := r.pool.QueryRow(ctx, stmt,
		order.BuyerID,
		order.BuyerName,
		order.Product,
		order.Duration,
		order.Price,
		order.AccountType,
		order.Email,
		order.Password,
		order.Status,
		order.CreatedAt,
		order.PaymentTxn,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

// Get fetches one order by id.
func (r *OrderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// SetStatusIfPending atomically moves an order out of PENDING. It
// returns true only when this call performed the transition; false
// means the row was already terminal (or absent) and is unchanged.
func (r *OrderRepository) SetStatusIfPending(ctx context.Context, id int64, status domain.Status) (bool, error) {
	const stmt = `UPDATE orders SET status = $2 WHERE id = $1 AND status = 'PENDING'`

	tag, err := r.pool.Exec(ctx, stmt, id, status)
	if err != nil {
		return false, fmt.Errorf("set order status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByBuyer returns the buyer's most recent orders, newest first.
func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID int64, limit int) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, buyerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// CountByBuyer returns total and approved order counts for a buyer.
func (r *OrderRepository) CountByBuyer(ctx context.Context, buyerID int64) (domain.BuyerStats, error) {
	const query = `
SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'APPROVED')
FROM orders
WHERE user_id = $1`

	var stats domain.BuyerStats
	if err := r.pool.QueryRow(ctx, query, buyerID).Scan(&stats.Total, &stats.Approved); err != nil {
		return domain.BuyerStats{}, fmt.Errorf("count orders: %w", err)
	}
	return stats, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var status, accountType string
	err := row.Scan(
		&o.ID,
		&o.BuyerID,
		&o.BuyerName,
		&o.Product,
		&o.Duration,
		&o.Price,
		&accountType,
		&o.Email,
		&o.Password,
		&status,
		&o.CreatedAt,
		&o.PaymentTxn,
	)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.Status(status)
	o.AccountType = domain.AccountType(accountType)
	return o, nil
}
