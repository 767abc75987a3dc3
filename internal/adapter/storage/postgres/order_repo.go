package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

const orderSelect = `SELECT o.id, o.buyer_id, s.owner_id, o.store_id, o.product_id, o.transaction_id,
	o.price_paid, o.status, o.delivery_code, o.product_snapshot, o.created_at, o.delivered_at
	FROM orders o JOIN stores s ON s.id = o.store_id`

// Create inserts a new order.
func (r *OrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	query := `INSERT INTO orders (id, buyer_id, store_id, product_id, transaction_id, price_paid,
		status, delivery_code, product_snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query,
		o.ID, o.BuyerID, o.StoreID, o.ProductID, o.TransactionID, o.PricePaid,
		o.Status, o.DeliveryCode, o.ProductSnapshot, o.CreatedAt,
	)
	if err != nil {
		return translate("insert order", err)
	}
	return nil
}

// GetByID fetches an order with its seller resolved.
func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o := &domain.Order{}
	if err := scanOrder(r.pool.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id), o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// MarkDelivered closes a pending order.
func (r *OrderRepo) MarkDelivered(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) (bool, error) {
	query := `UPDATE orders SET status = 'DELIVERED', delivered_at = $2
		WHERE id = $1 AND status = 'PENDING_DELIVERY'`

	tag, err := tx.Exec(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("mark order delivered: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByUser lists orders placed by (or, asSeller, received by) a user.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, asSeller bool, limit int) ([]domain.Order, error) {
	where := ` WHERE o.buyer_id = $1`
	if asSeller {
		where = ` WHERE s.owner_id = $1`
	}

	rows, err := r.pool.Query(ctx, orderSelect+where+` ORDER BY o.created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

func scanOrder(row pgx.Row, o *domain.Order) error {
	return row.Scan(
		&o.ID, &o.BuyerID, &o.SellerID, &o.StoreID, &o.ProductID, &o.TransactionID,
		&o.PricePaid, &o.Status, &o.DeliveryCode, &o.ProductSnapshot, &o.CreatedAt, &o.DeliveredAt,
	)
}
