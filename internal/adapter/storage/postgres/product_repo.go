package postgres

import (
	"context"
	"errors"
	"fmt"

	"campus-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepo implements ports.ProductRepository.
type ProductRepo struct {
	pool Pool
}

// NewProductRepo creates a new ProductRepo.
func NewProductRepo(pool Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

// GetForUpdate locks the product row (not the store) and resolves the seller.
func (r *ProductRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT p.id, p.store_id, s.owner_id, p.name, p.description, p.price, p.stock, p.image_url
		FROM products p JOIN stores s ON s.id = p.store_id
		WHERE p.id = $1
		FOR UPDATE OF p`

	p := &domain.Product{}
	err := tx.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.StoreID, &p.SellerID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product for update: %w", err)
	}
	return p, nil
}

// DecrementStock removes one unit; false when nothing was left.
func (r *ProductRepo) DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `UPDATE products SET stock = stock - 1 WHERE id = $1 AND stock > 0`, id)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
