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

// AdRepo implements ports.AdRepository.
type AdRepo struct {
	pool Pool
}

// NewAdRepo creates a new AdRepo.
func NewAdRepo(pool Pool) *AdRepo {
	return &AdRepo{pool: pool}
}

// GetPackage fetches a promotion package.
func (r *AdRepo) GetPackage(ctx context.Context, id uuid.UUID) (*domain.AdPackage, error) {
	p := &domain.AdPackage{}
	err := r.pool.QueryRow(ctx, `SELECT id, name, price, duration_hours FROM ad_packages WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.DurationHours)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ad package: %w", err)
	}
	return p, nil
}

// HasActivePromotion reports whether the product is promoted at now.
func (r *AdRepo) HasActivePromotion(ctx context.Context, tx pgx.Tx, productID uuid.UUID, now time.Time) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM product_ads WHERE product_id = $1 AND expires_at > $2)`

	var exists bool
	if err := on(r.pool, tx).QueryRow(ctx, query, productID, now).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active promotion: %w", err)
	}
	return exists, nil
}

// Create inserts a purchased promotion.
func (r *AdRepo) Create(ctx context.Context, tx pgx.Tx, ad *domain.ProductAd) error {
	query := `INSERT INTO product_ads (id, product_id, package_id, transaction_id, starts_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := tx.Exec(ctx, query, ad.ID, ad.ProductID, ad.PackageID, ad.TransactionID, ad.StartsAt, ad.ExpiresAt); err != nil {
		return translate("insert product ad", err)
	}
	return nil
}
