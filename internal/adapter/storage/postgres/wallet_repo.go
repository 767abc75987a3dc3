package postgres

import (
	"context"
	"errors"
	"fmt"

	"campus-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, owner_id, currency_symbol, created_at`

// Create inserts a wallet. A second wallet for the same owner fails with ports.ErrConflict.
func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `INSERT INTO wallets (` + walletColumns + `) VALUES ($1, $2, $3, $4)`

	if _, err := on(r.pool, tx).Exec(ctx, query, w.ID, w.OwnerID, w.CurrencySymbol, w.CreatedAt); err != nil {
		return translate("insert wallet", err)
	}
	return nil
}

// EnsureExists inserts the wallet unless its id is already present.
func (r *WalletRepo) EnsureExists(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (` + walletColumns + `) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, w.ID, w.OwnerID, w.CurrencySymbol, w.CreatedAt); err != nil {
		return fmt.Errorf("ensure wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID.
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return scanWallet(r.pool.QueryRow(ctx, query, id), "get wallet by id")
}

// GetByOwnerID fetches the single wallet of an owner.
func (r *WalletRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1`
	return scanWallet(r.pool.QueryRow(ctx, query, ownerID), "get wallet by owner")
}

func scanWallet(row pgx.Row, op string) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	if err := row.Scan(&w.ID, &w.OwnerID, &w.CurrencySymbol, &w.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return w, nil
}
