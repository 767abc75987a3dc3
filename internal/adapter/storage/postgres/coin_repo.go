package postgres

import (
	"context"
	"fmt"
	"time"

	"campus-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CoinRepo implements ports.CoinRepository.
type CoinRepo struct {
	pool Pool
}

// NewCoinRepo creates a new CoinRepo.
func NewCoinRepo(pool Pool) *CoinRepo {
	return &CoinRepo{pool: pool}
}

// MintBatch inserts count ACTIVE coins with one statement.
func (r *CoinRepo) MintBatch(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, batchID string, count int64, createdAt time.Time) ([]uuid.UUID, error) {
	query := `INSERT INTO coins (id, wallet_id, mint_batch_id, status, created_at)
		SELECT gen_random_uuid(), $1, $2, 'ACTIVE', $3 FROM generate_series(1, $4::bigint)
		RETURNING id`

	rows, err := tx.Query(ctx, query, walletID, batchID, createdAt, count)
	if err != nil {
		return nil, fmt.Errorf("mint coins: %w", err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, fmt.Errorf("mint coins: %w", err)
	}
	return ids, nil
}

// LockActive selects up to limit ACTIVE coins FOR UPDATE SKIP LOCKED. Coins held
// by an in-flight spender are skipped rather than waited on, so concurrent
// debits of one wallet never pick the same coin.
func (r *CoinRepo) LockActive(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, limit int64) ([]uuid.UUID, error) {
	query := `SELECT id FROM coins
		WHERE wallet_id = $1 AND status = 'ACTIVE'
		ORDER BY created_at, id
		LIMIT $2
		FOR UPDATE SKIP LOCKED`

	rows, err := tx.Query(ctx, query, walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("lock active coins: %w", err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, fmt.Errorf("lock active coins: %w", err)
	}
	return ids, nil
}

// Reassign moves locked coins to toWalletID and reports how many rows changed.
func (r *CoinRepo) Reassign(ctx context.Context, tx pgx.Tx, coinIDs []uuid.UUID, toWalletID uuid.UUID) (int64, error) {
	query := `UPDATE coins SET wallet_id = $1 WHERE id = ANY($2) AND status = 'ACTIVE'`

	tag, err := tx.Exec(ctx, query, toWalletID, coinIDs)
	if err != nil {
		return 0, translate("reassign coins", err)
	}
	return tag.RowsAffected(), nil
}

// CountActive returns the wallet balance.
func (r *CoinRepo) CountActive(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM coins WHERE wallet_id = $1 AND status = 'ACTIVE'`

	var n int64
	if err := on(r.pool, tx).QueryRow(ctx, query, walletID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active coins: %w", err)
	}
	return n, nil
}

// ListByWallet returns the newest ACTIVE coins of a wallet.
func (r *CoinRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.Coin, error) {
	query := `SELECT id, wallet_id, mint_batch_id, status, created_at FROM coins
		WHERE wallet_id = $1 AND status = 'ACTIVE'
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("list coins: %w", err)
	}
	defer rows.Close()

	var coins []domain.Coin
	for rows.Next() {
		var c domain.Coin
		if err := rows.Scan(&c.ID, &c.WalletID, &c.MintBatchID, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan coin row: %w", err)
		}
		coins = append(coins, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coin rows: %w", err)
	}
	return coins, nil
}

func collectIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
