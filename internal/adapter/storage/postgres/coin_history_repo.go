package postgres

import (
	"context"
	"fmt"

	"campus-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CoinHistoryRepo implements ports.CoinHistoryRepository.
type CoinHistoryRepo struct {
	pool Pool
}

// NewCoinHistoryRepo creates a new CoinHistoryRepo.
func NewCoinHistoryRepo(pool Pool) *CoinHistoryRepo {
	return &CoinHistoryRepo{pool: pool}
}

// Record writes one history row per coin via unnest, in a single round trip.
func (r *CoinHistoryRepo) Record(ctx context.Context, tx pgx.Tx, coinIDs []uuid.UUID, e domain.CoinHistory) error {
	query := `INSERT INTO coin_history (id, coin_id, transaction_id, from_wallet_id, to_wallet_id, action, reason, created_at)
		SELECT gen_random_uuid(), c, $2, $3, $4, $5, $6, $7 FROM unnest($1::uuid[]) AS c`

	tag, err := tx.Exec(ctx, query,
		coinIDs, e.TransactionID, e.FromWalletID, e.ToWalletID, e.Action, e.Reason, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert coin history: %w", err)
	}
	if tag.RowsAffected() != int64(len(coinIDs)) {
		return fmt.Errorf("insert coin history: wrote %d rows for %d coins", tag.RowsAffected(), len(coinIDs))
	}
	return nil
}

// ListByCoin returns a coin's provenance, oldest first.
func (r *CoinHistoryRepo) ListByCoin(ctx context.Context, coinID uuid.UUID) ([]domain.CoinHistory, error) {
	query := `SELECT id, coin_id, transaction_id, from_wallet_id, to_wallet_id, action, reason, created_at
		FROM coin_history WHERE coin_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, coinID)
	if err != nil {
		return nil, fmt.Errorf("list coin history: %w", err)
	}
	defer rows.Close()

	var out []domain.CoinHistory
	for rows.Next() {
		var h domain.CoinHistory
		if err := rows.Scan(&h.ID, &h.CoinID, &h.TransactionID, &h.FromWalletID, &h.ToWalletID,
			&h.Action, &h.Reason, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan coin history row: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coin history rows: %w", err)
	}
	return out, nil
}

// CountByTransaction counts the coins a transaction touched.
func (r *CoinHistoryRepo) CountByTransaction(ctx context.Context, transactionID uuid.UUID) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM coin_history WHERE transaction_id = $1`, transactionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count coin history: %w", err)
	}
	return n, nil
}
