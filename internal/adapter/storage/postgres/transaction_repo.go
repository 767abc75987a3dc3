package postgres

import (
	"context"
	"errors"
	"fmt"

	"campus-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `id, seq, from_wallet_id, to_wallet_id, amount, type, reference_id, previous_hash, hash, created_at`

// LockChain takes the transaction-scoped advisory lock guarding the chain tail.
// Appenders queue here, so each one reads the tail its predecessor committed.
func (r *TransactionRepo) LockChain(ctx context.Context, tx pgx.Tx) error {
	if err := advisoryLock(ctx, tx, chainAppendLockKey); err != nil {
		return fmt.Errorf("lock transaction chain: %w", err)
	}
	return nil
}

// LastHash returns the tail hash, or "" when the log is empty.
func (r *TransactionRepo) LastHash(ctx context.Context, tx pgx.Tx) (string, error) {
	var hash string
	err := tx.QueryRow(ctx, `SELECT hash FROM transactions ORDER BY seq DESC LIMIT 1`).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("read chain tail: %w", err)
	}
	return hash, nil
}

// Create appends a sealed transaction and records its sequence number.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, from_wallet_id, to_wallet_id, amount, type, reference_id, previous_hash, hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq`

	err := tx.QueryRow(ctx, query,
		t.ID, t.FromWalletID, t.ToWalletID, t.Amount, t.Type,
		t.ReferenceID, t.PreviousHash, t.Hash, t.CreatedAt,
	).Scan(&t.Seq)
	if err != nil {
		return translate("insert transaction", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	t := &domain.Transaction{}
	if err := scanTransaction(r.pool.QueryRow(ctx, query, id), t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListByWallet returns the wallet's transactions, newest first.
func (r *TransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE from_wallet_id = $1 OR to_wallet_id = $1
		ORDER BY seq DESC
		LIMIT $2 OFFSET $3`

	return r.list(ctx, "list wallet transactions", query, walletID, limit, offset)
}

// ListChain returns up to limit transactions with seq > afterSeq, in append order.
func (r *TransactionRepo) ListChain(ctx context.Context, afterSeq int64, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE seq > $1
		ORDER BY seq
		LIMIT $2`

	return r.list(ctx, "list chain", query, afterSeq, limit)
}

func (r *TransactionRepo) list(ctx context.Context, op, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := scanTransaction(rows, &t); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return txns, nil
}

func scanTransaction(row pgx.Row, t *domain.Transaction) error {
	err := row.Scan(
		&t.ID, &t.Seq, &t.FromWalletID, &t.ToWalletID, &t.Amount, &t.Type,
		&t.ReferenceID, &t.PreviousHash, &t.Hash, &t.CreatedAt,
	)
	if err != nil {
		return err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return nil
}
