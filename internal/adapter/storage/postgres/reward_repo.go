package postgres

import (
	"context"
	"errors"
	"fmt"

	"campus-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RewardEventRepo implements ports.RewardEventRepository.
type RewardEventRepo struct {
	pool Pool
}

// NewRewardEventRepo creates a new RewardEventRepo.
func NewRewardEventRepo(pool Pool) *RewardEventRepo {
	return &RewardEventRepo{pool: pool}
}

const rewardEventColumns = `id, name, description, reward_amount, total_budget, remaining_budget,
	secret_key_enc, expires_at, is_active, qr_refresh_rate, created_at`

// LockBudget serializes treasury budget allocation for the rest of tx.
func (r *RewardEventRepo) LockBudget(ctx context.Context, tx pgx.Tx) error {
	if err := advisoryLock(ctx, tx, rewardBudgetLockKey); err != nil {
		return fmt.Errorf("lock reward budget: %w", err)
	}
	return nil
}

// CommittedBudget sums what active, unexpired events may still pay out.
func (r *RewardEventRepo) CommittedBudget(ctx context.Context, tx pgx.Tx) (int64, error) {
	query := `SELECT COALESCE(SUM(remaining_budget), 0)::bigint FROM reward_events
		WHERE is_active = TRUE AND (expires_at IS NULL OR expires_at > NOW())`

	var n int64
	if err := on(r.pool, tx).QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("sum committed budget: %w", err)
	}
	return n, nil
}

// Create inserts a reward event.
func (r *RewardEventRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.RewardEvent) error {
	query := `INSERT INTO reward_events (` + rewardEventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := on(r.pool, tx).Exec(ctx, query,
		e.ID, e.Name, e.Description, e.RewardAmount, e.TotalBudget, e.RemainingBudget,
		e.SecretKeyEnc, e.ExpiresAt, e.IsActive, e.QRRefreshRate, e.CreatedAt,
	)
	if err != nil {
		return translate("insert reward event", err)
	}
	return nil
}

// GetByID fetches an event without locking.
func (r *RewardEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.RewardEvent, error) {
	query := `SELECT ` + rewardEventColumns + ` FROM reward_events WHERE id = $1`
	return scanRewardEvent(r.pool.QueryRow(ctx, query, id), "get reward event")
}

// List returns all events, newest first.
func (r *RewardEventRepo) List(ctx context.Context) ([]domain.RewardEvent, error) {
	query := `SELECT ` + rewardEventColumns + ` FROM reward_events ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reward events: %w", err)
	}
	defer rows.Close()

	var events []domain.RewardEvent
	for rows.Next() {
		e, err := scanRewardEvent(rows, "scan reward event row")
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reward events: %w", err)
	}
	return events, nil
}

// SetActive toggles an event and returns its new state, or nil if it does not exist.
func (r *RewardEventRepo) SetActive(ctx context.Context, tx pgx.Tx, id uuid.UUID, active bool) (*domain.RewardEvent, error) {
	query := `UPDATE reward_events SET is_active = $2 WHERE id = $1 RETURNING ` + rewardEventColumns
	return scanRewardEvent(on(r.pool, tx).QueryRow(ctx, query, id, active), "toggle reward event")
}

// Delete hard-deletes an event; its claims cascade.
func (r *RewardEventRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reward_events WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete reward event: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ConsumeBudget is the guarded decrement of the claim protocol. The WHERE
// clause is the compare step: zero rows means a concurrent claim got there
// first, the event was switched off, or it expired.
func (r *RewardEventRepo) ConsumeBudget(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) (*domain.BudgetConsumption, error) {
	query := `UPDATE reward_events
		SET remaining_budget = remaining_budget - $1,
		    is_active = CASE WHEN remaining_budget - $1 < reward_amount THEN FALSE ELSE is_active END
		WHERE id = $2
		  AND is_active = TRUE
		  AND remaining_budget >= $1
		  AND (expires_at IS NULL OR expires_at > NOW())
		RETURNING remaining_budget, is_active`

	c := &domain.BudgetConsumption{}
	if err := tx.QueryRow(ctx, query, amount, id).Scan(&c.RemainingBudget, &c.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("consume reward budget: %w", err)
	}
	return c, nil
}

func scanRewardEvent(row pgx.Row, op string) (*domain.RewardEvent, error) {
	e := &domain.RewardEvent{}
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.RewardAmount, &e.TotalBudget, &e.RemainingBudget,
		&e.SecretKeyEnc, &e.ExpiresAt, &e.IsActive, &e.QRRefreshRate, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}

// RewardClaimRepo implements ports.RewardClaimRepository.
type RewardClaimRepo struct {
	pool Pool
}

// NewRewardClaimRepo creates a new RewardClaimRepo.
func NewRewardClaimRepo(pool Pool) *RewardClaimRepo {
	return &RewardClaimRepo{pool: pool}
}

// Exists reports whether the user already claimed the event.
func (r *RewardClaimRepo) Exists(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM reward_claims WHERE event_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, eventID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check reward claim: %w", err)
	}
	return exists, nil
}

// Create inserts a claim; a second claim for the pair fails with ports.ErrConflict.
func (r *RewardClaimRepo) Create(ctx context.Context, tx pgx.Tx, c *domain.RewardClaim) error {
	query := `INSERT INTO reward_claims (id, event_id, user_id, transaction_id, claimed_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := tx.Exec(ctx, query, c.ID, c.EventID, c.UserID, c.TransactionID, c.ClaimedAt); err != nil {
		return translate("insert reward claim", err)
	}
	return nil
}
