package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"campus-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrConflict is returned (wrapped) by repositories when a unique constraint rejects a write.
var ErrConflict = errors.New("unique constraint violated")

// Methods accepting pgx.Tx run inside the caller's transaction. Where a method
// documents that tx may be nil it falls back to the pool.

// UserRepository defines persistence operations for marketplace accounts.
type UserRepository interface {
	Create(ctx context.Context, tx pgx.Tx, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// ListWithWallets returns every user that owns a wallet.
	ListWithWallets(ctx context.Context) ([]domain.User, error)
}

// WalletRepository defines persistence operations for wallets.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	// EnsureExists inserts wallet unless a row with its id already exists.
	EnsureExists(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
}

// CoinRepository is the coin store. Only the ledger service writes through it.
type CoinRepository interface {
	// MintBatch inserts count ACTIVE coins in one statement and returns their ids.
	MintBatch(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, batchID string, count int64, createdAt time.Time) ([]uuid.UUID, error)
	// LockActive row-locks up to limit ACTIVE coins of walletID, skipping rows
	// already locked by concurrent spenders.
	LockActive(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, limit int64) ([]uuid.UUID, error)
	Reassign(ctx context.Context, tx pgx.Tx, coinIDs []uuid.UUID, toWalletID uuid.UUID) (int64, error)
	// CountActive is the wallet balance. tx may be nil.
	CountActive(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) (int64, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.Coin, error)
}

// TransactionRepository is the hash-chained transaction log.
type TransactionRepository interface {
	// LockChain serializes appenders until tx ends.
	LockChain(ctx context.Context, tx pgx.Tx) error
	// LastHash returns the hash of the chain tail, or "" for an empty log.
	LastHash(ctx context.Context, tx pgx.Tx) (string, error)
	// Create appends t and fills t.Seq.
	Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Transaction, error)
	// ListChain pages through the log in append order.
	ListChain(ctx context.Context, afterSeq int64, limit int) ([]domain.Transaction, error)
}

// CoinHistoryRepository is the per-coin provenance trail.
type CoinHistoryRepository interface {
	// Record writes one row per coin, copying the shared fields of entry.
	Record(ctx context.Context, tx pgx.Tx, coinIDs []uuid.UUID, entry domain.CoinHistory) error
	ListByCoin(ctx context.Context, coinID uuid.UUID) ([]domain.CoinHistory, error)
	CountByTransaction(ctx context.Context, transactionID uuid.UUID) (int64, error)
}

// RewardEventRepository persists reward events and their budgets.
type RewardEventRepository interface {
	// LockBudget serializes budget allocation until tx ends.
	LockBudget(ctx context.Context, tx pgx.Tx) error
	// CommittedBudget sums remaining_budget of active events. tx may be nil.
	CommittedBudget(ctx context.Context, tx pgx.Tx) (int64, error)
	Create(ctx context.Context, tx pgx.Tx, event *domain.RewardEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RewardEvent, error)
	List(ctx context.Context) ([]domain.RewardEvent, error)
	// SetActive toggles an event. tx may be nil.
	SetActive(ctx context.Context, tx pgx.Tx, id uuid.UUID, active bool) (*domain.RewardEvent, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// ConsumeBudget decrements remaining_budget by amount only if the event is
	// active and can afford it, deactivating it when it can no longer pay a
	// full reward. Returns nil when no row matched.
	ConsumeBudget(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) (*domain.BudgetConsumption, error)
}

// RewardClaimRepository persists (event, user) claims.
type RewardClaimRepository interface {
	Exists(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	Create(ctx context.Context, tx pgx.Tx, claim *domain.RewardClaim) error
}

// ProductRepository is the slice of the catalog that purchases touch.
type ProductRepository interface {
	// GetForUpdate locks the product row and resolves its seller.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Product, error)
	DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
}

// OrderRepository persists orders.
type OrderRepository interface {
	Create(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// MarkDelivered flips a PENDING_DELIVERY order; false if it was not pending.
	MarkDelivered(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, asSeller bool, limit int) ([]domain.Order, error)
}

// AdRepository persists promotion packages and purchased promotions.
type AdRepository interface {
	GetPackage(ctx context.Context, id uuid.UUID) (*domain.AdPackage, error)
	HasActivePromotion(ctx context.Context, tx pgx.Tx, productID uuid.UUID, now time.Time) (bool, error)
	Create(ctx context.Context, tx pgx.Tx, ad *domain.ProductAd) error
}

// NotificationRepository persists in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, tx pgx.Tx, n *domain.Notification) error
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
