package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"campus-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles access-token JWTs.
type TokenService interface {
	Generate(userID uuid.UUID, roles []string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed access-token claims.
type TokenClaims struct {
	UserID uuid.UUID
	Roles  []string
}

// ChainHasher links transactions into the tamper-evident log.
type ChainHasher interface {
	// Seal sets t.PreviousHash to prevHash and computes t.Hash.
	Seal(prevHash string, t *domain.Transaction)
	// Verify recomputes t's hash from its stored fields.
	Verify(t *domain.Transaction) bool
}

// TicketService signs and verifies rotating reward claim tickets.
type TicketService interface {
	Issue(eventID uuid.UUID, secret string, ttl time.Duration) (string, time.Time, error)
	// Verify fails if token was not signed with secret for eventID, or has
	// expired beyond the configured clock tolerance.
	Verify(token string, secret string, eventID uuid.UUID) error
}

// Cache is the best-effort key/value layer. Callers treat every error as a miss.
type Cache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// ClaimGuard sheds concurrent duplicate claim attempts before they reach the database.
type ClaimGuard interface {
	Acquire(ctx context.Context, eventID, userID uuid.UUID, ttl time.Duration) (bool, error)
	Release(ctx context.Context, eventID, userID uuid.UUID) error
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// RateLimitStore counts requests in fixed windows.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// HealthChecker reports on one external dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error // nil when healthy
	Name() string
}

// EventPublisher delivers serialized events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close() error
}

// Notifier dispatches ledger events without blocking the caller.
type Notifier interface {
	Notify(ctx context.Context, event domain.LedgerEvent)
}

// AuditService records audit entries asynchronously.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Service Ports (Business Logic) ---

// LedgerService owns every write to coins and transactions.
// The *Tx variants compose into a caller's open transaction and leave commit
// and Settle to the caller.
type LedgerService interface {
	CreateWallet(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	CreateWalletTx(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error)
	EnsureTreasury(ctx context.Context) error
	Mint(ctx context.Context, req MintRequest) (*domain.Transaction, error)
	MintTx(ctx context.Context, tx pgx.Tx, req MintRequest) (*domain.Transaction, error)
	Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error)
	TransferTx(ctx context.Context, tx pgx.Tx, req TransferRequest) (*domain.Transaction, error)
	// Settle runs the post-commit side effects of a committed transaction.
	Settle(ctx context.Context, txn *domain.Transaction)
	GetBalance(ctx context.Context, walletID uuid.UUID) (int64, error)
}

// MintRequest creates Amount new coins in ToWalletID.
type MintRequest struct {
	ToWalletID  uuid.UUID
	Amount      int64
	Type        domain.TransactionType // defaults to MINT
	BatchID     string                 // generated when empty
	ReferenceID string                 // defaults to BatchID
	Reason      string
}

// TransferRequest moves Amount coins between wallets.
type TransferRequest struct {
	FromWalletID uuid.UUID
	ToWalletID   uuid.UUID
	Amount       int64
	Type         domain.TransactionType // defaults to TRANSFER
	ReferenceID  string
	Reason       string
}

// RewardService runs reward events and their claim protocol.
type RewardService interface {
	CreateEvent(ctx context.Context, req CreateRewardEventRequest) (*domain.RewardEvent, error)
	ListEvents(ctx context.Context) ([]domain.RewardEvent, error)
	ToggleEvent(ctx context.Context, id uuid.UUID, active bool) (*domain.RewardEvent, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	IssueClaimTicket(ctx context.Context, id uuid.UUID) (*ClaimTicket, error)
	ClaimReward(ctx context.Context, req ClaimRequest) (*ClaimResult, error)
}

// CreateRewardEventRequest holds validated input for event creation.
type CreateRewardEventRequest struct {
	Name               string
	Description        string
	RewardAmount       int64
	TotalBudget        int64
	ExpiresAt          *time.Time
	RefreshRateSeconds int
}

// ClaimTicket is the payload rendered as a rotating QR code.
type ClaimTicket struct {
	Token            string    `json:"token"`
	ExpiresAt        time.Time `json:"expires_at"`
	ExpiresInSeconds int       `json:"expires_in_seconds"`
}

// ClaimRequest is one user's attempt to redeem a ticket.
type ClaimRequest struct {
	EventID uuid.UUID
	UserID  uuid.UUID
	Token   string
}

// ClaimResult reports a successful claim.
type ClaimResult struct {
	AmountReceived  int64     `json:"amount_received"`
	TransactionID   uuid.UUID `json:"transaction_id"`
	RemainingBudget int64     `json:"remaining_budget"`
	EventFinalized  bool      `json:"event_finalized"`
}

// PurchaseService composes transfers with catalog and order writes.
type PurchaseService interface {
	Purchase(ctx context.Context, buyerID, productID uuid.UUID) (*PurchaseResult, error)
	ConfirmDelivery(ctx context.Context, sellerID, orderID uuid.UUID, code string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, asSeller bool) ([]domain.OrderView, error)
	PurchaseAd(ctx context.Context, userID, productID, packageID uuid.UUID) (*domain.ProductAd, error)
}

// PurchaseResult is returned to the buyer; DeliveryCode is shown only here.
type PurchaseResult struct {
	Order        *domain.Order       `json:"order"`
	DeliveryCode string              `json:"delivery_code"`
	Transaction  *domain.Transaction `json:"transaction"`
}

// TreasuryService covers treasury supply and admin distribution.
type TreasuryService interface {
	Vault(ctx context.Context) (*domain.VaultSummary, error)
	MintSemester(ctx context.Context, semester string) (*domain.Transaction, error)
	MintManual(ctx context.Context, req ManualMintRequest) (*domain.Transaction, error)
	Grant(ctx context.Context, req GrantRequest) (*domain.Transaction, error)
}

// ManualMintRequest is an admin-initiated mint into the treasury.
type ManualMintRequest struct {
	AdminID  uuid.UUID
	Password string
	Amount   int64
	Reason   string
}

// GrantRequest moves coins from the treasury to a user.
type GrantRequest struct {
	UserID uuid.UUID
	Amount int64
	Reason string
}

// ReportingService serves read-only ledger views.
type ReportingService interface {
	WalletSummary(ctx context.Context, userID uuid.UUID) (*WalletSummary, error)
	ListCoins(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Coin, error)
	CoinHistory(ctx context.Context, coinID uuid.UUID) ([]domain.CoinHistory, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Transaction, error)
	VerifyChain(ctx context.Context) (*ChainReport, error)
}

// WalletSummary is a user's wallet with its derived balance.
type WalletSummary struct {
	WalletID       uuid.UUID `json:"wallet_id"`
	Balance        int64     `json:"balance"`
	CurrencySymbol string    `json:"currency_symbol"`
}

// ChainReport is the outcome of a full log verification.
type ChainReport struct {
	Checked       int64      `json:"checked"`
	Valid         bool       `json:"valid"`
	BrokenAt      *uuid.UUID `json:"broken_at,omitempty"`
	BrokenSeq     int64      `json:"broken_seq,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	TailHash      string     `json:"tail_hash"`
	VerifiedAtUTC time.Time  `json:"verified_at"`
}

// AuthService registers users and issues access tokens.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

// RegisterResponse holds the new account and its wallet.
type RegisterResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	WalletID uuid.UUID `json:"wallet_id"`
}
