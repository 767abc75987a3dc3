package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"campus-ledger/internal/core/domain"
	"campus-ledger/internal/core/ports"
	"campus-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const balanceCachePrefix = "wallet:balance:"

// LedgerRepos groups the stores the ledger writes through.
type LedgerRepos struct {
	Wallets ports.WalletRepository
	Coins   ports.CoinRepository
	Txns    ports.TransactionRepository
	History ports.CoinHistoryRepository
}

// LedgerServiceImpl implements ports.LedgerService. It is the only writer of
// coins and transactions.
type LedgerServiceImpl struct {
	repos      LedgerRepos
	transactor ports.DBTransactor
	hasher     ports.ChainHasher
	cache      ports.Cache
	notifier   ports.Notifier
	symbol     string
	balanceTTL time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	repos LedgerRepos,
	transactor ports.DBTransactor,
	hasher ports.ChainHasher,
	cache ports.Cache,
	notifier ports.Notifier,
	currencySymbol string,
	balanceTTL time.Duration,
	log zerolog.Logger,
) *LedgerServiceImpl {
	if currencySymbol == "" {
		currencySymbol = domain.DefaultCurrencySymbol
	}
	return &LedgerServiceImpl{
		repos:      repos,
		transactor: transactor,
		hasher:     hasher,
		cache:      cache,
		notifier:   notifier,
		symbol:     currencySymbol,
		balanceTTL: balanceTTL,
		now:        time.Now,
		log:        log,
	}
}

// CreateWallet opens a wallet for ownerID in its own transaction.
func (s *LedgerServiceImpl) CreateWallet(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	w, err := s.CreateWalletTx(ctx, dbTx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return w, nil
}

// CreateWalletTx inserts the wallet inside tx. A second wallet for the same
// owner is rejected by the unique key.
func (s *LedgerServiceImpl) CreateWalletTx(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	w := &domain.Wallet{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		CurrencySymbol: s.symbol,
		CreatedAt:      domain.LedgerTime(s.now()),
	}
	if err := s.repos.Wallets.Create(ctx, tx, w); err != nil {
		if errors.Is(err, ports.ErrConflict) {
			return nil, apperror.ErrWalletExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().Str("wallet_id", w.ID.String()).Str("owner_id", ownerID.String()).Msg("wallet created")
	return w, nil
}

// EnsureTreasury creates the treasury wallet on first start.
func (s *LedgerServiceImpl) EnsureTreasury(ctx context.Context) error {
	if err := s.repos.Wallets.EnsureExists(ctx, domain.NewTreasuryWallet(s.symbol, domain.LedgerTime(s.now()))); err != nil {
		return apperror.InternalError(fmt.Errorf("ensure treasury: %w", err))
	}
	return nil
}

// Mint creates new supply in its own transaction and settles it.
func (s *LedgerServiceImpl) Mint(ctx context.Context, req ports.MintRequest) (*domain.Transaction, error) {
	return s.inTx(ctx, func(tx pgx.Tx) (*domain.Transaction, error) {
		return s.MintTx(ctx, tx, req)
	})
}

// MintTx inserts req.Amount ACTIVE coins, their chain entry and their history inside tx.
func (s *LedgerServiceImpl) MintTx(ctx context.Context, tx pgx.Tx, req ports.MintRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Type == "" {
		req.Type = domain.TransactionTypeMint
	}
	if !req.Type.IsMint() {
		return nil, apperror.Validation(fmt.Sprintf("%s is not a mint type", req.Type))
	}
	if err := s.requireWallet(ctx, req.ToWalletID); err != nil {
		return nil, err
	}

	now := domain.LedgerTime(s.now())
	if req.BatchID == "" {
		req.BatchID = fmt.Sprintf("MINT_%d_%s", now.Unix(), uuid.NewString()[:8])
	}
	if req.ReferenceID == "" {
		req.ReferenceID = req.BatchID
	}

	coinIDs, err := s.repos.Coins.MintBatch(ctx, tx, req.ToWalletID, req.BatchID, req.Amount, now)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mint coins: %w", err))
	}
	if int64(len(coinIDs)) != req.Amount {
		return nil, apperror.InternalError(fmt.Errorf("minted %d coins, want %d", len(coinIDs), req.Amount))
	}

	to := req.ToWalletID
	txn := &domain.Transaction{
		ID:          uuid.New(),
		ToWalletID:  &to,
		Amount:      req.Amount,
		Type:        req.Type,
		ReferenceID: req.ReferenceID,
		CreatedAt:   now,
	}
	if err := s.appendToChain(ctx, tx, txn); err != nil {
		return nil, err
	}

	entry := domain.CoinHistory{
		TransactionID: txn.ID,
		ToWalletID:    &to,
		Action:        domain.CoinActionMint,
		Reason:        req.Reason,
		CreatedAt:     now,
	}
	if err := s.repos.History.Record(ctx, tx, coinIDs, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record coin history: %w", err))
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("wallet_id", to.String()).
		Str("batch_id", req.BatchID).
		Int64("amount", req.Amount).
		Msg("coins minted")

	return txn, nil
}

// Transfer moves coins in its own transaction and settles it.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.Transaction, error) {
	return s.inTx(ctx, func(tx pgx.Tx) (*domain.Transaction, error) {
		return s.TransferTx(ctx, tx, req)
	})
}

// TransferTx reassigns exactly req.Amount row-locked coins inside tx. Fewer
// lockable coins than requested fails the whole call with nothing moved.
func (s *LedgerServiceImpl) TransferTx(ctx context.Context, tx pgx.Tx, req ports.TransferRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.FromWalletID == req.ToWalletID {
		return nil, apperror.ErrSameWallet()
	}
	if req.Type == "" {
		req.Type = domain.TransactionTypeTransfer
	}
	if !req.Type.IsMove() {
		return nil, apperror.Validation(fmt.Sprintf("%s is not a transfer type", req.Type))
	}
	if err := s.requireWallet(ctx, req.FromWalletID); err != nil {
		return nil, err
	}
	if err := s.requireWallet(ctx, req.ToWalletID); err != nil {
		return nil, err
	}

	coinIDs, err := s.repos.Coins.LockActive(ctx, tx, req.FromWalletID, req.Amount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock coins: %w", err))
	}
	if int64(len(coinIDs)) < req.Amount {
		return nil, apperror.ErrInsufficientFundsDetail(int64(len(coinIDs)), req.Amount)
	}

	moved, err := s.repos.Coins.Reassign(ctx, tx, coinIDs, req.ToWalletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("reassign coins: %w", err))
	}
	if moved != req.Amount {
		return nil, apperror.InternalError(fmt.Errorf("reassigned %d coins, want %d", moved, req.Amount))
	}

	from, to := req.FromWalletID, req.ToWalletID
	now := domain.LedgerTime(s.now())
	txn := &domain.Transaction{
		ID:           uuid.New(),
		FromWalletID: &from,
		ToWalletID:   &to,
		Amount:       req.Amount,
		Type:         req.Type,
		ReferenceID:  req.ReferenceID,
		CreatedAt:    now,
	}
	if err := s.appendToChain(ctx, tx, txn); err != nil {
		return nil, err
	}

	entry := domain.CoinHistory{
		TransactionID: txn.ID,
		FromWalletID:  &from,
		ToWalletID:    &to,
		Action:        domain.CoinActionTransfer,
		Reason:        req.Reason,
		CreatedAt:     now,
	}
	if err := s.repos.History.Record(ctx, tx, coinIDs, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record coin history: %w", err))
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("from_wallet_id", from.String()).
		Str("to_wallet_id", to.String()).
		Str("type", string(req.Type)).
		Int64("amount", req.Amount).
		Msg("coins transferred")

	return txn, nil
}

// appendToChain links txn to the current tail and inserts it. The advisory
// lock is held until tx ends, so no other appender can read the same tail.
func (s *LedgerServiceImpl) appendToChain(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error {
	if err := s.repos.Txns.LockChain(ctx, tx); err != nil {
		return apperror.InternalError(fmt.Errorf("lock chain: %w", err))
	}
	prev, err := s.repos.Txns.LastHash(ctx, tx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("read chain tail: %w", err))
	}
	s.hasher.Seal(prev, txn)
	if err := s.repos.Txns.Create(ctx, tx, txn); err != nil {
		return apperror.InternalError(fmt.Errorf("append transaction: %w", err))
	}
	return nil
}

// Settle invalidates cached balances and announces the change. Failures are
// logged only; the transaction is already committed.
func (s *LedgerServiceImpl) Settle(ctx context.Context, txn *domain.Transaction) {
	for _, w := range []*uuid.UUID{txn.FromWalletID, txn.ToWalletID} {
		if w == nil {
			continue
		}
		if err := s.cache.Delete(ctx, balanceCacheKey(*w)); err != nil {
			s.log.Warn().Err(err).Str("wallet_id", w.String()).Msg("failed to invalidate balance cache")
		}
	}
	s.notifier.Notify(ctx, domain.BalanceChanged(txn))
}

// GetBalance counts the wallet's ACTIVE coins, read through the cache.
func (s *LedgerServiceImpl) GetBalance(ctx context.Context, walletID uuid.UUID) (int64, error) {
	key := balanceCacheKey(walletID)
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("balance cache read failed, falling through to DB")
	}
	if cached != nil {
		if n, perr := strconv.ParseInt(string(cached), 10, 64); perr == nil {
			return n, nil
		}
	}

	n, err := s.repos.Coins.CountActive(ctx, nil, walletID)
	if err != nil {
		return 0, apperror.ErrDatabaseError(fmt.Errorf("count coins: %w", err))
	}
	if err := s.cache.Set(ctx, key, []byte(strconv.FormatInt(n, 10)), s.balanceTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache balance")
	}
	return n, nil
}

func (s *LedgerServiceImpl) inTx(ctx context.Context, fn func(tx pgx.Tx) (*domain.Transaction, error)) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := fn(dbTx)
	if err != nil {
		return nil, err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.Settle(ctx, txn)
	return txn, nil
}

func (s *LedgerServiceImpl) requireWallet(ctx context.Context, id uuid.UUID) error {
	w, err := s.repos.Wallets.GetByID(ctx, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if w == nil {
		return apperror.ErrNotFound("Wallet")
	}
	return nil
}

func balanceCacheKey(walletID uuid.UUID) string {
	return balanceCachePrefix + walletID.String()
}
