package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-ledger/internal/core/domain"
	"campus-ledger/internal/core/ports"
	"campus-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// AllowanceFunc returns the semester mint allowance for a user with roles.
type AllowanceFunc func(roles []string) int64

// TreasuryServiceImpl implements ports.TreasuryService.
type TreasuryServiceImpl struct {
	users      ports.UserRepository
	wallets    ports.WalletRepository
	coins      ports.CoinRepository
	events     ports.RewardEventRepository
	ledger     ports.LedgerService
	transactor ports.DBTransactor
	hashSvc    ports.HashService
	allowance  AllowanceFunc
	now        func() time.Time
	log        zerolog.Logger
}

// NewTreasuryService creates a new TreasuryServiceImpl.
func NewTreasuryService(
	users ports.UserRepository,
	wallets ports.WalletRepository,
	coins ports.CoinRepository,
	events ports.RewardEventRepository,
	ledger ports.LedgerService,
	transactor ports.DBTransactor,
	hashSvc ports.HashService,
	allowance AllowanceFunc,
	log zerolog.Logger,
) *TreasuryServiceImpl {
	return &TreasuryServiceImpl{
		users:      users,
		wallets:    wallets,
		coins:      coins,
		events:     events,
		ledger:     ledger,
		transactor: transactor,
		hashSvc:    hashSvc,
		allowance:  allowance,
		now:        time.Now,
		log:        log,
	}
}

// Vault reports treasury coins and how many of them back active events.
func (s *TreasuryServiceImpl) Vault(ctx context.Context) (*domain.VaultSummary, error) {
	physical, err := s.coins.CountActive(ctx, nil, domain.TreasuryWalletID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("count treasury: %w", err))
	}
	committed, err := s.events.CommittedBudget(ctx, nil)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("committed budget: %w", err))
	}
	v := domain.NewVaultSummary(physical, committed)
	return &v, nil
}

// MintSemester mints the sum of every wallet holder's allowance into the treasury.
func (s *TreasuryServiceImpl) MintSemester(ctx context.Context, semester string) (*domain.Transaction, error) {
	semester = strings.TrimSpace(semester)
	if semester == "" {
		return nil, apperror.Validation("semester is required")
	}

	users, err := s.users.ListWithWallets(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list users: %w", err))
	}
	var total int64
	for _, u := range users {
		total += s.allowance(u.Roles)
	}
	if total <= 0 {
		return nil, apperror.Validation("no semester allowance to mint")
	}

	txn, err := s.ledger.Mint(ctx, ports.MintRequest{
		ToWalletID: domain.TreasuryWalletID,
		Amount:     total,
		Type:       domain.TransactionTypeMintTreasury,
		BatchID:    fmt.Sprintf("MINT_SEM_%s_TREASURY", semester),
		Reason:     "Semester mint " + semester,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("semester", semester).
		Int("users", len(users)).
		Int64("amount", total).
		Msg("semester supply minted")
	return txn, nil
}

// MintManual mints into the treasury after re-checking the admin's password.
func (s *TreasuryServiceImpl) MintManual(ctx context.Context, req ports.ManualMintRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	admin, err := s.users.GetByID(ctx, req.AdminID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get admin: %w", err))
	}
	if admin == nil {
		return nil, apperror.ErrInvalidCredentials()
	}
	if !admin.HasRole(domain.RoleAdmin) {
		return nil, apperror.ErrForbidden()
	}
	ok, err := s.hashSvc.Verify(req.Password, admin.PasswordHash)
	if err != nil || !ok {
		return nil, apperror.ErrInvalidCredentials()
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "Manual mint"
	}
	txn, err := s.ledger.Mint(ctx, ports.MintRequest{
		ToWalletID: domain.TreasuryWalletID,
		Amount:     req.Amount,
		Type:       domain.TransactionTypeMintManual,
		BatchID:    fmt.Sprintf("MINT_MANUAL_%d", s.now().Unix()),
		Reason:     reason,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("admin_id", admin.ID.String()).
		Int64("amount", req.Amount).
		Msg("manual mint")
	return txn, nil
}

// Grant pays a user from the treasury. Coins backing active reward events are
// not grantable.
func (s *TreasuryServiceImpl) Grant(ctx context.Context, req ports.GrantRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	wallet, err := s.wallets.GetByOwnerID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.events.LockBudget(ctx, dbTx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock budget: %w", err))
	}
	physical, err := s.coins.CountActive(ctx, dbTx, domain.TreasuryWalletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count treasury: %w", err))
	}
	committed, err := s.events.CommittedBudget(ctx, dbTx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("committed budget: %w", err))
	}
	if vault := domain.NewVaultSummary(physical, committed); req.Amount > vault.Available {
		return nil, apperror.ErrInsufficientFundsDetail(vault.Available, req.Amount)
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "Admin grant"
	}
	txn, err := s.ledger.TransferTx(ctx, dbTx, ports.TransferRequest{
		FromWalletID: domain.TreasuryWalletID,
		ToWalletID:   wallet.ID,
		Amount:       req.Amount,
		Type:         domain.TransactionTypeTransfer,
		ReferenceID:  "ADMIN_GRANT",
		Reason:       reason,
	})
	if err != nil {
		return nil, err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.ledger.Settle(ctx, txn)
	s.log.Info().
		Str("user_id", req.UserID.String()).
		Str("tx_id", txn.ID.String()).
		Int64("amount", req.Amount).
		Msg("treasury grant")
	return txn, nil
}
