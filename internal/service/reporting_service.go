package service

import (
	"context"
	"fmt"
	"time"

	"campus-ledger/internal/core/domain"
	"campus-ledger/internal/core/ports"
	"campus-ledger/pkg/apperror"

	"github.com/google/uuid"
)

const (
	chainPageSize    = 500
	maxCoinListLimit = 1000
	maxTxnListLimit  = 100
	defaultListLimit = 20
)

// reportingService implements ports.ReportingService.
type reportingService struct {
	wallets ports.WalletRepository
	coins   ports.CoinRepository
	txns    ports.TransactionRepository
	history ports.CoinHistoryRepository
	ledger  ports.LedgerService
	hasher  ports.ChainHasher
	now     func() time.Time
}

// NewReportingService creates a new reporting service.
func NewReportingService(
	wallets ports.WalletRepository,
	coins ports.CoinRepository,
	txns ports.TransactionRepository,
	history ports.CoinHistoryRepository,
	ledger ports.LedgerService,
	hasher ports.ChainHasher,
) ports.ReportingService {
	return &reportingService{
		wallets: wallets,
		coins:   coins,
		txns:    txns,
		history: history,
		ledger:  ledger,
		hasher:  hasher,
		now:     time.Now,
	}
}

// WalletSummary returns the user's wallet and its derived balance.
func (s *reportingService) WalletSummary(ctx context.Context, userID uuid.UUID) (*ports.WalletSummary, error) {
	wallet, err := s.walletOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.GetBalance(ctx, wallet.ID)
	if err != nil {
		return nil, err
	}
	return &ports.WalletSummary{
		WalletID:       wallet.ID,
		Balance:        balance,
		CurrencySymbol: wallet.CurrencySymbol,
	}, nil
}

// ListCoins returns up to limit coins held by the user.
func (s *reportingService) ListCoins(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Coin, error) {
	wallet, err := s.walletOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	coins, err := s.coins.ListByWallet(ctx, wallet.ID, clampLimit(limit, maxCoinListLimit))
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return coins, nil
}

// CoinHistory returns the provenance trail of one coin, oldest first.
func (s *reportingService) CoinHistory(ctx context.Context, coinID uuid.UUID) ([]domain.CoinHistory, error) {
	rows, err := s.history.ListByCoin(ctx, coinID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if len(rows) == 0 {
		return nil, apperror.ErrNotFound("Coin")
	}
	return rows, nil
}

// ListTransactions returns a page of the user's transactions, newest first.
func (s *reportingService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Transaction, error) {
	if offset < 0 {
		return nil, apperror.Validation("offset must not be negative")
	}
	wallet, err := s.walletOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	txns, err := s.txns.ListByWallet(ctx, wallet.ID, clampLimit(limit, maxTxnListLimit), offset)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return txns, nil
}

// VerifyChain walks the whole log in append order. Every hash must recompute,
// every entry must link to its predecessor and every entry must have one
// history row per coin it moved.
func (s *reportingService) VerifyChain(ctx context.Context) (*ports.ChainReport, error) {
	report := &ports.ChainReport{Valid: true, TailHash: domain.GenesisHash}
	prev := domain.GenesisHash
	var after int64

	for {
		page, err := s.txns.ListChain(ctx, after, chainPageSize)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("list chain: %w", err))
		}
		for i := range page {
			t := &page[i]
			report.Checked++

			reason := ""
			switch {
			case t.PreviousHash != prev:
				reason = "previous_hash does not match predecessor"
			case !s.hasher.Verify(t):
				reason = "hash does not match contents"
			default:
				n, err := s.history.CountByTransaction(ctx, t.ID)
				if err != nil {
					return nil, apperror.InternalError(fmt.Errorf("count history: %w", err))
				}
				if n != t.Amount {
					reason = fmt.Sprintf("history rows %d, amount %d", n, t.Amount)
				}
			}
			if reason != "" {
				id := t.ID
				report.Valid = false
				report.BrokenAt = &id
				report.BrokenSeq = t.Seq
				report.Reason = reason
				report.VerifiedAtUTC = s.now().UTC()
				return report, nil
			}

			prev = t.Hash
			after = t.Seq
		}
		if len(page) < chainPageSize {
			break
		}
	}

	report.TailHash = prev
	report.VerifiedAtUTC = s.now().UTC()
	return report, nil
}

func (s *reportingService) walletOf(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.wallets.GetByOwnerID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	return wallet, nil
}

func clampLimit(limit, ceiling int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}
