package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"campus-ledger/internal/core/domain"
	"campus-ledger/internal/core/ports"
	"campus-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const rewardEventsCacheKey = "rewards:events"

// RewardOptions tunes ticket lifetime and cache behaviour.
type RewardOptions struct {
	DefaultRefreshRate int // seconds
	ClaimGuardTTL      time.Duration
	ListCacheTTL       time.Duration
}

// RewardServiceImpl implements ports.RewardService.
type RewardServiceImpl struct {
	events     ports.RewardEventRepository
	claims     ports.RewardClaimRepository
	wallets    ports.WalletRepository
	coins      ports.CoinRepository
	ledger     ports.LedgerService
	transactor ports.DBTransactor
	encSvc     ports.EncryptionService
	tickets    ports.TicketService
	guard      ports.ClaimGuard
	cache      ports.Cache
	opts       RewardOptions
	now        func() time.Time
	log        zerolog.Logger
}

// NewRewardService creates a new RewardServiceImpl.
func NewRewardService(
	events ports.RewardEventRepository,
	claims ports.RewardClaimRepository,
	wallets ports.WalletRepository,
	coins ports.CoinRepository,
	ledger ports.LedgerService,
	transactor ports.DBTransactor,
	encSvc ports.EncryptionService,
	tickets ports.TicketService,
	guard ports.ClaimGuard,
	cache ports.Cache,
	opts RewardOptions,
	log zerolog.Logger,
) *RewardServiceImpl {
	if opts.DefaultRefreshRate <= 0 {
		opts.DefaultRefreshRate = domain.DefaultQRRefreshRate
	}
	return &RewardServiceImpl{
		events:     events,
		claims:     claims,
		wallets:    wallets,
		coins:      coins,
		ledger:     ledger,
		transactor: transactor,
		encSvc:     encSvc,
		tickets:    tickets,
		guard:      guard,
		cache:      cache,
		opts:       opts,
		now:        time.Now,
		log:        log,
	}
}

// CreateEvent opens a campaign whose budget the treasury can back. Coins
// already promised to other active events are not available.
func (s *RewardServiceImpl) CreateEvent(ctx context.Context, req ports.CreateRewardEventRequest) (*domain.RewardEvent, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, apperror.Validation("name is required")
	}
	if req.RewardAmount <= 0 || req.TotalBudget <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.TotalBudget < req.RewardAmount {
		return nil, apperror.Validation("total_budget must cover at least one reward")
	}
	now := s.now().UTC()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, apperror.Validation("expires_at must be in the future")
	}
	if req.RefreshRateSeconds <= 0 {
		req.RefreshRateSeconds = s.opts.DefaultRefreshRate
	}

	secret, err := newEventSecret()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate secret: %w", err))
	}
	secretEnc, err := s.encSvc.Encrypt(secret)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("encrypt secret: %w", err))
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
	vault := domain.NewVaultSummary(physical, committed)
	if req.TotalBudget > vault.Available {
		return nil, apperror.ErrInsufficientTreasuryBudget(vault.Available)
	}

	event := &domain.RewardEvent{
		ID:              uuid.New(),
		Name:            req.Name,
		Description:     req.Description,
		RewardAmount:    req.RewardAmount,
		TotalBudget:     req.TotalBudget,
		RemainingBudget: req.TotalBudget,
		SecretKeyEnc:    secretEnc,
		ExpiresAt:       req.ExpiresAt,
		IsActive:        true,
		QRRefreshRate:   req.RefreshRateSeconds,
		CreatedAt:       domain.LedgerTime(now),
	}
	if err := s.events.Create(ctx, dbTx, event); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create event: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.invalidateEvents(ctx)
	s.log.Info().
		Str("event_id", event.ID.String()).
		Int64("reward", event.RewardAmount).
		Int64("budget", event.TotalBudget).
		Msg("reward event created")

	return event, nil
}

// ListEvents returns every event, newest first, through the cache.
func (s *RewardServiceImpl) ListEvents(ctx context.Context) ([]domain.RewardEvent, error) {
	cached, err := s.cache.Get(ctx, rewardEventsCacheKey)
	if err != nil {
		s.log.Warn().Err(err).Msg("reward events cache read failed")
	}
	if cached != nil {
		var events []domain.RewardEvent
		if err := json.Unmarshal(cached, &events); err == nil {
			return events, nil
		}
	}

	events, err := s.events.List(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list events: %w", err))
	}
	if events == nil {
		events = []domain.RewardEvent{}
	}
	if b, err := json.Marshal(events); err == nil {
		if err := s.cache.Set(ctx, rewardEventsCacheKey, b, s.opts.ListCacheTTL); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache reward events")
		}
	}
	return events, nil
}

// ToggleEvent activates or deactivates an event. Reactivation needs a full
// reward left in the event and a treasury that can back what remains of it.
func (s *RewardServiceImpl) ToggleEvent(ctx context.Context, id uuid.UUID, active bool) (*domain.RewardEvent, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if active {
		if err := s.events.LockBudget(ctx, dbTx); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lock budget: %w", err))
		}
		if err := s.checkReactivation(ctx, dbTx, id); err != nil {
			return nil, err
		}
	}

	event, err := s.events.SetActive(ctx, dbTx, id, active)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("toggle event: %w", err))
	}
	if event == nil {
		return nil, apperror.ErrNotFound("Reward event")
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.invalidateEvents(ctx)
	s.log.Info().Str("event_id", id.String()).Bool("active", active).Msg("reward event toggled")
	return event, nil
}

// checkReactivation must run under the budget lock.
func (s *RewardServiceImpl) checkReactivation(ctx context.Context, dbTx pgx.Tx, id uuid.UUID) error {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return err
	}
	if !event.CanPayOut() {
		return apperror.Validation("event budget cannot pay a full reward")
	}

	physical, err := s.coins.CountActive(ctx, dbTx, domain.TreasuryWalletID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("count treasury: %w", err))
	}
	committed, err := s.events.CommittedBudget(ctx, dbTx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("committed budget: %w", err))
	}
	// An event that is already live is part of committed.
	if event.IsActive && !event.IsExpired(s.now()) {
		committed -= event.RemainingBudget
	}
	vault := domain.NewVaultSummary(physical, committed)
	if event.RemainingBudget > vault.Available {
		return apperror.ErrInsufficientTreasuryBudget(vault.Available)
	}
	return nil
}

// DeleteEvent removes an event and its claims.
func (s *RewardServiceImpl) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.events.Delete(ctx, id)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("delete event: %w", err))
	}
	if !deleted {
		return apperror.ErrNotFound("Reward event")
	}

	s.invalidateEvents(ctx)
	s.log.Info().Str("event_id", id.String()).Msg("reward event deleted")
	return nil
}

// IssueClaimTicket signs a fresh rotating ticket for an open event.
func (s *RewardServiceImpl) IssueClaimTicket(ctx context.Context, id uuid.UUID) (*ports.ClaimTicket, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.IsOpen(s.now()) {
		return nil, apperror.ErrEventInactive()
	}

	secret, err := s.encSvc.Decrypt(event.SecretKeyEnc)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("decrypt secret: %w", err))
	}
	ttl := s.ticketTTL(event)
	token, expiresAt, err := s.tickets.Issue(event.ID, secret, ttl)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("issue ticket: %w", err))
	}

	return &ports.ClaimTicket{
		Token:            token,
		ExpiresAt:        expiresAt,
		ExpiresInSeconds: int(ttl / time.Second),
	}, nil
}

// ClaimReward pays one reward to req.UserID. The budget decrement, the
// treasury transfer and the claim row commit together or not at all.
func (s *RewardServiceImpl) ClaimReward(ctx context.Context, req ports.ClaimRequest) (*ports.ClaimResult, error) {
	if strings.TrimSpace(req.Token) == "" {
		return nil, apperror.Validation("token is required")
	}

	event, err := s.getEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if !event.IsOpen(s.now()) {
		return nil, apperror.ErrEventInactive()
	}
	if !event.CanPayOut() {
		return nil, apperror.ErrBudgetExhausted()
	}

	secret, err := s.encSvc.Decrypt(event.SecretKeyEnc)
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("decrypt secret: %w", err))
	}
	if err := s.tickets.Verify(req.Token, secret, event.ID); err != nil {
		s.log.Debug().Err(err).Str("event_id", event.ID.String()).Msg("claim ticket rejected")
		return nil, apperror.ErrTicketExpired()
	}

	claimed, err := s.claims.Exists(ctx, event.ID, req.UserID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("check claim: %w", err))
	}
	if claimed {
		return nil, apperror.ErrAlreadyClaimed()
	}

	wallet, err := s.wallets.GetByOwnerID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}

	acquired, err := s.guard.Acquire(ctx, event.ID, req.UserID, s.opts.ClaimGuardTTL)
	if err != nil {
		s.log.Warn().Err(err).Str("event_id", event.ID.String()).Msg("claim guard unavailable, relying on DB")
		acquired = false
	} else if !acquired {
		return nil, apperror.ErrAlreadyClaimed()
	}

	result, txn, err := s.payClaim(ctx, event, req.UserID, wallet.ID)
	if err != nil {
		if acquired {
			if rerr := s.guard.Release(context.WithoutCancel(ctx), event.ID, req.UserID); rerr != nil {
				s.log.Warn().Err(rerr).Str("event_id", event.ID.String()).Msg("failed to release claim guard")
			}
		}
		return nil, err
	}

	s.ledger.Settle(ctx, txn)
	s.invalidateEvents(ctx)
	s.log.Info().
		Str("event_id", event.ID.String()).
		Str("user_id", req.UserID.String()).
		Str("tx_id", txn.ID.String()).
		Int64("amount", result.AmountReceived).
		Bool("finalized", result.EventFinalized).
		Msg("reward claimed")

	return result, nil
}

func (s *RewardServiceImpl) payClaim(ctx context.Context, event *domain.RewardEvent, userID, walletID uuid.UUID) (*ports.ClaimResult, *domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	consumed, err := s.events.ConsumeBudget(ctx, dbTx, event.ID, event.RewardAmount)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("consume budget: %w", err))
	}
	if consumed == nil {
		return nil, nil, apperror.ErrBudgetRaced()
	}

	txn, err := s.ledger.TransferTx(ctx, dbTx, ports.TransferRequest{
		FromWalletID: domain.TreasuryWalletID,
		ToWalletID:   walletID,
		Amount:       event.RewardAmount,
		Type:         domain.TransactionTypeTransfer,
		ReferenceID:  event.TransferReference(),
		Reason:       event.TransferReference(),
	})
	if err != nil {
		return nil, nil, err
	}

	claim := &domain.RewardClaim{
		ID:            uuid.New(),
		EventID:       event.ID,
		UserID:        userID,
		TransactionID: txn.ID,
		ClaimedAt:     txn.CreatedAt,
	}
	if err := s.claims.Create(ctx, dbTx, claim); err != nil {
		if errors.Is(err, ports.ErrConflict) {
			return nil, nil, apperror.ErrAlreadyClaimed()
		}
		return nil, nil, apperror.InternalError(fmt.Errorf("record claim: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	return &ports.ClaimResult{
		AmountReceived:  event.RewardAmount,
		TransactionID:   txn.ID,
		RemainingBudget: consumed.RemainingBudget,
		EventFinalized:  !consumed.IsActive,
	}, txn, nil
}

func (s *RewardServiceImpl) getEvent(ctx context.Context, id uuid.UUID) (*domain.RewardEvent, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get event: %w", err))
	}
	if event == nil {
		return nil, apperror.ErrNotFound("Reward event")
	}
	return event, nil
}

func (s *RewardServiceImpl) ticketTTL(event *domain.RewardEvent) time.Duration {
	if event.QRRefreshRate <= 0 {
		return time.Duration(s.opts.DefaultRefreshRate) * time.Second
	}
	return event.TicketTTL()
}

func (s *RewardServiceImpl) invalidateEvents(ctx context.Context) {
	if err := s.cache.Delete(ctx, rewardEventsCacheKey); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate reward events cache")
	}
}

// newEventSecret returns 32 random bytes, hex encoded.
func newEventSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
