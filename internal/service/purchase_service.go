package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"campus-ledger/internal/core/domain"
	"campus-ledger/internal/core/ports"
	"campus-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	featuredAdsCacheKey = "ads:featured"
	orderListLimit      = 100
)

// PurchaseOptions carries presentation and cache settings.
type PurchaseOptions struct {
	CurrencySymbol string
	OrderListTTL   time.Duration
}

// PurchaseRepos groups the catalog-side stores a purchase writes.
type PurchaseRepos struct {
	Wallets       ports.WalletRepository
	Products      ports.ProductRepository
	Orders        ports.OrderRepository
	Ads           ports.AdRepository
	Notifications ports.NotificationRepository
}

// PurchaseServiceImpl implements ports.PurchaseService.
type PurchaseServiceImpl struct {
	repos      PurchaseRepos
	ledger     ports.LedgerService
	transactor ports.DBTransactor
	cache      ports.Cache
	notifier   ports.Notifier
	opts       PurchaseOptions
	now        func() time.Time
	codeFn     func() (string, error)
	log        zerolog.Logger
}

// NewPurchaseService creates a new PurchaseServiceImpl.
func NewPurchaseService(
	repos PurchaseRepos,
	ledger ports.LedgerService,
	transactor ports.DBTransactor,
	cache ports.Cache,
	notifier ports.Notifier,
	opts PurchaseOptions,
	log zerolog.Logger,
) *PurchaseServiceImpl {
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = domain.DefaultCurrencySymbol
	}
	return &PurchaseServiceImpl{
		repos:      repos,
		ledger:     ledger,
		transactor: transactor,
		cache:      cache,
		notifier:   notifier,
		opts:       opts,
		now:        time.Now,
		codeFn:     newDeliveryCode,
		log:        log,
	}
}

// Purchase buys one unit of productID. Stock, coins, the order and the
// seller's notification commit together.
func (s *PurchaseServiceImpl) Purchase(ctx context.Context, buyerID, productID uuid.UUID) (*ports.PurchaseResult, error) {
	buyerWallet, err := s.walletOf(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	product, err := s.repos.Products.GetForUpdate(ctx, dbTx, productID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock product: %w", err))
	}
	if product == nil {
		return nil, apperror.ErrNotFound("Product")
	}
	if product.SellerID == buyerID {
		return nil, apperror.ErrSelfPurchase()
	}
	if !product.InStock() {
		return nil, apperror.ErrOutOfStock()
	}
	price := domain.CoinPrice(product.Price)
	if price <= 0 {
		return nil, apperror.Validation("product price must be positive")
	}

	sellerWallet, err := s.walletOf(ctx, product.SellerID)
	if err != nil {
		return nil, err
	}

	orderID := uuid.New()
	txn, err := s.ledger.TransferTx(ctx, dbTx, ports.TransferRequest{
		FromWalletID: buyerWallet.ID,
		ToWalletID:   sellerWallet.ID,
		Amount:       price,
		Type:         domain.TransactionTypePurchase,
		ReferenceID:  orderID.String(),
		Reason:       "PURCHASE: " + product.Name,
	})
	if err != nil {
		return nil, err
	}

	ok, err := s.repos.Products.DecrementStock(ctx, dbTx, product.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("decrement stock: %w", err))
	}
	if !ok {
		return nil, apperror.ErrOutOfStock()
	}

	code, err := s.codeFn()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("delivery code: %w", err))
	}

	order := &domain.Order{
		ID:              orderID,
		BuyerID:         buyerID,
		SellerID:        product.SellerID,
		StoreID:         product.StoreID,
		ProductID:       product.ID,
		TransactionID:   txn.ID,
		PricePaid:       price,
		Status:          domain.OrderStatusPendingDelivery,
		DeliveryCode:    code,
		ProductSnapshot: product.Snapshot(),
		CreatedAt:       txn.CreatedAt,
	}
	if err := s.repos.Orders.Create(ctx, dbTx, order); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create order: %w", err))
	}

	note := &domain.Notification{
		ID:              uuid.New(),
		UserID:          product.SellerID,
		Type:            domain.NotificationOrderNew,
		Title:           "New sale",
		Message:         fmt.Sprintf("You sold %s for %d %s", product.Name, price, s.opts.CurrencySymbol),
		RelatedEntityID: &order.ID,
		CreatedAt:       order.CreatedAt,
	}
	if err := s.repos.Notifications.Create(ctx, dbTx, note); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("notify seller: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.ledger.Settle(ctx, txn)
	s.invalidate(ctx,
		"products:feed:*",
		fmt.Sprintf("product:detail:%s:*", product.ID),
		orderCachePattern(buyerID),
		orderCachePattern(product.SellerID),
	)

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("tx_id", txn.ID.String()).
		Str("product_id", product.ID.String()).
		Int64("amount", price).
		Msg("purchase completed")

	return &ports.PurchaseResult{Order: order, DeliveryCode: code, Transaction: txn}, nil
}

// ConfirmDelivery closes a pending order when the seller presents the buyer's code.
func (s *PurchaseServiceImpl) ConfirmDelivery(ctx context.Context, sellerID, orderID uuid.UUID, code string) (*domain.Order, error) {
	order, err := s.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrNotFound("Order")
	}
	if order.SellerID != sellerID {
		return nil, apperror.ErrNotOwner()
	}
	if !order.IsPending() {
		return nil, apperror.ErrOrderNotPending()
	}
	if subtle.ConstantTimeCompare([]byte(order.DeliveryCode), []byte(code)) != 1 {
		return nil, apperror.ErrInvalidDeliveryCode()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	now := domain.LedgerTime(s.now())
	flipped, err := s.repos.Orders.MarkDelivered(ctx, dbTx, order.ID, now)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark delivered: %w", err))
	}
	if !flipped {
		return nil, apperror.ErrOrderNotPending()
	}

	note := &domain.Notification{
		ID:              uuid.New(),
		UserID:          order.BuyerID,
		Type:            domain.NotificationOrderDelivered,
		Title:           "Order delivered",
		Message:         "Your order has been marked as delivered.",
		RelatedEntityID: &order.ID,
		CreatedAt:       now,
	}
	if err := s.repos.Notifications.Create(ctx, dbTx, note); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("notify buyer: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	order.Status = domain.OrderStatusDelivered
	order.DeliveredAt = &now

	s.invalidate(ctx, orderCachePattern(order.BuyerID), orderCachePattern(order.SellerID))
	s.notifier.Notify(ctx, domain.LedgerEvent{
		Kind:       domain.EventOrderDelivered,
		OrderID:    &order.ID,
		UserIDs:    []uuid.UUID{order.SellerID, order.BuyerID},
		OccurredAt: now,
	})

	s.log.Info().Str("order_id", order.ID.String()).Msg("order delivered")
	return order, nil
}

// ListOrders returns the user's orders as buyer or as seller, cached per role.
func (s *PurchaseServiceImpl) ListOrders(ctx context.Context, userID uuid.UUID, asSeller bool) ([]domain.OrderView, error) {
	role := "buyer"
	if asSeller {
		role = "seller"
	}
	key := fmt.Sprintf("orders:%s:%s", userID, role)

	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("orders cache read failed")
	}
	if cached != nil {
		var views []domain.OrderView
		if err := json.Unmarshal(cached, &views); err == nil {
			return views, nil
		}
	}

	orders, err := s.repos.Orders.ListByUser(ctx, userID, asSeller, orderListLimit)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list orders: %w", err))
	}
	views := make([]domain.OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, orders[i].ViewFor(asSeller))
	}
	if b, err := json.Marshal(views); err == nil {
		if err := s.cache.Set(ctx, key, b, s.opts.OrderListTTL); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to cache orders")
		}
	}
	return views, nil
}

// PurchaseAd promotes one of the caller's products. The package price goes
// to the treasury.
func (s *PurchaseServiceImpl) PurchaseAd(ctx context.Context, userID, productID, packageID uuid.UUID) (*domain.ProductAd, error) {
	wallet, err := s.walletOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	pkg, err := s.repos.Ads.GetPackage(ctx, packageID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get package: %w", err))
	}
	if pkg == nil {
		return nil, apperror.ErrNotFound("Ad package")
	}
	price := domain.CoinPrice(pkg.Price)
	if price <= 0 {
		return nil, apperror.Validation("package price must be positive")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	product, err := s.repos.Products.GetForUpdate(ctx, dbTx, productID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock product: %w", err))
	}
	if product == nil {
		return nil, apperror.ErrNotFound("Product")
	}
	if product.SellerID != userID {
		return nil, apperror.ErrNotOwner()
	}

	now := domain.LedgerTime(s.now())
	promoted, err := s.repos.Ads.HasActivePromotion(ctx, dbTx, product.ID, now)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check promotion: %w", err))
	}
	if promoted {
		return nil, apperror.ErrAlreadyPromoted()
	}

	txn, err := s.ledger.TransferTx(ctx, dbTx, ports.TransferRequest{
		FromWalletID: wallet.ID,
		ToWalletID:   domain.TreasuryWalletID,
		Amount:       price,
		Type:         domain.TransactionTypeAdPurchase,
		ReferenceID:  product.ID.String(),
		Reason:       "AD: " + pkg.Name,
	})
	if err != nil {
		return nil, err
	}

	ad := &domain.ProductAd{
		ID:            uuid.New(),
		ProductID:     product.ID,
		PackageID:     pkg.ID,
		TransactionID: txn.ID,
		StartsAt:      now,
		ExpiresAt:     now.Add(time.Duration(pkg.DurationHours) * time.Hour),
	}
	if err := s.repos.Ads.Create(ctx, dbTx, ad); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create promotion: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.ledger.Settle(ctx, txn)
	if err := s.cache.Delete(ctx, featuredAdsCacheKey); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate featured ads cache")
	}

	s.log.Info().
		Str("product_id", product.ID.String()).
		Str("tx_id", txn.ID.String()).
		Int64("amount", price).
		Msg("promotion purchased")

	return ad, nil
}

func (s *PurchaseServiceImpl) walletOf(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	w, err := s.repos.Wallets.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get wallet: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	return w, nil
}

func (s *PurchaseServiceImpl) invalidate(ctx context.Context, patterns ...string) {
	for _, p := range patterns {
		if err := s.cache.DeletePattern(ctx, p); err != nil {
			s.log.Warn().Err(err).Str("pattern", p).Msg("cache invalidation failed")
		}
	}
}

func orderCachePattern(userID uuid.UUID) string {
	return "orders:" + userID.String() + ":*"
}

// newDeliveryCode returns a uniformly random code in 1000-9999.
func newDeliveryCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}
