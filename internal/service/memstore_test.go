package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"campus-ledger/internal/core/domain"
	"campus-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// memState is everything the repositories persist.
type memState struct {
	users         map[uuid.UUID]domain.User
	wallets       map[uuid.UUID]domain.Wallet
	coins         map[uuid.UUID]domain.Coin
	coinOrder     []uuid.UUID
	txns          []domain.Transaction
	history       []domain.CoinHistory
	events        map[uuid.UUID]domain.RewardEvent
	claims        map[[2]uuid.UUID]domain.RewardClaim
	products      map[uuid.UUID]domain.Product
	orders        map[uuid.UUID]domain.Order
	packages      map[uuid.UUID]domain.AdPackage
	ads           []domain.ProductAd
	notifications []domain.Notification
}

func newMemState() *memState {
	return &memState{
		users:    map[uuid.UUID]domain.User{},
		wallets:  map[uuid.UUID]domain.Wallet{},
		coins:    map[uuid.UUID]domain.Coin{},
		events:   map[uuid.UUID]domain.RewardEvent{},
		claims:   map[[2]uuid.UUID]domain.RewardClaim{},
		products: map[uuid.UUID]domain.Product{},
		orders:   map[uuid.UUID]domain.Order{},
		packages: map[uuid.UUID]domain.AdPackage{},
	}
}

func (m *memState) clone() *memState {
	c := newMemState()
	for k, v := range m.users {
		c.users[k] = v
	}
	for k, v := range m.wallets {
		c.wallets[k] = v
	}
	for k, v := range m.coins {
		c.coins[k] = v
	}
	c.coinOrder = append([]uuid.UUID(nil), m.coinOrder...)
	c.txns = append([]domain.Transaction(nil), m.txns...)
	c.history = append([]domain.CoinHistory(nil), m.history...)
	for k, v := range m.events {
		c.events[k] = v
	}
	for k, v := range m.claims {
		c.claims[k] = v
	}
	for k, v := range m.products {
		c.products[k] = v
	}
	for k, v := range m.orders {
		c.orders[k] = v
	}
	for k, v := range m.packages {
		c.packages[k] = v
	}
	c.ads = append([]domain.ProductAd(nil), m.ads...)
	c.notifications = append([]domain.Notification(nil), m.notifications...)
	return c
}

// memStore is a transactional in-memory database. Transactions are fully
// serialized: Begin blocks until the previous transaction ends, and Rollback
// restores the snapshot taken at Begin. Reads outside a transaction see
// uncommitted writes, which the services never depend on. Because of the
// serialization, concurrent tests built on memStore check outcomes only; they
// say nothing about row locks or guarded updates in the SQL layer.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   *memState

	failBegin error
}

func newMemStore() *memStore {
	return &memStore{st: newMemState()}
}

type memTx struct {
	pgx.Tx
	store *memStore
	snap  *memState
	done  bool
}

func (s *memStore) Begin(ctx context.Context) (pgx.Tx, error) {
	if s.failBegin != nil {
		return nil, s.failBegin
	}
	s.txMu.Lock()
	s.mu.Lock()
	snap := s.st.clone()
	s.mu.Unlock()
	return &memTx{store: s, snap: snap}, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.mu.Lock()
	t.store.st = t.snap
	t.store.mu.Unlock()
	t.store.txMu.Unlock()
	return nil
}

func (s *memStore) with(fn func(st *memState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.st)
}

// --- inspection helpers ---

func (s *memStore) balance(walletID uuid.UUID) int64 {
	var n int64
	s.with(func(st *memState) {
		for _, c := range st.coins {
			if c.WalletID == walletID && c.Status == domain.CoinStatusActive {
				n++
			}
		}
	})
	return n
}

func (s *memStore) supply() int64 {
	var n int64
	s.with(func(st *memState) {
		for _, c := range st.coins {
			if c.Status == domain.CoinStatusActive {
				n++
			}
		}
	})
	return n
}

func (s *memStore) chain() []domain.Transaction {
	var out []domain.Transaction
	s.with(func(st *memState) { out = append(out, st.txns...) })
	return out
}

func (s *memStore) historyFor(txID uuid.UUID) []domain.CoinHistory {
	var out []domain.CoinHistory
	s.with(func(st *memState) {
		for _, h := range st.history {
			if h.TransactionID == txID {
				out = append(out, h)
			}
		}
	})
	return out
}

func (s *memStore) event(id uuid.UUID) domain.RewardEvent {
	var e domain.RewardEvent
	s.with(func(st *memState) { e = st.events[id] })
	return e
}

func (s *memStore) product(id uuid.UUID) domain.Product {
	var p domain.Product
	s.with(func(st *memState) { p = st.products[id] })
	return p
}

func (s *memStore) orderCount() int {
	var n int
	s.with(func(st *memState) { n = len(st.orders) })
	return n
}

func (s *memStore) claimCount(eventID uuid.UUID) int {
	var n int
	s.with(func(st *memState) {
		for k := range st.claims {
			if k[0] == eventID {
				n++
			}
		}
	})
	return n
}

func (s *memStore) notificationsFor(userID uuid.UUID) []domain.Notification {
	var out []domain.Notification
	s.with(func(st *memState) {
		for _, n := range st.notifications {
			if n.UserID == userID {
				out = append(out, n)
			}
		}
	})
	return out
}

// --- seeding helpers ---

func (s *memStore) addUser(roles ...string) (domain.User, domain.Wallet) {
	u := domain.User{ID: uuid.New(), Email: uuid.NewString() + "@campus.test", Roles: roles, CreatedAt: time.Now()}
	w := domain.Wallet{ID: uuid.New(), OwnerID: u.ID, CurrencySymbol: domain.DefaultCurrencySymbol}
	s.with(func(st *memState) {
		st.users[u.ID] = u
		st.wallets[w.ID] = w
	})
	return u, w
}

func (s *memStore) addProduct(sellerID uuid.UUID, price string, stock int) domain.Product {
	p := domain.Product{
		ID:       uuid.New(),
		StoreID:  uuid.New(),
		SellerID: sellerID,
		Name:     "Item " + price,
		Stock:    stock,
	}
	p.Price = mustDecimal(price)
	s.with(func(st *memState) { st.products[p.ID] = p })
	return p
}

// --- repositories ---

type memUserRepo struct{ s *memStore }

func (r memUserRepo) Create(_ context.Context, _ pgx.Tx, u *domain.User) error {
	var err error
	r.s.with(func(st *memState) {
		for _, existing := range st.users {
			if existing.Email == u.Email {
				err = fmt.Errorf("insert user: %w", ports.ErrConflict)
				return
			}
		}
		st.users[u.ID] = *u
	})
	return err
}

func (r memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	var out *domain.User
	r.s.with(func(st *memState) {
		if u, ok := st.users[id]; ok {
			out = &u
		}
	})
	return out, nil
}

func (r memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var out *domain.User
	r.s.with(func(st *memState) {
		for _, u := range st.users {
			if u.Email == email {
				u := u
				out = &u
				return
			}
		}
	})
	return out, nil
}

func (r memUserRepo) ListWithWallets(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	r.s.with(func(st *memState) {
		owners := map[uuid.UUID]bool{}
		for _, w := range st.wallets {
			owners[w.OwnerID] = true
		}
		for _, u := range st.users {
			if owners[u.ID] {
				out = append(out, u)
			}
		}
	})
	return out, nil
}

type memWalletRepo struct{ s *memStore }

func (r memWalletRepo) Create(_ context.Context, _ pgx.Tx, w *domain.Wallet) error {
	var err error
	r.s.with(func(st *memState) {
		for _, existing := range st.wallets {
			if existing.OwnerID == w.OwnerID || existing.ID == w.ID {
				err = fmt.Errorf("insert wallet: %w", ports.ErrConflict)
				return
			}
		}
		st.wallets[w.ID] = *w
	})
	return err
}

func (r memWalletRepo) EnsureExists(_ context.Context, w *domain.Wallet) error {
	r.s.with(func(st *memState) {
		if _, ok := st.wallets[w.ID]; !ok {
			st.wallets[w.ID] = *w
		}
	})
	return nil
}

func (r memWalletRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Wallet, error) {
	var out *domain.Wallet
	r.s.with(func(st *memState) {
		if w, ok := st.wallets[id]; ok {
			out = &w
		}
	})
	return out, nil
}

func (r memWalletRepo) GetByOwnerID(_ context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	var out *domain.Wallet
	r.s.with(func(st *memState) {
		for _, w := range st.wallets {
			if w.OwnerID == ownerID {
				w := w
				out = &w
				return
			}
		}
	})
	return out, nil
}

type memCoinRepo struct{ s *memStore }

func (r memCoinRepo) MintBatch(_ context.Context, _ pgx.Tx, walletID uuid.UUID, batchID string, count int64, createdAt time.Time) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, count)
	r.s.with(func(st *memState) {
		for i := int64(0); i < count; i++ {
			c := domain.Coin{ID: uuid.New(), WalletID: walletID, MintBatchID: batchID, Status: domain.CoinStatusActive, CreatedAt: createdAt}
			st.coins[c.ID] = c
			st.coinOrder = append(st.coinOrder, c.ID)
			ids = append(ids, c.ID)
		}
	})
	return ids, nil
}

func (r memCoinRepo) LockActive(_ context.Context, _ pgx.Tx, walletID uuid.UUID, limit int64) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	r.s.with(func(st *memState) {
		for _, id := range st.coinOrder {
			if int64(len(ids)) == limit {
				return
			}
			if c := st.coins[id]; c.WalletID == walletID && c.Status == domain.CoinStatusActive {
				ids = append(ids, id)
			}
		}
	})
	return ids, nil
}

func (r memCoinRepo) Reassign(_ context.Context, _ pgx.Tx, coinIDs []uuid.UUID, to uuid.UUID) (int64, error) {
	var n int64
	r.s.with(func(st *memState) {
		for _, id := range coinIDs {
			if c, ok := st.coins[id]; ok {
				c.WalletID = to
				st.coins[id] = c
				n++
			}
		}
	})
	return n, nil
}

func (r memCoinRepo) CountActive(_ context.Context, _ pgx.Tx, walletID uuid.UUID) (int64, error) {
	return r.s.balance(walletID), nil
}

func (r memCoinRepo) ListByWallet(_ context.Context, walletID uuid.UUID, limit int) ([]domain.Coin, error) {
	var out []domain.Coin
	r.s.with(func(st *memState) {
		for _, id := range st.coinOrder {
			if len(out) == limit {
				return
			}
			if c := st.coins[id]; c.WalletID == walletID {
				out = append(out, c)
			}
		}
	})
	return out, nil
}

type memTxnRepo struct {
	s         *memStore
	lockCalls int
}

func (r *memTxnRepo) LockChain(_ context.Context, tx pgx.Tx) error {
	if tx == nil {
		return errors.New("chain lock outside transaction")
	}
	r.s.with(func(*memState) { r.lockCalls++ })
	return nil
}

func (r *memTxnRepo) LastHash(_ context.Context, _ pgx.Tx) (string, error) {
	var h string
	r.s.with(func(st *memState) {
		if n := len(st.txns); n > 0 {
			h = st.txns[n-1].Hash
		}
	})
	return h, nil
}

func (r *memTxnRepo) Create(_ context.Context, _ pgx.Tx, t *domain.Transaction) error {
	var err error
	r.s.with(func(st *memState) {
		for _, existing := range st.txns {
			if existing.PreviousHash == t.PreviousHash {
				err = fmt.Errorf("insert transaction: %w", ports.ErrConflict)
				return
			}
		}
		t.Seq = int64(len(st.txns) + 1)
		st.txns = append(st.txns, *t)
	})
	return err
}

func (r *memTxnRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var out *domain.Transaction
	r.s.with(func(st *memState) {
		for _, t := range st.txns {
			if t.ID == id {
				t := t
				out = &t
				return
			}
		}
	})
	return out, nil
}

func (r *memTxnRepo) ListByWallet(_ context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Transaction, error) {
	var all []domain.Transaction
	r.s.with(func(st *memState) {
		for i := len(st.txns) - 1; i >= 0; i-- {
			if st.txns[i].Touches(walletID) {
				all = append(all, st.txns[i])
			}
		}
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *memTxnRepo) ListChain(_ context.Context, afterSeq int64, limit int) ([]domain.Transaction, error) {
	var out []domain.Transaction
	r.s.with(func(st *memState) {
		for _, t := range st.txns {
			if t.Seq > afterSeq && len(out) < limit {
				out = append(out, t)
			}
		}
	})
	return out, nil
}

type memHistoryRepo struct{ s *memStore }

func (r memHistoryRepo) Record(_ context.Context, _ pgx.Tx, coinIDs []uuid.UUID, entry domain.CoinHistory) error {
	r.s.with(func(st *memState) {
		for _, id := range coinIDs {
			h := entry
			h.ID = uuid.New()
			h.CoinID = id
			st.history = append(st.history, h)
		}
	})
	return nil
}

func (r memHistoryRepo) ListByCoin(_ context.Context, coinID uuid.UUID) ([]domain.CoinHistory, error) {
	var out []domain.CoinHistory
	r.s.with(func(st *memState) {
		for _, h := range st.history {
			if h.CoinID == coinID {
				out = append(out, h)
			}
		}
	})
	return out, nil
}

func (r memHistoryRepo) CountByTransaction(_ context.Context, txID uuid.UUID) (int64, error) {
	return int64(len(r.s.historyFor(txID))), nil
}

type memEventRepo struct{ s *memStore }

func (r memEventRepo) LockBudget(_ context.Context, _ pgx.Tx) error { return nil }

func (r memEventRepo) CommittedBudget(_ context.Context, _ pgx.Tx) (int64, error) {
	var total int64
	r.s.with(func(st *memState) {
		for _, e := range st.events {
			if e.IsActive && !e.IsExpired(time.Now()) {
				total += e.RemainingBudget
			}
		}
	})
	return total, nil
}

func (r memEventRepo) Create(_ context.Context, _ pgx.Tx, e *domain.RewardEvent) error {
	r.s.with(func(st *memState) { st.events[e.ID] = *e })
	return nil
}

func (r memEventRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.RewardEvent, error) {
	var out *domain.RewardEvent
	r.s.with(func(st *memState) {
		if e, ok := st.events[id]; ok {
			out = &e
		}
	})
	return out, nil
}

func (r memEventRepo) List(_ context.Context) ([]domain.RewardEvent, error) {
	var out []domain.RewardEvent
	r.s.with(func(st *memState) {
		for _, e := range st.events {
			out = append(out, e)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memEventRepo) SetActive(_ context.Context, _ pgx.Tx, id uuid.UUID, active bool) (*domain.RewardEvent, error) {
	var out *domain.RewardEvent
	r.s.with(func(st *memState) {
		if e, ok := st.events[id]; ok {
			e.IsActive = active
			st.events[id] = e
			out = &e
		}
	})
	return out, nil
}

func (r memEventRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	r.s.with(func(st *memState) {
		if _, ok = st.events[id]; ok {
			delete(st.events, id)
			for k := range st.claims {
				if k[0] == id {
					delete(st.claims, k)
				}
			}
		}
	})
	return ok, nil
}

func (r memEventRepo) ConsumeBudget(_ context.Context, _ pgx.Tx, id uuid.UUID, amount int64) (*domain.BudgetConsumption, error) {
	var out *domain.BudgetConsumption
	r.s.with(func(st *memState) {
		e, ok := st.events[id]
		if !ok || !e.IsActive || e.RemainingBudget < amount {
			return
		}
		e.RemainingBudget -= amount
		if e.RemainingBudget < e.RewardAmount {
			e.IsActive = false
		}
		st.events[id] = e
		out = &domain.BudgetConsumption{RemainingBudget: e.RemainingBudget, IsActive: e.IsActive}
	})
	return out, nil
}

type memClaimRepo struct{ s *memStore }

func (r memClaimRepo) Exists(_ context.Context, eventID, userID uuid.UUID) (bool, error) {
	var ok bool
	r.s.with(func(st *memState) { _, ok = st.claims[[2]uuid.UUID{eventID, userID}] })
	return ok, nil
}

func (r memClaimRepo) Create(_ context.Context, _ pgx.Tx, c *domain.RewardClaim) error {
	var err error
	r.s.with(func(st *memState) {
		key := [2]uuid.UUID{c.EventID, c.UserID}
		if _, ok := st.claims[key]; ok {
			err = fmt.Errorf("insert claim: %w", ports.ErrConflict)
			return
		}
		st.claims[key] = *c
	})
	return err
}

type memProductRepo struct{ s *memStore }

func (r memProductRepo) GetForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Product, error) {
	var out *domain.Product
	r.s.with(func(st *memState) {
		if p, ok := st.products[id]; ok {
			out = &p
		}
	})
	return out, nil
}

func (r memProductRepo) DecrementStock(_ context.Context, _ pgx.Tx, id uuid.UUID) (bool, error) {
	var ok bool
	r.s.with(func(st *memState) {
		p, found := st.products[id]
		if found && p.Stock > 0 {
			p.Stock--
			st.products[id] = p
			ok = true
		}
	})
	return ok, nil
}

type memOrderRepo struct{ s *memStore }

func (r memOrderRepo) Create(_ context.Context, _ pgx.Tx, o *domain.Order) error {
	r.s.with(func(st *memState) { st.orders[o.ID] = *o })
	return nil
}

func (r memOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	var out *domain.Order
	r.s.with(func(st *memState) {
		if o, ok := st.orders[id]; ok {
			out = &o
		}
	})
	return out, nil
}

func (r memOrderRepo) MarkDelivered(_ context.Context, _ pgx.Tx, id uuid.UUID, at time.Time) (bool, error) {
	var ok bool
	r.s.with(func(st *memState) {
		o, found := st.orders[id]
		if found && o.Status == domain.OrderStatusPendingDelivery {
			o.Status = domain.OrderStatusDelivered
			o.DeliveredAt = &at
			st.orders[id] = o
			ok = true
		}
	})
	return ok, nil
}

func (r memOrderRepo) ListByUser(_ context.Context, userID uuid.UUID, asSeller bool, limit int) ([]domain.Order, error) {
	var out []domain.Order
	r.s.with(func(st *memState) {
		for _, o := range st.orders {
			if (asSeller && o.SellerID == userID) || (!asSeller && o.BuyerID == userID) {
				out = append(out, o)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memAdRepo struct{ s *memStore }

func (r memAdRepo) GetPackage(_ context.Context, id uuid.UUID) (*domain.AdPackage, error) {
	var out *domain.AdPackage
	r.s.with(func(st *memState) {
		if p, ok := st.packages[id]; ok {
			out = &p
		}
	})
	return out, nil
}

func (r memAdRepo) HasActivePromotion(_ context.Context, _ pgx.Tx, productID uuid.UUID, now time.Time) (bool, error) {
	var ok bool
	r.s.with(func(st *memState) {
		for _, a := range st.ads {
			if a.ProductID == productID && a.ExpiresAt.After(now) {
				ok = true
				return
			}
		}
	})
	return ok, nil
}

func (r memAdRepo) Create(_ context.Context, _ pgx.Tx, ad *domain.ProductAd) error {
	r.s.with(func(st *memState) { st.ads = append(st.ads, *ad) })
	return nil
}

type memNotificationRepo struct{ s *memStore }

func (r memNotificationRepo) Create(_ context.Context, _ pgx.Tx, n *domain.Notification) error {
	r.s.with(func(st *memState) { st.notifications = append(st.notifications, *n) })
	return nil
}

// --- infra fakes ---

// memCache implements ports.Cache. Setting failing makes every call error.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	failing bool
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

var errCacheDown = errors.New("cache unavailable")

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return nil, errCacheDown
	}
	return c.data[key], nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errCacheDown
	}
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, key)
	if c.failing {
		return errCacheDown
	}
	delete(c.data, key)
	return nil
}

func (c *memCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, pattern)
	if c.failing {
		return errCacheDown
	}
	for k := range c.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

func (c *memCache) invalidated() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.deleted...)
}

// memGuard implements ports.ClaimGuard.
type memGuard struct {
	mu      sync.Mutex
	held    map[[2]uuid.UUID]bool
	failing bool
}

func newMemGuard() *memGuard {
	return &memGuard{held: map[[2]uuid.UUID]bool{}}
}

func (g *memGuard) Acquire(_ context.Context, eventID, userID uuid.UUID, _ time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failing {
		return false, errCacheDown
	}
	key := [2]uuid.UUID{eventID, userID}
	if g.held[key] {
		return false, nil
	}
	g.held[key] = true
	return true, nil
}

func (g *memGuard) Release(_ context.Context, eventID, userID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, [2]uuid.UUID{eventID, userID})
	return nil
}

// recordingNotifier implements ports.Notifier synchronously.
type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.LedgerEvent
}

func (n *recordingNotifier) Notify(_ context.Context, ev domain.LedgerEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) all() []domain.LedgerEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.LedgerEvent(nil), n.events...)
}

// plainEncryption implements ports.EncryptionService as the identity with a prefix.
type plainEncryption struct{}

func (plainEncryption) Encrypt(s string) (string, error) { return "enc:" + s, nil }

func (plainEncryption) Decrypt(s string) (string, error) {
	if len(s) < 4 || s[:4] != "enc:" {
		return "", errors.New("not encrypted")
	}
	return s[4:], nil
}

// --- wiring ---

type testEnv struct {
	store    *memStore
	cache    *memCache
	guard    *memGuard
	notifier *recordingNotifier
	txns     *memTxnRepo
	ledger   *LedgerServiceImpl
	rewards  *RewardServiceImpl
	purchase *PurchaseServiceImpl
	tickets  *JWTTicketService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	cache := newMemCache()
	guard := newMemGuard()
	notifier := &recordingNotifier{}
	txns := &memTxnRepo{s: store}
	log := newTestLogger()

	ledger := NewLedgerService(LedgerRepos{
		Wallets: memWalletRepo{store},
		Coins:   memCoinRepo{store},
		Txns:    txns,
		History: memHistoryRepo{store},
	}, store, NewSHA256ChainHasher(), cache, notifier, domain.DefaultCurrencySymbol, time.Minute, log)

	tickets := NewJWTTicketService(10 * time.Second)
	rewards := NewRewardService(
		memEventRepo{store}, memClaimRepo{store}, memWalletRepo{store}, memCoinRepo{store},
		ledger, store, plainEncryption{}, tickets, guard, cache,
		RewardOptions{ClaimGuardTTL: 30 * time.Second, ListCacheTTL: time.Minute}, log,
	)
	purchase := NewPurchaseService(PurchaseRepos{
		Wallets:       memWalletRepo{store},
		Products:      memProductRepo{store},
		Orders:        memOrderRepo{store},
		Ads:           memAdRepo{store},
		Notifications: memNotificationRepo{store},
	}, ledger, store, cache, notifier, PurchaseOptions{OrderListTTL: time.Minute}, log)

	env := &testEnv{
		store:    store,
		cache:    cache,
		guard:    guard,
		notifier: notifier,
		txns:     txns,
		ledger:   ledger,
		rewards:  rewards,
		purchase: purchase,
		tickets:  tickets,
	}
	if err := ledger.EnsureTreasury(context.Background()); err != nil {
		panic(err)
	}
	return env
}
