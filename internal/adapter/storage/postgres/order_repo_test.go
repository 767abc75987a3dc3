package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"campus-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderColumnsList() []string {
	return []string{"id", "buyer_id", "owner_id", "store_id", "product_id", "transaction_id",
		"price_paid", "status", "delivery_code", "product_snapshot", "created_at", "delivered_at"}
}

func newTestOrder() *domain.Order {
	return &domain.Order{
		ID:              uuid.New(),
		BuyerID:         uuid.New(),
		SellerID:        uuid.New(),
		StoreID:         uuid.New(),
		ProductID:       uuid.New(),
		TransactionID:   uuid.New(),
		PricePaid:       30,
		Status:          domain.OrderStatusPendingDelivery,
		DeliveryCode:    "4821",
		ProductSnapshot: json.RawMessage(`{"name":"Notebook","price":"30"}`),
		CreatedAt:       time.Now().UTC(),
	}
}

func orderRow(rows *pgxmock.Rows, o *domain.Order) *pgxmock.Rows {
	return rows.AddRow(o.ID, o.BuyerID, o.SellerID, o.StoreID, o.ProductID, o.TransactionID,
		o.PricePaid, o.Status, o.DeliveryCode, o.ProductSnapshot, o.CreatedAt, o.DeliveredAt)
}

func TestProductRepo_GetForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id, store, seller := uuid.New(), uuid.New(), uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM products p JOIN stores s .+ FOR UPDATE OF p").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "store_id", "owner_id", "name", "description", "price", "stock", "image_url"}).
			AddRow(id, store, seller, "Notebook", "", decimal.RequireFromString("29.50"), 3, ""))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	p, err := NewProductRepo(mock).GetForUpdate(context.Background(), tx, id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, seller, p.SellerID)
	assert.Equal(t, int64(30), domain.CoinPrice(p.Price))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_DecrementStock(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"in stock", 1, true},
		{"sold out", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			id := uuid.New()
			mock.ExpectBegin()
			mock.ExpectExec("UPDATE products SET stock = stock - 1 WHERE id = \\$1 AND stock > 0").
				WithArgs(id).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			tx, err := mock.Begin(context.Background())
			require.NoError(t, err)

			ok, err := NewProductRepo(mock).DecrementStock(context.Background(), tx, id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestOrderRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	o := newTestOrder()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(o.ID, o.BuyerID, o.StoreID, o.ProductID, o.TransactionID, o.PricePaid,
			o.Status, o.DeliveryCode, o.ProductSnapshot, o.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, NewOrderRepo(mock).Create(context.Background(), tx, o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	o := newTestOrder()
	mock.ExpectQuery("SELECT .+ FROM orders o JOIN stores s .+ WHERE o.id").
		WithArgs(o.ID).
		WillReturnRows(orderRow(pgxmock.NewRows(orderColumnsList()), o))

	got, err := NewOrderRepo(mock).GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, o.SellerID, got.SellerID)
	assert.Equal(t, "4821", got.DeliveryCode)
	assert.True(t, got.IsPending())
}

func TestOrderRepo_MarkDelivered(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	at := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET status = 'DELIVERED'").
		WithArgs(id, at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	ok, err := NewOrderRepo(mock).MarkDelivered(context.Background(), tx, id, at)
	require.NoError(t, err)
	assert.False(t, ok, "an order no longer pending is left untouched")
}

func TestOrderRepo_ListByUser(t *testing.T) {
	tests := []struct {
		name     string
		asSeller bool
		pattern  string
	}{
		{"as buyer", false, "WHERE o.buyer_id = \\$1"},
		{"as seller", true, "WHERE s.owner_id = \\$1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			o := newTestOrder()
			mock.ExpectQuery(tt.pattern).
				WithArgs(o.BuyerID, 50).
				WillReturnRows(orderRow(pgxmock.NewRows(orderColumnsList()), o))

			orders, err := NewOrderRepo(mock).ListByUser(context.Background(), o.BuyerID, tt.asSeller, 50)
			require.NoError(t, err)
			assert.Len(t, orders, 1)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdRepo_GetPackage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("SELECT .+ FROM ad_packages WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "price", "duration_hours"}).
			AddRow(id, "Spotlight", decimal.RequireFromString("49.99"), 24))

	p, err := NewAdRepo(mock).GetPackage(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 24, p.DurationHours)
	assert.Equal(t, int64(50), domain.CoinPrice(p.Price))
}

func TestAdRepo_HasActivePromotionAndCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	ad := &domain.ProductAd{
		ID:            uuid.New(),
		ProductID:     uuid.New(),
		PackageID:     uuid.New(),
		TransactionID: uuid.New(),
		StartsAt:      now,
		ExpiresAt:     now.Add(24 * time.Hour),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM product_ads").
		WithArgs(ad.ProductID, now).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO product_ads").
		WithArgs(ad.ID, ad.ProductID, ad.PackageID, ad.TransactionID, ad.StartsAt, ad.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	repo := NewAdRepo(mock)
	active, err := repo.HasActivePromotion(context.Background(), tx, ad.ProductID, now)
	require.NoError(t, err)
	assert.False(t, active)
	require.NoError(t, repo.Create(context.Background(), tx, ad))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	orderID := uuid.New()
	n := &domain.Notification{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		Type:            domain.NotificationOrderNew,
		Title:           "New order",
		Message:         "Notebook was purchased",
		RelatedEntityID: &orderID,
		CreatedAt:       time.Now().UTC(),
	}
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(n.ID, n.UserID, n.Type, n.Title, n.Message, n.RelatedEntityID, n.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, NewNotificationRepo(mock).Create(context.Background(), nil, n))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	actor := uuid.New()
	entry := &domain.AuditLog{
		ID:           uuid.New(),
		ActorID:      &actor,
		Action:       domain.AuditActionMint,
		ResourceType: "treasury",
		IPAddress:    "10.0.0.1",
		CreatedAt:    time.Now().UTC(),
	}
	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(entry.ID, entry.ActorID, string(entry.Action), entry.ResourceType,
			entry.ResourceID, entry.Details, entry.IPAddress, entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, NewAuditRepo(mock).Create(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}
