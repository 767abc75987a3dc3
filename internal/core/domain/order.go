package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a listing in a user's store.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	StoreID     uuid.UUID       `json:"store_id"`
	SellerID    uuid.UUID       `json:"seller_id"` // owner of the store
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url,omitempty"`
}

// CoinPrice is the number of whole coins charged for price.
func CoinPrice(price decimal.Decimal) int64 {
	return price.Ceil().IntPart()
}

// InStock reports whether at least one unit can be sold.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// Snapshot freezes the listing as the buyer saw it.
func (p *Product) Snapshot() json.RawMessage {
	b, _ := json.Marshal(struct {
		Name     string `json:"name"`
		Price    string `json:"price"`
		ImageURL string `json:"image_url,omitempty"`
	}{p.Name, p.Price.String(), p.ImageURL})
	return b
}

// OrderStatus is the delivery lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPendingDelivery OrderStatus = "PENDING_DELIVERY"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// Order is created by a purchase and closed by delivery confirmation.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	BuyerID         uuid.UUID       `json:"buyer_id"`
	SellerID        uuid.UUID       `json:"seller_id"`
	StoreID         uuid.UUID       `json:"store_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	TransactionID   uuid.UUID       `json:"transaction_id"`
	PricePaid       int64           `json:"price_paid"`
	Status          OrderStatus     `json:"status"`
	DeliveryCode    string          `json:"-"`
	ProductSnapshot json.RawMessage `json:"product_snapshot"`
	CreatedAt       time.Time       `json:"created_at"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
}

// IsPending reports whether the order still awaits delivery.
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPendingDelivery
}

// OrderView is an order as listed to one of its parties.
type OrderView struct {
	Order
	DeliveryCode string `json:"delivery_code,omitempty"`
}

// ViewFor projects the order for its buyer or seller. Only the buyer of a
// pending order gets the delivery code; they hand it over at delivery.
func (o *Order) ViewFor(asSeller bool) OrderView {
	v := OrderView{Order: *o}
	v.Order.DeliveryCode = ""
	if !asSeller && o.IsPending() {
		v.DeliveryCode = o.DeliveryCode
	}
	return v
}

// AdPackage is a purchasable promotion tier.
type AdPackage struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	DurationHours int             `json:"duration_hours"`
}

// ProductAd is an active or past promotion of a product.
type ProductAd struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"product_id"`
	PackageID     uuid.UUID `json:"package_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	StartsAt      time.Time `json:"starts_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationOrderNew       NotificationType = "ORDER_NEW"
	NotificationOrderDelivered NotificationType = "ORDER_DELIVERED"
)

// Notification is an in-app message for one user.
type Notification struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	Type            NotificationType `json:"type"`
	Title           string           `json:"title"`
	Message         string           `json:"message"`
	RelatedEntityID *uuid.UUID       `json:"related_entity_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}
