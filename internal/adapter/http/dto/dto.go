package dto

import (
	"time"

	"campus-ledger/internal/core/domain"
)

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=128" sanitize:"-"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required" sanitize:"-"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// ClaimRewardRequest redeems a scanned claim ticket.
type ClaimRewardRequest struct {
	EventID string `json:"event_id" binding:"required,uuid"`
	Token   string `json:"token" binding:"required,max=2048" sanitize:"-"`
}

// PurchaseRequest buys one unit of a product.
type PurchaseRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
}

// ConfirmDeliveryRequest carries the buyer's 4-digit code.
type ConfirmDeliveryRequest struct {
	Code string `json:"code" binding:"required,delivery_code"`
}

// AdPurchaseRequest promotes a product with an ad package.
type AdPurchaseRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	PackageID string `json:"package_id" binding:"required,uuid"`
}

// CreateRewardEventRequest is the admin body for a new reward event.
type CreateRewardEventRequest struct {
	Name          string     `json:"name" binding:"required,min=1,max=120"`
	Description   string     `json:"description" binding:"max=1000"`
	RewardAmount  int64      `json:"reward_amount" binding:"required,gt=0"`
	TotalBudget   int64      `json:"total_budget" binding:"required,gtefield=RewardAmount"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	QRRefreshRate int        `json:"qr_refresh_rate" binding:"omitempty,min=5,max=3600"`
}

// ToggleEventRequest flips an event's active flag.
type ToggleEventRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// MintSemesterRequest mints the semester supply.
type MintSemesterRequest struct {
	Semester string `json:"semester" binding:"required,max=32,safe_id"`
}

// ManualMintRequest mints into the treasury after a password re-check.
type ManualMintRequest struct {
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Password string `json:"password" binding:"required" sanitize:"-"`
	Reason   string `json:"reason" binding:"max=200"`
}

// GrantRequest pays a user from the treasury.
type GrantRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Reason string `json:"reason" binding:"max=200"`
}

// TransactionResponse is the wire form of a ledger entry.
type TransactionResponse struct {
	ID           string  `json:"id"`
	Seq          int64   `json:"seq"`
	FromWalletID *string `json:"from_wallet_id"`
	ToWalletID   *string `json:"to_wallet_id"`
	Amount       int64   `json:"amount"`
	Type         string  `json:"type"`
	ReferenceID  string  `json:"reference_id,omitempty"`
	Hash         string  `json:"hash"`
	CreatedAt    string  `json:"created_at"`
}

// ToTransactionResponse converts a domain transaction.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:          t.ID.String(),
		Seq:         t.Seq,
		Amount:      t.Amount,
		Type:        string(t.Type),
		ReferenceID: t.ReferenceID,
		Hash:        t.Hash,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.FromWalletID != nil {
		s := t.FromWalletID.String()
		resp.FromWalletID = &s
	}
	if t.ToWalletID != nil {
		s := t.ToWalletID.String()
		resp.ToWalletID = &s
	}
	return resp
}

// ToTransactionList converts a page of transactions.
func ToTransactionList(txns []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, ToTransactionResponse(&txns[i]))
	}
	return out
}

// PurchaseResponse is shown to the buyer once; it is the only place the
// delivery code leaves the server.
type PurchaseResponse struct {
	Order        *domain.Order       `json:"order"`
	DeliveryCode string              `json:"delivery_code"`
	Transaction  TransactionResponse `json:"transaction"`
}
