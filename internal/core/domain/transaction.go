package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the kind of coin movement.
type TransactionType string

const (
	TransactionTypeMint         TransactionType = "MINT"
	TransactionTypeTransfer     TransactionType = "TRANSFER"
	TransactionTypePurchase     TransactionType = "PURCHASE"
	TransactionTypeAdPurchase   TransactionType = "AD_PURCHASE"
	TransactionTypeMintTreasury TransactionType = "MINT_TREASURY"
	TransactionTypeMintManual   TransactionType = "MINT_MANUAL"
	TransactionTypeRefund       TransactionType = "REFUND"
)

// IsMint reports whether the type creates supply.
func (t TransactionType) IsMint() bool {
	switch t {
	case TransactionTypeMint, TransactionTypeMintTreasury, TransactionTypeMintManual:
		return true
	}
	return false
}

// IsMove reports whether the type reassigns existing coins.
func (t TransactionType) IsMove() bool {
	switch t {
	case TransactionTypeTransfer, TransactionTypePurchase, TransactionTypeAdPurchase, TransactionTypeRefund:
		return true
	}
	return false
}

// GenesisHash is the previous_hash of the first transaction in the chain.
var GenesisHash = strings.Repeat("0", 64)

// Transaction is an immutable, hash-chained ledger entry.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	Seq          int64           `json:"seq"`
	FromWalletID *uuid.UUID      `json:"from_wallet_id"`
	ToWalletID   *uuid.UUID      `json:"to_wallet_id"`
	Amount       int64           `json:"amount"`
	Type         TransactionType `json:"type"`
	ReferenceID  string          `json:"reference_id,omitempty"`
	PreviousHash string          `json:"previous_hash"`
	Hash         string          `json:"hash"`
	CreatedAt    time.Time       `json:"created_at"`
}

type chainBody struct {
	ID          string  `json:"id"`
	From        *string `json:"from_wallet_id"`
	To          *string `json:"to_wallet_id"`
	Amount      int64   `json:"amount"`
	Type        string  `json:"type"`
	ReferenceID string  `json:"reference_id"`
	CreatedAt   string  `json:"created_at"`
}

// CanonicalBytes serializes every hashed field except previous_hash and hash.
// Timestamps are rendered in UTC at microsecond precision so the bytes survive
// a round trip through timestamptz.
func (t *Transaction) CanonicalBytes() []byte {
	body := chainBody{
		ID:          t.ID.String(),
		From:        uuidString(t.FromWalletID),
		To:          uuidString(t.ToWalletID),
		Amount:      t.Amount,
		Type:        string(t.Type),
		ReferenceID: t.ReferenceID,
		CreatedAt:   LedgerTime(t.CreatedAt).Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(body) // plain strings and ints, cannot fail
	return b
}

// LedgerTime normalizes a timestamp to the precision the ledger stores.
func LedgerTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Touches reports whether the transaction debits or credits walletID.
func (t *Transaction) Touches(walletID uuid.UUID) bool {
	return (t.FromWalletID != nil && *t.FromWalletID == walletID) ||
		(t.ToWalletID != nil && *t.ToWalletID == walletID)
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
