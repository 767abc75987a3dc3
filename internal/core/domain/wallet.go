package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCurrencySymbol is the ticker shown next to balances.
const DefaultCurrencySymbol = "PL"

var (
	// TreasuryWalletID is the fixed identity of the system treasury wallet.
	TreasuryWalletID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	// TreasuryOwnerID owns the treasury wallet. It is not a user account.
	TreasuryOwnerID = uuid.MustParse("11111111-1111-1111-1111-000000000000")
)

// Wallet maps one owner to one coin-holding account. Its balance is never
// stored; it is the count of ACTIVE coins carrying this wallet's id.
type Wallet struct {
	ID             uuid.UUID `json:"id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	CurrencySymbol string    `json:"currency_symbol"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsTreasury reports whether w is the system treasury.
func (w *Wallet) IsTreasury() bool {
	return w.ID == TreasuryWalletID
}

// NewTreasuryWallet builds the singleton treasury record.
func NewTreasuryWallet(symbol string, now time.Time) *Wallet {
	return &Wallet{
		ID:             TreasuryWalletID,
		OwnerID:        TreasuryOwnerID,
		CurrencySymbol: symbol,
		CreatedAt:      now,
	}
}
