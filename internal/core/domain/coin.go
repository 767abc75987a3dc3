package domain

import (
	"time"

	"github.com/google/uuid"
)

// CoinStatus is the existence state of a coin. Only ACTIVE is produced by the
// mint and transfer flows; SPENT and BURNED are reserved.
type CoinStatus string

const (
	CoinStatusActive CoinStatus = "ACTIVE"
	CoinStatusSpent  CoinStatus = "SPENT"
	CoinStatusBurned CoinStatus = "BURNED"
)

// Coin is one indivisible unit of currency. Ownership is wallet_id alone.
type Coin struct {
	ID          uuid.UUID  `json:"id"`
	WalletID    uuid.UUID  `json:"wallet_id"`
	MintBatchID string     `json:"mint_batch_id"`
	Status      CoinStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsSpendable reports whether the coin counts towards its wallet's balance.
func (c *Coin) IsSpendable() bool {
	return c.Status == CoinStatusActive
}

// CoinAction labels a coin history row.
type CoinAction string

const (
	CoinActionMint     CoinAction = "MINT"
	CoinActionTransfer CoinAction = "TRANSFER"
)

// CoinHistory is one audit row per coin per transaction that moved it.
type CoinHistory struct {
	ID            uuid.UUID  `json:"id"`
	CoinID        uuid.UUID  `json:"coin_id"`
	TransactionID uuid.UUID  `json:"transaction_id"`
	FromWalletID  *uuid.UUID `json:"from_wallet_id,omitempty"`
	ToWalletID    *uuid.UUID `json:"to_wallet_id,omitempty"`
	Action        CoinAction `json:"action"`
	Reason        string     `json:"reason"`
	CreatedAt     time.Time  `json:"created_at"`
}
