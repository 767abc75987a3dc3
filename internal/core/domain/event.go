package domain

import (
	"time"

	"github.com/google/uuid"
)

// LedgerEventKind names an outbound notification.
type LedgerEventKind string

const (
	EventBalanceChanged LedgerEventKind = "ledger.balance.changed"
	EventOrderDelivered LedgerEventKind = "order.delivered"
)

// LedgerEvent tells downstream consumers (badge evaluation) that a user's
// ledger-derived state changed. Consumers re-read state; the event carries ids only.
type LedgerEvent struct {
	Kind          LedgerEventKind `json:"kind"`
	TransactionID *uuid.UUID      `json:"transaction_id,omitempty"`
	OrderID       *uuid.UUID      `json:"order_id,omitempty"`
	Type          TransactionType `json:"type,omitempty"`
	Amount        int64           `json:"amount,omitempty"`
	WalletIDs     []uuid.UUID     `json:"wallet_ids,omitempty"`
	UserIDs       []uuid.UUID     `json:"user_ids,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// BalanceChanged builds the event for a committed transaction.
func BalanceChanged(t *Transaction) LedgerEvent {
	ev := LedgerEvent{
		Kind:          EventBalanceChanged,
		TransactionID: &t.ID,
		Type:          t.Type,
		Amount:        t.Amount,
		OccurredAt:    t.CreatedAt,
	}
	for _, w := range []*uuid.UUID{t.FromWalletID, t.ToWalletID} {
		if w != nil && *w != TreasuryWalletID {
			ev.WalletIDs = append(ev.WalletIDs, *w)
		}
	}
	return ev
}
