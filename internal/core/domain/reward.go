package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultQRRefreshRate is the claim ticket lifetime in seconds when an event
// does not set one.
const DefaultQRRefreshRate = 60

// RewardEvent is a time-boxed, budget-capped coin distribution campaign.
type RewardEvent struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	RewardAmount    int64      `json:"reward_amount"`
	TotalBudget     int64      `json:"total_budget"`
	RemainingBudget int64      `json:"remaining_budget"`
	SecretKeyEnc    string     `json:"-"` // AES-256-GCM, signs claim tickets
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	IsActive        bool       `json:"is_active"`
	QRRefreshRate   int        `json:"qr_refresh_rate"` // seconds
	CreatedAt       time.Time  `json:"created_at"`
}

// IsExpired reports whether the event's window has closed at now.
func (e *RewardEvent) IsExpired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

// IsOpen reports whether tickets may be issued and claims accepted.
func (e *RewardEvent) IsOpen(now time.Time) bool {
	return e.IsActive && !e.IsExpired(now)
}

// CanPayOut reports whether one more full reward fits the remaining budget.
func (e *RewardEvent) CanPayOut() bool {
	return e.RemainingBudget >= e.RewardAmount
}

// TicketTTL is how long a freshly issued claim ticket stays valid.
func (e *RewardEvent) TicketTTL() time.Duration {
	rate := e.QRRefreshRate
	if rate <= 0 {
		rate = DefaultQRRefreshRate
	}
	return time.Duration(rate) * time.Second
}

// TransferReference is the reference_id stamped on a payout transaction.
func (e *RewardEvent) TransferReference() string {
	return "EVENT_REWARD: " + e.Name
}

// RewardClaim records that a user was paid by an event. Unique on (event, user).
type RewardClaim struct {
	ID            uuid.UUID `json:"id"`
	EventID       uuid.UUID `json:"event_id"`
	UserID        uuid.UUID `json:"user_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	ClaimedAt     time.Time `json:"claimed_at"`
}

// BudgetConsumption is the post-image of a guarded budget decrement.
type BudgetConsumption struct {
	RemainingBudget int64
	IsActive        bool
}

// VaultSummary splits treasury coins into those backing active events and the rest.
type VaultSummary struct {
	Physical  int64 `json:"physical"`
	Committed int64 `json:"committed"`
	Available int64 `json:"available"`
}

// NewVaultSummary derives the available figure.
func NewVaultSummary(physical, committed int64) VaultSummary {
	return VaultSummary{Physical: physical, Committed: committed, Available: physical - committed}
}
