package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionRegister      AuditAction = "REGISTER"
	AuditActionLogin         AuditAction = "LOGIN"
	AuditActionMint          AuditAction = "MINT"
	AuditActionGrant         AuditAction = "GRANT"
	AuditActionPurchase      AuditAction = "PURCHASE"
	AuditActionConfirm       AuditAction = "CONFIRM_DELIVERY"
	AuditActionAdPurchase    AuditAction = "AD_PURCHASE"
	AuditActionRewardClaim   AuditAction = "REWARD_CLAIM"
	AuditActionRewardCreate  AuditAction = "REWARD_CREATE"
	AuditActionRewardToggle  AuditAction = "REWARD_TOGGLE"
	AuditActionRewardDelete  AuditAction = "REWARD_DELETE"
	AuditActionChainVerified AuditAction = "CHAIN_VERIFY"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	ActorID      *uuid.UUID  `json:"actor_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
