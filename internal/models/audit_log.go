package models

import "time"

const (
	AuditEntityTransaction = "transaction"
	AuditEntityStore       = "store"
	AuditEntityConsumer    = "consumer"
)

const (
	AuditCreated      = "created"
	AuditStatusChange = "status_change"
	AuditRefund       = "refund_recorded"
	AuditProfileEdit  = "profile_updated"
)

// AuditLog is an append-only bookkeeping entry; Actor is the wallet that
// triggered the change when known.
type AuditLog struct {
	ID         string         `json:"id"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Action     string         `json:"action"`
	Actor      string         `json:"actor,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}
