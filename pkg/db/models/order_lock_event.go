package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/printdesk/printdesk-backend/pkg/enums"
)

// OrderLockEvent is an append-only ledger entry recording who locked or
// unlocked an order and why. Rows are never updated or deleted.
type OrderLockEvent struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	Action      enums.LockAction `gorm:"column:action;type:lock_action;not null"`
	ActorUserID uuid.UUID        `gorm:"column:actor_user_id;type:uuid;not null"`
	Reason      *string          `gorm:"column:reason"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
}
