package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is an account that places orders, optionally priced through a
// working group tier.
type Customer struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string          `gorm:"column:name;not null"`
	Email          string          `gorm:"column:email;not null;uniqueIndex"`
	Phone          *string         `gorm:"column:phone"`
	WorkingGroupID *uuid.UUID      `gorm:"column:working_group_id;type:uuid"`
	CreditLimit    decimal.Decimal `gorm:"column:credit_limit;type:numeric(12,2);not null;default:0"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
