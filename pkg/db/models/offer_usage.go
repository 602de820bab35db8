package models

import (
	"time"

	"github.com/google/uuid"
)

// OfferUsage tracks how many times a customer has redeemed an offer.
type OfferUsage struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OfferID    uuid.UUID `gorm:"column:offer_id;type:uuid;not null;uniqueIndex:idx_offer_customer"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;uniqueIndex:idx_offer_customer"`
	TimesUsed  int64     `gorm:"column:times_used;not null;default:0"`
	LastUsedAt time.Time `gorm:"column:last_used_at;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
