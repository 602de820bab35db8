package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/enums"
)

// Offer is a promotional code. Empty eligibility lists mean no restriction.
type Offer struct {
	ID                      uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code                    string            `gorm:"column:code;not null;uniqueIndex"`
	Name                    string            `gorm:"column:name;not null"`
	Description             *string           `gorm:"column:description"`
	OfferType               enums.OfferType   `gorm:"column:offer_type;type:offer_type;not null"`
	Status                  enums.OfferStatus `gorm:"column:status;type:offer_status;not null;default:'draft'"`
	DiscountValue           decimal.Decimal   `gorm:"column:discount_value;type:numeric(12,2);not null;default:0"`
	MinPurchaseAmount       decimal.Decimal   `gorm:"column:min_purchase_amount;type:numeric(12,2);not null;default:0"`
	StartDate               time.Time         `gorm:"column:start_date;not null"`
	EndDate                 time.Time         `gorm:"column:end_date;not null"`
	UsageLimit              *int64            `gorm:"column:usage_limit"`
	PerCustomerLimit        *int64            `gorm:"column:per_customer_limit"`
	EligibleWorkingGroupIDs pq.StringArray    `gorm:"column:eligible_working_group_ids;type:text[]"`
	EligibleProductIDs      pq.StringArray    `gorm:"column:eligible_product_ids;type:text[]"`
	TimesUsed               int64             `gorm:"column:times_used;not null;default:0"`
	CreatedAt               time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
