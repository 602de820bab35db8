package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk-backend/pkg/enums"
)

// Product is a catalog entry. Standard products sell per unit; roll products
// price by area through their ProductRoll definitions.
type Product struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU           string              `gorm:"column:sku;not null;uniqueIndex"`
	Name          string              `gorm:"column:name;not null"`
	Description   *string             `gorm:"column:description"`
	PricingMethod enums.PricingMethod `gorm:"column:pricing_method;type:pricing_method;not null;default:'standard'"`
	UnitPrice     decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null;default:0"`
	IsActive      bool                `gorm:"column:is_active;not null;default:true"`
	Rolls         []ProductRoll       `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	GroupPrices   []WorkingGroupPrice `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
