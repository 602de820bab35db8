package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkingGroup is a customer segmentation tier (wholesale, retail, agency)
// that gates price overrides and offer eligibility.
type WorkingGroup struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
