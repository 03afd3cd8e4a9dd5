package models

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse is a stock-holding fulfillment location.
type Warehouse struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string    `gorm:"column:code;uniqueIndex;not null"`
	Name        string    `gorm:"column:name;not null"`
	Line1       string    `gorm:"column:line1"`
	City        string    `gorm:"column:city"`
	StateCode   string    `gorm:"column:state_code"`
	CountryCode string    `gorm:"column:country_code;not null"`
	Lat         float64   `gorm:"column:lat;not null;default:0"`
	Lng         float64   `gorm:"column:lng;not null;default:0"`
	Priority    int       `gorm:"column:priority;not null;default:0"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
