package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/centrelabs/backoffice/pkg/enums"
)

// Customer is a storefront account that places orders.
type Customer struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string             `gorm:"column:email;uniqueIndex;not null"`
	FirstName string             `gorm:"column:first_name;not null"`
	LastName  string             `gorm:"column:last_name;not null"`
	Type      enums.CustomerType `gorm:"column:type;type:text;not null;default:'B2C'"`
	// TotalSpent accumulates delivered order totals; the campaign job reads
	// it when picking upgrade candidates.
	TotalSpent decimal.Decimal `gorm:"column:total_spent;type:numeric(12,2);not null;default:0"`
	IsActive   bool            `gorm:"column:is_active;not null;default:true"`
	Addresses []Address          `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// Address is a billing or shipping address owned by a customer.
type Address struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	Line1       string    `gorm:"column:line1;not null"`
	Line2       *string   `gorm:"column:line2"`
	City        string    `gorm:"column:city;not null"`
	StateCode   string    `gorm:"column:state_code"`
	PostalCode  string    `gorm:"column:postal_code;not null"`
	CountryCode string    `gorm:"column:country_code;not null"`
	Lat         float64   `gorm:"column:lat;not null;default:0"`
	Lng         float64   `gorm:"column:lng;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
