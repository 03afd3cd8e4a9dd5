package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks on-hand and reserved counts per (variant, warehouse).
// Only the reservation ledger mutates the counters. `quantity - reserved_qty`
// is the sellable stock; backorder rows may hold reserved_qty beyond quantity.
type InventoryItem struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariantID          uuid.UUID  `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:ux_inventory_variant_warehouse"`
	WarehouseID        uuid.UUID  `gorm:"column:warehouse_id;type:uuid;not null;uniqueIndex:ux_inventory_variant_warehouse"`
	Quantity           int        `gorm:"column:quantity;not null;default:0"`
	ReservedQty        int        `gorm:"column:reserved_qty;not null;default:0"`
	SellWhenOutOfStock bool       `gorm:"column:sell_when_out_of_stock;not null;default:false"`
	LowStockAlert      *int       `gorm:"column:low_stock_alert"`
	LastAlertedAt      *time.Time `gorm:"column:last_alerted_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Available returns the sellable quantity for the row.
func (i InventoryItem) Available() int {
	return i.Quantity - i.ReservedQty
}
