package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderReservation records one reservation leg taken against an inventory
// row during checkout. CommittedAt and ReleasedAt are exclusive markers: a
// leg is settled exactly once, so replayed status transitions cannot commit
// or release the same stock twice.
type OrderReservation struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID   uuid.UUID  `gorm:"column:variant_id;type:uuid;not null"`
	WarehouseID uuid.UUID  `gorm:"column:warehouse_id;type:uuid;not null"`
	Qty         int        `gorm:"column:qty;not null"`
	Backordered bool       `gorm:"column:backordered;not null;default:false"`
	CommittedAt *time.Time `gorm:"column:committed_at"`
	ReleasedAt  *time.Time `gorm:"column:released_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// Settled reports whether the leg has already been committed or released.
func (r OrderReservation) Settled() bool {
	return r.CommittedAt != nil || r.ReleasedAt != nil
}
