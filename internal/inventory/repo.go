package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/centrelabs/backoffice/pkg/db/models"
)

// Repository is the inventory persistence surface. Counter mutations live on
// the Ledger, not here; the repository only reads rows and manages metadata.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByVariantIDs(ctx context.Context, variantIDs []uuid.UUID) ([]models.InventoryItem, error)
	ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.InventoryItem, error)
	FindRow(ctx context.Context, variantID, warehouseID uuid.UUID) (*models.InventoryItem, error)
	Upsert(ctx context.Context, item *models.InventoryItem) error
	ListLowStock(ctx context.Context) ([]models.InventoryItem, error)
	MarkAlerted(ctx context.Context, id uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListByVariantIDs(ctx context.Context, variantIDs []uuid.UUID) ([]models.InventoryItem, error) {
	if len(variantIDs) == 0 {
		return nil, nil
	}
	var rows []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("variant_id IN ?", variantIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.InventoryItem, error) {
	var rows []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindRow(ctx context.Context, variantID, warehouseID uuid.UUID) (*models.InventoryItem, error) {
	var row models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("variant_id = ? AND warehouse_id = ?", variantID, warehouseID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert creates the (variant, warehouse) row or refreshes its settings and
// absolute quantity. Reservation counters are never touched here.
func (r *repository) Upsert(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "variant_id"}, {Name: "warehouse_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"quantity", "sell_when_out_of_stock", "low_stock_alert", "updated_at",
		}),
	}).Create(item).Error
}

// ListLowStock returns rows whose sellable quantity sits at or below their
// configured alert threshold.
func (r *repository) ListLowStock(ctx context.Context) ([]models.InventoryItem, error) {
	var rows []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("low_stock_alert IS NOT NULL AND quantity - reserved_qty <= low_stock_alert").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkAlerted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("id = ?", id).
		Update("last_alerted_at", at).Error
}
