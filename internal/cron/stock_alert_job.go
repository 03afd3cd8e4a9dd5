package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/centrelabs/backoffice/internal/inventory"
	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
	"github.com/centrelabs/backoffice/pkg/logger"
	"github.com/centrelabs/backoffice/pkg/outbox"
	"github.com/centrelabs/backoffice/pkg/outbox/payloads"
)

// StockAlertJobParams configures the low-stock alert sweep.
type StockAlertJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Inventory inventory.Repository
	Catalog   variantReader
	Outbox    outboxEmitter
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type variantReader interface {
	FindVariantsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Variant, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// NewStockAlertJob constructs the daily low-stock alert job.
func NewStockAlertJob(params StockAlertJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &stockAlertJob{
		logg:      params.Logger,
		db:        params.DB,
		inventory: params.Inventory,
		catalog:   params.Catalog,
		outbox:    params.Outbox,
		now:       time.Now,
	}, nil
}

type stockAlertJob struct {
	logg      *logger.Logger
	db        txRunner
	inventory inventory.Repository
	catalog   variantReader
	outbox    outboxEmitter
	now       func() time.Time
}

func (j *stockAlertJob) Name() string { return "stock-alerts" }

func (j *stockAlertJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	rows, err := j.inventory.ListLowStock(ctx)
	if err != nil {
		return fmt.Errorf("query low stock rows: %w", err)
	}

	due := make([]models.InventoryItem, 0, len(rows))
	for _, row := range rows {
		if row.LowStockAlert == nil {
			continue
		}
		if row.LastAlertedAt != nil && sameDay(row.LastAlertedAt.UTC(), now) {
			continue
		}
		due = append(due, row)
	}
	if len(due) == 0 {
		j.logg.Info(ctx, "no low-stock rows due for alerting")
		return nil
	}

	skus, err := j.variantSKUs(ctx, due)
	if err != nil {
		return err
	}

	count := 0
	for _, row := range due {
		if err := j.alert(ctx, row, skus[row.VariantID], now); err != nil {
			return fmt.Errorf("alert variant %s: %w", row.VariantID, err)
		}
		count++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "low-stock alert sweep complete")
	return nil
}

// alert queues the notification event and stamps the row in one transaction
// so a crash between the two cannot produce duplicate alerts.
func (j *stockAlertJob) alert(ctx context.Context, row models.InventoryItem, sku string, now time.Time) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		event := outbox.DomainEvent{
			EventType:     enums.EventStockLow,
			AggregateType: enums.AggregateInventory,
			AggregateID:   row.ID,
			Data: payloads.StockLowEvent{
				VariantID:   row.VariantID,
				SKU:         sku,
				WarehouseID: row.WarehouseID,
				Available:   row.Available(),
				Threshold:   *row.LowStockAlert,
			},
			OccurredAt: now,
		}
		if err := j.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		return j.inventory.WithTx(tx).MarkAlerted(ctx, row.ID, now)
	})
}

func (j *stockAlertJob) variantSKUs(ctx context.Context, rows []models.InventoryItem) (map[uuid.UUID]string, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	seen := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		if seen[row.VariantID] {
			continue
		}
		seen[row.VariantID] = true
		ids = append(ids, row.VariantID)
	}
	variants, err := j.catalog.FindVariantsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load variants: %w", err)
	}
	skus := make(map[uuid.UUID]string, len(variants))
	for _, variant := range variants {
		skus[variant.ID] = variant.SKU
	}
	return skus, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
