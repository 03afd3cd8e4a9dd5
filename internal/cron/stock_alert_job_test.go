package cron

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/centrelabs/backoffice/internal/inventory"
	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
	"github.com/centrelabs/backoffice/pkg/logger"
	"github.com/centrelabs/backoffice/pkg/outbox"
	"github.com/centrelabs/backoffice/pkg/outbox/payloads"
)

func TestStockAlertJobEmitsOncePerRow(t *testing.T) {
	helper := createStockAlertJobTest(t)
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	helper.job.now = func() time.Time { return now }

	threshold := 10
	row := models.InventoryItem{
		ID:            uuid.New(),
		VariantID:     uuid.New(),
		WarehouseID:   uuid.New(),
		Quantity:      12,
		ReservedQty:   5,
		LowStockAlert: &threshold,
	}
	helper.inventory.lowStock = []models.InventoryItem{row}
	helper.catalog.variants = []models.Variant{{ID: row.VariantID, SKU: "SKU-001"}}

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(helper.outbox.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(helper.outbox.events))
	}
	event := helper.outbox.events[0]
	if event.EventType != enums.EventStockLow {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	if event.AggregateID != row.ID {
		t.Fatalf("aggregate id mismatch")
	}
	payload, ok := event.Data.(payloads.StockLowEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", event.Data)
	}
	if payload.SKU != "SKU-001" {
		t.Fatalf("sku mismatch: %s", payload.SKU)
	}
	if payload.Available != 7 {
		t.Fatalf("available mismatch: %d", payload.Available)
	}
	if payload.Threshold != threshold {
		t.Fatalf("threshold mismatch: %d", payload.Threshold)
	}
	if len(helper.inventory.marked) != 1 || helper.inventory.marked[0] != row.ID {
		t.Fatalf("expected row marked alerted, got %v", helper.inventory.marked)
	}
}

func TestStockAlertJobSkipsRowsAlertedToday(t *testing.T) {
	helper := createStockAlertJobTest(t)
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	helper.job.now = func() time.Time { return now }

	threshold := 5
	earlier := now.Add(-3 * time.Hour)
	row := models.InventoryItem{
		ID:            uuid.New(),
		VariantID:     uuid.New(),
		WarehouseID:   uuid.New(),
		Quantity:      2,
		LowStockAlert: &threshold,
		LastAlertedAt: &earlier,
	}
	helper.inventory.lowStock = []models.InventoryItem{row}

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(helper.outbox.events) != 0 {
		t.Fatalf("expected no events, got %d", len(helper.outbox.events))
	}
	if len(helper.inventory.marked) != 0 {
		t.Fatalf("expected no marks, got %d", len(helper.inventory.marked))
	}
}

func TestStockAlertJobReAlertsNextDay(t *testing.T) {
	helper := createStockAlertJobTest(t)
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	helper.job.now = func() time.Time { return now }

	threshold := 5
	yesterday := now.Add(-20 * time.Hour)
	row := models.InventoryItem{
		ID:            uuid.New(),
		VariantID:     uuid.New(),
		WarehouseID:   uuid.New(),
		Quantity:      2,
		LowStockAlert: &threshold,
		LastAlertedAt: &yesterday,
	}
	helper.inventory.lowStock = []models.InventoryItem{row}
	helper.catalog.variants = []models.Variant{{ID: row.VariantID, SKU: "SKU-002"}}

	if err := helper.job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(helper.outbox.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(helper.outbox.events))
	}
}

type stockAlertJobTestHelper struct {
	job       *stockAlertJob
	inventory *fakeInventoryRepo
	catalog   *fakeVariantReader
	outbox    *fakeOutboxService
}

func createStockAlertJobTest(t *testing.T) *stockAlertJobTestHelper {
	t.Helper()
	inventoryRepo := &fakeInventoryRepo{}
	catalog := &fakeVariantReader{}
	outboxSvc := &fakeOutboxService{}
	jobIface, err := NewStockAlertJob(StockAlertJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled}),
		DB:        fakeTxRunner{},
		Inventory: inventoryRepo,
		Catalog:   catalog,
		Outbox:    outboxSvc,
	})
	if err != nil {
		t.Fatalf("NewStockAlertJob: %v", err)
	}
	job, ok := jobIface.(*stockAlertJob)
	if !ok {
		t.Fatalf("expected stockAlertJob, got %T", jobIface)
	}
	return &stockAlertJobTestHelper{
		job:       job,
		inventory: inventoryRepo,
		catalog:   catalog,
		outbox:    outboxSvc,
	}
}

type fakeInventoryRepo struct {
	lowStock []models.InventoryItem
	marked   []uuid.UUID
}

func (f *fakeInventoryRepo) WithTx(tx *gorm.DB) inventory.Repository { return f }

func (f *fakeInventoryRepo) ListByVariantIDs(ctx context.Context, variantIDs []uuid.UUID) ([]models.InventoryItem, error) {
	return nil, nil
}

func (f *fakeInventoryRepo) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.InventoryItem, error) {
	return nil, nil
}

func (f *fakeInventoryRepo) FindRow(ctx context.Context, variantID, warehouseID uuid.UUID) (*models.InventoryItem, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeInventoryRepo) Upsert(ctx context.Context, item *models.InventoryItem) error {
	return nil
}

func (f *fakeInventoryRepo) ListLowStock(ctx context.Context) ([]models.InventoryItem, error) {
	return f.lowStock, nil
}

func (f *fakeInventoryRepo) MarkAlerted(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.marked = append(f.marked, id)
	return nil
}

type fakeVariantReader struct {
	variants []models.Variant
}

func (f *fakeVariantReader) FindVariantsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Variant, error) {
	return f.variants, nil
}

type fakeOutboxService struct {
	events []outbox.DomainEvent
}

func (f *fakeOutboxService) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	// mirror the real service's requirement that payloads marshal cleanly
	if _, err := json.Marshal(event.Data); err != nil {
		return err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
