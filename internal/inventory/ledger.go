package inventory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/centrelabs/backoffice/pkg/db/models"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
	"github.com/centrelabs/backoffice/pkg/logger"
)

// ReservationRequest asks for qty units of a variant, from anywhere.
type ReservationRequest struct {
	VariantID uuid.UUID
	SKU       string
	Quantity  int
}

// Ledger owns every mutation of the inventory counters. All operations take
// the caller's transaction: a reservation that cannot be satisfied rolls the
// whole order back, and settlement runs atomically with the status write.
type Ledger struct {
	log *logger.Logger
}

func NewLedger(log *logger.Logger) (*Ledger, error) {
	if log == nil {
		return nil, errors.New("inventory: logger is required")
	}
	return &Ledger{log: log}, nil
}

// Reserve satisfies the requested quantities in two passes. Pass one consumes
// sellable stock (quantity - reserved_qty), preferring the selected warehouse
// and then warehouse priority. Pass two, only for what is still unsatisfied,
// books against sell_when_out_of_stock rows as backorder, which may push
// reserved_qty past quantity on those rows. Anything left after both passes
// fails the whole call with per-item shortfall detail.
func (l *Ledger) Reserve(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, preferredWarehouseID uuid.UUID, requests []ReservationRequest) ([]models.OrderReservation, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory reservation requires a transaction")
	}
	if len(requests) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to reserve")
	}

	variantIDs := make([]uuid.UUID, 0, len(requests))
	for _, req := range requests {
		if req.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive")
		}
		variantIDs = append(variantIDs, req.VariantID)
	}

	// The read is only a plan; the guarded UPDATEs below re-check
	// availability row by row, so a concurrent checkout that won the race
	// surfaces as zero rows affected rather than oversold stock.
	var rows []models.InventoryItem
	err := tx.WithContext(ctx).
		Where("variant_id IN ?", variantIDs).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load inventory rows")
	}

	byVariant := make(map[uuid.UUID][]models.InventoryItem)
	for _, row := range rows {
		byVariant[row.VariantID] = append(byVariant[row.VariantID], row)
	}

	var reservations []models.OrderReservation
	var shortfalls []pkgerrors.ItemShortfall

	for _, req := range requests {
		candidates := byVariant[req.VariantID]
		sortCandidates(candidates, preferredWarehouseID)

		remaining := req.Quantity
		totalAvailable := 0

		// Pass 1: sellable stock.
		for i := range candidates {
			if remaining == 0 {
				break
			}
			available := candidates[i].Available()
			if available <= 0 {
				// Over-reserved backorder rows report negative; they
				// hold no sellable stock, not debt against other rows.
				continue
			}
			totalAvailable += available
			take := available
			if take > remaining {
				take = remaining
			}
			if err := l.reserveAgainstRow(ctx, tx, &candidates[i], take, true); err != nil {
				return nil, err
			}
			reservations = append(reservations, models.OrderReservation{
				ID:          uuid.New(),
				OrderID:     orderID,
				VariantID:   req.VariantID,
				WarehouseID: candidates[i].WarehouseID,
				Qty:         take,
			})
			remaining -= take
		}

		// Pass 2: backorder capacity.
		for i := range candidates {
			if remaining == 0 {
				break
			}
			if !candidates[i].SellWhenOutOfStock {
				continue
			}
			if err := l.reserveAgainstRow(ctx, tx, &candidates[i], remaining, false); err != nil {
				return nil, err
			}
			reservations = append(reservations, models.OrderReservation{
				ID:          uuid.New(),
				OrderID:     orderID,
				VariantID:   req.VariantID,
				WarehouseID: candidates[i].WarehouseID,
				Qty:         remaining,
				Backordered: true,
			})
			remaining = 0
		}

		if remaining > 0 {
			shortfalls = append(shortfalls, pkgerrors.ItemShortfall{
				VariantID: req.VariantID.String(),
				SKU:       req.SKU,
				Requested: req.Quantity,
				Available: totalAvailable,
			})
		}
	}

	if len(shortfalls) > 0 {
		return nil, pkgerrors.InsufficientStock(shortfalls)
	}

	if err := tx.WithContext(ctx).Create(&reservations).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to persist reservations")
	}
	return reservations, nil
}

// sortCandidates orders a variant's rows: preferred warehouse first, then
// most available stock, then warehouse id for determinism.
func sortCandidates(rows []models.InventoryItem, preferred uuid.UUID) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		aPref := a.WarehouseID == preferred
		bPref := b.WarehouseID == preferred
		if aPref != bPref {
			return aPref
		}
		if a.Available() != b.Available() {
			return a.Available() > b.Available()
		}
		return a.WarehouseID.String() < b.WarehouseID.String()
	})
}

// reserveAgainstRow increments reserved_qty. guarded runs the availability
// check inside the UPDATE so a row changed since the lock cannot be driven
// below zero sellable stock; the unguarded form is backorder-only.
func (l *Ledger) reserveAgainstRow(ctx context.Context, tx *gorm.DB, row *models.InventoryItem, qty int, guarded bool) error {
	q := tx.WithContext(ctx).Model(&models.InventoryItem{}).Where("id = ?", row.ID)
	if guarded {
		q = q.Where("quantity - reserved_qty >= ?", qty)
	} else {
		q = q.Where("sell_when_out_of_stock = ?", true)
	}
	res := q.Update("reserved_qty", gorm.Expr("reserved_qty + ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "failed to reserve inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "inventory row changed during reservation")
	}
	row.ReservedQty += qty
	return nil
}

// Commit settles reservation legs for a fulfillment transition: stock leaves
// the building, so both reserved_qty and quantity go down. Already-settled
// legs are skipped, which makes replayed transitions harmless.
func (l *Ledger) Commit(ctx context.Context, tx *gorm.DB, legs []models.OrderReservation) error {
	now := time.Now().UTC()
	for i := range legs {
		leg := &legs[i]
		if leg.Settled() {
			continue
		}
		res := tx.WithContext(ctx).Model(&models.InventoryItem{}).
			Where("variant_id = ? AND warehouse_id = ? AND reserved_qty >= ? AND quantity >= ?",
				leg.VariantID, leg.WarehouseID, leg.Qty, leg.Qty).
			Updates(map[string]any{
				"reserved_qty": gorm.Expr("reserved_qty - ?", leg.Qty),
				"quantity":     gorm.Expr("quantity - ?", leg.Qty),
			})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "failed to commit reservation")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "inventory commit would drive stock negative")
		}
		if err := l.markLeg(ctx, tx, leg.ID, "committed_at", now); err != nil {
			return err
		}
		leg.CommittedAt = &now
	}
	return nil
}

// CommitDelivered is the delivered close-out: quantity drops by the leg
// amount and reserved_qty is zeroed for the whole row, not decremented.
func (l *Ledger) CommitDelivered(ctx context.Context, tx *gorm.DB, legs []models.OrderReservation) error {
	now := time.Now().UTC()
	for i := range legs {
		leg := &legs[i]
		if leg.Settled() {
			continue
		}
		res := tx.WithContext(ctx).Model(&models.InventoryItem{}).
			Where("variant_id = ? AND warehouse_id = ? AND quantity >= ?",
				leg.VariantID, leg.WarehouseID, leg.Qty).
			Updates(map[string]any{
				"quantity":     gorm.Expr("quantity - ?", leg.Qty),
				"reserved_qty": 0,
			})
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "failed to close out delivered reservation")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivered close-out would drive stock negative")
		}
		if err := l.markLeg(ctx, tx, leg.ID, "committed_at", now); err != nil {
			return err
		}
		leg.CommittedAt = &now
	}
	return nil
}

// Release returns reserved stock to the sellable pool on cancellation or
// refund. quantity is untouched.
func (l *Ledger) Release(ctx context.Context, tx *gorm.DB, legs []models.OrderReservation) error {
	now := time.Now().UTC()
	for i := range legs {
		leg := &legs[i]
		if leg.Settled() {
			continue
		}
		res := tx.WithContext(ctx).Model(&models.InventoryItem{}).
			Where("variant_id = ? AND warehouse_id = ? AND reserved_qty >= ?",
				leg.VariantID, leg.WarehouseID, leg.Qty).
			Update("reserved_qty", gorm.Expr("reserved_qty - ?", leg.Qty))
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "failed to release reservation")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "inventory release would drive reserved stock negative")
		}
		if err := l.markLeg(ctx, tx, leg.ID, "released_at", now); err != nil {
			return err
		}
		leg.ReleasedAt = &now
	}
	return nil
}

func (l *Ledger) markLeg(ctx context.Context, tx *gorm.DB, legID uuid.UUID, column string, at time.Time) error {
	err := tx.WithContext(ctx).Model(&models.OrderReservation{}).
		Where("id = ?", legID).
		Update(column, at).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mark reservation settled")
	}
	return nil
}
