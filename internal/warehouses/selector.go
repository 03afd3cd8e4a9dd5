package warehouses

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/centrelabs/backoffice/pkg/db/models"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
	"github.com/centrelabs/backoffice/pkg/logger"
)

// Demand is one requested line the selector scores warehouses against.
type Demand struct {
	VariantID uuid.UUID
	Quantity  int
}

// ItemStock reports per-item availability at the chosen warehouse.
type ItemStock struct {
	VariantID     uuid.UUID
	Requested     int
	Available     int
	Backorderable bool
	Shortfall     int
}

// Selection is the selector's verdict. StockAvailable false means the caller
// needs the cross-warehouse reservation path, not that the order failed.
type Selection struct {
	Warehouse      models.Warehouse
	DistanceKm     float64
	StockAvailable bool
	Details        []ItemStock
}

type inventoryReader interface {
	ListByVariantIDs(ctx context.Context, variantIDs []uuid.UUID) ([]models.InventoryItem, error)
}

// Selector picks the single warehouse best able to fulfill a set of lines.
type Selector struct {
	repo      Repository
	inventory inventoryReader
	log       *logger.Logger
}

func NewSelector(repo Repository, inventory inventoryReader, log *logger.Logger) (*Selector, error) {
	if repo == nil {
		return nil, errors.New("warehouses: repository is required")
	}
	if inventory == nil {
		return nil, errors.New("warehouses: inventory reader is required")
	}
	if log == nil {
		return nil, errors.New("warehouses: logger is required")
	}
	return &Selector{repo: repo, inventory: inventory, log: log}, nil
}

type candidate struct {
	warehouse        models.Warehouse
	distanceKm       float64
	canFulfillAll    bool
	fulfillableLines int
	details          []ItemStock
}

// Select scores every active warehouse and returns a single deterministic
// winner: full fulfillment beats partial, more fulfillable lines beat fewer,
// then shorter distance to the destination, then configured priority.
func (s *Selector) Select(ctx context.Context, destination *models.Address, items []Demand) (*Selection, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no items to fulfill")
	}

	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list warehouses")
	}
	if len(active) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active warehouse available")
	}

	variantIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		variantIDs = append(variantIDs, item.VariantID)
	}
	stockRows, err := s.inventory.ListByVariantIDs(ctx, variantIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load inventory")
	}

	// (warehouse, variant) -> row
	byLocation := make(map[uuid.UUID]map[uuid.UUID]models.InventoryItem)
	for _, row := range stockRows {
		if byLocation[row.WarehouseID] == nil {
			byLocation[row.WarehouseID] = make(map[uuid.UUID]models.InventoryItem)
		}
		byLocation[row.WarehouseID][row.VariantID] = row
	}

	candidates := make([]candidate, 0, len(active))
	for _, warehouse := range active {
		candidates = append(candidates, scoreWarehouse(warehouse, destination, items, byLocation[warehouse.ID]))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.canFulfillAll != b.canFulfillAll {
			return a.canFulfillAll
		}
		if a.fulfillableLines != b.fulfillableLines {
			return a.fulfillableLines > b.fulfillableLines
		}
		if a.distanceKm != b.distanceKm {
			return a.distanceKm < b.distanceKm
		}
		if a.warehouse.Priority != b.warehouse.Priority {
			return a.warehouse.Priority < b.warehouse.Priority
		}
		return a.warehouse.ID.String() < b.warehouse.ID.String()
	})

	best := candidates[0]
	ctx = s.log.WithFields(ctx, map[string]any{
		"warehouse_code":  best.warehouse.Code,
		"stock_available": best.canFulfillAll,
	})
	s.log.Info(ctx, "warehouse selected")

	return &Selection{
		Warehouse:      best.warehouse,
		DistanceKm:     best.distanceKm,
		StockAvailable: best.canFulfillAll,
		Details:        best.details,
	}, nil
}

func scoreWarehouse(warehouse models.Warehouse, destination *models.Address, items []Demand, stock map[uuid.UUID]models.InventoryItem) candidate {
	c := candidate{
		warehouse:     warehouse,
		distanceKm:    math.Inf(1),
		canFulfillAll: true,
	}
	// 0,0 is the un-geocoded default, not a real destination.
	if destination != nil && (destination.Lat != 0 || destination.Lng != 0) {
		c.distanceKm = haversineKm(warehouse.Lat, warehouse.Lng, destination.Lat, destination.Lng)
	}

	for _, item := range items {
		detail := ItemStock{VariantID: item.VariantID, Requested: item.Quantity}
		if row, ok := stock[item.VariantID]; ok {
			detail.Available = row.Available()
			detail.Backorderable = row.SellWhenOutOfStock
		}
		if shortfall := item.Quantity - detail.Available; shortfall > 0 {
			detail.Shortfall = shortfall
		}
		if detail.Shortfall == 0 || detail.Backorderable {
			c.fulfillableLines++
		} else {
			c.canFulfillAll = false
		}
		c.details = append(c.details, detail)
	}
	return c
}

const earthRadiusKm = 6371.0

// haversineKm is the great-circle distance between two coordinates.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
