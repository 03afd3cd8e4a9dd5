package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/centrelabs/backoffice/internal/audit"
	"github.com/centrelabs/backoffice/internal/customers"
	"github.com/centrelabs/backoffice/internal/inventory"
	"github.com/centrelabs/backoffice/internal/products"
	"github.com/centrelabs/backoffice/internal/promotions"
	"github.com/centrelabs/backoffice/internal/rates"
	"github.com/centrelabs/backoffice/internal/warehouses"
	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
	"github.com/centrelabs/backoffice/pkg/logger"
	"github.com/centrelabs/backoffice/pkg/outbox"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

var orderTestDDL = []string{`
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  type TEXT NOT NULL DEFAULT 'B2C',
  total_spent NUMERIC NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  line1 TEXT NOT NULL DEFAULT '',
  line2 TEXT,
  city TEXT NOT NULL DEFAULT '',
  state_code TEXT,
  postal_code TEXT NOT NULL DEFAULT '',
  country_code TEXT NOT NULL DEFAULT 'US',
  lat REAL NOT NULL DEFAULT 0,
  lng REAL NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  regular_price NUMERIC NOT NULL,
  sale_price NUMERIC NOT NULL DEFAULT 0,
  weight_grams INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS segment_prices (
  id TEXT PRIMARY KEY,
  variant_id TEXT NOT NULL,
  customer_type TEXT NOT NULL,
  regular_price NUMERIC NOT NULL,
  sale_price NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (variant_id, customer_type)
);`, `
CREATE TABLE IF NOT EXISTS bulk_prices (
  id TEXT PRIMARY KEY,
  variant_id TEXT NOT NULL,
  min_qty INTEGER NOT NULL,
  max_qty INTEGER,
  price NUMERIC NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS warehouses (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  line1 TEXT,
  city TEXT,
  state_code TEXT,
  country_code TEXT NOT NULL DEFAULT 'US',
  lat REAL NOT NULL DEFAULT 0,
  lng REAL NOT NULL DEFAULT 0,
  priority INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS inventory_items (
  id TEXT PRIMARY KEY,
  variant_id TEXT NOT NULL,
  warehouse_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0,
  reserved_qty INTEGER NOT NULL DEFAULT 0,
  sell_when_out_of_stock INTEGER NOT NULL DEFAULT 0,
  low_stock_alert INTEGER,
  last_alerted_at DATETIME,
  updated_at DATETIME,
  UNIQUE (variant_id, warehouse_id)
);`, `
CREATE TABLE IF NOT EXISTS promotions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  code TEXT UNIQUE,
  type TEXT NOT NULL,
  discount_value NUMERIC NOT NULL DEFAULT 0,
  max_discount NUMERIC,
  min_order_amount NUMERIC,
  usage_limit INTEGER,
  usage_count INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  starts_at DATETIME,
  ends_at DATETIME,
  customer_types TEXT,
  is_for_individual_customer INTEGER NOT NULL DEFAULT 0,
  buy_quantity INTEGER NOT NULL DEFAULT 0,
  get_quantity INTEGER NOT NULL DEFAULT 0,
  get_discount NUMERIC,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS promotion_product_rules (
  id TEXT PRIMARY KEY,
  promotion_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'both'
);`, `
CREATE TABLE IF NOT EXISTS promotion_volume_tiers (
  id TEXT PRIMARY KEY,
  promotion_id TEXT NOT NULL,
  min_quantity INTEGER NOT NULL,
  type TEXT NOT NULL,
  discount_value NUMERIC NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS promotion_customers (
  id TEXT PRIMARY KEY,
  promotion_id TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  UNIQUE (promotion_id, customer_id)
);`, `
CREATE TABLE IF NOT EXISTS tax_rates (
  id TEXT PRIMARY KEY,
  country_code TEXT NOT NULL,
  state_code TEXT,
  rate_percent NUMERIC NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  UNIQUE (country_code, state_code)
);`, `
CREATE TABLE IF NOT EXISTS shipping_rates (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  country_code TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1
);`, `
CREATE TABLE IF NOT EXISTS shipping_rate_tiers (
  id TEXT PRIMARY KEY,
  shipping_rate_id TEXT NOT NULL,
  min_subtotal NUMERIC NOT NULL,
  max_subtotal NUMERIC,
  price NUMERIC NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  customer_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  subtotal NUMERIC NOT NULL,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  shipping_amount NUMERIC NOT NULL DEFAULT 0,
  tax_amount NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL,
  processor_fee NUMERIC NOT NULL DEFAULT 0,
  payment_type TEXT NOT NULL,
  coupon_code TEXT,
  promotion_id TEXT,
  billing_address_id TEXT,
  shipping_address_id TEXT,
  warehouse_id TEXT,
  sales_channel_id TEXT,
  partner_order_id TEXT,
  notes TEXT,
  shipped_at DATETIME,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (sales_channel_id, partner_order_id)
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  product_name TEXT NOT NULL,
  variant_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  total_price NUMERIC NOT NULL,
  bulk_unit_price NUMERIC,
  bulk_total_price NUMERIC
);`, `
CREATE TABLE IF NOT EXISTS order_reservations (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  warehouse_id TEXT NOT NULL,
  qty INTEGER NOT NULL,
  backordered INTEGER NOT NULL DEFAULT 0,
  committed_at DATETIME,
  released_at DATETIME,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_transactions (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  payment_type TEXT NOT NULL,
  reference TEXT,
  note TEXT,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS audit_logs (
  id TEXT PRIMARY KEY,
  actor_id TEXT,
  actor_email TEXT,
  action TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  entity_id TEXT NOT NULL,
  details TEXT,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  payload TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  attempts INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  published_at DATETIME,
  created_at DATETIME
);`}

type orderTestEnv struct {
	db      *gorm.DB
	service Service
}

func setupOrderTestEnv(t *testing.T) *orderTestEnv {
	return setupOrderTestEnvWrap(t, nil)
}

func setupOrderTestEnvWrap(t *testing.T, wrapRepo func(Repository) Repository) *orderTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range orderTestDDL {
		require.NoError(t, db.Exec(stmt).Error)
	}

	log := logger.New(logger.Options{ServiceName: "orders-test", Level: zerolog.Disabled})

	customerRepo := customers.NewRepository(db)
	customerSvc, err := customers.NewService(customerRepo)
	require.NoError(t, err)

	productRepo := products.NewRepository(db)
	productSvc, err := products.NewService(productRepo, log)
	require.NoError(t, err)

	promoSvc, err := promotions.NewService(promotions.NewRepository(db), log)
	require.NoError(t, err)

	inventoryRepo := inventory.NewRepository(db)
	ledger, err := inventory.NewLedger(log)
	require.NoError(t, err)

	selector, err := warehouses.NewSelector(warehouses.NewRepository(db), inventoryRepo, log)
	require.NoError(t, err)

	rateSvc, err := rates.NewService(db)
	require.NoError(t, err)

	auditSvc, err := audit.NewService(db, log)
	require.NoError(t, err)

	outboxSvc := outbox.NewService(outbox.NewRepository(db), log)

	orderRepo := NewRepository(db)
	if wrapRepo != nil {
		orderRepo = wrapRepo(orderRepo)
	}

	svc, err := NewService(ServiceParams{
		Repo:         orderRepo,
		Tx:           gormTxRunner{db: db},
		Outbox:       outboxSvc,
		Customers:    customerSvc,
		Spending:     customerRepo,
		Catalog:      productSvc,
		Coupons:      promoSvc,
		Selector:     selector,
		Ledger:       ledger,
		Rates:        rateSvc,
		Audit:        auditSvc,
		Log:          log,
		NumberPrefix: "CL",
	})
	require.NoError(t, err)

	return &orderTestEnv{db: db, service: svc}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

func (e *orderTestEnv) seedCustomer(t *testing.T, customerType enums.CustomerType) (*models.Customer, *models.Address) {
	t.Helper()
	customer := &models.Customer{
		ID:        uuid.New(),
		Email:     uuid.NewString() + "@example.com",
		FirstName: "Test",
		LastName:  "Customer",
		Type:      customerType,
		IsActive:  true,
	}
	require.NoError(t, e.db.Create(customer).Error)

	address := &models.Address{
		ID:          uuid.New(),
		CustomerID:  customer.ID,
		Line1:       "1 Main St",
		City:        "Los Angeles",
		StateCode:   "CA",
		PostalCode:  "90001",
		CountryCode: "US",
		Lat:         34.05,
		Lng:         -118.24,
	}
	require.NoError(t, e.db.Create(address).Error)
	return customer, address
}

func (e *orderTestEnv) seedVariant(t *testing.T, regular, sale string, bulk []models.BulkPrice) *models.Variant {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		Name:     "BPC-157",
		Slug:     "bpc-157-" + uuid.NewString()[:8],
		IsActive: true,
	}
	require.NoError(t, e.db.Create(product).Error)

	variant := &models.Variant{
		ID:           uuid.New(),
		ProductID:    product.ID,
		SKU:          "SKU-" + uuid.NewString()[:8],
		Name:         "5mg",
		RegularPrice: dec(regular),
		SalePrice:    dec(sale),
		IsActive:     true,
	}
	require.NoError(t, e.db.Create(variant).Error)
	for i := range bulk {
		bulk[i].ID = uuid.New()
		bulk[i].VariantID = variant.ID
		require.NoError(t, e.db.Create(&bulk[i]).Error)
	}
	return variant
}

func (e *orderTestEnv) seedWarehouseStock(t *testing.T, variantID uuid.UUID, qty int) *models.Warehouse {
	t.Helper()
	warehouse := &models.Warehouse{
		ID:          uuid.New(),
		Code:        "WH-" + uuid.NewString()[:8],
		Name:        "Main",
		CountryCode: "US",
		Lat:         34.0,
		Lng:         -118.2,
		IsActive:    true,
	}
	require.NoError(t, e.db.Create(warehouse).Error)
	require.NoError(t, e.db.Create(&models.InventoryItem{
		ID:          uuid.New(),
		VariantID:   variantID,
		WarehouseID: warehouse.ID,
		Quantity:    qty,
	}).Error)
	return warehouse
}

func (e *orderTestEnv) seedTaxRate(t *testing.T, state, rate string) {
	t.Helper()
	stateCopy := state
	require.NoError(t, e.db.Create(&models.TaxRate{
		ID:          uuid.New(),
		CountryCode: "US",
		StateCode:   &stateCopy,
		RatePercent: dec(rate),
		IsActive:    true,
	}).Error)
}

func (e *orderTestEnv) seedFixedCoupon(t *testing.T, code, amount string) {
	t.Helper()
	normalized := code
	require.NoError(t, e.db.Create(&models.Promotion{
		ID:            uuid.New(),
		Name:          "fixed " + code,
		Code:          &normalized,
		Type:          enums.PromotionTypeFixedAmount,
		DiscountValue: dec(amount),
		IsActive:      true,
	}).Error)
}

func (e *orderTestEnv) countOrdersFor(t *testing.T, customerID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&models.Order{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error)
	return count
}

func TestCreateOrderFullCheckout(t *testing.T) {
	env := setupOrderTestEnv(t)
	ctx := context.Background()

	customer, address := env.seedCustomer(t, enums.CustomerTypeB2B)
	// Wholesale pricing ignores the sale price.
	variant := env.seedVariant(t, "20.00", "18.00", nil)
	env.seedWarehouseStock(t, variant.ID, 100)
	env.seedTaxRate(t, "CA", "8.000")
	env.seedFixedCoupon(t, "SAVE10", "10.00")

	order, err := env.service.CreateOrder(ctx, CreateOrderInput{
		CustomerID:        customer.ID,
		BillingAddressID:  address.ID,
		ShippingAddressID: address.ID,
		Items:             []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 5}},
		PaymentType:       enums.PaymentTypeCard,
		ShippingAmount:    decPtr("5.00"),
		DiscountAmount:    decPtr("2.00"), // replaced by the coupon
		CouponCode:        strPtr("save10"),
	})
	require.NoError(t, err)

	assert.True(t, order.Subtotal.Equal(dec("100.00")), "subtotal %s", order.Subtotal)
	assert.True(t, order.DiscountAmount.Equal(dec("10.00")), "discount %s", order.DiscountAmount)
	assert.True(t, order.ShippingAmount.Equal(dec("5.00")))
	// 8% of (100 - 10 + 5) = 7.60
	assert.True(t, order.TaxAmount.Equal(dec("7.60")), "tax %s", order.TaxAmount)
	assert.True(t, order.TotalAmount.Equal(dec("102.60")), "total %s", order.TotalAmount)
	assert.Regexp(t, `^CL-\d{8}-\d{4}$`, order.OrderNumber)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	require.NotNil(t, order.PromotionID)

	// Stock reserved at the selected warehouse.
	var row models.InventoryItem
	require.NoError(t, env.db.Where("variant_id = ?", variant.ID).First(&row).Error)
	assert.Equal(t, 5, row.ReservedQty)
	assert.Equal(t, 100, row.Quantity)

	// Coupon usage consumed exactly once, inside the same transaction.
	var promo models.Promotion
	require.NoError(t, env.db.Where("code = ?", "SAVE10").First(&promo).Error)
	assert.Equal(t, 1, promo.UsageCount)

	// The created event is queued for the publisher.
	var events int64
	require.NoError(t, env.db.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", enums.EventOrderCreated, order.ID).
		Count(&events).Error)
	assert.EqualValues(t, 1, events)

	// So is the ERP re-sync for the ordered product.
	var syncs int64
	require.NoError(t, env.db.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", enums.EventErpProductSync, variant.ProductID).
		Count(&syncs).Error)
	assert.EqualValues(t, 1, syncs)
}

func TestCreateOrderErpSyncPerDistinctProduct(t *testing.T) {
	env := setupOrderTestEnv(t)
	ctx := context.Background()

	customer, address := env.seedCustomer(t, enums.CustomerTypeB2C)
	first := env.seedVariant(t, "10.00", "0", nil)
	sibling := &models.Variant{
		ID:           uuid.New(),
		ProductID:    first.ProductID,
		SKU:          "SKU-" + uuid.NewString()[:8],
		Name:         "10mg",
		RegularPrice: dec("18.00"),
		SalePrice:    dec("0"),
		IsActive:     true,
	}
	require.NoError(t, env.db.Create(sibling).Error)
	other := env.seedVariant(t, "25.00", "0", nil)

	warehouse := env.seedWarehouseStock(t, first.ID, 50)
	for _, variantID := range []uuid.UUID{sibling.ID, other.ID} {
		require.NoError(t, env.db.Create(&models.InventoryItem{
			ID:          uuid.New(),
			VariantID:   variantID,
			WarehouseID: warehouse.ID,
			Quantity:    50,
		}).Error)
	}

	order, err := env.service.CreateOrder(ctx, CreateOrderInput{
		CustomerID:        customer.ID,
		BillingAddressID:  address.ID,
		ShippingAddressID: address.ID,
		Items: []CreateOrderItemInput{
			{VariantID: first.ID, Quantity: 1},
			{VariantID: sibling.ID, Quantity: 2},
			{VariantID: other.ID, Quantity: 1},
		},
		PaymentType:    enums.PaymentTypeCard,
		ShippingAmount: decPtr("0"),
	})
	require.NoError(t, err)
	require.NotNil(t, order)

	// Two variants of one product collapse to a single sync event.
	var syncs int64
	require.NoError(t, env.db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventErpProductSync).
		Count(&syncs).Error)
	assert.EqualValues(t, 2, syncs)

	var perProduct int64
	require.NoError(t, env.db.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", enums.EventErpProductSync, first.ProductID).
		Count(&perProduct).Error)
	assert.EqualValues(t, 1, perProduct)
}

func TestCreateOrderBulkPricing(t *testing.T) {
	env := setupOrderTestEnv(t)
	ctx := context.Background()

	customer, address := env.seedCustomer(t, enums.CustomerTypeB2C)
	variant := env.seedVariant(t, "9.00", "0", []models.BulkPrice{
		{MinQty: 10, Price: dec("8.00")},
	})
	env.seedWarehouseStock(t, variant.ID, 50)

	order, err := env.service.CreateOrder(ctx, CreateOrderInput{
		CustomerID:        customer.ID,
		BillingAddressID:  address.ID,
		ShippingAddressID: address.ID,
		Items:             []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 15}},
		PaymentType:       enums.PaymentTypeCard,
		ShippingAmount:    decPtr("0"),
	})
	require.NoError(t, err)

	assert.True(t, order.Subtotal.Equal(dec("120.00")), "subtotal %s", order.Subtotal)
	require.Len(t, order.Items, 1)
	require.NotNil(t, order.Items[0].BulkUnitPrice)
	assert.True(t, order.Items[0].BulkUnitPrice.Equal(dec("8.00")))
	assert.True(t, order.Items[0].UnitPrice.Equal(dec("9.00")))
}

func TestCreateOrderDuplicatePartnerOrder(t *testing.T) {
	env := setupOrderTestEnv(t)
	ctx := context.Background()

	customer, address := env.seedCustomer(t, enums.CustomerTypeB2C)
	variant := env.seedVariant(t, "10.00", "0", nil)
	env.seedWarehouseStock(t, variant.ID, 50)

	channelID := uuid.New()
	input := CreateOrderInput{
		CustomerID:        customer.ID,
		BillingAddressID:  address.ID,
		ShippingAddressID: address.ID,
		Items:             []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 1}},
		PaymentType:       enums.PaymentTypeCard,
		ShippingAmount:    decPtr("0"),
		SalesChannelID:    &channelID,
		PartnerOrderID:    strPtr("EXT-1001"),
	}

	_, err := env.service.CreateOrder(ctx, input)
	require.NoError(t, err)

	_, err = env.service.CreateOrder(ctx, input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

// staleCountRepo replays the order-number race: the first day-sequence read
// misses a concurrently committed order, the re-read sees it.
type staleCountRepo struct {
	Repository
	counts []int64
	calls  *int
}

func (r *staleCountRepo) WithTx(tx *gorm.DB) Repository {
	return &staleCountRepo{Repository: r.Repository.WithTx(tx), counts: r.counts, calls: r.calls}
}

func (r *staleCountRepo) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	idx := *r.calls
	*r.calls++
	if idx < len(r.counts) {
		return r.counts[idx], nil
	}
	return r.Repository.CountCreatedSince(ctx, since)
}

func TestCreateOrderNumberRetriesOnCollision(t *testing.T) {
	env := setupOrderTestEnvWrap(t, func(repo Repository) Repository {
		return &staleCountRepo{Repository: repo, counts: []int64{0, 1}, calls: new(int)}
	})
	ctx := context.Background()

	customer, address := env.seedCustomer(t, enums.CustomerTypeB2C)
	variant := env.seedVariant(t, "10.00", "0", nil)
	env.seedWarehouseStock(t, variant.ID, 50)

	// The competing order already holds today's first sequence slot.
	taken := fmt.Sprintf("CL-%s-0001", time.Now().UTC().Format("20060102"))
	require.NoError(t, env.db.Create(&models.Order{
		ID:          uuid.New(),
		OrderNumber: taken,
		CustomerID:  customer.ID,
		Status:      enums.OrderStatusPending,
		PaymentType: enums.PaymentTypeCard,
	}).Error)

	order, err := env.service.CreateOrder(ctx, CreateOrderInput{
		CustomerID:        customer.ID,
		BillingAddressID:  address.ID,
		ShippingAddressID: address.ID,
		Items:             []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 1}},
		PaymentType:       enums.PaymentTypeCard,
		ShippingAmount:    decPtr("0"),
	})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CL-%s-0002", time.Now().UTC().Format("20060102")), order.OrderNumber)
	assert.EqualValues(t, 2, env.countOrdersFor(t, customer.ID))

	// The rolled-back first attempt left no stray items or reservations.
	var items int64
	require.NoError(t, env.db.Model(&models.OrderItem{}).
		Where("order_id = ?", order.ID).
		Count(&items).Error)
	assert.EqualValues(t, 1, items)
	var row models.InventoryItem
	require.NoError(t, env.db.Where("variant_id = ?", variant.ID).First(&row).Error)
	assert.Equal(t, 1, row.ReservedQty)
}

func TestCreateOrderInsufficientStockLeavesNothing(t *testing.T) {
	env := setupOrderTestEnv(t)
	ctx := context.Background()

	customer, address := env.seedCustomer(t, enums.CustomerTypeB2C)
	variant := env.seedVariant(t, "10.00", "0", nil)
	env.seedWarehouseStock(t, variant.ID, 3)

	_, err := env.service.CreateOrder(ctx, CreateOrderInput{
		CustomerID:        customer.ID,
		BillingAddressID:  address.ID,
		ShippingAddressID: address.ID,
		Items:             []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 10}},
		PaymentType:       enums.PaymentTypeCard,
		ShippingAmount:    decPtr("0"),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.As(err).Code())

	assert.Zero(t, env.countOrdersFor(t, customer.ID))
	var legs int64
	require.NoError(t, env.db.Model(&models.OrderReservation{}).
		Where("variant_id = ?", variant.ID).
		Count(&legs).Error)
	assert.Zero(t, legs)
	var row models.InventoryItem
	require.NoError(t, env.db.Where("variant_id = ?", variant.ID).First(&row).Error)
	assert.Equal(t, 0, row.ReservedQty)
}

func TestCreateOrderSkipReservationStillChecksStock(t *testing.T) {
	env := setupOrderTestEnv(t)
	ctx := context.Background()

	customer, address := env.seedCustomer(t, enums.CustomerTypeB2C)
	variant := env.seedVariant(t, "10.00", "0", nil)
	env.seedWarehouseStock(t, variant.ID, 2)

	_, err := env.service.CreateOrder(ctx, CreateOrderInput{
		CustomerID:        customer.ID,
		BillingAddressID:  address.ID,
		ShippingAddressID: address.ID,
		Items:             []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 10}},
		PaymentType:       enums.PaymentTypeCard,
		ShippingAmount:    decPtr("0"),
		SkipReservation:   true,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Zero(t, env.countOrdersFor(t, customer.ID))

	// A backorderable shortfall is still allowed through, untouched.
	var row models.InventoryItem
	require.NoError(t, env.db.Where("variant_id = ?", variant.ID).First(&row).Error)
	require.NoError(t, env.db.Model(&row).Update("sell_when_out_of_stock", true).Error)

	order, err := env.service.CreateOrder(ctx, CreateOrderInput{
		CustomerID:        customer.ID,
		BillingAddressID:  address.ID,
		ShippingAddressID: address.ID,
		Items:             []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 10}},
		PaymentType:       enums.PaymentTypeCard,
		ShippingAmount:    decPtr("0"),
		SkipReservation:   true,
	})
	require.NoError(t, err)
	require.NotNil(t, order)
	require.NoError(t, env.db.Where("variant_id = ?", variant.ID).First(&row).Error)
	assert.Zero(t, row.ReservedQty)
}

func TestCreateOrderInvalidCouponFatal(t *testing.T) {
	env := setupOrderTestEnv(t)
	ctx := context.Background()

	customer, address := env.seedCustomer(t, enums.CustomerTypeB2C)
	variant := env.seedVariant(t, "10.00", "0", nil)
	env.seedWarehouseStock(t, variant.ID, 50)

	_, err := env.service.CreateOrder(ctx, CreateOrderInput{
		CustomerID:        customer.ID,
		BillingAddressID:  address.ID,
		ShippingAddressID: address.ID,
		Items:             []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 1}},
		PaymentType:       enums.PaymentTypeCard,
		ShippingAmount:    decPtr("0"),
		CouponCode:        strPtr("NOSUCH"),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Zero(t, env.countOrdersFor(t, customer.ID))
}

func TestCreateOrderAddressOwnershipEnforced(t *testing.T) {
	env := setupOrderTestEnv(t)
	ctx := context.Background()

	customer, _ := env.seedCustomer(t, enums.CustomerTypeB2C)
	_, otherAddress := env.seedCustomer(t, enums.CustomerTypeB2C)
	variant := env.seedVariant(t, "10.00", "0", nil)
	env.seedWarehouseStock(t, variant.ID, 50)

	_, err := env.service.CreateOrder(ctx, CreateOrderInput{
		CustomerID:        customer.ID,
		BillingAddressID:  otherAddress.ID,
		ShippingAddressID: otherAddress.ID,
		Items:             []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 1}},
		PaymentType:       enums.PaymentTypeCard,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func (e *orderTestEnv) createSimpleOrder(t *testing.T, qty int) (*models.Order, *models.Variant) {
	t.Helper()
	customer, address := e.seedCustomer(t, enums.CustomerTypeB2C)
	variant := e.seedVariant(t, "10.00", "0", nil)
	e.seedWarehouseStock(t, variant.ID, 100)

	order, err := e.service.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:        customer.ID,
		BillingAddressID:  address.ID,
		ShippingAddressID: address.ID,
		Items:             []CreateOrderItemInput{{VariantID: variant.ID, Quantity: qty}},
		PaymentType:       enums.PaymentTypeCard,
		ShippingAmount:    decPtr("0"),
	})
	require.NoError(t, err)
	return order, variant
}

func TestUpdateStatusShippedCommitsInventory(t *testing.T) {
	env := setupOrderTestEnv(t)
	ctx := context.Background()

	order, variant := env.createSimpleOrder(t, 10)

	updated, err := env.service.UpdateStatus(ctx, UpdateStatusInput{
		OrderID: order.ID,
		To:      enums.OrderStatusShipped,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)
	assert.NotNil(t, updated.ShippedAt)

	var row models.InventoryItem
	require.NoError(t, env.db.Where("variant_id = ?", variant.ID).First(&row).Error)
	assert.Equal(t, 90, row.Quantity)
	assert.Equal(t, 0, row.ReservedQty)

	// shipment notification queued exactly once
	var shipped int64
	require.NoError(t, env.db.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", enums.EventOrderShipped, order.ID).
		Count(&shipped).Error)
	assert.EqualValues(t, 1, shipped)

	var auditRows int64
	require.NoError(t, env.db.Model(&models.AuditLog{}).
		Where("entity_id = ? AND action = ?", order.ID, "order.status_changed").
		Count(&auditRows).Error)
	assert.EqualValues(t, 1, auditRows)
}

func TestUpdateStatusCancelledReleasesInventory(t *testing.T) {
	env := setupOrderTestEnv(t)
	ctx := context.Background()

	order, variant := env.createSimpleOrder(t, 10)

	_, err := env.service.UpdateStatus(ctx, UpdateStatusInput{
		OrderID: order.ID,
		To:      enums.OrderStatusCancelled,
		Detail:  "customer request",
	})
	require.NoError(t, err)

	// Quantity untouched, reservation returned.
	var row models.InventoryItem
	require.NoError(t, env.db.Where("variant_id = ?", variant.ID).First(&row).Error)
	assert.Equal(t, 100, row.Quantity)
	assert.Equal(t, 0, row.ReservedQty)

	var cancelled int64
	require.NoError(t, env.db.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", enums.EventOrderCancelled, order.ID).
		Count(&cancelled).Error)
	assert.EqualValues(t, 1, cancelled)
}

func TestUpdateStatusDeliveredClosesOutAndRecordsSpend(t *testing.T) {
	env := setupOrderTestEnv(t)
	ctx := context.Background()

	order, variant := env.createSimpleOrder(t, 10)

	_, err := env.service.UpdateStatus(ctx, UpdateStatusInput{
		OrderID: order.ID,
		To:      enums.OrderStatusDelivered,
	})
	require.NoError(t, err)

	var row models.InventoryItem
	require.NoError(t, env.db.Where("variant_id = ?", variant.ID).First(&row).Error)
	assert.Equal(t, 90, row.Quantity)
	assert.Equal(t, 0, row.ReservedQty)

	var customer models.Customer
	require.NoError(t, env.db.Where("id = ?", order.CustomerID).First(&customer).Error)
	assert.True(t, customer.TotalSpent.Equal(order.TotalAmount),
		"spent %s, total %s", customer.TotalSpent, order.TotalAmount)
}

func TestUpdateStatusReplayDoesNotDoubleSettle(t *testing.T) {
	env := setupOrderTestEnv(t)
	ctx := context.Background()

	order, variant := env.createSimpleOrder(t, 10)

	_, err := env.service.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, To: enums.OrderStatusProcessing})
	require.NoError(t, err)
	_, err = env.service.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, To: enums.OrderStatusShipped})
	require.NoError(t, err)

	var row models.InventoryItem
	require.NoError(t, env.db.Where("variant_id = ?", variant.ID).First(&row).Error)
	assert.Equal(t, 90, row.Quantity, "stock committed once, not twice")
	assert.Equal(t, 0, row.ReservedQty)
}

func TestUpdateStatusSecondShipmentDoesNotRenotify(t *testing.T) {
	env := setupOrderTestEnv(t)
	ctx := context.Background()

	order, _ := env.createSimpleOrder(t, 5)

	_, err := env.service.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, To: enums.OrderStatusShipped})
	require.NoError(t, err)
	_, err = env.service.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, To: enums.OrderStatusOnHold})
	require.NoError(t, err)
	_, err = env.service.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, To: enums.OrderStatusShipped})
	require.NoError(t, err)

	var shipped int64
	require.NoError(t, env.db.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", enums.EventOrderShipped, order.ID).
		Count(&shipped).Error)
	assert.EqualValues(t, 1, shipped)
}

func TestAdjustPreservesProcessorFee(t *testing.T) {
	env := setupOrderTestEnv(t)
	ctx := context.Background()

	order, _ := env.createSimpleOrder(t, 5)
	require.NoError(t, env.db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("processor_fee", dec("1.50")).Error)

	adjusted, err := env.service.Adjust(ctx, AdjustInput{
		OrderID:        order.ID,
		ShippingAmount: decPtr("12.00"),
	})
	require.NoError(t, err)

	// subtotal 50 + shipping 12 + fee 1.50
	assert.True(t, adjusted.TotalAmount.Equal(dec("63.50")), "total %s", adjusted.TotalAmount)
}

func TestRecordTransaction(t *testing.T) {
	env := setupOrderTestEnv(t)
	ctx := context.Background()

	order, _ := env.createSimpleOrder(t, 2)

	txn, err := env.service.RecordTransaction(ctx, RecordTransactionInput{
		OrderID:     order.ID,
		Kind:        enums.TransactionKindCapture,
		Amount:      order.TotalAmount,
		PaymentType: enums.PaymentTypeCard,
		Reference:   strPtr("ch_123"),
	})
	require.NoError(t, err)
	assert.True(t, txn.Amount.Equal(order.TotalAmount))

	_, err = env.service.RecordTransaction(ctx, RecordTransactionInput{
		OrderID:     order.ID,
		Kind:        enums.TransactionKindRefund,
		Amount:      dec("-5.00"),
		PaymentType: enums.PaymentTypeCard,
	})
	require.Error(t, err)
}
