package rates

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/centrelabs/backoffice/pkg/db/models"
)

func setupRatesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
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
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func strPtr(s string) *string { return &s }

func seedTaxRate(t *testing.T, db *gorm.DB, country string, state *string, rate string) {
	t.Helper()
	require.NoError(t, db.Create(&models.TaxRate{
		ID:          uuid.New(),
		CountryCode: country,
		StateCode:   state,
		RatePercent: dec(rate),
		IsActive:    true,
	}).Error)
}

func seedShippingRate(t *testing.T, db *gorm.DB, name, country string, tiers ...models.ShippingRateTier) {
	t.Helper()
	rate := models.ShippingRate{
		ID:          uuid.New(),
		Name:        name,
		CountryCode: country,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&rate).Error)
	for i := range tiers {
		tiers[i].ID = uuid.New()
		tiers[i].ShippingRateID = rate.ID
		require.NoError(t, db.Create(&tiers[i]).Error)
	}
}

func TestTaxRateStateOverridesCountry(t *testing.T) {
	db := setupRatesTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	seedTaxRate(t, db, "US", nil, "5.000")
	seedTaxRate(t, db, "US", strPtr("CA"), "8.000")

	rate, err := svc.TaxRateFor(ctx, "US", "CA")
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("8.000")), "got %s", rate)

	rate, err = svc.TaxRateFor(ctx, "US", "TX")
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("5.000")), "got %s", rate)
}

func TestTaxRateMissingMeansZero(t *testing.T) {
	db := setupRatesTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)

	rate, err := svc.TaxRateFor(context.Background(), "FR", "")
	require.NoError(t, err)
	assert.True(t, rate.IsZero())
}

func TestShippingPriceMatchesSubtotalBand(t *testing.T) {
	db := setupRatesTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	hundred := dec("100.00")
	seedShippingRate(t, db, "Standard", "US",
		models.ShippingRateTier{MinSubtotal: dec("0"), MaxSubtotal: &hundred, Price: dec("9.99")},
		models.ShippingRateTier{MinSubtotal: dec("100.01"), Price: dec("0.00")},
	)

	price, err := svc.ShippingPriceFor(ctx, "US", dec("50.00"))
	require.NoError(t, err)
	assert.True(t, price.Equal(dec("9.99")), "got %s", price)

	// Free above the threshold.
	price, err = svc.ShippingPriceFor(ctx, "US", dec("150.00"))
	require.NoError(t, err)
	assert.True(t, price.IsZero())
}

func TestShippingOptionsSortedCheapestFirst(t *testing.T) {
	db := setupRatesTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)
	ctx := context.Background()

	seedShippingRate(t, db, "Express", "US",
		models.ShippingRateTier{MinSubtotal: dec("0"), Price: dec("24.99")})
	seedShippingRate(t, db, "Ground", "US",
		models.ShippingRateTier{MinSubtotal: dec("0"), Price: dec("7.99")})

	options, err := svc.ShippingOptionsFor(ctx, "US", dec("40.00"))
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "Ground", options[0].Name)
	assert.Equal(t, "Express", options[1].Name)
}

func TestShippingNoMethodsMeansZero(t *testing.T) {
	db := setupRatesTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)

	price, err := svc.ShippingPriceFor(context.Background(), "DE", dec("40.00"))
	require.NoError(t, err)
	assert.True(t, price.IsZero())
}
