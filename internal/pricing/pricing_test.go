package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func intPtr(v int) *int { return &v }

func baseVariant() models.Variant {
	return models.Variant{
		RegularPrice: dec("10.00"),
		SalePrice:    dec("9.00"),
	}
}

func TestResolveUnitPriceRetailUsesSale(t *testing.T) {
	v := baseVariant()
	got := ResolveUnitPrice(v, enums.CustomerTypeB2C)
	if !got.Equal(dec("9.00")) {
		t.Fatalf("expected sale price 9.00, got %s", got)
	}

	v.SalePrice = decimal.Zero
	got = ResolveUnitPrice(v, enums.CustomerTypeB2C)
	if !got.Equal(dec("10.00")) {
		t.Fatalf("expected regular price without sale, got %s", got)
	}
}

func TestResolveUnitPriceWholesaleIgnoresSale(t *testing.T) {
	v := baseVariant()
	for _, ct := range []enums.CustomerType{
		enums.CustomerTypeB2B,
		enums.CustomerTypeEnterprise1,
		enums.CustomerTypeEnterprise2,
	} {
		got := ResolveUnitPrice(v, ct)
		if !got.Equal(dec("10.00")) {
			t.Fatalf("%s: expected regular price 10.00, got %s", ct, got)
		}
	}
}

func TestResolveUnitPriceSegmentOverride(t *testing.T) {
	v := baseVariant()
	v.SegmentPrices = []models.SegmentPrice{
		{CustomerType: enums.CustomerTypeEnterprise1, RegularPrice: dec("8.50"), SalePrice: dec("8.00")},
	}

	got := ResolveUnitPrice(v, enums.CustomerTypeEnterprise1)
	if !got.Equal(dec("8.00")) {
		t.Fatalf("expected segment sale price, got %s", got)
	}

	// ENTERPRISE_2 collapses onto the ENTERPRISE_1 row.
	got = ResolveUnitPrice(v, enums.CustomerTypeEnterprise2)
	if !got.Equal(dec("8.00")) {
		t.Fatalf("expected collapsed tier lookup, got %s", got)
	}
}

func TestResolveUnitPriceSegmentWithoutSale(t *testing.T) {
	v := baseVariant()
	v.SegmentPrices = []models.SegmentPrice{
		{CustomerType: enums.CustomerTypeB2C, RegularPrice: dec("9.50"), SalePrice: decimal.Zero},
	}
	got := ResolveUnitPrice(v, enums.CustomerTypeB2C)
	if !got.Equal(dec("9.50")) {
		t.Fatalf("expected segment regular price, got %s", got)
	}

	// B2B collapses to the B2C segment row but still qualifies for it.
	got = ResolveUnitPrice(v, enums.CustomerTypeB2B)
	if !got.Equal(dec("9.50")) {
		t.Fatalf("expected collapsed B2B lookup, got %s", got)
	}
}

func TestResolveBulkUnitPriceFirstAscendingMatch(t *testing.T) {
	v := baseVariant()
	v.BulkPrices = []models.BulkPrice{
		{MinQty: 50, MaxQty: nil, Price: dec("7.00")},
		{MinQty: 10, MaxQty: intPtr(49), Price: dec("8.00")},
	}

	got := ResolveBulkUnitPrice(v, 15)
	if got == nil || !got.Equal(dec("8.00")) {
		t.Fatalf("expected 8.00 tier for qty 15, got %v", got)
	}

	got = ResolveBulkUnitPrice(v, 50)
	if got == nil || !got.Equal(dec("7.00")) {
		t.Fatalf("expected 7.00 tier for qty 50, got %v", got)
	}

	if got := ResolveBulkUnitPrice(v, 5); got != nil {
		t.Fatalf("expected no tier below min qty, got %s", got)
	}
}

func TestResolveBulkUnitPriceOverlapFirstWins(t *testing.T) {
	v := baseVariant()
	v.BulkPrices = []models.BulkPrice{
		{MinQty: 20, MaxQty: intPtr(100), Price: dec("6.00")},
		{MinQty: 10, MaxQty: intPtr(30), Price: dec("8.00")},
	}
	got := ResolveBulkUnitPrice(v, 25)
	if got == nil || !got.Equal(dec("8.00")) {
		t.Fatalf("overlap should resolve to lowest min_qty tier, got %v", got)
	}
}

func TestQuoteLineTotal(t *testing.T) {
	v := baseVariant()
	v.BulkPrices = []models.BulkPrice{
		{MinQty: 10, MaxQty: intPtr(49), Price: dec("8.00")},
	}

	q := ResolveQuote(v, enums.CustomerTypeB2C, 15)
	if q.BulkUnitPrice == nil {
		t.Fatal("expected bulk price to apply")
	}
	if !q.EffectiveUnit().Equal(dec("8.00")) {
		t.Fatalf("expected effective unit 8.00, got %s", q.EffectiveUnit())
	}
	if !q.LineTotal(15).Equal(dec("120.00")) {
		t.Fatalf("expected line total 120.00, got %s", q.LineTotal(15))
	}

	q = ResolveQuote(v, enums.CustomerTypeB2C, 5)
	if q.BulkUnitPrice != nil {
		t.Fatal("expected no bulk price below threshold")
	}
	if !q.LineTotal(5).Equal(dec("45.00")) {
		t.Fatalf("expected 5 x 9.00 = 45.00, got %s", q.LineTotal(5))
	}
}
