package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
)

// Quote is the resolved price for one (variant, customer, quantity) triple.
// UnitPrice is the per-unit price before quantity breaks; BulkUnitPrice is
// set only when a bulk tier matched the quantity.
type Quote struct {
	UnitPrice     decimal.Decimal
	BulkUnitPrice *decimal.Decimal
}

// EffectiveUnit returns the price a single unit actually costs.
func (q Quote) EffectiveUnit() decimal.Decimal {
	if q.BulkUnitPrice != nil {
		return *q.BulkUnitPrice
	}
	return q.UnitPrice
}

// LineTotal returns the extended price for qty units, rounded to cents.
func (q Quote) LineTotal(qty int) decimal.Decimal {
	return q.EffectiveUnit().Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

// ResolveQuote runs the full resolution: bulk tier first, then segment
// price for the customer's collapsed tier, then the base variant price.
func ResolveQuote(variant models.Variant, customerType enums.CustomerType, qty int) Quote {
	quote := Quote{UnitPrice: ResolveUnitPrice(variant, customerType)}
	if bulk := ResolveBulkUnitPrice(variant, qty); bulk != nil {
		quote.BulkUnitPrice = bulk
	}
	return quote
}

// ResolveUnitPrice resolves the per-unit price ignoring quantity breaks.
//
// Segment prices are keyed by the collapsed pricing tier, so an ENTERPRISE_2
// customer uses the ENTERPRISE_1 row and a B2B customer uses the B2C row.
// Without a segment row, wholesale customers fall back to the regular price
// only; retail customers get the sale price when one is set.
func ResolveUnitPrice(variant models.Variant, customerType enums.CustomerType) decimal.Decimal {
	tier := customerType.PricingTier()
	for _, sp := range variant.SegmentPrices {
		if sp.CustomerType != tier {
			continue
		}
		if sp.SalePrice.IsPositive() {
			return sp.SalePrice
		}
		return sp.RegularPrice
	}

	if customerType.IsWholesale() {
		return variant.RegularPrice
	}
	if variant.SalePrice.IsPositive() {
		return variant.SalePrice
	}
	return variant.RegularPrice
}

// ResolveBulkUnitPrice scans bulk tiers in ascending min_qty order and
// returns the first tier covering qty, or nil when none applies. Overlapping
// ranges are resolved by that scan order.
func ResolveBulkUnitPrice(variant models.Variant, qty int) *decimal.Decimal {
	if qty <= 0 || len(variant.BulkPrices) == 0 {
		return nil
	}
	tiers := make([]models.BulkPrice, len(variant.BulkPrices))
	copy(tiers, variant.BulkPrices)
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].MinQty < tiers[j].MinQty
	})
	for _, tier := range tiers {
		if qty < tier.MinQty {
			continue
		}
		if tier.MaxQty != nil && qty > *tier.MaxQty {
			continue
		}
		price := tier.Price
		return &price
	}
	return nil
}
