package promotions

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// LineItem is the slice of an order the evaluator needs.
type LineItem struct {
	VariantID uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

func (li LineItem) lineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Result reports the computed discount and which variants it touched.
type Result struct {
	Discount     decimal.Decimal
	AppliedItems []uuid.UUID
}

// Evaluate runs the full eligibility gate and discount computation for one
// promotion against one prospective order. It never mutates anything;
// usage accounting is the caller's job, inside the order transaction.
func Evaluate(promo models.Promotion, items []LineItem, customer *models.Customer, subtotal, shippingAmount decimal.Decimal, now time.Time) (Result, error) {
	if err := checkEligibility(promo, customer, subtotal, now); err != nil {
		return Result{}, err
	}

	var result Result
	switch promo.Type {
	case enums.PromotionTypePercentage:
		result.Discount = subtotal.Mul(promo.DiscountValue).Div(oneHundred)
		result.AppliedItems = allVariantIDs(items)
	case enums.PromotionTypeFixedAmount:
		result.Discount = decimal.Min(promo.DiscountValue, subtotal)
		result.AppliedItems = allVariantIDs(items)
	case enums.PromotionTypeFreeShipping:
		result.Discount = shippingAmount
		result.AppliedItems = allVariantIDs(items)
	case enums.PromotionTypeBogo:
		result = evaluateBogo(promo, items)
	case enums.PromotionTypeVolumeDiscount:
		result = evaluateVolume(promo, items)
	default:
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "unsupported promotion type")
	}

	// maxDiscount clamp first, then the subtotal clamp. The subtotal clamp
	// applies even to free shipping.
	if promo.MaxDiscount != nil && result.Discount.GreaterThan(*promo.MaxDiscount) {
		result.Discount = *promo.MaxDiscount
	}
	if result.Discount.GreaterThan(subtotal) {
		result.Discount = subtotal
	}
	if result.Discount.IsNegative() {
		result.Discount = decimal.Zero
	}
	result.Discount = result.Discount.Round(2)
	return result, nil
}

func checkEligibility(promo models.Promotion, customer *models.Customer, subtotal decimal.Decimal, now time.Time) error {
	if !promo.IsActive {
		return pkgerrors.New(pkgerrors.CodeIneligible, "coupon is not active")
	}
	if promo.StartsAt != nil && now.Before(*promo.StartsAt) {
		return pkgerrors.New(pkgerrors.CodeIneligible, "coupon is not active yet")
	}
	if promo.EndsAt != nil && now.After(*promo.EndsAt) {
		return pkgerrors.New(pkgerrors.CodeIneligible, "coupon has expired")
	}
	if promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit {
		return pkgerrors.New(pkgerrors.CodeConflict, "coupon usage limit reached")
	}

	// Private by default once any individual association exists: the flag
	// and the rows can disagree in stored data, either makes it private.
	if promo.IsForIndividualCustomer || len(promo.Customers) > 0 {
		if customer == nil {
			return pkgerrors.New(pkgerrors.CodeIneligible, "coupon is restricted to specific customers")
		}
		found := false
		for _, pc := range promo.Customers {
			if pc.CustomerID == customer.ID {
				found = true
				break
			}
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeIneligible, "coupon is restricted to specific customers")
		}
	}

	if len(promo.CustomerTypes) > 0 {
		if customer == nil || !promo.CustomerTypes.Contains(string(customer.Type)) {
			return pkgerrors.New(pkgerrors.CodeIneligible, "coupon is not available for this customer type")
		}
	}

	if promo.MinOrderAmount != nil && subtotal.LessThan(*promo.MinOrderAmount) {
		return pkgerrors.New(pkgerrors.CodeIneligible, "order does not meet the coupon minimum")
	}
	return nil
}

// evaluateBogo computes floor(buyQty/buyQuantity)*getQuantity free units and
// discounts the cheapest eligible get units first.
func evaluateBogo(promo models.Promotion, items []LineItem) Result {
	if promo.BuyQuantity <= 0 || promo.GetQuantity <= 0 {
		return Result{Discount: decimal.Zero}
	}

	buySet, getSet := bogoProductSets(promo)

	buyQty := 0
	var getItems []LineItem
	for _, item := range items {
		if buySet == nil || buySet[item.ProductID] {
			buyQty += item.Quantity
		}
		if getSet == nil || getSet[item.ProductID] {
			getItems = append(getItems, item)
		}
	}

	freeUnits := buyQty / promo.BuyQuantity * promo.GetQuantity
	if freeUnits <= 0 || len(getItems) == 0 {
		return Result{Discount: decimal.Zero}
	}

	getPct := oneHundred
	if promo.GetDiscount != nil && promo.GetDiscount.IsPositive() {
		getPct = *promo.GetDiscount
	}

	// Cheapest units first. Customer-favorable tie-break.
	sort.SliceStable(getItems, func(i, j int) bool {
		return getItems[i].UnitPrice.LessThan(getItems[j].UnitPrice)
	})

	discount := decimal.Zero
	var applied []uuid.UUID
	remaining := freeUnits
	for _, item := range getItems {
		if remaining <= 0 {
			break
		}
		units := item.Quantity
		if units > remaining {
			units = remaining
		}
		discount = discount.Add(item.UnitPrice.
			Mul(decimal.NewFromInt(int64(units))).
			Mul(getPct).Div(oneHundred))
		applied = append(applied, item.VariantID)
		remaining -= units
	}
	return Result{Discount: discount, AppliedItems: applied}
}

// bogoProductSets splits product rules into buy and get eligibility sets.
// Nil sets mean "all items" (a promotion without product rules).
func bogoProductSets(promo models.Promotion) (buy, get map[uuid.UUID]bool) {
	if len(promo.ProductRules) == 0 {
		return nil, nil
	}
	buy = make(map[uuid.UUID]bool)
	get = make(map[uuid.UUID]bool)
	for _, rule := range promo.ProductRules {
		if rule.Role.CountsAsBuy() {
			buy[rule.ProductID] = true
		}
		if rule.Role.CountsAsGet() {
			get[rule.ProductID] = true
		}
	}
	return buy, get
}

// evaluateVolume sums quantities across all items, scans tiers in ascending
// min_quantity order keeping the last tier the total reaches, and applies
// that tier per item.
func evaluateVolume(promo models.Promotion, items []LineItem) Result {
	totalQty := 0
	for _, item := range items {
		totalQty += item.Quantity
	}
	if totalQty <= 0 || len(promo.VolumeTiers) == 0 {
		return Result{Discount: decimal.Zero}
	}

	tiers := make([]models.PromotionVolumeTier, len(promo.VolumeTiers))
	copy(tiers, promo.VolumeTiers)
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].MinQuantity < tiers[j].MinQuantity
	})

	var applicable *models.PromotionVolumeTier
	for i := range tiers {
		if totalQty >= tiers[i].MinQuantity {
			applicable = &tiers[i]
		}
	}
	if applicable == nil {
		return Result{Discount: decimal.Zero}
	}

	discount := decimal.Zero
	var applied []uuid.UUID
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		var itemDiscount decimal.Decimal
		switch applicable.Type {
		case enums.VolumeTierTypePercentage:
			itemDiscount = item.lineTotal().Mul(applicable.DiscountValue).Div(oneHundred)
		case enums.VolumeTierTypeFixedAmount:
			// Per-unit amount off, never more than the unit price.
			perUnit := decimal.Min(applicable.DiscountValue, item.UnitPrice)
			itemDiscount = perUnit.Mul(qty)
		case enums.VolumeTierTypeFixedPrice:
			if item.UnitPrice.GreaterThan(applicable.DiscountValue) {
				itemDiscount = item.UnitPrice.Sub(applicable.DiscountValue).Mul(qty)
			}
		}
		if itemDiscount.IsPositive() {
			discount = discount.Add(itemDiscount)
			applied = append(applied, item.VariantID)
		}
	}
	return Result{Discount: discount, AppliedItems: applied}
}

func allVariantIDs(items []LineItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.VariantID)
	}
	return ids
}
