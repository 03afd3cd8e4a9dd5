package rates

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/centrelabs/backoffice/pkg/db/models"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
)

// Service resolves tax and shipping rates for a destination.
type Service interface {
	TaxRateFor(ctx context.Context, countryCode string, stateCode string) (decimal.Decimal, error)
	ShippingPriceFor(ctx context.Context, countryCode string, subtotal decimal.Decimal) (decimal.Decimal, error)
	ShippingOptionsFor(ctx context.Context, countryCode string, subtotal decimal.Decimal) ([]ShippingOption, error)
}

// ShippingOption is one priced method for the checkout rate lookup.
type ShippingOption struct {
	RateID string          `json:"rate_id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

type service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, errors.New("rates: db is required")
	}
	return &service{db: db}, nil
}

// TaxRateFor prefers a state-specific row over the country-wide one. No row
// at all means no tax, not an error.
func (s *service) TaxRateFor(ctx context.Context, countryCode string, stateCode string) (decimal.Decimal, error) {
	if stateCode != "" {
		var row models.TaxRate
		err := s.db.WithContext(ctx).
			Where("country_code = ? AND state_code = ? AND is_active = ?", countryCode, stateCode, true).
			First(&row).Error
		if err == nil {
			return row.RatePercent, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to resolve tax rate")
		}
	}

	var row models.TaxRate
	err := s.db.WithContext(ctx).
		Where("country_code = ? AND state_code IS NULL AND is_active = ?", countryCode, true).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to resolve tax rate")
	}
	return row.RatePercent, nil
}

// ShippingPriceFor returns the cheapest matching option, the value checkout
// uses when the caller did not pick a method.
func (s *service) ShippingPriceFor(ctx context.Context, countryCode string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	options, err := s.ShippingOptionsFor(ctx, countryCode, subtotal)
	if err != nil {
		return decimal.Zero, err
	}
	if len(options) == 0 {
		return decimal.Zero, nil
	}
	return options[0].Price, nil
}

// ShippingOptionsFor prices every active method for the destination at the
// given subtotal, cheapest first. Methods with no band covering the subtotal
// are omitted.
func (s *service) ShippingOptionsFor(ctx context.Context, countryCode string, subtotal decimal.Decimal) ([]ShippingOption, error) {
	var methods []models.ShippingRate
	err := s.db.WithContext(ctx).
		Preload("Tiers").
		Where("country_code = ? AND is_active = ?", countryCode, true).
		Find(&methods).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load shipping rates")
	}

	var options []ShippingOption
	for _, method := range methods {
		if price, ok := priceForSubtotal(method.Tiers, subtotal); ok {
			options = append(options, ShippingOption{
				RateID: method.ID.String(),
				Name:   method.Name,
				Price:  price,
			})
		}
	}
	sort.SliceStable(options, func(i, j int) bool {
		if !options[i].Price.Equal(options[j].Price) {
			return options[i].Price.LessThan(options[j].Price)
		}
		return options[i].Name < options[j].Name
	})
	return options, nil
}

func priceForSubtotal(tiers []models.ShippingRateTier, subtotal decimal.Decimal) (decimal.Decimal, bool) {
	for _, tier := range tiers {
		if subtotal.LessThan(tier.MinSubtotal) {
			continue
		}
		if tier.MaxSubtotal != nil && subtotal.GreaterThan(*tier.MaxSubtotal) {
			continue
		}
		return tier.Price, true
	}
	return decimal.Zero, false
}
