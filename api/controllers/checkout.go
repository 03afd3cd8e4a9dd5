package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/centrelabs/backoffice/api/responses"
	"github.com/centrelabs/backoffice/api/validators"
	"github.com/centrelabs/backoffice/internal/customers"
	"github.com/centrelabs/backoffice/internal/pricing"
	"github.com/centrelabs/backoffice/internal/products"
	"github.com/centrelabs/backoffice/internal/rates"
	"github.com/centrelabs/backoffice/internal/warehouses"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
	"github.com/centrelabs/backoffice/pkg/logger"
)

type shippingRatesRequest struct {
	CustomerID        string                   `json:"customer_id" validate:"required,uuid"`
	ShippingAddressID string                   `json:"shipping_address_id" validate:"required,uuid"`
	Items             []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type shippingRatesResponse struct {
	WarehouseID    uuid.UUID              `json:"warehouse_id"`
	WarehouseName  string                 `json:"warehouse_name"`
	DistanceKm     float64                `json:"distance_km"`
	StockAvailable bool                   `json:"stock_available"`
	Subtotal       decimal.Decimal        `json:"subtotal"`
	Options        []rates.ShippingOption `json:"options"`
}

// CheckoutShippingRates resolves the fulfillment warehouse for a prospective
// order and quotes the shipping methods priced against the resolved subtotal.
func CheckoutShippingRates(
	customerSvc customers.Service,
	catalogSvc products.Service,
	selector *warehouses.Selector,
	rateSvc rates.Service,
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if customerSvc == nil || catalogSvc == nil || selector == nil || rateSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout services unavailable"))
			return
		}

		var req shippingRatesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}
		addressID, err := uuid.Parse(req.ShippingAddressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address id"))
			return
		}

		customer, err := customerSvc.Get(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		address, err := customerSvc.ResolveAddress(r.Context(), customerID, addressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		demand := make([]warehouses.Demand, 0, len(req.Items))
		variantIDs := make([]uuid.UUID, 0, len(req.Items))
		quantities := make(map[uuid.UUID]int, len(req.Items))
		for _, item := range req.Items {
			variantID, err := uuid.Parse(item.VariantID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
				return
			}
			demand = append(demand, warehouses.Demand{VariantID: variantID, Quantity: item.Quantity})
			variantIDs = append(variantIDs, variantID)
			quantities[variantID] = item.Quantity
		}

		variants, err := catalogSvc.ActiveVariants(r.Context(), variantIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subtotal := decimal.Zero
		for variantID, qty := range quantities {
			variant, ok := variants[variantID]
			if !ok {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeNotFound, "variant not found or inactive"))
				return
			}
			quote := pricing.ResolveQuote(variant, customer.Type, qty)
			subtotal = subtotal.Add(quote.EffectiveUnit().Mul(decimal.NewFromInt(int64(qty))))
		}

		selection, err := selector.Select(r.Context(), address, demand)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		options, err := rateSvc.ShippingOptionsFor(r.Context(), address.CountryCode, subtotal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shippingRatesResponse{
			WarehouseID:    selection.Warehouse.ID,
			WarehouseName:  selection.Warehouse.Name,
			DistanceKm:     selection.DistanceKm,
			StockAvailable: selection.StockAvailable,
			Subtotal:       subtotal.Round(2),
			Options:        options,
		})
	}
}
