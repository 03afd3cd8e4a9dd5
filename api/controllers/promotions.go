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
	"github.com/centrelabs/backoffice/internal/promotions"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
	"github.com/centrelabs/backoffice/pkg/logger"
)

type calculateDiscountRequest struct {
	Code           string                   `json:"code" validate:"required"`
	CustomerID     string                   `json:"customer_id" validate:"required,uuid"`
	Items          []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAmount *decimal.Decimal         `json:"shipping_amount,omitempty"`
}

type calculateDiscountResponse struct {
	PromotionID  uuid.UUID       `json:"promotion_id"`
	Code         *string         `json:"code,omitempty"`
	Discount     decimal.Decimal `json:"discount"`
	AppliedItems []uuid.UUID     `json:"applied_items,omitempty"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// CalculateDiscount runs the promotion evaluator against a prospective order
// without consuming a use. Prices are resolved server-side the same way
// checkout resolves them.
func CalculateDiscount(
	promoSvc promotions.Service,
	customerSvc customers.Service,
	catalogSvc products.Service,
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if promoSvc == nil || customerSvc == nil || catalogSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotion services unavailable"))
			return
		}

		var req calculateDiscountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}
		customer, err := customerSvc.Get(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		variantIDs := make([]uuid.UUID, 0, len(req.Items))
		quantities := make(map[uuid.UUID]int, len(req.Items))
		for _, item := range req.Items {
			variantID, err := uuid.Parse(item.VariantID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
				return
			}
			variantIDs = append(variantIDs, variantID)
			quantities[variantID] = item.Quantity
		}

		variants, err := catalogSvc.ActiveVariants(r.Context(), variantIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineItems := make([]promotions.LineItem, 0, len(variantIDs))
		subtotal := decimal.Zero
		for _, variantID := range variantIDs {
			variant, ok := variants[variantID]
			if !ok {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeNotFound, "variant not found or inactive"))
				return
			}
			qty := quantities[variantID]
			quote := pricing.ResolveQuote(variant, customer.Type, qty)
			unit := quote.EffectiveUnit()
			subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(qty))))
			lineItems = append(lineItems, promotions.LineItem{
				VariantID: variantID,
				ProductID: variant.ProductID,
				Quantity:  qty,
				UnitPrice: unit,
			})
		}

		shipping := decimal.Zero
		if req.ShippingAmount != nil {
			shipping = *req.ShippingAmount
		}

		quote, err := promoSvc.CalculateDiscount(r.Context(), promotions.DiscountRequest{
			Code:           req.Code,
			Items:          lineItems,
			Customer:       customer,
			Subtotal:       subtotal,
			ShippingAmount: shipping,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, calculateDiscountResponse{
			PromotionID:  quote.Promotion.ID,
			Code:         quote.Promotion.Code,
			Discount:     quote.Result.Discount.Round(2),
			AppliedItems: quote.Result.AppliedItems,
			Subtotal:     subtotal.Round(2),
		})
	}
}
