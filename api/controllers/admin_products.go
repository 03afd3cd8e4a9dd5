package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/centrelabs/backoffice/api/responses"
	"github.com/centrelabs/backoffice/api/validators"
	"github.com/centrelabs/backoffice/internal/products"
	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
	"github.com/centrelabs/backoffice/pkg/logger"
)

type productRequest struct {
	Name        string  `json:"name" validate:"required"`
	Slug        string  `json:"slug" validate:"required"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// AdminListProducts returns the catalog, inactive entries included unless
// active_only is set.
func AdminListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		activeOnly, err := validators.ParseQueryBool(r, "active_only", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListProducts(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AdminGetProduct returns one product with variants and price tiers.
func AdminGetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		productID, err := parsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdminCreateProduct adds a catalog entry.
func AdminCreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		var req productRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product := &models.Product{
			Name:        strings.TrimSpace(req.Name),
			Slug:        strings.TrimSpace(req.Slug),
			Description: req.Description,
			IsActive:    true,
		}
		if req.IsActive != nil {
			product.IsActive = *req.IsActive
		}

		created, err := svc.CreateProduct(r.Context(), product)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// AdminUpdateProduct rewrites the editable product fields.
func AdminUpdateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		productID, err := parsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req productRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		existing, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		existing.Name = strings.TrimSpace(req.Name)
		existing.Slug = strings.TrimSpace(req.Slug)
		existing.Description = req.Description
		if req.IsActive != nil {
			existing.IsActive = *req.IsActive
		}

		updated, err := svc.UpdateProduct(r.Context(), existing)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

type variantRequest struct {
	SKU          string          `json:"sku" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	RegularPrice decimal.Decimal `json:"regular_price" validate:"required"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	WeightGrams  int             `json:"weight_grams" validate:"min=0"`
	IsActive     *bool           `json:"is_active,omitempty"`
}

// AdminCreateVariant adds a purchasable variant under a product.
func AdminCreateVariant(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		productID, err := parsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req variantRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		variant := &models.Variant{
			ProductID:    productID,
			SKU:          strings.TrimSpace(req.SKU),
			Name:         strings.TrimSpace(req.Name),
			RegularPrice: req.RegularPrice,
			SalePrice:    req.SalePrice,
			WeightGrams:  req.WeightGrams,
			IsActive:     true,
		}
		if req.IsActive != nil {
			variant.IsActive = *req.IsActive
		}

		created, err := svc.CreateVariant(r.Context(), variant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

type segmentPriceRequest struct {
	CustomerType string          `json:"customer_type" validate:"required"`
	RegularPrice decimal.Decimal `json:"regular_price" validate:"required"`
	SalePrice    decimal.Decimal `json:"sale_price"`
}

// AdminSetSegmentPrices replaces a variant's per-tier price overrides.
func AdminSetSegmentPrices(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		variantID, err := parsePathUUID(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req struct {
			Prices []segmentPriceRequest `json:"prices" validate:"required,dive"`
		}
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prices := make([]models.SegmentPrice, 0, len(req.Prices))
		for _, p := range req.Prices {
			customerType, err := enums.ParseCustomerType(p.CustomerType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer type"))
				return
			}
			prices = append(prices, models.SegmentPrice{
				VariantID:    variantID,
				CustomerType: customerType,
				RegularPrice: p.RegularPrice,
				SalePrice:    p.SalePrice,
			})
		}

		if err := svc.SetSegmentPrices(r.Context(), variantID, prices); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"count": len(prices)})
	}
}

type bulkPriceRequest struct {
	MinQty int             `json:"min_qty" validate:"required,gt=0"`
	MaxQty *int            `json:"max_qty,omitempty"`
	Price  decimal.Decimal `json:"price" validate:"required"`
}

// AdminSetBulkPrices replaces a variant's quantity-break tiers.
func AdminSetBulkPrices(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		variantID, err := parsePathUUID(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req struct {
			Tiers []bulkPriceRequest `json:"tiers" validate:"required,dive"`
		}
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tiers := make([]models.BulkPrice, 0, len(req.Tiers))
		for _, t := range req.Tiers {
			tiers = append(tiers, models.BulkPrice{
				VariantID: variantID,
				MinQty:    t.MinQty,
				MaxQty:    t.MaxQty,
				Price:     t.Price,
			})
		}

		if err := svc.SetBulkPrices(r.Context(), variantID, tiers); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"count": len(tiers)})
	}
}

func parsePathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, param+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}
