package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/centrelabs/backoffice/api/responses"
	"github.com/centrelabs/backoffice/api/validators"
	"github.com/centrelabs/backoffice/internal/promotions"
	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
	"github.com/centrelabs/backoffice/pkg/logger"
	"github.com/centrelabs/backoffice/pkg/types"
)

type promotionProductRuleRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Role      string `json:"role,omitempty"`
}

type promotionVolumeTierRequest struct {
	MinQuantity   int             `json:"min_quantity" validate:"required,gt=0"`
	Type          string          `json:"type" validate:"required"`
	DiscountValue decimal.Decimal `json:"discount_value" validate:"required"`
}

type promotionRequest struct {
	Name                    string                        `json:"name" validate:"required"`
	Code                    *string                       `json:"code,omitempty"`
	Type                    string                        `json:"type" validate:"required"`
	DiscountValue           decimal.Decimal               `json:"discount_value"`
	MaxDiscount             *decimal.Decimal              `json:"max_discount,omitempty"`
	MinOrderAmount          *decimal.Decimal              `json:"min_order_amount,omitempty"`
	UsageLimit              *int                          `json:"usage_limit,omitempty"`
	IsActive                *bool                         `json:"is_active,omitempty"`
	StartsAt                *time.Time                    `json:"starts_at,omitempty"`
	EndsAt                  *time.Time                    `json:"ends_at,omitempty"`
	CustomerTypes           []string                      `json:"customer_types,omitempty"`
	IsForIndividualCustomer bool                          `json:"is_for_individual_customer,omitempty"`
	BuyQuantity             int                           `json:"buy_quantity,omitempty"`
	GetQuantity             int                           `json:"get_quantity,omitempty"`
	GetDiscount             *decimal.Decimal              `json:"get_discount,omitempty"`
	ProductRules            []promotionProductRuleRequest `json:"product_rules,omitempty"`
	VolumeTiers             []promotionVolumeTierRequest  `json:"volume_tiers,omitempty"`
	CustomerIDs             []string                      `json:"customer_ids,omitempty"`
}

// AdminListPromotions returns all promotions, optionally active only.
func AdminListPromotions(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotions service unavailable"))
			return
		}

		activeOnly, err := validators.ParseQueryBool(r, "active_only", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AdminGetPromotion returns one promotion with its rules, tiers and
// customer assignments.
func AdminGetPromotion(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotions service unavailable"))
			return
		}

		promoID, err := parsePathUUID(r, "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promo, err := svc.Get(r.Context(), promoID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promo)
	}
}

// AdminCreatePromotion authors a promotion or coupon.
func AdminCreatePromotion(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotions service unavailable"))
			return
		}

		var req promotionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promo, err := promotionFromRequest(&req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), promo)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// AdminUpdatePromotion rewrites a promotion and replaces its child rows.
func AdminUpdatePromotion(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotions service unavailable"))
			return
		}

		promoID, err := parsePathUUID(r, "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req promotionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promo, err := promotionFromRequest(&req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		promo.ID = promoID

		updated, err := svc.Update(r.Context(), promo)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func promotionFromRequest(req *promotionRequest) (*models.Promotion, error) {
	promoType, err := enums.ParsePromotionType(req.Type)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promotion type")
	}

	promo := &models.Promotion{
		Name:                    strings.TrimSpace(req.Name),
		Code:                    req.Code,
		Type:                    promoType,
		DiscountValue:           req.DiscountValue,
		MaxDiscount:             req.MaxDiscount,
		MinOrderAmount:          req.MinOrderAmount,
		UsageLimit:              req.UsageLimit,
		IsActive:                true,
		StartsAt:                req.StartsAt,
		EndsAt:                  req.EndsAt,
		CustomerTypes:           types.StringList(req.CustomerTypes),
		IsForIndividualCustomer: req.IsForIndividualCustomer,
		BuyQuantity:             req.BuyQuantity,
		GetQuantity:             req.GetQuantity,
		GetDiscount:             req.GetDiscount,
	}
	if req.IsActive != nil {
		promo.IsActive = *req.IsActive
	}

	for _, raw := range req.CustomerTypes {
		if _, err := enums.ParseCustomerType(raw); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer type")
		}
	}

	for _, rule := range req.ProductRules {
		productID, err := uuid.Parse(rule.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		role := enums.BogoRoleBoth
		if strings.TrimSpace(rule.Role) != "" {
			role, err = enums.ParseBogoRole(rule.Role)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product rule role")
			}
		}
		promo.ProductRules = append(promo.ProductRules, models.PromotionProductRule{
			ProductID: productID,
			Role:      role,
		})
	}

	for _, tier := range req.VolumeTiers {
		tierType, err := enums.ParseVolumeTierType(tier.Type)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid volume tier type")
		}
		promo.VolumeTiers = append(promo.VolumeTiers, models.PromotionVolumeTier{
			MinQuantity:   tier.MinQuantity,
			Type:          tierType,
			DiscountValue: tier.DiscountValue,
		})
	}

	for _, raw := range req.CustomerIDs {
		customerID, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
		}
		promo.Customers = append(promo.Customers, models.PromotionCustomer{CustomerID: customerID})
	}

	return promo, nil
}
