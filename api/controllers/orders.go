package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/centrelabs/backoffice/api/middleware"
	"github.com/centrelabs/backoffice/api/responses"
	"github.com/centrelabs/backoffice/api/validators"
	internalorders "github.com/centrelabs/backoffice/internal/orders"
	"github.com/centrelabs/backoffice/pkg/enums"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
	"github.com/centrelabs/backoffice/pkg/logger"
	"github.com/centrelabs/backoffice/pkg/outbox"
	"github.com/centrelabs/backoffice/pkg/pagination"
)

type createOrderItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type createOrderRequest struct {
	CustomerID        string                   `json:"customer_id" validate:"required,uuid"`
	BillingAddressID  string                   `json:"billing_address_id" validate:"required,uuid"`
	ShippingAddressID string                   `json:"shipping_address_id" validate:"required,uuid"`
	Items             []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentType       string                   `json:"payment_type" validate:"required"`
	DiscountAmount    *decimal.Decimal         `json:"discount_amount,omitempty"`
	ShippingAmount    *decimal.Decimal         `json:"shipping_amount,omitempty"`
	TaxAmount         *decimal.Decimal         `json:"tax_amount,omitempty"`
	CouponCode        *string                  `json:"coupon_code,omitempty"`
	SalesChannelID    *string                  `json:"sales_channel_id,omitempty"`
	PartnerOrderID    *string                  `json:"partner_order_id,omitempty"`
	Notes             *string                  `json:"notes,omitempty"`
	SkipReservation   bool                     `json:"skip_reservation,omitempty"`
}

// CreateOrder runs the full checkout pipeline and returns the priced order.
func CreateOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.CreateOrderInput{
			DiscountAmount:  req.DiscountAmount,
			ShippingAmount:  req.ShippingAmount,
			TaxAmount:       req.TaxAmount,
			Notes:           req.Notes,
			SkipReservation: req.SkipReservation,
			Actor:           actorFromContext(r),
		}

		var err error
		if input.CustomerID, err = uuid.Parse(req.CustomerID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}
		if input.BillingAddressID, err = uuid.Parse(req.BillingAddressID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billing address id"))
			return
		}
		if input.ShippingAddressID, err = uuid.Parse(req.ShippingAddressID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address id"))
			return
		}

		paymentType, err := enums.ParsePaymentType(req.PaymentType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment type"))
			return
		}
		input.PaymentType = paymentType

		for _, item := range req.Items {
			variantID, err := uuid.Parse(item.VariantID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
				return
			}
			input.Items = append(input.Items, internalorders.CreateOrderItemInput{
				VariantID: variantID,
				Quantity:  item.Quantity,
			})
		}

		if req.CouponCode != nil && strings.TrimSpace(*req.CouponCode) != "" {
			input.CouponCode = req.CouponCode
		}
		if req.SalesChannelID != nil {
			channelID, err := uuid.Parse(*req.SalesChannelID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sales channel id"))
				return
			}
			input.SalesChannelID = &channelID
			input.PartnerOrderID = req.PartnerOrderID
		}

		order, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Detail string `json:"detail,omitempty"`
}

// UpdateOrderStatus moves an order to a new status and applies the matching
// inventory effect.
func UpdateOrderStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), internalorders.UpdateStatusInput{
			OrderID: orderID,
			To:      status,
			Detail:  req.Detail,
			Actor:   actorFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type adjustOrderRequest struct {
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
	ShippingAmount *decimal.Decimal `json:"shipping_amount,omitempty"`
	TaxAmount      *decimal.Decimal `json:"tax_amount,omitempty"`
}

// AdjustOrder rewrites staff-editable money columns and re-derives the total.
func AdjustOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req adjustOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.DiscountAmount == nil && req.ShippingAmount == nil && req.TaxAmount == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "at least one adjustment field is required"))
			return
		}

		order, err := svc.Adjust(r.Context(), internalorders.AdjustInput{
			OrderID:        orderID,
			DiscountAmount: req.DiscountAmount,
			ShippingAmount: req.ShippingAmount,
			TaxAmount:      req.TaxAmount,
			Actor:          actorFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type recordTransactionRequest struct {
	Kind        string          `json:"kind" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	PaymentType string          `json:"payment_type" validate:"required"`
	Reference   *string         `json:"reference,omitempty"`
	Note        *string         `json:"note,omitempty"`
}

// RecordOrderTransaction appends a capture or refund record to an order.
func RecordOrderTransaction(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req recordTransactionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParseTransactionKind(req.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction kind"))
			return
		}
		paymentType, err := enums.ParsePaymentType(req.PaymentType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment type"))
			return
		}

		txn, err := svc.RecordTransaction(r.Context(), internalorders.RecordTransactionInput{
			OrderID:     orderID,
			Kind:        kind,
			Amount:      req.Amount,
			PaymentType: paymentType,
			Reference:   req.Reference,
			Note:        req.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

// GetOrder returns one order with its lines.
func GetOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListOrders returns a cursor page of orders, optionally filtered by
// customer and status.
func ListOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := internalorders.ListFilter{Limit: limit}

		if raw := strings.TrimSpace(r.URL.Query().Get("customer_id")); raw != "" {
			customerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
				return
			}
			filter.CustomerID = &customerID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
				return
			}
			filter.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("cursor")); raw != "" {
			cursor, err := pagination.ParseCursor(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
				return
			}
			filter.Cursor = cursor
		}

		page, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}

func actorFromContext(r *http.Request) *outbox.ActorRef {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return nil
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID}
}
