package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/centrelabs/backoffice/api/responses"
	"github.com/centrelabs/backoffice/api/validators"
	"github.com/centrelabs/backoffice/internal/carts"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
	"github.com/centrelabs/backoffice/pkg/logger"
)

// CartFetch returns the customer's active cart with freshly resolved prices.
func CartFetch(svc carts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := parseCustomerIDQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetActive(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type cartItemRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
	VariantID  string `json:"variant_id" validate:"required,uuid"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
}

// CartAddItem merges a variant into the active cart, creating the cart on
// first use.
func CartAddItem(svc carts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var req cartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, variantID, err := parseCartIDs(req.CustomerID, req.VariantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AddItem(r.Context(), customerID, variantID, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type cartSetQuantityRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
	VariantID  string `json:"variant_id" validate:"required,uuid"`
	Quantity   int    `json:"quantity" validate:"min=0"`
}

// CartSetItemQuantity overwrites a line's quantity; zero removes the line.
func CartSetItemQuantity(svc carts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var req cartSetQuantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, variantID, err := parseCartIDs(req.CustomerID, req.VariantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetItemQuantity(r.Context(), customerID, variantID, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func parseCustomerIDQuery(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("customer_id"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_id is required")
	}
	customerID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
	}
	return customerID, nil
}

func parseCartIDs(rawCustomer, rawVariant string) (uuid.UUID, uuid.UUID, error) {
	customerID, err := uuid.Parse(rawCustomer)
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
	}
	variantID, err := uuid.Parse(rawVariant)
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id")
	}
	return customerID, variantID, nil
}
