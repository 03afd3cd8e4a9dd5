package controllers

import (
	"net/http"

	"github.com/centrelabs/backoffice/api/responses"
	"github.com/centrelabs/backoffice/api/validators"
	"github.com/centrelabs/backoffice/internal/staff"
	pkgerrors "github.com/centrelabs/backoffice/pkg/errors"
	"github.com/centrelabs/backoffice/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates a staff account and returns a bearer token.
func Login(svc staff.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), staff.LoginInput{Email: req.Email, Password: req.Password})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
