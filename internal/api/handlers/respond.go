package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/baharkarakas/qrpay-backend/internal/api/httpx"
	"github.com/baharkarakas/qrpay-backend/internal/api/validate"
	"github.com/baharkarakas/qrpay-backend/internal/middleware"
	"github.com/baharkarakas/qrpay-backend/internal/services"
)

// writeErr maps a service error to its status. Internal causes are logged to
// log, never returned to the caller.
func writeErr(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var verrs validate.Errs
	if errors.As(err, &verrs) {
		httpx.WriteError(w, http.StatusBadRequest, services.CodeInvalidInput, "validation failed", verrs)
		return
	}
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		svcErr = &services.Error{Code: services.CodeInternal, Message: "internal error", Err: err}
	}
	if svcErr.Code == services.CodeInternal {
		if log == nil {
			log = slog.Default()
		}
		log.Error("request failed", "err", err, "request_id", middleware.RequestIDFrom(r.Context()))
		httpx.WriteError(w, http.StatusInternalServerError, svcErr.Code, "internal error", nil)
		return
	}
	httpx.WriteError(w, httpx.StatusFor(svcErr.Code), svcErr.Code, svcErr.Message, nil)
}

func badJSON(w http.ResponseWriter, err error) {
	httpx.WriteError(w, http.StatusBadRequest, services.CodeInvalidInput, "invalid JSON body", err.Error())
}

func walletParam(r *http.Request) (string, error) {
	wallet := r.URL.Query().Get("walletAddress")
	if errs := validate.Collect(validate.Required("walletAddress", wallet)); errs != nil {
		return "", errs
	}
	return wallet, nil
}
