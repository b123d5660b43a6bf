package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/qrpay-backend/internal/api/httpx"
	"github.com/baharkarakas/qrpay-backend/internal/api/validate"
	"github.com/baharkarakas/qrpay-backend/internal/middleware"
	"github.com/baharkarakas/qrpay-backend/internal/models"
	"github.com/baharkarakas/qrpay-backend/internal/services"
)

type TransactionHandler struct {
	Svc *services.TransactionService
	Log *slog.Logger
}

func NewTransactionHandler(svc *services.TransactionService, log *slog.Logger) *TransactionHandler {
	return &TransactionHandler{Svc: svc, Log: log}
}

type listResp struct {
	Items  []models.Transaction `json:"items"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, limitErr := validate.IntParam("limit", q.Get("limit"), services.DefaultListLimit, 1)
	offset, offsetErr := validate.IntParam("offset", q.Get("offset"), 0, 0)
	if errs := validate.Collect(
		validate.Required("walletAddress", q.Get("walletAddress")),
		validate.Required("role", q.Get("role")),
		limitErr,
		offsetErr,
	); errs != nil {
		writeErr(w, r, h.Log, errs)
		return
	}

	txs, err := h.Svc.List(r.Context(), q.Get("walletAddress"), q.Get("role"), limit, offset)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	httpx.WriteJSON(w, http.StatusOK, listResp{Items: txs, Limit: min(limit, services.MaxListLimit), Offset: offset})
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateTransactionInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	tx, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tx)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, d)
}

type statusReq struct {
	Status string `json:"status"`
}

// UpdateStatus moves a PENDING record to APPROVED or REJECTED on behalf of
// the authenticated store.
func (h *TransactionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.FromCtx(r.Context())
	var req statusReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w, err)
		return
	}
	to := models.TransactionStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	tx, err := h.Svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), to, u.Wallet)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tx)
}

type refundReq struct {
	TransactionID string `json:"transactionId"`
	RefundTxHash  string `json:"refundTxHash"`
}

func (h *TransactionHandler) Refund(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.FromCtx(r.Context())
	var req refundReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w, err)
		return
	}
	if errs := validate.Collect(
		validate.Required("transactionId", req.TransactionID),
		validate.Required("refundTxHash", req.RefundTxHash),
	); errs != nil {
		writeErr(w, r, h.Log, errs)
		return
	}
	tx, err := h.Svc.RecordRefund(r.Context(), req.TransactionID, req.RefundTxHash, u.Wallet)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tx)
}
