package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/qrpay-backend/internal/api/httpx"
	"github.com/baharkarakas/qrpay-backend/internal/models"
	"github.com/baharkarakas/qrpay-backend/internal/services"
)

type ProfileHandler struct {
	Svc *services.ProfileService
	Log *slog.Logger
}

func NewProfileHandler(svc *services.ProfileService, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{Svc: svc, Log: log}
}

// ---------- consumers ----------

func (h *ProfileHandler) GetConsumer(w http.ResponseWriter, r *http.Request) {
	wallet, err := walletParam(r)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	c, err := h.Svc.GetConsumer(r.Context(), wallet)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *ProfileHandler) CreateConsumer(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterConsumerInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	c, err := h.Svc.RegisterConsumer(r.Context(), in)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, c)
}

func (h *ProfileHandler) UpdateConsumer(w http.ResponseWriter, r *http.Request) {
	wallet, err := walletParam(r)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	var in services.UpdateProfileInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	c, err := h.Svc.UpdateConsumer(r.Context(), wallet, in)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

// ---------- stores ----------

func (h *ProfileHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	wallet, err := walletParam(r)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	s, err := h.Svc.GetStore(r.Context(), wallet)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

func (h *ProfileHandler) GetStoreByUniqueID(w http.ResponseWriter, r *http.Request) {
	s, err := h.Svc.GetStoreByUniqueID(r.Context(), chi.URLParam(r, "uniqueId"))
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

func (h *ProfileHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterStoreInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	s, err := h.Svc.RegisterStore(r.Context(), in)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, s)
}

func (h *ProfileHandler) UpdateStore(w http.ResponseWriter, r *http.Request) {
	wallet, err := walletParam(r)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	var in services.UpdateProfileInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	s, err := h.Svc.UpdateStore(r.Context(), wallet, in)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

// ---------- identity ----------

type identityResp struct {
	Role    models.Role `json:"role"`
	Profile any         `json:"profile,omitempty"`
}

func (h *ProfileHandler) Identity(w http.ResponseWriter, r *http.Request) {
	wallet, err := walletParam(r)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	id, err := h.Svc.Resolve(r.Context(), wallet)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	resp := identityResp{Role: id.Role}
	switch id.Role {
	case models.RoleConsumer:
		resp.Profile = id.Consumer
	case models.RoleStore:
		resp.Profile = id.Store
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
