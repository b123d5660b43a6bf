package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/baharkarakas/qrpay-backend/internal/api/httpx"
	"github.com/baharkarakas/qrpay-backend/internal/api/validate"
	"github.com/baharkarakas/qrpay-backend/internal/auth"
	"github.com/baharkarakas/qrpay-backend/internal/services"
)

type AuthHandler struct {
	TM       *auth.TokenManager
	Profiles *services.ProfileService
	Now      func() time.Time
	Log      *slog.Logger
}

func NewAuthHandler(tm *auth.TokenManager, profiles *services.ProfileService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{TM: tm, Profiles: profiles, Now: time.Now, Log: log}
}

type loginReq struct {
	WalletAddress string `json:"walletAddress"`
	Message       string `json:"message"`
	Signature     string `json:"signature"`
}

type tokenResp struct {
	auth.Pair
	Role string `json:"role"`
}

// Login exchanges a signed login message for a token pair whose role is the
// wallet's current registration.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w, err)
		return
	}
	if errs := validate.Collect(
		validate.Required("walletAddress", req.WalletAddress),
		validate.Required("message", req.Message),
		validate.Required("signature", req.Signature),
	); errs != nil {
		writeErr(w, r, h.Log, errs)
		return
	}
	if err := auth.VerifyLogin(req.WalletAddress, req.Message, req.Signature, h.Now()); err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
		return
	}

	id, err := h.Profiles.Resolve(r.Context(), req.WalletAddress)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	h.issue(w, r, req.WalletAddress, string(id.Role))
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh re-resolves the role so a wallet that registered after login picks
// it up.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := httpx.DecodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, services.CodeInvalidInput, "refreshToken required", nil)
		return
	}
	claims, err := h.TM.ParseRefresh(req.RefreshToken)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token", nil)
		return
	}
	id, err := h.Profiles.Resolve(r.Context(), claims.Wallet())
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	h.issue(w, r, claims.Wallet(), string(id.Role))
}

func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, wallet, role string) {
	pair, err := h.TM.GeneratePair(wallet, role)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResp{Pair: pair, Role: role})
}
