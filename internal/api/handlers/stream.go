package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/baharkarakas/qrpay-backend/internal/api/httpx"
	"github.com/baharkarakas/qrpay-backend/internal/api/validate"
	"github.com/baharkarakas/qrpay-backend/internal/models"
	"github.com/baharkarakas/qrpay-backend/internal/notify"
	"github.com/baharkarakas/qrpay-backend/internal/services"
)

// StreamHandler pushes newly created records to the consumer that sent them
// or the store that received them as server-sent events.
type StreamHandler struct {
	Hub       *notify.Hub
	Keepalive time.Duration
	Log       *slog.Logger
}

func NewStreamHandler(hub *notify.Hub, keepalive time.Duration, log *slog.Logger) *StreamHandler {
	if keepalive <= 0 {
		keepalive = 15 * time.Second
	}
	return &StreamHandler{Hub: hub, Keepalive: keepalive, Log: log}
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errs := validate.Collect(
		validate.Required("walletAddress", q.Get("walletAddress")),
		validate.Required("role", q.Get("role")),
	); errs != nil {
		writeErr(w, r, h.Log, errs)
		return
	}
	role, err := models.ParseRole(q.Get("role"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, services.CodeInvalidInput, err.Error(), nil)
		return
	}

	sub, err := h.Hub.Register(notify.Key{WalletAddress: q.Get("walletAddress"), Role: role})
	if err != nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable", "notifications unavailable", nil)
		return
	}
	defer h.Hub.Deregister(sub)

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.Log.Warn("stream not flushable", "err", err)
		return
	}

	ticker := time.NewTicker(h.Keepalive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(ev.Transaction)
			if err != nil {
				h.Log.Error("encode event", "err", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\nid: %s\ndata: %s\n\n", ev.Type, ev.Transaction.ID, data); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
