package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/baharkarakas/qrpay-backend/internal/services"
)

func TestWriteErr_LogsInternalCauseToInjectedLogger(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, nil))
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)

	writeErr(w, r, log, errors.New("pool exhausted"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pool exhausted")
	assert.Contains(t, logs.String(), "request failed")
	assert.Contains(t, logs.String(), "pool exhausted")
}

func TestWriteErr_ClientErrorsAreNotLogged(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, nil))
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/stores/zzz", nil)

	writeErr(w, r, log, &services.Error{Code: services.CodeNotFound, Message: "store not found"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "store not found")
	assert.Empty(t, logs.String())
}
