package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/qrpay-backend/internal/models"
	"github.com/baharkarakas/qrpay-backend/internal/payflow"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "poscli.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cfg, err := loadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080", cfg.APIURL)
		assert.Equal(t, uint8(6), cfg.Decimals)
		assert.Equal(t, payflow.DefaultDisplayDelay, cfg.DisplayDelay)

		flow, err := cfg.flowConfig()
		require.NoError(t, err)
		assert.Equal(t, "0.05", flow.DiscountRate.String())
	})

	t.Run("file then env", func(t *testing.T) {
		path := writeConfig(t, "api_url: http://records:9000\ndiscount: \"0.1\"\ndisplay_delay: 1s\n")
		t.Setenv("POSCLI_API_URL", "http://override:1")
		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "http://override:1", cfg.APIURL)
		assert.Equal(t, "0.1", cfg.Discount)
		assert.Equal(t, time.Second, cfg.DisplayDelay)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad discount", func(t *testing.T) {
		for _, d := range []string{"x", "-0.1", "1"} {
			_, err := cliConfig{Discount: d}.flowConfig()
			assert.Error(t, err, d)
		}
	})
}

func run(t *testing.T, config string, args ...string) (string, error) {
	t.Helper()
	root, cleanup := newRootCommand()
	defer cleanup()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", config}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCommands_ScanFlowPersists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/stores/abc123" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"store not found","code":"not_found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(models.Store{Name: "Demo Cafe", WalletAddress: "0xAA11", UniqueID: "abc123"})
	}))
	defer srv.Close()

	config := writeConfig(t, "api_url: "+srv.URL+"\nstate_dir: "+filepath.Join(t.TempDir(), "state")+"\n")

	_, err := run(t, config, "open")
	assert.ErrorIs(t, err, payflow.ErrCameraDenied)

	_, err = run(t, config, "grant-camera")
	require.NoError(t, err)

	out, err := run(t, config, "scan", `{"type":"store","uniqueId":"abc123"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Demo Cafe")

	// state survives into the next invocation
	out, err = run(t, config, "status")
	require.NoError(t, err)
	var st payflow.State
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, payflow.StepAmount, st.Step)
	assert.Equal(t, "0xAA11", st.WalletAddress)
	assert.Equal(t, "0", st.Amount)

	// no wallet configured
	_, err = run(t, config, "amount", "5")
	assert.ErrorIs(t, err, errNoWallet)

	_, err = run(t, config, "cancel")
	require.NoError(t, err)
	out, err = run(t, config, "status")
	require.NoError(t, err)
	var cleared payflow.State
	require.NoError(t, json.Unmarshal([]byte(out), &cleared))
	assert.True(t, cleared.IsZero())

	_, err = run(t, config, "scan", "zzz999")
	assert.ErrorIs(t, err, payflow.ErrUnknownStore)
}
