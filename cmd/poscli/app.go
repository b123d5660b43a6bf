package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/qrpay-backend/internal/client"
	"github.com/baharkarakas/qrpay-backend/internal/ledger"
	"github.com/baharkarakas/qrpay-backend/internal/payflow"
)

var errNoWallet = errors.New("no wallet configured: set secret in poscli.yaml or POSCLI_SECRET")

// noWallet stands in when no secret is configured so read-only commands work.
type noWallet struct{}

func (noWallet) Account(context.Context) (string, error) { return "", errNoWallet }
func (noWallet) Balance(context.Context) (decimal.Decimal, error) {
	return decimal.Zero, errNoWallet
}
func (noWallet) SignAndExecute(context.Context, ledger.Transfer) (ledger.Receipt, error) {
	return ledger.Receipt{}, errNoWallet
}

type app struct {
	cfg     cliConfig
	log     *slog.Logger
	store   *payflow.BadgerStore
	api     *client.Client
	wallet  ledger.Wallet
	machine *payflow.Machine
}

func newApp(cfg cliConfig, log *slog.Logger) (*app, error) {
	flowCfg, err := cfg.flowConfig()
	if err != nil {
		return nil, err
	}
	var wallet ledger.Wallet = noWallet{}
	if cfg.Secret != "" {
		w, err := ledger.NewSolanaWalletFromConfig(cfg.RPCEndpoint, cfg.Secret, cfg.Mint, cfg.Decimals)
		if err != nil {
			return nil, err
		}
		wallet = w
	}
	store, err := payflow.OpenBadger(cfg.StateDir, log)
	if err != nil {
		return nil, err
	}
	api := client.New(cfg.APIURL, nil)
	return &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		api:     api,
		wallet:  wallet,
		machine: payflow.NewMachine(store, wallet, api, client.NewReporter(api, log), flowCfg, log),
	}, nil
}

func (a *app) Close() error { return a.store.Close() }

// signer returns the configured key for commands that log in.
func (a *app) signer() (solana.PrivateKey, error) {
	if a.cfg.Secret == "" {
		return nil, errNoWallet
	}
	return solana.PrivateKeyFromBase58(a.cfg.Secret)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
