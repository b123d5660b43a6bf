package payflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/qrpay-backend/internal/ledger"
	"github.com/baharkarakas/qrpay-backend/internal/models"
	"github.com/baharkarakas/qrpay-backend/internal/qrcode"
)

const (
	DefaultDiscountRate = "0.05"
	DefaultDisplayDelay = 3 * time.Second
)

var (
	ErrCameraDenied      = errors.New("camera permission not granted")
	ErrWrongStep         = errors.New("action not allowed at this step")
	ErrInvalidCode       = errors.New("not a store code")
	ErrUnknownStore      = errors.New("store not found")
	ErrInvalidAmount     = errors.New("amount must be a positive number")
	ErrInsufficientFunds = errors.New("amount exceeds wallet balance")
	ErrWalletFailed      = errors.New("wallet did not complete the transfer")
	ErrReportFailed      = errors.New("payment sent but not recorded")
)

// StoreDirectory looks up stores by the id printed in their code.
type StoreDirectory interface {
	GetStoreByUniqueID(ctx context.Context, uniqueID string) (models.Store, error)
}

// Reporter records a completed transfer with the record service.
type Reporter interface {
	Report(ctx context.Context, amount decimal.Decimal, txHash, sender, receiver string) error
}

type Config struct {
	DiscountRate decimal.Decimal
	DisplayDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		DiscountRate: decimal.RequireFromString(DefaultDiscountRate),
		DisplayDelay: DefaultDisplayDelay,
	}
}

// Machine advances the flow one step per call, loading and saving state
// through the Store each time.
type Machine struct {
	store    Store
	wallet   ledger.Wallet
	stores   StoreDirectory
	reporter Reporter
	cfg      Config
	log      *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewMachine(store Store, wallet ledger.Wallet, stores StoreDirectory, reporter Reporter, cfg Config, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	return &Machine{
		store:    store,
		wallet:   wallet,
		stores:   stores,
		reporter: reporter,
		cfg:      cfg,
		log:      log,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *Machine) expect(ctx context.Context, steps ...Step) (State, error) {
	st, err := m.store.Load(ctx)
	if err != nil {
		return State{}, err
	}
	for _, s := range steps {
		if st.Step == s {
			return st, nil
		}
	}
	return st, fmt.Errorf("%w: at %q", ErrWrongStep, st.Step)
}

func (m *Machine) State(ctx context.Context) (State, error) { return m.store.Load(ctx) }

// GrantCamera records the one-time permission to use the scanner.
func (m *Machine) GrantCamera(ctx context.Context) error { return m.store.GrantCamera(ctx) }

// Open starts a fresh flow at the scan step.
func (m *Machine) Open(ctx context.Context) (State, error) {
	ok, err := m.store.CameraGranted(ctx)
	if err != nil {
		return State{}, err
	}
	if !ok {
		return State{}, ErrCameraDenied
	}
	if err := m.store.Clear(ctx); err != nil {
		return State{}, err
	}
	return m.store.Save(ctx, State{Step: StepScan})
}

// Scan resolves a scanned payload to a store, opening the scanner first when
// no flow is active. Anything that does not resolve ends the flow.
func (m *Machine) Scan(ctx context.Context, payload string) (State, error) {
	st, err := m.expect(ctx, StepIdle, StepScan)
	if err != nil {
		return State{}, err
	}
	if st.IsZero() {
		if _, err := m.Open(ctx); err != nil {
			return State{}, err
		}
	}
	fail := func(cause error) (State, error) {
		if err := m.store.Clear(ctx); err != nil {
			m.log.Error("clear flow", "err", err)
		}
		return State{}, cause
	}

	p, err := qrcode.Decode(payload)
	if err != nil {
		return fail(ErrInvalidCode)
	}
	store, err := m.stores.GetStoreByUniqueID(ctx, p.UniqueID)
	if err != nil {
		m.log.Info("scan did not resolve", "unique_id", p.UniqueID, "kind", p.Kind.String(), "err", err)
		return fail(fmt.Errorf("%w: %s", ErrUnknownStore, p.UniqueID))
	}
	return m.store.Save(ctx, State{
		Name:          store.Name,
		WalletAddress: store.WalletAddress,
		UniqueID:      store.UniqueID,
		Amount:        "0",
		Step:          StepAmount,
	})
}

// EnterAmount validates the amount against the wallet balance. A rejected
// amount leaves the flow where it was.
func (m *Machine) EnterAmount(ctx context.Context, raw string) (State, error) {
	st, err := m.expect(ctx, StepAmount, StepConfirm)
	if err != nil {
		return State{}, err
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !amount.IsPositive() {
		return st, ErrInvalidAmount
	}
	balance, err := m.wallet.Balance(ctx)
	if err != nil {
		return st, fmt.Errorf("read balance: %w", err)
	}
	if amount.GreaterThan(balance) {
		return st, ErrInsufficientFunds
	}
	return m.store.Save(ctx, State{Amount: amount.String(), Step: StepConfirm})
}

// FinalAmount is what the consumer actually pays for an entered amount.
func (m *Machine) FinalAmount(entered decimal.Decimal) decimal.Decimal {
	return ledger.ApplyDiscount(entered, m.cfg.DiscountRate)
}

// Confirm signs and submits the discounted transfer. A wallet failure keeps
// the flow at confirm so the user can retry or cancel.
func (m *Machine) Confirm(ctx context.Context) (State, error) {
	st, err := m.expect(ctx, StepConfirm)
	if err != nil {
		return State{}, err
	}
	amount, err := decimal.NewFromString(st.Amount)
	if err != nil {
		return st, ErrInvalidAmount
	}
	final := m.FinalAmount(amount)

	receipt, err := m.wallet.SignAndExecute(ctx, ledger.Transfer{
		Recipient: st.WalletAddress,
		Amount:    final,
		Memo:      st.UniqueID,
	})
	if err != nil {
		m.log.Warn("transfer failed", "store", st.UniqueID, "err", err)
		return st, fmt.Errorf("%w: %v", ErrWalletFailed, err)
	}
	return m.store.Save(ctx, State{
		TxHash:        receipt.Signature,
		SenderAddress: receipt.Sender,
		FinalAmount:   final.String(),
		Step:          StepSuccess,
	})
}

// Finish reports the transfer, holds the success display and clears the flow.
// A failed report is returned as a warning after the flow is cleared; the
// transfer itself stands.
func (m *Machine) Finish(ctx context.Context) error {
	st, err := m.expect(ctx, StepSuccess)
	if err != nil {
		return err
	}
	final, err := decimal.NewFromString(st.FinalAmount)
	if err != nil {
		return fmt.Errorf("stored final amount: %w", err)
	}

	reportErr := m.reporter.Report(ctx, final, st.TxHash, st.SenderAddress, st.WalletAddress)
	if reportErr != nil {
		m.log.Warn("transaction not recorded", "tx_hash", st.TxHash, "err", reportErr)
	}
	if err := m.sleep(ctx, m.cfg.DisplayDelay); err != nil {
		return err
	}
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	if reportErr != nil {
		return fmt.Errorf("%w: %v", ErrReportFailed, reportErr)
	}
	return nil
}

// Cancel discards the flow from any step.
func (m *Machine) Cancel(ctx context.Context) error { return m.store.Clear(ctx) }
