package payflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/qrpay-backend/internal/ledger"
	"github.com/baharkarakas/qrpay-backend/internal/models"
)

func newStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := OpenBadger("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type fakeWallet struct {
	balance decimal.Decimal
	err     error
	sent    []ledger.Transfer
}

func (f *fakeWallet) Account(context.Context) (string, error) { return "0xConsumer", nil }

func (f *fakeWallet) SignAndExecute(_ context.Context, tr ledger.Transfer) (ledger.Receipt, error) {
	if f.err != nil {
		return ledger.Receipt{}, f.err
	}
	f.sent = append(f.sent, tr)
	return ledger.Receipt{Signature: "H1", Sender: "0xConsumer"}, nil
}

func (f *fakeWallet) Balance(context.Context) (decimal.Decimal, error) { return f.balance, nil }

type directory map[string]models.Store

func (d directory) GetStoreByUniqueID(_ context.Context, id string) (models.Store, error) {
	s, ok := d[id]
	if !ok {
		return models.Store{}, models.ErrNotFound
	}
	return s, nil
}

type reportCall struct {
	amount                   string
	txHash, sender, receiver string
}

type fakeReporter struct {
	calls []reportCall
	err   error
}

func (f *fakeReporter) Report(_ context.Context, amount decimal.Decimal, txHash, sender, receiver string) error {
	f.calls = append(f.calls, reportCall{amount.String(), txHash, sender, receiver})
	return f.err
}

var demoCafe = models.Store{Name: "Demo Cafe", WalletAddress: "0xAA11", UniqueID: "abc123"}

type harness struct {
	m        *Machine
	store    *BadgerStore
	wallet   *fakeWallet
	reporter *fakeReporter
	slept    time.Duration
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:    newStore(t),
		wallet:   &fakeWallet{balance: decimal.RequireFromString("100")},
		reporter: &fakeReporter{},
	}
	h.m = NewMachine(h.store, h.wallet, directory{"abc123": demoCafe}, h.reporter, DefaultConfig(), nil)
	h.m.sleep = func(_ context.Context, d time.Duration) error {
		h.slept += d
		return nil
	}
	require.NoError(t, h.m.GrantCamera(context.Background()))
	return h
}

func TestStore_MergeOnSave(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Save(ctx, State{Name: "Demo Cafe", Step: StepAmount})
	require.NoError(t, err)
	_, err = s.Save(ctx, State{Amount: "12.5"})
	require.NoError(t, err)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Demo Cafe", got.Name)
	assert.Equal(t, "12.5", got.Amount)
	assert.Equal(t, StepAmount, got.Step)
	assert.Equal(t, StateVersion, got.Version)

	active, err := s.Active(ctx)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestStore_ClearTwice(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.Save(ctx, State{Step: StepScan})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, s.Clear(ctx))
		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.True(t, got.IsZero())
		active, err := s.Active(ctx)
		require.NoError(t, err)
		assert.False(t, active)
	}
}

func TestStore_CameraSurvivesClear(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ok, err := s.CameraGranted(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.GrantCamera(ctx))
	require.NoError(t, s.Clear(ctx))
	ok, err = s.CameraGranted(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMachine_HappyPath(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	st, err := h.m.Open(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepScan, st.Step)

	st, err = h.m.Scan(ctx, `{"type":"store","uniqueId":"abc123"}`)
	require.NoError(t, err)
	assert.Equal(t, "Demo Cafe", st.Name)
	assert.Equal(t, "0xAA11", st.WalletAddress)
	assert.Equal(t, "0", st.Amount)
	assert.Equal(t, StepAmount, st.Step)

	st, err = h.m.EnterAmount(ctx, "12.5")
	require.NoError(t, err)
	assert.Equal(t, StepConfirm, st.Step)

	st, err = h.m.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepSuccess, st.Step)
	assert.Equal(t, "11.875", st.FinalAmount)
	assert.Equal(t, "H1", st.TxHash)
	require.Len(t, h.wallet.sent, 1)
	assert.Equal(t, "0xAA11", h.wallet.sent[0].Recipient)
	assert.Equal(t, "abc123", h.wallet.sent[0].Memo)
	assert.Equal(t, "11.875", h.wallet.sent[0].Amount.String())

	require.NoError(t, h.m.Finish(ctx))
	assert.Equal(t, []reportCall{{"11.875", "H1", "0xConsumer", "0xAA11"}}, h.reporter.calls)
	assert.Equal(t, DefaultDisplayDelay, h.slept)

	st, err = h.m.State(ctx)
	require.NoError(t, err)
	assert.True(t, st.IsZero())
}

func TestMachine_ScanFromIdleAndBareIdentifier(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	st, err := h.m.Scan(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, StepAmount, st.Step)
}

func TestMachine_ScanFailuresEndFlow(t *testing.T) {
	ctx := context.Background()
	for name, tc := range map[string]struct {
		payload string
		want    error
	}{
		"malformed": {"not a code!", ErrInvalidCode},
		"unknown":   {"zzz999", ErrUnknownStore},
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.m.Open(ctx)
			require.NoError(t, err)

			_, err = h.m.Scan(ctx, tc.payload)
			assert.ErrorIs(t, err, tc.want)

			st, err := h.m.State(ctx)
			require.NoError(t, err)
			assert.True(t, st.IsZero())
		})
	}
}

func TestMachine_CameraRequired(t *testing.T) {
	s := newStore(t)
	m := NewMachine(s, &fakeWallet{}, directory{}, &fakeReporter{}, DefaultConfig(), nil)
	_, err := m.Open(context.Background())
	assert.ErrorIs(t, err, ErrCameraDenied)
}

func TestMachine_AmountValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.m.Scan(ctx, "abc123")
	require.NoError(t, err)

	for _, raw := range []string{"", "abc", "0", "-3"} {
		st, err := h.m.EnterAmount(ctx, raw)
		assert.ErrorIs(t, err, ErrInvalidAmount, raw)
		assert.Equal(t, StepAmount, st.Step)
	}

	st, err := h.m.EnterAmount(ctx, "100.01")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, StepAmount, st.Step)

	st, err = h.m.EnterAmount(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, StepConfirm, st.Step)
}

func TestMachine_WalletFailureKeepsConfirm(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.m.Scan(ctx, "abc123")
	require.NoError(t, err)
	_, err = h.m.EnterAmount(ctx, "12.5")
	require.NoError(t, err)

	h.wallet.err = ledger.ErrRejected
	_, err = h.m.Confirm(ctx)
	assert.ErrorIs(t, err, ErrWalletFailed)

	st, err := h.m.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepConfirm, st.Step)
	assert.Equal(t, "12.5", st.Amount)
	assert.Empty(t, st.TxHash)

	h.wallet.err = nil
	st, err = h.m.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepSuccess, st.Step)
}

func TestMachine_ReportFailureStillClears(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.m.Scan(ctx, "abc123")
	require.NoError(t, err)
	_, err = h.m.EnterAmount(ctx, "10")
	require.NoError(t, err)
	_, err = h.m.Confirm(ctx)
	require.NoError(t, err)

	h.reporter.err = errors.New("connection refused")
	err = h.m.Finish(ctx)
	assert.ErrorIs(t, err, ErrReportFailed)

	st, err := h.m.State(ctx)
	require.NoError(t, err)
	assert.True(t, st.IsZero())
}

func TestMachine_CancelAndWrongStep(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.m.Confirm(ctx)
	assert.ErrorIs(t, err, ErrWrongStep)
	assert.ErrorIs(t, h.m.Finish(ctx), ErrWrongStep)

	_, err = h.m.Scan(ctx, "abc123")
	require.NoError(t, err)
	_, err = h.m.EnterAmount(ctx, "5")
	require.NoError(t, err)

	require.NoError(t, h.m.Cancel(ctx))
	require.NoError(t, h.m.Cancel(ctx))
	st, err := h.m.State(ctx)
	require.NoError(t, err)
	assert.True(t, st.IsZero())
	assert.Empty(t, h.wallet.sent)
}
