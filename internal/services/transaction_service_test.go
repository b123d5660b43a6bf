package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/qrpay-backend/internal/metrics"
	"github.com/baharkarakas/qrpay-backend/internal/models"
	"github.com/baharkarakas/qrpay-backend/internal/notify"
	repo "github.com/baharkarakas/qrpay-backend/internal/repository"
	"github.com/baharkarakas/qrpay-backend/internal/repository/mocks"
	"github.com/baharkarakas/qrpay-backend/internal/worker"
)

var (
	_ Submitter   = (*worker.Pool)(nil)
	_ Broadcaster = (*notify.Hub)(nil)
)

// inline runs submitted work on the caller's goroutine.
type inline struct{}

func (inline) Submit(f func()) bool { f(); return true }

// saturated rejects everything, like a pool whose queue is full.
type saturated struct{}

func (saturated) Submit(func()) bool { return false }

type recordingHub struct{ events []notify.Event }

func (h *recordingHub) Broadcast(ev notify.Event) error {
	h.events = append(h.events, ev)
	return nil
}

type txFixture struct {
	trx       *mocks.MockTransactions
	consumers *mocks.MockConsumers
	stores    *mocks.MockStores
	audit     *mocks.MockAuditLogs
	hub       *recordingHub
	svc       *TransactionService
}

func newTxFixture(t *testing.T) *txFixture {
	f := &txFixture{
		trx:       mocks.NewMockTransactions(t),
		consumers: mocks.NewMockConsumers(t),
		stores:    mocks.NewMockStores(t),
		audit:     mocks.NewMockAuditLogs(t),
		hub:       &recordingHub{},
	}
	f.svc = NewTransactionService(repo.Repositories{
		Consumers:    f.consumers,
		Stores:       f.stores,
		Transactions: f.trx,
		AuditLogs:    f.audit,
	}, f.hub, inline{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func (f *txFixture) expectAudit(action string) {
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(l models.AuditLog) bool {
		return l.Action == action && l.EntityType == models.AuditEntityTransaction
	})).Return(nil).Once()
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var svcErr *Error
	if assert.ErrorAs(t, err, &svcErr) {
		assert.Equal(t, code, svcErr.Code)
	}
}

var (
	demoConsumer = models.Consumer{ID: "c1", WalletAddress: "C1", Name: "Alice"}
	demoStore    = models.Store{ID: "s1", WalletAddress: "S1", UniqueID: "abc123", Name: "Demo Cafe"}
)

func pendingTx() models.Transaction {
	return models.Transaction{
		ID:              "tx1",
		Amount:          decimal.RequireFromString("11.875"),
		TxHash:          "H1",
		SenderAddress:   "C1",
		ReceiverAddress: "S1",
		ConsumerID:      "c1",
		StoreID:         "s1",
		Status:          models.TxnPending,
	}
}

func TestTransactionService_Create(t *testing.T) {
	ctx := context.Background()
	in := CreateTransactionInput{Amount: "11.875", TxHash: "H1", SenderAddress: "C1", ReceiverAddress: "S1"}

	t.Run("records a pending payment and notifies", func(t *testing.T) {
		f := newTxFixture(t)
		f.consumers.On("GetByWallet", ctx, "C1").Return(demoConsumer, nil)
		f.stores.On("GetByWallet", ctx, "S1").Return(demoStore, nil)
		f.trx.On("HashExists", ctx, "H1").Return(false, nil)
		f.trx.On("Create", ctx, mock.MatchedBy(func(n repo.NewTransaction) bool {
			return n.TxHash == "H1" && n.ConsumerID == "c1" && n.StoreID == "s1" &&
				n.Amount.Equal(decimal.RequireFromString("11.875"))
		})).Return(pendingTx(), nil)
		f.expectAudit(models.AuditCreated)
		before := testutil.ToFloat64(metrics.TransactionsCreated)

		tx, err := f.svc.Create(ctx, in)

		require.NoError(t, err)
		assert.Equal(t, models.TxnPending, tx.Status)
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.TransactionsCreated))
		require.Len(t, f.hub.events, 1)
		assert.Equal(t, notify.EventTransactionCreated, f.hub.events[0].Type)
		assert.Equal(t, "tx1", f.hub.events[0].Transaction.ID)
	})

	t.Run("a saturated pool drops the audit write only", func(t *testing.T) {
		f := newTxFixture(t)
		f.svc.wp = saturated{}
		f.consumers.On("GetByWallet", ctx, "C1").Return(demoConsumer, nil)
		f.stores.On("GetByWallet", ctx, "S1").Return(demoStore, nil)
		f.trx.On("HashExists", ctx, "H1").Return(false, nil)
		f.trx.On("Create", ctx, mock.Anything).Return(pendingTx(), nil)

		tx, err := f.svc.Create(ctx, in)

		require.NoError(t, err)
		assert.Equal(t, "tx1", tx.ID)
		assert.Len(t, f.hub.events, 1)
		f.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects non positive or malformed amounts", func(t *testing.T) {
		for _, amount := range []string{"0", "-1", "abc", ""} {
			f := newTxFixture(t)
			bad := in
			bad.Amount = amount
			_, err := f.svc.Create(ctx, bad)
			assertCode(t, err, CodeInvalidInput)
			assert.Empty(t, f.hub.events)
		}
	})

	t.Run("requires hash and both addresses", func(t *testing.T) {
		f := newTxFixture(t)
		_, err := f.svc.Create(ctx, CreateTransactionInput{Amount: "1", TxHash: "H1", SenderAddress: "C1"})
		assertCode(t, err, CodeInvalidInput)
	})

	t.Run("unknown sender", func(t *testing.T) {
		f := newTxFixture(t)
		f.consumers.On("GetByWallet", ctx, "C1").Return(models.Consumer{}, models.ErrNotFound)

		_, err := f.svc.Create(ctx, in)
		assertCode(t, err, CodeNotFound)
	})

	t.Run("duplicate hash is a conflict", func(t *testing.T) {
		f := newTxFixture(t)
		f.consumers.On("GetByWallet", ctx, "C1").Return(demoConsumer, nil)
		f.stores.On("GetByWallet", ctx, "S1").Return(demoStore, nil)
		f.trx.On("HashExists", ctx, "H1").Return(false, nil)
		f.trx.On("Create", ctx, mock.Anything).
			Return(models.Transaction{}, errors.Join(models.ErrDuplicate, errors.New("23505")))

		_, err := f.svc.Create(ctx, in)
		assertCode(t, err, CodeConflict)
		assert.ErrorIs(t, err, models.ErrDuplicate)
		assert.Empty(t, f.hub.events)
	})

	t.Run("hash already used as a refund", func(t *testing.T) {
		f := newTxFixture(t)
		f.consumers.On("GetByWallet", ctx, "C1").Return(demoConsumer, nil)
		f.stores.On("GetByWallet", ctx, "S1").Return(demoStore, nil)
		f.trx.On("HashExists", ctx, "H1").Return(true, nil)

		_, err := f.svc.Create(ctx, in)
		assertCode(t, err, CodeConflict)
	})
}

func TestTransactionService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("clamps limit and offset", func(t *testing.T) {
		f := newTxFixture(t)
		f.trx.On("List", ctx, models.TransactionFilter{WalletAddress: "S1", Role: models.RoleStore, Limit: 50}).
			Return([]models.Transaction{pendingTx()}, nil).Once()
		f.trx.On("List", ctx, models.TransactionFilter{WalletAddress: "S1", Role: models.RoleStore, Limit: 200, Offset: 10}).
			Return([]models.Transaction{}, nil).Once()

		txs, err := f.svc.List(ctx, "S1", "store", 0, -5)
		require.NoError(t, err)
		assert.Len(t, txs, 1)

		_, err = f.svc.List(ctx, "S1", "STORE", 1000, 10)
		require.NoError(t, err)
	})

	t.Run("validates wallet and role", func(t *testing.T) {
		f := newTxFixture(t)
		_, err := f.svc.List(ctx, "", "store", 10, 0)
		assertCode(t, err, CodeInvalidInput)
		_, err = f.svc.List(ctx, "S1", "admin", 10, 0)
		assertCode(t, err, CodeInvalidInput)
	})
}

func TestTransactionService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("includes party summaries", func(t *testing.T) {
		f := newTxFixture(t)
		f.trx.On("GetByID", ctx, "tx1").Return(pendingTx(), nil)
		f.consumers.On("GetByWallet", ctx, "C1").Return(demoConsumer, nil)
		f.stores.On("GetByWallet", ctx, "S1").Return(demoStore, nil)

		d, err := f.svc.Get(ctx, "tx1")
		require.NoError(t, err)
		require.NotNil(t, d.Consumer)
		require.NotNil(t, d.Store)
		assert.Equal(t, "Alice", d.Consumer.Name)
		assert.Equal(t, "Demo Cafe", d.Store.Name)
	})

	t.Run("missing party is omitted", func(t *testing.T) {
		f := newTxFixture(t)
		f.trx.On("GetByID", ctx, "tx1").Return(pendingTx(), nil)
		f.consumers.On("GetByWallet", ctx, "C1").Return(models.Consumer{}, models.ErrNotFound)
		f.stores.On("GetByWallet", ctx, "S1").Return(demoStore, nil)

		d, err := f.svc.Get(ctx, "tx1")
		require.NoError(t, err)
		assert.Nil(t, d.Consumer)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newTxFixture(t)
		f.trx.On("GetByID", ctx, "nope").Return(models.Transaction{}, models.ErrNotFound)

		_, err := f.svc.Get(ctx, "nope")
		assertCode(t, err, CodeNotFound)
	})
}

func TestTransactionService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("approves a pending record once", func(t *testing.T) {
		f := newTxFixture(t)
		approved := pendingTx()
		approved.Status = models.TxnApproved
		f.trx.On("GetByID", ctx, "tx1").Return(pendingTx(), nil).Once()
		f.trx.On("UpdateStatusIfPending", ctx, "tx1", models.TxnApproved).Return(approved, nil).Once()
		f.expectAudit(models.AuditStatusChange)

		tx, err := f.svc.UpdateStatus(ctx, "tx1", models.TxnApproved, "S1")
		require.NoError(t, err)
		assert.Equal(t, models.TxnApproved, tx.Status)

		f.trx.On("GetByID", ctx, "tx1").Return(approved, nil).Once()
		_, err = f.svc.UpdateStatus(ctx, "tx1", models.TxnRejected, "S1")
		assertCode(t, err, CodeConflict)
		assert.ErrorIs(t, err, models.ErrNotPending)
	})

	t.Run("losing a concurrent transition is a conflict", func(t *testing.T) {
		f := newTxFixture(t)
		f.trx.On("GetByID", ctx, "tx1").Return(pendingTx(), nil)
		f.trx.On("UpdateStatusIfPending", ctx, "tx1", models.TxnRejected).
			Return(models.Transaction{}, models.ErrNotPending)

		_, err := f.svc.UpdateStatus(ctx, "tx1", models.TxnRejected, "S1")
		assertCode(t, err, CodeConflict)
	})

	t.Run("only the receiving store may act", func(t *testing.T) {
		f := newTxFixture(t)
		f.trx.On("GetByID", ctx, "tx1").Return(pendingTx(), nil)

		_, err := f.svc.UpdateStatus(ctx, "tx1", models.TxnApproved, "S2")
		assertCode(t, err, CodeForbidden)
	})

	t.Run("target must be terminal", func(t *testing.T) {
		f := newTxFixture(t)
		_, err := f.svc.UpdateStatus(ctx, "tx1", models.TxnPending, "S1")
		assertCode(t, err, CodeInvalidInput)
		_, err = f.svc.UpdateStatus(ctx, "tx1", "DONE", "S1")
		assertCode(t, err, CodeInvalidInput)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newTxFixture(t)
		f.trx.On("GetByID", ctx, "nope").Return(models.Transaction{}, models.ErrNotFound)

		_, err := f.svc.UpdateStatus(ctx, "nope", models.TxnApproved, "S1")
		assertCode(t, err, CodeNotFound)
	})
}

func TestTransactionService_RecordRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the refund and rejects", func(t *testing.T) {
		f := newTxFixture(t)
		refunded := pendingTx()
		refunded.Status = models.TxnRejected
		hash := "R1"
		refunded.RefundTxHash = &hash
		f.trx.On("GetByID", ctx, "tx1").Return(pendingTx(), nil)
		f.trx.On("SetRefundIfPending", ctx, "tx1", "R1").Return(refunded, nil)
		f.expectAudit(models.AuditRefund)

		tx, err := f.svc.RecordRefund(ctx, "tx1", " R1 ", "S1")
		require.NoError(t, err)
		assert.Equal(t, models.TxnRejected, tx.Status)
		require.NotNil(t, tx.RefundTxHash)
		assert.Equal(t, "R1", *tx.RefundTxHash)
	})

	t.Run("refund hash already used", func(t *testing.T) {
		f := newTxFixture(t)
		f.trx.On("GetByID", ctx, "tx1").Return(pendingTx(), nil)
		f.trx.On("SetRefundIfPending", ctx, "tx1", "H1").Return(models.Transaction{}, models.ErrDuplicate)

		_, err := f.svc.RecordRefund(ctx, "tx1", "H1", "S1")
		assertCode(t, err, CodeConflict)
	})

	t.Run("requires a hash and a store", func(t *testing.T) {
		f := newTxFixture(t)
		_, err := f.svc.RecordRefund(ctx, "tx1", "", "S1")
		assertCode(t, err, CodeInvalidInput)
		_, err = f.svc.RecordRefund(ctx, "tx1", "R1", "")
		assertCode(t, err, CodeForbidden)
	})
}
