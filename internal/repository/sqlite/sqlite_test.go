package sqlite

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/qrpay-backend/internal/models"
	"github.com/baharkarakas/qrpay-backend/internal/repository"
)

type fixture struct {
	repos    repository.Repositories
	consumer models.Consumer
	store    models.Store
}

func setup(t *testing.T) fixture {
	t.Helper()
	db, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repos := NewRepositories(db)
	ctx := context.Background()
	c, err := repos.Consumers.Create(ctx, models.Consumer{WalletAddress: "0xConsumer", Name: "Alice"})
	require.NoError(t, err)
	s, err := repos.Stores.Create(ctx, models.Store{WalletAddress: "0xStore", UniqueID: "abc123", Name: "Demo Cafe"})
	require.NoError(t, err)
	return fixture{repos: repos, consumer: c, store: s}
}

func (f fixture) newTx(hash string, amount string) repository.NewTransaction {
	return repository.NewTransaction{
		Amount:          decimal.RequireFromString(amount),
		TxHash:          hash,
		SenderAddress:   f.consumer.WalletAddress,
		ReceiverAddress: f.store.WalletAddress,
		ConsumerID:      f.consumer.ID,
		StoreID:         f.store.ID,
	}
}

func TestTransactions_CreateRejectsDuplicateHash(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tx, err := f.repos.Transactions.Create(ctx, f.newTx("H1", "11.875"))
	require.NoError(t, err)
	assert.Equal(t, models.TxnPending, tx.Status)
	assert.True(t, decimal.RequireFromString("11.875").Equal(tx.Amount))

	_, err = f.repos.Transactions.Create(ctx, f.newTx("H1", "3"))
	assert.ErrorIs(t, err, models.ErrDuplicate)

	list, err := f.repos.Transactions.List(ctx, models.TransactionFilter{
		WalletAddress: "0xStore", Role: models.RoleStore, Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "11.875", list[0].Amount.String())
}

func TestTransactions_ListNewestFirstWithPaging(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for _, h := range []string{"H1", "H2", "H3"} {
		_, err := f.repos.Transactions.Create(ctx, f.newTx(h, "1"))
		require.NoError(t, err)
	}

	page, err := f.repos.Transactions.List(ctx, models.TransactionFilter{
		WalletAddress: "0xConsumer", Role: models.RoleConsumer, Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "H3", page[0].TxHash)
	assert.Equal(t, "H2", page[1].TxHash)

	page, err = f.repos.Transactions.List(ctx, models.TransactionFilter{
		WalletAddress: "0xConsumer", Role: models.RoleConsumer, Limit: 2, Offset: 2,
	})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "H1", page[0].TxHash)

	page, err = f.repos.Transactions.List(ctx, models.TransactionFilter{
		WalletAddress: "0xConsumer", Role: models.RoleStore, Limit: 2,
	})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestTransactions_StatusTransitionsOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tx, err := f.repos.Transactions.Create(ctx, f.newTx("H1", "5"))
	require.NoError(t, err)

	updated, err := f.repos.Transactions.UpdateStatusIfPending(ctx, tx.ID, models.TxnApproved)
	require.NoError(t, err)
	assert.Equal(t, models.TxnApproved, updated.Status)

	_, err = f.repos.Transactions.UpdateStatusIfPending(ctx, tx.ID, models.TxnRejected)
	assert.ErrorIs(t, err, models.ErrNotPending)

	_, err = f.repos.Transactions.UpdateStatusIfPending(ctx, "missing", models.TxnApproved)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTransactions_Refund(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, err := f.repos.Transactions.Create(ctx, f.newTx("H1", "5"))
	require.NoError(t, err)
	b, err := f.repos.Transactions.Create(ctx, f.newTx("H2", "5"))
	require.NoError(t, err)

	// the refund hash may not collide with a payment hash
	_, err = f.repos.Transactions.SetRefundIfPending(ctx, a.ID, "H2")
	assert.ErrorIs(t, err, models.ErrDuplicate)

	refunded, err := f.repos.Transactions.SetRefundIfPending(ctx, a.ID, "R1")
	require.NoError(t, err)
	assert.Equal(t, models.TxnRejected, refunded.Status)
	require.NotNil(t, refunded.RefundTxHash)
	assert.Equal(t, "R1", *refunded.RefundTxHash)

	_, err = f.repos.Transactions.SetRefundIfPending(ctx, b.ID, "R1")
	assert.ErrorIs(t, err, models.ErrDuplicate)

	_, err = f.repos.Transactions.SetRefundIfPending(ctx, a.ID, "R2")
	assert.ErrorIs(t, err, models.ErrNotPending)

	exists, err := f.repos.Transactions.HashExists(ctx, "R1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIdentities_Resolve(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	id, err := f.repos.Identities.Resolve(ctx, "0xConsumer")
	require.NoError(t, err)
	assert.Equal(t, models.RoleConsumer, id.Role)
	require.NotNil(t, id.Consumer)
	assert.Equal(t, "Alice", id.Consumer.Name)

	id, err = f.repos.Identities.Resolve(ctx, "0xStore")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStore, id.Role)
	require.NotNil(t, id.Store)
	assert.Equal(t, "abc123", id.Store.UniqueID)

	id, err = f.repos.Identities.Resolve(ctx, "0xNobody")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUnregistered, id.Role)
}

func TestProfiles_UniqueAndUpdate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.repos.Stores.Create(ctx, models.Store{WalletAddress: "0xOther", UniqueID: "abc123", Name: "Clash"})
	assert.ErrorIs(t, err, models.ErrDuplicate)

	_, err = f.repos.Consumers.Create(ctx, models.Consumer{WalletAddress: "0xConsumer", Name: "Again"})
	assert.ErrorIs(t, err, models.ErrDuplicate)

	name, link := "Demo Cafe 2", "https://lu.ma/demo"
	s, err := f.repos.Stores.Update(ctx, "0xStore", models.ProfileUpdate{Name: &name, EventLink: &link})
	require.NoError(t, err)
	assert.Equal(t, "Demo Cafe 2", s.Name)
	require.NotNil(t, s.EventLink)
	assert.Equal(t, link, *s.EventLink)
	assert.Equal(t, "abc123", s.UniqueID)

	empty := ""
	s, err = f.repos.Stores.Update(ctx, "0xStore", models.ProfileUpdate{EventLink: &empty})
	require.NoError(t, err)
	assert.Nil(t, s.EventLink)

	_, err = f.repos.Consumers.Update(ctx, "0xMissing", models.ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, f.repos.Stores.SetQRCode(ctx, f.store.ID, "data:image/png;base64,AA=="))
	got, err := f.repos.Stores.GetByUniqueID(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AA==", got.QRCode)

	require.NoError(t, f.repos.AuditLogs.Create(ctx, models.AuditLog{
		EntityType: models.AuditEntityStore, EntityID: f.store.ID, Action: models.AuditProfileEdit,
		Details: map[string]any{"field": "name"},
	}))
}
