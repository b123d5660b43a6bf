// Package mocks holds testify mocks for the repository interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/baharkarakas/qrpay-backend/internal/models"
	"github.com/baharkarakas/qrpay-backend/internal/repository"
)

type cleanupT interface {
	mock.TestingT
	Cleanup(func())
}

// ----------------- Consumers -----------------

type MockConsumers struct{ mock.Mock }

func NewMockConsumers(t cleanupT) *MockConsumers {
	m := &MockConsumers{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockConsumers) Create(ctx context.Context, c models.Consumer) (models.Consumer, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(models.Consumer), args.Error(1)
}

func (m *MockConsumers) GetByWallet(ctx context.Context, wallet string) (models.Consumer, error) {
	args := m.Called(ctx, wallet)
	return args.Get(0).(models.Consumer), args.Error(1)
}

func (m *MockConsumers) Update(ctx context.Context, wallet string, u models.ProfileUpdate) (models.Consumer, error) {
	args := m.Called(ctx, wallet, u)
	return args.Get(0).(models.Consumer), args.Error(1)
}

// ----------------- Stores -----------------

type MockStores struct{ mock.Mock }

func NewMockStores(t cleanupT) *MockStores {
	m := &MockStores{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockStores) Create(ctx context.Context, s models.Store) (models.Store, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(models.Store), args.Error(1)
}

func (m *MockStores) GetByWallet(ctx context.Context, wallet string) (models.Store, error) {
	args := m.Called(ctx, wallet)
	return args.Get(0).(models.Store), args.Error(1)
}

func (m *MockStores) GetByUniqueID(ctx context.Context, uniqueID string) (models.Store, error) {
	args := m.Called(ctx, uniqueID)
	return args.Get(0).(models.Store), args.Error(1)
}

func (m *MockStores) Update(ctx context.Context, wallet string, u models.ProfileUpdate) (models.Store, error) {
	args := m.Called(ctx, wallet, u)
	return args.Get(0).(models.Store), args.Error(1)
}

func (m *MockStores) SetQRCode(ctx context.Context, id, qr string) error {
	return m.Called(ctx, id, qr).Error(0)
}

// ----------------- Identities -----------------

type MockIdentities struct{ mock.Mock }

func NewMockIdentities(t cleanupT) *MockIdentities {
	m := &MockIdentities{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockIdentities) Resolve(ctx context.Context, wallet string) (models.Identity, error) {
	args := m.Called(ctx, wallet)
	return args.Get(0).(models.Identity), args.Error(1)
}

// ----------------- Transactions -----------------

type MockTransactions struct{ mock.Mock }

func NewMockTransactions(t cleanupT) *MockTransactions {
	m := &MockTransactions{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTransactions) Create(ctx context.Context, in repository.NewTransaction) (models.Transaction, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.Transaction), args.Error(1)
}

func (m *MockTransactions) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Transaction), args.Error(1)
}

func (m *MockTransactions) List(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	args := m.Called(ctx, f)
	txs, _ := args.Get(0).([]models.Transaction)
	return txs, args.Error(1)
}

func (m *MockTransactions) UpdateStatusIfPending(ctx context.Context, id string, to models.TransactionStatus) (models.Transaction, error) {
	args := m.Called(ctx, id, to)
	return args.Get(0).(models.Transaction), args.Error(1)
}

func (m *MockTransactions) SetRefundIfPending(ctx context.Context, id, refundHash string) (models.Transaction, error) {
	args := m.Called(ctx, id, refundHash)
	return args.Get(0).(models.Transaction), args.Error(1)
}

func (m *MockTransactions) HashExists(ctx context.Context, hash string) (bool, error) {
	args := m.Called(ctx, hash)
	return args.Bool(0), args.Error(1)
}

// ----------------- AuditLogs -----------------

type MockAuditLogs struct{ mock.Mock }

func NewMockAuditLogs(t cleanupT) *MockAuditLogs {
	m := &MockAuditLogs{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAuditLogs) Create(ctx context.Context, l models.AuditLog) error {
	return m.Called(ctx, l).Error(0)
}
