package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/qrpay-backend/internal/metrics"
	"github.com/baharkarakas/qrpay-backend/internal/models"
	"github.com/baharkarakas/qrpay-backend/internal/notify"
	repo "github.com/baharkarakas/qrpay-backend/internal/repository"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Broadcaster is the part of notify.Hub the service needs.
type Broadcaster interface {
	Broadcast(ev notify.Event) error
}

// Submitter runs side work asynchronously; *worker.Pool satisfies it.
type Submitter interface {
	Submit(f func()) bool
}

type TransactionService struct {
	trx       repo.Transactions
	consumers repo.Consumers
	stores    repo.Stores
	audit     repo.AuditLogs
	hub       Broadcaster
	wp        Submitter
	logger    *slog.Logger
}

func NewTransactionService(repos repo.Repositories, hub Broadcaster, wp Submitter, logger *slog.Logger) *TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionService{
		trx:       repos.Transactions,
		consumers: repos.Consumers,
		stores:    repos.Stores,
		audit:     repos.AuditLogs,
		hub:       hub,
		wp:        wp,
		logger:    logger,
	}
}

type CreateTransactionInput struct {
	Amount          string `json:"amount"`
	TxHash          string `json:"txHash"`
	SenderAddress   string `json:"senderAddress"`
	ReceiverAddress string `json:"receiverAddress"`
}

// ----------------- Helpers -----------------

func (s *TransactionService) record(entityID, action, actor string, details map[string]any) {
	l := models.AuditLog{
		EntityType: models.AuditEntityTransaction,
		EntityID:   entityID,
		Action:     action,
		Actor:      actor,
		Details:    details,
	}
	ok := s.wp.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.audit.Create(ctx, l); err != nil {
			s.logger.Error("audit write failed", "entity_id", entityID, "action", action, "err", err)
		}
	})
	if !ok {
		s.logger.Warn("audit write dropped", "entity_id", entityID, "action", action)
	}
}

// ParseAmount accepts a strictly positive decimal string.
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, invalid("amount must be a decimal number")
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, invalid("amount must be > 0")
	}
	return amount, nil
}

// ----------------- Create -----------------

func (s *TransactionService) Create(ctx context.Context, in CreateTransactionInput) (models.Transaction, error) {
	in.TxHash = strings.TrimSpace(in.TxHash)
	in.SenderAddress = strings.TrimSpace(in.SenderAddress)
	in.ReceiverAddress = strings.TrimSpace(in.ReceiverAddress)
	if in.TxHash == "" || in.SenderAddress == "" || in.ReceiverAddress == "" {
		return models.Transaction{}, invalid("txHash, senderAddress and receiverAddress are required")
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return models.Transaction{}, err
	}

	consumer, err := s.consumers.GetByWallet(ctx, in.SenderAddress)
	if err != nil {
		return models.Transaction{}, lookupErr("consumer", err)
	}
	store, err := s.stores.GetByWallet(ctx, in.ReceiverAddress)
	if err != nil {
		return models.Transaction{}, lookupErr("store", err)
	}

	// a hash already used as a refund must not come back as a payment
	if exists, err := s.trx.HashExists(ctx, in.TxHash); err != nil {
		return models.Transaction{}, internal("failed to check hash", err)
	} else if exists {
		return models.Transaction{}, conflict("transaction already recorded", models.ErrDuplicate)
	}

	tx, err := s.trx.Create(ctx, repo.NewTransaction{
		Amount:          amount,
		TxHash:          in.TxHash,
		SenderAddress:   consumer.WalletAddress,
		ReceiverAddress: store.WalletAddress,
		ConsumerID:      consumer.ID,
		StoreID:         store.ID,
	})
	if errors.Is(err, models.ErrDuplicate) {
		return models.Transaction{}, conflict("transaction already recorded", err)
	}
	if err != nil {
		return models.Transaction{}, internal("failed to create transaction", err)
	}

	metrics.TransactionsCreated.Inc()
	s.record(tx.ID, models.AuditCreated, tx.SenderAddress, map[string]any{
		"amount": tx.Amount.String(), "txHash": tx.TxHash,
	})
	if err := s.hub.Broadcast(notify.Event{Type: notify.EventTransactionCreated, Transaction: tx}); err != nil {
		s.logger.Warn("notification not sent", "tx_id", tx.ID, "err", err)
	}
	return tx, nil
}

// ----------------- Queries -----------------

func (s *TransactionService) List(ctx context.Context, wallet, role string, limit, offset int) ([]models.Transaction, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, invalid("walletAddress required")
	}
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, invalid(err.Error())
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	txs, err := s.trx.List(ctx, models.TransactionFilter{WalletAddress: wallet, Role: r, Limit: limit, Offset: offset})
	if err != nil {
		return nil, internal("failed to list transactions", err)
	}
	return txs, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (models.TransactionDetail, error) {
	tx, err := s.trx.GetByID(ctx, id)
	if err != nil {
		return models.TransactionDetail{}, lookupErr("transaction", err)
	}
	detail := models.TransactionDetail{Transaction: tx}
	if c, err := s.consumers.GetByWallet(ctx, tx.SenderAddress); err == nil {
		detail.Consumer = c.Summary()
	} else if !errors.Is(err, models.ErrNotFound) {
		return models.TransactionDetail{}, internal("failed to load consumer", err)
	}
	if st, err := s.stores.GetByWallet(ctx, tx.ReceiverAddress); err == nil {
		detail.Store = st.Summary()
	} else if !errors.Is(err, models.ErrNotFound) {
		return models.TransactionDetail{}, internal("failed to load store", err)
	}
	return detail, nil
}

// ----------------- Lifecycle -----------------

// loadOwned returns the record if it belongs to the acting store and is still
// open for a transition.
func (s *TransactionService) loadOwned(ctx context.Context, id, storeWallet string) (models.Transaction, error) {
	if strings.TrimSpace(storeWallet) == "" {
		return models.Transaction{}, forbidden("store wallet required")
	}
	tx, err := s.trx.GetByID(ctx, id)
	if err != nil {
		return models.Transaction{}, lookupErr("transaction", err)
	}
	if tx.ReceiverAddress != storeWallet {
		return models.Transaction{}, forbidden("transaction does not belong to this store")
	}
	if tx.Status != models.TxnPending {
		metrics.TransitionConflicts.Inc()
		return models.Transaction{}, conflict("transaction is already "+string(tx.Status), models.ErrNotPending)
	}
	return tx, nil
}

func (s *TransactionService) UpdateStatus(ctx context.Context, id string, to models.TransactionStatus, storeWallet string) (models.Transaction, error) {
	if !to.Terminal() {
		return models.Transaction{}, invalid("status must be APPROVED or REJECTED")
	}
	if _, err := s.loadOwned(ctx, id, storeWallet); err != nil {
		return models.Transaction{}, err
	}

	tx, err := s.trx.UpdateStatusIfPending(ctx, id, to)
	switch {
	case errors.Is(err, models.ErrNotPending):
		// lost a race with a concurrent transition
		metrics.TransitionConflicts.Inc()
		return models.Transaction{}, conflict("transaction is no longer PENDING", err)
	case err != nil:
		return models.Transaction{}, lookupErr("transaction", err)
	}

	metrics.StatusTransitions.WithLabelValues(string(to)).Inc()
	s.record(tx.ID, models.AuditStatusChange, storeWallet, map[string]any{"status": string(to)})
	return tx, nil
}

func (s *TransactionService) RecordRefund(ctx context.Context, id, refundHash, storeWallet string) (models.Transaction, error) {
	refundHash = strings.TrimSpace(refundHash)
	if refundHash == "" {
		return models.Transaction{}, invalid("refundTxHash required")
	}
	if _, err := s.loadOwned(ctx, id, storeWallet); err != nil {
		return models.Transaction{}, err
	}

	tx, err := s.trx.SetRefundIfPending(ctx, id, refundHash)
	switch {
	case errors.Is(err, models.ErrDuplicate):
		return models.Transaction{}, conflict("refund hash already recorded", err)
	case errors.Is(err, models.ErrNotPending):
		metrics.TransitionConflicts.Inc()
		return models.Transaction{}, conflict("transaction is no longer PENDING", err)
	case err != nil:
		return models.Transaction{}, lookupErr("transaction", err)
	}

	metrics.RefundsRecorded.Inc()
	metrics.StatusTransitions.WithLabelValues(string(models.TxnRejected)).Inc()
	s.record(tx.ID, models.AuditRefund, storeWallet, map[string]any{"refundTxHash": refundHash})
	return tx, nil
}
