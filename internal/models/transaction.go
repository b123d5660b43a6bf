package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TxnPending  TransactionStatus = "PENDING"
	TxnApproved TransactionStatus = "APPROVED"
	TxnRejected TransactionStatus = "REJECTED"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TxnPending, TxnApproved, TxnRejected:
		return true
	}
	return false
}

// Terminal reports whether s is one of the statuses a record may move to.
func (s TransactionStatus) Terminal() bool {
	return s == TxnApproved || s == TxnRejected
}

// CanTransition allows a single move out of PENDING and nothing afterwards.
func (s TransactionStatus) CanTransition(to TransactionStatus) bool {
	return s == TxnPending && to.Terminal()
}

type Transaction struct {
	ID              string            `json:"id"`
	Amount          decimal.Decimal   `json:"amount"`
	TxHash          string            `json:"txHash"`
	SenderAddress   string            `json:"senderAddress"`
	ReceiverAddress string            `json:"receiverAddress"`
	ConsumerID      string            `json:"consumerId"`
	StoreID         string            `json:"storeId"`
	Status          TransactionStatus `json:"status"`
	RefundTxHash    *string           `json:"refundTxHash,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// TransactionDetail is a record with the summaries of both parties.
type TransactionDetail struct {
	Transaction
	Consumer *ProfileSummary `json:"consumer,omitempty"`
	Store    *ProfileSummary `json:"store,omitempty"`
}

type TransactionFilter struct {
	WalletAddress string
	Role          Role
	Limit         int
	Offset        int
}
